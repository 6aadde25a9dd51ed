package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/catcensus/internal/display"
	"github.com/harrison/catcensus/internal/fetch"
	"github.com/harrison/catcensus/internal/parser"
)

// NewValidateCommand creates the validate command
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <source>...",
		Short: "Check that census payloads decode",
		Long: `Validate fetches and decodes each source without summarizing or recording
it, then reports the mother and kitten counts or the decode error.

Examples:
  catcensus validate cats.json shelter.yaml
  catcensus validate -r shelters/
  catcensus validate --input-format markdown notes.txt`,
		Args: cobra.MinimumNArgs(1),
		RunE: runValidate,
	}

	cmd.Flags().String("input-format", "", "Force payload format: json, yaml, markdown")
	cmd.Flags().BoolP("recursive", "r", false, "Descend into subdirectories of directory sources")

	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	sources, err := expandSources(cmd, args)
	if err != nil {
		return err
	}

	inputName, _ := cmd.Flags().GetString("input-format")
	forced, err := parser.ParseFormat(inputName)
	if err != nil {
		return err
	}

	ctx := cmdContext(cmd)

	fetcher := fetch.NewFetcher(
		fetch.WithTimeout(cfg.Timeout),
		fetch.WithStdin(cmd.InOrStdin()),
	)
	results := fetcher.FetchAll(ctx, sources, cfg.MaxConcurrency)

	progress := display.NewProgressIndicator(cmd.OutOrStdout(), len(results))
	progress.Start()

	for _, res := range results {
		if res.Err != nil {
			progress.Step(res.Source, false, res.Err.Error())
			continue
		}

		format := res.Payload.Format
		if forced != parser.FormatUnknown {
			format = forced
		}

		mothers, err := parser.Decode(format, res.Source, res.Payload.Data)
		if err != nil {
			progress.Step(res.Source, false, err.Error())
			continue
		}

		kittens := 0
		for _, m := range mothers {
			kittens += len(m.Kittens)
		}
		progress.Step(res.Source, true, fmt.Sprintf("%d mothers, %d kittens", len(mothers), kittens))
	}

	progress.Complete()

	if failed := progress.Failed(); failed > 0 {
		return fmt.Errorf("%d of %d source(s) invalid", failed, len(results))
	}
	return nil
}
