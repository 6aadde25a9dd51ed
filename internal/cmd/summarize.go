package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/catcensus/internal/display"
	"github.com/harrison/catcensus/internal/fetch"
	"github.com/harrison/catcensus/internal/filelock"
	"github.com/harrison/catcensus/internal/models"
	"github.com/harrison/catcensus/internal/parser"
	"github.com/harrison/catcensus/internal/runner"
	"github.com/harrison/catcensus/internal/watch"
)

// NewSummarizeCommand creates the summarize command
func NewSummarizeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summarize <source>...",
		Short: "Print the mother and kitten summaries for census payloads",
		Long: `Summarize reads each source, decodes the census payload and prints

  The mother cats are called  <name> <name> ...
  <total> total cats and <male> male cats.

A source is a file path, a directory of payload files (add --recursive to
descend), an http(s) URL, or "-" for stdin. The payload format
is detected from the file extension or the response Content-Type and falls
back to JSON; --input-format forces it.

Sources are processed concurrently. A source that cannot be fetched or
decoded is reported and the command exits non-zero, but the remaining
sources are still summarized.

Examples:
  catcensus summarize cats.json
  cat cats.yaml | catcensus summarize --input-format yaml -
  catcensus summarize --format json https://example.com/census.json
  catcensus summarize --record --output summary.txt shelters/
  catcensus summarize --watch cats.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSummarize,
	}

	cmd.Flags().String("format", "", "Output format: text, json, yaml (overrides config)")
	cmd.Flags().String("input-format", "", "Force payload format: json, yaml, markdown")
	cmd.Flags().String("output", "", "Write the rendered summaries to this file instead of stdout")
	cmd.Flags().Bool("record", false, "Record each source in the history database (overrides config)")
	cmd.Flags().String("db-path", "", "Path to the history database (overrides config)")
	cmd.Flags().Duration("timeout", 0, "Per-source retrieval timeout, e.g. 10s (overrides config)")
	cmd.Flags().BoolP("recursive", "r", false, "Descend into subdirectories of directory sources")
	cmd.Flags().BoolP("watch", "w", false, "Keep running and re-summarize local files when they change")
	cmd.Flags().Int("max-concurrency", 0, "Maximum sources processed at once, 0 = unlimited (overrides config)")

	return cmd
}

func runSummarize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var (
		outputFormat   *string
		timeout        *time.Duration
		maxConcurrency *int
		record         *bool
	)
	if cmd.Flags().Changed("format") {
		v, _ := cmd.Flags().GetString("format")
		outputFormat = &v
	}
	if cmd.Flags().Changed("timeout") {
		v, _ := cmd.Flags().GetDuration("timeout")
		timeout = &v
	}
	if cmd.Flags().Changed("max-concurrency") {
		v, _ := cmd.Flags().GetInt("max-concurrency")
		maxConcurrency = &v
	}
	if cmd.Flags().Changed("record") {
		v, _ := cmd.Flags().GetBool("record")
		record = &v
	}
	cfg.MergeWithFlags(nil, timeout, maxConcurrency, outputFormat, record)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	format, err := display.ParseOutputFormat(cfg.OutputFormat)
	if err != nil {
		return err
	}

	sources, err := expandSources(cmd, args)
	if err != nil {
		return err
	}

	inputName, _ := cmd.Flags().GetString("input-format")
	inputFormat, err := parser.ParseFormat(inputName)
	if err != nil {
		return err
	}

	log, closeLog, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeLog()

	fetcher := fetch.NewFetcher(
		fetch.WithTimeout(cfg.Timeout),
		fetch.WithStdin(cmd.InOrStdin()),
	)

	opts := []runner.Option{
		runner.WithLogger(log),
		runner.WithFormat(inputFormat),
		runner.WithMaxConcurrency(cfg.MaxConcurrency),
		runner.WithSignalHandling(true),
	}

	ctx := cmdContext(cmd)

	if cfg.History.Enabled {
		dbPath, _ := cmd.Flags().GetString("db-path")
		store, err := openHistory(cfg, dbPath)
		if err != nil {
			return err
		}
		defer store.Close()

		if cfg.History.KeepDays > 0 {
			if removed, err := store.Cleanup(ctx, cfg.History.KeepDays); err != nil {
				log.LogWarn(fmt.Sprintf("history cleanup failed: %v", err))
			} else if removed > 0 {
				log.LogInfo(fmt.Sprintf("Removed %d run(s) older than %d days from history", removed, cfg.History.KeepDays))
			}
		}
		opts = append(opts, runner.WithRecorder(store))
	}

	outputPath, _ := cmd.Flags().GetString("output")
	emit := func(batch *models.BatchResult) error {
		var buf bytes.Buffer
		if err := display.Render(&buf, format, batch.Sources); err != nil {
			return fmt.Errorf("render summaries: %w", err)
		}
		if outputPath == "" {
			_, err := cmd.OutOrStdout().Write(buf.Bytes())
			return err
		}
		if err := filelock.WriteFile(ctx, outputPath, buf.Bytes()); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		log.LogInfo(fmt.Sprintf("Summaries written to %s", outputPath))
		return nil
	}

	r := runner.New(fetcher, opts...)

	if watchMode, _ := cmd.Flags().GetBool("watch"); watchMode {
		return watchAndSummarize(ctx, r, sources, emit, log)
	}

	batch, runErr := r.Run(ctx, sources)
	if batch == nil {
		return runErr
	}
	if err := emit(batch); err != nil {
		return err
	}

	if runErr != nil {
		return fmt.Errorf("census run interrupted: %w", runErr)
	}

	if batch.Failed > 0 {
		failed := make([]string, 0, len(batch.FailedSources))
		for _, sr := range batch.FailedSources {
			failed = append(failed, sr.Source)
		}
		display.WarnFailedSources(failed).Display(cmd.ErrOrStderr())
		return fmt.Errorf("%d of %d source(s) failed", batch.Failed, len(batch.Sources))
	}

	return nil
}

// watchAndSummarize summarizes sources once, then again for each local file
// whenever it changes, until ctx is canceled. Per-source failures are logged
// and do not stop watching.
func watchAndSummarize(ctx context.Context, r *runner.Runner, sources []string, emit func(*models.BatchResult) error, log eventLogger) error {
	var files []string
	for _, src := range sources {
		if src != fetch.StdinSource && !fetch.IsURL(src) {
			files = append(files, src)
		}
	}
	if len(files) == 0 {
		return fmt.Errorf("--watch needs at least one local file source")
	}

	w, err := watch.New(files)
	if err != nil {
		return err
	}
	defer w.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// current holds the latest outcome of every source so a refresh of one
	// file still emits the whole census.
	var current *models.BatchResult
	refresh := func(batchSources []string) error {
		batch, err := r.Run(ctx, batchSources)
		if batch != nil {
			current = runner.Merge(current, batch)
			if emitErr := emit(current); emitErr != nil {
				return emitErr
			}
		}
		if err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	}

	if err := refresh(sources); err != nil {
		return err
	}
	log.LogInfo(fmt.Sprintf("Watching %d file(s) for changes (Ctrl+C to stop)", len(files)))

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-w.Errors():
			log.LogWarn(fmt.Sprintf("watch error: %v", err))
		case ev := <-w.Events():
			if ev.Op == watch.Removed {
				log.LogWarn(fmt.Sprintf("%s was removed; waiting for it to come back", ev.Path))
				continue
			}
			log.LogInfo(fmt.Sprintf("%s changed", ev.Path))
			if err := refresh([]string{ev.Path}); err != nil {
				return err
			}
		}
	}
}
