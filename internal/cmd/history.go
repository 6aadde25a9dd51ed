package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/catcensus/internal/filelock"
	"github.com/harrison/catcensus/internal/history"
)

// NewHistoryCommand creates the 'catcensus history' command group
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and manage recorded census runs",
		Long: `Inspect runs recorded with 'catcensus summarize --record' or by
'catcensus serve --record'.

Subcommands:
  list   - Show recent runs
  show   - Show one run with both summary lines
  stats  - Show totals across all runs
  clear  - Delete runs`,
	}

	cmd.PersistentFlags().String("db-path", "", "Path to the history database (overrides config)")

	cmd.AddCommand(newHistoryListCommand())
	cmd.AddCommand(newHistoryShowCommand())
	cmd.AddCommand(newHistoryStatsCommand())
	cmd.AddCommand(newHistoryClearCommand())

	return cmd
}

// historyDBPath resolves --db-path or the configured database path.
func historyDBPath(cmd *cobra.Command) (string, error) {
	if dbPath, _ := cmd.Flags().GetString("db-path"); dbPath != "" {
		return dbPath, nil
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return "", err
	}
	return cfg.History.DBPath, nil
}

// openExistingHistory opens the store, or returns ok=false after printing a
// notice when the database has never been created.
func openExistingHistory(cmd *cobra.Command) (*history.Store, bool, error) {
	dbPath, err := historyDBPath(cmd)
	if err != nil {
		return nil, false, err
	}

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Fprintf(cmd.OutOrStdout(), "No history recorded yet.\n")
		fmt.Fprintf(cmd.OutOrStdout(), "Database path: %s\n", dbPath)
		return nil, false, nil
	}

	store, err := history.NewStore(dbPath)
	if err != nil {
		return nil, false, fmt.Errorf("open history store: %w", err)
	}
	return store, true, nil
}

func newHistoryListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent census runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, ok, err := openExistingHistory(cmd)
			if err != nil || !ok {
				return err
			}
			defer store.Close()

			limit, _ := cmd.Flags().GetInt("limit")
			runs, err := store.List(cmdContext(cmd), limit)
			if err != nil {
				return err
			}

			asJSON, _ := cmd.Flags().GetBool("json")
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), runs)
			}

			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
				return nil
			}
			printRunTable(cmd.OutOrStdout(), runs)
			return nil
		},
	}

	cmd.Flags().Int("limit", 20, "Maximum number of runs to show (0 = all)")
	cmd.Flags().Bool("json", false, "Print runs as JSON")

	return cmd
}

func printRunTable(w io.Writer, runs []*history.Run) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tWHEN\tSOURCE\tFORMAT\tMOTHERS\tKITTENS\tMALE\tSTATUS")
	for _, r := range runs {
		status := color.GreenString("ok")
		if !r.Success {
			status = color.RedString("failed")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			shortID(r.RunID),
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			r.Source,
			r.Format,
			r.Mothers,
			r.TotalKittens,
			r.MaleKittens,
			status,
		)
	}
	tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func newHistoryShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one recorded run (full ID or 8+ character prefix)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, ok, err := openExistingHistory(cmd)
			if err != nil || !ok {
				return err
			}
			defer store.Close()

			run, err := store.Get(cmdContext(cmd), args[0])
			if err != nil {
				if errors.Is(err, history.ErrRunNotFound) {
					return fmt.Errorf("run %s not found", args[0])
				}
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run:      %s\n", run.RunID)
			fmt.Fprintf(out, "Source:   %s\n", run.Source)
			fmt.Fprintf(out, "Format:   %s\n", run.Format)
			fmt.Fprintf(out, "Recorded: %s\n", run.CreatedAt.Local().Format(time.RFC3339))
			fmt.Fprintf(out, "Duration: %dms\n", run.DurationMs)
			if !run.Success {
				fmt.Fprintf(out, "Status:   %s\n", color.RedString("failed"))
				fmt.Fprintf(out, "Error:    %s\n", run.ErrorMessage)
				return nil
			}
			fmt.Fprintf(out, "Status:   %s\n\n", color.GreenString("ok"))
			fmt.Fprintln(out, run.MotherSummary)
			fmt.Fprintln(out, run.KittenSummary)
			return nil
		},
	}
}

func newHistoryStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show totals across all recorded runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, ok, err := openExistingHistory(cmd)
			if err != nil || !ok {
				return err
			}
			defer store.Close()

			st, err := store.Stats(cmdContext(cmd))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Runs:     %d (%d failed)\n", st.Runs, st.Failed)
			fmt.Fprintf(out, "Mothers:  %d\n", st.Mothers)
			fmt.Fprintf(out, "Kittens:  %d (%d male)\n", st.TotalKittens, st.MaleKittens)
			if st.FirstRun != nil && st.LastRun != nil {
				fmt.Fprintf(out, "First:    %s\n", st.FirstRun.Local().Format(time.RFC3339))
				fmt.Fprintf(out, "Last:     %s\n", st.LastRun.Local().Format(time.RFC3339))
			}
			return nil
		},
	}
}

func newHistoryClearCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear [source]",
		Short: "Delete recorded runs",
		Long: `Delete recorded runs for one source, runs older than --older-than days,
or every run.

Examples:
  # Delete runs for one source (requires confirmation)
  catcensus history clear cats.json

  # Delete runs older than 30 days
  catcensus history clear --older-than 30

  # Delete everything without prompting
  catcensus history clear --yes`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryClear,
	}

	cmd.Flags().Int("older-than", 0, "Only delete runs older than this many days")
	cmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")

	return cmd
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	olderThan, _ := cmd.Flags().GetInt("older-than")
	if olderThan < 0 {
		return fmt.Errorf("--older-than must be >= 0, got %d", olderThan)
	}
	if olderThan > 0 && len(args) > 0 {
		return fmt.Errorf("cannot combine a source with --older-than")
	}

	store, ok, err := openExistingHistory(cmd)
	if err != nil || !ok {
		return err
	}
	defer store.Close()

	out := cmd.OutOrStdout()
	yes, _ := cmd.Flags().GetBool("yes")

	var what string
	switch {
	case olderThan > 0:
		what = fmt.Sprintf("runs older than %d days", olderThan)
	case len(args) == 1:
		what = fmt.Sprintf("all runs for %s", args[0])
	default:
		what = "ALL recorded runs"
	}

	if !yes {
		fmt.Fprintf(out, "WARNING: This will delete %s.\n", what)
		if !confirmAction(cmd.InOrStdin(), out) {
			fmt.Fprintf(out, "Operation cancelled.\n")
			return nil
		}
	}

	ctx := cmdContext(cmd)

	lock := filelock.For(store.Path())
	if err := lock.LockContext(ctx); err != nil {
		return err
	}
	defer lock.Unlock()

	var deleted int64
	if olderThan > 0 {
		deleted, err = store.Cleanup(ctx, olderThan)
	} else {
		source := ""
		if len(args) == 1 {
			source = args[0]
		}
		deleted, err = store.Clear(ctx, source)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Deleted %d run(s).\n", deleted)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
