package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harrison/catcensus/internal/fetch"
	"github.com/harrison/catcensus/internal/history"
	"github.com/harrison/catcensus/internal/runner"
	"github.com/harrison/catcensus/internal/server"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the census over HTTP",
		Long: `Serve starts an HTTP API:

  GET  /healthz              liveness probe
  POST /v1/summaries         summarize the request body (?format= or Content-Type)
  GET  /v1/summaries         recorded runs, newest first (?limit=N)
  GET  /v1/summaries/:id     one recorded run
  GET  /v1/stats             totals across recorded runs

Decode failures answer 400 with {"error":{"message":...,"code":"decode_error"}}.
History routes need --record (or history.enabled in the config).

Examples:
  catcensus serve --addr :8080 --record
  curl -s -H 'Content-Type: application/json' --data @cats.json localhost:8080/v1/summaries`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().String("addr", "", "Listen address (overrides config server.addr)")
	cmd.Flags().Bool("record", false, "Record summarized payloads in the history database (overrides config)")
	cmd.Flags().String("db-path", "", "Path to the history database (overrides config)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("record") {
		record, _ := cmd.Flags().GetBool("record")
		cfg.MergeWithFlags(nil, nil, nil, nil, &record)
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, closeLog, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeLog()

	opts := []runner.Option{runner.WithLogger(log)}

	var store *history.Store
	if cfg.History.Enabled {
		dbPath, _ := cmd.Flags().GetString("db-path")
		store, err = openHistory(cfg, dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, runner.WithRecorder(store))
	}

	r := runner.New(fetch.NewFetcher(fetch.WithTimeout(cfg.Timeout)), opts...)

	srv := server.New(server.Config{
		Addr:            cfg.Server.Addr,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		AllowOrigins:    cfg.Server.AllowOrigins,
	}, r, store, log)

	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.ListenAndServe(ctx)
}
