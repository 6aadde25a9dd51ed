package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harrison/catcensus/internal/config"
	"github.com/harrison/catcensus/internal/fileutil"
	"github.com/harrison/catcensus/internal/history"
	"github.com/harrison/catcensus/internal/logger"
	"github.com/harrison/catcensus/internal/models"
	"github.com/harrison/catcensus/internal/runner"
)

// loadConfig reads the config named by --config (or the home default) and
// applies --log-level. Command-specific flags are merged by the caller.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("log-level") {
		level, _ := cmd.Flags().GetString("log-level")
		cfg.MergeWithFlags(&level, nil, nil, nil, nil)
	}

	return cfg, nil
}

// eventLogger is what commands log through: run progress plus leveled messages.
type eventLogger interface {
	runner.Logger
	LogInfo(message string)
	LogError(message string)
}

// multiLogger implements eventLogger by delegating to multiple loggers
type multiLogger struct {
	loggers []eventLogger
}

// LogSourceStart forwards to all loggers
func (ml *multiLogger) LogSourceStart(source string) {
	for _, l := range ml.loggers {
		l.LogSourceStart(source)
	}
}

// LogSourceResult forwards to all loggers
func (ml *multiLogger) LogSourceResult(result models.SourceResult) {
	for _, l := range ml.loggers {
		l.LogSourceResult(result)
	}
}

// LogSummary forwards to all loggers
func (ml *multiLogger) LogSummary(result models.BatchResult) {
	for _, l := range ml.loggers {
		l.LogSummary(result)
	}
}

// LogInfo forwards to all loggers
func (ml *multiLogger) LogInfo(message string) {
	for _, l := range ml.loggers {
		l.LogInfo(message)
	}
}

// LogWarn forwards to all loggers
func (ml *multiLogger) LogWarn(message string) {
	for _, l := range ml.loggers {
		l.LogWarn(message)
	}
}

// LogError forwards to all loggers
func (ml *multiLogger) LogError(message string) {
	for _, l := range ml.loggers {
		l.LogError(message)
	}
}

// newLogger builds the console logger on w plus a file logger when
// cfg.LogDir is set. The returned close function is never nil.
func newLogger(cfg *config.Config, w io.Writer) (*multiLogger, func() error, error) {
	ml := &multiLogger{
		loggers: []eventLogger{logger.NewConsoleLogger(w, cfg.LogLevel)},
	}

	if cfg.LogDir == "" {
		return ml, func() error { return nil }, nil
	}

	fileLog, err := logger.NewFileLoggerWithLevel(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create file logger: %w", err)
	}
	ml.loggers = append(ml.loggers, fileLog)

	return ml, fileLog.Close, nil
}

// openHistory opens the history store at dbPath, or the configured path
// when dbPath is empty.
func openHistory(cfg *config.Config, dbPath string) (*history.Store, error) {
	if dbPath == "" {
		dbPath = cfg.History.DBPath
	}
	store, err := history.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}
	return store, nil
}

// expandSources replaces directory arguments with the census files inside
// them, honoring --recursive.
func expandSources(cmd *cobra.Command, args []string) ([]string, error) {
	recursive, _ := cmd.Flags().GetBool("recursive")
	return fileutil.ExpandSources(args, fileutil.ScanOptions{
		Extensions: fileutil.CensusExtensions,
		Recursive:  recursive,
	})
}

// confirmAction prompts on out and reads a y/yes answer from in.
func confirmAction(in io.Reader, out io.Writer) bool {
	fmt.Fprintf(out, "Continue? [y/N]: ")

	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		return false
	}

	response := strings.TrimSpace(strings.ToLower(scanner.Text()))
	return response == "y" || response == "yes"
}
