package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/harrison/catcensus/internal/models"
)

// LatestLogName is the symlink that always points at the most recent run log.
const LatestLogName = "latest.log"

// FileLogger writes run events to a timestamped run-YYYYMMDD-HHMMSS.log file
// under logDir and keeps latest.log pointing at it.
// It is thread-safe and supports log level filtering.
type FileLogger struct {
	logDir   string
	runLog   *os.File
	runFile  string
	logLevel string
	mu       sync.Mutex
}

// NewFileLogger creates a FileLogger in logDir at the "info" level.
func NewFileLogger(logDir string) (*FileLogger, error) {
	return NewFileLoggerWithLevel(logDir, "info")
}

// NewFileLoggerWithLevel creates a FileLogger in logDir with the given level.
// The directory is created if needed.
func NewFileLoggerWithLevel(logDir string, logLevel string) (*FileLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	runFile := filepath.Join(logDir, fmt.Sprintf("run-%s.log", time.Now().Format("20060102-150405")))

	file, err := os.OpenFile(runFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create run log file: %w", err)
	}

	symlinkPath := filepath.Join(logDir, LatestLogName)
	if _, err := os.Lstat(symlinkPath); err == nil {
		if err := os.Remove(symlinkPath); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to remove old symlink: %w", err)
		}
	}
	if err := os.Symlink(filepath.Base(runFile), symlinkPath); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create symlink: %w", err)
	}

	fl := &FileLogger{
		logDir:   logDir,
		runLog:   file,
		runFile:  runFile,
		logLevel: normalizeLogLevel(logLevel),
	}

	fl.writeRunLog("=== Catcensus Run Log ===\n")
	fl.writeRunLog(fmt.Sprintf("Started at: %s\n\n", time.Now().Format(time.RFC3339)))

	return fl, nil
}

// Path returns the run log file path.
func (fl *FileLogger) Path() string {
	return fl.runFile
}

func (fl *FileLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(fl.logLevel)
}

// LogTrace logs a trace-level message.
func (fl *FileLogger) LogTrace(message string) { fl.logWithLevel("TRACE", message) }

// LogDebug logs a debug-level message.
func (fl *FileLogger) LogDebug(message string) { fl.logWithLevel("DEBUG", message) }

// LogInfo logs an info-level message.
func (fl *FileLogger) LogInfo(message string) { fl.logWithLevel("INFO", message) }

// LogWarn logs a warning-level message.
func (fl *FileLogger) LogWarn(message string) { fl.logWithLevel("WARN", message) }

// LogError logs an error-level message.
func (fl *FileLogger) LogError(message string) { fl.logWithLevel("ERROR", message) }

func (fl *FileLogger) logWithLevel(level string, message string) {
	if !fl.shouldLog(strings.ToLower(level)) {
		return
	}
	fl.writeRunLog(fmt.Sprintf("[%s] [%s] %s\n", timestamp(), level, message))
}

// LogSourceStart logs that a source is about to be fetched, at DEBUG level.
func (fl *FileLogger) LogSourceStart(source string) {
	if !fl.shouldLog("debug") {
		return
	}
	fl.writeRunLog(fmt.Sprintf("[%s] Fetching %s\n", timestamp(), source))
}

// LogSourceResult records one source outcome including both summary lines.
func (fl *FileLogger) LogSourceResult(result models.SourceResult) {
	level := "info"
	if result.Failed() {
		level = "error"
	}
	if !fl.shouldLog(level) {
		return
	}

	ts := timestamp()
	if result.Failed() {
		fl.writeRunLog(fmt.Sprintf("[%s] [ERROR] %s: %v\n", ts, result.Source, result.Error))
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s (%s): %s (%.3fs)\n", ts, result.Source, result.Format, formatCounts(result.Result), result.Duration.Seconds())
	if result.RunID != "" {
		fmt.Fprintf(&b, "[%s]   run: %s\n", ts, result.RunID)
	}
	fmt.Fprintf(&b, "[%s]   %s\n", ts, result.Result.MotherSummary)
	fmt.Fprintf(&b, "[%s]   %s\n", ts, result.Result.KittenSummary)
	fl.writeRunLog(b.String())
}

// LogSummary logs the batch statistics at INFO level.
func (fl *FileLogger) LogSummary(result models.BatchResult) {
	if !fl.shouldLog("info") {
		return
	}

	ts := timestamp()
	total := result.Succeeded + result.Failed

	status := "SUCCESS"
	if result.Failed > 0 {
		status = "PARTIAL"
		if result.Succeeded == 0 {
			status = "FAILED"
		}
	}

	message := fmt.Sprintf(
		"\n[%s] === CENSUS SUMMARY ===\n"+
			"[%s] Sources:      %d\n"+
			"[%s] Succeeded:    %d\n"+
			"[%s] Failed:       %d\n"+
			"[%s] Mothers:      %d\n"+
			"[%s] Kittens:      %d (%d male)\n"+
			"[%s] Total time:   %.1fs\n"+
			"[%s] Status:       %s (%d/%d sources)\n"+
			"[%s] Completed at: %s\n",
		ts, ts, total,
		ts, result.Succeeded,
		ts, result.Failed,
		ts, result.TotalMothers,
		ts, result.TotalKittens, result.TotalMale,
		ts, result.Duration.Seconds(),
		ts, status, result.Succeeded, total,
		ts, time.Now().Format(time.RFC3339),
	)
	fl.writeRunLog(message)
}

// Close flushes and closes the run log file.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog == nil {
		return nil
	}
	if err := fl.runLog.Sync(); err != nil {
		return fmt.Errorf("failed to sync run log: %w", err)
	}
	if err := fl.runLog.Close(); err != nil {
		return fmt.Errorf("failed to close run log: %w", err)
	}
	fl.runLog = nil
	return nil
}

func (fl *FileLogger) writeRunLog(message string) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		fl.runLog.WriteString(message)
		fl.runLog.Sync()
	}
}
