// Package logger provides logging implementations for catcensus runs.
//
// Loggers report per-source progress and the batch summary. Implementations
// are thread-safe and filter messages by level.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/harrison/catcensus/internal/models"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// ConsoleLogger logs run progress to a writer with timestamps and thread safety.
// All output is prefixed with [HH:MM:SS] timestamps.
// Color output is enabled when the writer is a terminal and NO_COLOR is unset.
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a ConsoleLogger that writes to the provided io.Writer.
// If writer is nil, messages are silently discarded.
// Valid levels: trace, debug, info, warn, error (case-insensitive).
// If logLevel is empty or invalid, defaults to "info".
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(writer),
	}
}

// isTerminal reports whether w is a TTY that should receive colors.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil {
		return false
	}
	if color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// normalizeLogLevel converts a log level string to lowercase and validates it.
// Returns "info" as default for empty or invalid levels.
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))
	switch normalized {
	case "trace", "debug", "info", "warn", "error":
		return normalized
	}
	return "info"
}

// logLevelToInt converts a log level string to its numeric value.
func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cl.logLevel)
}

// LogTrace logs a trace-level message (most verbose).
func (cl *ConsoleLogger) LogTrace(message string) {
	cl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (cl *ConsoleLogger) LogDebug(message string) {
	cl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
func (cl *ConsoleLogger) LogInfo(message string) {
	cl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (cl *ConsoleLogger) LogWarn(message string) {
	cl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (cl *ConsoleLogger) LogError(message string) {
	cl.logWithLevel("ERROR", message)
}

// logWithLevel writes "[HH:MM:SS] [LEVEL] message" if filtering allows it.
func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl.writer == nil || !cl.shouldLog(strings.ToLower(level)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	label := level
	if cl.colorOutput {
		label = levelColor(level).Sprint(level)
	}
	fmt.Fprintf(cl.writer, "[%s] [%s] %s\n", timestamp(), label, message)
}

func levelColor(level string) *color.Color {
	switch level {
	case "TRACE":
		return color.New(color.FgHiBlack)
	case "DEBUG":
		return color.New(color.FgCyan)
	case "INFO":
		return color.New(color.FgBlue)
	case "WARN":
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}

// LogSourceStart logs that a source is about to be fetched, at DEBUG level.
// Format: "[HH:MM:SS] Fetching <source>"
func (cl *ConsoleLogger) LogSourceStart(source string) {
	if cl.writer == nil || !cl.shouldLog("debug") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	fmt.Fprintf(cl.writer, "[%s] Fetching %s\n", timestamp(), source)
}

// LogSourceResult logs the outcome of one source. Successes are INFO,
// failures are ERROR.
// Format: "[HH:MM:SS] <source> (<format>): mothers: N, kittens: N, male: N (<duration>)"
func (cl *ConsoleLogger) LogSourceResult(result models.SourceResult) {
	if cl.writer == nil {
		return
	}

	level := "info"
	if result.Failed() {
		level = "error"
	}
	if !cl.shouldLog(level) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	if result.Failed() {
		msg := fmt.Sprintf("%s: %v", result.Source, result.Error)
		if cl.colorOutput {
			msg = color.New(color.FgRed).Sprint(msg)
		}
		fmt.Fprintf(cl.writer, "[%s] %s\n", ts, msg)
		return
	}

	var counts string
	if cl.colorOutput {
		counts = formatColorizedCounts(result.Result)
	} else {
		counts = formatCounts(result.Result)
	}
	fmt.Fprintf(cl.writer, "[%s] %s (%s): %s (%s)\n", ts, result.Source, result.Format, counts, formatDuration(result.Duration))
}

// LogSummary logs the batch summary at INFO level.
func (cl *ConsoleLogger) LogSummary(result models.BatchResult) {
	if cl.writer == nil || !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	total := result.Succeeded + result.Failed

	pb := NewProgressBar(total, 10, cl.colorOutput)
	pb.Update(result.Succeeded)

	var b strings.Builder
	header := "=== Census Summary ==="
	if cl.colorOutput {
		header = color.New(color.Bold).Sprint(header)
	}
	fmt.Fprintf(&b, "[%s] %s\n", ts, header)
	fmt.Fprintf(&b, "[%s] Sources: %s\n", ts, pb.Render())

	failedLine := fmt.Sprintf("Failed: %d", result.Failed)
	if cl.colorOutput && result.Failed > 0 {
		failedLine = color.New(color.FgRed).Sprint(failedLine)
	}
	fmt.Fprintf(&b, "[%s] %s\n", ts, failedLine)
	fmt.Fprintf(&b, "[%s] Mothers: %d\n", ts, result.TotalMothers)
	fmt.Fprintf(&b, "[%s] Kittens: %d (%d male)\n", ts, result.TotalKittens, result.TotalMale)
	fmt.Fprintf(&b, "[%s] Duration: %s\n", ts, formatDuration(result.Duration))

	if len(result.FailedSources) > 0 {
		fmt.Fprintf(&b, "[%s] Failed sources:\n", ts)
		for _, failed := range result.FailedSources {
			fmt.Fprintf(&b, "[%s]   - %s: %v\n", ts, failed.Source, failed.Error)
		}
	}

	io.WriteString(cl.writer, b.String())
}

// timestamp returns the current time formatted as "15:04:05" (HH:MM:SS).
func timestamp() string {
	return time.Now().Format("15:04:05")
}

// formatDuration converts a time.Duration to a short human-readable string.
// Examples: "12ms", "5s", "1m30s"
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%ds", int64(d.Seconds()))
	default:
		minutes := d / time.Minute
		seconds := (d % time.Minute) / time.Second
		if seconds == 0 {
			return fmt.Sprintf("%dm", minutes)
		}
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	}
}

// NoOpLogger discards all log messages.
type NoOpLogger struct{}

// NewNoOpLogger creates a NoOpLogger instance.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

// LogSourceStart is a no-op implementation.
func (n *NoOpLogger) LogSourceStart(source string) {}

// LogSourceResult is a no-op implementation.
func (n *NoOpLogger) LogSourceResult(result models.SourceResult) {}

// LogSummary is a no-op implementation.
func (n *NoOpLogger) LogSummary(result models.BatchResult) {}

// LogWarn is a no-op implementation.
func (n *NoOpLogger) LogWarn(message string) {}
