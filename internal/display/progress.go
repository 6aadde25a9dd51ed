package display

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
)

// ProgressIndicator prints numbered per-source status lines.
type ProgressIndicator struct {
	writer  io.Writer
	total   int
	current int
	failed  int
	mu      sync.Mutex
}

// NewProgressIndicator creates a new progress indicator
func NewProgressIndicator(w io.Writer, total int) *ProgressIndicator {
	return &ProgressIndicator{
		writer: w,
		total:  total,
	}
}

// Start displays the header message
func (p *ProgressIndicator) Start() {
	label := "sources"
	if p.total == 1 {
		label = "source"
	}
	fmt.Fprintf(p.writer, "Validating %d %s:\n", p.total, label)
}

// Step displays "[N/Total] ✓ source: detail" in green, or ✗ in red when ok is false.
func (p *ProgressIndicator) Step(source string, ok bool, detail string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current++
	marker, c := "✓", color.New(color.FgGreen)
	if !ok {
		p.failed++
		marker, c = "✗", color.New(color.FgRed)
	}

	line := fmt.Sprintf("  [%d/%d] %s %s", p.current, p.total, marker, source)
	if detail != "" {
		line += ": " + detail
	}
	c.Fprintln(p.writer, line)
}

// Failed returns how many steps were reported as failures.
func (p *ProgressIndicator) Failed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failed
}

// Complete displays the closing status line.
func (p *ProgressIndicator) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.failed == 0 {
		fmt.Fprintf(p.writer, "%s All %d valid\n", color.New(color.FgGreen).Sprint("✓"), p.total)
		return
	}
	fmt.Fprintf(p.writer, "%s %d of %d invalid\n", color.New(color.FgRed).Sprint("✗"), p.failed, p.total)
}
