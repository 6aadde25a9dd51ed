package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Warning represents a user-facing warning message
type Warning struct {
	Title      string   // Main warning title
	Message    string   // Detailed explanation (optional)
	Sources    []string // Related sources (optional)
	Suggestion string   // Action to take (optional)
}

// Display shows a formatted warning in yellow
func (w Warning) Display(out io.Writer) {
	var b strings.Builder

	b.WriteString("⚠️  Warning: ")
	b.WriteString(w.Title)
	b.WriteString("\n")

	if w.Message != "" {
		b.WriteString("    ")
		b.WriteString(w.Message)
		b.WriteString("\n")
	}

	if len(w.Sources) > 0 {
		if len(w.Sources) == 1 {
			b.WriteString("    Affected source:\n")
		} else {
			b.WriteString("    Affected sources:\n")
		}
		for i, src := range w.Sources {
			fmt.Fprintf(&b, "      %d. %s\n", i+1, src)
		}
	}

	if w.Suggestion != "" {
		b.WriteString("    Suggestion:\n    ")
		b.WriteString(w.Suggestion)
		b.WriteString("\n")
	}

	color.New(color.FgYellow).Fprint(out, b.String())
}

// WarnFailedSources builds the warning shown when some sources could not be
// summarized.
func WarnFailedSources(sources []string) Warning {
	title := "1 source could not be summarized"
	if len(sources) != 1 {
		title = fmt.Sprintf("%d sources could not be summarized", len(sources))
	}
	return Warning{
		Title:      title,
		Sources:    sources,
		Suggestion: "Run 'catcensus validate <source>' for details",
	}
}
