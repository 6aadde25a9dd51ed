package display

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/harrison/catcensus/internal/models"
)

// OutputFormat selects how results are rendered.
type OutputFormat string

const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
	OutputYAML OutputFormat = "yaml"
)

// ParseOutputFormat validates a user-supplied output format name.
// An empty name selects text.
func ParseOutputFormat(name string) (OutputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "text":
		return OutputText, nil
	case "json":
		return OutputJSON, nil
	case "yaml", "yml":
		return OutputYAML, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", name)
}

// SourceView is the serialized form of one SourceResult.
type SourceView struct {
	Source string                    `json:"source" yaml:"source"`
	Format string                    `json:"format,omitempty" yaml:"format,omitempty"`
	RunID  string                    `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Result *models.AggregationResult `json:"result,omitempty" yaml:"result,omitempty"`
	Error  string                    `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewSourceView converts a SourceResult for serialization.
func NewSourceView(r models.SourceResult) SourceView {
	v := SourceView{
		Source: r.Source,
		Format: r.Format,
		RunID:  r.RunID,
		Result: r.Result,
	}
	if r.Error != nil {
		v.Error = r.Error.Error()
		v.Result = nil
	}
	return v
}

// Render writes results to w in the given format. Text output skips failed
// sources, which are reported by the logger; json and yaml include them with
// their error message.
func Render(w io.Writer, format OutputFormat, results []models.SourceResult) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(views(results))
	case OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(views(results)); err != nil {
			return err
		}
		return enc.Close()
	case OutputText, "":
		return renderText(w, results)
	}
	return fmt.Errorf("unknown output format %q", format)
}

func views(results []models.SourceResult) []SourceView {
	out := make([]SourceView, 0, len(results))
	for _, r := range results {
		out = append(out, NewSourceView(r))
	}
	return out
}

func renderText(w io.Writer, results []models.SourceResult) error {
	var b strings.Builder
	headed := len(results) > 1
	first := true

	for _, r := range results {
		if r.Failed() {
			continue
		}
		if headed {
			if !first {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "==> %s <==\n", r.Source)
		}
		first = false
		b.WriteString(r.Result.MotherSummary)
		b.WriteString("\n")
		b.WriteString(r.Result.KittenSummary)
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}
