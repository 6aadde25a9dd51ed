package logger

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/harrison/catcensus/internal/models"
)

// colorScheme defines consistent colors for census counters.
type colorScheme struct {
	label *color.Color
	value *color.Color
	male  *color.Color
	empty *color.Color
}

func newColorScheme() *colorScheme {
	return &colorScheme{
		label: color.New(color.FgCyan),
		value: color.New(color.FgWhite),
		male:  color.New(color.FgGreen),
		empty: color.New(color.FgYellow),
	}
}

// formatCounts renders "mothers: N, kittens: N, male: N".
func formatCounts(r *models.AggregationResult) string {
	if r == nil {
		return "no result"
	}
	return fmt.Sprintf("mothers: %d, kittens: %d, male: %d", r.Mothers, r.Total, r.Male)
}

// formatColorizedCounts is formatCounts with cyan labels. An empty census is
// highlighted in yellow.
func formatColorizedCounts(r *models.AggregationResult) string {
	if r == nil {
		return "no result"
	}

	scheme := newColorScheme()
	if r.Mothers == 0 {
		return scheme.empty.Sprint("no mothers")
	}

	return fmt.Sprintf("%s: %s, %s: %s, %s: %s",
		scheme.label.Sprint("mothers"), scheme.value.Sprint(r.Mothers),
		scheme.label.Sprint("kittens"), scheme.value.Sprint(r.Total),
		scheme.label.Sprint("male"), scheme.male.Sprint(r.Male),
	)
}
