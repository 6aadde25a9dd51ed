// Package display renders census results and user-facing status for the
// catcensus CLI.
//
// # Rendering results
//
// Render writes one or more SourceResults in the selected output format:
//
//	format, err := display.ParseOutputFormat("json")
//	if err != nil {
//	    return err
//	}
//	display.Render(os.Stdout, format, results)
//
// The text format prints the two summary lines per source. With several
// sources each block is headed by "==> source <==".
//
// # Progress
//
// ProgressIndicator prints "[N/Total]" lines with ✓/✗ markers while sources
// are validated.
//
// # Warnings
//
//	warning := display.Warning{
//	    Title:      "2 sources could not be summarized",
//	    Sources:    []string{"a.json", "b.yaml"},
//	    Suggestion: "Run 'catcensus validate <source>' for details",
//	}
//	warning.Display(os.Stderr)
//
// Colors come from github.com/fatih/color and are dropped automatically when
// color.NoColor is set (non-TTY output or NO_COLOR).
package display
