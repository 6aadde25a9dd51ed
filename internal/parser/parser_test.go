package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/catcensus/internal/census"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		want Format
	}{
		{"cats.json", FormatJSON},
		{"CATS.JSON", FormatJSON},
		{"cats.yaml", FormatYAML},
		{"cats.yml", FormatYAML},
		{"cats.md", FormatMarkdown},
		{"cats.markdown", FormatMarkdown},
		{"https://example.com/data/sample.json?v=2", FormatJSON},
		{"https://example.com/cats.yaml#top", FormatYAML},
		{"cats.txt", FormatUnknown},
		{"-", FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFormat(tt.name))
		})
	}
}

func TestFormatFromContentType(t *testing.T) {
	tests := []struct {
		contentType string
		want        Format
	}{
		{"application/json", FormatJSON},
		{"application/json; charset=utf-8", FormatJSON},
		{"application/vnd.cats+json", FormatJSON},
		{"application/yaml", FormatYAML},
		{"text/x-yaml", FormatYAML},
		{"text/markdown; charset=UTF-8", FormatMarkdown},
		{"text/plain", FormatUnknown},
		{"", FormatUnknown},
		{";;;", FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatFromContentType(tt.contentType))
		})
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("YAML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	f, err = ParseFormat("md")
	require.NoError(t, err)
	assert.Equal(t, FormatMarkdown, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatUnknown, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestFormatString(t *testing.T) {
	assert.Equal(t, "json", FormatJSON.String())
	assert.Equal(t, "yaml", FormatYAML.String())
	assert.Equal(t, "markdown", FormatMarkdown.String())
	assert.Equal(t, "unknown", FormatUnknown.String())
}

func TestNewParser_Unknown(t *testing.T) {
	_, err := NewParser(FormatUnknown)
	assert.Error(t, err)
}

func TestAggregate_AllFormatsAgree(t *testing.T) {
	payloads := map[Format]string{
		FormatJSON: `[{"name":"Bella","kittens":[{"gender":"m"},{"gender":"f"}]},{"name":"Luna","kittens":[{"gender":"m"}]}]`,
		FormatYAML: `
- name: Bella
  kittens:
    - gender: m
    - gender: f
- name: Luna
  kittens:
    - gender: m
`,
		FormatMarkdown: `# Shelter census

## Bella
- m
- gender: f

## Luna
- m
`,
	}

	for format, payload := range payloads {
		t.Run(format.String(), func(t *testing.T) {
			result, err := Aggregate(format, "test", []byte(payload))
			require.NoError(t, err)
			assert.Equal(t, "The mother cats are called  Bella Luna", result.MotherSummary)
			assert.Equal(t, "3 total cats and 2 male cats.", result.KittenSummary)
			assert.Equal(t, 2, result.Mothers)
		})
	}
}

func TestDecode_UnknownFallsBackToJSON(t *testing.T) {
	mothers, err := Decode(FormatUnknown, "stdin", []byte(`[{"name":"Tiger","kittens":[]}]`))
	require.NoError(t, err)
	require.Len(t, mothers, 1)
	assert.Equal(t, "Tiger", mothers[0].Name)
}

func TestDecode_ErrorsAreTaggedWithSource(t *testing.T) {
	tests := []struct {
		name    string
		format  Format
		payload string
	}{
		{"json", FormatJSON, `{not json`},
		{"yaml mapping", FormatYAML, "name: Bella\nkittens: []\n"},
		{"yaml syntax", FormatYAML, "- name: [unterminated\n"},
		{"yaml missing kittens", FormatYAML, "- name: Bella\n"},
		{"yaml empty", FormatYAML, ""},
		{"markdown list before heading", FormatMarkdown, "- m\n- f\n"},
		{"markdown empty heading", FormatMarkdown, "## \n- m\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.format, "cats."+tt.format.String(), []byte(tt.payload))
			require.Error(t, err)

			var de *census.DecodeError
			require.True(t, errors.As(err, &de), "expected DecodeError, got %T: %v", err, err)
			assert.Equal(t, tt.format.String(), de.Format)
			assert.Equal(t, "cats."+tt.format.String(), de.Source)
		})
	}
}

func TestMarkdownParser_Details(t *testing.T) {
	doc := `# Census

Some notes about the shelter.

## **Cleo**

- m
- gender: F
- ` + "`x`" + `

### Volunteers
Not a mother.

## Nala
`
	mothers, err := NewMarkdownParser().Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, mothers, 2)

	assert.Equal(t, "Cleo", mothers[0].Name)
	require.Len(t, mothers[0].Kittens, 3)
	assert.Equal(t, "m", mothers[0].Kittens[0].Gender)
	assert.Equal(t, "F", mothers[0].Kittens[1].Gender)
	assert.Equal(t, "x", mothers[0].Kittens[2].Gender)

	assert.Equal(t, "Nala", mothers[1].Name)
	assert.Empty(t, mothers[1].Kittens)
}

