package display

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/harrison/catcensus/internal/models"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func bellaLuna() models.SourceResult {
	return models.SourceResult{
		Source: "cats.json",
		Format: "json",
		Result: &models.AggregationResult{
			MotherSummary: "The mother cats are called  Bella Luna",
			KittenSummary: "3 total cats and 2 male cats.",
			Mothers:       2,
			Total:         3,
			Male:          2,
		},
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"TEXT", OutputText, false},
		{"json", OutputJSON, false},
		{"yml", OutputYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestRender_TextSingleSource(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, OutputText, []models.SourceResult{bellaLuna()}))

	assert.Equal(t, "The mother cats are called  Bella Luna\n3 total cats and 2 male cats.\n", buf.String())
}

func TestRender_TextMultipleSourcesSkipsFailures(t *testing.T) {
	second := bellaLuna()
	second.Source = "more.yaml"

	var buf bytes.Buffer
	err := Render(&buf, OutputText, []models.SourceResult{
		bellaLuna(),
		{Source: "bad.json", Error: errors.New("boom")},
		second,
	})
	require.NoError(t, err)

	want := "==> cats.json <==\n" +
		"The mother cats are called  Bella Luna\n3 total cats and 2 male cats.\n" +
		"\n==> more.yaml <==\n" +
		"The mother cats are called  Bella Luna\n3 total cats and 2 male cats.\n"
	assert.Equal(t, want, buf.String())
}

func TestRender_JSON(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, OutputJSON, []models.SourceResult{
		bellaLuna(),
		{Source: "bad.json", Format: "json", Error: errors.New("boom")},
	})
	require.NoError(t, err)

	var got []SourceView
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "The mother cats are called  Bella Luna", got[0].Result.MotherSummary)
	assert.Equal(t, 2, got[0].Result.Male)
	assert.Empty(t, got[0].Error)
	assert.Nil(t, got[1].Result)
	assert.Equal(t, "boom", got[1].Error)
}

func TestRender_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, OutputYAML, []models.SourceResult{bellaLuna()}))

	assert.Contains(t, buf.String(), "kitten_summary: 3 total cats and 2 male cats.")

	var got []SourceView
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].Result.Total)
}

func TestRender_UnknownFormat(t *testing.T) {
	assert.Error(t, Render(&bytes.Buffer{}, OutputFormat("xml"), nil))
}

func TestWarning_Display(t *testing.T) {
	var buf bytes.Buffer
	Warning{
		Title:      "Something odd",
		Message:    "details here",
		Sources:    []string{"a.json", "b.json"},
		Suggestion: "try again",
	}.Display(&buf)

	out := buf.String()
	assert.Contains(t, out, "⚠️  Warning: Something odd\n")
	assert.Contains(t, out, "    details here\n")
	assert.Contains(t, out, "    Affected sources:\n      1. a.json\n      2. b.json\n")
	assert.Contains(t, out, "    Suggestion:\n    try again\n")
}

func TestWarnFailedSources(t *testing.T) {
	assert.Equal(t, "1 source could not be summarized", WarnFailedSources([]string{"a"}).Title)

	w := WarnFailedSources([]string{"a", "b"})
	assert.Equal(t, "2 sources could not be summarized", w.Title)

	var buf bytes.Buffer
	WarnFailedSources([]string{"a"}).Display(&buf)
	assert.Contains(t, buf.String(), "Affected source:\n")
}

func TestProgressIndicator(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressIndicator(&buf, 2)
	p.Start()
	p.Step("cats.json", true, "2 mothers, 3 kittens")
	p.Step("bad.json", false, "decode json payload: boom")
	p.Complete()

	assert.Equal(t, 1, p.Failed())
	want := "Validating 2 sources:\n" +
		"  [1/2] ✓ cats.json: 2 mothers, 3 kittens\n" +
		"  [2/2] ✗ bad.json: decode json payload: boom\n" +
		"✗ 1 of 2 invalid\n"
	assert.Equal(t, want, buf.String())
}

func TestProgressIndicator_AllValid(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressIndicator(&buf, 1)
	p.Start()
	p.Step("cats.json", true, "")
	p.Complete()

	assert.Equal(t, "Validating 1 source:\n  [1/1] ✓ cats.json\n✓ All 1 valid\n", buf.String())
}
