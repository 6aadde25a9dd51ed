// Package parser decodes census payloads in the supported formats (JSON,
// YAML and Markdown) into mother records.
package parser

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/harrison/catcensus/internal/census"
	"github.com/harrison/catcensus/internal/models"
)

// Format represents the serialization format of a census payload
type Format int

const (
	// FormatUnknown represents an unrecognized payload format
	FormatUnknown Format = iota
	// FormatJSON represents a JSON (.json) payload
	FormatJSON
	// FormatYAML represents a YAML (.yaml, .yml) payload
	FormatYAML
	// FormatMarkdown represents a Markdown (.md, .markdown) payload
	FormatMarkdown
)

// String returns the string representation of the Format
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	case FormatMarkdown:
		return "markdown"
	default:
		return "unknown"
	}
}

// Parser is the interface that all payload parsers must implement
type Parser interface {
	// Parse reads from an io.Reader and returns the decoded mother records
	Parse(r io.Reader) ([]models.MotherRecord, error)
}

// DetectFormat detects the payload format based on file extension.
// URLs are accepted; the query string and fragment are ignored.
//   - .json -> FormatJSON
//   - .yaml, .yml -> FormatYAML
//   - .md, .markdown -> FormatMarkdown
//   - all others -> FormatUnknown
func DetectFormat(name string) Format {
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".md", ".markdown":
		return FormatMarkdown
	default:
		return FormatUnknown
	}
}

// FormatFromContentType maps an HTTP Content-Type header to a Format.
func FormatFromContentType(contentType string) Format {
	if contentType == "" {
		return FormatUnknown
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return FormatUnknown
	}

	switch {
	case mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"):
		return FormatJSON
	case mediaType == "application/yaml" || mediaType == "application/x-yaml" ||
		mediaType == "text/yaml" || mediaType == "text/x-yaml":
		return FormatYAML
	case mediaType == "text/markdown" || mediaType == "text/x-markdown":
		return FormatMarkdown
	default:
		return FormatUnknown
	}
}

// ParseFormat converts a user supplied format name into a Format.
// An empty name yields FormatUnknown without error.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return FormatUnknown, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	default:
		return FormatUnknown, fmt.Errorf("unsupported format %q (supported: json, yaml, markdown)", name)
	}
}

// NewParser creates a new parser instance for the specified format
// Returns an error if the format is unknown or unsupported
func NewParser(format Format) (Parser, error) {
	switch format {
	case FormatJSON:
		return NewJSONParser(), nil
	case FormatYAML:
		return NewYAMLParser(), nil
	case FormatMarkdown:
		return NewMarkdownParser(), nil
	default:
		return nil, fmt.Errorf("unsupported format: %v", format)
	}
}

// Decode decodes data in the given format. FormatUnknown falls back to JSON.
// Decode failures are returned as *census.DecodeError tagged with source.
func Decode(format Format, source string, data []byte) ([]models.MotherRecord, error) {
	if format == FormatUnknown {
		format = FormatJSON
	}

	parser, err := NewParser(format)
	if err != nil {
		return nil, err
	}

	mothers, err := parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, census.WithSource(err, source)
	}
	return mothers, nil
}

// Aggregate decodes data in the given format and summarizes it.
func Aggregate(format Format, source string, data []byte) (models.AggregationResult, error) {
	mothers, err := Decode(format, source, data)
	if err != nil {
		return models.AggregationResult{}, err
	}
	return census.Summarize(mothers), nil
}

// JSONParser decodes the canonical JSON payload.
type JSONParser struct{}

// NewJSONParser creates a JSONParser.
func NewJSONParser() *JSONParser {
	return &JSONParser{}
}

// Parse implements Parser.
func (p *JSONParser) Parse(r io.Reader) ([]models.MotherRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read content: %w", err)
	}
	return census.DecodeJSON(data)
}
