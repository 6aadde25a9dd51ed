package parser

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/harrison/catcensus/internal/census"
	"github.com/harrison/catcensus/internal/models"
)

// YAMLParser decodes payloads written as a YAML sequence of mothers:
//
//	- name: Bella
//	  kittens:
//	    - gender: m
type YAMLParser struct{}

// NewYAMLParser creates a YAMLParser.
func NewYAMLParser() *YAMLParser {
	return &YAMLParser{}
}

// Parse implements Parser.
func (p *YAMLParser) Parse(r io.Reader) ([]models.MotherRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read content: %w", err)
	}
	return census.DecodeWith(FormatYAML.String(), yaml.Unmarshal, data)
}
