package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/harrison/catcensus/internal/census"
	"github.com/harrison/catcensus/internal/models"
)

// MarkdownParser decodes census documents written as Markdown. Every level 2
// heading names a mother, and the bullet list below it holds one item per
// kitten whose text is the gender code:
//
//	## Bella
//	- m
//	- gender: f
//
// Other headings and paragraphs are treated as notes and ignored.
type MarkdownParser struct {
	markdown goldmark.Markdown
}

// NewMarkdownParser creates a MarkdownParser.
func NewMarkdownParser() *MarkdownParser {
	return &MarkdownParser{
		markdown: goldmark.New(),
	}
}

// Parse implements Parser.
func (p *MarkdownParser) Parse(r io.Reader) ([]models.MotherRecord, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read content: %w", err)
	}

	doc := p.markdown.Parser().Parse(text.NewReader(content))

	mothers, err := extractMothers(doc, content)
	if err != nil {
		return nil, census.NewDecodeError(FormatMarkdown.String(), err)
	}
	return mothers, nil
}

func extractMothers(doc ast.Node, source []byte) ([]models.MotherRecord, error) {
	mothers := []models.MotherRecord{}
	current := -1

	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading:
			if node.Level != 2 {
				return ast.WalkSkipChildren, nil
			}
			name := strings.TrimSpace(extractText(node, source))
			if name == "" {
				return ast.WalkStop, errors.New("mother heading without a name")
			}
			mothers = append(mothers, models.MotherRecord{Name: name, Kittens: []models.KittenRecord{}})
			current = len(mothers) - 1
			return ast.WalkSkipChildren, nil

		case *ast.List:
			if current < 0 {
				return ast.WalkStop, errors.New("kitten list appears before any mother heading")
			}
			for item := node.FirstChild(); item != nil; item = item.NextSibling() {
				gender := ""
				if block := item.FirstChild(); block != nil {
					gender = parseGender(extractText(block, source))
				}
				mothers[current].Kittens = append(mothers[current].Kittens, models.KittenRecord{Gender: gender})
			}
			return ast.WalkSkipChildren, nil
		}

		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}

	return mothers, nil
}

// parseGender accepts "m" as well as "gender: m".
func parseGender(item string) string {
	item = strings.TrimSpace(item)
	if key, value, ok := strings.Cut(item, ":"); ok && strings.EqualFold(strings.TrimSpace(key), "gender") {
		item = strings.TrimSpace(value)
	}
	return item
}

// extractText concatenates the text segments below n.
func extractText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	collectText(n, source, &buf)
	return buf.String()
}

func collectText(n ast.Node, source []byte, buf *bytes.Buffer) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		default:
			collectText(c, source, buf)
		}
	}
}
