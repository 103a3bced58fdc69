// Package script turns raw batch-script text into ordered, line-addressed
// elements. A declarative line grammar does the precise parsing; an
// independent per-line matcher produces the same structured view when the
// grammar cannot derive the input, so analysis never fails on malformed
// scripts.
package script

import (
	"fmt"
	"strings"

	"github.com/valter-silva-au/hpc-brain/pkg/models"
)

// Parser converts script text into the structured element view.
type Parser interface {
	// Parse always returns a structured view: the grammar path first, the
	// fallback matcher when the grammar signals a parse error.
	Parse(text string) *models.ParsedScript

	// ParseStrict runs only the grammar and surfaces its parse errors.
	ParseStrict(text string) (*models.ParsedScript, error)
}

// ParseError reports a line the grammar could not derive. Offset is the
// byte offset from the start of the normalized script text.
type ParseError struct {
	Line   int
	Offset int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d (offset %d): %s", e.Line, e.Offset, e.Msg)
}

type scriptParser struct {
	classify *classifier
	fallback *fallbackMatcher
}

// NewParser creates a Parser that classifies tool commands against the
// given known-tool names. An empty list falls back to DefaultParserTools.
func NewParser(knownTools []string) Parser {
	cls := newClassifier(knownTools)
	return &scriptParser{
		classify: cls,
		fallback: newFallbackMatcher(cls),
	}
}

func (p *scriptParser) Parse(text string) *models.ParsedScript {
	parsed, err := p.ParseStrict(text)
	if err != nil {
		return p.fallback.Match(text)
	}
	return parsed
}

func (p *scriptParser) ParseStrict(text string) (*models.ParsedScript, error) {
	parsed := &models.ParsedScript{Mode: models.ParseModeGrammar}

	offset := 0
	for i, line := range splitLines(text) {
		lineNo := i + 1
		if strings.TrimSpace(line) != "" {
			el, err := parseGrammarLine(line, lineNo, p.classify)
			if err != nil {
				return nil, &ParseError{
					Line:   lineNo,
					Offset: offset + errorColumn(err),
					Msg:    err.Error(),
				}
			}
			addElement(parsed, el)
		}
		offset += len(line) + 1
	}
	return parsed, nil
}

// addElement appends one element to the parsed view. Ignored lines arrive
// as nil and produce nothing; annotations are tracked in both sequences.
func addElement(parsed *models.ParsedScript, el models.Element) {
	if el == nil {
		return
	}
	parsed.Elements = append(parsed.Elements, el)
	if a, ok := el.(models.Annotation); ok {
		parsed.Annotations = append(parsed.Annotations, a)
	}
}

// splitLines normalizes line terminators and appends a synthetic trailing
// newline before splitting, so the final line is never dropped. The
// returned slice holds lines without terminators.
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	lines := strings.Split(text, "\n")
	return lines[:len(lines)-1]
}
