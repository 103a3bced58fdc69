package script

import (
	"errors"
	"regexp"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/valter-silva-au/hpc-brain/pkg/models"
)

// directivePrefix is the reserved token starting a scheduler directive line.
const directivePrefix = "#SBATCH"

// annotationMarker is the case-insensitive phrase that turns a comment into
// a user annotation, as in "# hpc-brain: keep outputs on scratch".
const annotationMarker = "hpc-brain:"

// Token set for one physical line. Rule order matters: the directive prefix
// and the annotation marker must win over the generic comment rule. Word
// excludes control bytes so binary junk fails the grammar instead of being
// silently absorbed; the fallback matcher owns such input.
var lineLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "DirectivePrefix", Pattern: `#SBATCH\b`},
	{Name: "AnnotationLine", Pattern: `#[ \t]*(?i:hpc-brain):[^\n]*`},
	{Name: "CommentText", Pattern: `#[^\n]*`},
	{Name: "Eq", Pattern: `=`},
	{Name: "Flag", Pattern: `--?[A-Za-z][A-Za-z0-9_-]*`},
	{Name: "Word", Pattern: `[^\s=#\x00-\x1f\x7f]+`},
	{Name: "WS", Pattern: `[ \t]+`},
})

// scriptLine is the per-line grammar result: exactly one variant is set,
// or none for lines the grammar ignores.
type scriptLine struct {
	Directive  *directiveLine  `parser:"@@"`
	Annotation *annotationLine `parser:"| @@"`
	Comment    *commentLine    `parser:"| @@"`
	Command    *commandLine    `parser:"| @@"`
}

// directiveLine covers the three directive forms: --flag=value, --flag
// value, and a bare flag. Value parts capture tokens around embedded "="
// so values like ALL,VAR=x survive intact.
type directiveLine struct {
	Flag  string   `parser:"DirectivePrefix @Flag"`
	Parts []string `parser:"( Eq @(Word|Flag) ( @Eq @(Word|Flag) )* | @(Word|Flag) ( @Eq @(Word|Flag) )* )? CommentText?"`
}

type annotationLine struct {
	Text string `parser:"@AnnotationLine"`
}

type commentLine struct {
	Text string `parser:"@CommentText"`
}

// commandLine accepts any token run that is not a directive, annotation or
// comment. The trailing comment is captured so its offset can be located
// in the raw line and stripped from the stored text.
type commandLine struct {
	Toks    []string `parser:"@(Word | Flag | Eq)+"`
	Comment string   `parser:"@CommentText?"`
}

var lineGrammar = participle.MustBuild[scriptLine](
	participle.Lexer(lineLexer),
	participle.Elide("WS"),
)

var annotationMarkerRE = regexp.MustCompile(`(?i)^#[ \t]*` + regexp.QuoteMeta(annotationMarker) + `[ \t]*`)

// parseGrammarLine derives one non-blank line. It returns nil for ignored
// lines (plain comments) and an error when the grammar cannot derive the
// line at all.
func parseGrammarLine(raw string, lineNo int, cls *classifier) (models.Element, error) {
	node, err := lineGrammar.ParseString("", raw)
	if err != nil {
		return nil, err
	}

	switch {
	case node.Directive != nil:
		return models.Directive{
			LineNumber: lineNo,
			RawText:    raw,
			Key:        node.Directive.Flag,
			Value:      strings.Join(node.Directive.Parts, ""),
			HasValue:   len(node.Directive.Parts) > 0,
		}, nil

	case node.Annotation != nil:
		msg := annotationMarkerRE.ReplaceAllString(node.Annotation.Text, "")
		return models.Annotation{
			LineNumber: lineNo,
			RawText:    raw,
			Message:    strings.TrimSpace(msg),
		}, nil

	case node.Command != nil:
		text := strings.TrimSpace(raw)
		if c := node.Command.Comment; c != "" {
			if idx := strings.LastIndex(raw, c); idx >= 0 {
				text = strings.TrimSpace(raw[:idx])
			}
		}
		return models.Command{
			LineNumber: lineNo,
			RawText:    raw,
			Text:       text,
			Category:   cls.classify(text),
		}, nil
	}

	// Plain comment: ignored.
	return nil, nil
}

// errorColumn extracts the byte offset within the line from a participle
// parse or lex error, for the structured ParseError.
func errorColumn(err error) int {
	var perr participle.Error
	if errors.As(err, &perr) {
		return perr.Position().Offset
	}
	return 0
}
