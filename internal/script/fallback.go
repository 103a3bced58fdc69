package script

import (
	"regexp"
	"strings"

	"github.com/valter-silva-au/hpc-brain/pkg/models"
)

// Per-line patterns, deliberately independent of the grammar so a grammar
// defect cannot cascade into total analysis failure. Each line is matched
// against these in order; anything non-blank that is not a directive,
// annotation or comment is a command.
var (
	fallbackDirectiveRE  = regexp.MustCompile(`^\s*#SBATCH\s+(-{1,2}[A-Za-z][\w-]*)(?:(?:=|\s+)([^\s#][^#]*?))?\s*(?:#.*)?$`)
	fallbackAnnotationRE = regexp.MustCompile(`(?i)^\s*#\s*` + regexp.QuoteMeta(annotationMarker) + `\s*(.*)$`)
	fallbackCommentRE    = regexp.MustCompile(`^\s*#`)
)

// fallbackMatcher classifies lines with permissive patterns. It is total:
// it never fails, whatever bytes it is given.
type fallbackMatcher struct {
	classify *classifier
}

func newFallbackMatcher(cls *classifier) *fallbackMatcher {
	return &fallbackMatcher{classify: cls}
}

// Match produces the same output contract as the grammar path.
func (m *fallbackMatcher) Match(text string) *models.ParsedScript {
	parsed := &models.ParsedScript{Mode: models.ParseModeFallback}

	for i, line := range splitLines(text) {
		lineNo := i + 1
		if strings.TrimSpace(line) == "" {
			continue
		}
		addElement(parsed, m.matchLine(line, lineNo))
	}
	return parsed
}

func (m *fallbackMatcher) matchLine(line string, lineNo int) models.Element {
	if g := fallbackDirectiveRE.FindStringSubmatch(line); g != nil {
		return models.Directive{
			LineNumber: lineNo,
			RawText:    line,
			Key:        g[1],
			Value:      strings.TrimSpace(g[2]),
			HasValue:   g[2] != "",
		}
	}

	if g := fallbackAnnotationRE.FindStringSubmatch(line); g != nil {
		return models.Annotation{
			LineNumber: lineNo,
			RawText:    line,
			Message:    strings.TrimSpace(g[1]),
		}
	}

	if fallbackCommentRE.MatchString(line) {
		return nil
	}

	text := strings.TrimSpace(line)
	if idx := strings.Index(line, "#"); idx >= 0 {
		text = strings.TrimSpace(line[:idx])
	}
	return models.Command{
		LineNumber: lineNo,
		RawText:    line,
		Text:       text,
		Category:   m.classify.classify(text),
	}
}
