package models

// ElementKind names an Element variant, used in reports and projections.
type ElementKind string

const (
	KindDirective  ElementKind = "directive"
	KindCommand    ElementKind = "command"
	KindAnnotation ElementKind = "annotation"
)

// CommandCategory classifies an executable script line.
type CommandCategory string

const (
	CommandFilesystem CommandCategory = "filesystem"
	CommandTool       CommandCategory = "tool"
	CommandGeneric    CommandCategory = "generic"
)

// ParseMode records which parsing path produced a script's elements.
type ParseMode string

const (
	ParseModeGrammar  ParseMode = "grammar"
	ParseModeFallback ParseMode = "fallback"
)

// Element is one structured line of a batch script. Exactly three types
// implement it: Directive, Command and Annotation. Elements are immutable
// records produced in strictly increasing line order, one element per
// physical line.
type Element interface {
	// Line returns the 1-based line number the element came from.
	Line() int
	// Raw returns the original line text.
	Raw() string
	// Kind returns the element variant name.
	Kind() ElementKind
}

// Directive is a scheduler resource declaration line (a #SBATCH line).
// HasValue distinguishes a bare flag from a flag with an empty value.
type Directive struct {
	LineNumber int
	RawText    string
	Key        string
	Value      string
	HasValue   bool
}

func (d Directive) Line() int         { return d.LineNumber }
func (d Directive) Raw() string       { return d.RawText }
func (d Directive) Kind() ElementKind { return KindDirective }

// Command is an executable line with its trailing comment stripped.
type Command struct {
	LineNumber int
	RawText    string
	Text       string
	Category   CommandCategory
}

func (c Command) Line() int         { return c.LineNumber }
func (c Command) Raw() string       { return c.RawText }
func (c Command) Kind() ElementKind { return KindCommand }

// Annotation is a specially marked comment line carrying a free-text
// instruction from the script author.
type Annotation struct {
	LineNumber int
	RawText    string
	Message    string
}

func (a Annotation) Line() int         { return a.LineNumber }
func (a Annotation) Raw() string       { return a.RawText }
func (a Annotation) Kind() ElementKind { return KindAnnotation }

// ParsedScript is the structured view of one script: the full ordered
// element sequence, the annotation subsequence, and the parse path that
// produced them.
type ParsedScript struct {
	Elements    []Element
	Annotations []Annotation
	Mode        ParseMode
}
