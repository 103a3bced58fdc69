package script

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/valter-silva-au/hpc-brain/pkg/models"
)

func TestParseBasicScript(t *testing.T) {
	text := `#!/bin/bash
#SBATCH --job-name=test_job
#SBATCH --nodes=1

module load bwa
bwa mem -t 4 ref.fa reads.fq > out.sam
`
	p := NewParser(nil)
	parsed, err := p.ParseStrict(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed.Mode != models.ParseModeGrammar {
		t.Errorf("expected grammar mode, got %s", parsed.Mode)
	}

	want := []models.Element{
		models.Directive{LineNumber: 2, RawText: "#SBATCH --job-name=test_job", Key: "--job-name", Value: "test_job", HasValue: true},
		models.Directive{LineNumber: 3, RawText: "#SBATCH --nodes=1", Key: "--nodes", Value: "1", HasValue: true},
		models.Command{LineNumber: 5, RawText: "module load bwa", Text: "module load bwa", Category: models.CommandTool},
		models.Command{LineNumber: 6, RawText: "bwa mem -t 4 ref.fa reads.fq > out.sam", Text: "bwa mem -t 4 ref.fa reads.fq > out.sam", Category: models.CommandTool},
	}
	if diff := cmp.Diff(want, parsed.Elements); diff != "" {
		t.Errorf("elements mismatch (-want +got):\n%s", diff)
	}
	if len(parsed.Annotations) != 0 {
		t.Errorf("expected no annotations, got %d", len(parsed.Annotations))
	}
}

func TestParseAnnotations(t *testing.T) {
	text := `#!/bin/bash
# hpc-brain: keep outputs on scratch
#SBATCH --mem=4G
# HPC-BRAIN: review striping before scaling up
echo done
`
	p := NewParser(nil)
	parsed, err := p.ParseStrict(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(parsed.Elements) != 4 {
		t.Fatalf("expected 4 elements, got %d", len(parsed.Elements))
	}
	if len(parsed.Annotations) != 2 {
		t.Fatalf("expected 2 annotations, got %d", len(parsed.Annotations))
	}
	if parsed.Annotations[0].Message != "keep outputs on scratch" {
		t.Errorf("unexpected first message: %q", parsed.Annotations[0].Message)
	}
	if parsed.Annotations[1].LineNumber != 4 {
		t.Errorf("expected second annotation at line 4, got %d", parsed.Annotations[1].LineNumber)
	}
	if parsed.Annotations[1].Message != "review striping before scaling up" {
		t.Errorf("unexpected second message: %q", parsed.Annotations[1].Message)
	}
}

func TestParseDirectiveForms(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		wantKey   string
		wantValue string
		hasValue  bool
	}{
		{
			name:      "short flag with value",
			line:      "#SBATCH -J myjob",
			wantKey:   "-J",
			wantValue: "myjob",
			hasValue:  true,
		},
		{
			name:      "equals form with trailing comment",
			line:      "#SBATCH --mem=4G # limit memory",
			wantKey:   "--mem",
			wantValue: "4G",
			hasValue:  true,
		},
		{
			name:      "bare flag",
			line:      "#SBATCH --exclusive",
			wantKey:   "--exclusive",
			wantValue: "",
			hasValue:  false,
		},
		{
			name:      "bare flag with trailing comment",
			line:      "#SBATCH --exclusive # whole node",
			wantKey:   "--exclusive",
			wantValue: "",
			hasValue:  false,
		},
		{
			name:      "space form",
			line:      "#SBATCH --time 02:00:00",
			wantKey:   "--time",
			wantValue: "02:00:00",
			hasValue:  true,
		},
		{
			name:      "value with embedded equals",
			line:      "#SBATCH --export=ALL,VAR=x",
			wantKey:   "--export",
			wantValue: "ALL,VAR=x",
			hasValue:  true,
		},
		{
			name:      "indented directive",
			line:      "  #SBATCH --nodes=2",
			wantKey:   "--nodes",
			wantValue: "2",
			hasValue:  true,
		},
	}

	p := NewParser(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := p.ParseStrict(tt.line + "\n")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(parsed.Elements) != 1 {
				t.Fatalf("expected 1 element, got %d", len(parsed.Elements))
			}
			d, ok := parsed.Elements[0].(models.Directive)
			if !ok {
				t.Fatalf("expected a directive, got %T", parsed.Elements[0])
			}
			if d.Key != tt.wantKey {
				t.Errorf("key = %q, want %q", d.Key, tt.wantKey)
			}
			if d.Value != tt.wantValue {
				t.Errorf("value = %q, want %q", d.Value, tt.wantValue)
			}
			if d.HasValue != tt.hasValue {
				t.Errorf("hasValue = %v, want %v", d.HasValue, tt.hasValue)
			}
		})
	}
}

func TestCommandClassification(t *testing.T) {
	tests := []struct {
		name string
		line string
		want models.CommandCategory
	}{
		{name: "lustre utility", line: "lfs setstripe -c 4 /scratch/run", want: models.CommandFilesystem},
		{name: "lustre utility upper case", line: "LFS setstripe -c 1 out/", want: models.CommandFilesystem},
		{name: "known tool", line: "samtools sort aligned.bam", want: models.CommandTool},
		{name: "tool behind launcher", line: "srun gatk HaplotypeCaller -I in.bam", want: models.CommandTool},
		{name: "generic command", line: "echo hello", want: models.CommandGeneric},
		{name: "lfs as substring is not filesystem", line: "mylfs run", want: models.CommandGeneric},
	}

	p := NewParser(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed := p.Parse(tt.line + "\n")
			if len(parsed.Elements) != 1 {
				t.Fatalf("expected 1 element, got %d", len(parsed.Elements))
			}
			c, ok := parsed.Elements[0].(models.Command)
			if !ok {
				t.Fatalf("expected a command, got %T", parsed.Elements[0])
			}
			if c.Category != tt.want {
				t.Errorf("category = %s, want %s", c.Category, tt.want)
			}
		})
	}
}

func TestCustomToolList(t *testing.T) {
	p := NewParser([]string{"mytool"})
	parsed := p.Parse("mytool run input.dat\nbwa mem ref.fa\n")

	first := parsed.Elements[0].(models.Command)
	if first.Category != models.CommandTool {
		t.Errorf("expected tool for configured name, got %s", first.Category)
	}
	second := parsed.Elements[1].(models.Command)
	if second.Category != models.CommandGeneric {
		t.Errorf("expected generic when default list is replaced, got %s", second.Category)
	}
}

func TestCommandCommentStripped(t *testing.T) {
	p := NewParser(nil)
	parsed := p.Parse("bwa mem ref.fa reads.fq # align reads\n")

	c := parsed.Elements[0].(models.Command)
	if c.Text != "bwa mem ref.fa reads.fq" {
		t.Errorf("expected stripped text, got %q", c.Text)
	}
	if c.RawText != "bwa mem ref.fa reads.fq # align reads" {
		t.Errorf("raw text must keep the comment, got %q", c.RawText)
	}
}

func TestFinalLineWithoutTerminator(t *testing.T) {
	p := NewParser(nil)
	parsed := p.Parse("echo first\necho second")

	if len(parsed.Elements) != 2 {
		t.Fatalf("expected 2 elements, got %d", len(parsed.Elements))
	}
	if parsed.Elements[1].Line() != 2 {
		t.Errorf("expected final command at line 2, got %d", parsed.Elements[1].Line())
	}
}

func TestWindowsLineEndings(t *testing.T) {
	p := NewParser(nil)
	parsed, err := p.ParseStrict("#SBATCH --nodes=1\r\necho hi\r\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(parsed.Elements) != 2 {
		t.Fatalf("expected 2 elements, got %d", len(parsed.Elements))
	}
	if parsed.Elements[0].Kind() != models.KindDirective || parsed.Elements[1].Kind() != models.KindCommand {
		t.Errorf("unexpected kinds: %s, %s", parsed.Elements[0].Kind(), parsed.Elements[1].Kind())
	}
}

func TestEmptyScript(t *testing.T) {
	p := NewParser(nil)
	parsed, err := p.ParseStrict("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(parsed.Elements) != 0 || len(parsed.Annotations) != 0 {
		t.Errorf("expected empty result, got %d elements", len(parsed.Elements))
	}
}

func TestParseStrictErrorCarriesOffset(t *testing.T) {
	p := NewParser(nil)
	_, err := p.ParseStrict("echo ok\n\x00garbage\n")
	if err == nil {
		t.Fatal("expected a parse error for control bytes")
	}
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if perr.Line != 2 {
		t.Errorf("expected error at line 2, got %d", perr.Line)
	}
	if perr.Offset != 8 {
		t.Errorf("expected byte offset 8, got %d", perr.Offset)
	}
}

func TestFallbackEngagesOnGrammarFailure(t *testing.T) {
	// Control bytes fail the grammar; Parse must still return a view.
	text := "#SBATCH --nodes=1\n\x00\x01\x02\nbwa mem ref.fa\n"
	p := NewParser(nil)
	parsed := p.Parse(text)

	if parsed.Mode != models.ParseModeFallback {
		t.Fatalf("expected fallback mode, got %s", parsed.Mode)
	}
	if len(parsed.Elements) < 2 {
		t.Fatalf("expected directive and command to survive, got %d elements", len(parsed.Elements))
	}
	if parsed.Elements[0].Kind() != models.KindDirective {
		t.Errorf("expected directive first, got %s", parsed.Elements[0].Kind())
	}
}

func TestFallbackMatchesGrammarOnWellFormedScript(t *testing.T) {
	text := `#!/bin/bash
#SBATCH --job-name=run1
#SBATCH --exclusive
# hpc-brain: watch the output volume
lfs setstripe -c 4 /scratch/out
fastqc sample.fq # quality check
export OMP_NUM_THREADS=8
`
	p := NewParser(nil).(*scriptParser)
	grammar, err := p.ParseStrict(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fallback := p.fallback.Match(text)

	if diff := cmp.Diff(grammar.Elements, fallback.Elements); diff != "" {
		t.Errorf("paths disagree (-grammar +fallback):\n%s", diff)
	}
	if diff := cmp.Diff(grammar.Annotations, fallback.Annotations); diff != "" {
		t.Errorf("annotations disagree (-grammar +fallback):\n%s", diff)
	}
}
