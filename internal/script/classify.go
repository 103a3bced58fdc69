package script

import (
	"strings"

	"github.com/valter-silva-au/hpc-brain/pkg/models"
)

// filesystemTool is the reserved prefix marking a filesystem command
// (the Lustre client utility).
const filesystemTool = "lfs"

// DefaultParserTools are the tool names recognized for command
// classification when configuration does not override them.
var DefaultParserTools = []string{"bwa", "gatk", "samtools", "fastqc", "blastn", "vasp"}

// classifier assigns a category to command text. Matching is
// case-insensitive; tool detection is substring containment, which is
// deliberate so wrapped invocations (srun bwa mem ...) still classify.
type classifier struct {
	tools []string
}

func newClassifier(tools []string) *classifier {
	if len(tools) == 0 {
		tools = DefaultParserTools
	}
	lowered := make([]string, len(tools))
	for i, t := range tools {
		lowered[i] = strings.ToLower(t)
	}
	return &classifier{tools: lowered}
}

func (c *classifier) classify(text string) models.CommandCategory {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == filesystemTool || strings.HasPrefix(lower, filesystemTool+" ") {
		return models.CommandFilesystem
	}
	for _, tool := range c.tools {
		if strings.Contains(lower, tool) {
			return models.CommandTool
		}
	}
	return models.CommandGeneric
}
