package core

import (
	"time"

	"github.com/valter-silva-au/hpc-brain/pkg/models"
)

// DefaultLargeFileTools are tools whose workflows read or write large files
// and benefit from explicit Lustre striping.
var DefaultLargeFileTools = []string{"bwa", "gatk", "samtools", "vasp", "star", "hisat2", "bowtie2"}

// DefaultSmallFileTools are tools whose workflows produce many small files,
// where wide striping only adds metadata overhead.
var DefaultSmallFileTools = []string{"fastqc", "multiqc", "blastn", "blastp", "diamond"}

// wideStripePattern matches an lfs setstripe invocation with a stripe count
// of two or more.
const wideStripePattern = `lfs\s+setstripe.*-c\s*([2-9]|[1-9]\d+)\b`

// Checker supplies authored rules for one analysis domain. Checker rules are
// evaluated on every run alongside the knowledge base; they never live in
// the store.
type Checker interface {
	Name() string
	Rules() []models.RuleDefinition
}

type staticChecker struct {
	name  string
	rules []models.RuleDefinition
}

func (c *staticChecker) Name() string                   { return c.name }
func (c *staticChecker) Rules() []models.RuleDefinition { return c.rules }

// NewLustreChecker builds the filesystem checker. The tool vocabularies are
// configurable; empty lists fall back to the defaults.
func NewLustreChecker(largeTools, smallTools []string) Checker {
	if len(largeTools) == 0 {
		largeTools = DefaultLargeFileTools
	}
	if len(smallTools) == 0 {
		smallTools = DefaultSmallFileTools
	}
	now := time.Now().UTC()

	missingStripe := models.RuleDefinition{
		RuleID:      "LUSTRE-001",
		Description: "Large-file workflow without an explicit 'lfs setstripe' striping command.",
		Severity:    models.SeverityWarning,
		TriggerConditions: append(
			[]models.TriggerCondition{{Type: models.CondCommandAbsent, Value: "lfs setstripe"}},
			containsAlternatives(largeTools)...,
		),
		Feedback: map[models.AudienceTier]models.FeedbackEntry{
			models.TierBasic: {
				Title: "Missing Lustre Striping Configuration",
				Message: "Your script appears to work with large files but doesn't configure Lustre striping. " +
					"Adding an 'lfs setstripe' command tells the filesystem to spread your data across " +
					"storage servers, which can make large-file jobs much faster.",
			},
			models.TierMedium: {
				Title: "Missing Lustre Striping Configuration",
				Message: "This workflow runs large-file tools (bwa, gatk and similar) without an explicit " +
					"Lustre striping configuration. Setting a stripe count and size with " +
					"'lfs setstripe -c [n] -S [size] [directory]' before the tool runs can significantly " +
					"improve I/O throughput.",
			},
			models.TierAdvanced: {
				Title: "Suboptimal Lustre I/O Configuration",
				Message: "Large-file workflow detected without striping optimization. Configure " +
					"'lfs setstripe -c [n] -S [size] $OUTPUT_DIR' where n spreads the file across the " +
					"desired number of OSTs and size matches the dominant write size (e.g. 16M, 64M).",
			},
		},
		Confidence: 1.0,
		Provenance: models.ProvenanceAuthored,
		CreatedAt:  now,
	}

	wideStripe := models.RuleDefinition{
		RuleID:      "LUSTRE-002",
		Description: "Wide striping configured in a small-file workflow.",
		Severity:    models.SeverityWarning,
		TriggerConditions: append(
			[]models.TriggerCondition{{Type: models.CondCommandMatches, Value: wideStripePattern}},
			containsAlternatives(smallTools)...,
		),
		Feedback: map[models.AudienceTier]models.FeedbackEntry{
			models.TierBasic: {
				Title: "Inefficient File Storage Setting",
				Message: "Your script creates many small files but asks the filesystem to split each one " +
					"across several storage servers. For this kind of job, use the default layout or set " +
					"'lfs setstripe -c 1' instead.",
			},
			models.TierMedium: {
				Title: "Suboptimal Lustre Striping for Small Files",
				Message: "This workflow generates many small files (QC reports and similar) while the " +
					"script sets a wide stripe count. Wide striping adds metadata overhead per file; " +
					"set 'lfs setstripe -c 1' on the output directory to reduce load on the MDS.",
			},
			models.TierAdvanced: {
				Title: "Potential MDS Contention from Wide Striping on a Small-File Workflow",
				Message: "The inferred small-file I/O pattern combined with a wide stripe setting may " +
					"drive excessive metadata operations and MDS contention. Recommend a stripe count " +
					"of 1 for the output directory to match this I/O profile.",
			},
		},
		Confidence: 1.0,
		Provenance: models.ProvenanceAuthored,
		CreatedAt:  now,
	}

	return &staticChecker{
		name:  "lustre",
		rules: []models.RuleDefinition{missingStripe, wideStripe},
	}
}

// NewSlurmChecker builds the scheduler checker for directive hygiene.
func NewSlurmChecker() Checker {
	now := time.Now().UTC()

	missingTime := models.RuleDefinition{
		RuleID:      "SLURM-001",
		Description: "Job submitted without a wall-time limit directive.",
		Severity:    models.SeverityWarning,
		TriggerConditions: []models.TriggerCondition{
			{Type: models.CondDirectiveAbsent, Value: "--time"},
			{Type: models.CondDirectiveAbsent, Value: "-t"},
		},
		Feedback: map[models.AudienceTier]models.FeedbackEntry{
			models.TierBasic: {
				Title: "No Time Limit Set",
				Message: "Your job doesn't say how long it should run. Without a time limit the scheduler " +
					"assumes the partition maximum, which can keep your job waiting in the queue longer.",
			},
			models.TierMedium: {
				Title: "Missing --time Directive",
				Message: "No '#SBATCH --time' directive was found. Jobs without an explicit wall-time " +
					"limit inherit the partition maximum and schedule poorly; request the time you " +
					"actually need.",
			},
			models.TierAdvanced: {
				Title: "No Wall-Time Limit Requested",
				Message: "Without '--time' the job inherits the partition's MaxTime, hurting backfill " +
					"eligibility. A tight wall-time estimate lets the scheduler slot the job into idle " +
					"windows.",
			},
		},
		Confidence: 1.0,
		Provenance: models.ProvenanceAuthored,
		CreatedAt:  now,
	}

	missingMem := models.RuleDefinition{
		RuleID:      "SLURM-002",
		Description: "Job submitted without an explicit memory request.",
		Severity:    models.SeverityInfo,
		TriggerConditions: []models.TriggerCondition{
			{Type: models.CondDirectiveAbsent, Value: "--mem"},
			{Type: models.CondDirectiveAbsent, Value: "--mem-per-cpu"},
		},
		Feedback: map[models.AudienceTier]models.FeedbackEntry{
			models.TierBasic: {
				Title: "No Memory Request Set",
				Message: "Your job doesn't say how much memory it needs. The scheduler will assign a " +
					"default amount that may be too small for your data.",
			},
			models.TierMedium: {
				Title: "Missing Memory Directive",
				Message: "Neither '--mem' nor '--mem-per-cpu' was found. The partition default may not " +
					"fit your working set; an explicit request avoids out-of-memory kills.",
			},
			models.TierAdvanced: {
				Title: "No Explicit Memory Request",
				Message: "Without '--mem' or '--mem-per-cpu' the job takes DefMemPerNode/DefMemPerCPU. " +
					"Size the request from a representative run's MaxRSS to avoid both OOM kills and " +
					"wasted allocation.",
			},
		},
		Confidence: 1.0,
		Provenance: models.ProvenanceAuthored,
		CreatedAt:  now,
	}

	return &staticChecker{
		name:  "slurm",
		rules: []models.RuleDefinition{missingTime, missingMem},
	}
}

// containsAlternatives builds one disjunctive command_contains group from a
// tool vocabulary.
func containsAlternatives(tools []string) []models.TriggerCondition {
	conds := make([]models.TriggerCondition, len(tools))
	for i, tool := range tools {
		conds[i] = models.TriggerCondition{
			Type:        models.CondCommandContains,
			Value:       tool,
			Alternative: true,
		}
	}
	return conds
}
