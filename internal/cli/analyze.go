package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/hpc-brain/pkg/models"
)

var (
	analyzeProfile string
	analyzeFormat  string
	analyzeLearn   bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <script>",
	Short: "Analyze a batch script against the rule library",
	Long: `Parse a SLURM batch script into structured elements and evaluate every
authored checker rule and knowledge-base rule against it.

The report's feedback text is selected by audience profile (basic, medium,
advanced). With --learn, the run's findings are fed back through the
pattern-extraction pipeline and accepted candidates are added to the
knowledge base.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Analyzer == nil {
			return fmt.Errorf("analyzer not initialized")
		}

		tier := DefaultProfile
		if analyzeProfile != "" {
			tier = models.AudienceTier(strings.ToLower(analyzeProfile))
			if !models.ValidAudienceTier(tier) {
				return fmt.Errorf("invalid profile %q: must be one of basic, medium, advanced", analyzeProfile)
			}
		}

		var (
			report  *models.AnalysisReport
			learned *models.LearningResult
			err     error
		)
		if analyzeLearn || LearnByDefault {
			report, learned, err = Analyzer.AnalyzeAndLearn(cmd.Context(), args[0], tier)
		} else {
			report, err = Analyzer.Analyze(cmd.Context(), args[0], tier)
		}
		if err != nil {
			return fmt.Errorf("analyzing %s: %w", args[0], err)
		}

		out, err := formatReport(report, analyzeFormat)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)

		if learned != nil && (len(learned.Accepted) > 0 || len(learned.Rejected) > 0) {
			fmt.Fprintf(cmd.OutOrStdout(), "Learned %d new rule(s), rejected %d candidate(s).\n",
				len(learned.Accepted), len(learned.Rejected))
		}
		return nil
	},
}

// formatReport renders the report in the requested output format.
func formatReport(report *models.AnalysisReport, format string) (string, error) {
	if Reporter == nil {
		return "", fmt.Errorf("reporter not initialized")
	}
	switch strings.ToLower(format) {
	case "", "text":
		return Reporter.Render(report), nil
	case "yaml":
		return Reporter.FormatYAML(report)
	case "json":
		return Reporter.FormatJSON(report)
	default:
		return "", fmt.Errorf("unsupported format %q (use text, yaml, or json)", format)
	}
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeProfile, "profile", "", "Audience profile for feedback text (basic, medium, advanced)")
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "text", "Output format (text, yaml, json)")
	analyzeCmd.Flags().BoolVar(&analyzeLearn, "learn", false, "Feed the run's findings back into the knowledge base")
	rootCmd.AddCommand(analyzeCmd)
}
