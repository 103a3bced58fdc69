package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/hpc-brain/internal/storage"
)

var (
	learnInsightsPath string
	learnScriptPath   string
	learnDryRun       bool
)

var learnCmd = &cobra.Command{
	Use:   "learn",
	Short: "Extract candidate rules from advisory insight records",
	Long: `Read advisory insight records from a YAML file, extract candidate rules
from their messages, validate each candidate, and add the accepted ones to
the knowledge base.

Rejected candidates are reported with the reason validation gave. With
--dry-run the candidates are printed but the knowledge base is left
untouched.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Learner == nil {
			return fmt.Errorf("learner not initialized")
		}
		if learnInsightsPath == "" {
			return fmt.Errorf("--insights is required")
		}

		insights, err := storage.ReadInsightsFile(learnInsightsPath)
		if err != nil {
			return err
		}
		if len(insights) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No insight records found.")
			return nil
		}

		// The script gives the extraction pipeline context; it is optional.
		var scriptText string
		if learnScriptPath != "" {
			data, err := os.ReadFile(learnScriptPath)
			if err != nil {
				return fmt.Errorf("reading script: %w", err)
			}
			scriptText = string(data)
		}

		result, err := Learner.Learn(scriptText, insights, learnDryRun)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%d insight record(s) processed: %d candidate(s) accepted, %d rejected.\n\n",
			len(insights), len(result.Accepted), len(result.Rejected))

		for _, r := range result.Accepted {
			fmt.Fprintf(out, "  + %s [%s] %s\n", r.RuleID, r.Severity, r.Description)
		}
		for _, rej := range result.Rejected {
			fmt.Fprintf(out, "  - %s rejected: %s\n", rej.RuleID, rej.Reason)
		}

		if learnDryRun {
			fmt.Fprintln(out, "\nDry run: knowledge base not modified.")
		}
		return nil
	},
}

func init() {
	learnCmd.Flags().StringVar(&learnInsightsPath, "insights", "", "YAML file of advisory insight records (required)")
	learnCmd.Flags().StringVar(&learnScriptPath, "script", "", "Script the insights refer to, kept as extraction context")
	learnCmd.Flags().BoolVar(&learnDryRun, "dry-run", false, "Extract and validate without writing the knowledge base")
	rootCmd.AddCommand(learnCmd)
}
