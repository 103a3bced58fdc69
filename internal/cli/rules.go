package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/valter-silva-au/hpc-brain/pkg/models"
)

var rulesCategory string

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect and export the rule library",
	Long: `Inspect the deterministic rules the analyzer evaluates: the authored
rules shipped by the domain checkers and the learned rules persisted in the
knowledge base.`,
}

// ruleRow pairs a rule with the checker or knowledge-base category that
// contributed it.
type ruleRow struct {
	rule   models.RuleDefinition
	source string
}

// collectRules gathers checker rules and knowledge-base rules, optionally
// restricted to one knowledge-base category.
func collectRules(category string) ([]ruleRow, error) {
	var rows []ruleRow

	if category == "" {
		for _, c := range Checkers {
			for _, r := range c.Rules() {
				rows = append(rows, ruleRow{rule: r, source: c.Name()})
			}
		}
	}

	if Store == nil {
		return rows, nil
	}
	kb, err := Store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading knowledge base: %w", err)
	}
	for _, c := range models.RuleCategories {
		if category != "" && string(c) != category {
			continue
		}
		for _, r := range kb.CategoryRules(c) {
			rows = append(rows, ruleRow{rule: r, source: string(c)})
		}
	}
	return rows, nil
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every rule with its source and severity",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, err := collectRules(rulesCategory)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(rows) == 0 {
			fmt.Fprintln(out, "No rules found.")
			return nil
		}

		fmt.Fprintf(out, "%-16s %-10s %-10s %-22s %s\n", "RULE", "SEVERITY", "SOURCE", "PROVENANCE", "DESCRIPTION")
		for _, row := range rows {
			fmt.Fprintf(out, "%-16s %-10s %-10s %-22s %s\n",
				row.rule.RuleID, row.rule.Severity, row.rule.Provenance, row.source, row.rule.Description)
		}
		fmt.Fprintf(out, "\n%d rule(s).\n", len(rows))
		return nil
	},
}

var rulesShowCmd = &cobra.Command{
	Use:   "show <rule-id>",
	Short: "Show a rule's conditions and tiered feedback",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, err := collectRules("")
		if err != nil {
			return err
		}
		for _, row := range rows {
			if row.rule.RuleID != args[0] {
				continue
			}
			data, err := yaml.Marshal(row.rule)
			if err != nil {
				return fmt.Errorf("encoding rule: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# source: %s\n%s", row.source, data)
			return nil
		}
		return fmt.Errorf("rule %q not found", args[0])
	},
}

var rulesExportCmd = &cobra.Command{
	Use:   "export <path>",
	Short: "Export the full rule library to a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, err := collectRules(rulesCategory)
		if err != nil {
			return err
		}

		export := make(map[string][]models.RuleDefinition)
		for _, row := range rows {
			export[row.source] = append(export[row.source], row.rule)
		}
		data, err := yaml.Marshal(export)
		if err != nil {
			return fmt.Errorf("encoding rules: %w", err)
		}
		if err := os.WriteFile(args[0], data, 0o644); err != nil {
			return fmt.Errorf("writing export: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d rule(s) to %s\n", len(rows), args[0])
		return nil
	},
}

func init() {
	rulesCmd.PersistentFlags().StringVar(&rulesCategory, "category", "",
		"Restrict to one knowledge-base category (lustre_rules, slurm_rules, workflow_patterns, general_logic_rules)")
	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesShowCmd)
	rulesCmd.AddCommand(rulesExportCmd)
	rootCmd.AddCommand(rulesCmd)
}
