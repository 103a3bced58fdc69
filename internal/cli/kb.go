package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/hpc-brain/pkg/models"
)

var kbCmd = &cobra.Command{
	Use:   "kb",
	Short: "Manage the persisted knowledge base",
	Long: `Inspect and manage the versioned knowledge base document that holds the
learned rules. The document is backed up to a timestamped sibling before
every update.`,
}

var kbInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an empty knowledge base if none exists",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("knowledge base store not initialized")
		}
		kb, err := Store.Init()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Knowledge base at %s (version %s, %d rules).\n",
			Store.Path(), kb.Version, kb.RuleCount())
		return nil
	},
}

var kbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show knowledge base version and rule counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("knowledge base store not initialized")
		}
		kb, err := Store.Load()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Knowledge base: %s\n\n", Store.Path())
		fmt.Fprintf(out, "  %-22s %s\n", "Version:", kb.Version)
		fmt.Fprintf(out, "  %-22s %s\n", "Last updated:", kb.LastUpdated.Format(time.RFC3339))
		for _, c := range models.RuleCategories {
			fmt.Fprintf(out, "  %-22s %d\n", string(c)+":", len(kb.CategoryRules(c)))
		}
		fmt.Fprintf(out, "  %-22s %d\n", "Total rules:", kb.RuleCount())
		return nil
	},
}

var kbBackupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "List knowledge base backup artifacts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("knowledge base store not initialized")
		}
		backups, err := Store.Backups()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(backups) == 0 {
			fmt.Fprintln(out, "No backups found.")
			return nil
		}
		for _, b := range backups {
			fmt.Fprintln(out, b)
		}
		fmt.Fprintf(out, "\n%d backup(s).\n", len(backups))
		return nil
	},
}

func init() {
	kbCmd.AddCommand(kbInitCmd)
	kbCmd.AddCommand(kbStatsCmd)
	kbCmd.AddCommand(kbBackupsCmd)
	rootCmd.AddCommand(kbCmd)
}
