package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "hb",
	Short: "hpc-brain - batch-script analyzer for shared HPC clusters",
	Long: `hpc-brain (hb) analyzes SLURM batch scripts for a shared HPC cluster,
matching their directives and commands against a library of deterministic
rules and growing that library from advisory findings.

It provides CLI commands for analyzing scripts, learning new rules from
insight records, and inspecting the persisted rule knowledge base.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("hb %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
