package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var completionInstall bool

var completionCmd = &cobra.Command{
	Use:   "completion <shell>",
	Short: "Set up shell completions for hb",
	Long: `Set up shell tab-completions for hb commands, flags, and arguments.

Supported shells: bash, zsh, fish, powershell

Quick install (adds completions to your shell profile):

  hb completion bash --install
  hb completion zsh --install
  hb completion fish --install

Or print the completion script to stdout (for manual setup):

  hb completion bash
  hb completion zsh
  hb completion fish
  hb completion powershell`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MaximumNArgs(1),
	RunE:      runCompletion,
}

func init() {
	completionCmd.Flags().BoolVar(&completionInstall, "install", false,
		"Install completions into your shell profile")

	// Remove Cobra's default completion command and add ours.
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(completionCmd)
}

// shellSpec describes one completion target: the script generator, the
// user-local install location relative to $HOME (empty when automatic
// install is unsupported), the hint for loading the script in the current
// session, and what to tell the user after an install.
type shellSpec struct {
	generate    func(io.Writer) error
	installPath []string
	loadHint    string
	postInstall string
}

func completionShells() map[string]shellSpec {
	return map[string]shellSpec{
		"bash": {
			generate:    func(w io.Writer) error { return rootCmd.GenBashCompletionV2(w, true) },
			installPath: []string{".local", "share", "bash-completion", "completions", "hb"},
			loadHint:    `eval "$(hb completion bash)"`,
			postInstall: "Restart your shell or source the completion file.",
		},
		"zsh": {
			generate:    func(w io.Writer) error { return rootCmd.GenZshCompletion(w) },
			installPath: []string{".local", "share", "zsh", "site-functions", "_hb"},
			loadHint:    `eval "$(hb completion zsh)"`,
			postInstall: "Ensure ~/.local/share/zsh/site-functions is in your fpath, then run compinit.",
		},
		"fish": {
			generate:    func(w io.Writer) error { return rootCmd.GenFishCompletion(w, true) },
			installPath: []string{".config", "fish", "completions", "hb.fish"},
			loadHint:    "hb completion fish | source",
			postInstall: "Completions will be available in new fish sessions automatically.",
		},
		"powershell": {
			generate: func(w io.Writer) error { return rootCmd.GenPowerShellCompletionWithDesc(w) },
			loadHint: "hb completion powershell | Out-String | Invoke-Expression",
		},
	}
}

func runCompletion(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}
	shell := args[0]
	spec, ok := completionShells()[shell]
	if !ok {
		return fmt.Errorf("unsupported shell %q (supported: bash, zsh, fish, powershell)", shell)
	}

	if completionInstall {
		return installCompletion(cmd, shell, spec)
	}

	// Hints go to stderr so they don't interfere with piping the script
	// from stdout (e.g., eval "$(hb completion bash)").
	hints := cmd.OutOrStderr()
	fmt.Fprintf(hints, "# To load completions in your current session:\n#   %s\n#\n", spec.loadHint)
	if len(spec.installPath) > 0 {
		fmt.Fprintf(hints, "# To install permanently:\n#   hb completion %s --install\n#\n", shell)
	} else {
		fmt.Fprint(hints, "# Add the above command to your shell profile for permanent setup.\n#\n")
	}
	return spec.generate(cmd.OutOrStdout())
}

func installCompletion(cmd *cobra.Command, shell string, spec shellSpec) error {
	if len(spec.installPath) == 0 {
		return fmt.Errorf("automatic install is not supported for %s; run 'hb completion %s' and add the output to your profile", shell, shell)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("detecting home directory: %w", err)
	}
	target := filepath.Join(append([]string{home}, spec.installPath...)...)

	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return fmt.Errorf("creating completion directory: %w", err)
	}
	if err := writeCompletionFile(target, spec.generate); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Completions for %s installed to %s\n", shell, target)
	if spec.postInstall != "" {
		fmt.Fprintln(out, spec.postInstall)
	}
	return nil
}

// writeCompletionFile creates target, writes the completion script into it,
// and propagates close errors.
func writeCompletionFile(target string, generate func(io.Writer) error) error {
	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("creating completion file %s: %w", target, err)
	}

	writeErr := generate(f)
	closeErr := f.Close()

	if writeErr != nil {
		return writeErr
	}
	if closeErr != nil {
		return fmt.Errorf("closing completion file %s: %w", target, closeErr)
	}
	return nil
}
