package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AltairaLabs/rehearsal/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a session manifest",
	Long: `Validates a SessionConfig manifest against its JSON schema and semantic rules,
then prints the resolved settings.

Examples:
  rehearse validate session.yaml
  rehearse validate session.yaml --show-instruction`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

var validateShowInstruction bool

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().BoolVar(&validateShowInstruction, "show-instruction", false, "Print the composed system instruction")
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadSessionConfig(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	s := &cfg.Spec
	fmt.Fprintf(out, "✅ %s is valid\n", filepath.Base(args[0]))
	fmt.Fprintf(out, "  mode:   %s\n", s.Mode)
	if s.Topic != "" {
		fmt.Fprintf(out, "  topic:  %s\n", s.Topic)
	}
	fmt.Fprintf(out, "  model:  %s (voice %s)\n", s.Model, s.Voice)
	if s.Report.Disabled {
		fmt.Fprintln(out, "  report: disabled")
	} else {
		fmt.Fprintf(out, "  report: %s\n", s.Report.Model)
	}
	if validateShowInstruction {
		fmt.Fprintf(out, "\n%s\n", config.ComposeInstruction(s))
	}
	return nil
}
