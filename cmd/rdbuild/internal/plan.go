package internal

import (
	"fmt"

	"github.com/spf13/cobra"
)

var planFlags buildFlags

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the configure arguments and steps without building",
	Args:  cobra.NoArgs,
	RunE:  runPlan,
}

func init() {
	planFlags.register(planCmd)
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd.Context(), &planFlags)
	if err != nil {
		return err
	}
	root, err := s.sourceRoot(&planFlags)
	if err != nil {
		return err
	}
	p := s.plan(root)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Features: %s\n", p.Features)
	fmt.Fprintf(out, "Python:   %s %s (%s)\n", s.runtime.Runtime, s.runtime.Version, s.runtime.Layout)
	fmt.Fprintf(out, "Prefix:   %s\n", s.prefix)
	fmt.Fprintf(out, "Source:   %s\n\n", root)
	fmt.Fprintln(out, "Arguments:")
	for _, a := range p.Args {
		fmt.Fprintf(out, "  %s\n", a)
	}
	fmt.Fprintln(out, "\nSteps:")
	for i, step := range p.Steps {
		fmt.Fprintf(out, "  %d. %s\n", i+1, step)
	}
	return nil
}
