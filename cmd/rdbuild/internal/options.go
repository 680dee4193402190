package internal

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/goplus/rdbuild/formula"
)

var optionsFormula string

var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "List the optional features of the formula",
	Args:  cobra.NoArgs,
	RunE:  runOptions,
}

func init() {
	optionsCmd.Flags().StringVarP(&optionsFormula, "formula", "f", "", "Formula file to use instead of the built-in one")
	rootCmd.AddCommand(optionsCmd)
}

func runOptions(cmd *cobra.Command, args []string) error {
	fm, err := loadFormula(optionsFormula)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, feat := range formula.Features {
		fmt.Fprintf(w, "--with %s\t%s\n", feat, fm.Describe(feat))
	}
	return w.Flush()
}
