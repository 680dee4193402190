package internal

import (
	"github.com/spf13/cobra"

	"github.com/goplus/rdbuild/internal/caveats"
	"github.com/goplus/rdbuild/internal/probe"
)

var caveatsPrefix string

var caveatsCmd = &cobra.Command{
	Use:   "caveats",
	Short: "Print the shell setup needed after installing",
	Args:  cobra.NoArgs,
	RunE:  runCaveats,
}

func init() {
	caveatsCmd.Flags().StringVar(&caveatsPrefix, "prefix", "", "Installation prefix")
	rootCmd.AddCommand(caveatsCmd)
}

func runCaveats(cmd *cobra.Command, args []string) error {
	prefix, err := resolvePrefix(caveatsPrefix)
	if err != nil {
		return err
	}
	rt, err := probe.New(newRunner(), cfg.Python, cfg.PythonConfig).Probe(cmd.Context())
	if err != nil {
		return err
	}
	return caveats.Render(cmd.OutOrStdout(), caveats.Data{
		Prefix:       prefix,
		SitePackages: rt.SitePackages(prefix),
	})
}
