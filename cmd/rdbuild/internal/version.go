package internal

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/goplus/rdbuild/formula"
)

// Version is set at link time with -ldflags "-X".
var Version = ""

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the rdbuild version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fm := formula.Default()
		fmt.Fprintf(cmd.OutOrStdout(), "rdbuild %s (%s %s)\n", toolVersion(), fm.Name, fm.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func toolVersion() string {
	if Version != "" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "devel"
}
