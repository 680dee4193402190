package internal

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/goplus/rdbuild/internal/config"
	"github.com/goplus/rdbuild/internal/logging"
	"github.com/goplus/rdbuild/internal/proc"
)

var (
	verbosity  int
	configPath string
	noColor    bool

	// cfg is loaded before every subcommand runs.
	cfg *config.Config

	// newRunner is replaced in tests.
	newRunner = func() proc.Runner { return proc.NewExecRunner() }
)

var rootCmd = &cobra.Command{
	Use:   "rdbuild",
	Short: "rdbuild builds and installs the RDKit cheminformatics toolkit",
	Long: `rdbuild resolves the optional features of an RDKit build, probes the local
Python installation, fetches the extra assets those features need and drives
the configure, compile and install steps.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.SetupWriter(cmd.ErrOrStderr(), verbosity, noColor)
		if noColor {
			color.NoColor = true
		}
		c, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = c
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (repeatable)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the YAML config file")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable coloured output")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error:"), err)
		os.Exit(1)
	}
}
