package internal

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/goplus/rdbuild/formula"
	"github.com/goplus/rdbuild/internal/env"
	"github.com/goplus/rdbuild/internal/plan"
	"github.com/goplus/rdbuild/internal/probe"
	"github.com/goplus/rdbuild/internal/proc"
)

// buildFlags are shared by install and plan.
type buildFlags struct {
	with        []string
	prefix      string
	formulaPath string
	sourceDir   string
	head        bool
	jobs        int
}

func (f *buildFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.with, "with", "w", nil, "Optional features to enable (java, inchi, postgresql, avalon)")
	cmd.Flags().StringVar(&f.prefix, "prefix", "", "Installation prefix")
	cmd.Flags().StringVarP(&f.formulaPath, "formula", "f", "", "Formula file to use instead of the built-in one")
	cmd.Flags().StringVar(&f.sourceDir, "source-dir", "", "Use an already unpacked source tree")
	cmd.Flags().BoolVar(&f.head, "head", false, "Build the development branch from git")
	cmd.Flags().IntVarP(&f.jobs, "jobs", "j", 0, "Parallel build jobs (0 lets the build tool decide)")
}

// session is everything resolved before a source tree is needed.
type session struct {
	runner   proc.Runner
	formula  *formula.Formula
	features formula.FeatureSet
	prefix   string
	runtime  probe.Result
	jobs     int
}

func newSession(ctx context.Context, f *buildFlags) (*session, error) {
	fm, err := loadFormula(f.formulaPath)
	if err != nil {
		return nil, err
	}
	features, err := formula.Resolve(f.with)
	if err != nil {
		return nil, err
	}
	prefix, err := resolvePrefix(f.prefix)
	if err != nil {
		return nil, err
	}

	runner := newRunner()
	rt, err := probe.New(runner, cfg.Python, cfg.PythonConfig).Probe(ctx)
	if err != nil {
		return nil, err
	}

	jobs := cfg.Jobs
	if f.jobs > 0 {
		jobs = f.jobs
	}
	return &session{
		runner:   runner,
		formula:  fm,
		features: features,
		prefix:   prefix,
		runtime:  rt,
		jobs:     jobs,
	}, nil
}

// plan computes the build plan for a source tree rooted at root.
func (s *session) plan(root string) *plan.Plan {
	return plan.Make(s.formula, s.features, s.runtime, plan.Options{
		Prefix:    s.prefix,
		BuildRoot: root,
		CFLAGS:    os.Getenv("CFLAGS"),
	})
}

// sourceRoot is where the source tree for this session lives or will live.
func (s *session) sourceRoot(f *buildFlags) (string, error) {
	if f.sourceDir != "" {
		return filepath.Abs(f.sourceDir)
	}
	base, err := env.SourceDir()
	if err != nil {
		return "", fmt.Errorf("failed to get source dir: %w", err)
	}
	ver := s.formula.Version
	if f.head {
		ver = "HEAD"
	}
	return filepath.Join(base, s.formula.Name+"-"+ver), nil
}

func loadFormula(path string) (*formula.Formula, error) {
	if path == "" {
		return formula.Default(), nil
	}
	return formula.Load(path)
}

// resolvePrefix prefers the flag over the configured prefix.
func resolvePrefix(flag string) (string, error) {
	prefix := cfg.Prefix
	if flag != "" {
		prefix = flag
	}
	abs, err := filepath.Abs(prefix)
	if err != nil {
		return "", fmt.Errorf("failed to resolve prefix: %w", err)
	}
	return abs, nil
}

// buildOutput returns where subprocess output goes. Without -v it is
// discarded; failures still carry the tail of the output.
func buildOutput(cmd *cobra.Command) (stdout, stderr io.Writer) {
	if verbosity > 0 {
		return cmd.OutOrStdout(), cmd.ErrOrStderr()
	}
	return io.Discard, io.Discard
}
