// Package autotools wraps the classic configure/make/make-install workflow.
// Makefile-only projects (for example PGXS extensions) are supported by
// skipping configure when no script is present.
package autotools

import (
	"context"
	"io"
	"maps"
	"os"
	"path/filepath"
	"strconv"

	"github.com/goplus/rdbuild/internal/proc"
	"github.com/goplus/rdbuild/pkgs/buildsys"
)

// AutoTools drives Autotools-style builds.
type AutoTools struct {
	runner     proc.Runner
	make       string
	sourceDir  string
	installDir string
	jobs       int
	env        map[string]string
	stdout     io.Writer
	stderr     io.Writer
}

var _ buildsys.BuildSystem = (*AutoTools)(nil)

// New returns an AutoTools running makeBin (usually "make") in sourceDir.
// installDir is passed to configure as --prefix when set.
func New(runner proc.Runner, makeBin, sourceDir, installDir string) *AutoTools {
	if makeBin == "" {
		makeBin = "make"
	}
	return &AutoTools{
		runner:     runner,
		make:       makeBin,
		sourceDir:  sourceDir,
		installDir: installDir,
		env:        make(map[string]string),
	}
}

// Source overrides the source directory.
func (a *AutoTools) Source(dir string) { a.sourceDir = dir }

// Jobs sets "make -j". Zero leaves it unset.
func (a *AutoTools) Jobs(n int) { a.jobs = n }

// Env sets key=value for every command spawned later.
func (a *AutoTools) Env(key, value string) { a.env[key] = value }

func (a *AutoTools) Output(stdout, stderr io.Writer) {
	a.stdout, a.stderr = stdout, stderr
}

// Configure runs ./configure inside the source directory. It does nothing
// when the project has no configure script.
func (a *AutoTools) Configure(ctx context.Context, args ...string) error {
	if _, err := os.Stat(filepath.Join(a.sourceDir, "configure")); err != nil {
		return nil
	}
	flags := make([]string, 0, 1+len(args))
	if a.installDir != "" {
		flags = append(flags, "--prefix="+a.installDir)
	}
	return a.run(ctx, "./configure", append(flags, args...))
}

// Build runs "make" with optional extra arguments.
func (a *AutoTools) Build(ctx context.Context, args ...string) error {
	var flags []string
	if a.jobs > 0 {
		flags = append(flags, "-j"+strconv.Itoa(a.jobs))
	}
	return a.run(ctx, a.make, append(flags, args...))
}

// Install runs "make install" with optional extra arguments appended.
func (a *AutoTools) Install(ctx context.Context, args ...string) error {
	return a.run(ctx, a.make, append([]string{"install"}, args...))
}

// OutputDir returns installDir if set, otherwise the source directory.
func (a *AutoTools) OutputDir() string {
	if a.installDir != "" {
		return a.installDir
	}
	return a.sourceDir
}

func (a *AutoTools) run(ctx context.Context, name string, args []string) error {
	return a.runner.Run(ctx, proc.Cmd{
		Dir:    a.sourceDir,
		Name:   name,
		Args:   args,
		Env:    maps.Clone(a.env),
		Stdout: a.stdout,
		Stderr: a.stderr,
	})
}
