// Package cmake wraps the cmake configure/build/install workflow.
package cmake

import (
	"context"
	"fmt"
	"io"
	"maps"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/goplus/rdbuild/internal/proc"
	"github.com/goplus/rdbuild/pkgs/buildsys"
)

// CMake drives an in-source CMake build.
type CMake struct {
	runner     proc.Runner
	bin        string
	sourceDir  string
	installDir string
	jobs       int
	env        map[string]string
	stdout     io.Writer
	stderr     io.Writer
}

var _ buildsys.BuildSystem = (*CMake)(nil)

// MinVersion is the oldest cmake that understands "--install".
const MinVersion = "3.15.0"

// New returns a CMake that runs bin (usually "cmake") through runner.
func New(runner proc.Runner, bin, sourceDir, installDir string) *CMake {
	if bin == "" {
		bin = "cmake"
	}
	return &CMake{
		runner:     runner,
		bin:        bin,
		sourceDir:  sourceDir,
		installDir: installDir,
		env:        make(map[string]string),
	}
}

// Source overrides the source directory.
func (c *CMake) Source(dir string) { c.sourceDir = dir }

// Jobs sets the parallelism passed to "cmake --build". Zero leaves it to the generator.
func (c *CMake) Jobs(n int) { c.jobs = n }

func (c *CMake) Env(key, value string) { c.env[key] = value }

func (c *CMake) Output(stdout, stderr io.Writer) {
	c.stdout, c.stderr = stdout, stderr
}

// Configure runs "cmake <args>" inside the source directory. Args are
// passed through in order; the caller supplies the trailing source path.
func (c *CMake) Configure(ctx context.Context, args ...string) error {
	return c.run(ctx, args)
}

// Build runs "cmake --build ." with optional extra arguments.
func (c *CMake) Build(ctx context.Context, args ...string) error {
	cmdArgs := []string{"--build", "."}
	if c.jobs > 0 {
		cmdArgs = append(cmdArgs, "--parallel", strconv.Itoa(c.jobs))
	}
	return c.run(ctx, append(cmdArgs, args...))
}

// Install runs "cmake --install ." with optional extra arguments.
func (c *CMake) Install(ctx context.Context, args ...string) error {
	cmdArgs := []string{"--install", "."}
	if c.installDir != "" {
		cmdArgs = append(cmdArgs, "--prefix", c.installDir)
	}
	return c.run(ctx, append(cmdArgs, args...))
}

// OutputDir returns installDir if set, otherwise the source directory.
func (c *CMake) OutputDir() string {
	if c.installDir != "" {
		return c.installDir
	}
	return c.sourceDir
}

// CheckVersion fails unless "cmake --version" reports at least minVersion
// (for example "3.5.0").
func (c *CMake) CheckVersion(ctx context.Context, minVersion string) error {
	out, err := c.runner.Output(ctx, proc.Cmd{Name: c.bin, Args: []string{"--version"}})
	if err != nil {
		return err
	}
	have, err := parseVersion(out)
	if err != nil {
		return err
	}
	want := "v" + strings.TrimPrefix(minVersion, "v")
	if !semver.IsValid(want) {
		return fmt.Errorf("cmake: invalid minimum version %q", minVersion)
	}
	if semver.Compare(have, want) < 0 {
		return fmt.Errorf("cmake %s is older than required %s", strings.TrimPrefix(have, "v"), strings.TrimPrefix(want, "v"))
	}
	return nil
}

// parseVersion extracts a semver string from "cmake version X.Y.Z".
func parseVersion(out string) (string, error) {
	first, _, _ := strings.Cut(strings.TrimSpace(out), "\n")
	fields := strings.Fields(first)
	if len(fields) < 3 || fields[1] != "version" {
		return "", fmt.Errorf("cmake: unexpected --version output %q", first)
	}
	v := "v" + fields[2]
	if !semver.IsValid(v) {
		return "", fmt.Errorf("cmake: unparsable version %q", fields[2])
	}
	return v, nil
}

func (c *CMake) run(ctx context.Context, args []string) error {
	return c.runner.Run(ctx, proc.Cmd{
		Dir:    c.sourceDir,
		Name:   c.bin,
		Args:   args,
		Env:    maps.Clone(c.env),
		Stdout: c.stdout,
		Stderr: c.stderr,
	})
}
