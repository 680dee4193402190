// Package build executes a planned step sequence: asset staging, configure,
// compile, install and post-install subsystems.
package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/goplus/rdbuild/internal/logging"
	"github.com/goplus/rdbuild/internal/plan"
	"github.com/goplus/rdbuild/internal/proc"
	"github.com/goplus/rdbuild/pkgs/buildsys"
)

// AssetStager executes Fetch, Extract and Script steps.
type AssetStager interface {
	Apply(ctx context.Context, step plan.Step) error
}

// Driver runs build steps strictly in order.
type Driver struct {
	// System runs configure, compile and install of the main project.
	System buildsys.BuildSystem
	// Subsystem returns the build helper for a post-install unit rooted at dir.
	Subsystem func(dir string) buildsys.BuildSystem
	Assets    AssetStager

	Prefix string // installation prefix
	Root   string // source/build root
	// RootLocked is set when the caller already holds Lock(Root).
	RootLocked bool

	Stdout io.Writer
	Stderr io.Writer
}

// ErrLocked is returned when another run holds the build root.
var ErrLocked = errors.New("build root is in use by another run")

// Lock takes the exclusive lock on a build root, creating the directory if
// needed. Where file locks are unavailable it always succeeds.
func Lock(root string) (unlock func(), err error) {
	return lockDir(root)
}

// Error reports the first failing step. Steps before Index completed and
// are not rolled back.
type Error struct {
	Index  int
	Step   plan.Step
	Output string // tail of the failing command's output, if any
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("step %d (%s) failed: %v", e.Index+1, e.Step.Kind(), e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// StepResult records one executed step.
type StepResult struct {
	Index    int
	Step     plan.Step
	Duration time.Duration
}

// Result describes a completed run.
type Result struct {
	RunID    string
	Started  time.Time
	Duration time.Duration
	Steps    []StepResult
}

// Run executes steps in order and stops at the first failure.
func (d *Driver) Run(ctx context.Context, steps []plan.Step) (*Result, error) {
	res := &Result{RunID: uuid.NewString(), Started: time.Now()}
	log := logging.Get("build").With().Str("run", res.RunID).Logger()

	if d.Root != "" && !d.RootLocked {
		unlock, err := lockDir(d.Root)
		if err != nil {
			return res, err
		}
		defer unlock()
	}

	for i, step := range steps {
		start := time.Now()
		log.Info().Int("step", i+1).Int("of", len(steps)).Stringer("kind", step.Kind()).Msg("starting step")
		log.Debug().Int("step", i+1).Msg(step.String())

		if err := d.exec(ctx, step); err != nil {
			berr := &Error{Index: i, Step: step, Err: err}
			var exitErr *proc.ExitError
			if errors.As(err, &exitErr) {
				berr.Output = exitErr.Output
			}
			log.Error().Err(err).Int("step", i+1).Stringer("kind", step.Kind()).Msg("step failed")
			res.Duration = time.Since(res.Started)
			return res, berr
		}

		elapsed := time.Since(start)
		res.Steps = append(res.Steps, StepResult{Index: i, Step: step, Duration: elapsed})
		log.Info().Int("step", i+1).Dur("duration", elapsed).Msg("step done")
	}
	res.Duration = time.Since(res.Started)
	return res, nil
}

func (d *Driver) exec(ctx context.Context, step plan.Step) error {
	switch s := step.(type) {
	case plan.Fetch, plan.Extract, plan.Script:
		if d.Assets == nil {
			return errors.New("no asset stager configured")
		}
		return d.Assets.Apply(ctx, s)
	case plan.Configure:
		return d.System.Configure(ctx, s.Args...)
	case plan.Compile:
		return d.System.Build(ctx)
	case plan.Install:
		if err := d.System.Install(ctx); err != nil {
			return err
		}
		return d.cleanup()
	case plan.PostInstallSubsystem:
		return d.postInstall(ctx, s)
	}
	return fmt.Errorf("unknown step %T", step)
}

// postInstall builds and installs a subsystem with its overrides applied to
// its own subprocesses only.
func (d *Driver) postInstall(ctx context.Context, s plan.PostInstallSubsystem) error {
	if d.Subsystem == nil {
		return errors.New("no subsystem build helper configured")
	}
	dir := s.Dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(d.Root, filepath.FromSlash(dir))
	}
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		return fmt.Errorf("subsystem %s: directory %s not found", s.Name, dir)
	}
	bs := d.Subsystem(dir)
	bs.Output(d.Stdout, d.Stderr)
	for k, v := range s.Env {
		bs.Env(k, v)
	}
	if err := bs.Configure(ctx); err != nil {
		return err
	}
	if err := bs.Build(ctx); err != nil {
		return err
	}
	return bs.Install(ctx)
}

// cleanup removes stray CMake package files installed into lib. Nothing to
// remove is not an error.
func (d *Driver) cleanup() error {
	if d.Prefix == "" {
		return nil
	}
	matches, err := filepath.Glob(filepath.Join(d.Prefix, "lib", "*.cmake"))
	if err != nil {
		return err
	}
	log := logging.Get("build")
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return err
		}
		log.Debug().Str("file", m).Msg("removed build metadata")
	}
	return nil
}
