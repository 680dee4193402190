package plan

import (
	"path/filepath"

	"github.com/goplus/rdbuild/formula"
	"github.com/goplus/rdbuild/internal/probe"
	"github.com/goplus/rdbuild/internal/proc"
)

// Options carries the caller-supplied inputs of Make.
type Options struct {
	Prefix    string // installation prefix
	BuildRoot string // absolute source/build root
	// Defaults replaces StaticDefaults(Prefix) when non-nil.
	Defaults []string
	// CFLAGS is the inherited value the subsystem include flag is appended to.
	CFLAGS string
}

// Plan is the resolved build: the configure arguments and the steps that
// use them.
type Plan struct {
	Features formula.FeatureSet
	Args     []string
	Steps    []Step
}

// Make computes the plan. Asset steps come first in feature declaration
// order, then configure, compile and install, then the post-install
// subsystems of enabled features.
func Make(f *formula.Formula, features formula.FeatureSet, rt probe.Result, opts Options) *Plan {
	defaults := opts.Defaults
	if defaults == nil {
		defaults = StaticDefaults(opts.Prefix)
	}
	args := BuildArgs(features, rt, defaults, opts.BuildRoot)

	var steps []Step
	for _, feat := range features.List() {
		steps = append(steps, AssetSteps(f, feat)...)
	}
	steps = append(steps, Configure{Args: args}, Compile{}, Install{})
	for _, feat := range features.List() {
		sub, ok := f.SubsystemFor(feat)
		if !ok {
			continue
		}
		name := sub.Name
		if name == "" {
			name = string(feat)
		}
		steps = append(steps, PostInstallSubsystem{
			Feature: feat,
			Name:    name,
			Dir:     sub.Dir,
			Env:     SubsystemEnv(opts.Prefix, opts.CFLAGS),
		})
	}
	return &Plan{Features: features, Args: args, Steps: steps}
}

// AssetSteps returns the fetch, extract and script steps feat needs.
func AssetSteps(f *formula.Formula, feat formula.Feature) []Step {
	var steps []Step
	for _, a := range f.AssetsFor(feat) {
		if a.IsScript() {
			steps = append(steps, Script{Feature: feat, Dir: a.Dir, Name: a.Script})
			continue
		}
		steps = append(steps, Fetch{
			Feature:      feat,
			URL:          a.URL,
			Dest:         a.Dest,
			Digest:       a.Checksum,
			SkipIfExists: a.SkipIfExists,
		})
		if a.Extract != "" {
			steps = append(steps, Extract{Feature: feat, Archive: a.Dest, Dir: a.Extract})
		}
	}
	return steps
}

// SubsystemEnv returns the two overrides the database cartridge build needs:
// RDBASE pointing at the prefix and the installed headers on CFLAGS.
func SubsystemEnv(prefix, inheritedCFLAGS string) map[string]string {
	return map[string]string{
		"RDBASE": prefix,
		"CFLAGS": proc.AppendFlag(inheritedCFLAGS, "-I"+filepath.Join(prefix, "include", "rdkit")),
	}
}
