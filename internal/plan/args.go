// Package plan turns enabled features and the probed runtime into the cmake
// argument list and the ordered build step sequence.
package plan

import (
	"fmt"
	"path/filepath"

	"github.com/goplus/rdbuild/formula"
	"github.com/goplus/rdbuild/internal/probe"
	"github.com/goplus/rdbuild/pkgs/buildsys/cmake"
)

// AvalonToolsSubdir is where the Avalon toolkit sources land after extraction.
const AvalonToolsSubdir = "External/AvalonTools/SourceDistribution"

// featureSwitch maps a feature to the cmake option that enables its subsystem.
var featureSwitch = map[formula.Feature]string{
	formula.Java:       "RDK_BUILD_SWIG_WRAPPERS",
	formula.InChI:      "RDK_BUILD_INCHI_SUPPORT",
	formula.PostgreSQL: "RDK_BUILD_PGSQL",
	formula.Avalon:     "RDK_BUILD_AVALON_SUPPORT",
}

// StaticDefaults returns the arguments every configure starts with.
func StaticDefaults(prefix string) []string {
	return cmake.NewArgs().
		Define("CMAKE_INSTALL_PREFIX", prefix).
		Define("CMAKE_BUILD_TYPE", "Release").
		Define("CMAKE_FIND_FRAMEWORK", "LAST").
		Add("-Wno-dev").
		DefineBool("RDK_INSTALL_INTREE", false).
		DefineBool("RDK_BUILD_CPP_TESTS", false).
		List()
}

// BuildArgs assembles the configure arguments. It has no side effects:
// equal inputs always give an identical list. The last element is the
// source root ".".
func BuildArgs(features formula.FeatureSet, rt probe.Result, defaults []string, buildRoot string) []string {
	args := cmake.NewArgs(defaults...)
	for _, f := range features.List() {
		args.DefineBool(featureSwitch[f], true)
	}
	// Static libraries are only needed by the database cartridge.
	if !features.Enabled(formula.PostgreSQL) {
		args.DefineBool("RDK_INSTALL_STATIC_LIBS", false)
	}

	switch rt.Layout {
	case probe.FrameworkBuild, probe.StaticBuild, probe.DynamicBuild:
		args.Define("PYTHON_LIBRARY", rt.LibraryPath())
		args.Define("PYTHON_INCLUDE_DIR", rt.IncludePath())
	default:
		panic(fmt.Sprintf("plan: unhandled runtime layout %v", rt.Layout))
	}

	if features.Enabled(formula.Avalon) {
		args.Define("AVALONTOOLS_DIR", filepath.Join(buildRoot, filepath.FromSlash(AvalonToolsSubdir)))
	}
	return args.Add(".").List()
}
