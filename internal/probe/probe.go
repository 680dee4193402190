// Package probe inspects the host Python installation that the build links
// against.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/hashicorp/go-version"

	"github.com/goplus/rdbuild/internal/proc"
)

// versionScript prints "major.minor.micro" of the running interpreter.
const versionScript = "import sys;print('.'.join(str(v) for v in sys.version_info[:3]))"

// Layout is how the runtime library was built.
type Layout int

const (
	// FrameworkBuild is a macOS framework: a single "Python" binary next to
	// a "Headers" directory.
	FrameworkBuild Layout = iota + 1
	// StaticBuild is lib<runtime>X.Y.a under <prefix>/lib.
	StaticBuild
	// DynamicBuild is a shared library under <prefix>/lib.
	DynamicBuild
)

func (l Layout) String() string {
	switch l {
	case FrameworkBuild:
		return "framework"
	case StaticBuild:
		return "static"
	case DynamicBuild:
		return "dynamic"
	}
	return fmt.Sprintf("Layout(%d)", int(l))
}

// Result is what Probe learned about the runtime.
type Result struct {
	Runtime    string // interpreter name, e.g. "python"
	Version    string // full version, e.g. "3.11.4"
	MajorMinor string // e.g. "3.11"
	Prefix     string // absolute installation prefix
	Layout     Layout

	libPath     string
	includePath string
}

// LibraryPath returns the library the build should link against.
func (r Result) LibraryPath() string { return r.libPath }

// IncludePath returns the directory holding the runtime headers.
func (r Result) IncludePath() string { return r.includePath }

// IsFramework reports whether the runtime is a framework build.
func (r Result) IsFramework() bool { return r.Layout == FrameworkBuild }

// SitePackages returns the versioned site-packages directory under prefix.
func (r Result) SitePackages(prefix string) string {
	return filepath.Join(prefix, "lib", r.Runtime+r.MajorMinor, "site-packages")
}

// NewResult assembles a Result for a known layout. It is used by tests and
// by callers that already know the runtime.
func NewResult(runtimeName, ver, prefix string, layout Layout) (Result, error) {
	v, err := version.NewVersion(ver)
	if err != nil {
		return Result{}, &Error{Op: "parse version", Err: err}
	}
	r := Result{Runtime: runtimeName, Version: ver, MajorMinor: majorMinor(v), Prefix: prefix, Layout: layout}
	r.libPath, r.includePath = paths(r, runtime.GOOS)
	return r, nil
}

// Error is returned when no compatible runtime is found.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return "probe: " + e.Op + ": " + e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

// Prober locates the runtime through its own introspection tools.
type Prober struct {
	Runner proc.Runner
	// Python and PythonConfig name the interpreter and its config helper.
	Python       string
	PythonConfig string
	// FS is rooted at "/" and used for the layout checks.
	FS fs.StatFS
	// GOOS selects the shared library suffix. Defaults to runtime.GOOS.
	GOOS string
}

// New returns a Prober for the given interpreter that reads the real filesystem.
func New(runner proc.Runner, python, pythonConfig string) *Prober {
	return &Prober{
		Runner:       runner,
		Python:       python,
		PythonConfig: pythonConfig,
		FS:           os.DirFS("/").(fs.StatFS),
		GOOS:         runtime.GOOS,
	}
}

// Probe queries the interpreter's version and prefix and picks the library
// layout, preferring framework over static over dynamic.
func (p *Prober) Probe(ctx context.Context) (Result, error) {
	out, err := p.Runner.Output(ctx, proc.Cmd{Name: p.Python, Args: []string{"-c", versionScript}})
	if err != nil {
		return Result{}, &Error{Op: "query version", Err: err}
	}
	v, err := version.NewVersion(strings.TrimSpace(out))
	if err != nil {
		return Result{}, &Error{Op: "parse version", Err: err}
	}

	out, err = p.Runner.Output(ctx, proc.Cmd{Name: p.PythonConfig, Args: []string{"--prefix"}})
	if err != nil {
		return Result{}, &Error{Op: "query prefix", Err: err}
	}
	prefix, err := parsePrefix(out)
	if err != nil {
		return Result{}, &Error{Op: "query prefix", Err: err}
	}
	if fi, err := p.stat(prefix); err != nil || !fi.IsDir() {
		return Result{}, &Error{Op: "query prefix", Err: fmt.Errorf("prefix %s is not a directory", prefix)}
	}

	r := Result{
		Runtime:    runtimeName(p.Python),
		Version:    v.String(),
		MajorMinor: majorMinor(v),
		Prefix:     prefix,
	}
	r.Layout = p.layout(r)
	r.libPath, r.includePath = paths(r, p.goos())
	return r, nil
}

func (p *Prober) layout(r Result) Layout {
	if p.isFile(filepath.Join(r.Prefix, "Python")) && p.isDir(filepath.Join(r.Prefix, "Headers")) {
		return FrameworkBuild
	}
	if p.isFile(filepath.Join(r.Prefix, "lib", libName(r)+".a")) {
		return StaticBuild
	}
	return DynamicBuild
}

func paths(r Result, goos string) (lib, include string) {
	switch r.Layout {
	case FrameworkBuild:
		return filepath.Join(r.Prefix, "Python"), filepath.Join(r.Prefix, "Headers")
	case StaticBuild:
		lib = filepath.Join(r.Prefix, "lib", libName(r)+".a")
	case DynamicBuild:
		lib = filepath.Join(r.Prefix, "lib", libName(r)+sharedSuffix(goos))
	default:
		panic(fmt.Sprintf("probe: unhandled layout %v", r.Layout))
	}
	return lib, filepath.Join(r.Prefix, "include", r.Runtime+r.MajorMinor)
}

func (p *Prober) stat(name string) (fs.FileInfo, error) {
	rel := strings.TrimPrefix(path.Clean(filepath.ToSlash(name)), "/")
	if rel == "" {
		rel = "."
	}
	return p.FS.Stat(rel)
}

func (p *Prober) isFile(name string) bool {
	fi, err := p.stat(name)
	return err == nil && !fi.IsDir()
}

func (p *Prober) isDir(name string) bool {
	fi, err := p.stat(name)
	return err == nil && fi.IsDir()
}

func (p *Prober) goos() string {
	if p.GOOS != "" {
		return p.GOOS
	}
	return runtime.GOOS
}

// parsePrefix accepts exactly one absolute path.
func parsePrefix(out string) (string, error) {
	out = strings.TrimSpace(out)
	if out == "" {
		return "", errors.New("empty prefix")
	}
	if strings.ContainsAny(out, "\r\n") {
		return "", fmt.Errorf("ambiguous prefix %q", out)
	}
	if !filepath.IsAbs(out) {
		return "", fmt.Errorf("prefix %q is not absolute", out)
	}
	return filepath.Clean(out), nil
}

// libName is the canonical library base name, e.g. "libpython3.11".
func libName(r Result) string {
	return "lib" + r.Runtime + r.MajorMinor
}

func majorMinor(v *version.Version) string {
	seg := v.Segments()
	return fmt.Sprintf("%d.%d", seg[0], seg[1])
}

func sharedSuffix(goos string) string {
	if goos == "darwin" {
		return ".dylib"
	}
	return ".so"
}

// runtimeName strips directories and version suffixes from the interpreter
// name: "/usr/bin/python3" becomes "python".
func runtimeName(bin string) string {
	name := filepath.Base(bin)
	name = strings.TrimSuffix(name, ".exe")
	return strings.TrimRight(name, "0123456789.")
}
