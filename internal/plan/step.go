package plan

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/goplus/rdbuild/formula"
)

// Kind identifies the variant of a Step.
type Kind int

const (
	KindFetch Kind = iota + 1
	KindExtract
	KindScript
	KindConfigure
	KindCompile
	KindInstall
	KindPostInstall
)

var kindNames = map[Kind]string{
	KindFetch:       "fetch",
	KindExtract:     "extract",
	KindScript:      "script",
	KindConfigure:   "configure",
	KindCompile:     "compile",
	KindInstall:     "install",
	KindPostInstall: "post-install",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Step is one unit of the build sequence. The concrete types below are the
// only implementations.
type Step interface {
	Kind() Kind
	String() string
	step()
}

// Fetch downloads URL to Dest (relative to the source root).
type Fetch struct {
	Feature      formula.Feature
	URL          string
	Dest         string
	Digest       string
	SkipIfExists bool
}

// Extract unpacks Archive into Dir, both relative to the source root.
type Extract struct {
	Feature formula.Feature
	Archive string
	Dir     string
}

// Script runs a shell script shipped in the source tree from within Dir.
type Script struct {
	Feature formula.Feature
	Dir     string
	Name    string
}

// Configure runs the native configuration tool with Args.
type Configure struct {
	Args []string
}

// Compile runs the native build.
type Compile struct{}

// Install installs the build into the prefix.
type Install struct{}

// PostInstallSubsystem builds and installs a secondary unit in Dir with Env
// applied to its subprocesses only.
type PostInstallSubsystem struct {
	Feature formula.Feature
	Name    string
	Dir     string
	Env     map[string]string
}

func (Fetch) Kind() Kind                { return KindFetch }
func (Extract) Kind() Kind              { return KindExtract }
func (Script) Kind() Kind               { return KindScript }
func (Configure) Kind() Kind            { return KindConfigure }
func (Compile) Kind() Kind              { return KindCompile }
func (Install) Kind() Kind              { return KindInstall }
func (PostInstallSubsystem) Kind() Kind { return KindPostInstall }

func (Fetch) step()                {}
func (Extract) step()              {}
func (Script) step()               {}
func (Configure) step()            {}
func (Compile) step()              {}
func (Install) step()              {}
func (PostInstallSubsystem) step() {}

func (s Fetch) String() string {
	str := fmt.Sprintf("fetch %s -> %s", s.URL, s.Dest)
	if s.SkipIfExists {
		str += " (skip if present)"
	}
	return str
}

func (s Extract) String() string { return fmt.Sprintf("extract %s -> %s", s.Archive, s.Dir) }

func (s Script) String() string { return fmt.Sprintf("script %s in %s", s.Name, s.Dir) }

func (s Configure) String() string { return "configure " + strings.Join(s.Args, " ") }

func (Compile) String() string { return "compile" }

func (Install) String() string { return "install" }

func (s PostInstallSubsystem) String() string {
	keys := slices.Sorted(maps.Keys(s.Env))
	env := make([]string, len(keys))
	for i, k := range keys {
		env[i] = k + "=" + s.Env[k]
	}
	return fmt.Sprintf("post-install %s in %s [%s]", s.Name, s.Dir, strings.Join(env, " "))
}
