package formula

import (
	"fmt"
	"strings"
)

// Feature names an optional build subsystem.
type Feature string

const (
	Java       Feature = "java"
	InChI      Feature = "inchi"
	PostgreSQL Feature = "postgresql"
	Avalon     Feature = "avalon"
)

// Features lists every known feature in declaration order. Arguments and
// fetch steps are emitted in this order.
var Features = []Feature{Java, InChI, PostgreSQL, Avalon}

// ParseFeature maps a feature name to its Feature. The Homebrew-style
// "with-" prefix is accepted.
func ParseFeature(name string) (Feature, error) {
	n := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), "with-")
	for _, f := range Features {
		if string(f) == n {
			return f, nil
		}
	}
	return "", &UnknownFeatureError{Name: name}
}

// UnknownFeatureError is returned when a feature name is not one of Features.
type UnknownFeatureError struct {
	Name string
}

func (e *UnknownFeatureError) Error() string {
	return fmt.Sprintf("unknown feature %q (known: %s)", e.Name, knownList())
}

func knownList() string {
	names := make([]string, len(Features))
	for i, f := range Features {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// -----------------------------------------------------------------------------

// FeatureSet records the enabled state of every Feature. The zero value has
// all features disabled. A FeatureSet is never modified after Resolve.
type FeatureSet struct {
	on [4]bool // indexed like Features
}

// Resolve builds a FeatureSet with exactly the named features enabled.
// It fails without side effects if any name is unknown.
func Resolve(raw []string) (FeatureSet, error) {
	var fs FeatureSet
	for _, name := range raw {
		f, err := ParseFeature(name)
		if err != nil {
			return FeatureSet{}, err
		}
		fs.on[f.index()] = true
	}
	return fs, nil
}

// MustResolve is like Resolve but panics on error. It is meant for
// feature lists known at compile time.
func MustResolve(names ...Feature) FeatureSet {
	raw := make([]string, len(names))
	for i, f := range names {
		raw[i] = string(f)
	}
	fs, err := Resolve(raw)
	if err != nil {
		panic(err)
	}
	return fs
}

// Enabled reports whether f is on. Unknown features are never enabled.
func (s FeatureSet) Enabled(f Feature) bool {
	i := f.index()
	return i >= 0 && s.on[i]
}

// List returns the enabled features in declaration order.
func (s FeatureSet) List() []Feature {
	var out []Feature
	for i, f := range Features {
		if s.on[i] {
			out = append(out, f)
		}
	}
	return out
}

// Map returns every feature with its state.
func (s FeatureSet) Map() map[Feature]bool {
	m := make(map[Feature]bool, len(Features))
	for i, f := range Features {
		m[f] = s.on[i]
	}
	return m
}

func (s FeatureSet) String() string {
	list := s.List()
	if len(list) == 0 {
		return "none"
	}
	names := make([]string, len(list))
	for i, f := range list {
		names[i] = string(f)
	}
	return strings.Join(names, ",")
}

func (f Feature) index() int {
	for i, k := range Features {
		if k == f {
			return i
		}
	}
	return -1
}
