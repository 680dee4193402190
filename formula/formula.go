// Package formula describes a buildable upstream project: where its source
// lives, which optional features it has and which auxiliary assets those
// features need.
package formula

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/opencontainers/go-digest"
	"github.com/pelletier/go-toml/v2"
)

//go:embed rdkit.toml
var rdkitFormula []byte

// Formula is the declarative description of a package.
type Formula struct {
	Name     string `toml:"name"`
	Homepage string `toml:"homepage"`
	Version  string `toml:"version"`
	URL      string `toml:"url"`
	// Checksum is an OCI digest ("sha256:<hex>") of the release tarball.
	// Empty disables verification.
	Checksum string `toml:"checksum"`
	Head     string `toml:"head"`
	HeadRef  string `toml:"head_ref"`

	Options    map[string]string    `toml:"options"`
	Assets     map[string][]Asset   `toml:"assets"`
	Subsystems map[string]Subsystem `toml:"subsystems"`
}

// Asset is an auxiliary input required by a feature. It is either a
// download (URL and Dest, optionally unpacked into Extract) or a script
// shipped in the source tree (Script run inside Dir).
type Asset struct {
	URL          string `toml:"url"`
	Dest         string `toml:"dest"`
	Checksum     string `toml:"checksum"`
	SkipIfExists bool   `toml:"skip_if_exists"`
	Extract      string `toml:"extract"`

	Script string `toml:"script"`
	Dir    string `toml:"dir"`
}

// IsScript reports whether a is a script asset.
func (a Asset) IsScript() bool { return a.Script != "" }

// Subsystem is a secondary build unit built after the main install.
type Subsystem struct {
	Name string `toml:"name"`
	Dir  string `toml:"dir"`
}

// Default returns the built-in RDKit formula.
func Default() *Formula {
	f, err := Parse(rdkitFormula)
	if err != nil {
		panic(fmt.Sprintf("formula: embedded rdkit.toml: %v", err))
	}
	return f
}

// Load reads and validates a formula file.
func Load(path string) (*Formula, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return f, nil
}

// Parse decodes and validates a TOML formula.
func Parse(data []byte) (*Formula, error) {
	var f Formula
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks that the formula only refers to known features and that
// every asset is well formed.
func (f *Formula) Validate() error {
	if f.URL == "" && f.Head == "" {
		return errors.New("formula has neither url nor head")
	}
	if f.Checksum != "" {
		if _, err := digest.Parse(f.Checksum); err != nil {
			return fmt.Errorf("checksum: %w", err)
		}
	}
	for name := range f.Options {
		if _, err := ParseFeature(name); err != nil {
			return fmt.Errorf("options: %w", err)
		}
	}
	for name, assets := range f.Assets {
		if _, err := ParseFeature(name); err != nil {
			return fmt.Errorf("assets: %w", err)
		}
		for i, a := range assets {
			if err := a.validate(); err != nil {
				return fmt.Errorf("assets.%s[%d]: %w", name, i, err)
			}
		}
	}
	for name, sub := range f.Subsystems {
		if _, err := ParseFeature(name); err != nil {
			return fmt.Errorf("subsystems: %w", err)
		}
		if sub.Dir == "" {
			return fmt.Errorf("subsystems.%s: dir is required", name)
		}
	}
	return nil
}

func (a Asset) validate() error {
	switch {
	case a.IsScript() && a.URL != "":
		return errors.New("asset has both url and script")
	case a.IsScript():
		return nil
	case a.URL == "" || a.Dest == "":
		return errors.New("download asset needs url and dest")
	case filepath.IsAbs(a.Dest):
		return fmt.Errorf("dest %q must be relative to the source root", a.Dest)
	}
	if a.Checksum != "" {
		if _, err := digest.Parse(a.Checksum); err != nil {
			return fmt.Errorf("checksum: %w", err)
		}
	}
	return nil
}

// AssetsFor returns the assets of feature f in declaration order.
func (f *Formula) AssetsFor(feat Feature) []Asset {
	return f.Assets[string(feat)]
}

// SubsystemFor returns the post-install subsystem governed by feat, if any.
func (f *Formula) SubsystemFor(feat Feature) (Subsystem, bool) {
	sub, ok := f.Subsystems[string(feat)]
	return sub, ok
}

// Describe returns the option description of feat.
func (f *Formula) Describe(feat Feature) string {
	return f.Options[string(feat)]
}
