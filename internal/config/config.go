// Package config loads rdbuild settings from defaults, an optional YAML
// file and RDBUILD_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	rdenv "github.com/goplus/rdbuild/internal/env"
	"github.com/goplus/rdbuild/pkgs/buildsys/cmake"
)

// EnvPrefix prefixes every environment override, e.g. RDBUILD_JOBS=8.
const EnvPrefix = "RDBUILD_"

// Config holds the resolved settings.
type Config struct {
	Prefix       string        `koanf:"prefix"`
	Python       string        `koanf:"python"`
	PythonConfig string        `koanf:"python_config"`
	CMake        string        `koanf:"cmake"`
	Make         string        `koanf:"make"`
	Jobs         int           `koanf:"jobs"`
	CacheDir     string        `koanf:"cache_dir"`
	HTTPTimeout  time.Duration `koanf:"http_timeout"`
	MinCMake     string        `koanf:"min_cmake"`
}

func defaults() map[string]any {
	return map[string]any{
		"prefix":        rdenv.DefaultPrefix(),
		"python":        "python3",
		"python_config": "python3-config",
		"cmake":         "cmake",
		"make":          "make",
		"jobs":          0,
		"cache_dir":     "",
		"http_timeout":  "10m",
		"min_cmake":     cmake.MinVersion,
	}
}

// Load reads the configuration. path names the YAML file; an empty path
// uses the per-user default location. A missing file is not an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = rdenv.ConfigFile()
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config %s: %w", path, err)
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings no build could run with.
func (c *Config) Validate() error {
	switch {
	case c.Prefix == "":
		return errors.New("config: prefix must not be empty")
	case c.Jobs < 0:
		return fmt.Errorf("config: jobs must not be negative, got %d", c.Jobs)
	case c.HTTPTimeout < 0:
		return fmt.Errorf("config: http_timeout must not be negative, got %s", c.HTTPTimeout)
	}
	return nil
}

// Cache returns CacheDir, falling back to the per-user cache directory.
func (c *Config) Cache() (string, error) {
	if c.CacheDir != "" {
		if err := os.MkdirAll(c.CacheDir, 0o755); err != nil {
			return "", err
		}
		return c.CacheDir, nil
	}
	return rdenv.CacheDir()
}
