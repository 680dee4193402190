// Package buildsys defines the capabilities shared by native build helpers
// (CMake, make).
package buildsys

import (
	"context"
	"io"
)

// BuildSystem captures the common lifecycle of a native build helper.
type BuildSystem interface {
	// Source sets the directory commands run in.
	Source(dir string)

	// Env sets an override applied to every command this helper spawns.
	// The process environment is left untouched.
	Env(key, value string)

	// Output redirects subprocess output.
	Output(stdout, stderr io.Writer)

	// Lifecycle.
	Configure(ctx context.Context, args ...string) error
	Build(ctx context.Context, args ...string) error
	Install(ctx context.Context, args ...string) error

	// Where artifacts land.
	OutputDir() string
}
