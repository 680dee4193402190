// Package vcs fetches source trees from version control for HEAD builds.
package vcs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goplus/rdbuild/internal/proc"
)

// VCS defines the interface for version control operations.
type VCS interface {
	// Sync ensures the local repo exists and is at the specified ref.
	// ref can be branch, tag, or commit hash.
	// If dir doesn't exist, it is created and initialized.
	// If dir exists, updates are fetched and the ref is checked out.
	Sync(ctx context.Context, remote, ref, dir string) error

	// Latest returns the commit hash ref points to on the remote.
	Latest(ctx context.Context, remote, ref string) (string, error)
}

// gitVCS implements VCS using git.
type gitVCS struct {
	git    string
	runner proc.Runner
}

// GitOption configures gitVCS.
type GitOption func(*gitVCS)

// WithGitPath sets a custom git executable path.
func WithGitPath(path string) GitOption {
	return func(g *gitVCS) {
		g.git = path
	}
}

// WithRunner sets the command runner.
func WithRunner(r proc.Runner) GitOption {
	return func(g *gitVCS) {
		g.runner = r
	}
}

// NewGitVCS creates a new git VCS instance.
func NewGitVCS(opts ...GitOption) VCS {
	g := &gitVCS{git: "git", runner: proc.NewExecRunner()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *gitVCS) ensureInit(ctx context.Context, dir string) error {
	if _, err := os.Stat(filepath.Join(dir, ".git")); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		return g.run(ctx, dir, "init", "--quiet")
	}
	return nil
}

func (g *gitVCS) Sync(ctx context.Context, remote, ref, dir string) error {
	if err := g.ensureInit(ctx, dir); err != nil {
		return err
	}
	if err := g.run(ctx, dir, "fetch", "--depth", "1", remote, ref); err != nil {
		return fmt.Errorf("fetch %s: %w", ref, err)
	}
	if err := g.run(ctx, dir, "checkout", "--force", "FETCH_HEAD"); err != nil {
		return fmt.Errorf("checkout %s: %w", ref, err)
	}
	return nil
}

func (g *gitVCS) Latest(ctx context.Context, remote, ref string) (string, error) {
	if ref == "" {
		ref = "HEAD"
	}
	output, err := g.runner.Output(ctx, g.cmd("", "ls-remote", remote, ref))
	if err != nil {
		return "", fmt.Errorf("ls-remote %s: %w", remote, err)
	}
	if output == "" {
		return "", fmt.Errorf("no %s found in remote %s", ref, remote)
	}

	// format: <hash>\t<ref>
	first, _, _ := strings.Cut(output, "\n")
	hash, _, _ := strings.Cut(first, "\t")
	return hash, nil
}

func (g *gitVCS) run(ctx context.Context, dir string, args ...string) error {
	_, err := g.runner.Output(ctx, g.cmd(dir, args...))
	return err
}

func (g *gitVCS) cmd(dir string, args ...string) proc.Cmd {
	return proc.Cmd{
		Dir:  dir,
		Name: g.git,
		Args: args,
		Env:  map[string]string{"GIT_TERMINAL_PROMPT": "0"},
	}
}
