// Package fetch downloads and stages the auxiliary assets optional features
// need, and the upstream source tarball itself.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/opencontainers/go-digest"

	"github.com/goplus/rdbuild/formula"
	"github.com/goplus/rdbuild/internal/logging"
	"github.com/goplus/rdbuild/internal/plan"
	"github.com/goplus/rdbuild/internal/proc"
)

// Error reports a failed download, extraction or staging script.
type Error struct {
	Op      string // "download", "verify", "extract" or "script"
	Feature formula.Feature
	Target  string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Op + " " + e.Target
	if e.Feature != "" {
		msg = string(e.Feature) + ": " + msg
	}
	return "fetch: " + msg + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Fetcher stages assets under Root, the source root.
type Fetcher struct {
	HTTP   *http.Client
	Runner proc.Runner
	Root   string
	// Stdout and Stderr receive staging script output.
	Stdout io.Writer
	Stderr io.Writer
}

// New returns a Fetcher rooted at root.
func New(client *http.Client, runner proc.Runner, root string) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{HTTP: client, Runner: runner, Root: root}
}

// EnsureAsset stages every asset of feat in order. Features without assets
// are a no-op.
func (f *Fetcher) EnsureAsset(ctx context.Context, fm *formula.Formula, feat formula.Feature) error {
	for _, step := range plan.AssetSteps(fm, feat) {
		if err := f.Apply(ctx, step); err != nil {
			return err
		}
	}
	return nil
}

// Apply executes a Fetch, Extract or Script step.
func (f *Fetcher) Apply(ctx context.Context, step plan.Step) error {
	switch s := step.(type) {
	case plan.Fetch:
		dest := f.path(s.Dest)
		if err := f.Download(ctx, s.URL, dest, s.SkipIfExists); err != nil {
			return withFeature(err, s.Feature)
		}
		if s.Digest != "" {
			return withFeature(Verify(dest, s.Digest), s.Feature)
		}
		return nil
	case plan.Extract:
		return withFeature(Extract(f.path(s.Archive), f.path(s.Dir), 0), s.Feature)
	case plan.Script:
		return withFeature(f.RunScript(ctx, s.Dir, s.Name), s.Feature)
	}
	return fmt.Errorf("fetch: cannot apply %s step", step.Kind())
}

// Download writes url to dest. With skipIfExists an existing dest is kept
// and no request is made.
func (f *Fetcher) Download(ctx context.Context, url, dest string, skipIfExists bool) error {
	log := logging.Get("fetch")
	if skipIfExists {
		if _, err := os.Stat(dest); err == nil {
			log.Debug().Str("dest", dest).Msg("asset present, skipping download")
			return nil
		}
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return &Error{Op: "download", Target: url, Err: err}
	}
	log.Info().Str("url", url).Str("dest", dest).Msg("downloading")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &Error{Op: "download", Target: url, Err: err}
	}
	resp, err := f.HTTP.Do(req)
	if err != nil {
		return &Error{Op: "download", Target: url, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &Error{Op: "download", Target: url, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	part := dest + ".part"
	out, err := os.Create(part)
	if err != nil {
		return &Error{Op: "download", Target: url, Err: err}
	}
	_, err = io.Copy(out, resp.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(part, dest)
	}
	if err != nil {
		os.Remove(part)
		return &Error{Op: "download", Target: url, Err: err}
	}
	return nil
}

// Verify checks that the file at path matches want ("sha256:<hex>").
func Verify(path, want string) error {
	d, err := digest.Parse(want)
	if err != nil {
		return &Error{Op: "verify", Target: path, Err: err}
	}
	file, err := os.Open(path)
	if err != nil {
		return &Error{Op: "verify", Target: path, Err: err}
	}
	defer file.Close()

	v := d.Verifier()
	if _, err := io.Copy(v, file); err != nil {
		return &Error{Op: "verify", Target: path, Err: err}
	}
	if !v.Verified() {
		return &Error{Op: "verify", Target: path, Err: fmt.Errorf("checksum mismatch, want %s", d)}
	}
	return nil
}

// RunScript runs "bash <script>" with dir (relative to Root) as working directory.
func (f *Fetcher) RunScript(ctx context.Context, dir, script string) error {
	wd := f.path(dir)
	if _, err := os.Stat(filepath.Join(wd, script)); err != nil {
		return &Error{Op: "script", Target: script, Err: err}
	}
	log := logging.Get("fetch")
	log.Info().Str("dir", wd).Str("script", script).Msg("running staging script")
	err := f.Runner.Run(ctx, proc.Cmd{Dir: wd, Name: "bash", Args: []string{script}, Stdout: f.Stdout, Stderr: f.Stderr})
	if err != nil {
		return &Error{Op: "script", Target: script, Err: err}
	}
	return nil
}

func (f *Fetcher) path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(f.Root, filepath.FromSlash(rel))
}

func withFeature(err error, feat formula.Feature) error {
	var ferr *Error
	if errors.As(err, &ferr) && ferr.Feature == "" {
		ferr.Feature = feat
	}
	return err
}
