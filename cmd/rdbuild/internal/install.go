package internal

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/goplus/rdbuild/internal/build"
	"github.com/goplus/rdbuild/internal/caveats"
	"github.com/goplus/rdbuild/internal/fetch"
	"github.com/goplus/rdbuild/internal/logging"
	"github.com/goplus/rdbuild/internal/vcs"
	"github.com/goplus/rdbuild/pkgs/buildsys"
	"github.com/goplus/rdbuild/pkgs/buildsys/autotools"
	"github.com/goplus/rdbuild/pkgs/buildsys/cmake"
)

var installFlags buildFlags

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Build and install RDKit",
	Long: `Install resolves the requested features, probes Python, fetches the source
and feature assets, then configures, compiles and installs into the prefix.`,
	Args: cobra.NoArgs,
	RunE: runInstall,
}

func init() {
	installFlags.register(installCmd)
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	log := logging.Get("install")

	s, err := newSession(ctx, &installFlags)
	if err != nil {
		return err
	}
	log.Info().
		Str("features", s.features.String()).
		Str("prefix", s.prefix).
		Str("python", s.runtime.Version).
		Stringer("layout", s.runtime.Layout).
		Msg("resolved build")

	root, err := s.sourceRoot(&installFlags)
	if err != nil {
		return err
	}
	stdout, stderr := buildOutput(cmd)

	cm := cmake.New(s.runner, cfg.CMake, root, "")
	cm.Jobs(s.jobs)
	cm.Output(stdout, stderr)
	if err := cm.CheckVersion(ctx, cfg.MinCMake); err != nil {
		return fmt.Errorf("cmake preflight: %w", err)
	}

	fetcher := fetch.New(&http.Client{Timeout: cfg.HTTPTimeout}, s.runner, root)
	fetcher.Stdout, fetcher.Stderr = stdout, stderr
	unlock, err := build.Lock(root)
	if err != nil {
		return err
	}
	defer unlock()
	revision, err := prepareSource(ctx, s, &installFlags, fetcher, root)
	if err != nil {
		return err
	}

	p := s.plan(root)
	driver := &build.Driver{
		System: cm,
		Subsystem: func(dir string) buildsys.BuildSystem {
			mk := autotools.New(s.runner, cfg.Make, dir, "")
			mk.Jobs(s.jobs)
			return mk
		},
		Assets: fetcher,
		Prefix: s.prefix,
		Root:   root,
		Stdout: stdout,
		Stderr: stderr,

		RootLocked: true,
	}
	res, err := driver.Run(ctx, p.Steps)
	if err != nil {
		return err
	}

	var features []string
	for _, f := range s.features.List() {
		features = append(features, string(f))
	}
	err = build.WriteReceipt(s.prefix, &build.Receipt{
		Formula:   s.formula.Name,
		Version:   s.formula.Version,
		Features:  features,
		Args:      p.Args,
		Runtime:   s.runtime.Runtime + " " + s.runtime.Version,
		Revision:  revision,
		RunID:     res.RunID,
		BuildTime: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to write install receipt: %w", err)
	}
	log.Info().Dur("duration", res.Duration).Msg("installed")

	fmt.Fprintf(cmd.OutOrStdout(), "Installed %s %s to %s\n", s.formula.Name, s.formula.Version, s.prefix)
	return caveats.Render(cmd.OutOrStdout(), caveats.Data{
		Prefix:       s.prefix,
		SitePackages: s.runtime.SitePackages(s.prefix),
	})
}

// prepareSource makes sure root holds a source tree. An explicit
// --source-dir is used as is; --head syncs from git; otherwise the release
// tarball is fetched unless an unpacked tree is already there. The returned
// revision is only set for --head builds.
func prepareSource(ctx context.Context, s *session, f *buildFlags, fetcher *fetch.Fetcher, root string) (revision string, err error) {
	log := logging.Get("install")
	switch {
	case f.sourceDir != "":
		if _, err := os.Stat(filepath.Join(root, "CMakeLists.txt")); err != nil {
			return "", fmt.Errorf("source dir %s: no CMakeLists.txt", root)
		}
		return "", nil
	case f.head:
		if s.formula.Head == "" {
			return "", fmt.Errorf("formula %s has no head repository", s.formula.Name)
		}
		repo := vcs.NewGitVCS(vcs.WithRunner(s.runner))
		revision, err = repo.Latest(ctx, s.formula.Head, s.formula.HeadRef)
		if err != nil {
			return "", err
		}
		log.Info().Str("remote", s.formula.Head).Str("revision", revision).Msg("syncing source")
		return revision, repo.Sync(ctx, s.formula.Head, revision, root)
	}
	if _, err := os.Stat(filepath.Join(root, "CMakeLists.txt")); err == nil {
		log.Debug().Str("dir", root).Msg("reusing unpacked source")
		return "", nil
	}
	cacheDir, err := cfg.Cache()
	if err != nil {
		return "", fmt.Errorf("failed to get cache dir: %w", err)
	}
	log.Info().Str("url", s.formula.URL).Msg("fetching source")
	return "", fetcher.FetchSource(ctx, s.formula, cacheDir, root)
}
