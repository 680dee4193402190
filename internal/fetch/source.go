package fetch

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/goplus/rdbuild/formula"
)

// FetchSource downloads the formula's release tarball into cacheDir and
// unpacks it into dir with the top-level directory stripped. A cached
// tarball is reused when it still matches the formula checksum.
func (f *Fetcher) FetchSource(ctx context.Context, fm *formula.Formula, cacheDir, dir string) error {
	if fm.URL == "" {
		return &Error{Op: "download", Target: fm.Name, Err: fmt.Errorf("formula has no release url")}
	}
	archive := filepath.Join(cacheDir, sourceArchiveName(fm))
	reuse := fm.Checksum != ""
	if reuse {
		if err := Verify(archive, fm.Checksum); err != nil {
			os.Remove(archive)
		}
	}
	if err := f.Download(ctx, fm.URL, archive, reuse); err != nil {
		return err
	}
	if fm.Checksum != "" {
		if err := Verify(archive, fm.Checksum); err != nil {
			return err
		}
	}
	return Extract(archive, dir, 1)
}

func sourceArchiveName(fm *formula.Formula) string {
	name := fm.Name
	if name == "" {
		name = "source"
	}
	if fm.Version != "" {
		name += "-" + fm.Version
	}
	return name + "-" + path.Base(fm.URL)
}
