package fetch

import (
	"archive/tar"
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Extract unpacks the tar archive (optionally gzip-compressed) into dir.
// strip drops that many leading path components from every entry, like
// tar --strip-components. Entries that would land outside dir are rejected.
func Extract(archive, dir string, strip int) error {
	if err := extract(archive, dir, strip); err != nil {
		return &Error{Op: "extract", Target: archive, Err: err}
	}
	return nil
}

func extract(archive, dir string, strip int) error {
	file, err := os.Open(archive)
	if err != nil {
		return err
	}
	defer file.Close()

	br := bufio.NewReader(file)
	var r io.Reader = br
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return err
		}
		defer zr.Close()
		r = zr
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return err
	}

	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		name, ok := stripComponents(hdr.Name, strip)
		if !ok {
			continue
		}
		target := filepath.Join(root, filepath.FromSlash(name))
		if !within(root, target) {
			return fmt.Errorf("entry %q escapes %s", hdr.Name, dir)
		}
		if hdr.Typeflag == tar.TypeSymlink && !within(root, filepath.Join(filepath.Dir(target), hdr.Linkname)) {
			return fmt.Errorf("symlink %q points outside %s", hdr.Name, dir)
		}
		if err := checkParents(root, target); err != nil {
			return fmt.Errorf("entry %q: %w", hdr.Name, err)
		}
		if err := writeEntry(tr, hdr, target); err != nil {
			return err
		}
	}
}

func writeEntry(tr *tar.Reader, hdr *tar.Header, target string) error {
	switch hdr.Typeflag {
	case tar.TypeDir:
		return os.MkdirAll(target, 0o755)
	case tar.TypeReg:
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := removeSymlink(target); err != nil {
			return err
		}
		mode := hdr.FileInfo().Mode().Perm() | 0o200
		out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
		if err != nil {
			return err
		}
		if _, err := io.Copy(out, tr); err != nil {
			out.Close()
			return err
		}
		return out.Close()
	case tar.TypeSymlink:
		if filepath.IsAbs(hdr.Linkname) {
			return fmt.Errorf("symlink %q has absolute target", hdr.Name)
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		os.Remove(target)
		return os.Symlink(hdr.Linkname, target)
	}
	// Other entry types (devices, fifos, pax globals) are not needed for sources.
	return nil
}

// checkParents fails if any existing directory between root and target is a
// symlink. Links written by earlier entries could otherwise redirect later
// entries outside root.
func checkParents(root, target string) error {
	rel, err := filepath.Rel(root, filepath.Dir(target))
	if err != nil || rel == "." {
		return err
	}
	cur := root
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		cur = filepath.Join(cur, part)
		fi, err := os.Lstat(cur)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return err
		}
		if fi.Mode()&fs.ModeSymlink != 0 {
			return fmt.Errorf("path goes through symlink %s", cur)
		}
	}
	return nil
}

// removeSymlink removes target if it is a symlink so the file is written in
// place instead of at the link's destination.
func removeSymlink(target string) error {
	fi, err := os.Lstat(target)
	if err != nil || fi.Mode()&fs.ModeSymlink == 0 {
		return nil
	}
	return os.Remove(target)
}

func within(root, p string) bool {
	return p == root || strings.HasPrefix(p, root+string(filepath.Separator))
}

// stripComponents drops n leading path elements. ok is false when nothing
// is left.
func stripComponents(name string, n int) (string, bool) {
	name = strings.TrimPrefix(filepath.ToSlash(name), "./")
	for ; n > 0; n-- {
		_, rest, found := strings.Cut(name, "/")
		if !found {
			return "", false
		}
		name = rest
	}
	name = strings.Trim(name, "/")
	return name, name != ""
}
