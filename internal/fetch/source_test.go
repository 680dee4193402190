package fetch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goplus/rdbuild/formula"
	"github.com/goplus/rdbuild/internal/proc/proctest"
)

func TestFetchSourceCachesVerifiedTarball(t *testing.T) {
	tarball := makeTar(t, true,
		tarEntry{name: "rdkit-Release_2014_03_1/CMakeLists.txt", body: "project(RDKit)"},
	)
	srv := newAssetServer(t, map[string][]byte{"/Release_2014_03_1.tar.gz": tarball})
	fm := &formula.Formula{
		Name:     "rdkit",
		Version:  "2014.03.1",
		URL:      srv.URL + "/Release_2014_03_1.tar.gz",
		Checksum: digest.FromBytes(tarball).String(),
	}
	cache := t.TempDir()
	f := New(srv.Client(), proctest.New(), "")
	ctx := context.Background()

	src := filepath.Join(t.TempDir(), "src")
	require.NoError(t, f.FetchSource(ctx, fm, cache, src))
	assert.FileExists(t, filepath.Join(src, "CMakeLists.txt"))
	assert.FileExists(t, filepath.Join(cache, "rdkit-2014.03.1-Release_2014_03_1.tar.gz"))

	require.NoError(t, f.FetchSource(ctx, fm, cache, filepath.Join(t.TempDir(), "src")))
	assert.Equal(t, int32(1), srv.hits.Load(), "verified cache is reused")

	// A corrupted cache entry is replaced.
	require.NoError(t, os.WriteFile(filepath.Join(cache, "rdkit-2014.03.1-Release_2014_03_1.tar.gz"), []byte("junk"), 0o644))
	require.NoError(t, f.FetchSource(ctx, fm, cache, filepath.Join(t.TempDir(), "src")))
	assert.Equal(t, int32(2), srv.hits.Load())
}

func TestFetchSourceChecksumMismatch(t *testing.T) {
	srv := newAssetServer(t, map[string][]byte{"/src.tar.gz": []byte("not what was promised")})
	fm := &formula.Formula{
		Name:     "rdkit",
		URL:      srv.URL + "/src.tar.gz",
		Checksum: digest.FromString("something else").String(),
	}
	f := New(srv.Client(), proctest.New(), "")
	err := f.FetchSource(context.Background(), fm, t.TempDir(), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checksum mismatch")
}

func TestFetchSourceWithoutURL(t *testing.T) {
	f := New(nil, proctest.New(), "")
	err := f.FetchSource(context.Background(), &formula.Formula{Name: "rdkit", Head: "https://github.com/rdkit/rdkit.git"}, t.TempDir(), t.TempDir())
	assert.Error(t, err)
}
