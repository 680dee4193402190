package env

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withXDG(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", filepath.Join(root, "cache"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(root, "data"))
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "config"))
	xdg.Reload()
	t.Cleanup(xdg.Reload)
	return root
}

func TestCacheDir(t *testing.T) {
	root := withXDG(t)

	dir, err := CacheDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "cache", "rdbuild"), dir)

	info, err := os.Stat(dir)
	require.NoError(t, err, "directory was not created")
	require.True(t, info.IsDir())
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())
}

// TestSourceDirIdempotent checks repeated calls return the same directory.
func TestSourceDirIdempotent(t *testing.T) {
	withXDG(t)

	dir1, err := SourceDir()
	require.NoError(t, err)
	dir2, err := SourceDir()
	require.NoError(t, err)
	assert.Equal(t, dir1, dir2)
}

func TestStaticPaths(t *testing.T) {
	root := withXDG(t)

	assert.Equal(t, filepath.Join(root, "data", "rdbuild"), DefaultPrefix())
	assert.Equal(t, filepath.Join(root, "config", "rdbuild", "config.yaml"), ConfigFile())
	_, err := os.Stat(filepath.Dir(ConfigFile()))
	assert.True(t, os.IsNotExist(err), "ConfigFile() must not create directories")
}
