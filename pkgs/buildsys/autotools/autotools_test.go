package autotools

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goplus/rdbuild/internal/proc/proctest"
)

func TestMakefileOnlyProject(t *testing.T) {
	dir := t.TempDir()
	rec := proctest.New()
	a := New(rec, "", dir, "")
	a.Env("RDBASE", "/opt/rdkit")
	a.Env("CFLAGS", "-I/opt/rdkit/include/rdkit")
	ctx := context.Background()

	require.NoError(t, a.Configure(ctx))
	require.NoError(t, a.Build(ctx))
	require.NoError(t, a.Install(ctx))

	assert.Equal(t, []string{"make", "make install"}, rec.Commands(), "configure is skipped without a script")
	for _, call := range rec.Calls {
		assert.Equal(t, dir, call.Dir)
		assert.Equal(t, "/opt/rdkit", call.Env["RDBASE"])
		assert.Equal(t, "-I/opt/rdkit/include/rdkit", call.Env["CFLAGS"])
	}
	_, set := os.LookupEnv("RDBASE")
	assert.False(t, set)
}

func TestConfigureWhenScriptExists(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "configure"), []byte("#!/bin/sh\n"), 0o755))
	rec := proctest.New()
	a := New(rec, "gmake", dir, "/opt/pkg")
	a.Jobs(8)
	ctx := context.Background()

	require.NoError(t, a.Configure(ctx, "--enable-shared"))
	require.NoError(t, a.Build(ctx, "all"))
	require.NoError(t, a.Install(ctx, "DESTDIR=/stage"))

	assert.Equal(t, []string{
		"./configure --prefix=/opt/pkg --enable-shared",
		"gmake -j8 all",
		"gmake install DESTDIR=/stage",
	}, rec.Commands())
	assert.Equal(t, "/opt/pkg", a.OutputDir())
}

func TestOutputDirFallsBackToSource(t *testing.T) {
	a := New(proctest.New(), "", "src", "")
	assert.Equal(t, "src", a.OutputDir())
	a.Source("other")
	assert.Equal(t, "other", a.OutputDir())
}
