package cmake

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goplus/rdbuild/internal/proc"
	"github.com/goplus/rdbuild/internal/proc/proctest"
)

func TestArgsAppendOnly(t *testing.T) {
	base := []string{"-Wno-dev"}
	a := NewArgs(base...)
	a.DefineBool("FOO", true).Define("BAR", "x").DefineBool("FOO", false).Add(".")

	assert.Equal(t, []string{"-Wno-dev", "-DFOO=ON", "-DBAR=x", "-DFOO=OFF", "."}, a.List())

	list := a.List()
	list[0] = "mutated"
	assert.Equal(t, "-Wno-dev", a.List()[0], "List returns a copy")
	base[0] = "mutated"
	assert.Equal(t, "-Wno-dev", a.List()[0], "NewArgs copies base")
}

func TestLifecycleCommands(t *testing.T) {
	rec := proctest.New()
	c := New(rec, "", "/src/rdkit", "/opt/rdkit")
	c.Jobs(4)
	c.Env("CUSTOM", "VAL")
	ctx := context.Background()

	require.NoError(t, c.Configure(ctx, "-DX=1", "."))
	require.NoError(t, c.Build(ctx))
	require.NoError(t, c.Install(ctx))

	assert.Equal(t, []string{
		"cmake -DX=1 .",
		"cmake --build . --parallel 4",
		"cmake --install . --prefix /opt/rdkit",
	}, rec.Commands())
	for _, call := range rec.Calls {
		assert.Equal(t, "/src/rdkit", call.Dir)
		assert.Equal(t, "VAL", call.Env["CUSTOM"])
	}
	_, set := os.LookupEnv("CUSTOM")
	assert.False(t, set, "Env must not leak into the process environment")
}

func TestOutputDirPrefersInstall(t *testing.T) {
	c := New(proctest.New(), "cmake", "src", "")
	assert.Equal(t, "src", c.OutputDir())
	c = New(proctest.New(), "cmake", "src", "custom-install")
	assert.Equal(t, "custom-install", c.OutputDir())
}

func TestCheckVersion(t *testing.T) {
	cases := []struct {
		name    string
		out     string
		min     string
		wantErr bool
	}{
		{"newer", "cmake version 3.27.4\n\nCMake suite maintained and supported by Kitware.", "3.5.0", false},
		{"equal", "cmake version 3.5.0", "v3.5.0", false},
		{"older", "cmake version 2.8.12", "3.5.0", true},
		{"garbage", "command not understood", "3.5.0", true},
		{"bad minimum", "cmake version 3.27.4", "three", true},
		{"no install mode", "cmake version 3.10.2", MinVersion, true},
		{"install mode", "cmake version 3.15.7", MinVersion, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := proctest.New()
			rec.Outputs["cmake --version"] = tc.out
			err := New(rec, "cmake", ".", "").CheckVersion(context.Background(), tc.min)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckVersionMissingBinary(t *testing.T) {
	rec := proctest.New()
	rec.Errs["cmake --version"] = exec.ErrNotFound
	err := New(rec, "cmake", ".", "").CheckVersion(context.Background(), "3.5.0")
	assert.True(t, errors.Is(err, exec.ErrNotFound))
}

const testProject = `cmake_minimum_required(VERSION 3.5)
project(dummy C)
option(ENABLE "enable" OFF)
add_library(dummy STATIC dummy.c)
install(TARGETS dummy ARCHIVE DESTINATION lib)
install(FILES dummy.h DESTINATION include)
`

func TestConfigureBuildInstallE2E(t *testing.T) {
	if _, err := exec.LookPath("cmake"); err != nil {
		t.Skip("cmake not found in PATH")
	}
	tmp := t.TempDir()
	src := filepath.Join(tmp, "src")
	installDir := filepath.Join(tmp, "install")
	require.NoError(t, os.MkdirAll(src, 0o755))
	for name, body := range map[string]string{
		"CMakeLists.txt": testProject,
		"dummy.c":        "int dummy(void) { return 42; }\n",
		"dummy.h":        "int dummy(void);\n",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(src, name), []byte(body), 0o644))
	}

	c := New(proc.NewExecRunner(), "cmake", src, installDir)
	ctx := context.Background()
	args := NewArgs("-DCMAKE_BUILD_TYPE=Release").DefineBool("ENABLE", true).Add(".")
	require.NoError(t, c.Configure(ctx, args.List()...))
	require.NoError(t, c.Build(ctx))
	require.NoError(t, c.Install(ctx))

	assert.FileExists(t, filepath.Join(installDir, "lib", "libdummy.a"))
	assert.FileExists(t, filepath.Join(installDir, "include", "dummy.h"))

	cache, err := os.ReadFile(filepath.Join(src, "CMakeCache.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(cache), "ENABLE:BOOL=ON")
}
