package formula

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFormula(t *testing.T) {
	f := Default()

	assert.Equal(t, "rdkit", f.Name)
	assert.Equal(t, "2014.03.1", f.Version)
	for _, feat := range Features {
		assert.NotEmpty(t, f.Describe(feat), "option %s", feat)
	}

	java := f.AssetsFor(Java)
	require.Len(t, java, 1)
	assert.Equal(t, "External/java_lib/junit.jar", java[0].Dest)
	assert.True(t, java[0].SkipIfExists)

	inchi := f.AssetsFor(InChI)
	require.Len(t, inchi, 1)
	assert.True(t, inchi[0].IsScript())
	assert.Equal(t, "External/INCHI-API", inchi[0].Dir)

	avalon := f.AssetsFor(Avalon)
	require.Len(t, avalon, 1)
	assert.False(t, avalon[0].SkipIfExists)
	assert.Equal(t, "External/AvalonTools", avalon[0].Extract)

	assert.Empty(t, f.AssetsFor(PostgreSQL))
	sub, ok := f.SubsystemFor(PostgreSQL)
	require.True(t, ok)
	assert.Equal(t, "Code/PgSQL/rdkit", sub.Dir)
}

func TestParseRejects(t *testing.T) {
	cases := []struct{ name, src string }{
		{"no source", `name = "x"`},
		{"unknown option", "url = \"u\"\n[options]\nfortran = \"no\"\n"},
		{"unknown asset", "url = \"u\"\n[[assets.fortran]]\nurl = \"a\"\ndest = \"b\"\n"},
		{"both kinds", "url = \"u\"\n[[assets.java]]\nurl = \"a\"\ndest = \"b\"\nscript = \"s.sh\"\n"},
		{"absolute dest", "url = \"u\"\n[[assets.java]]\nurl = \"a\"\ndest = \"/tmp/b\"\n"},
		{"missing dest", "url = \"u\"\n[[assets.java]]\nurl = \"a\"\n"},
		{"bad checksum", "url = \"u\"\nchecksum = \"md5:nope\"\n"},
		{"subsystem without dir", "url = \"u\"\n[subsystems.postgresql]\nname = \"pg\"\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.src))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mini.toml")
	src := "name = \"mini\"\nurl = \"https://example.com/mini.tar.gz\"\n" +
		"checksum = \"sha256:e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855\"\n"
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "mini", f.Name)
	assert.Empty(t, f.AssetsFor(Java))

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.True(t, os.IsNotExist(err))
}
