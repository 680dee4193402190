package probe

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goplus/rdbuild/internal/proc/proctest"
)

const prefix = "/opt/python"

func newTestProber(t *testing.T, files fstest.MapFS, goos string) (*Prober, *proctest.Recorder) {
	t.Helper()
	rec := proctest.New()
	rec.Outputs["python -c "+versionScript] = "3.11.4\n"
	rec.Outputs["python-config --prefix"] = prefix + "\n"
	if files == nil {
		files = fstest.MapFS{}
	}
	files["opt/python/bin/python3"] = &fstest.MapFile{}
	return &Prober{Runner: rec, Python: "python", PythonConfig: "python-config", FS: files, GOOS: goos}, rec
}

func TestProbePrefersFramework(t *testing.T) {
	p, rec := newTestProber(t, fstest.MapFS{
		"opt/python/Python":                  &fstest.MapFile{},
		"opt/python/Headers/Python.h":        &fstest.MapFile{},
		"opt/python/lib/libpython3.11.a":     &fstest.MapFile{},
		"opt/python/lib/libpython3.11.dylib": &fstest.MapFile{},
	}, "darwin")

	r, err := p.Probe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, FrameworkBuild, r.Layout)
	assert.True(t, r.IsFramework())
	assert.Equal(t, "/opt/python/Python", r.LibraryPath())
	assert.Equal(t, "/opt/python/Headers", r.IncludePath())
	assert.Len(t, rec.Calls, 2, "exactly two read-only queries")
}

func TestProbeFrameworkNeedsHeadersDir(t *testing.T) {
	p, _ := newTestProber(t, fstest.MapFS{
		"opt/python/Python":  &fstest.MapFile{},
		"opt/python/Headers": &fstest.MapFile{}, // a file, not a directory
	}, "linux")

	r, err := p.Probe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DynamicBuild, r.Layout)
}

func TestProbePrefersStaticOverDynamic(t *testing.T) {
	p, _ := newTestProber(t, fstest.MapFS{
		"opt/python/lib/libpython3.11.a":  &fstest.MapFile{},
		"opt/python/lib/libpython3.11.so": &fstest.MapFile{},
	}, "linux")

	r, err := p.Probe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StaticBuild, r.Layout)
	assert.Equal(t, "/opt/python/lib/libpython3.11.a", r.LibraryPath())
	assert.Equal(t, "/opt/python/include/python3.11", r.IncludePath())
}

func TestProbeDynamicFallback(t *testing.T) {
	for goos, want := range map[string]string{
		"darwin": "/opt/python/lib/libpython3.11.dylib",
		"linux":  "/opt/python/lib/libpython3.11.so",
	} {
		t.Run(goos, func(t *testing.T) {
			p, _ := newTestProber(t, nil, goos)
			r, err := p.Probe(context.Background())
			require.NoError(t, err)
			assert.Equal(t, DynamicBuild, r.Layout)
			assert.Equal(t, want, r.LibraryPath())
			assert.Equal(t, "3.11", r.MajorMinor)
			assert.Equal(t, "python", r.Runtime)
		})
	}
}

func TestProbeErrors(t *testing.T) {
	cases := []struct {
		name  string
		setup func(rec *proctest.Recorder)
	}{
		{"runtime missing", func(rec *proctest.Recorder) {
			rec.Errs["python -c "+versionScript] = errors.New("executable file not found")
		}},
		{"bad version", func(rec *proctest.Recorder) {
			rec.Outputs["python -c "+versionScript] = "not-a-version"
		}},
		{"empty prefix", func(rec *proctest.Recorder) {
			rec.Outputs["python-config --prefix"] = ""
		}},
		{"ambiguous prefix", func(rec *proctest.Recorder) {
			rec.Outputs["python-config --prefix"] = "/opt/python\n/usr/local"
		}},
		{"relative prefix", func(rec *proctest.Recorder) {
			rec.Outputs["python-config --prefix"] = "opt/python"
		}},
		{"prefix missing", func(rec *proctest.Recorder) {
			rec.Outputs["python-config --prefix"] = "/nowhere"
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, rec := newTestProber(t, nil, "linux")
			tc.setup(rec)
			_, err := p.Probe(context.Background())
			var perr *Error
			require.True(t, errors.As(err, &perr), "got %v", err)
		})
	}
}

func TestRuntimeName(t *testing.T) {
	assert.Equal(t, "python", runtimeName("/usr/bin/python3"))
	assert.Equal(t, "python", runtimeName("python3.11"))
	assert.Equal(t, "python", runtimeName("python"))
}

func TestNewResultAndSitePackages(t *testing.T) {
	r, err := NewResult("python", "3.12.1", "/usr", StaticBuild)
	require.NoError(t, err)
	assert.Equal(t, "/usr/lib/libpython3.12.a", r.LibraryPath())
	assert.Equal(t, "/home/u/brew/lib/python3.12/site-packages", r.SitePackages("/home/u/brew"))

	_, err = NewResult("python", "x.y", "/usr", StaticBuild)
	assert.Error(t, err)
	assert.Panics(t, func() { NewResult("python", "3.12", "/usr", Layout(9)) })
}
