package config

import (
	"archive/zip"
	"context"
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/dhamidi/jsuggest/java/codebase"
)

func memFs(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}
	return fs
}

func TestLoad(t *testing.T) {
	fs := memFs(t, map[string]string{
		"/proj/.jsuggest.yaml": `sourceRoots: [src/main/java, src/test/java]
exclude: ["**/generated/**"]
indexFiles: [libs/guava.yaml]
logLevel: debug
logFile: /tmp/jsuggest.log
`,
		"/proj/empty.yaml":   "",
		"/proj/unknown.yaml": "sourceRoot: src\n",
		"/proj/bad.yaml": `sourceRoots: []
include: ["[a-"]
logLevel: loud
`,
	})

	t.Run("values", func(t *testing.T) {
		c, err := Load(fs, "/proj/.jsuggest.yaml")
		require.NoError(t, err)
		assert.Equal(t, []string{"src/main/java", "src/test/java"}, c.SourceRoots)
		assert.Equal(t, codebase.DefaultInclude, c.Include, "defaults fill what the file leaves out")
		assert.Equal(t, []string{"**/generated/**"}, c.Exclude)
		assert.Equal(t, "/proj/libs/guava.yaml", c.Path(c.IndexFiles[0]))
		assert.Equal(t, "/proj", c.Dir)
		assert.Equal(t, 2, c.Verbosity())
		assert.Equal(t, "/tmp/jsuggest.log", c.LogFile)
	})

	t.Run("empty file", func(t *testing.T) {
		c, err := Load(fs, "/proj/empty.yaml")
		require.NoError(t, err)
		assert.Equal(t, []string{"."}, c.SourceRoots)
		assert.Equal(t, 0, c.Verbosity())
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := Load(fs, "/proj/unknown.yaml")
		assert.ErrorContains(t, err, "sourceRoot")
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := Load(fs, "/proj/bad.yaml")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalid)

		c := Default()
		c.SourceRoots = nil
		c.Include = []string{"[a-"}
		c.LogLevel = "loud"
		assert.Len(t, multierr.Errors(c.Validate()), 3)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := Load(fs, "/proj/none.yaml")
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestFind(t *testing.T) {
	fs := memFs(t, map[string]string{
		"/proj/.jsuggest.yaml": "logLevel: info\n",
		"/other/custom.yaml":   "logLevel: warning\n",
	})

	t.Run("project file", func(t *testing.T) {
		t.Setenv(EnvConfig, "")
		t.Setenv(EnvLogLevel, "")
		c, err := Find(fs, "/proj")
		require.NoError(t, err)
		assert.Equal(t, "info", c.LogLevel)
	})

	t.Run("defaults", func(t *testing.T) {
		t.Setenv(EnvConfig, "")
		t.Setenv(EnvLogLevel, "")
		c, err := Find(fs, "/empty")
		require.NoError(t, err)
		assert.Equal(t, "/empty", c.Dir)
		assert.Equal(t, "notice", c.LogLevel)
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv(EnvConfig, "/other/custom.yaml")
		t.Setenv(EnvLogLevel, "error")
		c, err := Find(fs, "/proj")
		require.NoError(t, err)
		assert.Equal(t, "/other", c.Dir)
		assert.Equal(t, "error", c.LogLevel)
		assert.Equal(t, -2, c.Verbosity())
	})

	t.Run("invalid environment", func(t *testing.T) {
		t.Setenv(EnvConfig, "")
		t.Setenv(EnvLogLevel, "chatty")
		_, err := Find(fs, "/proj")
		assert.ErrorIs(t, err, ErrInvalid)
	})
}

func TestLoadDotEnv(t *testing.T) {
	const key = "JSUGGEST_DOTENV_TEST"
	const kept = "JSUGGEST_DOTENV_KEPT"
	t.Setenv(kept, "from environment")
	t.Cleanup(func() { os.Unsetenv(key) })

	fs := memFs(t, map[string]string{
		"/proj/.env": key + "=from file\n" + kept + "=from file\n",
	})
	require.NoError(t, LoadDotEnv(fs, "/proj/.env"))
	assert.Equal(t, "from file", os.Getenv(key))
	assert.Equal(t, "from environment", os.Getenv(kept))

	assert.NoError(t, LoadDotEnv(fs, "/proj/missing.env"))
}

func TestCodebaseOptions(t *testing.T) {
	c := Default()
	c.Dir = "/proj"
	c.SourceRoots = []string{"src/main/java", "./gen"}
	cb := codebase.New(afero.NewMemMapFs(), c.Dir, c.CodebaseOptions()...)

	assert.True(t, cb.Matches("/proj/src/main/java/p/A.java"))
	assert.True(t, cb.Matches("/proj/gen/p/B.java"))
	assert.False(t, cb.Matches("/proj/other/C.java"))
	assert.False(t, cb.Matches("/proj/gen/build/D.java"))
}

func TestLibraries(t *testing.T) {
	fs := memFs(t, map[string]string{
		"/proj/libs/util.yaml": `types:
  - name: lib.Util
    kind: class
`,
	})
	c := Default()
	c.Dir = "/proj"
	c.IndexFiles = []string{"libs/util.yaml"}

	idx, err := c.Libraries(fs)
	require.NoError(t, err)
	ctx := context.Background()
	e, err := idx.LookupType(ctx, "lib.Util")
	require.NoError(t, err)
	assert.Equal(t, "lib.Util", e.Name)
	_, err = idx.LookupType(ctx, "java.lang.String")
	assert.NoError(t, err)

	c.IndexFiles = []string{"libs/missing.yaml"}
	_, err = c.Libraries(fs)
	assert.ErrorIs(t, err, os.ErrNotExist)

	c.IndexFiles = []string{"libs/empty.jar"}
	f, err := fs.Create("/proj/libs/empty.jar")
	require.NoError(t, err)
	require.NoError(t, zip.NewWriter(f).Close())
	require.NoError(t, f.Close())
	idx, err = c.Libraries(fs)
	require.NoError(t, err)
	_, err = idx.LookupType(ctx, "java.lang.String")
	assert.NoError(t, err, "jars come before the java.lang types")
}
