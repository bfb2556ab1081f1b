package main

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/jsuggest/java/index"
)

const (
	aJava = `package p;
public class A {
	/** The name. */
	public String name;
	public int size() { return 0; }
}
`
	mainJava = `package p;

import java.util.List;

class Main implements Runnable {
	void m(A a) {
		a.
	}
}
`
	useJava = `package p;

class Use {
	String f(A a) { return a.name; }
	Missing g() { return null; }
}
`
)

func project(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	files := map[string]string{
		"/proj/src/p/A.java":    aJava,
		"/proj/src/p/Main.java": mainJava,
		"/proj/src/p/Use.java":  useJava,
		"/proj/.jsuggest.yaml":  "sourceRoots: [src]\n",
	}
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}
	return fs
}

func run(t *testing.T, fs afero.Fs, args ...string) (string, error) {
	t.Helper()
	t.Setenv("JSUGGEST_CONFIG", "")
	t.Setenv("JSUGGEST_LOG_LEVEL", "")
	cmd := newRootCmd(&app{fs: fs})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"-C", "/proj"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

// offsetOf is the byte offset at which ident starts inside marker.
func offsetOf(t *testing.T, src, marker, ident string) string {
	t.Helper()
	i := strings.Index(src, marker)
	require.GreaterOrEqual(t, i, 0, "marker %q", marker)
	j := strings.Index(marker, ident)
	require.GreaterOrEqual(t, j, 0, "ident %q", ident)
	return strconv.Itoa(i + j)
}

func TestSuggestCmd(t *testing.T) {
	fs := project(t)

	out, err := run(t, fs, "suggest", "/proj/src/p/Main.java", "7:5")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "field\tname\tString name\tp.A\nmethod\tsize\tint size()\tp.A\n"), out)
	assert.Contains(t, out, "\thashCode\t")

	out, err = run(t, fs, "suggest", "--scan=false", "/proj/src/p/Main.java", "7:5")
	require.NoError(t, err)
	assert.Empty(t, out, "A is unknown without the project")

	out, err = run(t, fs, "suggest", "-f", "json", "/proj/src/p/Main.java", "7:5")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "[\n  {\n    \"name\": \"name\""), out)
}

func TestDefineCmd(t *testing.T) {
	fs := project(t)

	out, err := run(t, fs, "define", "/proj/src/p/Main.java", "6:9")
	require.NoError(t, err)
	assert.Equal(t, "/proj/src/p/A.java:2:14\n", out)

	out, err = run(t, fs, "define", "/proj/src/p/Use.java", offsetOf(t, useJava, "a.name", "name"))
	require.NoError(t, err)
	assert.Equal(t, "/proj/src/p/A.java:4\n", out)
}

func TestDocCmd(t *testing.T) {
	fs := project(t)
	pos := offsetOf(t, useJava, "a.name", "name")

	out, err := run(t, fs, "doc", "/proj/src/p/Use.java", pos)
	require.NoError(t, err)
	assert.Equal(t, "The name.\n", out)

	out, err = run(t, fs, "doc", "-f", "raw", "/proj/src/p/Use.java", pos)
	require.NoError(t, err)
	assert.Equal(t, "/** The name. */\n", out)

	out, err = run(t, fs, "doc", "/proj/src/p/Use.java", offsetOf(t, useJava, "String f", "f"))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestImplementCmd(t *testing.T) {
	fs := project(t)
	pos := offsetOf(t, mainJava, "void m", "void")

	out, err := run(t, fs, "implement", "/proj/src/p/Main.java", pos)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "method\trun\tvoid run()\t"), out)

	out, err = run(t, fs, "implement", "-f", "java", "/proj/src/p/Main.java", pos)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "    @Override\n    public void run() {\n    }\n"), out)
}

func TestImportsCmd(t *testing.T) {
	out, err := run(t, project(t), "imports", "/proj/src/p/Use.java")
	require.NoError(t, err)
	assert.Equal(t, "Missing\t/proj/src/p/Use.java:5:2\t\n", out)
}

func TestOutlineCmd(t *testing.T) {
	out, err := run(t, project(t), "outline", "/proj/src/p/A.java")
	require.NoError(t, err)
	assert.Equal(t, "class\tA\tp.A\t2:14\n"+
		"  field\tname\tString\t4:16\n"+
		"  method\tsize\tint size()\t5:13\n", out)
}

func TestIndexCmd(t *testing.T) {
	fs := project(t)

	out, err := run(t, fs, "index")
	require.NoError(t, err)
	m, err := index.Decode([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, 3, m.Len())

	_, err = run(t, fs, "index", "-o", "/proj/index.yaml")
	require.NoError(t, err)
	m, err = index.LoadFile(fs, "/proj/index.yaml")
	require.NoError(t, err)
	assert.Equal(t, 3, m.Len())
}

func TestParseCmd(t *testing.T) {
	fs := project(t)

	out, err := run(t, fs, "parse", "/proj/src/p/A.java")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "CompilationUnit"), out)

	out, err = run(t, fs, "parse", "-f", "json", "/proj/src/p/A.java")
	require.NoError(t, err)
	assert.Contains(t, out, `"kind": "CompilationUnit"`)

	_, err = run(t, fs, "parse", "/proj/.jsuggest.yaml")
	assert.ErrorContains(t, err, "unsupported file extension")
}

func TestParsePosition(t *testing.T) {
	content := []byte("ab\ncd\n")
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"0", 0, false},
		{"4", 4, false},
		{"1:1", 0, false},
		{"2:2", 4, false},
		{"2:99", 6, false},
		{"9:1", 0, true},
		{"x", 0, true},
		{"99", 0, true},
		{"0:1", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parsePosition(content, tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
