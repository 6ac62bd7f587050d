package filetasks

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"buildtasks/internal/envvar"
	"buildtasks/internal/task"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHost(buf *bytes.Buffer) *task.Host {
	log := task.NewLog(slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	return &task.Host{Log: log, Outputs: task.NewOutputs(), Env: envvar.NewPlatformMap()}
}

func TestBinaryTime(t *testing.T) {
	require.Equal(t, "489f7ff5f7b58000", BinaryTime(time.Unix(0, 0)))
	require.Equal(t, "48cd981d7f84ef80", BinaryTime(time.Date(2011, 2, 11, 16, 11, 39, 0, time.UTC)))
	require.Equal(t, "48cd981d7f97c607", BinaryTime(time.Date(2011, 2, 11, 16, 11, 39, 123456789, time.UTC)))

	// only the instant matters, not the location
	paris := time.FixedZone("CET", 3600)
	require.Equal(t, "48cd981d7f84ef80", BinaryTime(time.Date(2011, 2, 11, 17, 11, 39, 0, paris)))
}

func TestFileInfo(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Test.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))
	mtime := time.Date(2020, 5, 17, 8, 30, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(path, mtime, mtime))

	var buf bytes.Buffer
	h := newHost(&buf)
	ok, err := (&FileInfo{Path: path}).Execute(h)
	require.NoError(t, err)
	require.True(t, ok)

	out := h.Outputs.Map()
	assert.Equal(t, "true", out["Exists"])
	assert.Equal(t, "false", out["IsReadOnly"])
	assert.Equal(t, "5", out["Length"])
	assert.Equal(t, "Test.txt", out["Name"])
	assert.Equal(t, path, out["FullName"])
	assert.Equal(t, BinaryTime(mtime), out["Version"])
}

func TestFileInfoReadOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ro.txt")
	require.NoError(t, os.WriteFile(path, nil, 0444))

	attrs, err := (&FileInfo{Path: path}).Inspect()
	require.NoError(t, err)
	require.True(t, attrs.IsReadOnly)
}

func TestFileInfoMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.txt")

	attrs, err := (&FileInfo{Path: path}).Inspect()
	require.NoError(t, err)
	require.Equal(t, FileAttributes{Name: "missing.txt", FullName: path}, attrs)
}

func TestFileInfoRequiresPath(t *testing.T) {
	_, err := (&FileInfo{}).Inspect()
	require.True(t, task.IsKind(err, task.KindParameter))
}

func TestRelative(t *testing.T) {
	base := t.TempDir()
	sep := string(filepath.Separator)

	rel, err := Relative(base, filepath.Join(base, "a", "b.txt"))
	require.NoError(t, err)
	require.Equal(t, "."+sep+"a"+sep+"b.txt", rel)

	rel, err = Relative(filepath.Join(base, "x"), filepath.Join(base, "y", "c.txt"))
	require.NoError(t, err)
	require.Equal(t, ".."+sep+"y"+sep+"c.txt", rel)

	rel, err = Relative(base, base)
	require.NoError(t, err)
	require.Equal(t, ".", rel)
}

func TestRelativePathsTask(t *testing.T) {
	base := t.TempDir()
	var buf bytes.Buffer
	h := newHost(&buf)

	tk := &RelativePaths{Inputs: []string{filepath.Join(base, "one.cs"), filepath.Dir(base)}, BaseDirectory: base}
	ok, err := tk.Execute(h)
	require.NoError(t, err)
	require.True(t, ok)

	got, _ := h.Outputs.List("Outputs")
	require.Equal(t, []string{"." + string(filepath.Separator) + "one.cs", ".."}, got)
}

func TestRelativePathsDefaultsToWorkingDirectory(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)

	var buf bytes.Buffer
	h := newHost(&buf)
	ok, err := (&RelativePaths{Inputs: []string{filepath.Join(wd, "x.txt")}}).Execute(h)
	require.NoError(t, err)
	require.True(t, ok)

	got, _ := h.Outputs.List("Outputs")
	require.Equal(t, []string{"." + string(filepath.Separator) + "x.txt"}, got)
}

func TestShortPath(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	h := newHost(&buf)

	ok, err := (&ShortPath{Input: dir}).Execute(h)
	require.NoError(t, err)
	require.True(t, ok)

	out, _ := h.Outputs.Get("Output")
	require.NotEmpty(t, out)
	if runtime.GOOS != "windows" {
		require.Equal(t, dir, out)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestCopyToFolder(t *testing.T) {
	src := t.TempDir()
	a := filepath.Join(src, "a.txt")
	b := filepath.Join(src, "sub", "b.txt")
	writeFile(t, a, "A")
	writeFile(t, b, "B")
	dest := filepath.Join(t.TempDir(), "out", "deep")

	var buf bytes.Buffer
	h := newHost(&buf)
	ok, err := (&Copy{SourceFiles: []string{a, b}, DestinationFolder: dest}).Execute(h)
	require.NoError(t, err)
	require.True(t, ok)

	for name, want := range map[string]string{"a.txt": "A", "b.txt": "B"} {
		got, err := os.ReadFile(filepath.Join(dest, name))
		require.NoError(t, err)
		require.Equal(t, want, string(got))
	}

	copied, _ := h.Outputs.List("CopiedFiles")
	require.Equal(t, []string{filepath.Join(dest, "a.txt"), filepath.Join(dest, "b.txt")}, copied)

	log := buf.String()
	assert.Equal(t, 1, strings.Count(log, "Creating directory"))
	assert.Contains(t, log, "Copying file from")
}

func TestCopyOverwritesAndKeepsModTime(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")
	writeFile(t, src, "new")
	writeFile(t, dst, "old content")
	mtime := time.Date(2019, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, os.Chtimes(src, mtime, mtime))

	var buf bytes.Buffer
	h := newHost(&buf)
	ok, err := (&Copy{SourceFiles: []string{src}, DestinationFiles: []string{dst}}).Execute(h)
	require.NoError(t, err)
	require.True(t, ok)

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, "new", string(got))

	info, err := os.Stat(dst)
	require.NoError(t, err)
	require.True(t, info.ModTime().Equal(mtime))
}

func TestCopyContinuesAfterFailure(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.txt")
	writeFile(t, good, "ok")
	missing := filepath.Join(dir, "missing.txt")
	dest := filepath.Join(dir, "out")

	var buf bytes.Buffer
	h := newHost(&buf)
	ok, err := (&Copy{SourceFiles: []string{missing, good}, DestinationFolder: dest}).Execute(h)
	require.NoError(t, err)
	require.False(t, ok)
	require.True(t, h.Log.HasLoggedErrors())

	copied, _ := h.Outputs.List("CopiedFiles")
	require.Equal(t, []string{filepath.Join(dest, "good.txt")}, copied)
	destinations, _ := h.Outputs.List("DestinationFiles")
	require.Len(t, destinations, 2)
}

func TestCopyParameters(t *testing.T) {
	var buf bytes.Buffer
	h := newHost(&buf)

	ok, err := (&Copy{}).Execute(h)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = (&Copy{SourceFiles: []string{"a"}}).Execute(h)
	require.True(t, task.IsKind(err, task.KindParameter))

	_, err = (&Copy{SourceFiles: []string{"a", "b"}, DestinationFiles: []string{"c"}}).Execute(h)
	require.True(t, task.IsKind(err, task.KindParameter))

	_, err = (&Copy{SourceFiles: []string{"a"}, DestinationFiles: []string{"c"}, DestinationFolder: "d"}).Execute(h)
	require.True(t, task.IsKind(err, task.KindParameter))
}
