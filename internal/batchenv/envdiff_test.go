package batchenv

import (
	"bytes"
	"log/slog"
	"testing"

	"buildtasks/internal/envvar"
	"buildtasks/internal/task"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLog(buf *bytes.Buffer) *task.Log {
	return task.NewLog(slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
}

func TestParseRecord(t *testing.T) {
	rec, ok := ParseRecord(`PATH=C:\a=b;C:\c`)
	require.True(t, ok)
	require.Equal(t, Record{Name: "PATH", Value: `C:\a=b;C:\c`}, rec)

	rec, ok = ParseRecord("EMPTY=")
	require.True(t, ok)
	require.Equal(t, Record{Name: "EMPTY", Value: ""}, rec)

	_, ok = ParseRecord("NOTAVAR")
	require.False(t, ok)

	_, ok = ParseRecord("=C:=C:\\")
	require.False(t, ok)

	_, ok = ParseRecord("")
	require.False(t, ok)
}

func TestApplierCountsOnlyDifferingValues(t *testing.T) {
	env := envvar.FromEnviron(false, []string{"A=1", "B=2", "C=3"})
	var buf bytes.Buffer
	a := NewApplier(env, newLog(&buf), WindowsSdkDir)

	for _, line := range []string{"A=1", "B=20", "C=3", "D=4"} {
		a.Apply(line)
	}

	require.Equal(t, 2, env.Sets())
	require.Equal(t, []Record{{"B", "20"}, {"D", "4"}}, a.Changes())
	assert.Contains(t, buf.String(), `msg="SET B=20"`)
	assert.Contains(t, buf.String(), `msg="SET D=4"`)
	assert.NotContains(t, buf.String(), "SET A=1")
}

func TestApplierIsIdempotent(t *testing.T) {
	env := envvar.NewMap(false)
	dump := []string{"A=1", "B=x=y", "banner text"}

	var buf bytes.Buffer
	first := NewApplier(env, newLog(&buf), "")
	for _, line := range dump {
		first.Apply(line)
	}
	require.Len(t, first.Changes(), 2)

	second := NewApplier(env, newLog(&buf), "")
	for _, line := range dump {
		require.False(t, second.Apply(line))
	}
	require.Empty(t, second.Changes())
	require.Equal(t, 2, env.Sets())
}

func TestApplierIgnoresLinesWithoutEquals(t *testing.T) {
	env := envvar.NewMap(false)
	var buf bytes.Buffer
	a := NewApplier(env, newLog(&buf), "")

	require.False(t, a.Apply("NOTAVAR"))
	require.True(t, a.Apply("X=1"))
	require.Equal(t, 1, env.Sets())
}

func TestApplierLastWriteWins(t *testing.T) {
	env := envvar.NewMap(false)
	var buf bytes.Buffer
	a := NewApplier(env, newLog(&buf), "")

	a.Apply("A=1")
	a.Apply("A=2")

	v, _ := env.Lookup("A")
	require.Equal(t, "2", v)
	require.Equal(t, 2, env.Sets())
}

func TestApplierComparesValuesExactly(t *testing.T) {
	// Names fold like on Windows, values do not
	env := envvar.FromEnviron(true, []string{"Path=c:\\bin"})
	var buf bytes.Buffer
	a := NewApplier(env, newLog(&buf), "")

	require.False(t, a.Apply("PATH=c:\\bin"))
	require.True(t, a.Apply("PATH=C:\\bin"))

	v, _ := env.Lookup("path")
	require.Equal(t, "C:\\bin", v)
}

func TestApplierWatchesWindowsSdkDir(t *testing.T) {
	env := envvar.FromEnviron(true, []string{`WindowsSdkDir=C:\SDK\`})
	var buf bytes.Buffer
	a := NewApplier(env, newLog(&buf), WindowsSdkDir)

	// An unchanged value is not surfaced
	require.False(t, a.Apply(`WINDOWSSDKDIR=C:\SDK\`))
	_, ok := a.Watched()
	require.False(t, ok)

	require.True(t, a.Apply(`WINDOWSSDKDIR=C:\SDK\v7.1\`))
	dir, ok := a.Watched()
	require.True(t, ok)
	require.Equal(t, `C:\SDK\v7.1\`, dir)
}

type failingEnv struct{ envvar.Environment }

func (failingEnv) Set(name, value string) error { return assert.AnError }

func TestApplierSetFailureIsNotFatal(t *testing.T) {
	var buf bytes.Buffer
	a := NewApplier(failingEnv{envvar.NewMap(false)}, newLog(&buf), "")

	require.False(t, a.Apply("A=1"))
	require.Empty(t, a.Changes())
	require.Contains(t, buf.String(), "level=WARN")
	require.NotContains(t, buf.String(), "SET A=1")
}

func TestApplierDoesNotWatchFailedSet(t *testing.T) {
	var buf bytes.Buffer
	a := NewApplier(failingEnv{envvar.NewMap(false)}, newLog(&buf), WindowsSdkDir)

	require.False(t, a.Apply(`WindowsSdkDir=C:\SDK\`))
	_, ok := a.Watched()
	require.False(t, ok)
}
