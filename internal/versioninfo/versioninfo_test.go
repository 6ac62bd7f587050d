package versioninfo

import (
	"bytes"
	"log/slog"
	"testing"

	"buildtasks/internal/envvar"
	"buildtasks/internal/task"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Version
	}{
		{"1.0", Version{1, 0, -1, -1}},
		{"1.2.3", Version{1, 2, 3, -1}},
		{"10.20.30.40", Version{10, 20, 30, 40}},
		{" 4 . 5 ", Version{4, 5, -1, -1}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParseInvalid(t *testing.T) {
	for _, in := range []string{"", "1", "1.2.3.4.5", "1..2", "a.b", "1.-2", "1.+2", "1.99999999999"} {
		_, err := Parse(in)
		require.Error(t, err, in)
	}
}

func TestVersionString(t *testing.T) {
	require.Equal(t, "1.2", Version{1, 2, -1, -1}.String())
	require.Equal(t, "1.2.3.4", Version{1, 2, 3, 4}.String())
}

func newHost(buf *bytes.Buffer) *task.Host {
	log := task.NewLog(slog.New(slog.NewTextHandler(buf, nil)))
	return &task.Host{Log: log, Outputs: task.NewOutputs(), Env: envvar.NewPlatformMap()}
}

func TestTask(t *testing.T) {
	var buf bytes.Buffer
	h := newHost(&buf)

	ok, err := (&Task{Version: "2.5.1"}).Execute(h)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, map[string]any{"Major": "2", "Minor": "5", "Build": "1", "Revision": "-1"}, h.Outputs.Map())
}

func TestTaskInvalidVersion(t *testing.T) {
	var buf bytes.Buffer
	h := newHost(&buf)

	ok, err := (&Task{Version: "one.two"}).Execute(h)
	require.NoError(t, err)
	require.False(t, ok)
	require.True(t, h.Log.HasLoggedErrors())
	require.Contains(t, buf.String(), "level=ERROR")

	_, err = (&Task{}).Execute(h)
	require.True(t, task.IsKind(err, task.KindParameter))
}
