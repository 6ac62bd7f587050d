package outputlog

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFormatChunk(t *testing.T) {
	ts := time.Date(2025, 1, 7, 12, 34, 56, 789000000, time.UTC)
	got := FormatChunk(Chunk{Stream: "stdout", Timestamp: ts, Line: []byte("PATH=C:\\bin")})
	require.Equal(t, "stdout 2025-01-07T12:34:56.789000000Z 11: PATH=C:\\bin\n", string(got))
}

func TestWriterRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.Record("stdout", "A=1")
	w.Record("stderr", "oops")
	w.Record("stdout", "multi\nline")
	require.NoError(t, w.Close())

	// Record after Close is dropped
	w.Record("stdout", "late")

	chunks, err := ReadAll(&buf)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	require.Equal(t, []string{"A=1", "multi\nline"}, Lines(chunks, "stdout"))
	require.Equal(t, []string{"oops"}, Lines(chunks, "stderr"))
}

func TestWriterConcurrentRecord(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	var wg sync.WaitGroup
	for _, stream := range []string{"stdout", "stderr"} {
		wg.Add(1)
		go func(stream string) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				w.Record(stream, "line")
			}
		}(stream)
	}
	wg.Wait()
	require.NoError(t, w.Close())

	chunks, err := ReadAll(&buf)
	require.NoError(t, err)
	require.Len(t, chunks, 1000)
}

func TestReadAllRejectsTruncatedRecord(t *testing.T) {
	_, err := ReadAll(strings.NewReader("stdout 2025-01-07T12:34:56.789000000Z 10: short\n"))
	require.Error(t, err)

	_, err = ReadAll(strings.NewReader("std out 2025-01-07T12:34:56.789000000Z 1: x\n"))
	require.Error(t, err)
}

func TestValidStream(t *testing.T) {
	require.True(t, ValidStream("stdout"))
	require.False(t, ValidStream(""))
	require.False(t, ValidStream("a b"))
}
