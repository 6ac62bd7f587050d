package outputlog

import (
	"io"
	"sync"
	"time"
)

// Writer appends records to an io.Writer from a single goroutine, so any
// number of readers may call Record concurrently.
type Writer struct {
	chunks chan Chunk
	done   chan struct{}

	mu     sync.Mutex
	closed bool

	errMu sync.Mutex
	err   error
}

// NewWriter starts the goroutine owning w. Call Close to flush and stop it.
func NewWriter(w io.Writer) *Writer {
	o := &Writer{
		chunks: make(chan Chunk, 100),
		done:   make(chan struct{}),
	}

	go func() {
		defer close(o.done)
		for chunk := range o.chunks {
			if _, err := w.Write(FormatChunk(chunk)); err != nil {
				o.errMu.Lock()
				if o.err == nil {
					o.err = err
				}
				o.errMu.Unlock()
			}
		}
	}()

	return o
}

// Record queues one line of stream. It is a no-op after Close.
func (o *Writer) Record(stream, line string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	o.chunks <- Chunk{
		Stream:    stream,
		Timestamp: time.Now().UTC(),
		Line:      []byte(line),
	}
}

// Close waits for pending records and returns the first write error.
func (o *Writer) Close() error {
	o.mu.Lock()
	if !o.closed {
		o.closed = true
		close(o.chunks)
	}
	o.mu.Unlock()

	<-o.done

	o.errMu.Lock()
	defer o.errMu.Unlock()
	return o.err
}
