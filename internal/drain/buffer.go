// Package drain consumes the stdout and stderr of a child process
// concurrently without blocking the child or dropping lines, and hands the
// lines to a single consumer goroutine.
package drain

import "sync"

// LineBuffer is an ordered list of lines plus a "has unread data" signal.
// Append runs on a reader goroutine, Drain on the consumer.
type LineBuffer struct {
	mu    sync.Mutex
	lines []string
	ready chan struct{}
}

func NewLineBuffer() *LineBuffer {
	return &LineBuffer{ready: make(chan struct{}, 1)}
}

// Append adds a line and raises the signal. It never blocks on the consumer.
func (b *LineBuffer) Append(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = append(b.lines, line)
	select {
	case b.ready <- struct{}{}:
	default:
	}
}

// Ready is signaled when lines were appended since the last Drain.
func (b *LineBuffer) Ready() <-chan struct{} {
	return b.ready
}

// Drain passes every buffered line to fn in order, clears the buffer and
// resets the signal. Appends wait until Drain returns.
func (b *LineBuffer) Drain(fn func(line string)) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := len(b.lines)
	for _, line := range b.lines {
		fn(line)
	}
	b.lines = b.lines[:0]
	select {
	case <-b.ready:
	default:
	}
	return n
}

// Len returns the number of buffered lines.
func (b *LineBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.lines)
}
