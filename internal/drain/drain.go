package drain

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// Stream names as passed to a Recorder.
const (
	StreamStdout = "stdout"
	StreamStderr = "stderr"
)

const (
	initialLineBytes = 64 * 1024
	// DefaultMaxLineBytes bounds a single line; longer lines are a read error.
	DefaultMaxLineBytes = 8 * 1024 * 1024
)

// State is the lifecycle of a Session.
type State int32

const (
	StateNotStarted State = iota
	StateRunning
	StateDrainingFinal
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not-started"
	case StateRunning:
		return "running"
	case StateDrainingFinal:
		return "draining-final"
	case StateCompleted:
		return "completed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Recorder receives a copy of every line read, on the reader goroutine.
type Recorder interface {
	Record(stream, line string)
}

// Options controls how the child's output is read.
type Options struct {
	// Encoding decodes both streams. Nil reads them as UTF-8.
	Encoding encoding.Encoding
	// MaxLineBytes defaults to DefaultMaxLineBytes.
	MaxLineBytes int
	// Recorder is optional.
	Recorder Recorder
}

// Handlers consume drained lines on the goroutine calling Wait.
type Handlers struct {
	Stdout func(line string)
	Stderr func(line string)
}

// ExitOutcome is produced once, when the child has terminated.
type ExitOutcome struct {
	ExitCode int
	Success  bool
}

// Session is one running child process with both output streams drained.
type Session struct {
	cmd    *exec.Cmd
	opts   Options
	stdout *LineBuffer
	stderr *LineBuffer
	exited chan struct{}
	state  atomic.Int32

	mu       sync.Mutex
	readErrs []error
	waitErr  error
}

// Start redirects the streams of cmd, starts it and closes its standard
// input right away. cmd must not have Stdin, Stdout or Stderr set.
func Start(cmd *exec.Cmd, opts Options) (*Session, error) {
	if opts.MaxLineBytes <= 0 {
		opts.MaxLineBytes = DefaultMaxLineBytes
	}

	s := &Session{
		cmd:    cmd,
		opts:   opts,
		stdout: NewLineBuffer(),
		stderr: NewLineBuffer(),
		exited: make(chan struct{}),
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", cmd.Path, err)
	}
	s.state.Store(int32(StateRunning))

	// No input is ever sent
	_ = stdin.Close()

	var readers sync.WaitGroup
	readers.Add(2)
	go s.readLines(stdoutPipe, StreamStdout, s.stdout, &readers)
	go s.readLines(stderrPipe, StreamStderr, s.stderr, &readers)

	// cmd.Wait closes the pipes, so it must run after both readers hit EOF
	go func() {
		readers.Wait()
		err := cmd.Wait()
		s.mu.Lock()
		s.waitErr = err
		s.mu.Unlock()
		close(s.exited)
	}()

	return s, nil
}

func (s *Session) readLines(r io.Reader, stream string, buf *LineBuffer, done *sync.WaitGroup) {
	defer done.Done()

	if s.opts.Encoding != nil {
		r = transform.NewReader(r, s.opts.Encoding.NewDecoder())
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, min(initialLineBytes, s.opts.MaxLineBytes)), s.opts.MaxLineBytes)
	for scanner.Scan() {
		line := scanner.Text()
		if s.opts.Recorder != nil {
			s.opts.Recorder.Record(stream, line)
		}
		buf.Append(line)
	}

	if err := scanner.Err(); err != nil {
		s.mu.Lock()
		s.readErrs = append(s.readErrs, fmt.Errorf("failed to read %s: %w", stream, err))
		s.mu.Unlock()
		// Keep the pipe empty so the child can still run to completion
		_, _ = io.Copy(io.Discard, r)
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Wait runs the coordinating loop until the child has exited and every line
// of both streams has been handed to h. Lines of one stream arrive in the
// order the child wrote them. On exit, stderr is drained before stdout.
//
// A non-zero exit code is reported through ExitOutcome only. The returned
// error is set when reading a stream or waiting for the child failed.
func (s *Session) Wait(h Handlers) (ExitOutcome, error) {
	onStdout := h.Stdout
	if onStdout == nil {
		onStdout = func(string) {}
	}
	onStderr := h.Stderr
	if onStderr == nil {
		onStderr = func(string) {}
	}

	for {
		// Once the child is gone, everything left belongs to the final pass
		select {
		case <-s.exited:
			return s.finish(onStdout, onStderr)
		default:
		}

		select {
		case <-s.stdout.Ready():
			s.stdout.Drain(onStdout)
		case <-s.stderr.Ready():
			s.stderr.Drain(onStderr)
		case <-s.exited:
			return s.finish(onStdout, onStderr)
		}
	}
}

func (s *Session) finish(onStdout, onStderr func(string)) (ExitOutcome, error) {
	s.state.Store(int32(StateDrainingFinal))
	s.stderr.Drain(onStderr)
	s.stdout.Drain(onStdout)
	s.state.Store(int32(StateCompleted))
	return s.outcome()
}

func (s *Session) outcome() (ExitOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := ExitOutcome{ExitCode: -1}
	if s.cmd.ProcessState != nil {
		out.ExitCode = s.cmd.ProcessState.ExitCode()
	}

	errs := append([]error(nil), s.readErrs...)
	var exitErr *exec.ExitError
	if s.waitErr != nil && !errors.As(s.waitErr, &exitErr) {
		errs = append(errs, fmt.Errorf("failed to wait for %s: %w", s.cmd.Path, s.waitErr))
	}

	if len(errs) > 0 {
		return out, errors.Join(errs...)
	}
	out.Success = out.ExitCode == 0
	return out, nil
}
