package outputlog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"
)

// ReadAll parses every record of a transcript.
func ReadAll(r io.Reader) ([]Chunk, error) {
	br := bufio.NewReader(r)
	var chunks []Chunk
	for {
		chunk, err := readChunk(br)
		if errors.Is(err, io.EOF) {
			return chunks, nil
		}
		if err != nil {
			return chunks, fmt.Errorf("record %d: %w", len(chunks)+1, err)
		}
		chunks = append(chunks, chunk)
	}
}

// Lines returns the recorded lines of one stream.
func Lines(chunks []Chunk, stream string) []string {
	var lines []string
	for _, c := range chunks {
		if c.Stream == stream {
			lines = append(lines, string(c.Line))
		}
	}
	return lines
}

func readChunk(br *bufio.Reader) (Chunk, error) {
	var chunk Chunk

	stream, err := br.ReadString(' ')
	if err != nil {
		if errors.Is(err, io.EOF) && stream == "" {
			return chunk, io.EOF
		}
		return chunk, fmt.Errorf("reading stream: %w", io.ErrUnexpectedEOF)
	}
	chunk.Stream = stream[:len(stream)-1]
	if !ValidStream(chunk.Stream) {
		return chunk, fmt.Errorf("invalid stream name %q", chunk.Stream)
	}

	ts, err := br.ReadString(' ')
	if err != nil {
		return chunk, fmt.Errorf("reading timestamp: %w", io.ErrUnexpectedEOF)
	}
	chunk.Timestamp, err = time.Parse(TimestampFormat, ts[:len(ts)-1])
	if err != nil {
		return chunk, fmt.Errorf("parsing timestamp: %w", err)
	}

	lengthStr, err := br.ReadString(':')
	if err != nil {
		return chunk, fmt.Errorf("reading length: %w", io.ErrUnexpectedEOF)
	}
	length, err := strconv.Atoi(lengthStr[:len(lengthStr)-1])
	if err != nil || length < 0 {
		return chunk, fmt.Errorf("parsing length %q", lengthStr[:len(lengthStr)-1])
	}

	if b, err := br.ReadByte(); err != nil || b != ' ' {
		return chunk, fmt.Errorf("expected space after length")
	}

	chunk.Line = make([]byte, length)
	if _, err := io.ReadFull(br, chunk.Line); err != nil {
		return chunk, fmt.Errorf("reading content (%d bytes): %w", length, err)
	}

	if b, err := br.ReadByte(); err != nil || b != '\n' {
		return chunk, fmt.Errorf("expected newline after content")
	}

	return chunk, nil
}
