package outputlog

import (
	"fmt"
	"regexp"
	"time"
)

// TimestampFormat is the layout of record timestamps.
const TimestampFormat = "2006-01-02T15:04:05.000000000Z"

var streamName = regexp.MustCompile(`^[a-zA-Z0-9_./-]{1,64}$`)

// Chunk is one recorded line.
type Chunk struct {
	Stream    string
	Timestamp time.Time // UTC
	Line      []byte
}

// FormatChunk encodes a chunk as one transcript record.
func FormatChunk(chunk Chunk) []byte {
	timestamp := chunk.Timestamp.UTC().Format(TimestampFormat)
	record := fmt.Appendf(nil, "%s %s %d: ", chunk.Stream, timestamp, len(chunk.Line))
	record = append(record, chunk.Line...)
	return append(record, '\n')
}

// ValidStream reports whether name can be used as a stream name.
func ValidStream(name string) bool {
	return streamName.MatchString(name)
}
