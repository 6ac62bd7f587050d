// Package outputlog records the lines a child process writes to its output
// streams in one transcript file.
//
// # Format
//
// Each record is
//
//	stream timestamp length: content\n
//
//   - stream: the stream name, stdout or stderr. Matches [a-zA-Z0-9_./-]{1,64}.
//   - timestamp: UTC, 2006-01-02T15:04:05.000000000Z
//   - length: byte length of content
//   - content: exactly length bytes, without the line terminator the child wrote
//
// The trailing \n always follows content, so a record can be read back by
// length even when content contains newlines.
//
// # Example
//
//	stdout 2025-01-07T12:34:56.789000000Z 11: PATH=C:\bin
//	stderr 2025-01-07T12:34:56.790000000Z 13: access denied
package outputlog
