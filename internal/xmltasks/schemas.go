// Package xmltasks checks XML schema files before they are used by the
// build.
package xmltasks

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"buildtasks/internal/codepage"
	"buildtasks/internal/task"

	"golang.org/x/text/transform"
)

// SchemasValidateTaskName is the name of the schema validation task.
const SchemasValidateTaskName = "xml-schemas-validate"

// libxml2 prefixes its messages with "file:line:"
var messageLineRegex = regexp.MustCompile(`:(\d+):`)

// SchemasValidate reads and compiles XML schema (XSD) files. Every problem
// is logged with its location and fails the task.
type SchemasValidate struct {
	Schemas []string `yaml:"schemas" validate:"required"`
}

func (t *SchemasValidate) Name() string { return SchemasValidateTaskName }

func (t *SchemasValidate) Execute(h *task.Host) (bool, error) {
	if err := task.ValidateParameters(SchemasValidateTaskName, t); err != nil {
		return false, err
	}

	ok := true
	for _, schema := range t.Schemas {
		path, err := filepath.Abs(schema)
		if err != nil {
			path = schema
		}
		if ev, failed := checkWellFormed(path); failed {
			h.Log.ErrorCode(ev)
			ok = false
			continue
		}
		if err := compileSchema(path); err != nil {
			h.Log.ErrorCode(compileEvent(path, err))
			ok = false
			continue
		}
		h.Log.Message(task.ImportanceLow, "Schema \"%s\" is valid.", path)
	}
	return ok, nil
}

// checkWellFormed reads path as XML and reports the first syntax error.
func checkWellFormed(path string) (task.Event, bool) {
	f, err := os.Open(path)
	if err != nil {
		return task.Event{File: path, Message: fmt.Sprintf("failed to read schema: %v", err)}, true
	}
	defer f.Close()

	dec := xml.NewDecoder(f)
	dec.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
		enc, err := codepage.Lookup(label)
		if err != nil {
			return nil, err
		}
		if enc == nil {
			return input, nil
		}
		return transform.NewReader(input, enc.NewDecoder()), nil
	}

	for {
		_, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return task.Event{}, false
		}
		if err == nil {
			continue
		}
		ev := task.Event{File: path, Message: err.Error()}
		var syntax *xml.SyntaxError
		if errors.As(err, &syntax) {
			ev.Message = syntax.Msg
			ev.Line = syntax.Line
			_, ev.Column = dec.InputPos()
		}
		return ev, true
	}
}

func compileEvent(path string, err error) task.Event {
	ev := task.Event{File: path, Message: err.Error()}
	if m := messageLineRegex.FindStringSubmatch(ev.Message); m != nil {
		ev.Line, _ = strconv.Atoi(m[1])
	}
	return ev
}
