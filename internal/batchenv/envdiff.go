package batchenv

import (
	"strings"

	"buildtasks/internal/envvar"
	"buildtasks/internal/task"
)

// WindowsSdkDir is surfaced as a task output when the script changes it.
const WindowsSdkDir = "WindowsSdkDir"

// Record is one NAME=VALUE line of an environment dump.
type Record struct {
	Name  string
	Value string
}

func (r Record) String() string {
	return r.Name + "=" + r.Value
}

// ParseRecord splits line on its first '='. The value keeps any further
// '=' characters. Lines without '=' or with an empty name are not records.
func ParseRecord(line string) (Record, bool) {
	name, value, ok := strings.Cut(line, "=")
	if !ok || name == "" {
		return Record{}, false
	}
	return Record{Name: name, Value: value}, true
}

// Applier merges environment dump lines into an Environment.
//
// Names are looked up with the Environment's own name semantics while values
// are compared exactly, so a case-only change of a value is still applied.
type Applier struct {
	env     envvar.Environment
	log     *task.Log
	watch   string
	watched string
	seen    bool
	changes []Record
}

// NewApplier returns an applier that also remembers the value applied to
// the variable named watch (compared case-insensitively).
func NewApplier(env envvar.Environment, log *task.Log, watch string) *Applier {
	return &Applier{env: env, log: log, watch: watch}
}

// Apply handles one line of the dump and reports whether the environment
// was changed. Later lines for the same name overwrite earlier ones.
func (a *Applier) Apply(line string) bool {
	rec, ok := ParseRecord(line)
	if !ok {
		return false
	}

	if current, ok := a.env.Lookup(rec.Name); ok && current == rec.Value {
		return false
	}

	if err := a.env.Set(rec.Name, rec.Value); err != nil {
		a.log.Warning("failed to set %s: %v", rec.Name, err)
		return false
	}
	a.log.Message(task.ImportanceLow, "SET %s", rec)
	a.changes = append(a.changes, rec)

	if a.watch != "" && strings.EqualFold(rec.Name, a.watch) {
		a.watched = rec.Value
		a.seen = true
	}
	return true
}

// Changes returns the records applied so far, in order.
func (a *Applier) Changes() []Record {
	return append([]Record(nil), a.changes...)
}

// Watched returns the last value applied to the watched variable.
func (a *Applier) Watched() (string, bool) {
	return a.watched, a.seen
}
