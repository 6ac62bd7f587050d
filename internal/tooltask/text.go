package tooltask

import (
	"regexp"
	"strconv"
	"strings"

	"buildtasks/internal/task"
)

// canonicalRegex matches the "origin(line,col): subcategory error CODE: text"
// diagnostics compilers and build tools print.
var canonicalRegex = regexp.MustCompile(
	`^\s*(?:(?P<origin>.*?)(?:\((?P<location>\d+(?:,\d+)*)\))?\s*:\s*)?` +
		`(?:(?P<subcategory>[^:]*?)\s+)?(?i:(?P<category>error|warning))` +
		`(?:\s+(?P<code>[^\s:]+))?\s*:\s*(?P<text>.*)$`)

// Canonical is a parsed diagnostic line.
type Canonical struct {
	Warning bool
	Event   task.Event
}

// ParseCanonical recognizes a line in the canonical diagnostic format.
func ParseCanonical(line string) (Canonical, bool) {
	m := canonicalRegex.FindStringSubmatch(line)
	if m == nil {
		return Canonical{}, false
	}
	group := func(name string) string {
		return m[canonicalRegex.SubexpIndex(name)]
	}

	c := Canonical{
		Warning: strings.EqualFold(group("category"), "warning"),
		Event: task.Event{
			Subcategory: strings.TrimSpace(group("subcategory")),
			Code:        group("code"),
			File:        strings.TrimSpace(group("origin")),
			Message:     strings.TrimSpace(group("text")),
		},
	}
	if loc := group("location"); loc != "" {
		parts := strings.Split(loc, ",")
		c.Event.Line, _ = strconv.Atoi(parts[0])
		if len(parts) > 1 {
			c.Event.Column, _ = strconv.Atoi(parts[1])
		}
	}
	return c, true
}

// LogMessageFromText logs a line of tool output. Canonical errors and
// warnings become error and warning records, anything else a message of
// the given importance.
func LogMessageFromText(log *task.Log, line string, importance task.Importance) {
	if c, ok := ParseCanonical(line); ok {
		if c.Warning {
			log.WarningCode(c.Event)
		} else {
			log.ErrorCode(c.Event)
		}
		return
	}
	log.Message(importance, "%s", line)
}
