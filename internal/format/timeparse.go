package format

import (
	"strings"
	"time"
)

type layout struct {
	pattern string
	// utc marks date-only forms, which denote UTC midnight rather than local midnight.
	utc bool
}

var timeLayouts = []layout{
	{pattern: time.RFC3339Nano},
	{pattern: time.RFC3339},
	{pattern: "2006-01-02T15:04:05.999999999"},
	{pattern: "2006-01-02 15:04:05.999999999"},
	{pattern: "2006-01-02T15:04:05"},
	{pattern: "2006-01-02 15:04:05"},
	{pattern: "2006-01-02T15:04"},
	{pattern: "2006-01-02 15:04"},
	{pattern: "2006-01-02", utc: true},
	{pattern: "2006/01/02"},
	{pattern: "2006/01/02 15:04:05"},
	{pattern: "01/02/2006"},
	{pattern: "1/2/2006"},
	{pattern: "01/02/2006 15:04:05"},
	{pattern: "1/2/2006 15:04:05"},
}

// ParseTime interprets s as a timestamp. Values without an explicit offset are
// read in the formatter's zone, except ISO date-only values which are UTC.
func (f Formatter) ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, l := range timeLayouts {
		loc := f.location()
		if l.utc {
			loc = time.UTC
		}
		if t, err := time.ParseInLocation(l.pattern, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DateLabel renders s as a short date, or returns s unchanged when it is not a timestamp.
func (f Formatter) DateLabel(s string) string {
	t, ok := f.ParseTime(s)
	if !ok {
		return s
	}
	return f.Date(t)
}

// DateTimeText renders s as a full timestamp, or returns s unchanged when it is not a timestamp.
func (f Formatter) DateTimeText(s string) string {
	t, ok := f.ParseTime(s)
	if !ok {
		return s
	}
	return f.DateTime(t)
}
