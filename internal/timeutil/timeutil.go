package timeutil

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Canonical is the storage format for all timestamps, always UTC.
const Canonical = "2006-01-02 15:04:05"

// Display is the minute-precision format returned to API clients.
const Display = "2006-01-02 15:04"

// acceptedLayouts are the formats callers may submit. Stored values and
// rqlite responses also round-trip through these.
var acceptedLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	Canonical,
	Display,
	"2006-01-02",
}

// Parse accepts any of the tolerated timestamp layouts and returns the
// time in UTC.
func Parse(value string) (time.Time, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	for _, layout := range acceptedLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.Errorf("unrecognized timestamp format: %q", v)
}

// Format renders a time in the canonical storage format.
func Format(t time.Time) string {
	return t.UTC().Format(Canonical)
}

// FormatDisplay renders a time truncated to minute precision.
func FormatDisplay(t time.Time) string {
	return t.UTC().Format(Display)
}

// Normalize re-renders an already-stored timestamp string in canonical
// form so both sides of a SQL comparison see the same shape. Values that
// do not parse are returned unchanged.
func Normalize(value string) string {
	t, err := Parse(value)
	if err != nil {
		return value
	}
	return Format(t)
}

// TruncateDisplay shortens a stored timestamp string to minute precision
// for API responses. Empty and unparseable values pass through.
func TruncateDisplay(value string) string {
	if value == "" {
		return value
	}
	t, err := Parse(value)
	if err != nil {
		return value
	}
	return FormatDisplay(t)
}
