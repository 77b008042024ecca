package core

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// Fallback layouts for provider date headers that net/mail rejects.
var emailDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 -0700",
	time.RFC3339,
}

// ParseEmailDate parses an RFC-2822-like provider date header and
// normalizes it to UTC. Mail headers occasionally carry a future year
// (an upstream provider quirk); such dates are rolled back one year so a
// stale case cannot masquerade as freshly contacted.
func ParseEmailDate(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, &ParseError{Input: raw, Err: fmt.Errorf("empty date")}
	}

	t, err := mail.ParseDate(raw)
	if err != nil {
		for _, layout := range emailDateLayouts {
			if parsed, lerr := time.Parse(layout, raw); lerr == nil {
				t = parsed
				err = nil
				break
			}
		}
	}
	if err != nil {
		return time.Time{}, &ParseError{Input: raw, Err: err}
	}

	t = t.UTC()
	if t.After(now.UTC()) {
		t = t.AddDate(-1, 0, 0)
	}
	return t, nil
}

// ParseISO parses an ISO-8601 timestamp, accepting both offset-aware and
// naive forms. Naive timestamps are taken as UTC; every caller compares
// in UTC, so naive and aware values never mix.
func ParseISO(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, &ParseError{Input: raw, Err: fmt.Errorf("empty timestamp")}
	}
	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05.999999",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, &ParseError{Input: raw, Err: fmt.Errorf("unrecognized layout")}
}

// Date layouts the roster spreadsheet has been observed to use for DOI.
var doiLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"01-02-2006",
	"01/02/06",
	"2006/01/02",
	"02-01-2006",
	"2006-01-02 15:04:05",
}

// ParseDOI parses a date-of-injury spreadsheet value. Returns false for
// empty, "NONE", or unrecognized values.
func ParseDOI(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "none") {
		return time.Time{}, false
	}
	for _, layout := range doiLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// DaysBetween returns whole days from earlier to later, clamped at zero.
func DaysBetween(earlier, later time.Time) int {
	days := int(later.UTC().Sub(earlier.UTC()).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
