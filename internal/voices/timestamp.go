package voices

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// InstantLayout is the canonical textual form of a timestamp: UTC with
// millisecond precision and a literal Z suffix.
const InstantLayout = "2006-01-02T15:04:05.000Z"

var ErrInvalidTimestamp = errors.New("invalid timestamp")

var parseLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseInstant parses an ISO-8601 timestamp. Values without a zone are
// taken as UTC.
func ParseInstant(s string) (time.Time, error) {
	for _, layout := range parseLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
}

// FormatInstant renders t in the canonical form.
func FormatInstant(t time.Time) string {
	return t.UTC().Format(InstantLayout)
}

// FromEpochMillis converts a legacy epoch-millisecond value.
func FromEpochMillis(ms int64) string {
	return FormatInstant(time.UnixMilli(ms))
}

// NormalizeTimestamp turns a stored timestamp into its ISO-8601 string.
// Strings are validated and returned as-is so that already-canonical
// values stay textually identical; numbers are epoch milliseconds.
func NormalizeTimestamp(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", fmt.Errorf("%w: missing", ErrInvalidTimestamp)
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidTimestamp, err)
		}
		if _, err := ParseInstant(s); err != nil {
			return "", err
		}
		return s, nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidTimestamp, err)
	}
	if ms, err := n.Int64(); err == nil {
		return FromEpochMillis(ms), nil
	}
	f, err := n.Float64()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidTimestamp, err)
	}
	return FromEpochMillis(int64(f)), nil
}

// Earlier returns the chronologically earlier of keep and other. keep wins
// on ties and whenever either value cannot be parsed.
func Earlier(keep, other string) string {
	k, o, ok := parsePair(keep, other)
	if ok && o.Before(k) {
		return other
	}
	return keep
}

// Later returns the chronologically later of keep and other, keeping keep
// on ties and parse failures.
func Later(keep, other string) string {
	k, o, ok := parsePair(keep, other)
	if ok && o.After(k) {
		return other
	}
	return keep
}

func parsePair(a, b string) (time.Time, time.Time, bool) {
	ta, err := ParseInstant(a)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	tb, err := ParseInstant(b)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return ta, tb, true
}
