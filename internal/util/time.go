package util

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ParseTimeFlexible accepts the date formats dateparse knows (ISO 8601, SQL
// style, RFC 1123 and friends) and integer epoch milliseconds. Inputs without
// a zone are read as UTC and results are in UTC.
func ParseTimeFlexible(timeStr string) (time.Time, error) {
	s := strings.TrimSpace(timeStr)
	if s == "" {
		return time.Time{}, fmt.Errorf("invalid time format: %q", timeStr)
	}

	// Integers are always epoch milliseconds, whatever their length.
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}

	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time format: %s: %w", timeStr, err)
	}
	return t.UTC(), nil
}

// ParseTimeOrEpoch is ParseTimeFlexible with unparsable input mapped to the
// Unix epoch.
func ParseTimeOrEpoch(timeStr string) time.Time {
	t, err := ParseTimeFlexible(timeStr)
	if err != nil {
		return time.Unix(0, 0).UTC()
	}
	return t
}
