package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ersonp/activity-core/internal/infrastructure/parsers"
)

const dateLayout = "2006-01-02"

// parseTimeFlag accepts RFC 3339, Unix seconds, a calendar date (UTC
// midnight) or a duration meaning that long before now. Empty means zero.
func parseTimeFlag(value string, now time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(dateLayout, value); err == nil {
		return t, nil
	}
	// Bare numbers are Unix seconds, so "0" is the epoch rather than now.
	if t, err := parsers.ParseTimestamp(value); err == nil {
		return t, nil
	}
	d, err := parseAgo(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q (use RFC 3339, YYYY-MM-DD, Unix seconds or a duration like 36h or 7d)", value)
	}
	return now.Add(-d).UTC(), nil
}

// parseAgo parses Go durations plus a whole-day "d" suffix.
func parseAgo(value string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(value, "d"); ok {
		var n int
		if _, err := fmt.Sscanf(days, "%d", &n); err != nil || n < 0 || fmt.Sprint(n) != days {
			return 0, fmt.Errorf("invalid day count %q", value)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", value)
	}
	return d, nil
}

// relativeTime renders t relative to now, e.g. "3 hours ago".
func relativeTime(t, now time.Time) string {
	return humanize.RelTime(t, now, "ago", "from now")
}

// formatStamp renders t as a compact UTC timestamp.
func formatStamp(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05")
}
