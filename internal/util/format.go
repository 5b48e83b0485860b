// Package util hosts small formatting helpers shared by the command-line front ends.
package util //nolint:revive // package name util hosts shared formatting helpers

import (
	"strings"
	"time"
)

// FormatElapsed formats a job duration for display.
// Zero or negative durations render as "-"; anything over a millisecond is truncated to milliseconds.
func FormatElapsed(d time.Duration) string {
	switch {
	case d <= 0:
		return "-"
	case d < time.Millisecond:
		return d.String()
	default:
		return d.Truncate(time.Millisecond).String()
	}
}

// Ellipsize collapses whitespace runs to single spaces and cuts s to at most limit runes,
// ending with "…" when shortened.
func Ellipsize(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
