package timeutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseError reports a clock string that is not of the form "HH:MM".
type ParseError struct {
	Input string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid time string %q: expected HH:MM", e.Input)
}

// TimeStringToMinutes converts a clock-face string such as "08:30" into minutes since midnight.
func TimeStringToMinutes(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, &ParseError{Input: s}
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, &ParseError{Input: s}
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, &ParseError{Input: s}
	}
	return hour*60 + minute, nil
}

// MinutesToTimeString is the inverse of TimeStringToMinutes for values in [0, 1440].
func MinutesToTimeString(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last representable instant of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// AtHour returns hour:00 on t's calendar day, in t's location.
func AtHour(t time.Time, hour int) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, hour, 0, 0, 0, t.Location())
}

func TruncateToHour(t time.Time) time.Time {
	return AtHour(t, t.Hour())
}

func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
