// Package timeutil handles the ISO-8601 timestamps exchanged with the
// location service and the calendar-day bounds used for track requests.
package timeutil

import (
	"math"
	"strings"
	"time"
)

// ISOLayout is the outbound format: UTC with millisecond precision.
const ISOLayout = "2006-01-02T15:04:05.000Z"

var inboundLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// ParseISO parses an ISO-8601 instant. Values without a zone are read as UTC.
func ParseISO(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range inboundLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func FormatISO(t time.Time) string {
	return t.UTC().Format(ISOLayout)
}

// MinutesBetween returns floor((to-from)/60s). A zero from is the distant
// past and a zero to is now.
func MinutesBetween(from, to, now time.Time) int {
	if to.IsZero() {
		to = now
	}
	seconds := to.Sub(from).Seconds()
	return int(math.Floor(seconds / 60))
}

// StartOfDay is midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// EndOfDay is one second before the start of the following calendar day.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	start := StartOfDay(t, loc)
	next := time.Date(start.Year(), start.Month(), start.Day()+1, 0, 0, 0, 0, loc)
	return next.Add(-time.Second)
}

type DateRange struct {
	From time.Time
	To   time.Time
}

// Bounds returns the ISO strings for start-of-day(From) and end-of-day(To).
func (r DateRange) Bounds(loc *time.Location) (string, string) {
	if loc == nil {
		loc = time.Local
	}
	return FormatISO(StartOfDay(r.From, loc)), FormatISO(EndOfDay(r.To, loc))
}
