// Package timeutil provides utility functions and types for working with
// time-related operations.
package timeutil

import (
	"fmt"
	"time"
)

const dayLayout = "2006-01-02"

type Period string

const (
	PeriodAllTime   Period = "all-time"
	PeriodToday     Period = "today"
	PeriodYesterday Period = "yesterday"
	Period7Days     Period = "7days"
	Period14Days    Period = "14days"
	Period30Days    Period = "30days"
	Period90Days    Period = "90days"
	Period365Days   Period = "365days"
)

// Range is the day offset from today at which each period starts.
var Range = map[Period]int{
	PeriodAllTime:   0,
	PeriodToday:     0,
	PeriodYesterday: -1,
	Period7Days:     -6,
	Period14Days:    -13,
	Period30Days:    -29,
	Period90Days:    -89,
	Period365Days:   -364,
}

var PeriodCollection = []Period{
	PeriodAllTime,
	PeriodToday,
	PeriodYesterday,
	Period7Days,
	Period14Days,
	Period30Days,
	Period90Days,
	Period365Days,
}

// PeriodBounds returns the first and last day covered by p relative to now.
// The all-time period starts at the zero time.
func PeriodBounds(p Period, now time.Time) (since, until time.Time, err error) {
	offset, ok := Range[p]
	if !ok {
		return since, until, fmt.Errorf("unknown period %q", p)
	}

	until = RoundToEnd(now)

	switch p {
	case PeriodAllTime:
		return time.Time{}, until, nil
	case PeriodYesterday:
		until = RoundToEnd(now.AddDate(0, 0, -1))
	}

	return RoundToStart(now.AddDate(0, 0, offset)), until, nil
}

// RoundToStart resets the given time to the start of the day.
func RoundToStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// RoundToEnd resets the given time to the end of the day.
func RoundToEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

// DayKey converts a time value to the database key of its day. Keys sort in
// date order.
func DayKey(t time.Time) []byte {
	return []byte(t.Format(dayLayout))
}

// FormatDuration renders d as hours and minutes, or minutes and seconds when
// it is shorter than an hour.
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)

	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)

	if h > 0 {
		return fmt.Sprintf("%dh %02dm", h, m)
	}

	return fmt.Sprintf("%dm %02ds", m, s)
}
