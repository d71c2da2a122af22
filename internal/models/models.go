package models

import (
	"time"
)

// BreakStats counts what happened to one kind of break during a day.
type BreakStats struct {
	Prompted     int `json:"prompted"`
	Taken        int `json:"taken"`
	NaturalTaken int `json:"natural_taken"`
	Skipped      int `json:"skipped"`
	Postponed    int `json:"postponed"`
	// Unique counts distinct limit excursions. Repeated preludes for the
	// same excursion count once.
	Unique  int           `json:"unique"`
	Overdue time.Duration `json:"overdue"`
}

// DayStats is the record kept for each day.
type DayStats struct {
	// Day is the start of the day the record belongs to.
	Day        time.Time     `json:"day"`
	Start      time.Time     `json:"start"`
	Stop       time.Time     `json:"stop"`
	ActiveTime time.Duration `json:"active_time"`
	// Breaks is indexed by break id.
	Breaks []BreakStats `json:"breaks"`
}

// Total sums the counters of every break.
func (d *DayStats) Total() BreakStats {
	var t BreakStats

	for _, b := range d.Breaks {
		t.Prompted += b.Prompted
		t.Taken += b.Taken
		t.NaturalTaken += b.NaturalTaken
		t.Skipped += b.Skipped
		t.Postponed += b.Postponed
		t.Unique += b.Unique
		t.Overdue += b.Overdue
	}

	return t
}
