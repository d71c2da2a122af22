// Package stats counts break events and active time for each day and
// reports on the days kept in the store.
package stats

import (
	"log/slog"
	"slices"
	"time"

	"github.com/ayoisaiah/respite/breaks"
	"github.com/ayoisaiah/respite/internal/models"
	"github.com/ayoisaiah/respite/internal/timeutil"
)

// Store is the part of the database the recorder writes to.
type Store interface {
	UpdateDay(d *models.DayStats) error
	GetDay(t time.Time) (*models.DayStats, error)
}

// Recorder accumulates the statistics of the current day.
type Recorder struct {
	db  Store
	log *slog.Logger

	day       models.DayStats
	prompting [breaks.Count]bool
	dirty     bool
}

// NewRecorder continues the stored record for the day of now, if any.
func NewRecorder(db Store, now time.Time, log *slog.Logger) *Recorder {
	r := &Recorder{
		db:  db,
		log: log,
		day: newDay(now),
	}

	stored, err := db.GetDay(now)
	if err != nil {
		log.Warn("loading today's statistics failed", slog.Any("error", err))
	}

	if stored != nil {
		r.day = *stored

		for len(r.day.Breaks) < breaks.Count {
			r.day.Breaks = append(r.day.Breaks, models.BreakStats{})
		}
	}

	return r
}

func newDay(now time.Time) models.DayStats {
	return models.DayStats{
		Day:    timeutil.RoundToStart(now),
		Start:  now,
		Stop:   now,
		Breaks: make([]models.BreakStats, breaks.Count),
	}
}

// BreakEvent counts ev for break id.
func (r *Recorder) BreakEvent(id breaks.ID, ev breaks.Event) {
	if !id.Valid() {
		return
	}

	b := &r.day.Breaks[id]

	switch ev {
	case breaks.EventPrompted:
		b.Prompted++

		if !r.prompting[id] {
			b.Unique++
			r.prompting[id] = true
		}
	case breaks.EventTaken:
		b.Taken++
		r.prompting[id] = false
	case breaks.EventNaturalTaken:
		b.NaturalTaken++
		r.prompting[id] = false
	case breaks.EventSkipped:
		b.Skipped++
		r.prompting[id] = false
	case breaks.EventPostponed:
		b.Postponed++
	}

	r.dirty = true
}

func (r *Recorder) BreakStateChanged(breaks.ID, breaks.State) {}

// SetActiveTime records the time the user was active today.
func (r *Recorder) SetActiveTime(d time.Duration) {
	if d < 0 || r.day.ActiveTime == d {
		return
	}

	r.day.ActiveTime = d
	r.dirty = true
}

// SetOverdue records the overdue time accumulated by the timer of id.
func (r *Recorder) SetOverdue(id breaks.ID, d time.Duration) {
	if !id.Valid() || r.day.Breaks[id].Overdue == d {
		return
	}

	r.day.Breaks[id].Overdue = d
	r.dirty = true
}

// Flush writes the current day if anything changed since the last write.
func (r *Recorder) Flush(now time.Time) error {
	if !r.dirty {
		return nil
	}

	r.day.Stop = now

	if err := r.db.UpdateDay(&r.day); err != nil {
		return err
	}

	r.dirty = false

	return nil
}

// StartNewDay closes the current record and begins a new one at now. Records
// are kept per calendar date, so a second start on the same date continues
// the current record.
func (r *Recorder) StartNewDay(now time.Time) error {
	r.dirty = true
	err := r.Flush(now)

	if timeutil.RoundToStart(now).Equal(r.day.Day) {
		return err
	}

	r.log.Info("starting new statistics day", slog.Time("day", timeutil.RoundToStart(now)))

	r.day = newDay(now)
	r.prompting = [breaks.Count]bool{}

	return err
}

// Today returns a copy of the current record.
func (r *Recorder) Today() models.DayStats {
	d := r.day
	d.Breaks = slices.Clone(r.day.Breaks)

	return d
}
