package core

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/ayoisaiah/respite/breaks"
	"github.com/ayoisaiah/respite/internal/pathutil"
	"github.com/ayoisaiah/respite/snapshot"
)

// BreakStatus describes one break in the status file.
type BreakStatus struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Enabled      bool          `json:"enabled"`
	State        string        `json:"state"`
	Stage        string        `json:"stage"`
	PreludeCount int           `json:"prelude_count"`
	Forced       bool          `json:"forced"`
	Elapsed      time.Duration `json:"elapsed"`
	Idle         time.Duration `json:"idle"`
	Overdue      time.Duration `json:"overdue"`
	Limit        time.Duration `json:"limit"`
	NextLimit    time.Time     `json:"next_limit"`
}

// Override is an operation mode override in force.
type Override struct {
	ID   string `json:"id"`
	Mode string `json:"mode"`
}

// Status is what `respite status` shows about the running daemon.
type Status struct {
	Time      time.Time     `json:"time"`
	Mode      string        `json:"mode"`
	Regular   string        `json:"regular_mode"`
	Overrides []Override    `json:"overrides"`
	Usage     string        `json:"usage_mode"`
	Role      string        `json:"role"`
	Activity  string        `json:"activity"`
	Resume    string        `json:"resume,omitempty"`
	Breaks    []BreakStatus `json:"breaks"`
}

// Status returns the current state of every break.
func (c *Core) Status(now time.Time) Status {
	s := Status{
		Time:     now,
		Mode:     c.modes.Effective().String(),
		Regular:  c.modes.Regular().String(),
		Usage:    c.usage.String(),
		Role:     string(c.role),
		Activity: c.activity.String(),
	}

	if c.resume.Valid() {
		s.Resume = c.resume.String()
	}

	for _, id := range c.modes.Overrides() {
		m, _ := c.modes.Override(id)
		s.Overrides = append(s.Overrides, Override{ID: id, Mode: m.String()})
	}

	for _, id := range breaks.IDs {
		t := c.timers[id]
		ctl := c.controls[id]

		s.Breaks = append(s.Breaks, BreakStatus{
			ID:           id.String(),
			Name:         id.Name(),
			Enabled:      t.Enabled() && (id != breaks.Daily || t.LimitEnabled()),
			State:        ctl.State().String(),
			Stage:        ctl.Stage().String(),
			PreludeCount: ctl.PreludeCount(),
			Forced:       ctl.Forced(),
			Elapsed:      t.Elapsed(),
			Idle:         t.ElapsedIdle(),
			Overdue:      t.TotalOverdue(),
			Limit:        t.Limit(),
			NextLimit:    t.NextLimitTime(now),
		})
	}

	return s
}

// ReadStatus reads a status file written by a running daemon.
func ReadStatus(path string) (*Status, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var s Status

	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}

	return &s, nil
}

// publish writes the status file and sends the state to replicas.
func (c *Core) publish(now time.Time) {
	c.changed = false

	if err := c.writeStatus(now); err != nil {
		c.log.Warn("status not written", slog.Any("error", err))
	}

	c.broadcastState(now, c.activity)
}

func (c *Core) writeStatus(now time.Time) error {
	if c.statusPath == "" {
		return nil
	}

	status := c.Status(now)

	err := pathutil.WriteFileAtomic(c.statusPath, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(status)
	})
	if err != nil {
		return errWriteStatus.Wrap(err)
	}

	return nil
}

func (c *Core) entries() []snapshot.Entry {
	entries := make([]snapshot.Entry, 0, breaks.Count)
	for _, t := range c.timers {
		entries = append(entries, t)
	}

	return entries
}

func (c *Core) saveState(now time.Time) {
	if c.statePath == "" {
		return
	}

	if err := snapshot.Save(c.statePath, now, c.entries()); err != nil {
		c.log.Error("timer state not saved", slog.Any("error", errSaveState.Wrap(err)))
	}
}

// LoadState restores the timers saved by a previous run. Timers that cannot
// be restored start from zero.
func (c *Core) LoadState() {
	if c.statePath == "" {
		return
	}

	restored, err := snapshot.Load(c.statePath, c.now(), c.entries())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return
		}

		c.log.Warn("restoring timer state failed", slog.Any("error", err))
	}

	if len(restored) > 0 {
		c.log.Info("timer state restored", slog.Any("timers", restored))
	}
}
