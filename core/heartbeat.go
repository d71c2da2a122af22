package core

import (
	"log/slog"
	"time"

	"github.com/ayoisaiah/respite/breaks"
	"github.com/ayoisaiah/respite/internal/config"
	"github.com/ayoisaiah/respite/mode"
	"github.com/ayoisaiah/respite/monitor"
	"github.com/ayoisaiah/respite/timer"
)

// counters captured before the timers process a tick, since a daily
// boundary clears them inside Process
type counters struct {
	elapsed time.Duration
	overdue time.Duration
}

// Heartbeat advances the timers and break controls by one tick.
func (c *Core) Heartbeat() {
	now := c.now()
	c.ticks++

	state := monitor.Idle
	if !c.timewarp(now) {
		state = c.processState(now)
	}

	c.activity = state
	c.processTimers(state, now)
	c.heartbeatControls(state == monitor.Active, now)

	for _, id := range breaks.IDs {
		t := c.timers[id]
		c.metrics.ObserveTimer(id, t.Elapsed(), t.ElapsedIdle(), t.Limit())
	}

	if c.ticks%saveInterval == 0 {
		c.saveState(now)
		c.flushStats(now)
	}

	if c.changed || c.ticks%statusInterval == 0 {
		c.publish(now)
	}

	c.lastProcess = now
}

// timewarp detects a jump of the clock since the last tick. On a jump the
// monitor is forced idle and every timestamp is moved by the gap so that
// the time away is neither work nor overdue.
func (c *Core) timewarp(now time.Time) bool {
	if c.lastProcess.IsZero() {
		return false
	}

	gap := now.Sub(c.lastProcess) - Tick
	if gap < timewarpThreshold && !now.Before(c.lastProcess) {
		return false
	}

	c.log.Info("time warp detected", slog.Duration("gap", gap))
	c.metrics.RecordTimewarp()

	c.monitor.ForceIdle()
	c.monitor.ShiftTime(gap)

	for _, t := range c.timers {
		t.ForceIdle()
		t.ShiftTime(gap)
	}

	return true
}

// processState merges the local monitor with external activity reports and,
// on a replica, the activity of the primary.
func (c *Core) processState(now time.Time) monitor.State {
	state := c.monitor.State(now)

	for who, expiry := range c.external {
		if !now.Before(expiry) {
			delete(c.external, who)
			continue
		}

		state = monitor.Active
	}

	if c.role == config.RoleReplica && c.remote == monitor.Active {
		state = monitor.Active
	}

	return state
}

func (c *Core) processTimers(state monitor.State, now time.Time) {
	var (
		events [breaks.Count]timer.Event
		before [breaks.Count]counters
	)

	for _, id := range breaks.IDs {
		before[id] = counters{
			elapsed: c.timers[id].Elapsed(),
			overdue: c.timers[id].TotalOverdue(),
		}
	}

	// timers that follow another timer see its state for this tick
	for _, id := range breaks.IDs {
		if !c.timers[id].HasActivityMonitor() {
			events[id] = c.timers[id].Process(state, now)
		}
	}

	for _, id := range breaks.IDs {
		if c.timers[id].HasActivityMonitor() {
			events[id] = c.timers[id].Process(state, now)
		}
	}

	for id := breaks.Daily; id >= breaks.Micro; id-- {
		ev := events[id]
		if ev == timer.EventNone {
			continue
		}

		c.log.Debug("timer event",
			slog.String("break", id.String()),
			slog.String("event", ev.String()),
		)

		if id == breaks.Daily && (ev == timer.EventNaturalReset || ev == timer.EventReset) {
			c.dailyReset(before, now)
		}

		c.timerAction(id, ev, now)
	}
}

func (c *Core) timerAction(id breaks.ID, ev timer.Event, now time.Time) {
	ctl := c.controls[id]

	switch ev {
	case timer.EventLimitReached:
		if c.modes.Effective() != mode.Normal {
			return
		}

		if ctl.State() == breaks.Inactive {
			c.startBreak(id, breaks.None, now)
		}
	case timer.EventNaturalReset:
		ctl.NaturalReset()
	case timer.EventReset:
		if ctl.State() == breaks.Active {
			ctl.StopBreak(false)
		}
	}
}

// startBreak starts the break id, or the rest break in its place when the
// rest break is due within the micro-break's duration.
func (c *Core) startBreak(id, resume breaks.ID, now time.Time) {
	// a break never interrupts one of equal or higher priority
	for b := id; b <= breaks.Daily; b++ {
		if c.controls[b].State() == breaks.Active {
			return
		}
	}

	rest := c.controls[breaks.Rest]

	if id == breaks.Rest && resume == breaks.None {
		rest.Override(rest)
	}

	if id == breaks.Micro && c.shouldAdvanceRest(now) {
		rest.Override(c.controls[breaks.Micro])
		c.startBreak(breaks.Rest, breaks.Micro, now)
		// keep the rest timer from firing again at its own limit
		c.timers[breaks.Rest].Snooze(now)

		return
	}

	for b := breaks.Micro; b < id; b++ {
		if c.controls[b].State() == breaks.Active {
			c.controls[b].StopBreak(false)
		}
	}

	c.resume = resume
	c.controls[id].StartBreak()
}

func (c *Core) shouldAdvanceRest(now time.Time) bool {
	rt := c.timers[breaks.Rest]

	if !rt.Enabled() || !rt.ActivitySensitive() {
		return false
	}

	next := rt.NextLimitTime(now)
	if next.IsZero() {
		return false
	}

	return !now.Add(c.timers[breaks.Micro].AutoReset() + advanceMargin).Before(next)
}

func (c *Core) heartbeatControls(active bool, now time.Time) {
	for _, ctl := range c.controls {
		if ctl.NeedsHeartbeat() {
			ctl.Heartbeat(active, now)
		}
	}
}

// dailyReset closes the statistics day and clears every timer, including
// overdue time.
func (c *Core) dailyReset(before [breaks.Count]counters, now time.Time) {
	c.log.Info("daily reset")

	c.stats.SetActiveTime(before[breaks.Daily].elapsed)

	for _, id := range breaks.IDs {
		c.stats.SetOverdue(id, before[id].overdue)
	}

	if err := c.stats.StartNewDay(now); err != nil {
		c.log.Warn("saving statistics failed", slog.Any("error", err))
	}

	for _, t := range c.timers {
		t.DailyReset()
	}

	c.saveState(now)
}

func (c *Core) flushStats(now time.Time) {
	c.stats.SetActiveTime(c.timers[breaks.Daily].Elapsed())

	for _, id := range breaks.IDs {
		c.stats.SetOverdue(id, c.timers[id].TotalOverdue())
	}

	if err := c.stats.Flush(now); err != nil {
		c.log.Warn("saving statistics failed", slog.Any("error", err))
	}
}
