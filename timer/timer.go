// Package timer accounts elapsed, idle and overdue time for a single break
package timer

import (
	"time"

	"github.com/ayoisaiah/respite/monitor"
)

// Event is the outcome of processing one tick.
type Event int

const (
	EventNone Event = iota
	EventLimitReached
	EventNaturalReset
	EventReset
)

func (e Event) String() string {
	switch e {
	case EventLimitReached:
		return "limit-reached"
	case EventNaturalReset:
		return "natural-reset"
	case EventReset:
		return "reset"
	default:
		return "none"
	}
}

// Timer tracks how long the user has worked since the last break and how
// long they have rested since the last activity.
type Timer struct {
	id string

	enabled           bool
	limitEnabled      bool
	limit             time.Duration
	autoResetEnabled  bool
	autoReset         time.Duration
	snoozeInterval    time.Duration
	activitySensitive bool

	hasDailyReset  bool
	resetHour      int
	resetMinute    int
	nextDailyReset time.Time

	// non-owning; another timer's Follower or a monitor
	activity monitor.Stater

	insensitive bool
	frozen      bool
	inBreak     bool
	forceIdle   bool

	running          bool
	elapsed          time.Duration
	idle             time.Duration
	overdue          time.Duration
	lastProcess      time.Time
	lastLimitTime    time.Time
	lastLimitElapsed time.Duration
	lastReset        time.Time
	snoozeUntil      time.Time
	snoozeInhibited  bool
	limitFired       bool
	idleResetDone    bool
	pending          Event
}

// New returns an enabled, activity sensitive timer with no limit.
func New(id string) *Timer {
	return &Timer{
		id:                id,
		enabled:           true,
		activitySensitive: true,
	}
}

func (t *Timer) ID() string {
	return t.id
}

func (t *Timer) SetEnabled(enabled bool) {
	t.enabled = enabled
}

func (t *Timer) Enabled() bool {
	return t.enabled
}

// SetLimit configures the limit. A zero limit disables it.
func (t *Timer) SetLimit(limit time.Duration) {
	t.limit = limit
	t.limitEnabled = limit > 0
}

func (t *Timer) Limit() time.Duration {
	return t.limit
}

// SetLimitEnabled toggles limit checking without forgetting the limit.
func (t *Timer) SetLimitEnabled(enabled bool) {
	t.limitEnabled = enabled && t.limit > 0
}

func (t *Timer) LimitEnabled() bool {
	return t.limitEnabled
}

// SetAutoReset configures how long the user must be idle for the timer to
// reset on its own. A zero value disables it.
func (t *Timer) SetAutoReset(d time.Duration) {
	t.autoReset = d
	t.autoResetEnabled = d > 0
}

func (t *Timer) AutoReset() time.Duration {
	return t.autoReset
}

// SetSnooze sets the delay before the limit fires again after a postpone.
func (t *Timer) SetSnooze(d time.Duration) {
	t.snoozeInterval = d
}

func (t *Timer) SnoozeInterval() time.Duration {
	return t.snoozeInterval
}

// SetDailyReset makes the timer reset naturally every day at hour:minute
// local time, regardless of activity.
func (t *Timer) SetDailyReset(hour, minute int) {
	t.hasDailyReset = true
	t.resetHour = hour
	t.resetMinute = minute
	t.nextDailyReset = time.Time{}
}

// SetActivitySensitive controls whether the timer only counts during
// activity. An insensitive timer counts idle time as work unless its break
// is being taken.
func (t *Timer) SetActivitySensitive(sensitive bool) {
	t.activitySensitive = sensitive
}

func (t *Timer) ActivitySensitive() bool {
	return t.activitySensitive
}

// SetActivityMonitor replaces the global activity input with m. Pass nil to
// go back to the global input.
func (t *Timer) SetActivityMonitor(m monitor.Stater) {
	t.activity = m
}

func (t *Timer) HasActivityMonitor() bool {
	return t.activity != nil
}

// SetInsensitive makes the timer treat every tick as idle.
func (t *Timer) SetInsensitive(insensitive bool) {
	t.insensitive = insensitive
}

func (t *Timer) Insensitive() bool {
	return t.insensitive
}

// Freeze stops activity from being counted. Idle time still accrues.
func (t *Timer) Freeze(frozen bool) {
	t.frozen = frozen
}

// SetInBreak marks the timer's break as being taken, so that it follows the
// activity input even when it is not activity sensitive.
func (t *Timer) SetInBreak(inBreak bool) {
	t.inBreak = inBreak
}

// ForceIdle counts the next tick as idle.
func (t *Timer) ForceIdle() {
	t.forceIdle = true
	t.running = false
}

func (t *Timer) Elapsed() time.Duration {
	return t.elapsed
}

func (t *Timer) ElapsedIdle() time.Duration {
	return t.idle
}

func (t *Timer) TotalOverdue() time.Duration {
	return t.overdue
}

func (t *Timer) Running() bool {
	return t.running
}

func (t *Timer) LastLimitTime() time.Time {
	return t.lastLimitTime
}

func (t *Timer) SnoozeInhibited() bool {
	return t.snoozeInhibited
}

// InhibitSnooze stops the limit from firing again while overdue.
func (t *Timer) InhibitSnooze(inhibit bool) {
	t.snoozeInhibited = inhibit
}

// NextLimitTime returns when the limit will be reached if the user keeps
// working. It is zero when the timer is not counting or has no limit, and
// now once the limit has been passed.
func (t *Timer) NextLimitTime(now time.Time) time.Time {
	if !t.enabled || !t.limitEnabled || !t.running {
		return time.Time{}
	}

	if t.elapsed >= t.limit {
		return now
	}

	return now.Add(t.limit - t.elapsed)
}

// Process accounts one tick ending at now.
func (t *Timer) Process(activity monitor.State, now time.Time) Event {
	if t.lastProcess.IsZero() || now.Before(t.lastProcess) {
		t.lastProcess = now
	}

	tick := now.Sub(t.lastProcess)
	t.lastProcess = now

	event := t.pending
	t.pending = EventNone

	if t.dailyBoundaryPassed(now) {
		t.resetCounters(now)
		t.idleResetDone = true

		return EventNaturalReset
	}

	if !t.enabled {
		return event
	}

	var ev Event

	switch t.effectiveState(activity, now) {
	case monitor.Active:
		if t.frozen {
			return event
		}

		ev = t.countActive(tick, now)
	case monitor.Idle:
		ev = t.countIdle(tick, now)
	}

	if event != EventNone {
		return event
	}

	return ev
}

func (t *Timer) effectiveState(activity monitor.State, now time.Time) monitor.State {
	if t.insensitive {
		return monitor.Idle
	}

	if t.forceIdle {
		t.forceIdle = false
		return monitor.Idle
	}

	if t.activity != nil {
		return t.activity.State(now)
	}

	if !t.activitySensitive && !t.inBreak {
		return monitor.Active
	}

	return activity
}

func (t *Timer) countActive(tick time.Duration, now time.Time) Event {
	t.running = true
	t.idle = 0
	t.idleResetDone = false

	prev := t.elapsed
	t.elapsed += tick

	if !t.limitEnabled {
		return EventNone
	}

	if prev >= t.limit {
		t.overdue += tick
	}

	if t.elapsed < t.limit {
		return EventNone
	}

	if !t.limitFired {
		if now.Before(t.snoozeUntil) {
			return EventNone
		}

		t.limitFired = true

		return t.fire(now)
	}

	if t.snoozeInhibited || t.snoozeInterval <= 0 || now.Before(t.snoozeUntil) {
		return EventNone
	}

	return t.fire(now)
}

func (t *Timer) fire(now time.Time) Event {
	t.lastLimitTime = now
	t.lastLimitElapsed = t.elapsed
	t.snoozeUntil = now.Add(t.snoozeInterval)

	return EventLimitReached
}

func (t *Timer) countIdle(tick time.Duration, now time.Time) Event {
	t.running = false
	t.idle += tick

	if !t.autoResetEnabled || t.idleResetDone || t.idle < t.autoReset {
		return EventNone
	}

	t.idleResetDone = true
	t.elapsed = 0
	t.limitFired = false
	t.snoozeUntil = time.Time{}
	t.lastReset = now

	return EventNaturalReset
}

// Snooze holds back the limit until the snooze interval has passed, at
// least until the next tick.
func (t *Timer) Snooze(now time.Time) {
	d := t.snoozeInterval
	if d < time.Second {
		d = time.Second
	}

	t.snoozeUntil = now.Add(d)
	t.snoozeInhibited = false
}

// Reset zeroes the elapsed and idle counters. The next tick reports
// EventReset.
func (t *Timer) Reset(now time.Time) {
	t.resetCounters(now)
	t.idleResetDone = true
	t.pending = EventReset
}

// DailyReset clears every counter, including overdue time.
func (t *Timer) DailyReset() {
	t.elapsed = 0
	t.idle = 0
	t.overdue = 0
	t.limitFired = false
	t.lastLimitTime = time.Time{}
	t.lastLimitElapsed = 0
	t.snoozeUntil = time.Time{}
	t.snoozeInhibited = false
}

// ShiftTime moves every stored timestamp by delta.
func (t *Timer) ShiftTime(delta time.Duration) {
	shift := func(ts *time.Time) {
		if !ts.IsZero() {
			*ts = ts.Add(delta)
		}
	}

	shift(&t.lastProcess)
	shift(&t.lastLimitTime)
	shift(&t.lastReset)
	shift(&t.snoozeUntil)
}

func (t *Timer) resetCounters(now time.Time) {
	t.elapsed = 0
	t.idle = 0
	t.limitFired = false
	t.snoozeUntil = time.Time{}
	t.lastReset = now
}

func (t *Timer) dailyBoundaryPassed(now time.Time) bool {
	if !t.hasDailyReset {
		return false
	}

	if t.nextDailyReset.IsZero() {
		t.nextDailyReset = nextBoundary(now, t.resetHour, t.resetMinute)
		return false
	}

	if now.Before(t.nextDailyReset) {
		return false
	}

	t.nextDailyReset = nextBoundary(now, t.resetHour, t.resetMinute)

	return true
}

// nextBoundary returns the first hour:minute strictly after now.
func nextBoundary(now time.Time, hour, minute int) time.Time {
	b := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !b.After(now) {
		b = b.AddDate(0, 0, 1)
	}

	return b
}

// Follower is an activity monitor derived from another timer. It reports
// Active while the followed timer is counting or has an unfinished idle
// stretch, and Idle once that timer has reset or while it is frozen.
type Follower struct {
	Timer *Timer
}

func (f Follower) State(_ time.Time) monitor.State {
	t := f.Timer
	if t.frozen {
		return monitor.Idle
	}

	if t.running || t.elapsed > 0 {
		return monitor.Active
	}

	return monitor.Idle
}
