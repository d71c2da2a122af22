// Package core ties the timers, break controls and operation mode together
// and advances them once per tick.
package core

import (
	"log/slog"
	"time"

	"github.com/ayoisaiah/respite/breaks"
	"github.com/ayoisaiah/respite/dist"
	"github.com/ayoisaiah/respite/internal/config"
	"github.com/ayoisaiah/respite/mode"
	"github.com/ayoisaiah/respite/monitor"
	"github.com/ayoisaiah/respite/timer"
)

const (
	// Tick is the heartbeat interval.
	Tick = time.Second

	// a gap this long between two ticks means the clock jumped
	timewarpThreshold = 30 * time.Second

	// a rest break this close to a micro-break replaces it
	advanceMargin = 30 * time.Second

	externalActivityTTL = 10 * time.Second

	saveInterval   = 60
	statusInterval = 5

	powersaveOverride = "powersave"
)

// Configurator is the configuration the core reads and writes.
type Configurator interface {
	Settings() config.Settings
	Set(key string, value any) error
	AddListener(prefix string, fn config.Listener)
}

// Stats receives break events and the day's totals.
type Stats interface {
	breaks.Observer
	SetActiveTime(d time.Duration)
	SetOverdue(id breaks.ID, d time.Duration)
	Flush(now time.Time) error
	StartNewDay(now time.Time) error
}

// Metrics exports the core's state.
type Metrics interface {
	breaks.Observer
	ObserveTimer(id breaks.ID, elapsed, idle, limit time.Duration)
	SetMode(m mode.Mode)
	RecordTimewarp()
}

// Link carries state and commands to and from peers.
type Link interface {
	Broadcast(m dist.Message) error
	Inbound() <-chan dist.Message
}

// Deps are the collaborators of a Core. Stats, Metrics and Link are
// optional.
type Deps struct {
	Monitor   monitor.Monitor
	Presenter breaks.Presenter
	Config    Configurator
	Stats     Stats
	Metrics   Metrics
	Link      Link
	Log       *slog.Logger

	// Now defaults to time.Now.
	Now func() time.Time

	StatePath  string
	StatusPath string
}

// Core owns the break state. Apart from Run, Post and Do, its methods must
// be called from the goroutine running the loop.
type Core struct {
	log       *slog.Logger
	now       func() time.Time
	monitor   monitor.Monitor
	presenter breaks.Presenter
	cfg       Configurator
	stats     Stats
	metrics   Metrics
	link      Link

	statePath  string
	statusPath string

	timers   [breaks.Count]*timer.Timer
	controls [breaks.Count]*breaks.Control
	modes    *mode.Controller

	usage  mode.UsageMode
	role   config.Role
	insist config.InsistPolicy
	// policy in force while a break is being taken
	activeInsist config.InsistPolicy
	frozen       bool
	sensitive    [breaks.Count]bool

	resume      breaks.ID
	powersave   bool
	ticks       int
	lastProcess time.Time
	activity    monitor.State
	remote      monitor.State
	external    map[string]time.Time
	changed     bool

	commands chan func()
	done     chan struct{}
}

// New builds a Core from the current settings. Saved timer state is not
// loaded until LoadState is called.
func New(d Deps) *Core {
	if d.Now == nil {
		d.Now = time.Now
	}

	if d.Stats == nil {
		d.Stats = nopObserver{}
	}

	if d.Metrics == nil {
		d.Metrics = nopObserver{}
	}

	c := &Core{
		log:        d.Log,
		now:        wholeSeconds(d.Now),
		monitor:    d.Monitor,
		presenter:  d.Presenter,
		cfg:        d.Config,
		stats:      d.Stats,
		metrics:    d.Metrics,
		link:       d.Link,
		statePath:  d.StatePath,
		statusPath: d.StatusPath,
		resume:     breaks.None,
		activity:   monitor.Idle,
		remote:     monitor.Idle,
		external:   make(map[string]time.Time),
		commands:   make(chan func(), 16),
		done:       make(chan struct{}),
	}

	s := c.cfg.Settings()

	for _, id := range breaks.IDs {
		c.timers[id] = timer.New(id.String())
		c.controls[id] = breaks.NewControl(
			id,
			c.timers[id],
			s.Breaks[id].Prelude,
			c.presenter,
			c,
			c.log,
		)
	}

	// the daily limit counts while the user works toward micro-breaks
	c.timers[breaks.Daily].SetActivityMonitor(timer.Follower{Timer: c.timers[breaks.Micro]})

	c.modes = mode.NewController(s.OperationMode, c, c, c.log)
	c.modes.AddListener(c.modeChanged)
	c.metrics.SetMode(s.OperationMode)

	c.applySettings(s)
	c.watchConfig()

	if s.OperationMode == mode.Suspended {
		c.EnterSuspended()
	}

	return c
}

// wholeSeconds truncates the clock so that timers count whole seconds.
func wholeSeconds(now func() time.Time) func() time.Time {
	return func() time.Time {
		return now().Truncate(time.Second)
	}
}

// Timer returns the timer of the break id.
func (c *Core) Timer(id breaks.ID) *timer.Timer {
	return c.timers[id]
}

// Control returns the control of the break id.
func (c *Core) Control(id breaks.ID) *breaks.Control {
	return c.controls[id]
}

// Modes returns the operation mode controller.
func (c *Core) Modes() *mode.Controller {
	return c.modes
}

// Expand replaces %b in s with the display name of the break id.
func (c *Core) Expand(s string, id breaks.ID) string {
	return id.Expand(s)
}

func (c *Core) applySettings(s config.Settings) {
	c.usage = s.UsageMode
	c.role = s.Distribution.Role

	for _, id := range breaks.IDs {
		ts := s.Timers[id]
		t := c.timers[id]

		if id == breaks.Daily {
			// the daily timer supplies the active time for statistics,
			// so disabling the break only turns off its limit
			t.SetEnabled(true)
			t.SetLimit(ts.Limit)
			t.SetLimitEnabled(ts.Enabled)
		} else {
			t.SetEnabled(ts.Enabled)
			t.SetLimit(ts.Limit)
		}

		t.SetAutoReset(ts.AutoReset)
		t.SetSnooze(ts.Snooze)

		c.sensitive[id] = ts.ActivitySensitive
		c.controls[id].SetSettings(s.Breaks[id].Prelude)
	}

	c.applyUsage()
	c.timers[breaks.Daily].SetDailyReset(s.DailyResetHour, s.DailyResetMinute)

	if m, ok := c.monitor.(interface{ SetConfig(monitor.Config) }); ok {
		m.SetConfig(s.Monitor)
	}

	c.SetInsistPolicy(s.InsistPolicy)
}

// applyUsage makes every timer count regardless of input in reading mode.
func (c *Core) applyUsage() {
	for _, id := range breaks.IDs {
		c.timers[id].SetActivitySensitive(c.sensitive[id] && c.usage != mode.UsageReading)
	}
}

type nopObserver struct{}

func (nopObserver) BreakEvent(breaks.ID, breaks.Event) {}
func (nopObserver) BreakStateChanged(breaks.ID, breaks.State) {}
func (nopObserver) SetActiveTime(time.Duration) {}
func (nopObserver) SetOverdue(breaks.ID, time.Duration) {}
func (nopObserver) Flush(time.Time) error { return nil }
func (nopObserver) StartNewDay(time.Time) error { return nil }
func (nopObserver) ObserveTimer(breaks.ID, time.Duration, time.Duration, time.Duration) {}
func (nopObserver) SetMode(mode.Mode) {}
func (nopObserver) RecordTimewarp() {}
