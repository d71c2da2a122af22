package core

import (
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ayoisaiah/respite/breaks"
	"github.com/ayoisaiah/respite/dist"
	"github.com/ayoisaiah/respite/internal/config"
	"github.com/ayoisaiah/respite/mode"
	"github.com/ayoisaiah/respite/monitor"
)

var t0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

type clock struct {
	t time.Time
}

func (c *clock) now() time.Time {
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

type fakeMonitor struct {
	state     monitor.State
	suspended bool
	forced    int
	shifted   []time.Duration
}

func (m *fakeMonitor) State(time.Time) monitor.State {
	if m.suspended {
		return monitor.Idle
	}

	return m.state
}

func (m *fakeMonitor) Suspend()   { m.suspended = true }
func (m *fakeMonitor) Resume()    { m.suspended = false }
func (m *fakeMonitor) ForceIdle() { m.forced++ }

func (m *fakeMonitor) ShiftTime(d time.Duration) {
	m.shifted = append(m.shifted, d)
}

type fakePresenter struct {
	calls []string
}

func (p *fakePresenter) CreatePreludeWindow(id breaks.ID) {
	p.calls = append(p.calls, "prelude:"+id.String())
}

func (p *fakePresenter) CreateBreakWindow(id breaks.ID, _ breaks.Hint) {
	p.calls = append(p.calls, "break:"+id.String())
}

func (p *fakePresenter) HideBreakWindow(id breaks.ID) {
	p.calls = append(p.calls, "hide:"+id.String())
}

func (p *fakePresenter) SetBreakProgress(breaks.ID, int, int) {}

type fakeConfig struct {
	s         config.Settings
	set       map[string]any
	listeners map[string][]config.Listener
}

func (f *fakeConfig) Settings() config.Settings {
	return f.s
}

func (f *fakeConfig) Set(key string, value any) error {
	f.set[key] = value
	return nil
}

func (f *fakeConfig) AddListener(prefix string, fn config.Listener) {
	f.listeners[prefix] = append(f.listeners[prefix], fn)
}

func (f *fakeConfig) fire(key string) {
	for prefix, ls := range f.listeners {
		if key != prefix && !strings.HasPrefix(key, prefix+".") {
			continue
		}

		for _, fn := range ls {
			fn(key)
		}
	}
}

type breakEvent struct {
	id breaks.ID
	ev breaks.Event
}

type fakeStats struct {
	events     []breakEvent
	activeTime time.Duration
	overdue    [breaks.Count]time.Duration
	newDays    int
	flushes    int
}

func (s *fakeStats) BreakEvent(id breaks.ID, ev breaks.Event) {
	s.events = append(s.events, breakEvent{id, ev})
}

func (s *fakeStats) BreakStateChanged(breaks.ID, breaks.State) {}

func (s *fakeStats) SetActiveTime(d time.Duration) {
	s.activeTime = d
}

func (s *fakeStats) SetOverdue(id breaks.ID, d time.Duration) {
	s.overdue[id] = d
}

func (s *fakeStats) Flush(time.Time) error {
	s.flushes++
	return nil
}

func (s *fakeStats) StartNewDay(time.Time) error {
	s.newDays++
	return nil
}

func (s *fakeStats) count(id breaks.ID, ev breaks.Event) int {
	n := 0

	for _, e := range s.events {
		if e.id == id && e.ev == ev {
			n++
		}
	}

	return n
}

type fakeMetrics struct {
	nopObserver
	timewarps int
	modes     []mode.Mode
}

func (m *fakeMetrics) RecordTimewarp() {
	m.timewarps++
}

func (m *fakeMetrics) SetMode(md mode.Mode) {
	m.modes = append(m.modes, md)
}

type fakeLink struct {
	mu      sync.Mutex
	sent    []dist.Message
	inbound chan dist.Message
}

func (l *fakeLink) Broadcast(m dist.Message) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sent = append(l.sent, m)

	return nil
}

func (l *fakeLink) Inbound() <-chan dist.Message {
	return l.inbound
}

func (l *fakeLink) kinds() []dist.Kind {
	l.mu.Lock()
	defer l.mu.Unlock()

	kinds := make([]dist.Kind, 0, len(l.sent))
	for _, m := range l.sent {
		kinds = append(kinds, m.Kind)
	}

	return kinds
}

func testSettings() config.Settings {
	var s config.Settings

	s.Timers[breaks.Micro] = config.TimerSettings{
		Enabled: true, Limit: 180 * time.Second, AutoReset: 30 * time.Second,
		Snooze: 150 * time.Second, ActivitySensitive: true,
	}
	s.Timers[breaks.Rest] = config.TimerSettings{
		Enabled: true, Limit: 2700 * time.Second, AutoReset: 600 * time.Second,
		Snooze: 180 * time.Second, ActivitySensitive: true,
	}
	s.Timers[breaks.Daily] = config.TimerSettings{
		Enabled: true, Limit: 4 * time.Hour, Snooze: 20 * time.Minute,
		ActivitySensitive: true,
	}

	for _, id := range breaks.IDs {
		s.Breaks[id] = config.BreakSettings{
			Prelude: breaks.Settings{MaxPreludes: 0, PreludeDuration: 20 * time.Second},
			Message: "Time for a %b",
		}
	}

	s.Monitor = monitor.DefaultConfig()
	s.OperationMode = mode.Normal
	s.UsageMode = mode.UsageNormal
	s.InsistPolicy = config.InsistReset
	s.Distribution.Role = config.RolePrimary

	return s
}

type fixture struct {
	c         *Core
	clock     *clock
	monitor   *fakeMonitor
	presenter *fakePresenter
	cfg       *fakeConfig
	stats     *fakeStats
	metrics   *fakeMetrics
	link      *fakeLink
}

func newFixture(t *testing.T, edit func(*config.Settings)) *fixture {
	t.Helper()

	s := testSettings()
	if edit != nil {
		edit(&s)
	}

	dir := t.TempDir()

	f := &fixture{
		clock:     &clock{t: t0},
		monitor:   &fakeMonitor{state: monitor.Idle},
		presenter: &fakePresenter{},
		cfg: &fakeConfig{
			s:         s,
			set:       make(map[string]any),
			listeners: make(map[string][]config.Listener),
		},
		stats:   &fakeStats{},
		metrics: &fakeMetrics{},
		link:    &fakeLink{inbound: make(chan dist.Message, 4)},
	}

	f.c = New(Deps{
		Monitor:    f.monitor,
		Presenter:  f.presenter,
		Config:     f.cfg,
		Stats:      f.stats,
		Metrics:    f.metrics,
		Link:       f.link,
		Log:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:        f.clock.now,
		StatePath:  filepath.Join(dir, "state"),
		StatusPath: filepath.Join(dir, "status.json"),
	})

	// the first tick only sets the timers' clocks
	f.c.Heartbeat()

	return f
}

// tick runs n heartbeats one second apart with the monitor in state.
func (f *fixture) tick(n int, state monitor.State) {
	f.monitor.state = state

	for range n {
		f.clock.advance(time.Second)
		f.c.Heartbeat()
	}
}

// setElapsed puts the timer of id at elapsed seconds of work.
func (f *fixture) setElapsed(id breaks.ID, elapsed int64) {
	t := f.c.Timer(id)
	d := t.StateData(f.clock.now())
	d.ElapsedTime = elapsed
	d.ElapsedIdleTime = 0
	t.SetStateData(d)
}
