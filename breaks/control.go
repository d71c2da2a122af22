package breaks

import (
	"log/slog"
	"time"

	"github.com/ayoisaiah/respite/timer"
)

// State is the externally visible phase of a break.
type State int

const (
	Inactive State = iota
	Prelude
	Active
)

func (s State) String() string {
	switch s {
	case Prelude:
		return "prelude"
	case Active:
		return "active"
	default:
		return "inactive"
	}
}

// Stage is the internal step of the break sequence. It is what peers
// exchange.
type Stage int

const (
	StageNone Stage = iota
	StageSnoozed
	StagePrelude
	StageTaking
)

func (s Stage) String() string {
	switch s {
	case StageSnoozed:
		return "snoozed"
	case StagePrelude:
		return "prelude"
	case StageTaking:
		return "taking"
	default:
		return "none"
	}
}

// Event is a countable occurrence in a break's life.
type Event int

const (
	EventPrompted Event = iota
	EventTaken
	EventNaturalTaken
	EventSkipped
	EventPostponed
)

func (e Event) String() string {
	switch e {
	case EventTaken:
		return "taken"
	case EventNaturalTaken:
		return "natural_taken"
	case EventSkipped:
		return "skipped"
	case EventPostponed:
		return "postponed"
	default:
		return "prompted"
	}
}

// Presenter shows break windows to the user.
type Presenter interface {
	CreatePreludeWindow(id ID)
	CreateBreakWindow(id ID, hint Hint)
	HideBreakWindow(id ID)
	SetBreakProgress(id ID, value, max int)
}

// Observer is told about countable events and state changes.
type Observer interface {
	BreakEvent(id ID, ev Event)
	BreakStateChanged(id ID, state State)
}

// Settings configure the prelude phase.
type Settings struct {
	// MaxPreludes is how many times the prelude is shown before the break
	// starts without one. Zero disables preludes, -1 means no limit.
	MaxPreludes     int
	PreludeDuration time.Duration
}

// StateData is the break state exchanged with peers.
type StateData struct {
	Forced            bool
	ReachedMaxPrelude bool
	PreludeCount      int
	Stage             Stage
	PreludeTime       int
}

// Control drives one break through prelude, break and back.
type Control struct {
	id        ID
	timer     *timer.Timer
	presenter Presenter
	observer  Observer
	log       *slog.Logger

	own      Settings
	settings Settings
	replaces ID

	stage             Stage
	forced            bool
	hint              Hint
	preludeCount      int
	reachedMaxPrelude bool
	preludeTime       time.Duration
}

// NewControl returns an inactive control for the break id timed by t.
func NewControl(
	id ID,
	t *timer.Timer,
	s Settings,
	p Presenter,
	o Observer,
	log *slog.Logger,
) *Control {
	return &Control{
		id:        id,
		timer:     t,
		presenter: p,
		observer:  o,
		log:       log.With(slog.String("break", id.String())),
		own:       s,
		settings:  s,
		replaces:  None,
	}
}

func (c *Control) ID() ID {
	return c.id
}

func (c *Control) Timer() *timer.Timer {
	return c.timer
}

// SetSettings replaces the prelude configuration.
func (c *Control) SetSettings(s Settings) {
	if c.replaces == None {
		c.settings = s
	}

	c.own = s
}

func (c *Control) Settings() Settings {
	return c.own
}

// Override makes the next break use the prelude settings of from, which the
// break is standing in for. Passing the control itself restores its own
// settings.
func (c *Control) Override(from *Control) {
	c.settings = from.own

	if from == c {
		c.replaces = None
		return
	}

	c.replaces = from.id
}

// Replaces returns the break this one is standing in for.
func (c *Control) Replaces() ID {
	return c.replaces
}

func (c *Control) State() State {
	switch c.stage {
	case StagePrelude:
		return Prelude
	case StageTaking:
		return Active
	default:
		return Inactive
	}
}

func (c *Control) Stage() Stage {
	return c.stage
}

func (c *Control) Forced() bool {
	return c.forced
}

func (c *Control) PreludeCount() int {
	return c.preludeCount
}

// NeedsHeartbeat reports whether the control has a running sequence.
func (c *Control) NeedsHeartbeat() bool {
	return c.State() != Inactive
}

// StartBreak begins the sequence after the timer reached its limit.
func (c *Control) StartBreak() {
	if c.State() != Inactive {
		return
	}

	c.forced = false
	c.hint = HintNormal
	c.emit(EventPrompted)

	if c.settings.MaxPreludes == 0 || c.reachedMaxPrelude {
		c.gotoTaking()
		return
	}

	c.preludeCount++

	if c.settings.MaxPreludes > 0 && c.preludeCount >= c.settings.MaxPreludes {
		c.reachedMaxPrelude = true
	}

	c.gotoPrelude()
}

// ForceStartBreak starts the break immediately, skipping any prelude.
func (c *Control) ForceStartBreak(hint Hint) {
	c.forced = true
	c.hint = hint

	if c.State() == Active {
		return
	}

	if c.State() == Prelude {
		c.presenter.HideBreakWindow(c.id)
	}

	c.gotoTaking()
}

// PostponeBreak dismisses the break and lets the limit fire again after the
// snooze interval.
func (c *Control) PostponeBreak(now time.Time) bool {
	if c.State() == Inactive {
		return false
	}

	c.emit(EventPostponed)
	c.leave(StageSnoozed)
	c.timer.Snooze(now)

	return true
}

// SkipBreak dismisses the break and resets the timer as if it was taken.
func (c *Control) SkipBreak(now time.Time) bool {
	if c.State() == Inactive {
		return false
	}

	c.emit(EventSkipped)
	c.leave(StageNone)
	c.resetPreludes()
	c.timer.Reset(now)

	return true
}

// StopPrelude removes a prelude that no longer applies.
func (c *Control) StopPrelude() bool {
	if c.State() != Prelude {
		return false
	}

	c.leave(StageNone)

	return true
}

// StopBreak ends any running sequence. A natural stop means the user rested
// long enough for the timer to reset.
func (c *Control) StopBreak(natural bool) {
	if c.State() == Inactive {
		return
	}

	if natural {
		if c.State() == Active {
			c.emit(EventTaken)
		}

		c.emit(EventNaturalTaken)
	}

	c.leave(StageNone)
	c.resetPreludes()
}

// NaturalReset handles the timer resetting after enough idle time.
func (c *Control) NaturalReset() {
	if c.State() != Inactive {
		c.StopBreak(true)
		return
	}

	c.emit(EventNaturalTaken)

	if c.stage == StageSnoozed {
		c.stage = StageNone
	}

	c.resetPreludes()
}

// Heartbeat advances the running sequence by one tick.
func (c *Control) Heartbeat(userActive bool, now time.Time) {
	switch c.stage {
	case StagePrelude:
		c.preludeTime += time.Second

		if !userActive {
			c.presenter.HideBreakWindow(c.id)
			c.gotoTaking()

			return
		}

		if c.settings.PreludeDuration > 0 && c.preludeTime >= c.settings.PreludeDuration {
			c.log.Debug("prelude ignored")
			c.leave(StageSnoozed)
			c.timer.Snooze(now)
		}
	case StageTaking:
		c.presenter.SetBreakProgress(
			c.id,
			int(c.timer.ElapsedIdle()/time.Second),
			int(c.timer.AutoReset()/time.Second),
		)
	}
}

// StateData captures the sequence for peers.
func (c *Control) StateData() StateData {
	return StateData{
		Forced:            c.forced,
		ReachedMaxPrelude: c.reachedMaxPrelude,
		PreludeCount:      c.preludeCount,
		Stage:             c.stage,
		PreludeTime:       int(c.preludeTime / time.Second),
	}
}

// SetStateData mirrors a peer's sequence without counting any events.
func (c *Control) SetStateData(d StateData) {
	c.forced = d.Forced
	c.reachedMaxPrelude = d.ReachedMaxPrelude
	c.preludeCount = d.PreludeCount

	if d.Stage != c.stage {
		switch d.Stage {
		case StagePrelude:
			if c.State() == Active {
				c.leave(StageNone)
			}

			c.gotoPrelude()
		case StageTaking:
			if c.State() == Prelude {
				c.presenter.HideBreakWindow(c.id)
			}

			c.gotoTaking()
		default:
			if c.State() != Inactive {
				c.leave(d.Stage)
			}

			c.stage = d.Stage
		}
	}

	c.preludeTime = time.Duration(d.PreludeTime) * time.Second
}

func (c *Control) gotoPrelude() {
	c.stage = StagePrelude
	c.preludeTime = 0
	c.presenter.CreatePreludeWindow(c.id)
	c.changed()
}

func (c *Control) gotoTaking() {
	c.stage = StageTaking
	c.timer.InhibitSnooze(true)
	c.timer.SetInBreak(true)
	c.presenter.CreateBreakWindow(c.id, c.hint)
	c.changed()
}

func (c *Control) leave(stage Stage) {
	if c.stage == StageTaking {
		c.timer.InhibitSnooze(false)
		c.timer.SetInBreak(false)
	}

	c.presenter.HideBreakWindow(c.id)
	c.stage = stage
	c.forced = false
	c.hint = HintNormal
	c.preludeTime = 0
	c.changed()
}

func (c *Control) resetPreludes() {
	c.preludeCount = 0
	c.reachedMaxPrelude = false
	c.settings = c.own
	c.replaces = None
}

func (c *Control) emit(ev Event) {
	c.log.Debug("break event", slog.String("event", ev.String()))
	c.observer.BreakEvent(c.id, ev)
}

func (c *Control) changed() {
	c.log.Info("break state changed", slog.String("state", c.State().String()))
	c.observer.BreakStateChanged(c.id, c.State())
}
