// Package monitor classifies user input into an active or idle state
package monitor

import (
	"log/slog"
	"time"
)

// State is the activity classification for a single tick.
type State int

const (
	Idle State = iota
	Active
)

func (s State) String() string {
	if s == Active {
		return "active"
	}

	return "idle"
}

// Stater reports an activity state.
type Stater interface {
	State(now time.Time) State
}

// Monitor is the activity source consumed by the core.
type Monitor interface {
	Stater
	Suspend()
	Resume()
	ForceIdle()
	ShiftTime(delta time.Duration)
}

// IdleSource reports how long it has been since the last input event.
type IdleSource interface {
	SinceInput() (time.Duration, error)
	Close() error
}

// Config holds the classifier thresholds.
type Config struct {
	// Noise is how long a burst of input may go quiet before it is
	// discarded as noise.
	Noise time.Duration
	// Activity is how long input must be sustained before the user counts
	// as active.
	Activity time.Duration
	// Idle is how long without input an active user needs before becoming
	// idle.
	Idle time.Duration
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{
		Noise:    9000 * time.Millisecond,
		Activity: 1000 * time.Millisecond,
		Idle:     5000 * time.Millisecond,
	}
}

type phase int

const (
	phaseIdle phase = iota
	phaseNoise
	phaseActive
)

// Local classifies input reported by an IdleSource. Input must be sustained
// for Config.Activity before the state turns Active, and an active user goes
// idle after Config.Idle without input.
type Local struct {
	source IdleSource
	log    *slog.Logger
	cfg    Config

	phase         phase
	firstInput    time.Time
	lastInput     time.Time
	suspended     bool
	forcedIdle    bool
	sourceFailing bool
}

// NewLocal returns a monitor reading from src.
func NewLocal(src IdleSource, cfg Config, log *slog.Logger) *Local {
	return &Local{
		source: src,
		cfg:    cfg,
		log:    log,
	}
}

// SetConfig replaces the classifier thresholds.
func (m *Local) SetConfig(cfg Config) {
	m.cfg = cfg
}

// Config returns the classifier thresholds.
func (m *Local) Config() Config {
	return m.cfg
}

// State samples the idle source and returns the classification at now.
func (m *Local) State(now time.Time) State {
	if m.suspended {
		return Idle
	}

	since, err := m.source.SinceInput()
	if err != nil {
		if !m.sourceFailing {
			m.log.Warn("reading idle time failed", slog.Any("error", err))
			m.sourceFailing = true
		}

		return Idle
	}

	m.sourceFailing = false

	input := now.Add(-since)

	newInput := input.After(m.lastInput)
	if newInput {
		m.lastInput = input
	}

	if m.forcedIdle {
		if !newInput {
			return Idle
		}

		m.forcedIdle = false
		m.phase = phaseIdle
	}

	switch m.phase {
	case phaseIdle:
		if newInput && since < m.cfg.Noise {
			m.firstInput = input
			m.phase = phaseNoise
		}
	case phaseNoise:
		if since >= m.cfg.Noise {
			m.phase = phaseIdle
		} else if m.lastInput.Sub(m.firstInput) >= m.cfg.Activity {
			m.phase = phaseActive
		}
	case phaseActive:
		if since >= m.cfg.Idle {
			m.phase = phaseIdle
		}
	}

	if m.phase == phaseActive {
		return Active
	}

	return Idle
}

// Suspend makes the monitor report Idle until Resume is called.
func (m *Local) Suspend() {
	m.suspended = true
	m.phase = phaseIdle
}

func (m *Local) Resume() {
	m.suspended = false
}

// ForceIdle reports Idle until new input arrives.
func (m *Local) ForceIdle() {
	m.forcedIdle = true
	m.phase = phaseIdle
}

// ShiftTime moves the recorded input timestamps by delta.
func (m *Local) ShiftTime(delta time.Duration) {
	if !m.firstInput.IsZero() {
		m.firstInput = m.firstInput.Add(delta)
	}

	if !m.lastInput.IsZero() {
		m.lastInput = m.lastInput.Add(delta)
	}
}

// Close releases the idle source.
func (m *Local) Close() error {
	return m.source.Close()
}
