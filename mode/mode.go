// Package mode arbitrates the operation mode between the user's regular
// choice and temporary overrides.
package mode

import (
	"strings"

	"github.com/ayoisaiah/respite/internal/apperr"
)

// Mode is an operation mode.
type Mode int

const (
	Normal Mode = iota
	Quiet
	Suspended
)

var (
	errUnknownMode = &apperr.Error{
		Message: "unknown operation mode %q: expected normal, quiet or suspended",
	}

	errUnknownUsageMode = &apperr.Error{
		Message: "unknown usage mode %q: expected normal or reading",
	}
)

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	return m >= Normal && m <= Suspended
}

// Sanitize maps unknown values to Normal.
func (m Mode) Sanitize() Mode {
	if !m.Valid() {
		return Normal
	}

	return m
}

func (m Mode) String() string {
	switch m {
	case Quiet:
		return "quiet"
	case Suspended:
		return "suspended"
	default:
		return "normal"
	}
}

// Parse converts a mode name to a Mode.
func Parse(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "normal":
		return Normal, nil
	case "quiet":
		return Quiet, nil
	case "suspended", "suspend":
		return Suspended, nil
	}

	return Normal, errUnknownMode.Fmt(s)
}

// UsageMode selects how activity is counted.
type UsageMode int

const (
	UsageNormal UsageMode = iota
	// UsageReading counts time even without input.
	UsageReading
)

func (u UsageMode) String() string {
	if u == UsageReading {
		return "reading"
	}

	return "normal"
}

// ParseUsage converts a usage mode name to a UsageMode.
func ParseUsage(s string) (UsageMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "normal":
		return UsageNormal, nil
	case "reading":
		return UsageReading, nil
	}

	return UsageNormal, errUnknownUsageMode.Fmt(s)
}

// Effects are applied when the effective mode changes.
type Effects interface {
	EnterSuspended()
	LeaveSuspended()
	EnterQuiet()
}

// Persister stores the regular mode.
type Persister interface {
	SaveMode(m Mode) error
}

// Listener is called with the effective mode.
type Listener func(m Mode)
