// Package config loads the Respite settings from a YAML file and notifies
// listeners when the file changes.
package config

import (
	"time"

	"github.com/ayoisaiah/respite/breaks"
	"github.com/ayoisaiah/respite/mode"
	"github.com/ayoisaiah/respite/monitor"
)

const Version = "v0.3.0"

// InsistPolicy decides what activity during a break does.
type InsistPolicy string

const (
	// InsistReset lets activity count as usual, so the break restarts.
	InsistReset InsistPolicy = "reset"
	// InsistHalt freezes the timers until the break ends.
	InsistHalt InsistPolicy = "halt"
	// InsistIgnore suspends the activity monitor until the break ends.
	InsistIgnore InsistPolicy = "ignore"
)

// Role is the part an instance plays among its peers.
type Role string

const (
	RolePrimary Role = "primary"
	RoleReplica Role = "replica"
)

type (
	// TimerSettings configure the timer of one break.
	TimerSettings struct {
		Enabled           bool
		Limit             time.Duration
		AutoReset         time.Duration
		Snooze            time.Duration
		ActivitySensitive bool
	}

	// BreakSettings configure the prelude and text of one break.
	BreakSettings struct {
		Prelude breaks.Settings
		Message string
	}

	// DistributionSettings configure the peer link.
	DistributionSettings struct {
		Enabled bool
		Listen  string
		Peers   []string
		Role    Role
	}

	// MetricsSettings configure the Prometheus endpoint.
	MetricsSettings struct {
		Enabled bool
		Listen  string
	}

	// Settings is the typed view of the configuration file.
	Settings struct {
		Timers [breaks.Count]TimerSettings
		Breaks [breaks.Count]BreakSettings

		DailyResetHour   int
		DailyResetMinute int

		Monitor monitor.Config

		OperationMode mode.Mode
		UsageMode     mode.UsageMode
		InsistPolicy  InsistPolicy
		BreakCmd      string
		Notifications bool
		Sound         bool

		Distribution DistributionSettings
		Metrics      MetricsSettings
		LogLevel     string
	}
)
