package config

import (
	"log/slog"
	"strings"
	"time"

	"github.com/ayoisaiah/respite/breaks"
	"github.com/ayoisaiah/respite/mode"
	"github.com/ayoisaiah/respite/monitor"
)

var (
	minLimit = 10 * time.Second
	maxLimit = 24 * time.Hour

	maxPreludeDuration = 5 * time.Minute

	// monitor thresholds below this are taken as seconds
	monitorSecondsCutoff = 50
)

// Settings returns the current configuration. A value that fails to parse or
// validate is logged and replaced with its default.
func (c *Configurator) Settings() Settings {
	var s Settings

	for _, id := range breaks.IDs {
		s.Timers[id] = c.timerSettings(id)
		s.Breaks[id] = c.breakSettings(id)
	}

	s.DailyResetHour, s.DailyResetMinute = c.resetTime()
	s.Monitor = c.monitorSettings()

	m, err := mode.Parse(c.String(KeyOperationMode))
	if err != nil {
		c.warn(KeyOperationMode, err)
	}

	s.OperationMode = m.Sanitize()

	u, err := mode.ParseUsage(c.String(KeyUsageMode))
	if err != nil {
		c.warn(KeyUsageMode, err)
	}

	s.UsageMode = u

	s.InsistPolicy = c.insistPolicy()
	s.BreakCmd = c.String(KeyBreakCmd)
	s.Notifications = c.Bool(KeyNotifications)
	s.Sound = c.Bool(KeySound)

	s.Distribution = DistributionSettings{
		Enabled: c.Bool(KeyDistEnabled),
		Listen:  c.String(KeyDistListen),
		Peers:   c.StringSlice(KeyDistPeers),
		Role:    c.role(),
	}

	s.Metrics = MetricsSettings{
		Enabled: c.Bool(KeyMetricsEnabled),
		Listen:  c.String(KeyMetricsListen),
	}

	s.LogLevel = c.String(KeyLogLevel)

	return s
}

func (c *Configurator) warn(key string, err error) {
	c.log.Warn("using default for invalid setting",
		slog.String("key", key),
		slog.Any("error", err),
	)
}

// durationSetting reads a duration at key and checks it against the bounds.
func (c *Configurator) durationSetting(key, fallback string, lo, hi time.Duration) time.Duration {
	def, _ := parseDuration(fallback)

	d, err := c.Duration(key)
	if err != nil {
		c.warn(key, errInvalidValue.Fmt(key, c.String(key)))
		return def
	}

	if d < lo || d > hi {
		c.warn(key, errOutOfRange.Fmt(key, lo, hi, d))
		return def
	}

	return d
}

func (c *Configurator) timerSettings(id breaks.ID) TimerSettings {
	def := defaultTimers[id]

	return TimerSettings{
		Enabled:           c.Bool(TimerKey(id, FieldEnabled)),
		Limit:             c.durationSetting(TimerKey(id, FieldLimit), def.limit, minLimit, maxLimit),
		AutoReset:         c.durationSetting(TimerKey(id, FieldAutoReset), def.autoReset, 0, maxLimit),
		Snooze:            c.durationSetting(TimerKey(id, FieldSnooze), def.snooze, 0, maxLimit),
		ActivitySensitive: c.Bool(TimerKey(id, FieldActivitySensitive)),
	}
}

func (c *Configurator) breakSettings(id breaks.ID) BreakSettings {
	key := BreakKey(id, FieldMaxPreludes)

	preludes := c.Int(key)
	if preludes < -1 {
		c.warn(key, errOutOfRange.Fmt(key, -1, "unlimited", preludes))
		preludes = 3
	}

	msg := c.String(BreakKey(id, FieldMessage))
	if msg == "" {
		msg = defaultMessages[id]
	}

	return BreakSettings{
		Prelude: breaks.Settings{
			MaxPreludes: preludes,
			PreludeDuration: c.durationSetting(
				BreakKey(id, FieldPreludeDuration), "20s", time.Second, maxPreludeDuration,
			),
		},
		Message: msg,
	}
}

// resetTime parses the HH:MM time at which the daily limit resets.
func (c *Configurator) resetTime() (hour, minute int) {
	raw := c.String(KeyDailyResetAt)

	t, err := time.Parse("15:04", raw)
	if err != nil {
		c.warn(KeyDailyResetAt, errInvalidResetTime.Fmt(KeyDailyResetAt, raw))
		return 0, 0
	}

	return t.Hour(), t.Minute()
}

// monitorSettings reads the thresholds in milliseconds. Small values are
// from older files that stored seconds, so they are scaled and written back.
func (c *Configurator) monitorSettings() (cfg monitor.Config) {
	defaults := map[string]int{
		KeyMonitorNoise:    9000,
		KeyMonitorActivity: 1000,
		KeyMonitorIdle:     5000,
	}

	values := make(map[string]int, len(defaults))

	for key, def := range defaults {
		v := c.Int(key)

		switch {
		case v <= 0:
			c.warn(key, errOutOfRange.Fmt(key, 1, "unlimited", v))
			v = def
		case v < monitorSecondsCutoff:
			v *= 1000

			if err := c.Set(key, v); err != nil {
				c.warn(key, err)
			}
		}

		values[key] = v
	}

	cfg.Noise = time.Duration(values[KeyMonitorNoise]) * time.Millisecond
	cfg.Activity = time.Duration(values[KeyMonitorActivity]) * time.Millisecond
	cfg.Idle = time.Duration(values[KeyMonitorIdle]) * time.Millisecond

	return cfg
}

func (c *Configurator) insistPolicy() InsistPolicy {
	raw := InsistPolicy(strings.ToLower(c.String(KeyInsistPolicy)))

	switch raw {
	case InsistReset, InsistHalt, InsistIgnore:
		return raw
	}

	c.warn(KeyInsistPolicy, errInvalidValue.Fmt(KeyInsistPolicy, raw))

	return InsistHalt
}

func (c *Configurator) role() Role {
	raw := Role(strings.ToLower(c.String(KeyDistRole)))

	switch raw {
	case RolePrimary, RoleReplica:
		return raw
	}

	c.warn(KeyDistRole, errInvalidValue.Fmt(KeyDistRole, raw))

	return RolePrimary
}
