package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/ayoisaiah/respite/breaks"
)

// viper keys
const (
	KeyOperationMode = "general.operation_mode"
	KeyUsageMode     = "general.usage_mode"
	KeyInsistPolicy  = "general.insist_policy"
	KeyBreakCmd      = "general.break_cmd"
	KeyNotifications = "general.notifications"
	KeySound         = "general.sound"

	KeyMonitor         = "monitor"
	KeyMonitorNoise    = "monitor.noise"
	KeyMonitorActivity = "monitor.activity"
	KeyMonitorIdle     = "monitor.idle"

	KeyDailyResetAt = "timers.daily_limit.reset_at"

	KeyDistEnabled = "distribution.enabled"
	KeyDistListen  = "distribution.listen"
	KeyDistPeers   = "distribution.peers"
	KeyDistRole    = "distribution.role"

	KeyMetricsEnabled = "metrics.enabled"
	KeyMetricsListen  = "metrics.listen"

	KeyLogLevel = "log.level"
)

// timer and break fields
const (
	FieldEnabled           = "enabled"
	FieldLimit             = "limit"
	FieldAutoReset         = "auto_reset"
	FieldSnooze            = "snooze"
	FieldActivitySensitive = "activity_sensitive"
	FieldMaxPreludes       = "max_preludes"
	FieldPreludeDuration   = "prelude_duration"
	FieldMessage           = "message"
)

// TimerKey returns the key of a field of the timer for id.
func TimerKey(id breaks.ID, field string) string {
	return "timers." + id.String() + "." + field
}

// BreakKey returns the key of a field of the break for id.
func BreakKey(id breaks.ID, field string) string {
	return "breaks." + id.String() + "." + field
}

type timerDefaults struct {
	limit, autoReset, snooze string
}

var defaultTimers = [breaks.Count]timerDefaults{
	breaks.Micro: {limit: "3m", autoReset: "30s", snooze: "150s"},
	breaks.Rest:  {limit: "45m", autoReset: "10m", snooze: "3m"},
	breaks.Daily: {limit: "4h", autoReset: "0s", snooze: "20m"},
}

var defaultMessages = [breaks.Count]string{
	breaks.Micro: "Time for a %b. Look away from the screen",
	breaks.Rest:  "Time for a %b. Stretch and walk around",
	breaks.Daily: "%b reached. Consider stopping for today",
}

// setupViper configures Viper with defaults.
func setupViper(v *viper.Viper) {
	for _, id := range breaks.IDs {
		d := defaultTimers[id]

		v.SetDefault(TimerKey(id, FieldEnabled), true)
		v.SetDefault(TimerKey(id, FieldLimit), d.limit)
		v.SetDefault(TimerKey(id, FieldAutoReset), d.autoReset)
		v.SetDefault(TimerKey(id, FieldSnooze), d.snooze)
		v.SetDefault(TimerKey(id, FieldActivitySensitive), true)

		v.SetDefault(BreakKey(id, FieldMaxPreludes), 3)
		v.SetDefault(BreakKey(id, FieldPreludeDuration), "20s")
		v.SetDefault(BreakKey(id, FieldMessage), defaultMessages[id])
	}

	v.SetDefault(KeyDailyResetAt, "00:00")

	v.SetDefault(KeyMonitorNoise, 9000)
	v.SetDefault(KeyMonitorActivity, 1000)
	v.SetDefault(KeyMonitorIdle, 5000)

	v.SetDefault(KeyOperationMode, "normal")
	v.SetDefault(KeyUsageMode, "normal")
	v.SetDefault(KeyInsistPolicy, string(InsistHalt))
	v.SetDefault(KeyBreakCmd, "")
	v.SetDefault(KeyNotifications, true)
	v.SetDefault(KeySound, true)

	v.SetDefault(KeyDistEnabled, false)
	v.SetDefault(KeyDistListen, "127.0.0.1:27273")
	v.SetDefault(KeyDistPeers, []string{})
	v.SetDefault(KeyDistRole, string(RolePrimary))

	v.SetDefault(KeyMetricsEnabled, false)
	v.SetDefault(KeyMetricsListen, "127.0.0.1:9464")

	v.SetDefault(KeyLogLevel, "info")
}

func newViper(path string) *viper.Viper {
	v := viper.New()

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	setupViper(v)

	return v
}

// Listener is called with the key of a changed value.
type Listener func(key string)

type listener struct {
	prefix string
	fn     Listener
}

// Configurator gives typed access to the configuration file and reports
// changes made to it by other programs.
type Configurator struct {
	path string
	log  *slog.Logger

	mu        sync.Mutex
	v         *viper.Viper
	values    map[string]any
	listeners []listener
}

// Open reads the configuration file at path. A missing file is created with
// the default values.
func Open(path string, log *slog.Logger) (*Configurator, error) {
	v := newViper(path)

	err := v.ReadInConfig()
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, errReadConfig.Wrap(err)
		}

		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errWriteConfig.Wrap(err)
		}

		if err := v.WriteConfig(); err != nil {
			return nil, errWriteConfig.Wrap(err)
		}

		log.Info("wrote default config", slog.String("path", path))
	}

	return &Configurator{
		path:   path,
		log:    log,
		v:      v,
		values: flatten(v),
	}, nil
}

// Path returns the location of the configuration file.
func (c *Configurator) Path() string {
	return c.path
}

// SetLogger replaces the logger given to Open. It must be called before
// Watch.
func (c *Configurator) SetLogger(log *slog.Logger) {
	c.log = log
}

func (c *Configurator) String(key string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return strings.TrimSpace(c.v.GetString(key))
}

func (c *Configurator) Bool(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.v.GetBool(key)
}

func (c *Configurator) Int(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.v.GetInt(key)
}

func (c *Configurator) StringSlice(key string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.v.GetStringSlice(key)
}

// Duration reads a duration. Plain numbers are taken as seconds.
func (c *Configurator) Duration(key string) (time.Duration, error) {
	return parseDuration(c.String(key))
}

// Set stores value under key and writes the file. Listeners are not called
// for changes made through Set. The write goes through a scratch instance so
// that later edits to the file are not masked by a viper override.
func (c *Configurator) Set(key string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	w := newViper(c.path)

	if err := w.ReadInConfig(); err != nil {
		return errReadConfig.Wrap(err)
	}

	w.Set(key, value)

	if err := w.WriteConfig(); err != nil {
		return errWriteConfig.Wrap(err)
	}

	if err := c.v.ReadInConfig(); err != nil {
		return errReadConfig.Wrap(err)
	}

	c.values = flatten(c.v)

	return nil
}

// AddListener calls fn for every changed key starting with prefix. A prefix
// names a whole section ("monitor") or a single key.
func (c *Configurator) AddListener(prefix string, fn Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.listeners = append(c.listeners, listener{prefix: prefix, fn: fn})
}

// reload rereads the file and returns the keys whose values changed along
// with the listeners to call for them.
func (c *Configurator) reload() ([]string, []listener, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.v.ReadInConfig(); err != nil {
		return nil, nil, errReadConfig.Wrap(err)
	}

	next := flatten(c.v)
	changed := diff(c.values, next)
	c.values = next

	return changed, append([]listener(nil), c.listeners...), nil
}

func (c *Configurator) notify(changed []string, ls []listener) {
	for _, key := range changed {
		for _, l := range ls {
			if key == l.prefix || strings.HasPrefix(key, l.prefix+".") {
				l.fn(key)
			}
		}
	}
}

func flatten(v *viper.Viper) map[string]any {
	out := make(map[string]any)

	for _, key := range v.AllKeys() {
		out[key] = v.Get(key)
	}

	return out
}

func diff(prev, next map[string]any) []string {
	var changed []string

	for key, nv := range next {
		if pv, ok := prev[key]; !ok || fmt.Sprint(pv) != fmt.Sprint(nv) {
			changed = append(changed, key)
		}
	}

	for key := range prev {
		if _, ok := next[key]; !ok {
			changed = append(changed, key)
		}
	}

	return changed
}

// parseDuration accepts duration strings and plain numbers of seconds.
func parseDuration(s string) (time.Duration, error) {
	dur, err := time.ParseDuration(s)
	if err == nil {
		return dur, nil
	}

	secs, err := time.ParseDuration(s + "s")
	if err != nil {
		return 0, fmt.Errorf("invalid duration format: %s", s)
	}

	return secs, nil
}
