package core

import (
	"github.com/ayoisaiah/respite/breaks"
	"github.com/ayoisaiah/respite/internal/config"
	"github.com/ayoisaiah/respite/mode"
)

// EnterSuspended stops all accounting until the mode is left.
func (c *Core) EnterSuspended() {
	// breaks first, so that undoing the insist policy cannot resume the
	// monitor again
	c.stopAllBreaks()
	c.monitor.ForceIdle()
	c.monitor.Suspend()

	for _, t := range c.timers {
		if t.Enabled() {
			t.ForceIdle()
			t.SetInsensitive(true)
		}
	}
}

func (c *Core) LeaveSuspended() {
	c.stopAllBreaks()

	for _, t := range c.timers {
		t.SetInsensitive(false)
	}

	c.monitor.Resume()
}

func (c *Core) EnterQuiet() {
	c.stopAllBreaks()
}

// SaveMode persists the regular operation mode.
func (c *Core) SaveMode(m mode.Mode) error {
	return c.cfg.Set(config.KeyOperationMode, m.String())
}

func (c *Core) modeChanged(m mode.Mode) {
	c.metrics.SetMode(m)
	c.changed = true
}

func (c *Core) stopAllBreaks() {
	for _, ctl := range c.controls {
		if ctl.State() != breaks.Inactive {
			ctl.StopBreak(false)
		}
	}
}

// BreakEvent implements breaks.Observer.
func (c *Core) BreakEvent(id breaks.ID, ev breaks.Event) {
	c.stats.BreakEvent(id, ev)
	c.metrics.BreakEvent(id, ev)
}

// BreakStateChanged implements breaks.Observer. The insist policy applies
// while any break is being taken.
func (c *Core) BreakStateChanged(id breaks.ID, s breaks.State) {
	c.stats.BreakStateChanged(id, s)
	c.metrics.BreakStateChanged(id, s)
	c.changed = true

	taking := false

	for _, ctl := range c.controls {
		if ctl.State() == breaks.Active {
			taking = true
			break
		}
	}

	switch {
	case taking && !c.frozen:
		c.freeze()
	case !taking && c.frozen:
		c.defrost()
	}
}

// SetInsistPolicy changes what activity during a break does. A policy in
// force is undone and the new one applied.
func (c *Core) SetInsistPolicy(p config.InsistPolicy) {
	if c.insist == p {
		return
	}

	if c.frozen {
		c.defrost()
		c.insist = p
		c.freeze()

		return
	}

	c.insist = p
}

func (c *Core) freeze() {
	switch c.insist {
	case config.InsistIgnore:
		c.monitor.Suspend()
	case config.InsistHalt:
		c.freezeTimers(true)
	}

	c.activeInsist = c.insist
	c.frozen = true
}

func (c *Core) defrost() {
	switch c.activeInsist {
	case config.InsistIgnore:
		if c.modes.Effective() != mode.Suspended {
			c.monitor.Resume()
		}
	case config.InsistHalt:
		c.freezeTimers(false)
	}

	c.activeInsist = ""
	c.frozen = false
}

// freezeTimers freezes the timers that follow the global activity. The
// others follow a frozen timer and see it as idle.
func (c *Core) freezeTimers(frozen bool) {
	for _, t := range c.timers {
		if !t.HasActivityMonitor() {
			t.Freeze(frozen)
		}
	}
}

// watchConfig applies configuration changes on the loop goroutine.
func (c *Core) watchConfig() {
	reload := func(string) {
		c.Post(func() {
			c.applySettings(c.cfg.Settings())
		})
	}

	for _, prefix := range []string{"timers", "breaks", "monitor", config.KeyInsistPolicy, config.KeyUsageMode} {
		c.cfg.AddListener(prefix, reload)
	}

	c.cfg.AddListener(config.KeyOperationMode, func(string) {
		c.Post(func() {
			c.modes.SetMode(c.cfg.Settings().OperationMode, false)
		})
	})
}
