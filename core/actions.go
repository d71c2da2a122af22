package core

import (
	"log/slog"

	"github.com/ayoisaiah/respite/breaks"
	"github.com/ayoisaiah/respite/dist"
	"github.com/ayoisaiah/respite/internal/config"
	"github.com/ayoisaiah/respite/mode"
)

func checkID(id breaks.ID) error {
	if !id.Valid() {
		return errInvalidBreak.Fmt(int(id))
	}

	return nil
}

// ForceBreak starts the break id now, without a prelude.
func (c *Core) ForceBreak(id breaks.ID, hint breaks.Hint) error {
	if err := checkID(id); err != nil {
		return err
	}

	c.forceBreak(id, hint)
	c.broadcastCommand(dist.Command{Break: id, Op: dist.OpStartBreak, Hint: hint})

	return nil
}

func (c *Core) forceBreak(id breaks.ID, hint breaks.Hint) {
	micro := c.controls[breaks.Micro]

	if id == breaks.Rest && micro.State() == breaks.Active {
		micro.StopBreak(false)
		c.resume = breaks.Micro
	}

	c.controls[id].ForceStartBreak(hint)
}

// PostponeBreak dismisses the break id until its snooze interval passes.
func (c *Core) PostponeBreak(id breaks.ID) error {
	if err := checkID(id); err != nil {
		return err
	}

	c.controls[id].PostponeBreak(c.now())
	c.broadcastCommand(dist.Command{Break: id, Op: dist.OpPostpone})

	return nil
}

// SkipBreak dismisses the break id and resets its timer.
func (c *Core) SkipBreak(id breaks.ID) error {
	if err := checkID(id); err != nil {
		return err
	}

	c.controls[id].SkipBreak(c.now())
	c.broadcastCommand(dist.Command{Break: id, Op: dist.OpSkip})

	return nil
}

// StopPrelude removes the prelude of the break id.
func (c *Core) StopPrelude(id breaks.ID) error {
	if err := checkID(id); err != nil {
		return err
	}

	c.controls[id].StopPrelude()
	c.broadcastCommand(dist.Command{Break: id, Op: dist.OpAbortPrelude})

	return nil
}

// SetOperationMode changes and saves the regular operation mode.
func (c *Core) SetOperationMode(m mode.Mode) {
	c.modes.SetMode(m, true)
}

func (c *Core) SetOperationModeOverride(m mode.Mode, id string) {
	c.modes.SetOverride(m, id)
}

func (c *Core) RemoveOperationModeOverride(id string) {
	c.modes.RemoveOverride(id)
}

// OperationMode returns the effective operation mode.
func (c *Core) OperationMode() mode.Mode {
	return c.modes.Effective()
}

// ReportExternalActivity counts who as activity for a short while. Passing
// false withdraws the report.
func (c *Core) ReportExternalActivity(who string, active bool) {
	if !active {
		delete(c.external, who)
		return
	}

	c.external[who] = c.now().Add(externalActivityTTL)
}

// SetUsageMode changes and saves the usage mode.
func (c *Core) SetUsageMode(u mode.UsageMode) {
	if c.usage == u {
		return
	}

	c.usage = u
	c.applyUsage()

	if err := c.cfg.Set(config.KeyUsageMode, u.String()); err != nil {
		c.log.Error("saving usage mode failed", slog.Any("error", err))
	}
}

func (c *Core) UsageMode() mode.UsageMode {
	return c.usage
}

// SetPowersave suspends everything while the machine sleeps. Going down also
// saves the timers and statistics.
func (c *Core) SetPowersave(down bool) {
	if !down {
		c.powersave = false
		c.modes.RemoveOverride(powersaveOverride)

		return
	}

	if !c.powersave {
		c.powersave = true
		c.modes.SetOverride(mode.Suspended, powersaveOverride)
	}

	now := c.now()
	c.saveState(now)
	c.flushStats(now)
}
