package core

import (
	"log/slog"
	"time"

	"github.com/ayoisaiah/respite/breaks"
	"github.com/ayoisaiah/respite/dist"
	"github.com/ayoisaiah/respite/internal/config"
	"github.com/ayoisaiah/respite/monitor"
	"github.com/ayoisaiah/respite/timer"
)

func (c *Core) replica() bool {
	return c.role == config.RoleReplica
}

// ApplyTimerState mirrors the timer state of the primary.
func (c *Core) ApplyTimerState(id string, d timer.StateData) error {
	if !c.replica() {
		return nil
	}

	for _, t := range c.timers {
		if t.ID() == id {
			t.SetStateData(d)
			return nil
		}
	}

	return errUnknownTimer.Fmt(id)
}

// ApplyBreakState mirrors the break sequence of the primary.
func (c *Core) ApplyBreakState(id breaks.ID, d breaks.StateData) {
	if c.replica() {
		c.controls[id].SetStateData(d)
	}
}

// ApplyMonitorState records the activity of the primary.
func (c *Core) ApplyMonitorState(s monitor.State) {
	if c.replica() {
		c.remote = s
	}
}

// ApplyCommand runs a break command from a peer through the same path as a
// local action, without sending it on.
func (c *Core) ApplyCommand(cmd dist.Command) error {
	if err := checkID(cmd.Break); err != nil {
		return err
	}

	ctl := c.controls[cmd.Break]
	now := c.now()

	c.log.Debug("peer command",
		slog.String("break", cmd.Break.String()),
		slog.String("op", cmd.Op.String()),
	)

	switch cmd.Op {
	case dist.OpPostpone:
		ctl.PostponeBreak(now)
	case dist.OpSkip:
		ctl.SkipBreak(now)
	case dist.OpAbortPrelude:
		ctl.StopPrelude()
	case dist.OpStartBreak:
		c.forceBreak(cmd.Break, cmd.Hint)
	}

	return nil
}

func (c *Core) broadcastCommand(cmd dist.Command) {
	if c.link == nil {
		return
	}

	if err := c.link.Broadcast(dist.EncodeCommands(cmd)); err != nil {
		c.log.Debug("sending break command failed", slog.Any("error", err))
	}
}

// broadcastState sends the timers, breaks and activity to replicas.
func (c *Core) broadcastState(now time.Time, state monitor.State) {
	if c.link == nil || c.replica() {
		return
	}

	timers := make([]dist.TimerRecord, 0, breaks.Count)
	states := make([]breaks.StateData, 0, breaks.Count)

	for _, id := range breaks.IDs {
		timers = append(timers, dist.TimerRecord{
			ID:   c.timers[id].ID(),
			Data: c.timers[id].StateData(now),
		})
		states = append(states, c.controls[id].StateData())
	}

	for _, m := range []dist.Message{
		dist.EncodeTimers(timers),
		dist.EncodeBreaks(states),
		dist.EncodeMonitor(state),
	} {
		if err := c.link.Broadcast(m); err != nil {
			c.log.Debug("broadcasting state failed",
				slog.String("kind", m.Kind.String()),
				slog.Any("error", err),
			)
		}
	}
}
