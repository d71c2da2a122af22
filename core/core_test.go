package core

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayoisaiah/respite/breaks"
	"github.com/ayoisaiah/respite/dist"
	"github.com/ayoisaiah/respite/internal/config"
	"github.com/ayoisaiah/respite/mode"
	"github.com/ayoisaiah/respite/monitor"
	"github.com/ayoisaiah/respite/timer"
)

func TestLimitStartsBreak(t *testing.T) {
	testCases := []struct {
		name     string
		preludes int
		want     breaks.State
	}{
		{name: "preludes disabled", preludes: 0, want: breaks.Active},
		{name: "with preludes", preludes: 3, want: breaks.Prelude},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, func(s *config.Settings) {
				s.Timers[breaks.Micro].Limit = 1500 * time.Second
				s.Breaks[breaks.Micro].Prelude.MaxPreludes = tc.preludes
			})

			f.setElapsed(breaks.Micro, 1499)
			f.tick(1, monitor.Active)

			assert.Equal(t, tc.want, f.c.Control(breaks.Micro).State())
			assert.Equal(t, breaks.Inactive, f.c.Control(breaks.Rest).State())
			assert.Equal(t, 1, f.stats.count(breaks.Micro, breaks.EventPrompted))
		})
	}
}

func TestRestStartStopsMicroWithoutNaturalCount(t *testing.T) {
	f := newFixture(t, nil)

	require.NoError(t, f.c.ForceBreak(breaks.Micro, breaks.HintNormal))
	require.Equal(t, breaks.Active, f.c.Control(breaks.Micro).State())

	// rest is due in a second while the micro-break is on screen
	f.setElapsed(breaks.Rest, 2699)
	f.tick(1, monitor.Active)

	assert.Equal(t, breaks.Inactive, f.c.Control(breaks.Micro).State())
	assert.Equal(t, breaks.Active, f.c.Control(breaks.Rest).State())
	assert.Zero(t, f.stats.count(breaks.Micro, breaks.EventNaturalTaken))
	assert.Zero(t, f.stats.count(breaks.Micro, breaks.EventTaken))
}

func TestForceRestResumesMicro(t *testing.T) {
	f := newFixture(t, nil)

	require.NoError(t, f.c.ForceBreak(breaks.Micro, breaks.HintNormal))
	require.NoError(t, f.c.ForceBreak(breaks.Rest, breaks.HintUserInitiated))

	assert.Equal(t, breaks.Inactive, f.c.Control(breaks.Micro).State())
	assert.Equal(t, breaks.Active, f.c.Control(breaks.Rest).State())
	assert.Equal(t, "micro_pause", f.c.Status(f.clock.now()).Resume)
	assert.Zero(t, f.stats.count(breaks.Micro, breaks.EventNaturalTaken))
}

func TestMicroAdvancesRest(t *testing.T) {
	f := newFixture(t, func(s *config.Settings) {
		s.Breaks[breaks.Micro].Prelude.MaxPreludes = 3
	})

	f.setElapsed(breaks.Micro, 179)
	f.setElapsed(breaks.Rest, 2660)
	f.tick(1, monitor.Active)

	micro := f.c.Control(breaks.Micro)
	rest := f.c.Control(breaks.Rest)

	assert.Equal(t, breaks.Inactive, micro.State())
	// rest runs with the micro-break's prelude settings
	assert.Equal(t, breaks.Prelude, rest.State())
	assert.Equal(t, breaks.Micro, rest.Replaces())
	assert.Equal(t, "micro_pause", f.c.Status(f.clock.now()).Resume)
	assert.Zero(t, f.stats.count(breaks.Micro, breaks.EventPrompted))
	assert.Equal(t, 1, f.stats.count(breaks.Rest, breaks.EventPrompted))

	// the snooze keeps the rest limit from starting it a second time
	rest.StopPrelude()
	f.tick(39, monitor.Active)
	assert.GreaterOrEqual(t, f.c.Timer(breaks.Rest).Elapsed(), 2700*time.Second)
	assert.Equal(t, breaks.Inactive, rest.State())
	assert.Equal(t, 1, f.stats.count(breaks.Rest, breaks.EventPrompted))
}

func TestRestFarAwayIsNotAdvanced(t *testing.T) {
	f := newFixture(t, nil)

	f.setElapsed(breaks.Micro, 179)
	f.setElapsed(breaks.Rest, 2600)
	f.tick(1, monitor.Active)

	assert.Equal(t, breaks.Active, f.c.Control(breaks.Micro).State())
	assert.Equal(t, breaks.Inactive, f.c.Control(breaks.Rest).State())
}

func TestTimewarp(t *testing.T) {
	f := newFixture(t, nil)
	f.monitor.state = monitor.Active

	// exactly the threshold past the expected tick
	f.clock.advance(Tick + timewarpThreshold)
	f.c.Heartbeat()

	assert.Equal(t, 1, f.metrics.timewarps)
	assert.Equal(t, 1, f.monitor.forced)
	assert.Equal(t, []time.Duration{timewarpThreshold}, f.monitor.shifted)
	assert.Zero(t, f.c.Timer(breaks.Micro).Elapsed(), "time away is not work")
	assert.Equal(t, time.Second, f.c.Timer(breaks.Micro).ElapsedIdle())

	// one second short of the threshold is a normal, long tick
	f.clock.advance(timewarpThreshold)
	f.c.Heartbeat()

	assert.Equal(t, 1, f.metrics.timewarps)
	assert.Equal(t, timewarpThreshold, f.c.Timer(breaks.Micro).Elapsed())
}

func TestClockJitterCountsWholeSeconds(t *testing.T) {
	f := newFixture(t, nil)
	f.clock.advance(400 * time.Millisecond)
	f.monitor.state = monitor.Active

	for _, d := range []time.Duration{1100, 900, 1300, 700, 1050} {
		f.clock.advance(d * time.Millisecond)
		f.c.Heartbeat()
	}

	micro := f.c.Timer(breaks.Micro)
	assert.Zero(t, micro.Elapsed()%time.Second)
	assert.Equal(t, 5*time.Second, micro.Elapsed())

	now := f.clock.now().Truncate(time.Second)
	data := micro.StateData(now)

	restored := timer.New(breaks.Micro.String())
	restored.SetStateData(data)
	assert.Equal(t, data, restored.StateData(now))
	assert.Equal(t, micro.Elapsed(), restored.Elapsed())
}

func TestBackwardClockIsTimewarp(t *testing.T) {
	f := newFixture(t, nil)

	f.clock.advance(-time.Hour)
	f.c.Heartbeat()

	assert.Equal(t, 1, f.metrics.timewarps)
	require.Len(t, f.monitor.shifted, 1)
	assert.Equal(t, -time.Hour-Tick, f.monitor.shifted[0])
}

func TestExternalActivityExpires(t *testing.T) {
	f := newFixture(t, nil)

	f.c.ReportExternalActivity("vm", true)

	f.tick(9, monitor.Idle)
	assert.Equal(t, "active", f.c.Status(f.clock.now()).Activity)
	assert.Equal(t, 9*time.Second, f.c.Timer(breaks.Micro).Elapsed())

	f.tick(1, monitor.Idle)
	assert.Equal(t, "idle", f.c.Status(f.clock.now()).Activity)
	assert.Empty(t, f.c.external)

	f.c.ReportExternalActivity("vm", true)
	f.c.ReportExternalActivity("vm", false)
	assert.Empty(t, f.c.external)
}

func TestQuietIgnoresLimit(t *testing.T) {
	f := newFixture(t, nil)

	f.c.SetOperationMode(mode.Quiet)
	assert.Equal(t, "quiet", f.cfg.set[config.KeyOperationMode])

	f.setElapsed(breaks.Micro, 179)
	f.tick(1, monitor.Active)

	assert.Equal(t, breaks.Inactive, f.c.Control(breaks.Micro).State())
	assert.Zero(t, f.stats.count(breaks.Micro, breaks.EventPrompted))
}

func TestQuietStopsBreaks(t *testing.T) {
	f := newFixture(t, nil)

	require.NoError(t, f.c.ForceBreak(breaks.Rest, breaks.HintNormal))
	f.c.SetOperationModeOverride(mode.Quiet, "presentation")

	assert.Equal(t, breaks.Inactive, f.c.Control(breaks.Rest).State())
	assert.Equal(t, []mode.Mode{mode.Normal, mode.Quiet}, f.metrics.modes)
}

func TestSuspendedEffects(t *testing.T) {
	f := newFixture(t, nil)

	require.NoError(t, f.c.ForceBreak(breaks.Micro, breaks.HintNormal))
	f.c.SetOperationModeOverride(mode.Suspended, "lock")

	assert.Equal(t, breaks.Inactive, f.c.Control(breaks.Micro).State())
	assert.True(t, f.monitor.suspended)

	for _, id := range breaks.IDs {
		assert.True(t, f.c.Timer(id).Insensitive(), id.String())
	}

	f.monitor.suspended = false
	f.tick(5, monitor.Active)
	assert.Zero(t, f.c.Timer(breaks.Micro).Elapsed())

	f.c.RemoveOperationModeOverride("lock")
	assert.False(t, f.monitor.suspended)
	assert.False(t, f.c.Timer(breaks.Micro).Insensitive())

	f.tick(5, monitor.Active)
	assert.Equal(t, 5*time.Second, f.c.Timer(breaks.Micro).Elapsed())
}

func TestInsistHalt(t *testing.T) {
	f := newFixture(t, func(s *config.Settings) {
		s.InsistPolicy = config.InsistHalt
	})

	f.tick(3, monitor.Active)
	require.NoError(t, f.c.ForceBreak(breaks.Rest, breaks.HintNormal))

	f.tick(5, monitor.Active)
	assert.Equal(t, 3*time.Second, f.c.Timer(breaks.Micro).Elapsed(), "frozen while the break runs")

	require.NoError(t, f.c.PostponeBreak(breaks.Rest))

	f.tick(2, monitor.Active)
	assert.Equal(t, 5*time.Second, f.c.Timer(breaks.Micro).Elapsed())
}

func TestInsistHaltStopsDailyLimit(t *testing.T) {
	f := newFixture(t, func(s *config.Settings) {
		s.InsistPolicy = config.InsistHalt
	})

	f.tick(10, monitor.Active)
	require.Equal(t, 10*time.Second, f.c.Timer(breaks.Daily).Elapsed())

	require.NoError(t, f.c.ForceBreak(breaks.Rest, breaks.HintNormal))
	f.tick(60, monitor.Active)

	assert.Equal(t, 10*time.Second, f.c.Timer(breaks.Micro).Elapsed())
	assert.Equal(t, 10*time.Second, f.c.Timer(breaks.Daily).Elapsed())
}

func TestDailyLimitDisabledStillCountsActiveTime(t *testing.T) {
	f := newFixture(t, func(s *config.Settings) {
		s.Timers[breaks.Daily].Enabled = false
	})

	f.tick(120, monitor.Active)

	daily := f.c.Timer(breaks.Daily)
	assert.Equal(t, 120*time.Second, daily.Elapsed())
	assert.False(t, daily.LimitEnabled())

	f.c.flushStats(f.clock.now())
	assert.Equal(t, 120*time.Second, f.stats.activeTime)

	f.setElapsed(breaks.Daily, 4*3600)
	f.tick(1, monitor.Active)
	assert.Equal(t, breaks.Inactive, f.c.Control(breaks.Daily).State())

	status := f.c.Status(f.clock.now())
	assert.False(t, status.Breaks[breaks.Daily].Enabled)
}

func TestInsistIgnore(t *testing.T) {
	f := newFixture(t, func(s *config.Settings) {
		s.InsistPolicy = config.InsistIgnore
	})

	require.NoError(t, f.c.ForceBreak(breaks.Micro, breaks.HintNormal))
	assert.True(t, f.monitor.suspended)

	require.NoError(t, f.c.SkipBreak(breaks.Micro))
	assert.False(t, f.monitor.suspended)
}

func TestInsistPolicyChangeWhileTaking(t *testing.T) {
	f := newFixture(t, func(s *config.Settings) {
		s.InsistPolicy = config.InsistHalt
	})

	require.NoError(t, f.c.ForceBreak(breaks.Micro, breaks.HintNormal))

	f.c.SetInsistPolicy(config.InsistIgnore)
	assert.True(t, f.monitor.suspended)

	f.monitor.suspended = false
	f.tick(2, monitor.Active)
	assert.Equal(t, 2*time.Second, f.c.Timer(breaks.Rest).Elapsed(), "timers thawed")
}

func TestDailyReset(t *testing.T) {
	f := newFixture(t, nil)

	f.setElapsed(breaks.Micro, 100)

	d := f.c.Timer(breaks.Rest).StateData(f.clock.now())
	d.TotalOverdueTime = 40
	f.c.Timer(breaks.Rest).SetStateData(d)

	require.NoError(t, f.c.ForceBreak(breaks.Daily, breaks.HintNormal))
	require.NoError(t, f.c.SkipBreak(breaks.Daily))
	f.tick(1, monitor.Idle)

	assert.Equal(t, 1, f.stats.newDays)
	assert.Equal(t, 40*time.Second, f.stats.overdue[breaks.Rest])

	for _, id := range breaks.IDs {
		assert.Zero(t, f.c.Timer(id).Elapsed(), id.String())
		assert.Zero(t, f.c.Timer(id).TotalOverdue(), id.String())
	}

	_, err := os.Stat(f.c.statePath)
	assert.NoError(t, err, "state saved after a daily reset")
}

func TestNaturalResetCountsTaken(t *testing.T) {
	f := newFixture(t, nil)

	f.setElapsed(breaks.Micro, 179)
	f.tick(1, monitor.Active)
	require.Equal(t, breaks.Active, f.c.Control(breaks.Micro).State())

	f.tick(30, monitor.Idle)

	assert.Equal(t, breaks.Inactive, f.c.Control(breaks.Micro).State())
	assert.Equal(t, 1, f.stats.count(breaks.Micro, breaks.EventTaken))
	assert.Equal(t, 1, f.stats.count(breaks.Micro, breaks.EventNaturalTaken))
}

func TestInvalidBreakID(t *testing.T) {
	f := newFixture(t, nil)

	assert.ErrorIs(t, f.c.ForceBreak(breaks.ID(7), breaks.HintNormal), errInvalidBreak)
	assert.ErrorIs(t, f.c.SkipBreak(breaks.None), errInvalidBreak)
	assert.ErrorIs(t, f.c.ApplyCommand(dist.Command{Break: 5, Op: dist.OpSkip}), errInvalidBreak)
}

func TestPowersave(t *testing.T) {
	f := newFixture(t, nil)

	f.c.SetPowersave(true)
	assert.Equal(t, mode.Suspended, f.c.OperationMode())
	assert.Equal(t, []string{powersaveOverride}, f.c.Modes().Overrides())
	assert.Equal(t, 1, f.stats.flushes)

	_, err := os.Stat(f.c.statePath)
	assert.NoError(t, err)

	f.c.SetPowersave(false)
	assert.Equal(t, mode.Normal, f.c.OperationMode())
	assert.Empty(t, f.c.Modes().Overrides())
}

func TestReadingModeCountsWithoutInput(t *testing.T) {
	f := newFixture(t, nil)

	f.c.SetUsageMode(mode.UsageReading)
	assert.Equal(t, "reading", f.cfg.set[config.KeyUsageMode])

	f.tick(4, monitor.Idle)
	assert.Equal(t, 4*time.Second, f.c.Timer(breaks.Rest).Elapsed())

	f.c.SetUsageMode(mode.UsageNormal)
	f.tick(2, monitor.Idle)
	assert.Equal(t, 4*time.Second, f.c.Timer(breaks.Rest).Elapsed())
}

func TestPrimaryBroadcasts(t *testing.T) {
	f := newFixture(t, nil)

	f.tick(4, monitor.Active)
	assert.Equal(t, []dist.Kind{dist.KindTimers, dist.KindBreaks, dist.KindMonitor}, f.link.kinds())

	f.link.sent = nil

	require.NoError(t, f.c.ForceBreak(breaks.Micro, breaks.HintUserInitiated))
	assert.Equal(t, []dist.Kind{dist.KindBreakControl}, f.link.kinds())

	cmds, err := dist.DecodeCommands(f.link.sent[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, []dist.Command{{Break: breaks.Micro, Op: dist.OpStartBreak, Hint: breaks.HintUserInitiated}}, cmds)

	// a transition is published on the next tick
	f.link.sent = nil
	f.tick(1, monitor.Active)
	assert.Equal(t, []dist.Kind{dist.KindTimers, dist.KindBreaks, dist.KindMonitor}, f.link.kinds())
}

func TestPeerCommandIsNotSentOn(t *testing.T) {
	f := newFixture(t, nil)

	require.NoError(t, f.c.ApplyCommand(dist.Command{Break: breaks.Rest, Op: dist.OpStartBreak}))
	assert.Equal(t, breaks.Active, f.c.Control(breaks.Rest).State())

	require.NoError(t, f.c.ApplyCommand(dist.Command{Break: breaks.Rest, Op: dist.OpPostpone}))
	assert.Equal(t, breaks.Inactive, f.c.Control(breaks.Rest).State())
	assert.Equal(t, breaks.StageSnoozed, f.c.Control(breaks.Rest).Stage())

	assert.Empty(t, f.link.kinds())
}

func TestReplicaAppliesState(t *testing.T) {
	f := newFixture(t, func(s *config.Settings) {
		s.Distribution.Role = config.RoleReplica
	})

	err := dist.Dispatch(dist.EncodeTimers([]dist.TimerRecord{
		{ID: "rest_break", Data: timer.StateData{ElapsedTime: 42}},
		{ID: "coffee", Data: timer.StateData{ElapsedTime: 1}},
	}), f.c)
	assert.ErrorIs(t, err, errUnknownTimer)
	assert.Equal(t, 42*time.Second, f.c.Timer(breaks.Rest).Elapsed())

	f.c.ApplyBreakState(breaks.Daily, breaks.StateData{Stage: breaks.StageTaking})
	assert.Equal(t, breaks.Active, f.c.Control(breaks.Daily).State())

	f.c.ApplyMonitorState(monitor.Active)
	f.tick(1, monitor.Idle)
	assert.Equal(t, "active", f.c.Status(f.clock.now()).Activity)

	f.tick(5, monitor.Idle)
	assert.Empty(t, f.link.kinds(), "replicas do not broadcast state")
}

func TestPrimaryIgnoresPeerState(t *testing.T) {
	f := newFixture(t, nil)

	require.NoError(t, f.c.ApplyTimerState("rest_break", timer.StateData{ElapsedTime: 42}))
	f.c.ApplyMonitorState(monitor.Active)

	assert.Zero(t, f.c.Timer(breaks.Rest).Elapsed())
	assert.Equal(t, monitor.Idle, f.c.remote)
}

func TestStatusFile(t *testing.T) {
	f := newFixture(t, nil)

	f.c.SetOperationModeOverride(mode.Quiet, "meeting")
	f.tick(1, monitor.Active)

	s, err := ReadStatus(f.c.statusPath)
	require.NoError(t, err)

	assert.Equal(t, "quiet", s.Mode)
	assert.Equal(t, "normal", s.Regular)
	assert.Equal(t, []Override{{ID: "meeting", Mode: "quiet"}}, s.Overrides)
	assert.Equal(t, "primary", s.Role)
	require.Len(t, s.Breaks, breaks.Count)
	assert.Equal(t, "rest_break", s.Breaks[breaks.Rest].ID)
	assert.Equal(t, time.Second, s.Breaks[breaks.Rest].Elapsed)
	assert.Equal(t, 2700*time.Second, s.Breaks[breaks.Rest].Limit)
}

func TestSaveAndLoadState(t *testing.T) {
	f := newFixture(t, nil)

	f.tick(20, monitor.Active)
	f.c.saveState(f.clock.now())

	g := newFixture(t, nil)
	g.c.statePath = f.c.statePath
	g.clock.t = f.clock.now()
	g.c.LoadState()

	for _, id := range breaks.IDs {
		assert.Equal(t, f.c.Timer(id).Elapsed(), g.c.Timer(id).Elapsed(), id.String())
	}

	// a missing file leaves the timers alone
	h := newFixture(t, nil)
	h.c.LoadState()
	assert.Zero(t, h.c.Timer(breaks.Micro).Elapsed())
}

func TestStateSavedEveryMinute(t *testing.T) {
	f := newFixture(t, nil)

	f.tick(saveInterval-2, monitor.Active)
	_, err := os.Stat(f.c.statePath)
	assert.ErrorIs(t, err, os.ErrNotExist)

	f.tick(1, monitor.Active)
	_, err = os.Stat(f.c.statePath)
	assert.NoError(t, err)
	assert.Equal(t, 1, f.stats.flushes)
	assert.Equal(t, time.Duration(saveInterval-1)*time.Second, f.stats.activeTime)
}

func TestConfigChangesApplyOnLoop(t *testing.T) {
	f := newFixture(t, nil)

	f.cfg.s.Timers[breaks.Micro].Limit = 5 * time.Minute
	f.cfg.s.OperationMode = mode.Quiet

	f.cfg.fire(config.TimerKey(breaks.Micro, config.FieldLimit))
	f.cfg.fire(config.KeyOperationMode)

	assert.Equal(t, 180*time.Second, f.c.Timer(breaks.Micro).Limit(), "nothing applied off the loop")

	for len(f.c.commands) > 0 {
		(<-f.c.commands)()
	}

	assert.Equal(t, 5*time.Minute, f.c.Timer(breaks.Micro).Limit())
	assert.Equal(t, mode.Quiet, f.c.OperationMode())
	assert.NotContains(t, f.cfg.set, config.KeyOperationMode, "file changes are not written back")
}

func TestRun(t *testing.T) {
	f := newFixture(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- f.c.Run(ctx) }()

	err := f.c.Do(ctx, func() error {
		return f.c.ForceBreak(breaks.Rest, breaks.HintUserInitiated)
	})
	require.NoError(t, err)

	err = f.c.Do(ctx, func() error {
		if f.c.Control(breaks.Rest).State() != breaks.Active {
			return assert.AnError
		}

		return nil
	})
	assert.NoError(t, err)

	f.link.inbound <- dist.EncodeCommands(dist.Command{Break: breaks.Rest, Op: dist.OpSkip})

	assert.Eventually(t, func() bool {
		var state breaks.State

		_ = f.c.Do(ctx, func() error {
			state = f.c.Control(breaks.Rest).State()
			return nil
		})

		return state == breaks.Inactive
	}, time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	assert.ErrorIs(t, f.c.Do(context.Background(), func() error { return nil }), errStopped)

	_, err = os.Stat(f.c.statePath)
	assert.NoError(t, err, "state saved on shutdown")
}

func TestExpandFormatsNotificationText(t *testing.T) {
	f := newFixture(t, nil)

	assert.Equal(t, "Rest break soon", f.c.Expand("%b soon", breaks.Rest))
	assert.Equal(t, "Daily limit", f.c.Expand("%b", breaks.Daily))
}
