package dist

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/ayoisaiah/respite/breaks"
	"github.com/ayoisaiah/respite/monitor"
	"github.com/ayoisaiah/respite/timer"
)

func TestTimerRoundTrip(t *testing.T) {
	now := time.Unix(1709287200, 0)

	src := timer.New("rest_break")
	src.SetLimit(45 * time.Minute)
	src.Process(monitor.Idle, now)

	for i := 1; i <= 4000; i++ {
		state := monitor.Active
		if i%7 == 0 {
			state = monitor.Idle
		}

		src.Process(state, now.Add(time.Duration(i)*time.Second))
	}

	now = now.Add(4000 * time.Second)
	for i := 1; i <= 4; i++ {
		src.Process(monitor.Idle, now.Add(time.Duration(i)*time.Second))
	}

	now = now.Add(4 * time.Second)

	msg := EncodeTimers([]TimerRecord{{ID: src.ID(), Data: src.StateData(now)}})
	records, err := DecodeTimers(msg.Payload)
	require.NoError(t, err)
	require.Len(t, records, 1)

	dst := timer.New(records[0].ID)
	dst.SetLimit(45 * time.Minute)
	dst.SetStateData(records[0].Data)

	assert.Equal(t, "rest_break", dst.ID())
	assert.Equal(t, src.Elapsed(), dst.Elapsed())
	assert.Equal(t, src.ElapsedIdle(), dst.ElapsedIdle())
	assert.Equal(t, src.TotalOverdue(), dst.TotalOverdue())
	assert.NotZero(t, dst.TotalOverdue())

	if diff := cmp.Diff(src.StateData(now), dst.StateData(now)); diff != "" {
		t.Fatal(diff)
	}
}

func TestTimerRecordLayout(t *testing.T) {
	msg := EncodeTimers([]TimerRecord{{ID: "ab", Data: timer.StateData{ElapsedTime: 5}}})

	want := []byte{
		0, 1, // count
		0, 2, 'a', 'b', // id
		0, 30, // record length
		0, 0, 0, 0,
		0, 0, 0, 5,
		0, 0, 0, 0,
		0, 0, 0, 0,
		0, 0, 0, 0,
		0, 0, 0, 0,
		0, 0, 0, 0,
		0, 0,
	}

	assert.Equal(t, want, msg.Payload)
}

func TestDecodeTimersSkipsUnknownTrailingFields(t *testing.T) {
	var p Buffer

	p.PackUshort(2)

	p.PackString("micro_pause")
	pos := p.Reserve()
	for _, v := range []uint32{100, 42, 3, 0, 7, 0, 0} {
		p.PackUlong(v)
	}
	p.PackUshort(1)
	p.PackUlong(0xdeadbeef) // field from a newer sender
	p.CloseRecord(pos)

	p.PackString("rest_break")
	pos = p.Reserve()
	p.PackUlong(100)
	p.PackUlong(9) // older sender stops early
	p.CloseRecord(pos)

	records, err := DecodeTimers(p.Bytes())
	require.NoError(t, err)

	want := []TimerRecord{
		{ID: "micro_pause", Data: timer.StateData{
			CurrentTime: 100, ElapsedTime: 42, ElapsedIdleTime: 3,
			TotalOverdueTime: 7, SnoozeInhibited: true,
		}},
		{ID: "rest_break", Data: timer.StateData{CurrentTime: 100, ElapsedTime: 9}},
	}

	if diff := cmp.Diff(want, records); diff != "" {
		t.Fatal(diff)
	}
}

func TestDecodeTimersMalformedRecord(t *testing.T) {
	var p Buffer

	p.PackUshort(3)

	p.PackString("")
	pos := p.Reserve()
	p.PackUlong(1)
	p.CloseRecord(pos)

	p.PackString("rest_break")
	pos = p.Reserve()
	p.PackUlong(1)
	p.PackUlong(60)
	p.CloseRecord(pos)

	p.PackString("daily_limit")
	p.PackUshort(40) // longer than what follows

	records, err := DecodeTimers(p.Bytes())

	require.Len(t, records, 1)
	assert.Equal(t, "rest_break", records[0].ID)
	assert.Equal(t, int64(60), records[0].Data.ElapsedTime)

	errs := multierr.Errors(err)
	require.Len(t, errs, 2)
	assert.ErrorIs(t, errs[0], errEmptyID)
	assert.ErrorIs(t, errs[1], ErrShortBuffer)
}

func TestBreakRoundTrip(t *testing.T) {
	states := []breaks.StateData{
		{},
		{Forced: true, PreludeCount: 2, Stage: breaks.StageTaking},
		{ReachedMaxPrelude: true, PreludeCount: 3, Stage: breaks.StagePrelude, PreludeTime: 12},
	}

	msg := EncodeBreaks(states)
	assert.Equal(t, KindBreaks, msg.Kind)

	records, err := DecodeBreaks(msg.Payload)
	require.NoError(t, err)
	require.Len(t, records, 3)

	for i, rec := range records {
		assert.Equal(t, breaks.ID(i), rec.ID)
		assert.Equal(t, states[i], rec.Data)
	}
}

func TestDecodeBreaksBadStage(t *testing.T) {
	msg := EncodeBreaks([]breaks.StateData{
		{Stage: breaks.Stage(9)},
		{Stage: breaks.StageSnoozed},
	})

	records, err := DecodeBreaks(msg.Payload)
	assert.ErrorIs(t, err, errBadStage)
	require.Len(t, records, 1)
	assert.Equal(t, breaks.Rest, records[0].ID)
}

func TestMonitorRoundTrip(t *testing.T) {
	for _, s := range []monitor.State{monitor.Idle, monitor.Active} {
		got, err := DecodeMonitor(EncodeMonitor(s).Payload)
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	_, err := DecodeMonitor([]byte{0})
	assert.ErrorIs(t, err, ErrShortBuffer)
}

func TestDecodeCommands(t *testing.T) {
	var p Buffer

	// four byte record, no hint
	pos := p.Reserve()
	p.PackUshort(uint16(breaks.Micro))
	p.PackUshort(uint16(OpPostpone))
	p.CloseRecord(pos)

	// five byte record, byte hint
	pos = p.Reserve()
	p.PackUshort(uint16(breaks.Rest))
	p.PackUshort(uint16(OpStartBreak))
	p.PackByte(uint8(breaks.HintUserInitiated))
	p.CloseRecord(pos)

	// six byte record, ushort hint
	pos = p.Reserve()
	p.PackUshort(uint16(breaks.Daily))
	p.PackUshort(uint16(OpStartBreak))
	p.PackUshort(uint16(breaks.HintNaturalBreak))
	p.CloseRecord(pos)

	// bare start
	pos = p.Reserve()
	p.PackUshort(uint16(breaks.Micro))
	p.PackUshort(uint16(OpStartBreak))
	p.CloseRecord(pos)

	// start with the user flag cleared
	pos = p.Reserve()
	p.PackUshort(uint16(breaks.Rest))
	p.PackUshort(uint16(OpStartBreak))
	p.PackByte(0)
	p.CloseRecord(pos)

	// unknown break
	pos = p.Reserve()
	p.PackUshort(9)
	p.PackUshort(uint16(OpSkip))
	p.CloseRecord(pos)

	// too short
	pos = p.Reserve()
	p.PackUshort(1)
	p.CloseRecord(pos)

	cmds, err := DecodeCommands(p.Bytes())

	want := []Command{
		{Break: breaks.Micro, Op: OpPostpone},
		{Break: breaks.Rest, Op: OpStartBreak, Hint: breaks.HintUserInitiated},
		{Break: breaks.Daily, Op: OpStartBreak, Hint: breaks.HintNaturalBreak},
		{Break: breaks.Micro, Op: OpStartBreak, Hint: breaks.HintUserInitiated},
		{Break: breaks.Rest, Op: OpStartBreak, Hint: breaks.HintNormal},
	}
	assert.Equal(t, want, cmds)

	errs := multierr.Errors(err)
	require.Len(t, errs, 2)
	assert.ErrorIs(t, errs[0], errBadBreak)
	assert.ErrorIs(t, errs[1], errShortCommand)
}

func TestEncodeCommands(t *testing.T) {
	msg := EncodeCommands(
		Command{Break: breaks.Rest, Op: OpSkip},
		Command{Break: breaks.Micro, Op: OpStartBreak, Hint: breaks.HintUserInitiated},
		Command{Break: breaks.Daily, Op: OpStartBreak, Hint: breaks.HintNaturalBreak},
	)

	want := []byte{
		0, 4, 0, 1, 0, 1,
		0, 5, 0, 0, 0, 3, 1,
		0, 6, 0, 2, 0, 3, 0, 2,
	}
	assert.Equal(t, want, msg.Payload)
}

type fakeApplier struct {
	timers   []string
	breaks   []breaks.ID
	monitor  []monitor.State
	commands []Command
	fail     error
}

func (f *fakeApplier) ApplyTimerState(id string, _ timer.StateData) error {
	f.timers = append(f.timers, id)
	return f.fail
}

func (f *fakeApplier) ApplyBreakState(id breaks.ID, _ breaks.StateData) {
	f.breaks = append(f.breaks, id)
}

func (f *fakeApplier) ApplyMonitorState(s monitor.State) {
	f.monitor = append(f.monitor, s)
}

func (f *fakeApplier) ApplyCommand(c Command) error {
	f.commands = append(f.commands, c)
	return nil
}

func TestDispatch(t *testing.T) {
	a := &fakeApplier{}

	require.NoError(t, Dispatch(EncodeTimers([]TimerRecord{{ID: "a"}, {ID: "b"}}), a))
	require.NoError(t, Dispatch(EncodeBreaks([]breaks.StateData{{}, {}}), a))
	require.NoError(t, Dispatch(EncodeMonitor(monitor.Active), a))
	require.NoError(t, Dispatch(EncodeCommands(Command{Break: breaks.Rest, Op: OpSkip}), a))

	assert.Equal(t, []string{"a", "b"}, a.timers)
	assert.Equal(t, []breaks.ID{breaks.Micro, breaks.Rest}, a.breaks)
	assert.Equal(t, []monitor.State{monitor.Active}, a.monitor)
	assert.Equal(t, []Command{{Break: breaks.Rest, Op: OpSkip}}, a.commands)

	a.fail = errors.New("unknown timer")
	err := Dispatch(EncodeTimers([]TimerRecord{{ID: "x"}, {ID: "y"}}), a)
	assert.Len(t, multierr.Errors(err), 2)
	assert.Equal(t, []string{"a", "b", "x", "y"}, a.timers, "one failure does not stop the rest")

	assert.Error(t, Dispatch(Message{Kind: Kind(99)}, a))
}

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer

	msg := EncodeCommands(Command{Break: breaks.Micro, Op: OpAbortPrelude})
	require.NoError(t, WriteFrame(&buf, msg))
	require.NoError(t, WriteFrame(&buf, EncodeMonitor(monitor.Idle)))

	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, msg, got)

	got, err = ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, KindMonitor, got.Kind)

	_, err = ReadFrame(&buf)
	assert.Error(t, err)
}

func TestParseOp(t *testing.T) {
	op, err := ParseOp("stop-prelude")
	require.NoError(t, err)
	assert.Equal(t, OpAbortPrelude, op)

	_, err = ParseOp("dance")
	assert.Error(t, err)
}
