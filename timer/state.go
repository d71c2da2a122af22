package timer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// StateVersion is the version of the text produced by SerializeState.
const StateVersion = 3

var errShortState = errors.New("timer state has too few fields")

// fields required after the id for each state version
var stateFields = map[int]int{
	1: 1,
	2: 3,
	3: 7,
}

// StateData is the timer state exchanged with peers. Times are unix seconds
// and durations are whole seconds.
type StateData struct {
	CurrentTime       int64
	ElapsedTime       int64
	ElapsedIdleTime   int64
	LastPredResetTime int64
	TotalOverdueTime  int64
	LastLimitTime     int64
	LastLimitElapsed  int64
	SnoozeInhibited   bool
}

// StateData captures the current state at now.
func (t *Timer) StateData(now time.Time) StateData {
	return StateData{
		CurrentTime:       now.Unix(),
		ElapsedTime:       seconds(t.elapsed),
		ElapsedIdleTime:   seconds(t.idle),
		LastPredResetTime: unix(t.lastReset),
		TotalOverdueTime:  seconds(t.overdue),
		LastLimitTime:     unix(t.lastLimitTime),
		LastLimitElapsed:  seconds(t.lastLimitElapsed),
		SnoozeInhibited:   t.snoozeInhibited,
	}
}

// SetStateData replaces the counters with d.
func (t *Timer) SetStateData(d StateData) {
	t.elapsed = time.Duration(d.ElapsedTime) * time.Second
	t.idle = time.Duration(d.ElapsedIdleTime) * time.Second
	t.overdue = time.Duration(d.TotalOverdueTime) * time.Second
	t.lastReset = fromUnix(d.LastPredResetTime)
	t.lastLimitTime = fromUnix(d.LastLimitTime)
	t.lastLimitElapsed = time.Duration(d.LastLimitElapsed) * time.Second
	t.snoozeInhibited = d.SnoozeInhibited
	t.limitFired = t.limitEnabled && t.elapsed >= t.limit
	t.idleResetDone = t.elapsed == 0 && t.idle > 0
}

// SerializeState encodes the timer as a single line starting with its id.
func (t *Timer) SerializeState() string {
	inhibited := 0
	if t.snoozeInhibited {
		inhibited = 1
	}

	return fmt.Sprintf(
		"%s %d %d %d %d %d %d %d",
		t.id,
		seconds(t.elapsed),
		seconds(t.idle),
		unix(t.lastReset),
		seconds(t.overdue),
		unix(t.lastLimitTime),
		seconds(t.lastLimitElapsed),
		inhibited,
	)
}

// DeserializeState restores the fields following the id of a line written at
// saved in the given version. Time spent while the program was not running
// counts as idle time.
func (t *Timer) DeserializeState(fields []string, version int, saved, now time.Time) error {
	want, ok := stateFields[version]
	if !ok {
		return fmt.Errorf("unsupported timer state version %d", version)
	}

	if len(fields) < want {
		return fmt.Errorf("%w: got %d, want %d", errShortState, len(fields), want)
	}

	v := make([]int64, want)

	for i := range v {
		n, err := strconv.ParseInt(strings.TrimSpace(fields[i]), 10, 64)
		if err != nil {
			return fmt.Errorf("timer state field %d: %w", i, err)
		}

		v[i] = n
	}

	d := StateData{ElapsedTime: v[0]}

	if version >= 2 {
		d.ElapsedIdleTime = v[1]
		d.LastPredResetTime = v[2]
	}

	if version >= 3 {
		d.TotalOverdueTime = v[3]
		d.LastLimitTime = v[4]
		d.LastLimitElapsed = v[5]
		d.SnoozeInhibited = v[6] != 0
	}

	t.SetStateData(d)
	t.running = false
	t.limitFired = false
	t.lastProcess = now

	if away := now.Sub(saved); away > 0 {
		t.idle += away
	}

	if t.autoResetEnabled && t.idle >= t.autoReset {
		t.elapsed = 0
		t.limitFired = false
		t.idleResetDone = true
		t.lastReset = now
	}

	if t.hasDailyReset && !nextBoundary(saved, t.resetHour, t.resetMinute).After(now) {
		t.DailyReset()
		t.lastReset = now
	}

	return nil
}

func seconds(d time.Duration) int64 {
	return int64(d / time.Second)
}

func unix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}

	return t.Unix()
}

func fromUnix(s int64) time.Time {
	if s == 0 {
		return time.Time{}
	}

	return time.Unix(s, 0)
}
