package dist

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/ayoisaiah/respite/breaks"
	"github.com/ayoisaiah/respite/monitor"
	"github.com/ayoisaiah/respite/timer"
)

// Kind identifies the records carried by a message.
type Kind uint16

const (
	KindBreaks Kind = iota + 1
	KindTimers
	KindMonitor
	KindBreakControl
)

func (k Kind) String() string {
	switch k {
	case KindBreaks:
		return "breaks"
	case KindTimers:
		return "timers"
	case KindMonitor:
		return "monitor"
	case KindBreakControl:
		return "break-control"
	default:
		return fmt.Sprintf("kind(%d)", uint16(k))
	}
}

// Op is a break control command.
type Op uint16

const (
	OpPostpone Op = iota
	OpSkip
	OpAbortPrelude
	OpStartBreak
)

func (o Op) String() string {
	switch o {
	case OpPostpone:
		return "postpone"
	case OpSkip:
		return "skip"
	case OpAbortPrelude:
		return "stop-prelude"
	case OpStartBreak:
		return "force"
	default:
		return fmt.Sprintf("op(%d)", uint16(o))
	}
}

// ParseOp converts a command name used on the command line.
func ParseOp(s string) (Op, error) {
	for _, o := range []Op{OpPostpone, OpSkip, OpAbortPrelude, OpStartBreak} {
		if o.String() == s {
			return o, nil
		}
	}

	return 0, fmt.Errorf("unknown break command %q", s)
}

var (
	errEmptyID      = errors.New("timer record without id")
	errBadBreak     = errors.New("break id out of range")
	errBadStage     = errors.New("break stage out of range")
	errShortCommand = errors.New("break control record too short")
	errUnknownOp    = errors.New("unknown break control command")
)

// Message is a kind followed by its records.
type Message struct {
	Kind    Kind
	Payload []byte
}

// TimerRecord is the state of one timer.
type TimerRecord struct {
	ID   string
	Data timer.StateData
}

// BreakRecord is the state of one break control.
type BreakRecord struct {
	ID   breaks.ID
	Data breaks.StateData
}

// Command asks a peer to act on one of its breaks.
type Command struct {
	Break breaks.ID
	Op    Op
	Hint  breaks.Hint
}

// EncodeTimers packs the state of every timer.
func EncodeTimers(records []TimerRecord) Message {
	var p Buffer

	p.PackUshort(uint16(len(records)))

	for _, rec := range records {
		d := rec.Data

		p.PackString(rec.ID)
		pos := p.Reserve()
		p.PackUlong(uint32(d.CurrentTime))
		p.PackUlong(uint32(d.ElapsedTime))
		p.PackUlong(uint32(d.ElapsedIdleTime))
		p.PackUlong(uint32(d.LastPredResetTime))
		p.PackUlong(uint32(d.TotalOverdueTime))
		p.PackUlong(uint32(d.LastLimitTime))
		p.PackUlong(uint32(d.LastLimitElapsed))

		var inhibited uint16
		if d.SnoozeInhibited {
			inhibited = 1
		}

		p.PackUshort(inhibited)
		p.CloseRecord(pos)
	}

	return Message{Kind: KindTimers, Payload: p.Bytes()}
}

// DecodeTimers unpacks timer records. Records that cannot be used are
// skipped and reported in the returned error; a truncated message stops the
// decode.
func DecodeTimers(payload []byte) ([]TimerRecord, error) {
	r := NewReader(payload)
	count := int(r.Ushort())

	var (
		records []TimerRecord
		errs    error
	)

	for i := 0; i < count; i++ {
		id := r.Str()
		rec := r.Record()

		if r.Err() != nil {
			return records, multierr.Append(errs, fmt.Errorf("timer record %d: %w", i, r.Err()))
		}

		if id == "" {
			errs = multierr.Append(errs, fmt.Errorf("timer record %d: %w", i, errEmptyID))
			continue
		}

		records = append(records, TimerRecord{
			ID: id,
			Data: timer.StateData{
				CurrentTime:       int64(rec.OptUlong()),
				ElapsedTime:       int64(rec.OptUlong()),
				ElapsedIdleTime:   int64(rec.OptUlong()),
				LastPredResetTime: int64(rec.OptUlong()),
				TotalOverdueTime:  int64(rec.OptUlong()),
				LastLimitTime:     int64(rec.OptUlong()),
				LastLimitElapsed:  int64(rec.OptUlong()),
				SnoozeInhibited:   rec.OptUshort() != 0,
			},
		})
	}

	return records, errs
}

// EncodeBreaks packs the state of every break control, in id order.
func EncodeBreaks(states []breaks.StateData) Message {
	var p Buffer

	p.PackUshort(uint16(len(states)))

	for _, d := range states {
		pos := p.Reserve()
		p.PackBool(d.Forced)
		p.PackBool(d.ReachedMaxPrelude)
		p.PackUlong(uint32(d.PreludeCount))
		p.PackUlong(uint32(d.Stage))
		p.PackUlong(uint32(d.PreludeTime))
		p.CloseRecord(pos)
	}

	return Message{Kind: KindBreaks, Payload: p.Bytes()}
}

// DecodeBreaks unpacks break records. An empty record means the sender has
// nothing for that break.
func DecodeBreaks(payload []byte) ([]BreakRecord, error) {
	r := NewReader(payload)
	count := int(r.Ushort())

	var (
		records []BreakRecord
		errs    error
	)

	for i := 0; i < count; i++ {
		rec := r.Record()

		if r.Err() != nil {
			return records, multierr.Append(errs, fmt.Errorf("break record %d: %w", i, r.Err()))
		}

		if rec.Remaining() == 0 {
			continue
		}

		id := breaks.ID(i)
		if !id.Valid() {
			errs = multierr.Append(errs, fmt.Errorf("break record %d: %w", i, errBadBreak))
			continue
		}

		d := breaks.StateData{
			Forced:            rec.OptByte() != 0,
			ReachedMaxPrelude: rec.OptByte() != 0,
			PreludeCount:      int(rec.OptUlong()),
			Stage:             breaks.Stage(rec.OptUlong()),
			PreludeTime:       int(rec.OptUlong()),
		}

		if d.Stage < breaks.StageNone || d.Stage > breaks.StageTaking {
			errs = multierr.Append(errs, fmt.Errorf("break record %d: %w", i, errBadStage))
			continue
		}

		records = append(records, BreakRecord{ID: id, Data: d})
	}

	return records, errs
}

// EncodeMonitor packs the activity state.
func EncodeMonitor(s monitor.State) Message {
	var p Buffer

	pos := p.Reserve()
	p.PackUshort(uint16(s))
	p.CloseRecord(pos)

	return Message{Kind: KindMonitor, Payload: p.Bytes()}
}

func DecodeMonitor(payload []byte) (monitor.State, error) {
	r := NewReader(payload)
	rec := r.Record()

	if r.Err() != nil {
		return monitor.Idle, fmt.Errorf("monitor record: %w", r.Err())
	}

	if monitor.State(rec.OptUshort()) == monitor.Active {
		return monitor.Active, nil
	}

	return monitor.Idle, nil
}

// EncodeCommands packs break control commands. A start command carries its
// hint in a trailing byte, or a ushort for hints older peers cannot express.
func EncodeCommands(cmds ...Command) Message {
	var p Buffer

	for _, c := range cmds {
		pos := p.Reserve()
		p.PackUshort(uint16(c.Break))
		p.PackUshort(uint16(c.Op))

		if c.Op == OpStartBreak {
			if c.Hint > breaks.HintUserInitiated {
				p.PackUshort(uint16(c.Hint))
			} else {
				p.PackByte(uint8(c.Hint))
			}
		}

		p.CloseRecord(pos)
	}

	return Message{Kind: KindBreakControl, Payload: p.Bytes()}
}

// DecodeCommands unpacks break control records. The hint is a ushort when the
// record is six bytes or longer. A five byte record carries a user initiated
// flag instead, and a start without either is user initiated.
func DecodeCommands(payload []byte) ([]Command, error) {
	r := NewReader(payload)

	var (
		cmds []Command
		errs error
	)

	for i := 0; r.Remaining() > 0; i++ {
		rec := r.Record()

		if r.Err() != nil {
			return cmds, multierr.Append(errs, fmt.Errorf("command %d: %w", i, r.Err()))
		}

		n := rec.Remaining()
		if n < 4 {
			errs = multierr.Append(errs, fmt.Errorf("command %d: %w", i, errShortCommand))
			continue
		}

		c := Command{
			Break: breaks.ID(rec.Ushort()),
			Op:    Op(rec.Ushort()),
		}

		switch {
		case n >= 6:
			c.Hint = breaks.Hint(rec.Ushort())
		case n == 5 && rec.Byte() == 0:
			c.Hint = breaks.HintNormal
		case c.Op == OpStartBreak:
			// a bare start, or a start flagged as user initiated
			c.Hint = breaks.HintUserInitiated
		}

		if !c.Break.Valid() {
			errs = multierr.Append(errs, fmt.Errorf("command %d: %w", i, errBadBreak))
			continue
		}

		if c.Op > OpStartBreak {
			errs = multierr.Append(errs, fmt.Errorf("command %d: %w", i, errUnknownOp))
			continue
		}

		cmds = append(cmds, c)
	}

	return cmds, errs
}

// Applier receives decoded state. The core implements it with the same
// operations local actions use.
type Applier interface {
	ApplyTimerState(id string, d timer.StateData) error
	ApplyBreakState(id breaks.ID, d breaks.StateData)
	ApplyMonitorState(s monitor.State)
	ApplyCommand(c Command) error
}

// Dispatch decodes msg and hands every usable record to a. Errors from
// individual records are combined; the remaining records still apply.
func Dispatch(msg Message, a Applier) error {
	switch msg.Kind {
	case KindTimers:
		records, errs := DecodeTimers(msg.Payload)
		for _, rec := range records {
			errs = multierr.Append(errs, a.ApplyTimerState(rec.ID, rec.Data))
		}

		return errs
	case KindBreaks:
		records, errs := DecodeBreaks(msg.Payload)
		for _, rec := range records {
			a.ApplyBreakState(rec.ID, rec.Data)
		}

		return errs
	case KindMonitor:
		s, err := DecodeMonitor(msg.Payload)
		if err != nil {
			return err
		}

		a.ApplyMonitorState(s)

		return nil
	case KindBreakControl:
		cmds, errs := DecodeCommands(msg.Payload)
		for _, c := range cmds {
			errs = multierr.Append(errs, a.ApplyCommand(c))
		}

		return errs
	}

	return fmt.Errorf("unknown message kind %s", msg.Kind)
}
