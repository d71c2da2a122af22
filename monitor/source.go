package monitor

import (
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/screensaver"
	"github.com/jezek/xgb/xproto"
)

// ErrIdleUnsupported is returned when no idle source works on this system.
var ErrIdleUnsupported = errors.New("idle detection is not supported on this system")

// X11Source reads the time since the last input event from the X screensaver
// extension.
type X11Source struct {
	conn *xgb.Conn
	root xproto.Window
}

// NewX11Source connects to the X server named by $DISPLAY.
func NewX11Source() (*X11Source, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connecting to X server: %w", err)
	}

	if err := screensaver.Init(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("screensaver extension: %w", err)
	}

	root := xproto.Setup(conn).DefaultScreen(conn).Root

	return &X11Source{conn: conn, root: root}, nil
}

func (s *X11Source) SinceInput() (time.Duration, error) {
	info, err := screensaver.QueryInfo(s.conn, xproto.Drawable(s.root)).Reply()
	if err != nil {
		return 0, fmt.Errorf("querying screensaver info: %w", err)
	}

	return time.Duration(info.MsSinceUserInput) * time.Millisecond, nil
}

func (s *X11Source) Close() error {
	s.conn.Close()
	return nil
}

// CommandSource runs xprintidle for every sample.
type CommandSource struct {
	path string
}

// NewCommandSource returns a source backed by the xprintidle binary.
func NewCommandSource() (*CommandSource, error) {
	path, err := exec.LookPath("xprintidle")
	if err != nil {
		return nil, ErrIdleUnsupported
	}

	return &CommandSource{path: path}, nil
}

func (s *CommandSource) SinceInput() (time.Duration, error) {
	out, err := exec.Command(s.path).Output()
	if err != nil {
		return 0, fmt.Errorf("xprintidle: %w", err)
	}

	ms, err := strconv.ParseInt(strings.TrimSpace(string(out)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse idle milliseconds: %w", err)
	}

	if ms < 0 {
		ms = 0
	}

	return time.Duration(ms) * time.Millisecond, nil
}

func (s *CommandSource) Close() error {
	return nil
}

// DetectSource returns the first idle source that works.
func DetectSource() (IdleSource, error) {
	x11, err := NewX11Source()
	if err == nil {
		return x11, nil
	}

	cmd, cmdErr := NewCommandSource()
	if cmdErr == nil {
		return cmd, nil
	}

	return nil, errors.Join(ErrIdleUnsupported, err)
}

// Manual is an idle source driven by its owner, used to script input.
type Manual struct {
	mu    sync.Mutex
	since time.Duration
	at    time.Time
	clock func() time.Time
}

// NewManual returns a source that reports no input until Input is called.
func NewManual(clock func() time.Time) *Manual {
	return &Manual{clock: clock, since: 24 * time.Hour}
}

// Input records an input event at the current clock time.
func (m *Manual) Input() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.at = m.clock()
	m.since = 0
}

func (m *Manual) SinceInput() (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.at.IsZero() {
		return m.since, nil
	}

	return m.clock().Sub(m.at), nil
}

func (m *Manual) Close() error {
	return nil
}
