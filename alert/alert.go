// Package alert tells the user about breaks with desktop notifications, a
// short chime and an optional user command.
package alert

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/gen2brain/beeep"
	"github.com/kballard/go-shellquote"

	"github.com/ayoisaiah/respite/breaks"
)

// Events passed to the break command in RESPITE_EVENT.
const (
	EventPrelude = "prelude"
	EventBreak   = "break"
	EventEnd     = "end"
)

const hookTimeout = 30 * time.Second

// Options control which alerts are raised.
type Options struct {
	Notifications bool
	Sound         bool
	BreakCmd      string
	Messages      [breaks.Count]string
}

// Formatter expands the %b placeholder of notification text.
type Formatter interface {
	Expand(s string, id breaks.ID) string
}

type nameFormatter struct{}

func (nameFormatter) Expand(s string, id breaks.ID) string {
	return id.Expand(s)
}

// Progress is the last progress reported for an active break.
type Progress struct {
	Value int
	Max   int
}

// Notifier implements breaks.Presenter.
type Notifier struct {
	log  *slog.Logger
	icon string

	mu       sync.Mutex
	opts     Options
	format   Formatter
	shown    [breaks.Count]bool
	progress [breaks.Count]Progress

	notify func(title, message, icon string) error
	chime  func() error
	run    func(ctx context.Context, argv, env []string) error
	wg     sync.WaitGroup
}

// New returns a Notifier. The icon is looked up in the data directories
// under appDir and left empty when it is not installed.
func New(appDir string, opts Options, log *slog.Logger) *Notifier {
	icon, _ := xdg.SearchDataFile(filepath.Join(appDir, "icon.png"))

	return &Notifier{
		log:    log,
		icon:   icon,
		opts:   opts,
		format: nameFormatter{},
		notify: beeep.Notify,
		chime:  playChime,
		run:    runCommand,
	}
}

// SetOptions replaces the options after a configuration change.
func (n *Notifier) SetOptions(opts Options) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.opts = opts
}

// SetFormatter replaces the formatter of notification text.
func (n *Notifier) SetFormatter(f Formatter) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.format = f
}

func (n *Notifier) options() Options {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.opts
}

func (n *Notifier) expand(s string, id breaks.ID) string {
	n.mu.Lock()
	f := n.format
	n.mu.Unlock()

	return f.Expand(s, id)
}

func (n *Notifier) CreatePreludeWindow(id breaks.ID) {
	opts := n.options()

	n.setShown(id, true)

	if opts.Notifications {
		n.send(n.expand("%b soon", id), n.expand("A %b is coming up. Finish what you are doing.", id))
	}

	n.hook(opts, id, EventPrelude)
}

func (n *Notifier) CreateBreakWindow(id breaks.ID, hint breaks.Hint) {
	opts := n.options()

	n.setShown(id, true)

	if opts.Notifications {
		msg := opts.Messages[id]
		if msg == "" {
			msg = "Time for a %b"
		}

		n.send(id.Name(), n.expand(msg, id))
	}

	// the user asked for this one
	if opts.Sound && hint != breaks.HintUserInitiated {
		n.goPlay()
	}

	n.hook(opts, id, EventBreak)
}

func (n *Notifier) HideBreakWindow(id breaks.ID) {
	n.mu.Lock()
	wasShown := n.shown[id]
	n.shown[id] = false
	n.progress[id] = Progress{}
	n.mu.Unlock()

	if wasShown {
		n.hook(n.options(), id, EventEnd)
	}
}

func (n *Notifier) SetBreakProgress(id breaks.ID, value, max int) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.progress[id] = Progress{Value: value, Max: max}
}

// Progress returns the progress of the break id.
func (n *Notifier) Progress(id breaks.ID) Progress {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.progress[id]
}

// Wait blocks until running chimes and commands finish.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func (n *Notifier) setShown(id breaks.ID, shown bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.shown[id] = shown
}

func (n *Notifier) send(title, msg string) {
	if err := n.notify(title, msg, n.icon); err != nil {
		n.log.Warn("unable to display notification", slog.Any("error", err))
	}
}

func (n *Notifier) goPlay() {
	n.wg.Add(1)

	go func() {
		defer n.wg.Done()

		if err := n.chime(); err != nil {
			n.log.Warn("unable to play sound", slog.Any("error", err))
		}
	}()
}

// hook runs the break command in the background.
func (n *Notifier) hook(opts Options, id breaks.ID, event string) {
	if opts.BreakCmd == "" {
		return
	}

	argv, err := shellquote.Split(opts.BreakCmd)
	if err != nil {
		n.log.Warn("invalid break command", slog.String("cmd", opts.BreakCmd), slog.Any("error", err))
		return
	}

	if len(argv) == 0 {
		return
	}

	env := []string{
		"RESPITE_BREAK=" + id.String(),
		"RESPITE_EVENT=" + event,
	}

	n.wg.Add(1)

	go func() {
		defer n.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), hookTimeout)
		defer cancel()

		if err := n.run(ctx, argv, env); err != nil {
			n.log.Warn("break command failed",
				slog.String("event", event),
				slog.Any("error", err),
			)
		}
	}()
}

func runCommand(ctx context.Context, argv, env []string) error {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Env = append(os.Environ(), env...)

	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", argv[0], err, out)
	}

	return nil
}
