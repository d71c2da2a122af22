// Package view renders a live terminal view of a running respite daemon and
// sends break commands to it
package view

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/ayoisaiah/respite/breaks"
	"github.com/ayoisaiah/respite/core"
	"github.com/ayoisaiah/respite/dist"
	"github.com/ayoisaiah/respite/mode"
)

const (
	padding  = 2
	maxWidth = 60

	defaultInterval = time.Second
)

// Options connect the view to the daemon.
type Options struct {
	// Read returns the latest status.
	Read func() (*core.Status, error)
	// Send delivers a break command.
	Send func(cmd dist.Command) error
	// SetMode changes the configured operation mode.
	SetMode func(m mode.Mode) error
	// Interval between status reads. Defaults to a second.
	Interval time.Duration
}

type (
	tickMsg   time.Time
	statusMsg struct {
		status *core.Status
		err    error
	}
	doneMsg struct {
		notice string
		err    error
	}
)

// Model is the bubbletea model of the view.
type Model struct {
	opts  Options
	style style
	help  help.Model

	status   *core.Status
	err      error
	notice   string
	selected breaks.ID

	bars [breaks.Count]progress.Model

	modeForm   *huh.Form
	pickedMode string
}

// New returns a view that starts on the rest break.
func New(opts Options) *Model {
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}

	m := &Model{
		opts:     opts,
		style:    defaultStyle(),
		help:     help.New(),
		selected: breaks.Rest,
	}

	for _, id := range breaks.IDs {
		m.bars[id] = progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
		m.bars[id].Width = maxWidth - 20
	}

	return m
}

func (m *Model) read() tea.Msg {
	s, err := m.opts.Read()
	return statusMsg{status: s, err: err}
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.opts.Interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) send(op dist.Op) tea.Cmd {
	cmd := dist.Command{Break: m.selected, Op: op}
	if op == dist.OpStartBreak {
		cmd.Hint = breaks.HintUserInitiated
	}

	return func() tea.Msg {
		if err := m.opts.Send(cmd); err != nil {
			return doneMsg{err: err}
		}

		return doneMsg{notice: "sent " + op.String() + " to the " + cmd.Break.Name()}
	}
}

func (m *Model) newModeForm() tea.Cmd {
	m.pickedMode = mode.Normal.String()
	if m.status != nil {
		m.pickedMode = m.status.Regular
	}

	m.modeForm = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Operation mode").
				Options(huh.NewOptions(
					mode.Normal.String(),
					mode.Quiet.String(),
					mode.Suspended.String(),
				)...).
				Value(&m.pickedMode),
		),
	)

	return m.modeForm.Init()
}

func (m *Model) applyMode() tea.Cmd {
	name := m.pickedMode

	return func() tea.Msg {
		md, err := mode.Parse(name)
		if err == nil {
			err = m.opts.SetMode(md)
		}

		if err != nil {
			return doneMsg{err: err}
		}

		return doneMsg{notice: "operation mode set to " + md.String()}
	}
}

func (m *Model) Init() tea.Cmd {
	return m.read
}

func (m *Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "ctrl+c" {
		return m, tea.Quit
	}

	form, cmd := m.modeForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.modeForm = f
	}

	switch m.modeForm.State {
	case huh.StateCompleted:
		m.modeForm = nil
		return m, m.applyMode()
	case huh.StateAborted:
		m.modeForm = nil
		return m, nil
	}

	return m, cmd
}

func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, defaultKeymap.quit):
		return m, tea.Quit
	case key.Matches(msg, defaultKeymap.next):
		m.selected = (m.selected + 1) % breaks.Count
	case key.Matches(msg, defaultKeymap.prev):
		m.selected = (m.selected + breaks.Count - 1) % breaks.Count
	case key.Matches(msg, defaultKeymap.force):
		return m, m.send(dist.OpStartBreak)
	case key.Matches(msg, defaultKeymap.skip):
		return m, m.send(dist.OpSkip)
	case key.Matches(msg, defaultKeymap.postpone):
		return m, m.send(dist.OpPostpone)
	case key.Matches(msg, defaultKeymap.stop):
		return m, m.send(dist.OpAbortPrelude)
	case key.Matches(msg, defaultKeymap.mode):
		return m, m.newModeForm()
	case key.Matches(msg, defaultKeymap.esc):
		m.notice = ""
	}

	return m, nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case statusMsg:
		m.status, m.err = msg.status, msg.err
		return m, m.tick()

	case tickMsg:
		return m, m.read

	case doneMsg:
		m.notice, m.err = msg.notice, msg.err
		return m, nil

	case tea.WindowSizeMsg:
		for id := range m.bars {
			m.bars[id].Width = max(min(msg.Width-padding*2-20, maxWidth), 10)
		}

		return m, nil
	}

	if m.modeForm != nil {
		return m.updateForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		return m.handleKeyPress(msg)
	}

	return m, nil
}

// Run shows the view until the user quits.
func Run(opts Options) error {
	_, err := tea.NewProgram(New(opts), tea.WithAltScreen()).Run()
	return err
}
