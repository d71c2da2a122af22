package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/ayoisaiah/respite/core"
	"github.com/ayoisaiah/respite/internal/timeutil"
)

func (m *Model) breakView(i int, b core.BreakStatus) string {
	var s strings.Builder

	label := m.style.label
	if i == int(m.selected) {
		label = m.style.selected
	}

	s.WriteString(label.Render(b.Name))

	var percent float64
	if b.Limit > 0 {
		percent = min(float64(b.Elapsed)/float64(b.Limit), 1)
	}

	if i < len(m.bars) {
		s.WriteString(m.bars[i].ViewAs(percent))
	}

	s.WriteString(" " + timeutil.FormatDuration(b.Elapsed) + " / " + timeutil.FormatDuration(b.Limit))

	switch {
	case !b.Enabled:
		s.WriteString(" " + m.style.hint.Render("disabled"))
	case b.Stage != "none" && b.Stage != "":
		st, ok := m.style.states[b.Stage]
		if !ok {
			st = m.style.hint
		}

		s.WriteString(" " + st.Render(b.Stage))
	}

	return s.String()
}

func (m *Model) helpView() string {
	if m.modeForm != nil {
		return m.help.ShortHelpView([]key.Binding{defaultKeymap.esc})
	}

	return m.help.ShortHelpView([]key.Binding{
		defaultKeymap.next,
		defaultKeymap.force,
		defaultKeymap.skip,
		defaultKeymap.postpone,
		defaultKeymap.stop,
		defaultKeymap.mode,
		defaultKeymap.quit,
	})
}

func (m *Model) View() string {
	var s strings.Builder

	s.WriteString(m.style.title.Render("respite"))
	s.WriteString("\n\n")

	if m.status == nil {
		if m.err != nil {
			s.WriteString(m.style.warning.Render(m.err.Error()))
		} else {
			s.WriteString("Loading...")
		}

		s.WriteString("\n\n" + m.helpView())

		return m.style.base.Render(s.String())
	}

	fmt.Fprintf(&s, "mode %s", m.status.Mode)

	if m.status.Regular != m.status.Mode {
		s.WriteString(m.style.hint.Render(" (configured: " + m.status.Regular + ")"))
	}

	fmt.Fprintf(&s, "  activity %s  usage %s\n\n", m.status.Activity, m.status.Usage)

	for i, b := range m.status.Breaks {
		s.WriteString(m.breakView(i, b))
		s.WriteString("\n")
	}

	switch {
	case m.err != nil:
		s.WriteString("\n" + m.style.warning.Render(m.err.Error()) + "\n")
	case m.notice != "":
		s.WriteString("\n" + m.style.hint.Render(m.notice) + "\n")
	}

	if m.modeForm != nil {
		s.WriteString("\n" + m.modeForm.View())
	}

	s.WriteString("\n" + m.helpView())

	return m.style.base.Render(s.String())
}
