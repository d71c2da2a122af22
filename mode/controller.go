package mode

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/maruel/natural"
)

// Controller holds the regular mode and the override map. The effective mode
// is always derived from both; no previous value takes part in it.
type Controller struct {
	regular   Mode
	effective Mode
	overrides map[string]Mode

	effects   Effects
	persister Persister
	listeners []Listener
	log       *slog.Logger
}

// NewController starts in the regular mode m without applying any effects.
func NewController(m Mode, e Effects, p Persister, log *slog.Logger) *Controller {
	m = m.Sanitize()

	return &Controller{
		regular:   m,
		effective: m,
		overrides: make(map[string]Mode),
		effects:   e,
		persister: p,
		log:       log,
	}
}

// AddListener registers fn for mode change notifications.
func (c *Controller) AddListener(fn Listener) {
	c.listeners = append(c.listeners, fn)
}

// Effective returns the mode in force.
func (c *Controller) Effective() Mode {
	return c.effective
}

// Regular returns the mode chosen by the user.
func (c *Controller) Regular() Mode {
	return c.regular
}

// Overridden reports whether any override is in place.
func (c *Controller) Overridden() bool {
	return len(c.overrides) > 0
}

// Overrides returns the override ids in natural order.
func (c *Controller) Overrides() []string {
	ids := make([]string, 0, len(c.overrides))
	for id := range c.overrides {
		ids = append(ids, id)
	}

	slices.SortFunc(ids, func(a, b string) int {
		if natural.Less(a, b) {
			return -1
		}

		if natural.Less(b, a) {
			return 1
		}

		return 0
	})

	return ids
}

// Override returns the mode requested by id.
func (c *Controller) Override(id string) (Mode, bool) {
	m, ok := c.overrides[id]
	return m, ok
}

// SetMode changes the regular mode. A persistent change is saved.
func (c *Controller) SetMode(m Mode, persistent bool) {
	m = m.Sanitize()

	if persistent && m != c.regular && c.persister != nil {
		if err := c.persister.SaveMode(m); err != nil {
			c.log.Error("saving operation mode failed", slog.Any("error", err))
		}
	}

	c.regular = m

	if len(c.overrides) > 0 {
		// the regular mode is shadowed; listeners still learn about it
		c.notify()
		return
	}

	c.apply()
}

// SetOverride layers m on top of the regular mode under id. An empty id is
// ignored.
func (c *Controller) SetOverride(m Mode, id string) {
	if strings.TrimSpace(id) == "" {
		return
	}

	c.overrides[id] = m.Sanitize()
	c.apply()
}

// RemoveOverride drops the override id. Removing an unknown id does nothing.
func (c *Controller) RemoveOverride(id string) {
	if _, ok := c.overrides[id]; !ok {
		return
	}

	delete(c.overrides, id)

	if !c.apply() && len(c.overrides) == 0 {
		// the mode stayed the same but it is no longer an override
		c.notify()
	}
}

// derive computes the effective mode from the regular mode and overrides.
func (c *Controller) derive() Mode {
	quiet := false

	for _, m := range c.overrides {
		switch m {
		case Suspended:
			return Suspended
		case Quiet:
			quiet = true
		}
	}

	if quiet {
		return Quiet
	}

	return c.regular
}

// apply re-derives the effective mode, runs the effects of a change and
// notifies listeners. It reports whether the mode changed.
func (c *Controller) apply() bool {
	next := c.derive()
	prev := c.effective

	if next == prev {
		return false
	}

	c.log.Info(
		"operation mode changed",
		slog.String("from", prev.String()),
		slog.String("to", next.String()),
	)

	if prev == Suspended {
		c.effects.LeaveSuspended()
	}

	switch next {
	case Suspended:
		c.effects.EnterSuspended()
	case Quiet:
		c.effects.EnterQuiet()
	}

	c.effective = next
	c.notify()

	return true
}

func (c *Controller) notify() {
	for _, fn := range c.listeners {
		fn(c.effective)
	}
}
