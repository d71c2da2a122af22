// Package breaks runs the prelude and break sequence for each kind of break
package breaks

import (
	"strings"

	"github.com/ayoisaiah/respite/internal/apperr"
)

// ID identifies a break kind. Lower ids have lower priority.
type ID int

const (
	Micro ID = iota
	Rest
	Daily
)

// None is used where no break applies.
const None ID = -1

// Count is the number of break kinds.
const Count = 3

// IDs lists every break kind in id order.
var IDs = [Count]ID{Micro, Rest, Daily}

var errUnknownBreak = &apperr.Error{
	Message: "unknown break %q: expected micro, rest or daily",
}

var (
	identifiers = [Count]string{"micro_pause", "rest_break", "daily_limit"}
	names       = [Count]string{"Micro-break", "Rest break", "Daily limit"}
)

// Valid reports whether id is a known break.
func (id ID) Valid() bool {
	return id >= Micro && id <= Daily
}

// String returns the identifier used in config keys and state files.
func (id ID) String() string {
	if !id.Valid() {
		return "none"
	}

	return identifiers[id]
}

// Name returns the display name.
func (id ID) Name() string {
	if !id.Valid() {
		return ""
	}

	return names[id]
}

// Expand replaces every %b in s with the display name.
func (id ID) Expand(s string) string {
	return strings.ReplaceAll(s, "%b", id.Name())
}

// ParseID accepts an identifier or a short name such as "rest".
func ParseID(s string) (ID, error) {
	s = strings.ToLower(strings.TrimSpace(s))

	for _, id := range IDs {
		if s == id.String() || strings.HasPrefix(id.String(), s+"_") {
			return id, nil
		}
	}

	return None, errUnknownBreak.Fmt(s)
}

// Hint qualifies a forced break.
type Hint int

const (
	HintNormal Hint = iota
	HintUserInitiated
	HintNaturalBreak
)
