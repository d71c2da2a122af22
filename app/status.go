package app

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"

	"github.com/ayoisaiah/respite/core"
	"github.com/ayoisaiah/respite/internal/timeutil"
	"github.com/ayoisaiah/respite/internal/ui"
	"github.com/ayoisaiah/respite/snapshot"
	"github.com/ayoisaiah/respite/timer"
)

// a running daemon rewrites the status file every few seconds
const staleAfter = 15 * time.Second

func printMode(w io.Writer, s *core.Status) {
	fmt.Fprintf(w, "%s: %s", pterm.Bold.Sprint("Mode"), ui.Highlight(s.Mode))

	if s.Regular != s.Mode {
		fmt.Fprintf(w, " (configured: %s)", s.Regular)
	}

	fmt.Fprintln(w)

	for _, o := range s.Overrides {
		fmt.Fprintf(w, "  override %s: %s\n", o.ID, o.Mode)
	}
}

func printStatus(w io.Writer, s *core.Status, now time.Time) {
	if age := now.Sub(s.Time); age > staleAfter {
		fmt.Fprintln(w, pterm.Yellow(fmt.Sprintf(
			"Status last updated %s ago; respite may have stopped",
			timeutil.FormatDuration(age.Truncate(time.Second)),
		)))
	}

	printMode(w, s)

	fmt.Fprintf(w, "%s: %s\n", pterm.Bold.Sprint("Usage"), s.Usage)
	fmt.Fprintf(w, "%s: %s\n", pterm.Bold.Sprint("Activity"), s.Activity)
	fmt.Fprintf(w, "%s: %s\n", pterm.Bold.Sprint("Role"), s.Role)

	if s.Resume != "" {
		fmt.Fprintf(w, "%s: %s\n", pterm.Bold.Sprint("Resumes"), s.Resume)
	}

	fmt.Fprintln(w)

	data := [][]string{{"BREAK", "STATE", "ELAPSED", "LIMIT", "NEXT", "OVERDUE"}}

	for _, b := range s.Breaks {
		state := b.State
		if !b.Enabled {
			state = "disabled"
		} else if b.Stage != "" && b.Stage != "none" {
			state = b.Stage
			if b.PreludeCount > 0 {
				state += " (" + strconv.Itoa(b.PreludeCount) + ")"
			}
		}

		next := "-"
		if !b.NextLimit.IsZero() {
			next = b.NextLimit.Format("15:04:05")
		}

		data = append(data, []string{
			b.Name,
			state,
			timeutil.FormatDuration(b.Elapsed),
			timeutil.FormatDuration(b.Limit),
			next,
			timeutil.FormatDuration(b.Overdue),
		})
	}

	ui.PrintTable(data, w)
}

// printState restores the saved lines into fresh timers and prints what
// they hold as of the time the file was written.
func printState(w io.Writer, f *snapshot.File) error {
	fmt.Fprintf(
		w,
		"%s: %s (version %d)\n\n",
		pterm.Bold.Sprint("Saved"),
		f.Saved.Format("January 02, 2006 15:04:05"),
		f.Version,
	)

	timers := make([]*timer.Timer, 0, len(f.Lines))
	entries := make([]snapshot.Entry, 0, len(f.Lines))

	for _, l := range f.Lines {
		t := timer.New(l.ID)
		timers = append(timers, t)
		entries = append(entries, t)
	}

	_, err := f.Restore(f.Saved, entries)

	data := [][]string{{"TIMER", "ELAPSED", "IDLE", "OVERDUE", "LAST LIMIT"}}

	for _, t := range timers {
		last := "-"
		if !t.LastLimitTime().IsZero() {
			last = t.LastLimitTime().Format("Jan 02 15:04")
		}

		data = append(data, []string{
			strings.ReplaceAll(t.ID(), "_", " "),
			timeutil.FormatDuration(t.Elapsed()),
			timeutil.FormatDuration(t.ElapsedIdle()),
			timeutil.FormatDuration(t.TotalOverdue()),
			last,
		})
	}

	ui.PrintTable(data, w)

	return err
}
