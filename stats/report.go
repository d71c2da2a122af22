package stats

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"

	"github.com/ayoisaiah/respite/breaks"
	"github.com/ayoisaiah/respite/internal/models"
	"github.com/ayoisaiah/respite/internal/timeutil"
	"github.com/ayoisaiah/respite/internal/ui"
)

const (
	barChartChar = "▇"
	noDaysMsg    = "No statistics found for the specified time range"
)

// Summary aggregates a range of days.
type Summary struct {
	Days       int                             `json:"days"`
	ActiveTime time.Duration                   `json:"active_time"`
	Breaks     [breaks.Count]models.BreakStats `json:"breaks"`
}

// AvgActiveTime is the mean active time per recorded day.
func (s Summary) AvgActiveTime() time.Duration {
	if s.Days == 0 {
		return 0
	}

	return s.ActiveTime / time.Duration(s.Days)
}

// Summarize adds up the counters of days.
func Summarize(days []models.DayStats) Summary {
	s := Summary{Days: len(days)}

	for i := range days {
		d := &days[i]
		s.ActiveTime += d.ActiveTime

		for id, b := range d.Breaks {
			if id >= breaks.Count {
				break
			}

			t := &s.Breaks[id]
			t.Prompted += b.Prompted
			t.Taken += b.Taken
			t.NaturalTaken += b.NaturalTaken
			t.Skipped += b.Skipped
			t.Postponed += b.Postponed
			t.Unique += b.Unique
			t.Overdue += b.Overdue
		}
	}

	return s
}

func breakTable(s Summary) [][]string {
	data := [][]string{
		{"BREAK", "PROMPTED", "UNIQUE", "TAKEN", "NATURAL", "SKIPPED", "POSTPONED", "OVERDUE"},
	}

	for _, id := range breaks.IDs {
		b := s.Breaks[id]

		data = append(data, []string{
			id.Name(),
			strconv.Itoa(b.Prompted),
			strconv.Itoa(b.Unique),
			strconv.Itoa(b.Taken),
			strconv.Itoa(b.NaturalTaken),
			ui.Red(b.Skipped),
			strconv.Itoa(b.Postponed),
			timeutil.FormatDuration(b.Overdue),
		})
	}

	return data
}

func activeChart(days []models.DayStats) string {
	if len(days) < 2 {
		return ""
	}

	header := ui.Blue("\nDaily active time (minutes)")

	bars := make(pterm.Bars, 0, len(days))

	for i := range days {
		bars = append(bars, pterm.Bar{
			Value: int(days[i].ActiveTime.Round(time.Minute).Minutes()),
			Label: days[i].Day.Format("Jan 02, 2006"),
		})
	}

	chart, err := pterm.DefaultBarChart.WithHorizontalBarCharacter(barChartChar).
		WithHorizontal().
		WithShowValue().
		WithBars(bars).
		Srender()
	if err != nil {
		pterm.Error.Println(err)
		return ""
	}

	return header + chart
}

// Show prints the summary of days between since and until followed by a
// chart of the active time per day.
func Show(w io.Writer, days []models.DayStats, since, until time.Time) {
	if len(days) == 0 {
		pterm.Info.Println(noDaysMsg)
		return
	}

	if since.IsZero() {
		since = days[0].Day
	}

	period := fmt.Sprintf(
		"Reporting period: %s - %s",
		since.Format("January 02, 2006"),
		until.Format("January 02, 2006"),
	)

	header := pterm.DefaultHeader.WithBackgroundStyle(pterm.NewStyle(pterm.BgYellow)).
		WithTextStyle(pterm.NewStyle(pterm.FgBlack)).
		Sprintfln("%s", period)

	s := Summarize(days)

	var b strings.Builder

	b.WriteString(header)
	fmt.Fprintf(&b, "%s\n", ui.Blue("Summary"))
	fmt.Fprintf(&b, "Days recorded: %s\n", ui.Green(s.Days))
	fmt.Fprintf(&b, "Active time: %s\n", ui.Green(timeutil.FormatDuration(s.ActiveTime)))
	fmt.Fprintf(&b, "Average per day: %s\n\n", ui.Green(timeutil.FormatDuration(s.AvgActiveTime())))

	fmt.Fprint(w, b.String())
	ui.PrintTable(breakTable(s), w)
	fmt.Fprintln(w, strings.TrimSpace(activeChart(days)))
}
