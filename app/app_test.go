package app

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/respite/breaks"
	"github.com/ayoisaiah/respite/core"
	"github.com/ayoisaiah/respite/dist"
	"github.com/ayoisaiah/respite/internal/ui"
	"github.com/ayoisaiah/respite/snapshot"
)

const day = "2006-01-02"

type statsRangeTest struct {
	Name   string
	Period string
	Since  string
	Until  string
	Start  string
	End    string
	Err    error
}

var statsRangeCases = []statsRangeTest{
	{
		Name:   "default period",
		Period: "7days",
		Start:  "2024-03-04",
		End:    "2024-03-10",
	},
	{
		Name:   "yesterday",
		Period: "yesterday",
		Start:  "2024-03-09",
		End:    "2024-03-09",
	},
	{
		Name:   "start date replaces the period",
		Period: "365days",
		Since:  "2024-03-01",
		Start:  "2024-03-01",
		End:    "2024-03-10",
	},
	{
		Name:   "relative start date",
		Period: "7days",
		Since:  "3 days ago",
		Start:  "2024-03-07",
		End:    "2024-03-10",
	},
	{
		Name:   "explicit range",
		Period: "7days",
		Since:  "2024-02-01",
		Until:  "2024-02-05",
		Start:  "2024-02-01",
		End:    "2024-02-05",
	},
	{
		Name:   "unknown period",
		Period: "fortnight",
		Err:    errInvalidPeriod,
	},
	{
		Name:   "end before start",
		Period: "7days",
		Since:  "2024-03-09",
		Until:  "2024-03-05",
		Err:    errInvalidDateRange,
	},
}

func TestStatsRange(t *testing.T) {
	now := time.Date(2024, time.March, 10, 15, 0, 0, 0, time.Local)

	for _, tc := range statsRangeCases {
		t.Run(tc.Name, func(t *testing.T) {
			start, end, err := statsRange(tc.Period, tc.Since, tc.Until, now)
			if tc.Err != nil {
				assert.ErrorIs(t, err, tc.Err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.Start, start.Format(day))
			assert.Equal(t, tc.End, end.Format(day))
			assert.Zero(t, start.Hour())
			assert.Equal(t, 23, end.Hour())
		})
	}
}

func TestStatsRangeUnparsableDate(t *testing.T) {
	_, _, err := statsRange("7days", "not a date at all", "", time.Now())
	assert.ErrorIs(t, err, errInvalidDate)
}

func TestParseBreakArgs(t *testing.T) {
	cmd, err := parseBreakArgs([]string{"force", "rest"})
	require.NoError(t, err)
	assert.Equal(t, dist.Command{
		Break: breaks.Rest,
		Op:    dist.OpStartBreak,
		Hint:  breaks.HintUserInitiated,
	}, cmd)

	cmd, err = parseBreakArgs([]string{"skip", "micro_pause"})
	require.NoError(t, err)
	assert.Equal(t, dist.Command{Break: breaks.Micro, Op: dist.OpSkip}, cmd)

	_, err = parseBreakArgs([]string{"force"})
	assert.ErrorIs(t, err, errBreakArgs)

	_, err = parseBreakArgs([]string{"dance", "rest"})
	assert.Error(t, err)

	_, err = parseBreakArgs([]string{"skip", "lunch"})
	assert.Error(t, err)
}

func testStatus(at time.Time) *core.Status {
	return &core.Status{
		Time:      at,
		Mode:      "suspended",
		Regular:   "quiet",
		Overrides: []core.Override{{ID: "lock", Mode: "suspended"}},
		Usage:     "reading",
		Role:      "primary",
		Activity:  "idle",
		Resume:    "micro_pause",
		Breaks: []core.BreakStatus{
			{
				ID:      "micro_pause",
				Name:    "Micro-break",
				Enabled: true,
				State:   "inactive",
				Stage:   "snoozed",
				Elapsed: 150 * time.Second,
				Limit:   3 * time.Minute,
			},
			{
				ID:           "rest_break",
				Name:         "Rest break",
				Enabled:      true,
				State:        "prelude",
				Stage:        "prelude",
				PreludeCount: 2,
				Elapsed:      46 * time.Minute,
				Overdue:      time.Minute,
				Limit:        45 * time.Minute,
				NextLimit:    at.Add(3 * time.Minute),
			},
			{
				ID:    "daily_limit",
				Name:  "Daily limit",
				State: "inactive",
				Stage: "none",
				Limit: 4 * time.Hour,
			},
		},
	}
}

func TestPrintStatus(t *testing.T) {
	disableStyling()

	now := time.Date(2024, time.March, 10, 15, 0, 0, 0, time.Local)

	var buf bytes.Buffer

	printStatus(&buf, testStatus(now.Add(-2*time.Second)), now)

	out := buf.String()

	assert.Contains(t, out, "suspended (configured: quiet)")
	assert.Contains(t, out, "override lock: suspended")
	assert.Contains(t, out, "reading")
	assert.Contains(t, out, "micro_pause")
	assert.Contains(t, out, "snoozed")
	assert.Contains(t, out, "prelude (2)")
	assert.Contains(t, out, "disabled")
	assert.Contains(t, out, "46m 00s")
	assert.Contains(t, out, "15:02:58")
	assert.NotContains(t, out, "may have stopped")

	buf.Reset()
	printStatus(&buf, testStatus(now.Add(-time.Minute)), now)
	assert.Contains(t, buf.String(), "may have stopped")
}

func TestPrintState(t *testing.T) {
	disableStyling()

	path := filepath.Join(t.TempDir(), "state")
	content := "WorkRaveState 3\n1709287200\n" +
		"micro_pause 120 5 1709287000 0 0 0 0\n" +
		"rest_break 2760 0 1709280000 60 1709286000 2700 1\n" +
		"break_timer 1\n" +
		"daily_limit x\n"

	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	f, err := snapshot.Read(path)
	require.NoError(t, err)

	var buf bytes.Buffer

	err = printState(&buf, f)
	assert.Error(t, err, "the daily limit line is malformed")

	out := buf.String()
	assert.Contains(t, out, "version 3")
	assert.Contains(t, out, "micro pause")
	assert.Contains(t, out, "2m 00s")
	assert.Contains(t, out, "46m 00s")
	assert.Contains(t, out, "1m 00s")
}

func TestBeforeAction(t *testing.T) {
	t.Cleanup(func() { ui.DarkTheme = false })

	set := flag.NewFlagSet("respite", flag.ContinueOnError)
	set.Bool(noColorFlag.Name, false, "")
	set.Bool(darkThemeFlag.Name, false, "")
	require.NoError(t, set.Parse([]string{"--dark-theme"}))

	var buf bytes.Buffer

	a := cli.NewApp()
	a.Name = "respite"
	a.Version = "v1.2.0"
	a.Writer = &buf

	ctx := cli.NewContext(a, set, nil)
	require.NoError(t, beforeAction(ctx))
	assert.True(t, ui.DarkTheme)

	cli.VersionPrinter(ctx)
	assert.Equal(t, "respite version v1.2.0\n", buf.String())
}
