package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/markusmobius/go-dateparser"
	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/respite/breaks"
	"github.com/ayoisaiah/respite/core"
	"github.com/ayoisaiah/respite/dist"
	"github.com/ayoisaiah/respite/internal/config"
	"github.com/ayoisaiah/respite/internal/logutil"
	"github.com/ayoisaiah/respite/internal/osutil"
	"github.com/ayoisaiah/respite/internal/pathutil"
	"github.com/ayoisaiah/respite/internal/timeutil"
	"github.com/ayoisaiah/respite/internal/ui"
	"github.com/ayoisaiah/respite/mode"
	"github.com/ayoisaiah/respite/snapshot"
	"github.com/ayoisaiah/respite/stats"
	"github.com/ayoisaiah/respite/store"
	"github.com/ayoisaiah/respite/view"
)

const (
	envNoColor        = "NO_COLOR"
	envRespiteNoColor = "RESPITE_NO_COLOR"
	envDarkTheme      = "RESPITE_DARK_THEME"

	noStateMsg = "No saved timer state yet"
)

// firstNonEmptyString returns its first non-empty argument, or "" if all
// arguments are empty.
func firstNonEmptyString(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}

	return ""
}

// openConfig opens the configuration file for a short-lived command.
func openConfig() (*config.Configurator, error) {
	if err := pathutil.Initialize(); err != nil {
		return nil, err
	}

	return config.Open(pathutil.ConfigFilePath(), logutil.Discard())
}

func readStatus() (*core.Status, error) {
	if err := pathutil.Initialize(); err != nil {
		return nil, err
	}

	s, err := core.ReadStatus(pathutil.StatusFilePath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errNotRunning.Fmt(pathutil.StatusFilePath())
	}

	return s, err
}

// editConfigAction handles the edit-config command which opens the respite
// config file in the user's default text editor. A running daemon picks up
// the changes once the file is saved.
func editConfigAction(_ *cli.Context) error {
	defaultEditor := "nano"

	if runtime.GOOS == osutil.Windows {
		defaultEditor = "C:\\Windows\\system32\\notepad.exe"
	}

	editor := firstNonEmptyString(
		os.Getenv("VISUAL"),
		os.Getenv("EDITOR"),
		defaultEditor,
	)

	cfg, err := openConfig()
	if err != nil {
		return err
	}

	cmd := exec.Command(editor, cfg.Path())

	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout

	return cmd.Run()
}

// statusAction handles the status command and prints the state of the
// running daemon.
func statusAction(ctx *cli.Context) error {
	s, err := readStatus()
	if err != nil {
		return err
	}

	if ctx.Bool("json") {
		b, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return err
		}

		fmt.Println(string(b))

		return nil
	}

	printStatus(os.Stdout, s, time.Now())

	return nil
}

// statsRange resolves the reporting period. An explicit start date replaces
// the period and runs through today unless an end date is also given.
func statsRange(period, since, until string, now time.Time) (start, end time.Time, err error) {
	start, end, err = timeutil.PeriodBounds(timeutil.Period(strings.TrimSpace(period)), now)
	if err != nil {
		return start, end, errInvalidPeriod.Fmt(period)
	}

	cfg := &dateparser.Configuration{CurrentTime: now}

	if since != "" {
		dt, err := dateparser.Parse(cfg, since)
		if err != nil {
			return start, end, errInvalidDate.Fmt(since)
		}

		start = timeutil.RoundToStart(dt.Time)
		end = timeutil.RoundToEnd(now)
	}

	if until != "" {
		dt, err := dateparser.Parse(cfg, until)
		if err != nil {
			return start, end, errInvalidDate.Fmt(until)
		}

		end = timeutil.RoundToEnd(dt.Time)
	}

	if end.Before(start) {
		return start, end, errInvalidDateRange
	}

	return start, end, nil
}

// statsAction reports the statistics recorded for the selected days.
func statsAction(ctx *cli.Context) error {
	now := time.Now()

	since, until, err := statsRange(
		ctx.String("period"),
		ctx.String("since"),
		ctx.String("until"),
		now,
	)
	if err != nil {
		return err
	}

	if err := pathutil.Initialize(); err != nil {
		return err
	}

	db, err := store.NewClient(pathutil.DBFilePath())
	if err != nil {
		return err
	}

	defer db.Close()

	if ctx.Bool("prune") {
		n, err := db.DeleteDays(since)
		if err != nil {
			return err
		}

		pterm.Success.Printfln("Deleted %d days recorded before %s", n, since.Format("January 02, 2006"))

		return nil
	}

	days, err := db.GetDays(since, until)
	if err != nil {
		return err
	}

	if ctx.Bool("json") {
		b, err := json.MarshalIndent(struct {
			Summary stats.Summary `json:"summary"`
			Days    any           `json:"days"`
		}{stats.Summarize(days), days}, "", "  ")
		if err != nil {
			return err
		}

		fmt.Println(string(b))

		return nil
	}

	stats.Show(os.Stdout, days, since, until)

	return nil
}

// stateAction prints the timers saved in the state file.
func stateAction(ctx *cli.Context) error {
	if err := pathutil.Initialize(); err != nil {
		return err
	}

	f, err := snapshot.Read(pathutil.StateFilePath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			pterm.Info.Println(noStateMsg)
			return nil
		}

		return err
	}

	if ctx.Bool("raw") {
		spew.Fdump(os.Stdout, f)
		return nil
	}

	if err := printState(os.Stdout, f); err != nil {
		pterm.Warning.Println(err)
	}

	return nil
}

// modeAction shows the operation mode or changes it by writing the
// configuration file, which the daemon watches.
func modeAction(ctx *cli.Context) error {
	cfg, err := openConfig()
	if err != nil {
		return err
	}

	if usage := ctx.String("usage"); usage != "" {
		u, err := mode.ParseUsage(usage)
		if err != nil {
			return err
		}

		if err := cfg.Set(config.KeyUsageMode, u.String()); err != nil {
			return err
		}

		pterm.Success.Printfln("Usage mode set to %s", u)
	}

	if ctx.NArg() == 0 {
		if ctx.String("usage") != "" {
			return nil
		}

		s, err := readStatus()
		if err != nil {
			pterm.Info.Printfln("Configured mode: %s", cfg.Settings().OperationMode)
			return nil
		}

		printMode(os.Stdout, s)

		return nil
	}

	m, err := mode.Parse(ctx.Args().First())
	if err != nil {
		return err
	}

	if err := cfg.Set(config.KeyOperationMode, m.String()); err != nil {
		return err
	}

	pterm.Success.Printfln("Operation mode set to %s", m)

	return nil
}

func parseBreakArgs(args []string) (dist.Command, error) {
	if len(args) != 2 {
		return dist.Command{}, errBreakArgs
	}

	op, err := dist.ParseOp(args[0])
	if err != nil {
		return dist.Command{}, err
	}

	id, err := breaks.ParseID(args[1])
	if err != nil {
		return dist.Command{}, err
	}

	cmd := dist.Command{Break: id, Op: op}
	if op == dist.OpStartBreak {
		cmd.Hint = breaks.HintUserInitiated
	}

	return cmd, nil
}

// breakAction sends a break command to the daemon's control port.
func breakAction(ctx *cli.Context) error {
	cmd, err := parseBreakArgs(ctx.Args().Slice())
	if err != nil {
		return err
	}

	cfg, err := openConfig()
	if err != nil {
		return err
	}

	addr := cfg.Settings().Distribution.Listen

	if err := dist.Send(ctx.Context, addr, dist.EncodeCommands(cmd)); err != nil {
		return errSendCommand.Wrap(err)
	}

	pterm.Success.Printfln("Sent %s to the %s", cmd.Op, strings.ToLower(cmd.Break.Name()))

	return nil
}

// watchAction opens the live view of the running daemon.
func watchAction(ctx *cli.Context) error {
	cfg, err := openConfig()
	if err != nil {
		return err
	}

	addr := cfg.Settings().Distribution.Listen

	return view.Run(view.Options{
		Read: readStatus,
		Send: func(cmd dist.Command) error {
			if err := dist.Send(ctx.Context, addr, dist.EncodeCommands(cmd)); err != nil {
				return errSendCommand.Wrap(err)
			}

			return nil
		},
		SetMode: func(m mode.Mode) error {
			return cfg.Set(config.KeyOperationMode, m.String())
		},
	})
}

func beforeAction(ctx *cli.Context) error {
	// Override the default help template
	cli.AppHelpTemplate = helpText()

	pterm.Error.MessageStyle = pterm.NewStyle(pterm.FgRed)
	pterm.Error.Prefix = pterm.Prefix{
		Text:  "ERROR",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}

	// Disable colour output if NO_COLOR is set
	if _, exists := os.LookupEnv(envNoColor); exists {
		disableStyling()
	}

	// Disable colour output if RESPITE_NO_COLOR is set
	if _, exists := os.LookupEnv(envRespiteNoColor); exists {
		disableStyling()
	}

	if ctx.Bool("no-color") {
		disableStyling()
	}

	ui.DarkTheme = ctx.Bool(darkThemeFlag.Name)

	return nil
}
