package app

import "github.com/urfave/cli/v2"

var (
	noColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable coloured output",
	}

	darkThemeFlag = &cli.BoolFlag{
		Name:    "dark-theme",
		Usage:   "Use colours suited to a dark terminal background",
		EnvVars: []string{envDarkTheme},
	}

	verboseFlag = &cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "Copy the log to standard error",
	}

	jsonFlag = &cli.BoolFlag{
		Name:  "json",
		Usage: "Print the output as JSON",
	}

	periodFlag = &cli.StringFlag{
		Name:    "period",
		Aliases: []string{"p"},
		Usage:   "Reporting period: all-time, today, yesterday, 7days, 14days, 30days, 90days or 365days",
		Value:   "7days",
	}

	sinceFlag = &cli.StringFlag{
		Name:  "since",
		Usage: "Start of the reporting period (e.g. '3 days ago', '2024-03-01'). Overrides --period",
	}

	untilFlag = &cli.StringFlag{
		Name:  "until",
		Usage: "End of the reporting period. Defaults to today",
	}

	pruneFlag = &cli.BoolFlag{
		Name:  "prune",
		Usage: "Delete the days recorded before the start of the reporting period",
	}

	rawFlag = &cli.BoolFlag{
		Name:  "raw",
		Usage: "Dump the parsed state file",
	}

	usageFlag = &cli.StringFlag{
		Name:  "usage",
		Usage: "Set the usage mode: normal, or reading to count time without input",
	}
)
