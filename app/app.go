package app

import (
	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/respite/internal/config"
)

// disableStyling disables all styling provided by pterm.
func disableStyling() {
	pterm.DisableColor()
	pterm.DisableStyling()
	pterm.Debug.Prefix.Text = ""
	pterm.Info.Prefix.Text = ""
	pterm.Success.Prefix.Text = ""
	pterm.Warning.Prefix.Text = ""
	pterm.Error.Prefix.Text = ""
	pterm.Fatal.Prefix.Text = ""
}

// Get retrieves the respite app instance.
func Get() *cli.App {
	respiteApp := &cli.App{
		Name: "respite",
		Authors: []*cli.Author{
			{
				Name:  "Ayooluwa Isaiah",
				Email: "ayo@freshman.tech",
			},
		},
		Usage: `
		Respite watches your keyboard and mouse activity and reminds you to take 
		micro-breaks, rest breaks and to stop at your daily limit.`,
		UsageText:            "[COMMAND] [OPTIONS]",
		Version:              config.Version,
		EnableBashCompletion: true,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Start the break timers in the foreground",
				Flags:  []cli.Flag{verboseFlag},
				Action: runAction,
			},
			{
				Name:   "status",
				Usage:  "Print the state of every break",
				Flags:  []cli.Flag{jsonFlag},
				Action: statusAction,
			},
			{
				Name:   "watch",
				Usage:  "Show the breaks live and control them from the keyboard",
				Action: watchAction,
			},
			{
				Name: "stats",
				Usage: `
				Report the breaks taken and the time worked per day. Defaults to a 
				reporting period of 7 days`,
				Flags:  []cli.Flag{periodFlag, sinceFlag, untilFlag, jsonFlag, pruneFlag},
				Action: statsAction,
			},
			{
				Name:   "state",
				Usage:  "Print the saved timer state",
				Flags:  []cli.Flag{rawFlag},
				Action: stateAction,
			},
			{
				Name:      "mode",
				Usage:     "Show or change the operation mode (normal, quiet, suspended)",
				ArgsUsage: "[MODE]",
				Flags:     []cli.Flag{usageFlag},
				Action:    modeAction,
			},
			{
				Name:      "break",
				Usage:     "Control a break: force, skip, postpone or stop-prelude",
				ArgsUsage: "<COMMAND> <micro|rest|daily>",
				Action:    breakAction,
			},
			{
				Name:   "edit-config",
				Usage:  "Edit the configuration file",
				Action: editConfigAction,
			},
		},
		Flags: []cli.Flag{
			noColorFlag,
			darkThemeFlag,
		},
		Action: runAction,
		Before: beforeAction,
	}

	return respiteApp
}
