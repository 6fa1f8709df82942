package main

import (
	"io"

	"github.com/urfave/cli/v2"
)

func rootApp() *cli.App {
	var logFile io.Closer

	return &cli.App{
		Name:  "rssnotify",
		Usage: "Post new RSS entries to a Slack webhook",
		Description: `Fetches the configured RSS feeds, keeps the entries published inside
the date window, drops ignored titles and domains, resolves shortened
links and posts every destination URL that was never posted before to
an incoming webhook.

Flags can generally be set via environment variables, e.g.:

--database => RSSNOTIFY_DATABASE=rssnotify.db
--log-level => RSSNOTIFY_LOG_LEVEL=debug`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (trace, debug, info, warn, error)",
				EnvVars: []string{"RSSNOTIFY_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-file",
				Usage:   "Also write logs to this file, rotated by size",
				EnvVars: []string{"RSSNOTIFY_LOG_FILE"},
			},
			&cli.StringFlag{
				Name:    "env-file",
				Value:   ".env",
				Usage:   "Dotenv file with secrets, ignored when missing",
				EnvVars: []string{"RSSNOTIFY_ENV_FILE"},
			},
		},
		Before: func(ctx *cli.Context) error {
			closer, err := setupLogging(ctx.String("log-level"), ctx.String("log-file"))
			if err != nil {
				return err
			}
			logFile = closer
			return nil
		},
		After: func(ctx *cli.Context) error {
			if logFile != nil {
				return logFile.Close()
			}
			return nil
		},
		Commands: []*cli.Command{
			runCmd(),
			historyCmd(),
			articleCmd(),
			discoverCmd(),
		},
		Action: func(ctx *cli.Context) error {
			// Show help if no command is specified
			return cli.ShowAppHelp(ctx)
		},
	}
}

func databaseFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "database",
		Aliases: []string{"d"},
		Value:   "rssnotify.db",
		Usage:   "SQLite file or postgres:// URL of the delivery log",
		EnvVars: []string{"RSSNOTIFY_DATABASE"},
	}
}
