package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/maine/rssnotify/internal/formatter"
	"github.com/maine/rssnotify/internal/state"
)

func historyCmd() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recently posted URLs",
		Flags: []cli.Flag{
			databaseFlag(),
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Value:   20,
				Usage:   "Number of records to show, 0 for all",
				EnvVars: []string{"RSSNOTIFY_HISTORY_LIMIT"},
			},
		},
		Action: func(ctx *cli.Context) error {
			store, err := state.Open(ctx.Context, ctx.String("database"))
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.List(ctx.Context, ctx.Int("limit"))
			if err != nil {
				return err
			}
			fmt.Fprint(ctx.App.Writer, formatter.Records(records))
			return nil
		},
	}
}
