package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/maine/rssnotify/internal/sources"
)

func discoverCmd() *cli.Command {
	return &cli.Command{
		Name:      "discover",
		Usage:     "List the feeds a site links to",
		ArgsUsage: "<url>",
		Description: `Fetches a web page and prints the RSS and Atom feeds it advertises or
links to, one per line, ready to be copied into target_urls.`,
		Action: func(ctx *cli.Context) error {
			if ctx.NArg() != 1 {
				return cli.Exit("discover expects exactly one URL", 2)
			}

			feeds, err := sources.DiscoverFeeds(ctx.Context, sources.NewHTTPClient(nil, sources.DefaultTimeout), ctx.Args().First())
			if err != nil {
				return err
			}
			for _, feed := range feeds {
				fmt.Fprintln(ctx.App.Writer, feed)
			}
			return nil
		},
	}
}
