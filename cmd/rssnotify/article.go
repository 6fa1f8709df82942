package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/maine/rssnotify/internal/article"
	"github.com/maine/rssnotify/internal/sources"
)

func articleCmd() *cli.Command {
	return &cli.Command{
		Name:      "article",
		Usage:     "Print the text of a web page",
		ArgsUsage: "<url>",
		Action: func(ctx *cli.Context) error {
			if ctx.NArg() != 1 {
				return cli.Exit("article expects exactly one URL", 2)
			}

			text, err := article.Text(ctx.Context, sources.NewHTTPClient(nil, sources.DefaultTimeout), ctx.Args().First())
			if err != nil {
				return err
			}
			fmt.Fprintln(ctx.App.Writer, text)
			return nil
		},
	}
}
