package main

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/maine/rssnotify/internal/app"
	"github.com/maine/rssnotify/internal/config"
	"github.com/maine/rssnotify/internal/filter"
	"github.com/maine/rssnotify/internal/formatter"
	"github.com/maine/rssnotify/internal/metrics"
	"github.com/maine/rssnotify/internal/resolver"
	"github.com/maine/rssnotify/internal/slack"
	"github.com/maine/rssnotify/internal/sources"
	"github.com/maine/rssnotify/internal/state"
)

func runCmd() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Fetch the feeds once and post new entries",
		Description: `Runs one fetch, filter and post cycle over the date window.

Without --from-date and --to-date the window covers the 24 hours before
now (JST). Dates are read as JST unless they carry an offset.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config.yml",
				Usage:   "YAML configuration file",
				EnvVars: []string{"RSSNOTIFY_CONFIG"},
			},
			databaseFlag(),
			&cli.StringFlag{
				Name:    "from-date",
				Usage:   "Window start, yyyy/MM/dd HH:mm:ss",
				EnvVars: []string{"RSSNOTIFY_FROM_DATE"},
			},
			&cli.StringFlag{
				Name:    "to-date",
				Usage:   "Window end, yyyy/MM/dd HH:mm:ss",
				EnvVars: []string{"RSSNOTIFY_TO_DATE"},
			},
			&cli.DurationFlag{
				Name:    "post-wait",
				Usage:   "Pause before every post, overrides post_wait from the config",
				EnvVars: []string{"RSSNOTIFY_POST_WAIT"},
			},
			&cli.BoolFlag{
				Name:    "dry-run",
				Usage:   "Log the messages instead of posting them",
				EnvVars: []string{"RSSNOTIFY_DRY_RUN"},
			},
			&cli.StringFlag{
				Name:    "pushgateway",
				Usage:   "Prometheus Pushgateway URL to push run metrics to",
				EnvVars: []string{"RSSNOTIFY_PUSHGATEWAY"},
			},
		},
		Action: func(ctx *cli.Context) error {
			started := time.Now()

			env, err := config.LoadEnvConfig(ctx.String("env-file"))
			if err != nil {
				return err
			}
			cfg, err := config.Load(ctx.String("config"))
			if err != nil {
				return err
			}
			cfg = env.Apply(cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			window, err := resolveWindow(ctx.String("from-date"), ctx.String("to-date"), started)
			if err != nil {
				return err
			}

			wait := cfg.Wait()
			if ctx.IsSet("post-wait") {
				wait = ctx.Duration("post-wait")
			}

			store, err := state.Open(ctx.Context, ctx.String("database"))
			if err != nil {
				return err
			}
			defer store.Close()

			res := resolver.New(nil)
			pipeline := app.NewPipeline(app.PipelineDeps{
				Collector: sources.NewRSSCollector(cfg.TargetURLs, sources.NewHTTPClient(cfg.Proxy.URL(), sources.DefaultTimeout)),
				Resolver:  res,
				Dispatcher: slack.NewDispatcher(slack.DispatcherConfig{
					Client:  slack.NewClient(nil),
					Tracker: store,
					Ignore: filter.Ignore{
						Words:    cfg.IgnoreWords,
						Domains:  cfg.IgnoreDomains,
						Resolver: res,
					},
					Wait:   wait,
					DryRun: ctx.Bool("dry-run"),
				}),
				WebhookURL: cfg.WebhookURL,
			})

			log.WithFields(log.Fields{
				"feeds":   len(cfg.TargetURLs),
				"from":    window.From,
				"to":      window.To,
				"wait":    wait,
				"dry_run": ctx.Bool("dry-run"),
			}).Info("Starting run")

			report, runErr := pipeline.Run(ctx.Context, window)
			fmt.Fprintln(ctx.App.Writer, formatter.Report(report))

			if gateway := ctx.String("pushgateway"); gateway != "" {
				m := metrics.NewRun()
				m.Observe(report, time.Since(started), time.Now())
				if err := m.Push(ctx.Context, gateway); err != nil {
					log.WithError(err).Warn("Could not push metrics")
				}
			}

			return runErr
		},
	}
}
