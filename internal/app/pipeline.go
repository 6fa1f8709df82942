package app

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/maine/rssnotify/internal/filter"
	"github.com/maine/rssnotify/internal/formatter"
	"github.com/maine/rssnotify/internal/news"
)

// ErrNotConfigured is returned when the pipeline runs without a required
// dependency.
var ErrNotConfigured = errors.New("pipeline dependencies not configured")

// SourceCollector reads entries from every configured feed.
type SourceCollector interface {
	Collect(ctx context.Context) ([]news.FeedEntry, error)
}

// LinkResolver resolves shortened links and never fails.
type LinkResolver interface {
	ResolveOrOriginal(ctx context.Context, rawURL string) string
}

// Dispatcher posts the surviving posts and records deliveries.
type Dispatcher interface {
	Dispatch(ctx context.Context, posts []news.Post, header, webhookURL string) (news.Report, error)
}

// PipelineDeps lists the pipeline's dependencies.
type PipelineDeps struct {
	Collector  SourceCollector
	Resolver   LinkResolver
	Dispatcher Dispatcher
	WebhookURL string
}

// Pipeline runs one fetch → filter → post cycle.
type Pipeline struct {
	collector  SourceCollector
	resolver   LinkResolver
	dispatcher Dispatcher
	webhookURL string
}

// NewPipeline creates a pipeline.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		collector:  deps.Collector,
		resolver:   deps.Resolver,
		dispatcher: deps.Dispatcher,
		webhookURL: deps.WebhookURL,
	}
}

// Run processes entries published inside w.
func (p *Pipeline) Run(ctx context.Context, w news.Window) (news.Report, error) {
	if err := p.validateDeps(); err != nil {
		return news.Report{}, err
	}

	logger := log.WithFields(log.Fields{
		"from": w.From,
		"to":   w.To,
	})

	entries, err := p.collector.Collect(ctx)
	if err != nil {
		return news.Report{}, fmt.Errorf("collect entries: %w", err)
	}
	logger.WithField("entries", len(entries)).Info("Collected feed entries")

	selected, err := filter.SelectInRange(entries, w)
	if err != nil {
		return news.Report{}, fmt.Errorf("select entries: %w", err)
	}
	logger.WithField("entries", len(selected)).Info("Selected entries in window")

	posts := make([]news.Post, 0, len(selected))
	for _, entry := range selected {
		posts = append(posts, news.Post{
			Title:          entry.Title,
			DestinationURL: p.resolver.ResolveOrOriginal(ctx, entry.Link),
		})
	}

	unique := filter.DedupByDestination(posts)
	logger.WithField("posts", len(unique)).Info("Deduplicated posts")

	report, err := p.dispatcher.Dispatch(ctx, unique, formatter.Header(w), p.webhookURL)
	report.Collected = len(entries)
	report.Selected = len(selected)
	report.Unique = len(unique)
	if err != nil {
		return report, fmt.Errorf("dispatch: %w", err)
	}
	return report, nil
}

func (p *Pipeline) validateDeps() error {
	switch {
	case p.collector == nil,
		p.resolver == nil,
		p.dispatcher == nil,
		p.webhookURL == "":
		return ErrNotConfigured
	default:
		return nil
	}
}
