package slack

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/maine/rssnotify/internal/news"
)

// Tracker remembers delivered destination URLs.
type Tracker interface {
	HasBeenDelivered(ctx context.Context, url string) (bool, error)
	RecordDelivered(ctx context.Context, title, url string) error
}

// Ignorer decides whether a post is noise.
type Ignorer interface {
	Check(ctx context.Context, post news.Post) (bool, string)
}

// DispatcherConfig lists the dispatcher's collaborators.
type DispatcherConfig struct {
	Client  WebhookClient
	Tracker Tracker
	Ignore  Ignorer
	// Wait is the pause before every post, the first one included.
	Wait time.Duration
	// DryRun logs messages instead of posting them. Nothing is recorded.
	DryRun bool
	// Sleep replaces the blocking wait in tests.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Dispatcher posts one message per post, in input order.
type Dispatcher struct {
	client  WebhookClient
	tracker Tracker
	ignore  Ignorer
	wait    time.Duration
	dryRun  bool
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	return &Dispatcher{
		client:  cfg.Client,
		tracker: cfg.Tracker,
		ignore:  cfg.Ignore,
		wait:    cfg.Wait,
		dryRun:  cfg.DryRun,
		sleep:   sleep,
	}
}

// Dispatch processes posts one at a time. A failed post is logged and
// skipped; a tracker failure stops the run because nothing can be recorded.
func (d *Dispatcher) Dispatch(ctx context.Context, posts []news.Post, header, webhookURL string) (news.Report, error) {
	var report news.Report
	for _, post := range posts {
		outcome, err := d.dispatchOne(ctx, post, header, webhookURL)
		report.Add(outcome)
		if err != nil {
			return report, err
		}
	}

	log.WithFields(log.Fields{
		"sent":              report.Count(news.Sent),
		"failed":            report.Count(news.Failed),
		"filtered":          report.Count(news.Filtered),
		"already_delivered": report.Count(news.AlreadyDelivered),
	}).Info("Dispatch finished")
	return report, nil
}

func (d *Dispatcher) dispatchOne(ctx context.Context, post news.Post, header, webhookURL string) (news.Outcome, error) {
	fields := log.Fields{
		"title": post.Title,
		"url":   post.DestinationURL,
	}

	if d.ignore != nil {
		if ignored, reason := d.ignore.Check(ctx, post); ignored {
			log.WithFields(fields).WithField("reason", reason).Info("Skipping ignored post")
			return news.Filtered, nil
		}
	}

	delivered, err := d.tracker.HasBeenDelivered(ctx, post.DestinationURL)
	if err != nil {
		return news.Pending, fmt.Errorf("check delivery of %s: %w", post.DestinationURL, err)
	}
	if delivered {
		log.WithFields(fields).Debug("Skipping already delivered post")
		return news.AlreadyDelivered, nil
	}

	msg := NewMessage(header, post)
	if d.dryRun {
		log.WithFields(fields).WithField("message", msg).Info("Dry run, not posting")
		return news.Pending, nil
	}

	if err := d.sleep(ctx, d.wait); err != nil {
		return news.Pending, err
	}

	log.WithFields(fields).Info("Posting to webhook")
	if err := d.client.PostMessage(ctx, webhookURL, msg); err != nil {
		log.WithFields(fields).WithError(err).Error("Failed to post")
		return news.Failed, nil
	}

	if err := d.tracker.RecordDelivered(ctx, post.Title, post.DestinationURL); err != nil {
		return news.Sent, fmt.Errorf("record delivery of %s: %w", post.DestinationURL, err)
	}
	return news.Sent, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
