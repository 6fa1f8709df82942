package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mmcdole/gofeed"
	log "github.com/sirupsen/logrus"

	"github.com/maine/rssnotify/internal/news"
)

const userAgent = "rssnotify/1.0 (+https://github.com/maine/rssnotify)"

// RSSCollector reads entries from a fixed list of feeds.
type RSSCollector struct {
	feeds  []string
	client *http.Client
	parser *gofeed.Parser
}

// NewRSSCollector creates a collector for feeds. client is expected to carry
// the proxy configuration; nil means a direct client with a timeout.
func NewRSSCollector(feeds []string, client *http.Client) *RSSCollector {
	if client == nil {
		client = NewHTTPClient(nil, DefaultTimeout)
	}
	return &RSSCollector{
		feeds:  feeds,
		client: client,
		parser: gofeed.NewParser(),
	}
}

// Collect fetches every feed in order and concatenates their entries. Any
// fetch or parse failure aborts the collection.
func (c *RSSCollector) Collect(ctx context.Context) ([]news.FeedEntry, error) {
	var results []news.FeedEntry
	for _, feedURL := range c.feeds {
		entries, err := c.fetchFeed(ctx, feedURL)
		if err != nil {
			return nil, fmt.Errorf("feed %s: %w", feedURL, err)
		}

		log.WithFields(log.Fields{
			"feed":    feedURL,
			"entries": len(entries),
		}).Info("Fetched feed")

		results = append(results, entries...)
	}
	return results, nil
}

func (c *RSSCollector) fetchFeed(ctx context.Context, feedURL string) ([]news.FeedEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, */*")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		const readLimit = 4096
		body, _ := io.ReadAll(io.LimitReader(resp.Body, readLimit))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	feed, err := c.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	entries := make([]news.FeedEntry, 0, len(feed.Items))
	for _, item := range feed.Items {
		entries = append(entries, toEntry(feedURL, item))
	}
	return entries, nil
}

func toEntry(feedURL string, item *gofeed.Item) news.FeedEntry {
	return news.FeedEntry{
		Title:       strings.TrimSpace(item.Title),
		Link:        strings.TrimSpace(item.Link),
		Published:   strings.TrimSpace(item.Published),
		PublishedAt: item.PublishedParsed,
		Feed:        feedURL,
	}
}
