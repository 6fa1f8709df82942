package filter

import (
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/maine/rssnotify/internal/news"
)

// ErrMalformedDate is returned when an entry carries a publish date the feed
// parser could not read.
var ErrMalformedDate = errors.New("malformed publish date")

// SelectInRange keeps the entries published inside w, in input order.
// Entries without a publish date or without a link are dropped. A date that
// is present but could not be parsed aborts the selection.
func SelectInRange(entries []news.FeedEntry, w news.Window) ([]news.FeedEntry, error) {
	selected := make([]news.FeedEntry, 0, len(entries))
	for _, entry := range entries {
		if strings.TrimSpace(entry.Published) == "" {
			continue
		}

		if entry.PublishedAt == nil {
			return nil, fmt.Errorf("entry %q from %s: %w: %q", entry.Title, entry.Feed, ErrMalformedDate, entry.Published)
		}

		if !w.Contains(entry.PublishedAt.In(news.JST)) {
			continue
		}

		if strings.TrimSpace(entry.Link) == "" {
			log.WithFields(log.Fields{
				"title": entry.Title,
				"feed":  entry.Feed,
			}).Warn("Skipping entry without link")
			continue
		}

		selected = append(selected, entry)
	}
	return selected, nil
}
