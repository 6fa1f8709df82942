package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/maine/rssnotify/internal/news"
)

// defaultLookback is how far back the window starts when --from-date is
// not given.
const defaultLookback = 24 * time.Hour

var errInvertedWindow = errors.New("from-date is after to-date")

// dateLayouts are accepted by --from-date and --to-date. Values without an
// offset are read as JST.
var dateLayouts = []string{
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006/01/02",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC3339,
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, news.JST); err == nil {
			return t.In(news.JST), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q, want yyyy/MM/dd HH:mm:ss", value)
}

// resolveWindow builds the date window from the optional flag values.
// Missing bounds default to the 24 hours before now.
func resolveWindow(from, to string, now time.Time) (news.Window, error) {
	w := news.Window{
		From: now.In(news.JST).Add(-defaultLookback),
		To:   now.In(news.JST),
	}

	if from != "" {
		t, err := parseDate(from)
		if err != nil {
			return news.Window{}, fmt.Errorf("from-date: %w", err)
		}
		w.From = t
	}
	if to != "" {
		t, err := parseDate(to)
		if err != nil {
			return news.Window{}, fmt.Errorf("to-date: %w", err)
		}
		w.To = t
	}

	if w.From.After(w.To) {
		return news.Window{}, fmt.Errorf("%w: %s > %s", errInvertedWindow, w.From, w.To)
	}
	return w, nil
}
