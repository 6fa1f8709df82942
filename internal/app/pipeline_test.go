package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maine/rssnotify/internal/filter"
	"github.com/maine/rssnotify/internal/news"
	"github.com/maine/rssnotify/internal/resolver"
	"github.com/maine/rssnotify/internal/slack"
	"github.com/maine/rssnotify/internal/sources"
	"github.com/maine/rssnotify/internal/state"
)

const feedTemplate = `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>news</title>
    <item>
      <title>短縮リンクの記事</title>
      <link>%[1]s/s/1</link>
      <pubDate>Wed, 24 Mar 2021 10:00:00 +0900</pubDate>
    </item>
    <item>
      <title>同じ記事の別リンク</title>
      <link>%[1]s/s/2</link>
      <pubDate>Wed, 24 Mar 2021 11:00:00 +0900</pubDate>
    </item>
    <item>
      <title>F1 開幕戦</title>
      <link>%[1]s/f1</link>
      <pubDate>Wed, 24 Mar 2021 12:00:00 +0900</pubDate>
    </item>
    <item>
      <title>古い記事</title>
      <link>%[1]s/old</link>
      <pubDate>Mon, 22 Mar 2021 12:00:00 +0900</pubDate>
    </item>
  </channel>
</rss>`

type webhookRecorder struct {
	mu       sync.Mutex
	messages []slack.Message
}

func (w *webhookRecorder) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	var msg slack.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		http.Error(rw, err.Error(), http.StatusBadRequest)
		return
	}
	w.mu.Lock()
	w.messages = append(w.messages, msg)
	w.mu.Unlock()
	fmt.Fprint(rw, "ok")
}

func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/feed.rss", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, feedTemplate, srv.URL)
	})
	mux.HandleFunc("/s/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/article", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/article", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("/f1", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestPipeline_Run_EndToEnd(t *testing.T) {
	ctx := context.Background()
	site := newSite(t)

	hook := &webhookRecorder{}
	hookSrv := httptest.NewServer(hook)
	defer hookSrv.Close()

	store, err := state.Open(ctx, filepath.Join(t.TempDir(), "rssnotify.db"))
	require.NoError(t, err)
	defer store.Close()

	res := resolver.New(site.Client())
	window := news.Window{
		From: time.Date(2021, 3, 24, 0, 0, 0, 0, news.JST),
		To:   time.Date(2021, 3, 25, 0, 0, 0, 0, news.JST),
	}

	newPipeline := func() *Pipeline {
		return NewPipeline(PipelineDeps{
			Collector: sources.NewRSSCollector([]string{site.URL + "/feed.rss"}, site.Client()),
			Resolver:  res,
			Dispatcher: slack.NewDispatcher(slack.DispatcherConfig{
				Client:  slack.NewClient(hookSrv.Client()),
				Tracker: store,
				Ignore:  filter.Ignore{Words: []string{"F1"}, Resolver: res},
			}),
			WebhookURL: hookSrv.URL,
		})
	}

	report, err := newPipeline().Run(ctx, window)
	require.NoError(t, err)

	assert.Equal(t, 4, report.Collected)
	assert.Equal(t, 3, report.Selected)
	assert.Equal(t, 2, report.Unique)
	assert.Equal(t, 1, report.Count(news.Sent))
	assert.Equal(t, 1, report.Count(news.Filtered))

	require.Len(t, hook.messages, 1)
	msg := hook.messages[0]
	assert.Equal(t, "【2021年03月24日 00:00:00〜2021年03月25日 00:00:00】", msg.Text)
	assert.Equal(t, 1, msg.LinkNames)
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "短縮リンクの記事", msg.Attachments[0].Title)
	assert.Equal(t, site.URL+"/article", msg.Attachments[0].TitleLink)

	records, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, site.URL+"/article", records[0].URL)

	// a second run over the same window posts nothing new
	report, err = newPipeline().Run(ctx, window)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Count(news.AlreadyDelivered))
	assert.Len(t, hook.messages, 1)
}

type stubCollector struct {
	entries []news.FeedEntry
	err     error
}

func (s stubCollector) Collect(context.Context) ([]news.FeedEntry, error) {
	return s.entries, s.err
}

type identityResolver struct{}

func (identityResolver) ResolveOrOriginal(_ context.Context, rawURL string) string { return rawURL }

type recordingDispatcher struct {
	posts  []news.Post
	header string
	err    error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, posts []news.Post, header, _ string) (news.Report, error) {
	d.posts = posts
	d.header = header
	var r news.Report
	for range posts {
		r.Add(news.Sent)
	}
	return r, d.err
}

func TestPipeline_Run_NotConfigured(t *testing.T) {
	_, err := NewPipeline(PipelineDeps{
		Collector:  stubCollector{},
		Resolver:   identityResolver{},
		Dispatcher: &recordingDispatcher{},
	}).Run(context.Background(), news.Window{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestPipeline_Run_Errors(t *testing.T) {
	window := news.Window{
		From: time.Date(2021, 3, 24, 0, 0, 0, 0, news.JST),
		To:   time.Date(2021, 3, 25, 0, 0, 0, 0, news.JST),
	}

	t.Run("collect", func(t *testing.T) {
		boom := errors.New("feed down")
		d := &recordingDispatcher{}
		_, err := NewPipeline(PipelineDeps{
			Collector:  stubCollector{err: boom},
			Resolver:   identityResolver{},
			Dispatcher: d,
			WebhookURL: "https://hooks.example.com/x",
		}).Run(context.Background(), window)
		assert.ErrorIs(t, err, boom)
		assert.Nil(t, d.posts)
	})

	t.Run("malformed date", func(t *testing.T) {
		d := &recordingDispatcher{}
		_, err := NewPipeline(PipelineDeps{
			Collector: stubCollector{entries: []news.FeedEntry{
				{Title: "bad", Link: "https://example.com/bad", Published: "yesterday-ish"},
			}},
			Resolver:   identityResolver{},
			Dispatcher: d,
			WebhookURL: "https://hooks.example.com/x",
		}).Run(context.Background(), window)
		assert.ErrorIs(t, err, filter.ErrMalformedDate)
		assert.Nil(t, d.posts)
	})

	t.Run("dispatch keeps counts", func(t *testing.T) {
		published := time.Date(2021, 3, 24, 10, 0, 0, 0, news.JST)
		boom := errors.New("tracker gone")
		d := &recordingDispatcher{err: boom}
		report, err := NewPipeline(PipelineDeps{
			Collector: stubCollector{entries: []news.FeedEntry{
				{Title: "a", Link: "https://example.com/a", Published: "Wed, 24 Mar 2021 10:00:00 +0900", PublishedAt: &published},
			}},
			Resolver:   identityResolver{},
			Dispatcher: d,
			WebhookURL: "https://hooks.example.com/x",
		}).Run(context.Background(), window)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, report.Collected)
		assert.Equal(t, 1, report.Unique)
		assert.Equal(t, "【2021年03月24日 00:00:00〜2021年03月25日 00:00:00】", d.header)
	})
}

func TestPipeline_Run_SkipsEntriesWithoutLink(t *testing.T) {
	window := news.Window{
		From: time.Date(2021, 3, 24, 0, 0, 0, 0, news.JST),
		To:   time.Date(2021, 3, 25, 0, 0, 0, 0, news.JST),
	}
	published := time.Date(2021, 3, 24, 10, 0, 0, 0, news.JST)

	d := &recordingDispatcher{}
	report, err := NewPipeline(PipelineDeps{
		Collector: stubCollector{entries: []news.FeedEntry{
			{Title: "no link", Published: "Wed, 24 Mar 2021 10:00:00 +0900", PublishedAt: &published},
			{Title: "blank link", Link: "  ", Published: "Wed, 24 Mar 2021 10:00:00 +0900", PublishedAt: &published},
			{Title: "linked", Link: "https://example.com/a", Published: "Wed, 24 Mar 2021 10:00:00 +0900", PublishedAt: &published},
		}},
		Resolver:   identityResolver{},
		Dispatcher: d,
		WebhookURL: "https://hooks.example.com/x",
	}).Run(context.Background(), window)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Collected)
	assert.Equal(t, 1, report.Selected)
	assert.Equal(t, []news.Post{{Title: "linked", DestinationURL: "https://example.com/a"}}, d.posts)
}
