package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

const testFeed = `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>news</title>
    <item>
      <title>記事</title>
      <link>%s/article</link>
      <pubDate>Wed, 24 Mar 2021 10:00:00 +0900</pubDate>
    </item>
  </channel>
</rss>`

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	a := rootApp()
	a.Writer = &out
	a.ExitErrHandler = func(*cli.Context, error) {}
	err := a.RunContext(context.Background(), append([]string{"rssnotify", "--env-file", filepath.Join(t.TempDir(), "missing.env")}, args...))
	return out.String(), err
}

func TestRunAndHistory(t *testing.T) {
	var site *httptest.Server
	site = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/feed.rss" {
			fmt.Fprintf(w, testFeed, site.URL)
		}
	}))
	defer site.Close()

	var posts atomic.Int32
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posts.Add(1)
	}))
	defer hook.Close()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(fmt.Sprintf(
		"target_urls:\n  - %s/feed.rss\nwebhook_url: %s\nignore_words: []\nignore_domains: []\n",
		site.URL, hook.URL,
	)), 0o600))
	dbPath := filepath.Join(dir, "rssnotify.db")

	out, err := runApp(t, "history", "--database", dbPath)
	require.NoError(t, err)
	assert.Equal(t, "no deliveries recorded\n", out)

	runArgs := []string{
		"run",
		"--config", cfgPath,
		"--database", dbPath,
		"--from-date", "2021/03/24 00:00:00",
		"--to-date", "2021/03/25 00:00:00",
		"--post-wait", "0s",
	}

	out, err = runApp(t, append(runArgs, "--dry-run")...)
	require.NoError(t, err)
	assert.Contains(t, out, "sent=0")
	assert.Equal(t, int32(0), posts.Load())

	out, err = runApp(t, runArgs...)
	require.NoError(t, err)
	assert.Contains(t, out, "collected=1 selected=1 unique=1 sent=1")
	assert.Equal(t, int32(1), posts.Load())

	out, err = runApp(t, runArgs...)
	require.NoError(t, err)
	assert.Contains(t, out, "sent=0 failed=0 filtered=0 already_delivered=1")
	assert.Equal(t, int32(1), posts.Load())

	out, err = runApp(t, "history", "--database", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, site.URL+"/article")
}

func TestRun_MissingConfigKey(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("target_urls:\n  - https://example.com/feed\n"), 0o600))

	_, err := runApp(t, "run", "--config", cfgPath, "--database", filepath.Join(dir, "db"))
	assert.ErrorContains(t, err, "webhook_url")
}

func TestArticle_RequiresURL(t *testing.T) {
	_, err := runApp(t, "article")
	assert.Error(t, err)
}
