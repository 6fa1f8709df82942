package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/samber/lo"
)

// feedLinkSelector matches feeds advertised in the page <head>.
const feedLinkSelector = `link[rel="alternate"][type="application/rss+xml"], link[rel="alternate"][type="application/atom+xml"]`

// DiscoverFeeds returns the feed URLs a web page links to, sorted and
// without duplicates. It looks at advertised <link rel="alternate"> feeds
// and at anchors whose target looks like a feed.
func DiscoverFeeds(ctx context.Context, client *http.Client, pageURL string) ([]string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("get %s: unexpected status %d", pageURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	var found []string
	doc.Find(feedLinkSelector).Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			if u, ok := resolveHref(base, href); ok {
				found = append(found, u)
			}
		}
	})
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		u, ok := resolveHref(base, href)
		if ok && looksLikeFeed(u) {
			found = append(found, u)
		}
	})

	feeds := lo.Uniq(found)
	sort.Strings(feeds)
	return feeds, nil
}

func resolveHref(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	u := base.ResolveReference(ref)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	return u.String(), true
}

func looksLikeFeed(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	return lo.SomeBy([]string{"/rss", "/feed", ".rss", ".rdf", "/atom", "atom.xml", "rss.xml", "feed.xml", "index.xml"}, func(p string) bool {
		return strings.Contains(lower, p)
	})
}
