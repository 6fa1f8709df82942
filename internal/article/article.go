package article

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const userAgent = "rssnotify/1.0 (+https://github.com/maine/rssnotify)"

// Text downloads the page at url and returns its visible text: the <head>
// and the first <b> element are dropped and the remaining non-blank text
// nodes are concatenated in document order.
func Text(ctx context.Context, client *http.Client, url string) (string, error) {
	doc, err := fetchDoc(ctx, client, url)
	if err != nil {
		return "", err
	}

	doc.Find("head").Remove()
	doc.Find("b").First().Remove()

	var sb strings.Builder
	appendText(&sb, doc.Selection)
	return sb.String(), nil
}

func fetchDoc(ctx context.Context, client *http.Client, url string) (*goquery.Document, error) {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("get %s: status %s", url, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}
	return doc, nil
}

func appendText(sb *strings.Builder, s *goquery.Selection) {
	s.Contents().Each(func(_ int, child *goquery.Selection) {
		if goquery.NodeName(child) == "#text" {
			if text := child.Text(); strings.TrimSpace(text) != "" {
				sb.WriteString(text)
			}
			return
		}
		appendText(sb, child)
	})
}
