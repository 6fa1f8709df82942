package filter

import (
	"context"
	"net/url"
	"strings"

	"github.com/samber/lo"

	"github.com/maine/rssnotify/internal/news"
)

// Resolver turns a possibly shortened link into its final destination and
// never fails.
type Resolver interface {
	ResolveOrOriginal(ctx context.Context, rawURL string) string
}

// IgnoredByTitle reports whether title contains any of words. Matching is
// case-sensitive.
func IgnoredByTitle(title string, words []string) bool {
	return lo.SomeBy(words, func(word string) bool {
		return strings.Contains(title, word)
	})
}

// IgnoredByDomain resolves rawURL and reports whether its host (with port,
// if any) equals one of domains exactly.
func IgnoredByDomain(ctx context.Context, r Resolver, rawURL string, domains []string) bool {
	if len(domains) == 0 {
		return false
	}
	resolved := rawURL
	if r != nil {
		resolved = r.ResolveOrOriginal(ctx, rawURL)
	}
	u, err := url.Parse(resolved)
	if err != nil {
		return false
	}
	return lo.Contains(domains, u.Host)
}

// Ignore bundles the operator's ignore lists.
type Ignore struct {
	Words    []string
	Domains  []string
	Resolver Resolver
}

// Check reports whether post must be dropped and, if so, why.
func (i Ignore) Check(ctx context.Context, post news.Post) (bool, string) {
	if IgnoredByTitle(post.Title, i.Words) {
		return true, "ignore_word"
	}
	if IgnoredByDomain(ctx, i.Resolver, post.DestinationURL, i.Domains) {
		return true, "ignore_domain"
	}
	return false, ""
}
