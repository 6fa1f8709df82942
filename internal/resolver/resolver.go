package resolver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	log "github.com/sirupsen/logrus"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultCacheSize = 1024
)

// ErrNoFinalURL is returned when a response carries no request URL.
var ErrNoFinalURL = errors.New("response has no final url")

// Resolver follows redirects of shortened links with a single HEAD request.
type Resolver struct {
	client *http.Client
	cache  *lru.Cache[string, string]
}

// New creates a Resolver. A nil client gets a default one with a timeout.
func New(client *http.Client) *Resolver {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	cache, err := lru.New[string, string](defaultCacheSize)
	if err != nil {
		// lru.New only fails on a non-positive size.
		panic(err)
	}
	return &Resolver{client: client, cache: cache}
}

// Resolve returns the URL the link finally points to after following
// redirects. Non-2xx responses still count as a destination.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (string, error) {
	if cached, ok := r.cache.Get(rawURL); ok {
		return cached, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("head %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.Request == nil || resp.Request.URL == nil || resp.Request.URL.String() == "" {
		return "", ErrNoFinalURL
	}

	final := resp.Request.URL.String()
	r.cache.Add(rawURL, final)
	return final, nil
}

// ResolveOrOriginal is Resolve that never fails: on any error the input is
// returned unchanged.
func (r *Resolver) ResolveOrOriginal(ctx context.Context, rawURL string) string {
	final, err := r.Resolve(ctx, rawURL)
	if err != nil {
		log.WithFields(log.Fields{
			"url":   rawURL,
			"error": err,
		}).Warn("Could not resolve link, using it as is")
		return rawURL
	}
	return final
}
