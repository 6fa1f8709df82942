package sources

import (
	"net/http"
	"net/url"
	"time"
)

// DefaultTimeout bounds a single feed request.
const DefaultTimeout = 30 * time.Second

// NewHTTPClient returns a client that sends every request through proxy.
// A nil proxy disables proxying, including proxies from the environment.
func NewHTTPClient(proxy *url.URL, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	if proxy != nil {
		transport.Proxy = http.ProxyURL(proxy)
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}
