package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// WebhookClient posts messages to an incoming webhook. It allows mocking in
// tests.
type WebhookClient interface {
	PostMessage(ctx context.Context, webhookURL string, msg Message) error
}

// StatusError is returned when the webhook answers with anything but 200.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook status %d: %s", e.Code, e.Body)
}

// Client posts to Slack incoming webhooks.
type Client struct {
	client *http.Client
}

var _ WebhookClient = (*Client)(nil)

// NewClient creates a client. A nil http.Client gets a default one.
func NewClient(client *http.Client) *Client {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{client: client}
}

// PostMessage sends msg as JSON. Only HTTP 200 counts as delivered.
func (c *Client) PostMessage(ctx context.Context, webhookURL string, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		const readLimit = 1024
		body, _ := io.ReadAll(io.LimitReader(resp.Body, readLimit))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
