package events

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hasanawais/pica/internal/core"
)

// Webhook POSTs one JSON record per event to a configured URL.
type Webhook struct {
	url     string
	method  string
	headers map[string]string
	client  *http.Client
}

// WebhookOptions configures the webhook sink.
type WebhookOptions struct {
	URL     string
	Method  string
	Headers map[string]string
	Timeout time.Duration
}

// NewWebhook creates a webhook sink. Returns an error if URL is empty.
func NewWebhook(opts WebhookOptions) (*Webhook, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("events: webhook url is required")
	}
	method := opts.Method
	if method == "" {
		method = http.MethodPost
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Webhook{
		url:     opts.URL,
		method:  method,
		headers: opts.Headers,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// Publish implements Sink.
func (w *Webhook) Publish(ctx context.Context, ev core.Event) error {
	data, err := json.Marshal(newRecord(ev, time.Now()))
	if err != nil {
		return fmt.Errorf("events: marshal record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, w.method, w.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("events: build webhook request: %w", err)
	}
	if _, ok := w.headers["Content-Type"]; !ok {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("events: send webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("events: webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// Close implements Sink; no persistent connection to tear down.
func (w *Webhook) Close() error { return nil }

// Name implements Sink.
func (w *Webhook) Name() string { return fmt.Sprintf("webhook:%s", w.url) }
