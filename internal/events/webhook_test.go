package events

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hasanawais/pica/internal/core"
	"github.com/hasanawais/pica/internal/model"
)

func TestNewWebhookRequiresURL(t *testing.T) {
	if _, err := NewWebhook(WebhookOptions{}); err == nil {
		t.Fatal("expected error for empty URL")
	}
}

func TestWebhookPublishPostsJSON(t *testing.T) {
	var received Record
	var gotContentType string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	hook, err := NewWebhook(WebhookOptions{URL: srv.URL})
	if err != nil {
		t.Fatalf("NewWebhook: %v", err)
	}

	ev := core.DeviceAdded{Category: model.CategoryAnchor, MacAddress: model.NewShortAddress([2]byte{0x02, 0x00})}
	if err := hook.Publish(context.Background(), ev); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if gotContentType != "application/json" {
		t.Fatalf("content-type = %q, want application/json", gotContentType)
	}
	if received.Type != "device_added" {
		t.Fatalf("received.Type = %q, want device_added", received.Type)
	}
}

func TestWebhookPublishNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	hook, err := NewWebhook(WebhookOptions{URL: srv.URL})
	if err != nil {
		t.Fatalf("NewWebhook: %v", err)
	}

	ev := core.DeviceRemoved{Category: model.CategoryUCI, MacAddress: model.NewShortAddress([2]byte{0x03, 0x00})}
	if err := hook.Publish(context.Background(), ev); err == nil {
		t.Fatal("expected error for 500 response")
	}
}
