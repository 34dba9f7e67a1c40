package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pagesmith-io/pagesmith/adapter"
)

func sampleEvent() *adapter.ConversionCompletedEvent {
	return &adapter.ConversionCompletedEvent{
		EventType:  adapter.EventType,
		RequestID:  "req-1a2b3c4d",
		Outcome:    "success",
		Heuristic:  true,
		CodeBytes:  128,
		EventCount: 3,
		DurationMs: 4200,
		Timestamp:  time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC).Format(time.RFC3339),
	}
}

func TestNew_RequiresURL(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("New() accepted an empty URL")
	}
	if _, err := New(Config{URL: "http://localhost", Retries: -1}); err == nil {
		t.Error("New() accepted negative retries")
	}
}

func TestAdapter_Publish(t *testing.T) {
	var got adapter.ConversionCompletedEvent
	var contentType, custom, requestID, ua string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		custom = r.Header.Get("X-Custom")
		requestID = r.Header.Get("X-Request-ID")
		ua = r.Header.Get("User-Agent")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	a, err := New(Config{
		URL:     server.URL,
		Headers: map[string]string{"X-Custom": "pagesmith"},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer a.Close()

	if err := a.Publish(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("Publish() error: %v", err)
	}
	if contentType != "application/json" {
		t.Errorf("Content-Type = %q", contentType)
	}
	if custom != "pagesmith" {
		t.Errorf("X-Custom = %q", custom)
	}
	if requestID != "req-1a2b3c4d" {
		t.Errorf("X-Request-ID = %q", requestID)
	}
	if ua != userAgent {
		t.Errorf("User-Agent = %q, want %q", ua, userAgent)
	}
	if got.RequestID != "req-1a2b3c4d" || got.EventType != adapter.EventType {
		t.Errorf("delivered event = %+v", got)
	}
	if got.Timestamp != "2026-08-28T12:00:00Z" {
		t.Errorf("timestamp = %q, want RFC 3339 text", got.Timestamp)
	}
}

func TestAdapter_PublishRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	a, err := New(Config{URL: server.URL, Retries: 1})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer a.Close()

	if err := a.Publish(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("Publish() error after retriable failure: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("server saw %d calls, want 2", calls.Load())
	}
}

func TestAdapter_PublishClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	a, err := New(Config{URL: server.URL, Retries: 3})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer a.Close()

	if err := a.Publish(context.Background(), sampleEvent()); err == nil {
		t.Fatal("Publish() succeeded on a 4xx response")
	}
	if calls.Load() != 1 {
		t.Errorf("server saw %d calls, want 1 (4xx is non-retriable)", calls.Load())
	}
}

func TestAdapter_PublishRejectsBareEvent(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	a, err := New(Config{URL: server.URL})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer a.Close()

	event := &adapter.ConversionCompletedEvent{EventType: adapter.EventType, Outcome: "success"}
	if err := a.Publish(context.Background(), event); err == nil {
		t.Error("Publish() accepted an event without a request ID")
	}
	if calls != 0 {
		t.Errorf("server saw %d calls for an invalid event, want 0", calls)
	}
}

func TestAdapter_PublishCanceledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	a, err := New(Config{URL: server.URL})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := a.Publish(ctx, sampleEvent()); err == nil {
		t.Error("Publish() succeeded with a canceled context")
	}
}
