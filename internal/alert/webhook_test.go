package alert

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestDispatchMatchesKind(t *testing.T) {
	var called atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDispatcher([]Config{
		{URL: srv.URL, Format: "generic", Events: []string{"kill_switch"}},
	})

	d.Dispatch(Event{Kind: "kill_switch", Zone: "panic", Stability: 12.0})
	time.Sleep(200 * time.Millisecond)

	if called.Load() != 1 {
		t.Errorf("expected 1 call, got %d", called.Load())
	}
}

func TestDispatchMatchesZone(t *testing.T) {
	var called atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDispatcher([]Config{
		{URL: srv.URL, Format: "generic", Events: []string{"danger_high"}},
	})

	d.Dispatch(Event{Kind: "zone_entry", Zone: "danger_high", Stability: 7.0})
	time.Sleep(200 * time.Millisecond)

	if called.Load() != 1 {
		t.Errorf("expected 1 call for zone match, got %d", called.Load())
	}
}

func TestDispatchSkipsNonMatching(t *testing.T) {
	var called atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDispatcher([]Config{
		{URL: srv.URL, Format: "generic", Events: []string{"kill_switch"}},
	})

	d.Dispatch(Event{Kind: "zone_entry", Zone: "stable", Stability: 0})
	time.Sleep(200 * time.Millisecond)

	if called.Load() != 0 {
		t.Errorf("expected 0 calls for non-matching event, got %d", called.Load())
	}
}

func TestDispatchMultipleWebhooks(t *testing.T) {
	var called atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called.Add(1)
		w.WriteHeader(http.StatusOK)
	})

	srv1 := httptest.NewServer(handler)
	defer srv1.Close()
	srv2 := httptest.NewServer(handler)
	defer srv2.Close()

	d := NewDispatcher([]Config{
		{URL: srv1.URL, Format: "generic", Events: []string{"emergency"}},
		{URL: srv2.URL, Format: "generic", Events: []string{"emergency", "kill_switch"}},
	})

	d.Dispatch(Event{Kind: "emergency", Zone: "danger_med", Derivative: 6.2})
	time.Sleep(200 * time.Millisecond)

	if called.Load() != 2 {
		t.Errorf("expected 2 calls (both webhooks match), got %d", called.Load())
	}
}

func TestNewDispatcherEmptyConfigs(t *testing.T) {
	if d := NewDispatcher(nil); d != nil {
		t.Error("expected nil dispatcher for empty configs")
	}
}

func TestFormatGenericRoundTrip(t *testing.T) {
	event := Event{Kind: "kill_switch", Zone: "panic", Stability: 12.0, Compliance: 42.5}
	body, err := FormatPayload("generic", event)
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	var decoded Event
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded != event {
		t.Errorf("round trip mismatch: %+v vs %+v", decoded, event)
	}
}

func TestFormatSlackHasBlocks(t *testing.T) {
	body, err := FormatPayload("slack", Event{Kind: "emergency", Zone: "danger_low"})
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := payload["blocks"]; !ok {
		t.Error("slack payload must contain blocks")
	}
}

func TestFormatPagerDutySeverity(t *testing.T) {
	cases := map[string]string{
		"kill_switch":           "critical",
		"emergency":             "error",
		"rapid_destabilization": "warning",
		"zone_entry":            "info",
	}
	for kind, want := range cases {
		body, err := FormatPayload("pagerduty", Event{Kind: kind})
		if err != nil {
			t.Fatalf("format %s: %v", kind, err)
		}
		var payload struct {
			Payload struct {
				Severity string `json:"severity"`
			} `json:"payload"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if payload.Payload.Severity != want {
			t.Errorf("%s: want severity %s, got %s", kind, want, payload.Payload.Severity)
		}
	}
}

func TestSendRetriesOn5xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := Send(Config{URL: srv.URL, Format: "generic"}, Event{Kind: "emergency"})
	if err != nil {
		t.Errorf("expected retry to succeed, got %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 attempts, got %d", calls.Load())
	}
}

func TestSendGivesUpOn4xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	err := Send(Config{URL: srv.URL, Format: "generic"}, Event{Kind: "emergency"})
	if err == nil {
		t.Error("expected error on 4xx")
	}
	if calls.Load() != 1 {
		t.Errorf("expected no retry on 4xx, got %d attempts", calls.Load())
	}
}
