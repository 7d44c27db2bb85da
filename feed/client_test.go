package feed

import (
	"encoding/json"
	"testing"
	"time"

	"mainttrack/config"

	"go.uber.org/zap"
)

func TestTopicNaming(t *testing.T) {
	cfg := config.Defaults()

	cfg.Feed.Backend = "mqtt"
	c := NewClient(&cfg.Feed, zap.NewNop())
	if got := c.Topic("equipment"); got != "mainttrack/changes/equipment" {
		t.Errorf("mqtt topic = %q", got)
	}

	cfg.Feed.Backend = "redis"
	c = NewClient(&cfg.Feed, zap.NewNop())
	if got := c.Topic("breakdown_reports"); got != "mainttrack:changes:breakdown_reports" {
		t.Errorf("redis channel = %q", got)
	}
}

func TestConnectUnknownBackendFailsFast(t *testing.T) {
	cfg := config.Defaults()
	cfg.Feed.Backend = "carrier-pigeon"
	c := NewClient(&cfg.Feed, zap.NewNop())

	start := time.Now()
	if err := c.Connect(); err == nil {
		t.Fatal("expected error for unknown backend")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("unknown backend retried for %v, want immediate failure", elapsed)
	}
}

// Connect sleeps between retries; those sleeps must not hold the client
// lock, or IsConnected stalls for the whole retry window.
func TestConnectRetryDoesNotBlockReaders(t *testing.T) {
	cfg := config.Defaults()
	cfg.Feed.Backend = "redis"
	cfg.Feed.Redis.Address = "127.0.0.1:1" // nothing listening, dial fails fast
	c := NewClient(&cfg.Feed, zap.NewNop())

	go c.Connect()
	time.Sleep(100 * time.Millisecond) // land inside the first retry sleep

	done := make(chan bool, 1)
	go func() { done <- c.IsConnected() }()
	select {
	case connected := <-done:
		if connected {
			t.Error("IsConnected = true with no broker")
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("IsConnected blocked while Connect was retrying")
	}
}

func TestDispatchDecodesEvent(t *testing.T) {
	cfg := config.Defaults()
	c := NewClient(&cfg.Feed, zap.NewNop())

	var got Event
	payload := []byte(`{"action":"update","table":"equipment_status","record":{"id":"st-1","status":"running"}}`)
	c.dispatch("equipment_status", payload, func(evt Event) { got = evt })

	if got.Action != ActionUpdate {
		t.Errorf("Action = %q, want %q", got.Action, ActionUpdate)
	}
	if got.Table != "equipment_status" {
		t.Errorf("Table = %q", got.Table)
	}
	var rec map[string]any
	if err := json.Unmarshal(got.Record, &rec); err != nil {
		t.Fatalf("record decode: %v", err)
	}
	if rec["id"] != "st-1" {
		t.Errorf("record id = %v", rec["id"])
	}
}

func TestDispatchFillsTable(t *testing.T) {
	cfg := config.Defaults()
	c := NewClient(&cfg.Feed, zap.NewNop())

	var got Event
	c.dispatch("equipment", []byte(`{"action":"delete","record":{"id":"E1"}}`), func(evt Event) { got = evt })
	if got.Table != "equipment" {
		t.Errorf("Table = %q, want filled from the subscription", got.Table)
	}
}

func TestDispatchSkipsMalformedPayload(t *testing.T) {
	cfg := config.Defaults()
	c := NewClient(&cfg.Feed, zap.NewNop())

	called := false
	c.dispatch("equipment", []byte(`{not json`), func(Event) { called = true })
	if called {
		t.Error("handler should not run for undecodable payloads")
	}
}
