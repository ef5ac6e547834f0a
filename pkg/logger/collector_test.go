package logger

import (
	"context"
	"sync"
	"testing"
	"time"
)

type capturePublisher struct {
	mu      sync.Mutex
	batches [][]AggregatedLogEntry
}

func (p *capturePublisher) PublishMessage(_ context.Context, _ string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches = append(p.batches, payload.([]AggregatedLogEntry))
	return nil
}

func (p *capturePublisher) entries() []AggregatedLogEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []AggregatedLogEntry
	for _, b := range p.batches {
		out = append(out, b...)
	}
	return out
}

func TestCollectorDeduplicatesAcrossFields(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(&CollectionConfig{
		TimeInterval:   time.Hour,
		CountThreshold: 100,
		Topic:          "logs",
		Publisher:      pub,
	})

	// Same site, different per-event fields: must collapse to one entry.
	c.AddLog("error", "analyze failed", map[string]interface{}{"ticker": "DDOG"}, "scanner.go:42")
	c.AddLog("error", "analyze failed", map[string]interface{}{"ticker": "NET"}, "scanner.go:42")
	c.AddLog("error", "analyze failed", map[string]interface{}{"ticker": "MDB"}, "scanner.go:42")
	c.AddLog("warn", "analyze failed", nil, "scanner.go:42")

	c.Close()

	// Flush publishes asynchronously.
	deadline := time.Now().Add(2 * time.Second)
	var entries []AggregatedLogEntry
	for time.Now().Before(deadline) {
		entries = pub.entries()
		if len(entries) > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2 (error and warn)", len(entries))
	}
	for _, e := range entries {
		switch e.Level {
		case "error":
			if e.Count != 3 {
				t.Errorf("error count = %d, want 3", e.Count)
			}
			if e.Fields["ticker"] != "DDOG" {
				t.Errorf("fields sample = %v, want first occurrence", e.Fields)
			}
		case "warn":
			if e.Count != 1 {
				t.Errorf("warn count = %d, want 1", e.Count)
			}
		default:
			t.Errorf("unexpected level %q", e.Level)
		}
	}
}

func TestCollectorFlushesAtThreshold(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(&CollectionConfig{
		TimeInterval:   time.Hour,
		CountThreshold: 2,
		Topic:          "logs",
		Publisher:      pub,
	})
	defer c.Close()

	c.AddLog("error", "kafka publish failed", nil, "producer.go:10")
	c.AddLog("error", "clickhouse insert failed", nil, "store.go:20")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(pub.entries()) == 2 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("threshold flush did not publish, got %d entries", len(pub.entries()))
}
