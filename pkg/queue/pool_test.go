package queue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"stockscout/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	lgr, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return lgr
}

type countingJob struct {
	name    string
	msgType string
	calls   atomic.Int64
	failN   int64
}

func (j *countingJob) Name() string { return j.name }
func (j *countingJob) Type() string { return j.msgType }

func (j *countingJob) Handle(_ context.Context, _ interface{}) error {
	n := j.calls.Add(1)
	if n <= j.failN {
		return errors.New("transient failure")
	}
	return nil
}

func TestPoolProcessesMessages(t *testing.T) {
	job := &countingJob{name: "analyze", msgType: "analyze_ticker"}
	p := NewPool(testLogger(t), &Config{Workers: 4, QueueSize: 8}, []Job{job})
	if err := p.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer p.Stop(context.Background())

	ctx := context.Background()
	for i := 0; i < 20; i++ {
		if err := p.PublishMessage(ctx, "analyze_ticker", map[string]interface{}{"ticker": "NET"}); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}
	p.Wait()

	if got := job.calls.Load(); got != 20 {
		t.Errorf("calls = %d, want 20", got)
	}
}

func TestPoolRetriesFailedJobs(t *testing.T) {
	job := &countingJob{name: "analyze", msgType: "analyze_ticker", failN: 2}
	p := NewPool(testLogger(t), &Config{Workers: 1, RetryLimit: 3, RetryDelay: time.Millisecond}, []Job{job})
	if err := p.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer p.Stop(context.Background())

	if err := p.PublishMessage(context.Background(), "analyze_ticker", nil); err != nil {
		t.Fatalf("publish: %v", err)
	}
	p.Wait()

	if got := job.calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3 (two failures then success)", got)
	}
}

func TestPoolPublishAfterStop(t *testing.T) {
	p := NewPool(testLogger(t), nil, nil)
	if err := p.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := p.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}

	if err := p.PublishMessage(context.Background(), "analyze_ticker", nil); err == nil {
		t.Error("expected error publishing to stopped pool")
	}
}

func TestParsePayload(t *testing.T) {
	type task struct {
		Ticker string `json:"ticker"`
	}

	got, err := ParsePayload[task](map[string]interface{}{"ticker": "DDOG"})
	if err != nil {
		t.Fatalf("parse map: %v", err)
	}
	if got.Ticker != "DDOG" {
		t.Errorf("ticker = %q", got.Ticker)
	}

	got, err = ParsePayload[task](task{Ticker: "ZS"})
	if err != nil {
		t.Fatalf("parse struct: %v", err)
	}
	if got.Ticker != "ZS" {
		t.Errorf("ticker = %q", got.Ticker)
	}

	if _, err := ParsePayload[task](42); err == nil {
		t.Error("expected error for invalid payload type")
	}
}
