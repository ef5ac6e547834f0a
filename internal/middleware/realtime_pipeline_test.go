package middleware

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"stockscout/internal/domain/models"
)

type stubProc struct {
	calls atomic.Int64
	err   error
}

func (s *stubProc) Process(_ context.Context, _ *models.Trade) error {
	s.calls.Add(1)
	return s.err
}

type nopMetrics struct{}

func (nopMetrics) RecordAnalysis(string)           {}
func (nopMetrics) RecordEventSent(string, string)  {}
func (nopMetrics) RecordError(string)              {}
func (nopMetrics) RecordLastPrice(string, float64) {}
func (nopMetrics) RecordScore(string, float64)     {}
func (nopMetrics) RecordLatency(string, float64)   {}

func trade(symbol string) *models.Trade {
	return &models.Trade{Symbol: symbol, Price: 100, Volume: 10, Timestamp: time.Now()}
}

func TestPipelineRejectsInvalidTrades(t *testing.T) {
	proc := &stubProc{}
	p := NewRealtimePipeline(proc, nopMetrics{})

	cases := []*models.Trade{
		nil,
		{Price: 1, Volume: 1, Timestamp: time.Now()},                 // empty symbol
		{Symbol: "NET", Price: 1, Volume: 1},                         // zero timestamp
		{Symbol: "NET", Price: -1, Volume: 1, Timestamp: time.Now()}, // negative price
	}
	for i, tr := range cases {
		if err := p.Process(context.Background(), tr); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
	if proc.calls.Load() != 0 {
		t.Errorf("processor called %d times for invalid trades", proc.calls.Load())
	}
}

func TestPipelineForwardsValidTrades(t *testing.T) {
	proc := &stubProc{}
	p := NewRealtimePipeline(proc, nopMetrics{})

	if err := p.Process(context.Background(), trade("NET")); err != nil {
		t.Fatalf("process: %v", err)
	}
	if proc.calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", proc.calls.Load())
	}
}

func TestPipelineThrottlesPerSymbol(t *testing.T) {
	proc := &stubProc{}
	p := NewRealtimePipeline(proc, nopMetrics{}, WithMaxRPS(1))

	ctx := context.Background()
	_ = p.Process(ctx, trade("NET"))
	_ = p.Process(ctx, trade("NET")) // within the same second, dropped
	_ = p.Process(ctx, trade("DDOG"))

	if got := proc.calls.Load(); got != 2 {
		t.Errorf("calls = %d, want 2 (one per symbol)", got)
	}
}

func TestPipelineBuffersOnDownstreamError(t *testing.T) {
	proc := &stubProc{err: errors.New("down")}
	p := NewRealtimePipeline(proc, nopMetrics{}, WithBufferSize(4))

	if err := p.Process(context.Background(), trade("NET")); err == nil {
		t.Fatal("expected downstream error")
	}
	if len(p.bufCh) != 1 {
		t.Errorf("buffer depth = %d, want 1", len(p.bufCh))
	}
}

func TestPipelineFlushesBuffer(t *testing.T) {
	proc := &stubProc{err: errors.New("down")}
	p := NewRealtimePipeline(proc, nopMetrics{}, WithBufferSize(4))

	_ = p.Process(context.Background(), trade("NET"))

	// downstream recovers
	proc.err = nil
	p.Start(context.Background())
	defer p.Stop()

	deadline := time.After(2 * time.Second)
	for len(p.bufCh) > 0 {
		select {
		case <-deadline:
			t.Fatal("buffer never drained")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
