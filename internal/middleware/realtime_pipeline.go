package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"stockscout/internal/domain/models"
	domrepo "stockscout/internal/domain/repository"
)

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	Process(ctx context.Context, t *models.Trade) error
}

// RealtimePipeline sits between the trade stream and the processor.
// It validates, throttles per symbol, and buffers when downstream is
// unavailable, flushing with capped exponential backoff.
type RealtimePipeline struct {
	proc    Proc
	metrics domrepo.Metrics
	maxRPS  int
	bufSize int
	bufCh   chan *models.Trade
	stopCh  chan struct{}
	started bool
	mu      sync.Mutex

	seenMu   sync.Mutex
	lastSeen map[string]time.Time // per-symbol last accepted time
}

type PipelineOption func(*RealtimePipeline)

// WithMaxRPS sets the max trades per second per symbol.
func WithMaxRPS(n int) PipelineOption {
	return func(p *RealtimePipeline) {
		if n > 0 {
			p.maxRPS = n
		}
	}
}

// WithBufferSize sets the retry buffer size used when downstream fails.
func WithBufferSize(n int) PipelineOption {
	return func(p *RealtimePipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// NewRealtimePipeline creates a pipeline in front of proc.
func NewRealtimePipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *RealtimePipeline {
	p := &RealtimePipeline{
		proc:     proc,
		metrics:  metrics,
		maxRPS:   20,
		bufSize:  1000,
		stopCh:   make(chan struct{}),
		lastSeen: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan *models.Trade, p.bufSize)
	return p
}

// Start launches background flushing of buffered trades.
func (p *RealtimePipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case t := <-p.bufCh:
				if t == nil {
					continue
				}
				if err := p.proc.Process(ctx, t); err != nil {
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					time.Sleep(backoff)
					// requeue if space; drop otherwise
					select {
					case p.bufCh <- t:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (p *RealtimePipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process validates, throttles, and forwards a trade, buffering on
// downstream errors.
func (p *RealtimePipeline) Process(ctx context.Context, t *models.Trade) error {
	start := time.Now()
	if err := validateTrade(t); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if !p.allow(t.Symbol, start) {
		// throttled; drop silently
		p.metrics.RecordError("pipeline_throttle")
		return nil
	}

	if err := p.proc.Process(ctx, t); err != nil {
		p.metrics.RecordError("pipeline_process")
		select {
		case p.bufCh <- t:
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

func validateTrade(t *models.Trade) error {
	if t == nil {
		return fmt.Errorf("trade nil")
	}
	if t.Symbol == "" {
		return fmt.Errorf("symbol empty")
	}
	if t.Timestamp.IsZero() {
		return fmt.Errorf("timestamp invalid")
	}
	if t.Price < 0 || t.Volume < 0 {
		return fmt.Errorf("negative price/volume")
	}
	return nil
}

func (p *RealtimePipeline) allow(symbol string, now time.Time) bool {
	if p.maxRPS <= 0 {
		return true
	}
	p.seenMu.Lock()
	defer p.seenMu.Unlock()

	last := p.lastSeen[symbol]
	if last.IsZero() || now.Sub(last) >= time.Second/time.Duration(p.maxRPS) {
		p.lastSeen[symbol] = now
		return true
	}
	return false
}
