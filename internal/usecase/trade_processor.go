package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"stockscout/internal/domain/models"
	drepo "stockscout/internal/domain/repository"
	"stockscout/pkg/cache"
)

// TradeProcessor batches live trades and routes them to the configured
// backend. It also keeps the last trade price hot in the cache so
// analyses can attach live prices without touching the provider.
type TradeProcessor struct {
	pub     drepo.TradePublisher
	store   drepo.TradeStore
	cache   cache.Service
	metrics drepo.Metrics
	backend string

	mu      sync.Mutex
	batch   []*models.Trade
	batchSz int
	batchTO time.Duration
	stopCh  chan struct{}
	started bool
}

// NewTradeProcessor creates a TradeProcessor.
func NewTradeProcessor(
	pub drepo.TradePublisher,
	store drepo.TradeStore,
	c cache.Service,
	metrics drepo.Metrics,
	backend string,
	batchSz int,
	batchTO time.Duration,
) *TradeProcessor {
	if batchSz <= 0 {
		batchSz = 100
	}
	if batchTO <= 0 {
		batchTO = 2 * time.Second
	}
	return &TradeProcessor{
		pub:     pub,
		store:   store,
		cache:   c,
		metrics: metrics,
		backend: backend,
		batch:   make([]*models.Trade, 0, batchSz),
		batchSz: batchSz,
		batchTO: batchTO,
		stopCh:  make(chan struct{}),
	}
}

// Start launches the periodic flush loop.
func (p *TradeProcessor) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		ticker := time.NewTicker(p.batchTO)
		defer ticker.Stop()
		for {
			select {
			case <-p.stopCh:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := p.Flush(ctx); err != nil {
					p.metrics.RecordError("trade_flush")
				}
			}
		}
	}()
}

// Process buffers one trade, flushing when the batch fills.
func (p *TradeProcessor) Process(ctx context.Context, t *models.Trade) error {
	if t == nil {
		return fmt.Errorf("trade is nil")
	}

	p.metrics.RecordLastPrice(t.Symbol, t.Price)
	if p.cache != nil {
		_ = p.cache.Set(ctx, cache.PriceKey(t.Symbol), t.Price, 5*time.Minute)
	}

	p.mu.Lock()
	p.batch = append(p.batch, t)
	full := len(p.batch) >= p.batchSz
	p.mu.Unlock()

	if full {
		return p.Flush(ctx)
	}
	return nil
}

// Flush delivers the current batch to the backend.
func (p *TradeProcessor) Flush(ctx context.Context) error {
	p.mu.Lock()
	if len(p.batch) == 0 {
		p.mu.Unlock()
		return nil
	}
	batch := p.batch
	p.batch = make([]*models.Trade, 0, p.batchSz)
	p.mu.Unlock()

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.PublishTradeBatch(ctx, batch)
	case "clickhouse":
		err = p.store.StoreBatch(ctx, batch)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("trade_batch")
		return fmt.Errorf("flush trades: %w", err)
	}

	for _, t := range batch {
		p.metrics.RecordEventSent(p.backend, t.Symbol)
	}
	p.metrics.RecordLatency("trade_batch", time.Since(start).Seconds())
	return nil
}

// Close flushes remaining trades and releases resources.
func (p *TradeProcessor) Close() {
	p.mu.Lock()
	if p.started {
		p.started = false
		close(p.stopCh)
	}
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = p.Flush(ctx)

	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
