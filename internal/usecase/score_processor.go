package usecase

import (
	"context"
	"fmt"
	"time"

	"stockscout/internal/domain/models"
	drepo "stockscout/internal/domain/repository"
)

// ScoreProcessor routes score events to the configured backend: the
// Kafka scores topic or direct ClickHouse insertion.
type ScoreProcessor struct {
	pub     drepo.Publisher
	store   drepo.ScoreStore
	metrics drepo.Metrics
	backend string
}

// NewScoreProcessor creates a ScoreProcessor.
func NewScoreProcessor(pub drepo.Publisher, store drepo.ScoreStore, metrics drepo.Metrics, backend string) *ScoreProcessor {
	return &ScoreProcessor{pub: pub, store: store, metrics: metrics, backend: backend}
}

// Process routes a single score event to the configured backend.
func (p *ScoreProcessor) Process(ctx context.Context, ev *models.ScoreEvent) error {
	if ev == nil {
		return fmt.Errorf("score event is nil")
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.Publish(ctx, ev)
	case "clickhouse":
		err = p.store.Store(ctx, ev)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("score_process")
		return fmt.Errorf("process score: %w", err)
	}

	p.metrics.RecordEventSent(p.backend, ev.Ticker)
	p.metrics.RecordLatency("score_process", time.Since(start).Seconds())
	return nil
}

// ProcessBatch routes a batch of score events.
func (p *ScoreProcessor) ProcessBatch(ctx context.Context, evs []*models.ScoreEvent) error {
	if len(evs) == 0 {
		return nil
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.PublishBatch(ctx, evs)
	case "clickhouse":
		err = p.store.StoreBatch(ctx, evs)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("score_process_batch")
		return fmt.Errorf("process score batch: %w", err)
	}

	for _, ev := range evs {
		p.metrics.RecordEventSent(p.backend, ev.Ticker)
	}
	p.metrics.RecordLatency("score_process_batch", time.Since(start).Seconds())
	return nil
}

// Close closes underlying resources if available.
func (p *ScoreProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
