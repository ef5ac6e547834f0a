package usecase

import (
	"context"
	"encoding/json"
	"time"

	"stockscout/internal/domain/models"
	domrepo "stockscout/internal/domain/repository"
	pkgkafka "stockscout/pkg/kafka"
)

// KafkaScoresHandler consumes published score events and writes them
// to the score history store.
type KafkaScoresHandler struct {
	topic   string
	store   domrepo.ScoreStore
	metrics domrepo.Metrics
}

func NewKafkaScoresHandler(topic string, store domrepo.ScoreStore, metrics domrepo.Metrics) *KafkaScoresHandler {
	return &KafkaScoresHandler{topic: topic, store: store, metrics: metrics}
}

func (h *KafkaScoresHandler) Topic() string { return h.topic }

func (h *KafkaScoresHandler) Handle(ctx context.Context, b []byte) error {
	var ev models.ScoreEvent
	if err := json.Unmarshal(b, &ev); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if !ev.GeneratedAt.IsZero() {
		h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(ev.GeneratedAt).Seconds())
	}

	start := time.Now()
	if err := h.store.Store(ctx, &ev); err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	h.metrics.RecordEventSent("clickhouse", ev.Ticker)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaScoresHandler)(nil)
