package repository

import (
	"context"

	"stockscout/internal/domain/models"
	domrepo "stockscout/internal/domain/repository"
	pkgkafka "stockscout/pkg/kafka"
)

// KafkaPublisher ships score events to the scores topic, keyed by
// ticker so a ticker's history stays ordered within a partition.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev *models.ScoreEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(ev.Ticker), ev)
}

func (p *KafkaPublisher) PublishBatch(ctx context.Context, evs []*models.ScoreEvent) error {
	if len(evs) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(evs))
	for i, ev := range evs {
		msgs[i] = pkgkafka.Message{Key: []byte(ev.Ticker), Value: ev}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

var _ domrepo.Publisher = (*KafkaPublisher)(nil)

// KafkaTradePublisher ships raw trades to the trades topic.
type KafkaTradePublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaTradePublisher(producer *pkgkafka.Producer, topic string) *KafkaTradePublisher {
	return &KafkaTradePublisher{producer: producer, topic: topic}
}

func tradeValue(t *models.Trade) map[string]interface{} {
	return map[string]interface{}{
		"symbol": t.Symbol,
		"t":      t.Timestamp.UnixMilli(),
		"c":      t.Price,
		"v":      t.Volume,
	}
}

func (p *KafkaTradePublisher) PublishTrade(ctx context.Context, t *models.Trade) error {
	return p.producer.Publish(ctx, p.topic, []byte(t.Symbol), tradeValue(t))
}

func (p *KafkaTradePublisher) PublishTradeBatch(ctx context.Context, trades []*models.Trade) error {
	if len(trades) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(trades))
	for i, t := range trades {
		msgs[i] = pkgkafka.Message{Key: []byte(t.Symbol), Value: tradeValue(t)}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaTradePublisher) Close() error {
	// producer shared with the score publisher; closed there
	return nil
}

var _ domrepo.TradePublisher = (*KafkaTradePublisher)(nil)
