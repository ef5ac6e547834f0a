package repository

import (
	"context"
	"time"

	"stockscout/internal/domain/models"
)

// MarketData provides fundamentals and price history for a ticker.
type MarketData interface {
	Fundamentals(ctx context.Context, ticker string) (*models.Fundamentals, error)
	DailyBars(ctx context.Context, ticker string, days int) ([]models.PriceBar, error)
}

// MarketStream is a live trade feed.
type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context, symbols []string) error
	Read(ctx context.Context) (<-chan *models.Trade, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Publisher ships score events to the message bus.
type Publisher interface {
	Publish(ctx context.Context, ev *models.ScoreEvent) error
	PublishBatch(ctx context.Context, evs []*models.ScoreEvent) error
	Close() error
}

// TradePublisher ships raw trades to the message bus.
type TradePublisher interface {
	PublishTrade(ctx context.Context, t *models.Trade) error
	PublishTradeBatch(ctx context.Context, trades []*models.Trade) error
	Close() error
}

// ScoreStore persists score history.
type ScoreStore interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Store(ctx context.Context, ev *models.ScoreEvent) error
	StoreBatch(ctx context.Context, evs []*models.ScoreEvent) error
	Query(ctx context.Context, ticker string, from, to time.Time, limit int) ([]*models.ScoreEvent, error)
	Health(ctx context.Context) error // ping
	Close() error
}

// TradeStore persists the live trade stream.
type TradeStore interface {
	Init(ctx context.Context) error
	StoreBatch(ctx context.Context, trades []*models.Trade) error
	Health(ctx context.Context) error
	Close() error
}

// UniverseStore persists dated universe snapshots.
type UniverseStore interface {
	Save(ctx context.Context, u *models.Universe) error
	LoadLatest(ctx context.Context) (*models.Universe, error)
	Load(ctx context.Context, date time.Time) (*models.Universe, error)
}

// Metrics abstracts the instrumentation used across the pipeline.
type Metrics interface {
	RecordAnalysis(outcome string)
	RecordEventSent(backend, symbol string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordScore(ticker string, score float64)
	RecordLatency(op string, seconds float64)
}
