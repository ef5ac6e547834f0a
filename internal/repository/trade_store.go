package repository

import (
	"context"
	"database/sql"
	"fmt"

	"stockscout/internal/domain/models"
	domrepo "stockscout/internal/domain/repository"
	pkgch "stockscout/pkg/clickhouse"
)

const tradesSchema = `
CREATE TABLE IF NOT EXISTS %s (
    ts       DateTime64(3),
    symbol   LowCardinality(String),
    price    Float64,
    volume   Float64,
    source   LowCardinality(String),
    event_id String
) ENGINE = MergeTree()
PARTITION BY toYYYYMMDD(ts)
ORDER BY (symbol, ts)
TTL toDateTime(ts) + INTERVAL 30 DAY
`

// CHTradeStore persists the live trade stream to ClickHouse.
type CHTradeStore struct {
	db    *sql.DB
	ch    *pkgch.Client
	table string
}

func NewCHTradeStore(ch *pkgch.Client, table string) *CHTradeStore {
	return &CHTradeStore{db: ch.DB(), ch: ch, table: table}
}

func (s *CHTradeStore) Init(ctx context.Context) error {
	if err := s.ch.Health(ctx); err != nil {
		return fmt.Errorf("clickhouse health: %w", err)
	}
	return s.ch.InitSchema(ctx, []string{fmt.Sprintf(tradesSchema, s.table)})
}

var tradeColumns = []string{"ts", "symbol", "price", "volume", "source", "event_id"}

func (s *CHTradeStore) StoreBatch(ctx context.Context, trades []*models.Trade) error {
	rows := make([][]interface{}, 0, len(trades))
	for _, t := range trades {
		if t == nil || t.Symbol == "" || t.Timestamp.IsZero() {
			continue
		}
		eventID := fmt.Sprintf("%s-%d", t.Symbol, t.Timestamp.UnixMilli())
		rows = append(rows, []interface{}{t.Timestamp, t.Symbol, t.Price, t.Volume, "finnhub", eventID})
	}
	if len(rows) == 0 {
		return nil
	}
	return s.ch.InsertRows(ctx, s.table, tradeColumns, rows)
}

func (s *CHTradeStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHTradeStore) Close() error {
	return nil // connection managed by pkg/clickhouse
}

var _ domrepo.TradeStore = (*CHTradeStore)(nil)
