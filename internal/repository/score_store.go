package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"stockscout/internal/domain/models"
	domrepo "stockscout/internal/domain/repository"
	pkgch "stockscout/pkg/clickhouse"
	applogger "stockscout/pkg/logger"
)

const scoresSchema = `
CREATE TABLE IF NOT EXISTS %s (
    ticker       LowCardinality(String),
    score        Float64,
    rating       LowCardinality(String),
    market_cap   Float64,
    run_id       String,
    generated_at DateTime64(3)
) ENGINE = MergeTree()
PARTITION BY toYYYYMM(generated_at)
ORDER BY (ticker, generated_at)
`

// CHScoreStore implements ScoreStore backed by ClickHouse.
type CHScoreStore struct {
	db    *sql.DB
	ch    *pkgch.Client
	table string
	l     *applogger.Logger
}

func NewCHScoreStore(ch *pkgch.Client, table string, l *applogger.Logger) *CHScoreStore {
	return &CHScoreStore{db: ch.DB(), ch: ch, table: table, l: l}
}

func (s *CHScoreStore) Init(ctx context.Context) error {
	if err := s.ch.Health(ctx); err != nil {
		return fmt.Errorf("clickhouse health: %w", err)
	}
	return s.ch.InitSchema(ctx, []string{fmt.Sprintf(scoresSchema, s.table)})
}

func (s *CHScoreStore) Store(ctx context.Context, ev *models.ScoreEvent) error {
	return s.StoreBatch(ctx, []*models.ScoreEvent{ev})
}

var scoreColumns = []string{"ticker", "score", "rating", "market_cap", "run_id", "generated_at"}

func (s *CHScoreStore) StoreBatch(ctx context.Context, evs []*models.ScoreEvent) error {
	rows := make([][]interface{}, 0, len(evs))
	for _, ev := range evs {
		if ev == nil || ev.Ticker == "" {
			continue
		}
		rows = append(rows, []interface{}{
			ev.Ticker,
			ev.CompositeScore,
			ev.Rating,
			ev.MarketCap,
			ev.RunID,
			ev.GeneratedAt,
		})
	}
	if len(rows) == 0 {
		return nil
	}

	if err := s.ch.InsertRows(ctx, s.table, scoreColumns, rows); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse score insert error",
				applogger.String("table", s.table),
				applogger.Int("rows", len(rows)),
				applogger.Error(err))
		}
		return err
	}
	return nil
}

func (s *CHScoreStore) Query(ctx context.Context, ticker string, from, to time.Time, limit int) ([]*models.ScoreEvent, error) {
	q := fmt.Sprintf(
		`SELECT ticker, score, rating, market_cap, run_id, generated_at
         FROM %s
         WHERE ticker = ? AND generated_at >= ? AND generated_at <= ?
         ORDER BY generated_at DESC
         LIMIT ?`, s.table)

	rows, err := s.db.QueryContext(ctx, q, ticker, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("query scores: %w", err)
	}
	defer rows.Close()

	out := make([]*models.ScoreEvent, 0, limit)
	for rows.Next() {
		var ev models.ScoreEvent
		if err := rows.Scan(&ev.Ticker, &ev.CompositeScore, &ev.Rating, &ev.MarketCap, &ev.RunID, &ev.GeneratedAt); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		out = append(out, &ev)
	}
	return out, rows.Err()
}

func (s *CHScoreStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHScoreStore) Close() error {
	return nil // connection managed by pkg/clickhouse
}

var _ domrepo.ScoreStore = (*CHScoreStore)(nil)
