package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"stockscout/internal/domain/models"
	drepo "stockscout/internal/domain/repository"
	"stockscout/pkg/logger"
)

// UniverseConfig carries universe qualification rules.
type UniverseConfig struct {
	MinMarketCap float64 // USD
	MaxMarketCap float64 // USD
	MinVolume    float64 // shares per day
	Industries   []string
	KnownTickers []string
	VolumeDays   int // bars used for average volume
}

// UniverseBuilder qualifies tickers into the screening universe and
// persists dated snapshots.
type UniverseBuilder struct {
	data    drepo.MarketData
	store   drepo.UniverseStore
	metrics drepo.Metrics
	logger  *logger.Logger
	cfg     UniverseConfig
}

func NewUniverseBuilder(data drepo.MarketData, store drepo.UniverseStore, metrics drepo.Metrics, lgr *logger.Logger, cfg UniverseConfig) *UniverseBuilder {
	if cfg.VolumeDays <= 0 {
		cfg.VolumeDays = 60
	}
	return &UniverseBuilder{data: data, store: store, metrics: metrics, logger: lgr, cfg: cfg}
}

// Build qualifies every seed ticker and assembles a dated snapshot.
// Tickers that fail to resolve land in InvalidTickers; tickers that
// resolve but miss the bar are silently dropped.
func (b *UniverseBuilder) Build(ctx context.Context) (*models.Universe, error) {
	u := &models.Universe{Date: time.Now().UTC()}
	invalid := make(map[string]struct{})

	for i, ticker := range b.cfg.KnownTickers {
		if i%10 == 0 {
			b.logger.Info("universe build progress",
				logger.Int("done", i), logger.Int("total", len(b.cfg.KnownTickers)))
		}

		entry, err := b.qualify(ctx, ticker)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			invalid[ticker] = struct{}{}
			b.metrics.RecordError("universe_qualify")
			b.logger.Warn("universe ticker failed",
				logger.String("ticker", ticker), logger.Error(err))
			continue
		}
		if entry != nil {
			u.Entries = append(u.Entries, *entry)
		}
	}

	sort.Slice(u.Entries, func(i, k int) bool {
		return u.Entries[i].MarketCap > u.Entries[k].MarketCap
	})
	for ticker := range invalid {
		u.InvalidTickers = append(u.InvalidTickers, ticker)
	}
	sort.Strings(u.InvalidTickers)

	b.logger.Info("universe built",
		logger.Int("qualified", len(u.Entries)),
		logger.Int("invalid", len(u.InvalidTickers)))
	return u, nil
}

// Refresh builds a fresh universe and persists it.
func (b *UniverseBuilder) Refresh(ctx context.Context) (*models.Universe, error) {
	u, err := b.Build(ctx)
	if err != nil {
		return nil, err
	}
	if err := b.store.Save(ctx, u); err != nil {
		return nil, fmt.Errorf("save universe: %w", err)
	}
	return u, nil
}

// Latest returns the most recent snapshot, optionally filtered by
// growth category and truncated to limit.
func (b *UniverseBuilder) Latest(ctx context.Context, category string, limit int) (*models.Universe, error) {
	u, err := b.store.LoadLatest(ctx)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("load universe: %w", err)
	}

	if category != "" {
		filtered := make([]models.UniverseEntry, 0, len(u.Entries))
		for _, e := range u.Entries {
			if e.GrowthCategory == category {
				filtered = append(filtered, e)
			}
		}
		u.Entries = filtered
	}
	if limit > 0 && len(u.Entries) > limit {
		u.Entries = u.Entries[:limit]
	}
	return u, nil
}

func (b *UniverseBuilder) qualify(ctx context.Context, ticker string) (*models.UniverseEntry, error) {
	f, err := b.data.Fundamentals(ctx, ticker)
	if err != nil {
		return nil, err
	}

	if f.MarketCap < b.cfg.MinMarketCap || f.MarketCap > b.cfg.MaxMarketCap {
		return nil, nil
	}

	bars, err := b.data.DailyBars(ctx, ticker, b.cfg.VolumeDays)
	if err != nil {
		return nil, err
	}
	avgVolume := averageVolume(bars)
	if avgVolume < b.cfg.MinVolume {
		return nil, nil
	}

	known := b.isKnown(ticker)
	if !b.isRelevantIndustry(f.Industry) && !known {
		return nil, nil
	}

	var price float64
	if len(bars) > 0 {
		price = bars[len(bars)-1].Close
	}

	return &models.UniverseEntry{
		Ticker:         ticker,
		Name:           f.Name,
		MarketCap:      f.MarketCap / 1e9,
		Industry:       f.Industry,
		AvgVolume:      avgVolume,
		RevenueGrowth:  f.RevenueGrowth,
		GrossMargin:    f.GrossMargin,
		PSRatio:        f.PSRatio,
		Price:          price,
		IsKnownTicker:  known,
		GrowthCategory: models.CategorizeGrowth(f.RevenueGrowth),
	}, nil
}

func (b *UniverseBuilder) isKnown(ticker string) bool {
	for _, t := range b.cfg.KnownTickers {
		if t == ticker {
			return true
		}
	}
	return false
}

func (b *UniverseBuilder) isRelevantIndustry(industry string) bool {
	for _, kw := range b.cfg.Industries {
		if strings.Contains(industry, kw) {
			return true
		}
	}
	return false
}

func averageVolume(bars []models.PriceBar) float64 {
	if len(bars) == 0 {
		return 0
	}
	sum := 0.0
	for _, b := range bars {
		sum += b.Volume
	}
	return sum / float64(len(bars))
}
