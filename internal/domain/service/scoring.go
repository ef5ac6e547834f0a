package service

import "stockscout/internal/domain/models"

// GrowthValueScorer scores growth, value alignment and margins from fundamentals.
type GrowthValueScorer interface {
	Score(f *models.Fundamentals) (growth, alignment, margins float64)
}

// HealthScorer scores balance-sheet strength and ownership confidence.
type HealthScorer interface {
	Score(f *models.Fundamentals) (financial, insider float64)
}

// MarketScorer scores momentum and volume trends from daily bars.
type MarketScorer interface {
	Score(bars []models.PriceBar) (momentum, volume float64, metrics MarketMetrics)
}

// MarketMetrics are the raw trend readings behind the market scores.
type MarketMetrics struct {
	PriceVsMA50  float64
	PriceVsMA200 float64
	VolumeTrend  float64
}

// CompositeScorer folds component scores into a single score and rating.
type CompositeScorer interface {
	Composite(c models.ComponentScores) float64
	Rate(score float64) string
}
