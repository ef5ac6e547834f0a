package models

import "time"

// Ratings ordered from best to worst.
const (
	RatingStrongBuy  = "Strong Buy"
	RatingBuy        = "Buy"
	RatingAccumulate = "Accumulate"
	RatingHold       = "Hold"
	RatingReduce     = "Reduce"
	RatingSell       = "Sell"
)

// ComponentScores holds the seven weighted scoring components,
// each normalized to [0, 100].
type ComponentScores struct {
	Growth            float64 `json:"growth"`
	ValueAlignment    float64 `json:"value_alignment"`
	Margins           float64 `json:"margins"`
	FinancialHealth   float64 `json:"financial_health"`
	InsiderConfidence float64 `json:"insider_confidence"`
	Momentum          float64 `json:"momentum"`
	VolumeTrends      float64 `json:"volume_trends"`
}

// KeyMetrics exposes the raw inputs behind the component scores.
type KeyMetrics struct {
	PSRatio                float64 `json:"ps_ratio"`
	RevenueGrowth          float64 `json:"revenue_growth"`
	GrossMargins           float64 `json:"gross_margins"`
	CurrentRatio           float64 `json:"current_ratio"`
	CashToDebt             float64 `json:"cash_to_debt"`
	InsiderOwnership       float64 `json:"insider_ownership"`
	InstitutionalOwnership float64 `json:"institutional_ownership"`
	PriceVsMA50            float64 `json:"price_vs_ma50"`  // percent above/below 50-day average
	PriceVsMA200           float64 `json:"price_vs_ma200"` // percent above/below 200-day average
	VolumeTrend            float64 `json:"volume_trend"`   // recent vs prior average volume ratio
}

// Analysis is the full scoring result for one ticker.
type Analysis struct {
	Ticker          string          `json:"ticker"`
	Name            string          `json:"name"`
	MarketCap       float64         `json:"market_cap"` // billions USD
	CompositeScore  float64         `json:"composite_score"`
	Rating          string          `json:"rating"`
	ComponentScores ComponentScores `json:"component_scores"`
	KeyMetrics      KeyMetrics      `json:"key_metrics"`
	LastPrice       float64         `json:"last_price,omitempty"`
	RunID           string          `json:"run_id"`
	GeneratedAt     time.Time       `json:"generated_at"`
}

// SkippedTicker records why a ticker produced no analysis during a scan.
type SkippedTicker struct {
	Ticker string `json:"ticker"`
	Reason string `json:"reason"`
}

// ScanResult is the outcome of scoring a batch of tickers.
// Results are sorted by composite score, best first.
type ScanResult struct {
	RunID      string          `json:"run_id"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Requested  int             `json:"requested"`
	Analyzed   int             `json:"analyzed"`
	Skipped    []SkippedTicker `json:"skipped,omitempty"`
	Results    []*Analysis     `json:"results"`
}

// ScoreEvent is the record published to the scores topic and persisted
// to the score history table after each analysis.
type ScoreEvent struct {
	Ticker         string    `json:"ticker"`
	CompositeScore float64   `json:"composite_score"`
	Rating         string    `json:"rating"`
	MarketCap      float64   `json:"market_cap"`
	RunID          string    `json:"run_id,omitempty"`
	GeneratedAt    time.Time `json:"generated_at"`
}
