package scoring

import (
	domsvc "stockscout/internal/domain/service"

	"stockscout/internal/domain/models"
	"stockscout/internal/services/features"
)

const (
	minHistoryBars   = 200
	shortWindow      = 50
	longWindow       = 200
	recentVolumeBars = 20
	priorVolumeBars  = 30
)

// MarketScorer scores price momentum and volume trends from daily bars.
// With fewer than 200 bars of history both scores are neutral 50.
type MarketScorer struct{}

func NewMarketScorer() *MarketScorer { return &MarketScorer{} }

func (s *MarketScorer) Score(bars []models.PriceBar) (momentum, volume float64, metrics domsvc.MarketMetrics) {
	if len(bars) < minHistoryBars {
		return 50, 50, domsvc.MarketMetrics{VolumeTrend: 1}
	}

	close := bars[len(bars)-1].Close
	ma50 := features.SMA(bars, shortWindow)
	ma200 := features.SMA(bars, longWindow)

	if close > ma50 {
		momentum += 40
	}
	if close > ma200 {
		momentum += 40
	}
	if ma50 > ma200 {
		momentum += 20
	}

	trend := features.VolumeTrend(bars, recentVolumeBars, priorVolumeBars)
	volume = clamp(50 * trend)

	metrics = domsvc.MarketMetrics{
		PriceVsMA50:  features.PercentAbove(close, ma50),
		PriceVsMA200: features.PercentAbove(close, ma200),
		VolumeTrend:  trend,
	}
	return momentum, volume, metrics
}

var _ domsvc.MarketScorer = (*MarketScorer)(nil)
