package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stockscout/internal/domain/models"
	drepo "stockscout/internal/domain/repository"
	domsvc "stockscout/internal/domain/service"
	"stockscout/pkg/cache"
	"stockscout/pkg/logger"

	"github.com/google/uuid"
)

// ErrOutsideCapRange marks tickers outside the screening market cap window.
var ErrOutsideCapRange = errors.New("market cap outside screening range")

// AnalyzerConfig carries the screening bounds and caching policy.
type AnalyzerConfig struct {
	MinMarketCap float64 // USD
	MaxMarketCap float64 // USD
	HistoryDays  int
	ResultTTL    time.Duration
}

// Analyzer produces the full composite analysis for a ticker.
type Analyzer struct {
	data    drepo.MarketData
	gv      domsvc.GrowthValueScorer
	health  domsvc.HealthScorer
	market  domsvc.MarketScorer
	comp    domsvc.CompositeScorer
	cache   cache.Service
	proc    *ScoreProcessor
	metrics drepo.Metrics
	logger  *logger.Logger
	cfg     AnalyzerConfig
}

// NewAnalyzer creates an Analyzer. cache and proc may be nil; caching
// and score publication are then skipped.
func NewAnalyzer(
	data drepo.MarketData,
	gv domsvc.GrowthValueScorer,
	health domsvc.HealthScorer,
	market domsvc.MarketScorer,
	comp domsvc.CompositeScorer,
	c cache.Service,
	proc *ScoreProcessor,
	metrics drepo.Metrics,
	lgr *logger.Logger,
	cfg AnalyzerConfig,
) *Analyzer {
	if cfg.HistoryDays <= 0 {
		cfg.HistoryDays = 300
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = time.Hour
	}
	return &Analyzer{
		data: data, gv: gv, health: health, market: market, comp: comp,
		cache: c, proc: proc, metrics: metrics, logger: lgr, cfg: cfg,
	}
}

// Analyze scores one ticker under a fresh run ID. Cached results are
// served unless fresh is set. Tickers outside the cap window return
// ErrOutsideCapRange.
func (a *Analyzer) Analyze(ctx context.Context, ticker string, fresh bool) (*models.Analysis, error) {
	return a.AnalyzeRun(ctx, ticker, fresh, uuid.NewString())
}

// AnalyzeRun scores one ticker under an existing run ID, so batch scans
// stamp every published score event with the same run. Cache hits keep
// the run ID of the run that produced them.
func (a *Analyzer) AnalyzeRun(ctx context.Context, ticker string, fresh bool, runID string) (*models.Analysis, error) {
	start := time.Now()

	if !fresh && a.cache != nil {
		if cached, err := cache.GetTyped[models.Analysis](ctx, a.cache, cache.AnalysisKey(ticker)); err == nil {
			a.metrics.RecordAnalysis("cache_hit")
			return &cached, nil
		}
	}

	f, err := a.data.Fundamentals(ctx, ticker)
	if err != nil {
		a.metrics.RecordAnalysis("error")
		return nil, fmt.Errorf("fundamentals %s: %w", ticker, err)
	}

	if f.MarketCap < a.cfg.MinMarketCap || f.MarketCap > a.cfg.MaxMarketCap {
		a.metrics.RecordAnalysis("cap_gated")
		return nil, fmt.Errorf("%s: %w (cap %.1fB)", ticker, ErrOutsideCapRange, f.MarketCap/1e9)
	}

	bars, err := a.data.DailyBars(ctx, ticker, a.cfg.HistoryDays)
	if err != nil {
		a.metrics.RecordAnalysis("error")
		return nil, fmt.Errorf("bars %s: %w", ticker, err)
	}

	analysis := a.score(ticker, f, bars)
	analysis.RunID = runID

	a.metrics.RecordAnalysis("ok")
	a.metrics.RecordScore(ticker, analysis.CompositeScore)
	a.metrics.RecordLatency("analyze", time.Since(start).Seconds())

	if a.cache != nil {
		if err := a.cache.Set(ctx, cache.AnalysisKey(ticker), analysis, a.cfg.ResultTTL); err != nil {
			a.logger.Warn("analysis cache write failed",
				logger.String("ticker", ticker), logger.Error(err))
		}
	}
	if a.proc != nil {
		ev := &models.ScoreEvent{
			Ticker:         analysis.Ticker,
			CompositeScore: analysis.CompositeScore,
			Rating:         analysis.Rating,
			MarketCap:      analysis.MarketCap,
			RunID:          analysis.RunID,
			GeneratedAt:    analysis.GeneratedAt,
		}
		if err := a.proc.Process(ctx, ev); err != nil {
			a.logger.Warn("score event delivery failed",
				logger.String("ticker", ticker), logger.Error(err))
		}
	}

	return analysis, nil
}

func (a *Analyzer) score(ticker string, f *models.Fundamentals, bars []models.PriceBar) *models.Analysis {
	growth, alignment, margins := a.gv.Score(f)
	financial, insider := a.health.Score(f)
	momentum, volume, market := a.market.Score(bars)

	components := models.ComponentScores{
		Growth:            growth,
		ValueAlignment:    alignment,
		Margins:           margins,
		FinancialHealth:   financial,
		InsiderConfidence: insider,
		Momentum:          momentum,
		VolumeTrends:      volume,
	}
	composite := a.comp.Composite(components)

	debt := f.TotalDebt
	if debt < 1 {
		debt = 1
	}

	var lastPrice float64
	if len(bars) > 0 {
		lastPrice = bars[len(bars)-1].Close
	}

	return &models.Analysis{
		Ticker:          ticker,
		Name:            f.Name,
		MarketCap:       f.MarketCap / 1e9,
		CompositeScore:  composite,
		Rating:          a.comp.Rate(composite),
		ComponentScores: components,
		KeyMetrics: models.KeyMetrics{
			PSRatio:                f.PSRatio,
			RevenueGrowth:          f.RevenueGrowth,
			GrossMargins:           f.GrossMargin,
			CurrentRatio:           f.CurrentRatio,
			CashToDebt:             f.TotalCash / debt,
			InsiderOwnership:       f.InsiderPct,
			InstitutionalOwnership: f.InstitutionPct,
			PriceVsMA50:            market.PriceVsMA50,
			PriceVsMA200:           market.PriceVsMA200,
			VolumeTrend:            market.VolumeTrend,
		},
		LastPrice:   lastPrice,
		GeneratedAt: time.Now().UTC(),
	}
}
