package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"stockscout/internal/domain/models"
	"stockscout/internal/services/scoring"
	"stockscout/pkg/cache"
	"stockscout/pkg/logger"
)

type fakeMarketData struct {
	fundamentals map[string]*models.Fundamentals
	bars         map[string][]models.PriceBar
	fundCalls    int
}

func (f *fakeMarketData) Fundamentals(_ context.Context, ticker string) (*models.Fundamentals, error) {
	f.fundCalls++
	fd, ok := f.fundamentals[ticker]
	if !ok {
		return nil, errors.New("ticker not found")
	}
	return fd, nil
}

func (f *fakeMarketData) DailyBars(_ context.Context, ticker string, _ int) ([]models.PriceBar, error) {
	return f.bars[ticker], nil
}

type nopMetrics struct{}

func (nopMetrics) RecordAnalysis(string)           {}
func (nopMetrics) RecordEventSent(string, string)  {}
func (nopMetrics) RecordError(string)              {}
func (nopMetrics) RecordLastPrice(string, float64) {}
func (nopMetrics) RecordScore(string, float64)     {}
func (nopMetrics) RecordLatency(string, float64)   {}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	lgr, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return lgr
}

func strongFundamentals(ticker string, cap float64) *models.Fundamentals {
	return &models.Fundamentals{
		Ticker: ticker, Name: ticker + " Inc", MarketCap: cap,
		PSRatio: 10, RevenueGrowth: 40, GrossMargin: 80,
		CurrentRatio: 3, TotalCash: 2e9, TotalDebt: 2e8, DebtToEquity: 10,
		InsiderPct: 15, InstitutionPct: 75,
	}
}

func risingBars(n int) []models.PriceBar {
	bars := make([]models.PriceBar, n)
	for i := range bars {
		bars[i] = models.PriceBar{Close: 100 + float64(i), Volume: 500000}
	}
	return bars
}

func newTestAnalyzer(t *testing.T, data *fakeMarketData, c cache.Service) *Analyzer {
	t.Helper()
	return NewAnalyzer(
		data,
		scoring.NewGrowthValueScorer(),
		scoring.NewHealthScorer(),
		scoring.NewMarketScorer(),
		scoring.NewCompositeScorer(),
		c,
		nil,
		nopMetrics{},
		testLogger(t),
		AnalyzerConfig{MinMarketCap: 1e9, MaxMarketCap: 70e9, HistoryDays: 300, ResultTTL: time.Minute},
	)
}

func TestAnalyzeScoresTicker(t *testing.T) {
	data := &fakeMarketData{
		fundamentals: map[string]*models.Fundamentals{"DDOG": strongFundamentals("DDOG", 38e9)},
		bars:         map[string][]models.PriceBar{"DDOG": risingBars(250)},
	}
	a := newTestAnalyzer(t, data, nil)

	got, err := a.Analyze(context.Background(), "DDOG", false)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	if got.Ticker != "DDOG" || got.Name != "DDOG Inc" {
		t.Errorf("identity = %q/%q", got.Ticker, got.Name)
	}
	if got.MarketCap != 38 {
		t.Errorf("market cap = %v, want 38 (billions)", got.MarketCap)
	}
	if got.CompositeScore <= 0 || got.CompositeScore > 100 {
		t.Errorf("composite = %v, out of range", got.CompositeScore)
	}
	if got.Rating == "" {
		t.Error("rating empty")
	}
	if got.ComponentScores.Momentum != 100 {
		t.Errorf("momentum = %v, want 100 for a rising series", got.ComponentScores.Momentum)
	}
	if got.LastPrice != 349 {
		t.Errorf("last price = %v, want 349", got.LastPrice)
	}
}

func TestAnalyzeCapGate(t *testing.T) {
	data := &fakeMarketData{
		fundamentals: map[string]*models.Fundamentals{
			"MEGA": strongFundamentals("MEGA", 500e9),
			"NANO": strongFundamentals("NANO", 5e8),
		},
	}
	a := newTestAnalyzer(t, data, nil)

	for _, ticker := range []string{"MEGA", "NANO"} {
		_, err := a.Analyze(context.Background(), ticker, false)
		if !errors.Is(err, ErrOutsideCapRange) {
			t.Errorf("%s: err = %v, want ErrOutsideCapRange", ticker, err)
		}
	}
}

func TestAnalyzeShortHistoryIsNeutral(t *testing.T) {
	data := &fakeMarketData{
		fundamentals: map[string]*models.Fundamentals{"IPO": strongFundamentals("IPO", 5e9)},
		bars:         map[string][]models.PriceBar{"IPO": risingBars(90)},
	}
	a := newTestAnalyzer(t, data, nil)

	got, err := a.Analyze(context.Background(), "IPO", false)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if got.ComponentScores.Momentum != 50 || got.ComponentScores.VolumeTrends != 50 {
		t.Errorf("short history should be neutral, got %+v", got.ComponentScores)
	}
	if got.KeyMetrics.VolumeTrend != 1 {
		t.Errorf("volume trend = %v, want 1", got.KeyMetrics.VolumeTrend)
	}
}

type capturePublisher struct {
	mu     sync.Mutex
	events []*models.ScoreEvent
}

func (p *capturePublisher) Publish(_ context.Context, ev *models.ScoreEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *capturePublisher) PublishBatch(_ context.Context, evs []*models.ScoreEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evs...)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func TestAnalyzeStampsRunIDOnPublishedEvents(t *testing.T) {
	data := &fakeMarketData{
		fundamentals: map[string]*models.Fundamentals{"DDOG": strongFundamentals("DDOG", 38e9)},
		bars:         map[string][]models.PriceBar{"DDOG": risingBars(250)},
	}
	pub := &capturePublisher{}
	proc := NewScoreProcessor(pub, nil, nopMetrics{}, "kafka")
	a := NewAnalyzer(
		data,
		scoring.NewGrowthValueScorer(),
		scoring.NewHealthScorer(),
		scoring.NewMarketScorer(),
		scoring.NewCompositeScorer(),
		nil,
		proc,
		nopMetrics{},
		testLogger(t),
		AnalyzerConfig{MinMarketCap: 1e9, MaxMarketCap: 70e9, HistoryDays: 300, ResultTTL: time.Minute},
	)

	got, err := a.Analyze(context.Background(), "DDOG", false)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if got.RunID == "" {
		t.Fatal("analysis run id empty")
	}
	if len(pub.events) != 1 {
		t.Fatalf("published events = %d, want 1", len(pub.events))
	}
	if pub.events[0].RunID != got.RunID {
		t.Errorf("event run id = %q, want %q", pub.events[0].RunID, got.RunID)
	}
}

func TestAnalyzeServesCachedResult(t *testing.T) {
	data := &fakeMarketData{
		fundamentals: map[string]*models.Fundamentals{"DDOG": strongFundamentals("DDOG", 38e9)},
		bars:         map[string][]models.PriceBar{"DDOG": risingBars(250)},
	}
	mc := cache.NewMemoryCache()
	defer mc.Close()
	a := newTestAnalyzer(t, data, mc)

	ctx := context.Background()
	if _, err := a.Analyze(ctx, "DDOG", false); err != nil {
		t.Fatalf("first analyze: %v", err)
	}
	if _, err := a.Analyze(ctx, "DDOG", false); err != nil {
		t.Fatalf("second analyze: %v", err)
	}
	if data.fundCalls != 1 {
		t.Errorf("provider calls = %d, want 1 (second served from cache)", data.fundCalls)
	}

	// fresh bypasses the cache
	if _, err := a.Analyze(ctx, "DDOG", true); err != nil {
		t.Fatalf("fresh analyze: %v", err)
	}
	if data.fundCalls != 2 {
		t.Errorf("provider calls = %d, want 2 after fresh", data.fundCalls)
	}
}
