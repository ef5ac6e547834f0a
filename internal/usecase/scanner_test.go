package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"stockscout/internal/domain/models"
	"stockscout/pkg/cache"
	"stockscout/pkg/util"
)

type fakeUniverseStore struct {
	latest *models.Universe
	err    error
	saved  *models.Universe
}

func (f *fakeUniverseStore) Save(_ context.Context, u *models.Universe) error {
	f.saved = u
	return nil
}

func (f *fakeUniverseStore) LoadLatest(_ context.Context) (*models.Universe, error) {
	return f.latest, f.err
}

func (f *fakeUniverseStore) Load(_ context.Context, _ time.Time) (*models.Universe, error) {
	return f.latest, f.err
}

func scanData() *fakeMarketData {
	weak := strongFundamentals("WEAK", 5e9)
	weak.RevenueGrowth = 2
	weak.GrossMargin = 30
	weak.PSRatio = 15
	weak.InsiderPct = 1
	weak.InstitutionPct = 20

	return &fakeMarketData{
		fundamentals: map[string]*models.Fundamentals{
			"CRWD": strongFundamentals("CRWD", 65e9),
			"WEAK": weak,
			"MEGA": strongFundamentals("MEGA", 500e9), // gated
		},
		bars: map[string][]models.PriceBar{
			"CRWD": risingBars(250),
			"WEAK": risingBars(250),
		},
	}
}

func newTestScanner(t *testing.T, data *fakeMarketData, universe *fakeUniverseStore) *Scanner {
	t.Helper()
	return NewScanner(newTestAnalyzer(t, data, nil), universe, nil, testLogger(t), 2, 8)
}

func TestScanSortsByScoreDescending(t *testing.T) {
	s := newTestScanner(t, scanData(), &fakeUniverseStore{})

	got, err := s.Scan(context.Background(), &models.ScanRequest{Tickers: []string{"WEAK", "CRWD"}})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	if got.Analyzed != 2 {
		t.Fatalf("analyzed = %d, want 2", got.Analyzed)
	}
	if got.Results[0].Ticker != "CRWD" {
		t.Errorf("best = %s, want CRWD", got.Results[0].Ticker)
	}
	if got.Results[0].CompositeScore < got.Results[1].CompositeScore {
		t.Error("results not sorted descending")
	}
}

func TestScanSkipsFailedTickers(t *testing.T) {
	s := newTestScanner(t, scanData(), &fakeUniverseStore{})

	got, err := s.Scan(context.Background(), &models.ScanRequest{
		Tickers: []string{"CRWD", "MEGA", "GONE"},
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	if got.Requested != 3 || got.Analyzed != 1 {
		t.Errorf("requested/analyzed = %d/%d, want 3/1", got.Requested, got.Analyzed)
	}
	if len(got.Skipped) != 2 {
		t.Fatalf("skipped = %d, want 2", len(got.Skipped))
	}

	reasons := map[string]string{}
	for _, sk := range got.Skipped {
		reasons[sk.Ticker] = sk.Reason
	}
	if reasons["MEGA"] != "outside market cap range" {
		t.Errorf("MEGA reason = %q", reasons["MEGA"])
	}
	if reasons["GONE"] == "" {
		t.Error("GONE should carry an error reason")
	}
}

func TestScanMinScoreAndLimit(t *testing.T) {
	s := newTestScanner(t, scanData(), &fakeUniverseStore{})

	got, err := s.Scan(context.Background(), &models.ScanRequest{
		Tickers:  []string{"WEAK", "CRWD"},
		MinScore: 60,
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	for _, a := range got.Results {
		if a.CompositeScore < 60 {
			t.Errorf("%s score %.1f below min", a.Ticker, a.CompositeScore)
		}
	}

	got, err = s.Scan(context.Background(), &models.ScanRequest{
		Tickers: []string{"WEAK", "CRWD"},
		Limit:   1,
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(got.Results) != 1 {
		t.Errorf("limit ignored: %d results", len(got.Results))
	}
}

func TestScanFallsBackToUniverse(t *testing.T) {
	universe := &fakeUniverseStore{latest: &models.Universe{
		Date: time.Now(),
		Entries: []models.UniverseEntry{
			{Ticker: "CRWD"}, {Ticker: "WEAK"},
		},
	}}
	s := newTestScanner(t, scanData(), universe)

	got, err := s.Scan(context.Background(), &models.ScanRequest{})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if got.Requested != 2 || got.Analyzed != 2 {
		t.Errorf("requested/analyzed = %d/%d, want 2/2", got.Requested, got.Analyzed)
	}
	if got.RunID == "" {
		t.Error("run id empty")
	}
}

func TestScanStampsResultsWithRunID(t *testing.T) {
	s := newTestScanner(t, scanData(), &fakeUniverseStore{})

	got, err := s.Scan(context.Background(), &models.ScanRequest{Tickers: []string{"WEAK", "CRWD"}})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if got.RunID == "" {
		t.Fatal("run id empty")
	}
	for _, a := range got.Results {
		if a.RunID != got.RunID {
			t.Errorf("%s run id = %q, want %q", a.Ticker, a.RunID, got.RunID)
		}
	}
}

func TestScanLockSerializesRuns(t *testing.T) {
	c := cache.NewMemoryCache()
	defer c.Close()

	s := NewScanner(newTestAnalyzer(t, scanData(), nil), &fakeUniverseStore{}, c, testLogger(t), 2, 8)
	ctx := context.Background()
	lockKey := cache.ScanLockKey(util.DateStamp(time.Now().UTC()))

	if ok, err := c.TryLock(ctx, lockKey, time.Minute); err != nil || !ok {
		t.Fatalf("prelock: ok=%v err=%v", ok, err)
	}
	if _, err := s.Scan(ctx, &models.ScanRequest{Tickers: []string{"CRWD"}}); !errors.Is(err, ErrScanInProgress) {
		t.Fatalf("err = %v, want ErrScanInProgress", err)
	}

	if err := c.Unlock(ctx, lockKey); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if _, err := s.Scan(ctx, &models.ScanRequest{Tickers: []string{"CRWD"}}); err != nil {
		t.Fatalf("scan after unlock: %v", err)
	}
}
