package usecase

import (
	"context"
	"testing"

	"stockscout/internal/domain/models"
)

func universeData() *fakeMarketData {
	data := &fakeMarketData{
		fundamentals: map[string]*models.Fundamentals{
			"CRWD": strongFundamentals("CRWD", 65e9),
			"MEGA": strongFundamentals("MEGA", 500e9),
			"THIN": strongFundamentals("THIN", 5e9),
			"BANK": strongFundamentals("BANK", 20e9),
		},
		bars: map[string][]models.PriceBar{
			"CRWD": risingBars(60),
			"MEGA": risingBars(60),
			"BANK": risingBars(60),
		},
	}
	for _, f := range data.fundamentals {
		f.Industry = "Software - Infrastructure"
	}
	data.fundamentals["BANK"].Industry = "Banks - Regional"

	// THIN trades below the volume floor
	thin := risingBars(60)
	for i := range thin {
		thin[i].Volume = 1000
	}
	data.bars["THIN"] = thin
	return data
}

func newTestBuilder(t *testing.T, data *fakeMarketData, store *fakeUniverseStore, known []string) *UniverseBuilder {
	t.Helper()
	return NewUniverseBuilder(data, store, nopMetrics{}, testLogger(t), UniverseConfig{
		MinMarketCap: 1e9,
		MaxMarketCap: 70e9,
		MinVolume:    100000,
		Industries:   []string{"Software", "Information Technology"},
		KnownTickers: known,
	})
}

func TestBuildFiltersAndSorts(t *testing.T) {
	store := &fakeUniverseStore{}
	b := newTestBuilder(t, universeData(), store, []string{"CRWD", "MEGA", "THIN", "BANK", "GONE"})

	u, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	// MEGA gated by cap, THIN by volume; BANK kept via known-ticker override
	tickers := make([]string, 0, len(u.Entries))
	for _, e := range u.Entries {
		tickers = append(tickers, e.Ticker)
	}
	if len(tickers) != 2 || tickers[0] != "CRWD" || tickers[1] != "BANK" {
		t.Errorf("entries = %v, want [CRWD BANK] sorted by cap", tickers)
	}

	if len(u.InvalidTickers) != 1 || u.InvalidTickers[0] != "GONE" {
		t.Errorf("invalid = %v, want [GONE]", u.InvalidTickers)
	}
}

func TestBuildCategorizesGrowth(t *testing.T) {
	data := universeData()
	data.fundamentals["CRWD"].RevenueGrowth = 45

	b := newTestBuilder(t, data, &fakeUniverseStore{}, []string{"CRWD"})
	u, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(u.Entries) != 1 {
		t.Fatalf("entries = %d", len(u.Entries))
	}
	if u.Entries[0].GrowthCategory != models.GrowthHigh {
		t.Errorf("category = %q, want %q", u.Entries[0].GrowthCategory, models.GrowthHigh)
	}
	if !u.Entries[0].IsKnownTicker {
		t.Error("seed tickers should be flagged known")
	}
}

func TestRefreshPersistsSnapshot(t *testing.T) {
	store := &fakeUniverseStore{}
	b := newTestBuilder(t, universeData(), store, []string{"CRWD"})

	u, err := b.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if store.saved == nil {
		t.Fatal("snapshot not saved")
	}
	if len(store.saved.Entries) != len(u.Entries) {
		t.Errorf("saved %d entries, returned %d", len(store.saved.Entries), len(u.Entries))
	}
}

func TestLatestFiltersByCategory(t *testing.T) {
	store := &fakeUniverseStore{latest: &models.Universe{
		Entries: []models.UniverseEntry{
			{Ticker: "A", GrowthCategory: models.GrowthHigh},
			{Ticker: "B", GrowthCategory: models.GrowthLow},
			{Ticker: "C", GrowthCategory: models.GrowthHigh},
		},
	}}
	b := newTestBuilder(t, universeData(), store, nil)

	u, err := b.Latest(context.Background(), models.GrowthHigh, 0)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if len(u.Entries) != 2 {
		t.Errorf("entries = %d, want 2", len(u.Entries))
	}

	u, err = b.Latest(context.Background(), "", 1)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if len(u.Entries) != 1 {
		t.Errorf("limit ignored: %d entries", len(u.Entries))
	}
}
