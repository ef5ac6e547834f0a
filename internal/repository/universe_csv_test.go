package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"stockscout/internal/domain/models"
)

func sampleUniverse(date time.Time) *models.Universe {
	return &models.Universe{
		Date: date,
		Entries: []models.UniverseEntry{
			{
				Ticker: "CRWD", Name: "CrowdStrike", MarketCap: 65.2,
				Industry: "Software—Infrastructure", AvgVolume: 3500000,
				RevenueGrowth: 33.1, GrossMargin: 75.2, PSRatio: 18.4,
				Price: 270.5, IsKnownTicker: true, GrowthCategory: models.GrowthMedium,
			},
			{
				Ticker: "DDOG", Name: "Datadog", MarketCap: 38.7,
				Industry: "Software—Application", AvgVolume: 2900000,
				RevenueGrowth: 26.5, GrossMargin: 80.1, PSRatio: 16.2,
				Price: 115.3, IsKnownTicker: true, GrowthCategory: models.GrowthMedium,
			},
		},
		InvalidTickers: []string{"ZZZZ", "QQQX"},
	}
}

func TestSaveAndLoadLatest(t *testing.T) {
	dir := t.TempDir()
	store := NewCSVUniverseStore(dir)
	ctx := context.Background()

	date := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	if err := store.Save(ctx, sampleUniverse(date)); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.LoadLatest(ctx)
	if err != nil {
		t.Fatalf("load latest: %v", err)
	}
	if !got.Date.Equal(date) {
		t.Errorf("date = %v, want %v", got.Date, date)
	}
	if len(got.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(got.Entries))
	}
	e := got.Entries[0]
	if e.Ticker != "CRWD" || e.MarketCap != 65.2 || !e.IsKnownTicker {
		t.Errorf("first entry = %+v", e)
	}
	if e.GrowthCategory != models.GrowthMedium {
		t.Errorf("growth category = %q", e.GrowthCategory)
	}
}

func TestLoadLatestPicksNewestSnapshot(t *testing.T) {
	dir := t.TempDir()
	store := NewCSVUniverseStore(dir)
	ctx := context.Background()

	older := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

	if err := store.Save(ctx, &models.Universe{Date: older}); err != nil {
		t.Fatalf("save older: %v", err)
	}
	if err := store.Save(ctx, sampleUniverse(newer)); err != nil {
		t.Fatalf("save newer: %v", err)
	}

	got, err := store.LoadLatest(ctx)
	if err != nil {
		t.Fatalf("load latest: %v", err)
	}
	if !got.Date.Equal(newer) {
		t.Errorf("date = %v, want %v", got.Date, newer)
	}
}

func TestLoadLatestEmptyDir(t *testing.T) {
	store := NewCSVUniverseStore(t.TempDir())

	_, err := store.LoadLatest(context.Background())
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want os.ErrNotExist", err)
	}
}

func TestSaveWritesInvalidTickers(t *testing.T) {
	dir := t.TempDir()
	store := NewCSVUniverseStore(dir)

	date := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	if err := store.Save(context.Background(), sampleUniverse(date)); err != nil {
		t.Fatalf("save: %v", err)
	}

	b, err := os.ReadFile(filepath.Join(dir, "invalid_tickers_20250314.txt"))
	if err != nil {
		t.Fatalf("read invalid tickers: %v", err)
	}
	// sorted, newline separated
	if string(b) != "QQQX\nZZZZ\n" {
		t.Errorf("invalid tickers file = %q", string(b))
	}
}

func TestLoadByDate(t *testing.T) {
	dir := t.TempDir()
	store := NewCSVUniverseStore(dir)
	ctx := context.Background()

	date := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	if err := store.Save(ctx, sampleUniverse(date)); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Load(ctx, date.Add(5*time.Hour)) // same day
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Entries) != 2 {
		t.Errorf("entries = %d, want 2", len(got.Entries))
	}
}
