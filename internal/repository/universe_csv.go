package repository

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"stockscout/internal/domain/models"
	domrepo "stockscout/internal/domain/repository"
	"stockscout/pkg/util"
)

const (
	universeFilePrefix = "software_universe_"
	invalidFilePrefix  = "invalid_tickers_"
)

var universeHeader = []string{
	"ticker", "name", "market_cap", "industry", "avg_volume",
	"revenue_growth", "gross_margin", "ps_ratio", "price",
	"is_known_ticker", "growth_category",
}

// CSVUniverseStore persists dated universe snapshots as
// software_universe_YYYYMMDD.csv files under a directory. The latest
// snapshot is the lexically greatest file name.
type CSVUniverseStore struct {
	dir string
}

func NewCSVUniverseStore(dir string) *CSVUniverseStore {
	return &CSVUniverseStore{dir: dir}
}

func (s *CSVUniverseStore) Save(_ context.Context, u *models.Universe) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("universe dir: %w", err)
	}

	stamp := util.DateStamp(u.Date)
	path := filepath.Join(s.dir, universeFilePrefix+stamp+".csv")

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create universe file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(universeHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, e := range u.Entries {
		rec := []string{
			e.Ticker,
			e.Name,
			formatFloat(e.MarketCap),
			e.Industry,
			formatFloat(e.AvgVolume),
			formatFloat(e.RevenueGrowth),
			formatFloat(e.GrossMargin),
			formatFloat(e.PSRatio),
			formatFloat(e.Price),
			strconv.FormatBool(e.IsKnownTicker),
			e.GrowthCategory,
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write entry %s: %w", e.Ticker, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush universe file: %w", err)
	}

	if len(u.InvalidTickers) > 0 {
		invalid := append([]string(nil), u.InvalidTickers...)
		sort.Strings(invalid)
		invalidPath := filepath.Join(s.dir, invalidFilePrefix+stamp+".txt")
		if err := os.WriteFile(invalidPath, []byte(strings.Join(invalid, "\n")+"\n"), 0o644); err != nil {
			return fmt.Errorf("write invalid tickers: %w", err)
		}
	}
	return nil
}

func (s *CSVUniverseStore) LoadLatest(ctx context.Context) (*models.Universe, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, universeFilePrefix+"*.csv"))
	if err != nil {
		return nil, fmt.Errorf("glob universe files: %w", err)
	}
	if len(matches) == 0 {
		return nil, os.ErrNotExist
	}
	sort.Strings(matches)
	latest := matches[len(matches)-1]

	date, err := dateFromFilename(latest)
	if err != nil {
		return nil, err
	}
	return s.load(latest, date)
}

func (s *CSVUniverseStore) Load(_ context.Context, date time.Time) (*models.Universe, error) {
	stamp := util.DateStamp(date)
	path := filepath.Join(s.dir, universeFilePrefix+stamp+".csv")
	return s.load(path, util.TruncateDay(date))
}

func (s *CSVUniverseStore) load(path string, date time.Time) (*models.Universe, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read universe file: %w", err)
	}
	if len(records) == 0 {
		return &models.Universe{Date: date}, nil
	}

	u := &models.Universe{Date: date, Entries: make([]models.UniverseEntry, 0, len(records)-1)}
	for i, rec := range records[1:] { // skip header
		if len(rec) != len(universeHeader) {
			return nil, fmt.Errorf("row %d: expected %d columns, got %d", i+2, len(universeHeader), len(rec))
		}
		u.Entries = append(u.Entries, models.UniverseEntry{
			Ticker:         rec[0],
			Name:           rec[1],
			MarketCap:      util.ParseFloatDefault(rec[2], 0),
			Industry:       rec[3],
			AvgVolume:      util.ParseFloatDefault(rec[4], 0),
			RevenueGrowth:  util.ParseFloatDefault(rec[5], 0),
			GrossMargin:    util.ParseFloatDefault(rec[6], 0),
			PSRatio:        util.ParseFloatDefault(rec[7], 0),
			Price:          util.ParseFloatDefault(rec[8], 0),
			IsKnownTicker:  rec[9] == "true",
			GrowthCategory: rec[10],
		})
	}
	return u, nil
}

func dateFromFilename(path string) (time.Time, error) {
	base := filepath.Base(path)
	stamp := strings.TrimSuffix(strings.TrimPrefix(base, universeFilePrefix), ".csv")
	date, err := time.Parse("20060102", stamp)
	if err != nil {
		return time.Time{}, fmt.Errorf("universe filename %q: %w", base, err)
	}
	return date, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

var _ domrepo.UniverseStore = (*CSVUniverseStore)(nil)
