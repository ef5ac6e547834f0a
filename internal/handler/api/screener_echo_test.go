package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"stockscout/internal/domain/models"
	"stockscout/internal/services/scoring"
	"stockscout/internal/usecase"
	xhttp "stockscout/pkg/http"
	"stockscout/pkg/logger"

	"github.com/labstack/echo/v4"
)

type fakeMarket struct {
	fundamentals map[string]*models.Fundamentals
	bars         map[string][]models.PriceBar
}

func (f *fakeMarket) Fundamentals(_ context.Context, ticker string) (*models.Fundamentals, error) {
	fd, ok := f.fundamentals[ticker]
	if !ok {
		return nil, errors.New("ticker not found")
	}
	return fd, nil
}

func (f *fakeMarket) DailyBars(_ context.Context, ticker string, _ int) ([]models.PriceBar, error) {
	return f.bars[ticker], nil
}

type fakeUniverse struct {
	latest *models.Universe
	saved  *models.Universe
}

func (f *fakeUniverse) Save(_ context.Context, u *models.Universe) error {
	f.saved = u
	return nil
}

func (f *fakeUniverse) LoadLatest(context.Context) (*models.Universe, error) {
	if f.latest == nil {
		return nil, os.ErrNotExist
	}
	return f.latest, nil
}

func (f *fakeUniverse) Load(context.Context, time.Time) (*models.Universe, error) {
	return f.LoadLatest(context.Background())
}

type nopMetrics struct{}

func (nopMetrics) RecordAnalysis(string)           {}
func (nopMetrics) RecordEventSent(string, string)  {}
func (nopMetrics) RecordError(string)              {}
func (nopMetrics) RecordLastPrice(string, float64) {}
func (nopMetrics) RecordScore(string, float64)     {}
func (nopMetrics) RecordLatency(string, float64)   {}

func testHandler(t *testing.T) *ScreenerEchoHandler {
	t.Helper()
	lgr, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	bars := make([]models.PriceBar, 250)
	for i := range bars {
		bars[i] = models.PriceBar{Close: 100 + float64(i), Volume: 500000}
	}
	market := &fakeMarket{
		fundamentals: map[string]*models.Fundamentals{
			"DDOG": {
				Ticker: "DDOG", Name: "Datadog Inc", MarketCap: 38e9,
				PSRatio: 12, RevenueGrowth: 26, GrossMargin: 81,
				CurrentRatio: 2.9, TotalCash: 2.5e9, TotalDebt: 9e8, DebtToEquity: 40,
				InsiderPct: 9, InstitutionPct: 78, Industry: "Software - Application",
			},
			"MEGA": {Ticker: "MEGA", Name: "Mega Corp", MarketCap: 500e9},
		},
		bars: map[string][]models.PriceBar{"DDOG": bars},
	}

	analyzer := usecase.NewAnalyzer(
		market,
		scoring.NewGrowthValueScorer(),
		scoring.NewHealthScorer(),
		scoring.NewMarketScorer(),
		scoring.NewCompositeScorer(),
		nil, nil,
		nopMetrics{},
		lgr,
		usecase.AnalyzerConfig{MinMarketCap: 1e9, MaxMarketCap: 70e9},
	)
	universe := usecase.NewUniverseBuilder(market, &fakeUniverse{}, nopMetrics{}, lgr, usecase.UniverseConfig{
		MinMarketCap: 1e9,
		MaxMarketCap: 70e9,
		MinVolume:    100000,
		Industries:   []string{"Software"},
		KnownTickers: []string{"DDOG"},
	})
	scanner := usecase.NewScanner(analyzer, &fakeUniverse{}, nil, lgr, 2, 8)

	return NewScreenerEchoHandler(lgr, analyzer, scanner, universe, nil)
}

func doRequest(t *testing.T, h *ScreenerEchoHandler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	h.RegisterRoutes(e)

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) *xhttp.APIResponse {
	t.Helper()
	res := &xhttp.APIResponse{}
	if err := json.Unmarshal(rec.Body.Bytes(), res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return res
}

func TestAnalyzeEndpoint(t *testing.T) {
	h := testHandler(t)

	rec := doRequest(t, h, http.MethodGet, "/api/analyze?ticker=DDOG", "")
	res := decodeBody(t, rec)
	if res.Status != http.StatusOK {
		t.Fatalf("status = %d, body %s", res.Status, rec.Body.String())
	}

	data, _ := json.Marshal(res.Data)
	var a models.Analysis
	if err := json.Unmarshal(data, &a); err != nil {
		t.Fatalf("decode analysis: %v", err)
	}
	if a.Ticker != "DDOG" || a.CompositeScore <= 0 {
		t.Errorf("analysis = %+v", a)
	}
	if a.Rating == "" {
		t.Error("rating missing")
	}
}

func TestAnalyzeValidatesTicker(t *testing.T) {
	h := testHandler(t)

	for _, target := range []string{
		"/api/analyze",                    // missing
		"/api/analyze?ticker=ddog",       // lowercase
		"/api/analyze?ticker=TOOLONGSYM", // over max
	} {
		res := decodeBody(t, doRequest(t, h, http.MethodGet, target, ""))
		if res.Status != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", target, res.Status)
		}
	}
}

func TestAnalyzeCapGateReturnsUnprocessable(t *testing.T) {
	h := testHandler(t)

	res := decodeBody(t, doRequest(t, h, http.MethodGet, "/api/analyze?ticker=MEGA", ""))
	if res.Status != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", res.Status)
	}
}

func TestAnalyzeUnknownTickerIsInternal(t *testing.T) {
	h := testHandler(t)

	res := decodeBody(t, doRequest(t, h, http.MethodGet, "/api/analyze?ticker=NOPE", ""))
	if res.Status != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", res.Status)
	}
}

func TestScanEndpoint(t *testing.T) {
	h := testHandler(t)

	rec := doRequest(t, h, http.MethodPost, "/api/scan", `{"tickers":["DDOG","MEGA"]}`)
	res := decodeBody(t, rec)
	if res.Status != http.StatusOK {
		t.Fatalf("status = %d, body %s", res.Status, rec.Body.String())
	}

	data, _ := json.Marshal(res.Data)
	var sr models.ScanResult
	if err := json.Unmarshal(data, &sr); err != nil {
		t.Fatalf("decode scan result: %v", err)
	}
	if sr.Requested != 2 || sr.Analyzed != 1 {
		t.Errorf("requested/analyzed = %d/%d, want 2/1", sr.Requested, sr.Analyzed)
	}
	if len(sr.Skipped) != 1 || sr.Skipped[0].Ticker != "MEGA" {
		t.Errorf("skipped = %+v", sr.Skipped)
	}
}

func TestScanWithoutUniverseIs404(t *testing.T) {
	h := testHandler(t)

	res := decodeBody(t, doRequest(t, h, http.MethodPost, "/api/scan", `{}`))
	if res.Status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", res.Status)
	}
}

func TestUniverseWithoutSnapshotIs404(t *testing.T) {
	h := testHandler(t)

	res := decodeBody(t, doRequest(t, h, http.MethodGet, "/api/universe", ""))
	if res.Status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", res.Status)
	}
}

func TestUniverseRejectsBadCategory(t *testing.T) {
	h := testHandler(t)

	res := decodeBody(t, doRequest(t, h, http.MethodGet, "/api/universe?category=Extreme", ""))
	if res.Status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", res.Status)
	}
}

func TestRefreshUniverseEndpoint(t *testing.T) {
	h := testHandler(t)

	rec := doRequest(t, h, http.MethodPost, "/api/universe/refresh", "")
	res := decodeBody(t, rec)
	if res.Status != http.StatusOK {
		t.Fatalf("status = %d, body %s", res.Status, rec.Body.String())
	}

	data, _ := json.Marshal(res.Data)
	var u models.Universe
	if err := json.Unmarshal(data, &u); err != nil {
		t.Fatalf("decode universe: %v", err)
	}
	if len(u.Entries) != 1 || u.Entries[0].Ticker != "DDOG" {
		t.Errorf("entries = %+v", u.Entries)
	}
}

func TestHistoryWithoutBackendIs404(t *testing.T) {
	h := testHandler(t)

	res := decodeBody(t, doRequest(t, h, http.MethodGet, "/api/history?ticker=DDOG", ""))
	if res.Status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", res.Status)
	}
}

func TestHealthEndpoint(t *testing.T) {
	h := testHandler(t)
	h.AddHealthCheck("cache", func(context.Context) error { return nil })

	res := decodeBody(t, doRequest(t, h, http.MethodGet, "/api/health", ""))
	if res.Status != http.StatusOK {
		t.Fatalf("status = %d", res.Status)
	}

	h.AddHealthCheck("clickhouse", func(context.Context) error { return errors.New("connection refused") })
	res = decodeBody(t, doRequest(t, h, http.MethodGet, "/api/health", ""))
	if res.Status != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", res.Status)
	}
}
