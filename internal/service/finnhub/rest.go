// Package finnhub implements the market data provider: REST lookups for
// fundamentals and candles, and a WebSocket stream for live trades.
package finnhub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"stockscout/internal/domain/models"
	drepo "stockscout/internal/domain/repository"
	svccache "stockscout/internal/service/cache"
	"stockscout/internal/service/ratelimit"
	xhttp "stockscout/pkg/http"
	"stockscout/pkg/logger"
)

// ErrTickerNotFound marks symbols the provider does not resolve.
var ErrTickerNotFound = errors.New("finnhub: ticker not found")

const restLimiterKey = "finnhub:rest"

// RestClient implements repository.MarketData against the Finnhub REST API.
type RestClient struct {
	apiKey  string
	baseURL string
	client  *xhttp.Client
	cache   svccache.BytesCache
	ttl     time.Duration
	limiter *ratelimit.Limiter

	rateCapacity float64
	ratePerSec   float64

	logger *logger.Logger
}

// RestOption configures the RestClient.
type RestOption func(*RestClient)

// WithBytesCache enables payload caching with the given TTL.
func WithBytesCache(c svccache.BytesCache, ttl time.Duration) RestOption {
	return func(r *RestClient) {
		r.cache = c
		r.ttl = ttl
	}
}

// WithRate sets the request token bucket.
func WithRate(capacity, perSec float64) RestOption {
	return func(r *RestClient) {
		r.rateCapacity = capacity
		r.ratePerSec = perSec
	}
}

// NewRestClient creates a Finnhub REST client.
func NewRestClient(lgr *logger.Logger, apiKey, baseURL string, timeout time.Duration, opts ...RestOption) *RestClient {
	r := &RestClient{
		apiKey:       apiKey,
		baseURL:      baseURL,
		client:       xhttp.NewClient(xhttp.WithTimeout(timeout)),
		limiter:      ratelimit.New(),
		rateCapacity: 30,
		ratePerSec:   0.5, // free tier: 30 calls/min
		logger:       lgr,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type fhProfile struct {
	Name             string  `json:"name"`
	Ticker           string  `json:"ticker"`
	FinnhubIndustry  string  `json:"finnhubIndustry"`
	MarketCap        float64 `json:"marketCapitalization"` // millions USD
	ShareOutstanding float64 `json:"shareOutstanding"`     // millions
}

type fhMetrics struct {
	Metric map[string]json.Number `json:"metric"`
}

type fhCandles struct {
	Status  string    `json:"s"`
	Open    []float64 `json:"o"`
	High    []float64 `json:"h"`
	Low     []float64 `json:"l"`
	Close   []float64 `json:"c"`
	Volume  []float64 `json:"v"`
	Tstamps []int64   `json:"t"`
}

// Fundamentals fetches profile and metrics for a ticker and folds them
// into the scoring snapshot. Unknown tickers return ErrTickerNotFound.
func (r *RestClient) Fundamentals(ctx context.Context, ticker string) (*models.Fundamentals, error) {
	key := "fund:" + ticker
	if cached, ok := r.cached(key); ok {
		var f models.Fundamentals
		if err := json.Unmarshal(cached, &f); err == nil {
			return &f, nil
		}
	}

	var profile fhProfile
	if err := r.get(ctx, "/stock/profile2", map[string][]string{"symbol": {ticker}}, &profile); err != nil {
		return nil, fmt.Errorf("profile %s: %w", ticker, err)
	}
	if profile.Ticker == "" && profile.Name == "" {
		return nil, ErrTickerNotFound
	}

	var metrics fhMetrics
	if err := r.get(ctx, "/stock/metric", map[string][]string{"symbol": {ticker}, "metric": {"all"}}, &metrics); err != nil {
		return nil, fmt.Errorf("metric %s: %w", ticker, err)
	}

	m := func(key string) float64 { return metricVal(metrics.Metric, key) }
	shares := profile.ShareOutstanding * 1e6

	f := &models.Fundamentals{
		Ticker:         ticker,
		Name:           profile.Name,
		Industry:       profile.FinnhubIndustry,
		MarketCap:      profile.MarketCap * 1e6,
		PSRatio:        m("psTTM"),
		RevenueGrowth:  m("revenueGrowthTTMYoy"),
		GrossMargin:    m("grossMarginTTM"),
		CurrentRatio:   m("currentRatioQuarterly"),
		TotalCash:      m("cashPerSharePerShareQuarterly") * shares,
		TotalDebt:      m("totalDebtPerShareQuarterly") * shares,
		DebtToEquity:   m("totalDebt/totalEquityQuarterly") * 100,
		InsiderPct:     m("insiderOwnership"),
		InstitutionPct: m("institutionOwnership"),
	}
	if f.CurrentRatio == 0 {
		f.CurrentRatio = 1
	}

	r.store(key, f)
	return f, nil
}

// DailyBars fetches up to `days` daily candles ending today.
func (r *RestClient) DailyBars(ctx context.Context, ticker string, days int) ([]models.PriceBar, error) {
	key := "candles:" + ticker + ":" + strconv.Itoa(days)
	if cached, ok := r.cached(key); ok {
		var bars []models.PriceBar
		if err := json.Unmarshal(cached, &bars); err == nil {
			return bars, nil
		}
	}

	to := time.Now()
	from := to.AddDate(0, 0, -days)

	var resp fhCandles
	err := r.get(ctx, "/stock/candle", map[string][]string{
		"symbol":     {ticker},
		"resolution": {"D"},
		"from":       {strconv.FormatInt(from.Unix(), 10)},
		"to":         {strconv.FormatInt(to.Unix(), 10)},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("candle %s: %w", ticker, err)
	}
	if resp.Status == "no_data" {
		return nil, nil
	}
	if resp.Status != "ok" {
		return nil, fmt.Errorf("candle %s: status %q", ticker, resp.Status)
	}

	n := len(resp.Close)
	bars := make([]models.PriceBar, 0, n)
	for i := 0; i < n; i++ {
		bars = append(bars, models.PriceBar{
			Time:   time.Unix(resp.Tstamps[i], 0).UTC(),
			Open:   resp.Open[i],
			High:   resp.High[i],
			Low:    resp.Low[i],
			Close:  resp.Close[i],
			Volume: resp.Volume[i],
		})
	}

	r.store(key, bars)
	return bars, nil
}

func (r *RestClient) get(ctx context.Context, path string, params map[string][]string, dest interface{}) error {
	if err := r.limiter.Wait(ctx, restLimiterKey, r.rateCapacity, r.ratePerSec); err != nil {
		return err
	}

	params["token"] = []string{r.apiKey}
	return r.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         r.baseURL + path,
		QueryParams: params,
	}, dest)
}

func (r *RestClient) cached(key string) ([]byte, bool) {
	if r.cache == nil {
		return nil, false
	}
	b, ok, err := r.cache.GetBytes(key)
	if err != nil || !ok {
		return nil, false
	}
	return b, true
}

func (r *RestClient) store(key string, v interface{}) {
	if r.cache == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := r.cache.SetBytes(key, b, r.ttl); err != nil {
		r.logger.Warn("provider cache write failed",
			logger.String("key", key), logger.Error(err))
	}
}

func metricVal(m map[string]json.Number, key string) float64 {
	if m == nil {
		return 0
	}
	n, ok := m[key]
	if !ok {
		return 0
	}
	v, err := n.Float64()
	if err != nil {
		return 0
	}
	return v
}

var _ drepo.MarketData = (*RestClient)(nil)
