package models

import "time"

// Growth categories bucket trailing revenue growth (percent).
const (
	GrowthNegative = "Negative" // <= 0
	GrowthLow      = "Low"      // (0, 20]
	GrowthMedium   = "Medium"   // (20, 40]
	GrowthHigh     = "High"     // > 40
)

// CategorizeGrowth maps a revenue growth percentage to its bucket.
func CategorizeGrowth(revenueGrowth float64) string {
	switch {
	case revenueGrowth > 40:
		return GrowthHigh
	case revenueGrowth > 20:
		return GrowthMedium
	case revenueGrowth > 0:
		return GrowthLow
	default:
		return GrowthNegative
	}
}

// UniverseEntry is one qualified stock in the screening universe.
type UniverseEntry struct {
	Ticker         string  `json:"ticker"`
	Name           string  `json:"name"`
	MarketCap      float64 `json:"market_cap"` // billions USD
	Industry       string  `json:"industry"`
	AvgVolume      float64 `json:"avg_volume"`
	RevenueGrowth  float64 `json:"revenue_growth"` // percent
	GrossMargin    float64 `json:"gross_margin"`   // percent
	PSRatio        float64 `json:"ps_ratio"`
	Price          float64 `json:"price"`
	IsKnownTicker  bool    `json:"is_known_ticker"`
	GrowthCategory string  `json:"growth_category"`
}

// Universe is a dated snapshot of qualified entries plus the tickers
// that could not be resolved during the build.
type Universe struct {
	Date           time.Time       `json:"date"`
	Entries        []UniverseEntry `json:"entries"`
	InvalidTickers []string        `json:"invalid_tickers,omitempty"`
}
