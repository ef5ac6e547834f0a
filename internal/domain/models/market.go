package models

import "time"

// Trade is a single trade print from the live stream.
type Trade struct {
	Symbol    string
	Price     float64
	Volume    float64
	Timestamp time.Time
}

// PriceBar is one daily OHLCV candle.
type PriceBar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Fundamentals holds the profile and metric snapshot used for scoring.
type Fundamentals struct {
	Ticker         string
	Name           string
	Industry       string
	MarketCap      float64 // USD
	PSRatio        float64
	RevenueGrowth  float64 // percent, trailing twelve months
	GrossMargin    float64 // percent
	CurrentRatio   float64
	TotalCash      float64 // USD
	TotalDebt      float64 // USD
	DebtToEquity   float64
	InsiderPct     float64 // percent of shares held by insiders
	InstitutionPct float64 // percent of shares held by institutions
}
