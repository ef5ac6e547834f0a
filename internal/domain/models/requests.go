package models

// Requests for screener HTTP endpoints. Defined in domain for consistency and reuse.

type AnalyzeRequest struct {
	Ticker string `query:"ticker" json:"ticker" validate:"required,min=1,max=8,uppercase"`
	Fresh  bool   `query:"fresh" json:"fresh"`
}

type ScanRequest struct {
	Tickers  []string `json:"tickers" validate:"omitempty,max=500,dive,min=1,max=8"`
	MinScore float64  `json:"min_score" validate:"gte=0,lte=100"`
	Limit    int      `json:"limit" default:"50" validate:"gte=1,lte=500"`
}

type UniverseRequest struct {
	Category string `query:"category" json:"category" validate:"omitempty,oneof=Negative Low Medium High"`
	Limit    int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=1000"`
}

type HistoryRequest struct {
	Ticker string `query:"ticker" json:"ticker" validate:"required,min=1,max=8,uppercase"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
	Limit  int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=10000"`
}
