package scoring

import (
	domsvc "stockscout/internal/domain/service"

	"stockscout/internal/domain/models"
)

// HealthScorer scores balance-sheet strength and ownership confidence.
type HealthScorer struct{}

func NewHealthScorer() *HealthScorer { return &HealthScorer{} }

func (s *HealthScorer) Score(f *models.Fundamentals) (financial, insider float64) {
	debt := f.TotalDebt
	if debt < 1 {
		debt = 1
	}
	cashToDebt := f.TotalCash / debt

	financial = clamp(
		30*minF(2, f.CurrentRatio) +
			40*minF(1, cashToDebt) +
			30*(1-minF(1, f.DebtToEquity/100)))

	// 20% insider and 70% institutional ownership each max out their half.
	insider = clamp(
		50*minF(1, f.InsiderPct/20) +
			50*minF(1, f.InstitutionPct/70))

	return financial, insider
}

// CashToDebt exposes the ratio used in the financial score for reporting.
func (s *HealthScorer) CashToDebt(f *models.Fundamentals) float64 {
	debt := f.TotalDebt
	if debt < 1 {
		debt = 1
	}
	return f.TotalCash / debt
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

var _ domsvc.HealthScorer = (*HealthScorer)(nil)
