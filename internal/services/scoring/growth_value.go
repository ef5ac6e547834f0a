// Package scoring implements the component scorers behind the composite
// screen: growth/value alignment, business health, and market validation.
package scoring

import (
	domsvc "stockscout/internal/domain/service"

	"stockscout/internal/domain/models"
)

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// GrowthValueScorer scores revenue growth, value-growth alignment and
// gross margins from a fundamentals snapshot.
type GrowthValueScorer struct{}

func NewGrowthValueScorer() *GrowthValueScorer { return &GrowthValueScorer{} }

func (s *GrowthValueScorer) Score(f *models.Fundamentals) (growth, alignment, margins float64) {
	growth = clamp(f.RevenueGrowth * 2)

	// A P/S ratio of half the growth rate is considered fully justified.
	justifiedPS := f.RevenueGrowth * 0.5
	ps := f.PSRatio
	if ps < 1 {
		ps = 1
	}
	alignment = clamp(100 * justifiedPS / ps)

	margins = clamp(f.GrossMargin * 1.25)
	return growth, alignment, margins
}

var _ domsvc.GrowthValueScorer = (*GrowthValueScorer)(nil)
