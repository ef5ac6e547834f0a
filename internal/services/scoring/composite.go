package scoring

import (
	domsvc "stockscout/internal/domain/service"

	"stockscout/internal/domain/models"
)

// Component weights. They sum to 1.
const (
	weightGrowth    = 0.20
	weightAlignment = 0.20
	weightMargins   = 0.10
	weightFinancial = 0.15
	weightInsider   = 0.15
	weightMomentum  = 0.10
	weightVolume    = 0.10
)

// CompositeScorer folds the seven component scores into a single
// weighted score and maps it to a rating band.
type CompositeScorer struct{}

func NewCompositeScorer() *CompositeScorer { return &CompositeScorer{} }

func (s *CompositeScorer) Composite(c models.ComponentScores) float64 {
	return weightGrowth*c.Growth +
		weightAlignment*c.ValueAlignment +
		weightMargins*c.Margins +
		weightFinancial*c.FinancialHealth +
		weightInsider*c.InsiderConfidence +
		weightMomentum*c.Momentum +
		weightVolume*c.VolumeTrends
}

func (s *CompositeScorer) Rate(score float64) string {
	switch {
	case score >= 90:
		return models.RatingStrongBuy
	case score >= 80:
		return models.RatingBuy
	case score >= 70:
		return models.RatingAccumulate
	case score >= 60:
		return models.RatingHold
	case score >= 50:
		return models.RatingReduce
	default:
		return models.RatingSell
	}
}

var _ domsvc.CompositeScorer = (*CompositeScorer)(nil)
