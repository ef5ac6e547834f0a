package features

import (
	"stockscout/internal/domain/models"
)

// SMA computes the simple moving average of the last `window` closes.
// Returns 0 if there are fewer bars than the window.
func SMA(bars []models.PriceBar, window int) float64 {
	if window <= 0 || len(bars) < window {
		return 0
	}
	sum := 0.0
	for i := len(bars) - window; i < len(bars); i++ {
		sum += bars[i].Close
	}
	return sum / float64(window)
}

// VolumeTrend compares recent average volume (last `recent` bars) against
// the prior average (the `prior` bars before them). Returns 1 when the
// prior window is empty or has zero volume.
func VolumeTrend(bars []models.PriceBar, recent, prior int) float64 {
	if recent <= 0 || prior <= 0 || len(bars) < recent+prior {
		return 1
	}

	recentSum := 0.0
	for i := len(bars) - recent; i < len(bars); i++ {
		recentSum += bars[i].Volume
	}
	priorSum := 0.0
	for i := len(bars) - recent - prior; i < len(bars)-recent; i++ {
		priorSum += bars[i].Volume
	}

	priorMean := priorSum / float64(prior)
	if priorMean <= 0 {
		return 1
	}
	return (recentSum / float64(recent)) / priorMean
}

// PercentAbove returns how far `price` sits above `reference`, in percent.
// Returns 0 when the reference is not positive.
func PercentAbove(price, reference float64) float64 {
	if reference <= 0 {
		return 0
	}
	return (price/reference - 1) * 100
}
