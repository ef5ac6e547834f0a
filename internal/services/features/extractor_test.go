package features

import (
	"math"
	"testing"

	"stockscout/internal/domain/models"
)

func barsWithCloses(closes ...float64) []models.PriceBar {
	bars := make([]models.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = models.PriceBar{Close: c, Volume: 1000}
	}
	return bars
}

func TestSMA(t *testing.T) {
	bars := barsWithCloses(10, 20, 30, 40)

	if got := SMA(bars, 2); got != 35 {
		t.Errorf("SMA(2) = %v, want 35", got)
	}
	if got := SMA(bars, 4); got != 25 {
		t.Errorf("SMA(4) = %v, want 25", got)
	}
	if got := SMA(bars, 5); got != 0 {
		t.Errorf("SMA(5) with 4 bars = %v, want 0", got)
	}
}

func TestVolumeTrend(t *testing.T) {
	bars := make([]models.PriceBar, 70)
	for i := range bars {
		bars[i].Volume = 100
	}
	// last 20 bars double the volume
	for i := 50; i < 70; i++ {
		bars[i].Volume = 200
	}

	got := VolumeTrend(bars, 20, 30)
	if math.Abs(got-2) > 1e-9 {
		t.Errorf("VolumeTrend = %v, want 2", got)
	}
}

func TestVolumeTrendInsufficientBars(t *testing.T) {
	bars := make([]models.PriceBar, 10)
	if got := VolumeTrend(bars, 20, 30); got != 1 {
		t.Errorf("VolumeTrend = %v, want neutral 1", got)
	}
}

func TestPercentAbove(t *testing.T) {
	if got := PercentAbove(110, 100); math.Abs(got-10) > 1e-9 {
		t.Errorf("PercentAbove = %v, want 10", got)
	}
	if got := PercentAbove(110, 0); got != 0 {
		t.Errorf("PercentAbove with zero reference = %v, want 0", got)
	}
}
