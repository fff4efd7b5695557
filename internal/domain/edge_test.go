package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExpectedValue_PositiveEdge(t *testing.T) {
	// prob 0.40 sobre precio 0.30 → EV +0.10 por unidad
	assert.InDelta(t, 0.10, ExpectedValue(0.40, 0.30), 0.0001)
}

func TestExpectedValue_NegativeEdge(t *testing.T) {
	assert.Less(t, ExpectedValue(0.25, 0.30), 0.0)
}

// --- NetOdds ---

func TestNetOdds_EvenMoney(t *testing.T) {
	// precio 0.50 → apuestas 0.50 para ganar 0.50 → b = 1.0
	assert.InDelta(t, 1.0, NetOdds(0.50), 0.0001)
}

func TestNetOdds_Longshot(t *testing.T) {
	assert.InDelta(t, 9.0, NetOdds(0.10), 0.0001)
}

func TestNetOdds_InvalidPrices(t *testing.T) {
	assert.Equal(t, 0.0, NetOdds(0))
	assert.Equal(t, 0.0, NetOdds(1))
	assert.Equal(t, 0.0, NetOdds(-0.2))
}

// --- KellyFraction ---

func TestKellyFraction_WorkedExample(t *testing.T) {
	// p=0.6 a precio 0.50 (b=1.0, even money) → f* = (0.6×1 − 0.4)/1 = 0.2
	assert.InDelta(t, 0.20, KellyFraction(0.60, 0.50), 0.0001)
}

func TestKellyFraction_NoEdge(t *testing.T) {
	// p igual al precio → f* = 0
	assert.InDelta(t, 0.0, KellyFraction(0.50, 0.50), 0.0001)
}

func TestKellyFraction_NegativeEdge(t *testing.T) {
	assert.Less(t, KellyFraction(0.40, 0.50), 0.0)
}

// --- LongshotShrink ---

func TestLongshotShrink_DeepLongshot(t *testing.T) {
	// Por debajo de 0.08 el shrink es el máximo (×0.45)
	assert.InDelta(t, 0.05*0.45, LongshotShrink(0.05), 0.0001)
}

func TestLongshotShrink_MidBandUnchanged(t *testing.T) {
	for _, p := range []float64{0.30, 0.40, 0.50, 0.65, 0.70} {
		assert.Equal(t, p, LongshotShrink(p), "p=%v", p)
	}
}

func TestLongshotShrink_NeverIncreases(t *testing.T) {
	for p := 0.01; p < 1.0; p += 0.01 {
		assert.LessOrEqual(t, LongshotShrink(p), p, "p=%v", p)
	}
}

func TestLongshotShrink_MonotonicInInput(t *testing.T) {
	prev := 0.0
	for p := 0.01; p < 0.35; p += 0.005 {
		got := LongshotShrink(p)
		assert.GreaterOrEqual(t, got, prev, "p=%v", p)
		prev = got
	}
}

// --- NearResolutionPenalty ---

func TestNearResolutionPenalty_OutsideWindow(t *testing.T) {
	p := NearResolutionPenalty(5*24*time.Hour, 48*time.Hour, 0.05)
	assert.Equal(t, 0.0, p)
}

func TestNearResolutionPenalty_GrowsTowardDeadline(t *testing.T) {
	window := 48 * time.Hour
	far := NearResolutionPenalty(24*time.Hour, window, 0.05)
	near := NearResolutionPenalty(2*time.Hour, window, 0.05)
	assert.Greater(t, near, far)
	assert.InDelta(t, 0.025, far, 0.0001) // mitad de la ventana → mitad del máximo
}

func TestNearResolutionPenalty_NeverNegative(t *testing.T) {
	for h := 0; h < 100; h++ {
		p := NearResolutionPenalty(time.Duration(h)*time.Hour, 48*time.Hour, 0.05)
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 0.05)
	}
}

func TestNearResolutionPenalty_AtDeadlineIsMax(t *testing.T) {
	assert.InDelta(t, 0.05, NearResolutionPenalty(0, 48*time.Hour, 0.05), 0.0001)
}

// --- SettlePnL ---

func TestSettlePnL_Win(t *testing.T) {
	// $100 a precio 0.50 → 200 shares → payout $200 → profit $100
	assert.InDelta(t, 100.0, SettlePnL(true, 100, 0.50), 0.0001)
}

func TestSettlePnL_Loss(t *testing.T) {
	assert.Equal(t, -100.0, SettlePnL(false, 100, 0.50))
}

// --- CalibrationBucket ---

func TestCalibrationBucket_Deciles(t *testing.T) {
	assert.Equal(t, 0, CalibrationBucket(0.05))
	assert.Equal(t, 3, CalibrationBucket(0.35))
	assert.Equal(t, 9, CalibrationBucket(0.95))
	assert.Equal(t, 9, CalibrationBucket(1.0))
}
