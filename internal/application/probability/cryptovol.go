package probability

import (
	"fmt"
	"math"
	"time"

	"github.com/alejandrodnm/polyedge/internal/domain"
)

// CryptoVolModel precia mercados "Will BTC be above $X by date Y?" como una
// opción binaria bajo log-normal con drift 0 (risk-neutral):
//
//	d2 = (ln(S/K) − σ²T/2) / (σ√T)
//	P(S_T > K) = Φ(d2)
//
// S = spot actual, K = target, T = tiempo a expiry en años, σ = vol anualizada.
type CryptoVolModel struct {
	// SpotDefault se usa si el snapshot del mercado no trae spot propio.
	SpotDefault float64
}

func (c *CryptoVolModel) Name() string { return "crypto-vol" }

func (c *CryptoVolModel) Applicable(cat domain.Category) bool {
	return cat == domain.CategoryCrypto
}

func (c *CryptoVolModel) Estimate(m domain.Market, now time.Time) (domain.ProbabilityEstimate, error) {
	spot := m.SpotPrice
	if spot <= 0 {
		spot = c.SpotDefault
	}
	if spot <= 0 || m.TargetPrice <= 0 {
		return domain.ProbabilityEstimate{}, fmt.Errorf("market without spot/target: %w", ErrModelInapplicable)
	}

	days := m.DaysToResolution(now)
	years := days / 365.0
	if years <= 0 {
		return domain.ProbabilityEstimate{}, ErrInvalidHorizon
	}

	vol := m.AnnualVol
	if vol == 0 {
		vol = termVol(days)
	}
	if vol <= 0 {
		return domain.ProbabilityEstimate{}, ErrInvalidVolatility
	}

	volT := vol * math.Sqrt(years)
	d2 := (math.Log(spot/m.TargetPrice) - 0.5*vol*vol*years) / volT

	probAbove := normCDF(d2)
	prob := probAbove
	if !m.TargetAbove {
		prob = 1 - probAbove
	}
	prob = clamp(prob, 0.01, 0.99)

	// La confianza decae con la distancia del movimiento requerido: un
	// |z| grande extrapola lejos del rango calibrado de la term structure.
	conf := clamp(0.6/(1+0.15*math.Abs(d2)), 0.20, 0.60)

	direction := "below"
	if m.TargetAbove {
		direction = "above"
	}
	return domain.ProbabilityEstimate{
		MarketID:    m.ID,
		Probability: prob,
		Confidence:  conf,
		Model:       c.Name(),
		Reasoning: fmt.Sprintf(
			"spot $%.0f, target $%.0f (%s), %.0fd window, vol %.0f%% ann, z=%.2f → P=%.1f%%",
			spot, m.TargetPrice, direction, days, vol*100, d2, prob*100),
	}, nil
}
