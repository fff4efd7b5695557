package probability

import (
	"fmt"
	"time"

	"github.com/alejandrodnm/polyedge/internal/domain"
)

// LongshotModel corrige sesgos conductuales conocidos del precio de mercado:
// sobreprecio de longshots (favorite-longshot bias), infraprecio de favoritos
// extremos y reversión a favorito cerca de resolución. No genera una view
// propia; parte del precio implícito y aplica correcciones cerradas.
type LongshotModel struct{}

func (lm *LongshotModel) Name() string { return "longshot-bias" }

// Applicable: es el modelo catch-all; cubre todo lo que no tiene modelo
// estructural propio.
func (lm *LongshotModel) Applicable(cat domain.Category) bool {
	switch cat {
	case domain.CategoryLongshot, domain.CategoryNearResolution, domain.CategoryGeneric:
		return true
	}
	return false
}

func (lm *LongshotModel) Estimate(m domain.Market, now time.Time) (domain.ProbabilityEstimate, error) {
	implied := m.ImpliedProbability()
	prob := implied
	conf := 0.20
	reasoning := "market price taken at face value"

	switch {
	case implied < 0.30:
		shrink := domain.LongshotShrink(implied)
		prob = shrink
		switch {
		case implied < 0.08:
			conf = 0.65
		case shrink < implied:
			conf = 0.40
		default:
			conf = 0.20
		}
		reasoning = fmt.Sprintf("longshot bias: implied %.1f%% shrunk to %.1f%%", implied*100, prob*100)

	case implied > 0.92:
		// Favoritos extremos suelen cotizar por debajo de su probabilidad
		// real: el último céntimo es caro de comprar y nadie lo empuja.
		prob = min(0.98, implied*1.03)
		conf = 0.55
		reasoning = fmt.Sprintf("heavy favorite: implied %.1f%% lifted to %.1f%%", implied*100, prob*100)
	}

	days := m.DaysToResolution(now)
	if days >= 0 && days <= 3 && implied > 0.85 && implied <= 0.92 {
		// Cerca de resolución el precio de un favorito tiende a quedarse
		// corto frente al desenlace más probable.
		prob = min(0.98, prob+0.04)
		conf = 0.60
		reasoning = fmt.Sprintf("near resolution (%.1fd): favorite %.1f%% nudged to %.1f%%", days, implied*100, prob*100)
	}

	return domain.ProbabilityEstimate{
		MarketID:    m.ID,
		Probability: clamp(prob, 0.01, 0.99),
		Confidence:  conf,
		Model:       lm.Name(),
		Reasoning:   reasoning,
	}, nil
}
