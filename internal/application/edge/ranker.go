package edge

import (
	"sort"
	"time"

	"github.com/alejandrodnm/polyedge/internal/domain"
)

// Config son los parámetros de filtrado y penalización del ranker.
type Config struct {
	// MinEV: score mínimo (EV neto de penalización) para ser candidato.
	MinEV float64
	// NearResolutionWindow: dentro de esta ventana el EV se penaliza.
	NearResolutionWindow time.Duration
	// MaxPenalty: penalización máxima, aplicada justo en el deadline.
	MaxPenalty float64
}

// Ranker convierte estimaciones de probabilidad en candidatos de apuesta
// ordenados por score. Es puro salvo por el reloj, inyectable para tests.
type Ranker struct {
	cfg Config
	now func() time.Time
}

func NewRanker(cfg Config) *Ranker {
	return &Ranker{cfg: cfg, now: time.Now}
}

// BuildCandidate construye el candidato por el lado con mayor EV. Comprar
// YES apuesta a que la prob real supera el precio YES; comprar NO (vender
// YES) apuesta al complemento contra el precio NO.
func (r *Ranker) BuildCandidate(m domain.Market, est domain.ProbabilityEstimate) domain.EdgeCandidate {
	evYes := domain.ExpectedValue(est.Probability, m.YesPrice)
	evNo := domain.ExpectedValue(1-est.Probability, m.NoPrice)

	c := domain.EdgeCandidate{
		MarketID:   m.ID,
		Question:   m.Question,
		Category:   m.Category,
		Model:      est.Model,
		Confidence: est.Confidence,
		Reasoning:  est.Reasoning,
		Liquidity:  m.Liquidity,
	}
	if evYes >= evNo {
		c.Side = domain.SideBuyYes
		c.MarketPrice = m.YesPrice
		c.Probability = est.Probability
		c.EV = evYes
		c.TokenID = m.YesTokenID
	} else {
		c.Side = domain.SideSellYes
		c.MarketPrice = m.NoPrice
		c.Probability = 1 - est.Probability
		c.EV = evNo
		c.TokenID = m.NoTokenID
	}
	return c
}

// Rank calcula penalización y score de cada candidato, descarta los que no
// superan MinEV y devuelve el resto ordenado de mejor a peor. El orden es
// determinista: score desc, confianza desc, tiempo a resolución asc.
func (r *Ranker) Rank(candidates []domain.EdgeCandidate, markets map[string]domain.Market) []domain.EdgeCandidate {
	now := r.now()
	ranked := make([]domain.EdgeCandidate, 0, len(candidates))
	for _, c := range candidates {
		m, ok := markets[c.MarketID]
		if !ok {
			continue
		}
		c.TimeToResolution = m.TimeToResolution(now)
		c.Penalty = domain.NearResolutionPenalty(c.TimeToResolution, r.cfg.NearResolutionWindow, r.cfg.MaxPenalty)
		c.Score = c.EV - c.Penalty
		if c.Score < r.cfg.MinEV {
			continue
		}
		ranked = append(ranked, c)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		return a.TimeToResolution < b.TimeToResolution
	})
	return ranked
}
