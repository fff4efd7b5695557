package edge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polyedge/internal/domain"
)

var rankNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestRanker(cfg Config) *Ranker {
	r := NewRanker(cfg)
	r.now = func() time.Time { return rankNow }
	return r
}

func market(id string, yes float64, until time.Duration) domain.Market {
	return domain.Market{
		ID:       id,
		Question: "Will " + id + " resolve YES?",
		Category: domain.CategoryGeneric,
		YesPrice: yes,
		NoPrice:  1 - yes,
		EndDate:  rankNow.Add(until),
	}
}

func estimate(id string, prob, conf float64) domain.ProbabilityEstimate {
	return domain.ProbabilityEstimate{MarketID: id, Probability: prob, Confidence: conf, Model: "test"}
}

func TestBuildCandidatePicksBestSide(t *testing.T) {
	r := newTestRanker(Config{})
	m := market("m1", 0.50, 30*24*time.Hour)

	// Prob 0.60 contra precio YES 0.50: el lado YES tiene EV +0.10.
	c := r.BuildCandidate(m, estimate("m1", 0.60, 0.5))
	assert.Equal(t, domain.SideBuyYes, c.Side)
	assert.InDelta(t, 0.50, c.MarketPrice, 1e-9)
	assert.InDelta(t, 0.10, c.EV, 1e-9)

	// Prob 0.35: el lado NO gana (0.65 contra precio NO 0.50, EV +0.15).
	c = r.BuildCandidate(m, estimate("m1", 0.35, 0.5))
	assert.Equal(t, domain.SideSellYes, c.Side)
	assert.InDelta(t, 0.65, c.Probability, 1e-9)
	assert.InDelta(t, 0.15, c.EV, 1e-9)
}

func TestRankFiltersBelowMinEV(t *testing.T) {
	r := newTestRanker(Config{MinEV: 0.05})
	markets := map[string]domain.Market{
		"big":   market("big", 0.50, 30*24*time.Hour),
		"small": market("small", 0.50, 30*24*time.Hour),
	}
	candidates := []domain.EdgeCandidate{
		r.BuildCandidate(markets["big"], estimate("big", 0.60, 0.5)),
		r.BuildCandidate(markets["small"], estimate("small", 0.53, 0.5)),
	}

	ranked := r.Rank(candidates, markets)
	require.Len(t, ranked, 1)
	assert.Equal(t, "big", ranked[0].MarketID)
}

func TestRankOrdersByScoreDesc(t *testing.T) {
	r := newTestRanker(Config{MinEV: 0.01})
	markets := map[string]domain.Market{
		"a": market("a", 0.50, 30*24*time.Hour),
		"b": market("b", 0.50, 30*24*time.Hour),
		"c": market("c", 0.50, 30*24*time.Hour),
	}
	candidates := []domain.EdgeCandidate{
		r.BuildCandidate(markets["a"], estimate("a", 0.55, 0.5)),
		r.BuildCandidate(markets["b"], estimate("b", 0.65, 0.5)),
		r.BuildCandidate(markets["c"], estimate("c", 0.60, 0.5)),
	}

	ranked := r.Rank(candidates, markets)
	require.Len(t, ranked, 3)
	assert.Equal(t, []string{"b", "c", "a"}, []string{ranked[0].MarketID, ranked[1].MarketID, ranked[2].MarketID})
}

func TestRankPenalizesNearResolution(t *testing.T) {
	cfg := Config{
		MinEV:                0.01,
		NearResolutionWindow: 24 * time.Hour,
		MaxPenalty:           0.05,
	}
	r := newTestRanker(cfg)

	// Mismo EV bruto: el mercado a 5 días queda fuera de la ventana y gana
	// al que resuelve en 2 horas, que come casi toda la penalización.
	markets := map[string]domain.Market{
		"far":  market("far", 0.50, 5*24*time.Hour),
		"near": market("near", 0.50, 2*time.Hour),
	}
	candidates := []domain.EdgeCandidate{
		r.BuildCandidate(markets["near"], estimate("near", 0.60, 0.5)),
		r.BuildCandidate(markets["far"], estimate("far", 0.60, 0.5)),
	}

	ranked := r.Rank(candidates, markets)
	require.Len(t, ranked, 2)
	assert.Equal(t, "far", ranked[0].MarketID)
	assert.Zero(t, ranked[0].Penalty)
	assert.Greater(t, ranked[1].Penalty, 0.04)
	assert.InDelta(t, ranked[1].EV-ranked[1].Penalty, ranked[1].Score, 1e-9)
}

func TestRankTieBreaksByConfidenceThenTime(t *testing.T) {
	r := newTestRanker(Config{MinEV: 0.01})
	markets := map[string]domain.Market{
		"lowconf":  market("lowconf", 0.50, 30*24*time.Hour),
		"highconf": market("highconf", 0.50, 30*24*time.Hour),
		"sooner":   market("sooner", 0.50, 10*24*time.Hour),
	}
	candidates := []domain.EdgeCandidate{
		r.BuildCandidate(markets["lowconf"], estimate("lowconf", 0.60, 0.3)),
		r.BuildCandidate(markets["highconf"], estimate("highconf", 0.60, 0.7)),
		r.BuildCandidate(markets["sooner"], estimate("sooner", 0.60, 0.3)),
	}

	ranked := r.Rank(candidates, markets)
	require.Len(t, ranked, 3)
	assert.Equal(t, "highconf", ranked[0].MarketID)
	assert.Equal(t, "sooner", ranked[1].MarketID, "a igualdad de score y confianza gana el que resuelve antes")
	assert.Equal(t, "lowconf", ranked[2].MarketID)
}

func TestRankDeterministicAcrossPermutations(t *testing.T) {
	r := newTestRanker(Config{MinEV: 0.01})
	markets := map[string]domain.Market{
		"a": market("a", 0.40, 30*24*time.Hour),
		"b": market("b", 0.50, 20*24*time.Hour),
		"c": market("c", 0.60, 10*24*time.Hour),
	}
	base := []domain.EdgeCandidate{
		r.BuildCandidate(markets["a"], estimate("a", 0.50, 0.4)),
		r.BuildCandidate(markets["b"], estimate("b", 0.60, 0.5)),
		r.BuildCandidate(markets["c"], estimate("c", 0.70, 0.6)),
	}

	want := r.Rank(base, markets)
	perm := []domain.EdgeCandidate{base[2], base[0], base[1]}
	assert.Equal(t, want, r.Rank(perm, markets))
}

func TestRankSkipsVanishedMarkets(t *testing.T) {
	r := newTestRanker(Config{MinEV: 0.01})
	m := market("here", 0.50, 30*24*time.Hour)
	markets := map[string]domain.Market{"here": m}

	gone := r.BuildCandidate(market("gone", 0.50, 30*24*time.Hour), estimate("gone", 0.70, 0.5))
	candidates := []domain.EdgeCandidate{gone, r.BuildCandidate(m, estimate("here", 0.60, 0.5))}

	ranked := r.Rank(candidates, markets)
	require.Len(t, ranked, 1)
	assert.Equal(t, "here", ranked[0].MarketID)
}
