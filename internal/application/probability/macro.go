package probability

import (
	"fmt"
	"strings"
	"time"

	"github.com/alejandrodnm/polyedge/internal/domain"
)

// Peso del ajuste por indicador frente al prior de base rate.
const macroIndicatorWeight = 0.6

// macroPrior es el prior de base rate para una clase de pregunta macro.
type macroPrior struct {
	keywords []string
	prob     float64
	conf     float64
	note     string
}

// Priors calibrados al régimen actual: Fed en pausa, inflación pegajosa.
var macroPriors = []macroPrior{
	{[]string{"rate cut", "cut rates"}, 0.15, 0.65, "Fed hawkish, cuts unlikely near term"},
	{[]string{"rate hike", "hike"}, 0.05, 0.75, "hiking cycle over, hike prob near zero"},
	{[]string{"recession"}, 0.30, 0.50, "re-steepened curve, elevated 6-18m recession risk"},
	{[]string{"cpi", "inflation"}, 0.45, 0.45, "CPI surprises near coin-flip, slight miss bias"},
}

// MacroModel combina un prior de base rate con la distancia del forecast al
// umbral del mercado, medida en desviaciones de sorpresa históricas y pasada
// por la CDF normal. Devuelve siempre una probabilidad, nunca un score crudo.
type MacroModel struct {
	// StaleAfter: edad del forecast a partir de la cual la confianza decae.
	StaleAfter time.Duration
}

func (mm *MacroModel) Name() string { return "macro" }

func (mm *MacroModel) Applicable(cat domain.Category) bool {
	return cat == domain.CategoryMacro
}

func (mm *MacroModel) Estimate(m domain.Market, _ time.Time) (domain.ProbabilityEstimate, error) {
	prior, conf, note, matched := mm.priorFor(m.Question)
	if !matched {
		// Sin view propia la mejor estimación es el precio del mercado.
		prior = m.ImpliedProbability()
	}

	prob := prior
	reasoning := note
	if m.SurpriseStdDev > 0 {
		// Ajuste cerrado: z = distancia del forecast al umbral en unidades
		// de sorpresa histórica; el indicador empuja el prior vía Φ(z).
		z := (m.Forecast - m.Threshold) / m.SurpriseStdDev
		indicator := normCDF(z)
		prob = macroIndicatorWeight*indicator + (1-macroIndicatorWeight)*prior
		reasoning = fmt.Sprintf("%s; forecast z=%.2f vs threshold → indicator %.1f%%", note, z, indicator*100)
	}

	conf = conf * mm.stalenessFactor(m.ForecastAge)
	prob = clamp(prob, 0.02, 0.98)

	return domain.ProbabilityEstimate{
		MarketID:    m.ID,
		Probability: prob,
		Confidence:  clamp(conf, 0.05, 1.0),
		Model:       mm.Name(),
		Reasoning:   reasoning,
	}, nil
}

// priorFor busca la clase de pregunta; sin match, el prior es el precio del
// propio mercado con confianza baja (sin view fuerte, confiar en el mercado).
func (mm *MacroModel) priorFor(question string) (prob, conf float64, note string, matched bool) {
	q := strings.ToLower(question)
	for _, p := range macroPriors {
		for _, kw := range p.keywords {
			if strings.Contains(q, kw) {
				return p.prob, p.conf, p.note, true
			}
		}
	}
	return 0.5, 0.25, "no macro prior for question class", false
}

// stalenessFactor reduce la confianza cuando el forecast que alimenta el
// modelo es viejo. Factor 1.0 hasta StaleAfter, decae hacia 0.5 después.
func (mm *MacroModel) stalenessFactor(age time.Duration) float64 {
	if mm.StaleAfter <= 0 || age <= mm.StaleAfter {
		return 1.0
	}
	excess := age.Hours() / mm.StaleAfter.Hours()
	return clamp(1.0/excess, 0.5, 1.0)
}
