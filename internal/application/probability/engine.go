package probability

import (
	"errors"
	"fmt"
	"time"

	"github.com/alejandrodnm/polyedge/internal/domain"
)

// Errores de la capa de probabilidad. Todos se recuperan saltando el mercado
// durante el ciclo; nunca abortan el ciclo completo.
var (
	ErrModelInapplicable = errors.New("no applicable probability model")
	ErrInvalidHorizon    = errors.New("non-positive time to expiry")
	ErrInvalidVolatility = errors.New("non-positive volatility")
)

// Model es un estimador de probabilidad para un conjunto de categorías.
// Los modelos son funciones puras de sus inputs más constantes de calibración.
type Model interface {
	Name() string
	Applicable(cat domain.Category) bool
	Estimate(m domain.Market, now time.Time) (domain.ProbabilityEstimate, error)
}

// Config contiene los parámetros de calibración de los modelos.
type Config struct {
	// CryptoSpotDefault es el spot a usar si el mercado no trae el suyo.
	CryptoSpotDefault float64
	// MacroStaleAfter: a partir de esta edad del forecast la confianza decae.
	MacroStaleAfter time.Duration
}

// Engine despacha cada mercado al primer modelo aplicable por categoría.
// El set de modelos es un enum cerrado: LongshotBias, Macro, CryptoVol y el
// fallback genérico (longshot aplicado sin restricción de categoría).
type Engine struct {
	models   []Model
	fallback Model
	weights  map[string]float64 // multiplicadores de confianza por modelo
}

// NewEngine crea el engine con los modelos estándar en orden de despacho.
func NewEngine(cfg Config) *Engine {
	longshot := &LongshotModel{}
	return &Engine{
		models: []Model{
			&CryptoVolModel{SpotDefault: cfg.CryptoSpotDefault},
			&MacroModel{StaleAfter: cfg.MacroStaleAfter},
			longshot,
		},
		fallback: longshot,
		weights:  map[string]float64{},
	}
}

// SetModelWeights instala los multiplicadores de confianza que vienen del
// loop de calibración. Pesos ausentes equivalen a 1.0.
func (e *Engine) SetModelWeights(w map[string]float64) {
	if w == nil {
		w = map[string]float64{}
	}
	e.weights = w
}

// Estimate devuelve la estimación del primer modelo aplicable a la categoría
// del mercado, con la confianza ajustada por el feedback de calibración.
func (e *Engine) Estimate(m domain.Market, now time.Time) (domain.ProbabilityEstimate, error) {
	model := e.fallback
	for _, candidate := range e.models {
		if candidate.Applicable(m.Category) {
			model = candidate
			break
		}
	}

	est, err := model.Estimate(m, now)
	if err != nil {
		return domain.ProbabilityEstimate{}, fmt.Errorf("probability.Estimate: market %s: %w", m.ID, err)
	}

	if w, ok := e.weights[est.Model]; ok && w > 0 {
		est.Confidence = clamp(est.Confidence*w, 0.01, 1.0)
	}
	return est, nil
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
