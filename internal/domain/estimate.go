package domain

// ProbabilityEstimate es la estimación de probabilidad "real" de un mercado
// producida por uno de los modelos. Vive solo dentro del ciclo de decisión,
// salvo que quede adjunta a un Bet.
type ProbabilityEstimate struct {
	MarketID    string
	Probability float64 // estimación de P(YES) ∈ [0,1]
	Confidence  float64 // peso de confianza ∈ (0,1]
	Model       string  // nombre del modelo que la produjo
	Reasoning   string  // explicación legible, va en alertas y en el Bet
}
