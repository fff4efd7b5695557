package domain

import "time"

// Side es el lado tomado sobre el token YES de un mercado binario.
type Side string

const (
	SideBuyYes  Side = "BUY_YES"  // compras YES a YesPrice
	SideSellYes Side = "SELL_YES" // vendes YES comprando NO a NoPrice
)

// EdgeCandidate es una oportunidad candidata: un mercado, un lado y su EV.
// Efímero: se recalcula en cada ciclo desde el snapshot fresco y nunca debe
// dimensionarse ni ejecutarse con datos de un ciclo anterior.
type EdgeCandidate struct {
	MarketID    string
	Question    string
	Category    Category
	Side        Side
	MarketPrice float64 // precio del lado tomado
	Probability float64 // probabilidad estimada de que el lado tomado gane
	Confidence  float64
	Model       string
	Reasoning   string
	Liquidity   float64
	TokenID     string // token del CLOB del lado tomado; vacío en paper mode

	EV               float64       // EV bruto antes del descuento near-resolution
	Penalty          float64       // descuento aplicado por cercanía a resolución
	Score            float64       // EV − Penalty; criterio de ranking
	TimeToResolution time.Duration
}

// Wins devuelve true si el outcome dado ("YES"/"NO") hace ganar este lado.
func (c EdgeCandidate) Wins(outcome string) bool {
	if c.Side == SideBuyYes {
		return outcome == "YES"
	}
	return outcome == "NO"
}
