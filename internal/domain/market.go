package domain

import "time"

// Category clasifica un mercado según el modelo de probabilidad que le aplica.
type Category string

const (
	CategoryMacro          Category = "macro"
	CategoryCrypto         Category = "crypto"
	CategoryLongshot       Category = "longshot"
	CategoryNearResolution Category = "near-resolution"
	CategoryGeneric        Category = "generic"
)

// Market es el snapshot inmutable de un mercado binario en un ciclo de scan.
// Nunca se muta: el siguiente ciclo lo reemplaza por un snapshot nuevo.
type Market struct {
	ID        string // condition ID, estable entre ciclos
	Question  string
	Category  Category
	YesPrice  float64 // probabilidad implícita del mercado (precio YES)
	NoPrice   float64
	Volume24h float64 // volumen últimas 24h en USDC
	Liquidity float64 // liquidez actual en USDC
	EndDate   time.Time

	// Token IDs del CLOB para cada lado del binario; vacíos en paper mode.
	YesTokenID string
	NoTokenID  string

	// Parámetros para el modelo crypto (opción binaria sobre precio).
	SpotPrice   float64
	TargetPrice float64
	AnnualVol   float64 // vol anualizada; 0 = usar term structure por defecto
	TargetAbove bool    // true si la pregunta es "above/over", false si "below"

	// Parámetros para el modelo macro.
	Forecast       float64
	Threshold      float64
	SurpriseStdDev float64 // desviación histórica de sorpresas del indicador
	ForecastAge    time.Duration

	Resolved bool
	Outcome  string // "YES" | "NO" cuando Resolved
}

// TimeToResolution devuelve el tiempo hasta la resolución del mercado.
// Devuelve 0 si EndDate no está definido o ya pasó.
func (m Market) TimeToResolution(now time.Time) time.Duration {
	if m.EndDate.IsZero() {
		return 0
	}
	d := m.EndDate.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// DaysToResolution devuelve los días hasta la resolución.
func (m Market) DaysToResolution(now time.Time) float64 {
	return m.TimeToResolution(now).Hours() / 24
}

// ImpliedProbability devuelve la probabilidad implícita de YES según el mercado.
func (m Market) ImpliedProbability() float64 {
	return m.YesPrice
}

// TruncateQuestion devuelve la pregunta truncada a maxLen caracteres.
// Si la pregunta está vacía usa los primeros caracteres del ID como fallback.
func TruncateQuestion(question, id string, maxLen int) string {
	q := question
	if q == "" {
		if len(id) > 20 {
			q = id[:20] + "..."
		} else {
			q = id
		}
	}
	if len(q) > maxLen {
		q = q[:maxLen-3] + "..."
	}
	return q
}
