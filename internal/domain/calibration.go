package domain

// CalibrationRecord registra predicción vs. resultado de una apuesta resuelta.
// Append-only: nunca se muta después de la resolución.
type CalibrationRecord struct {
	BetID     string
	Model     string
	Predicted float64 // probabilidad estimada del lado tomado
	Outcome   int     // 1 si el lado tomado ganó, 0 si no
	Stake     float64
	PnL       float64
	Bucket    int // decil de la probabilidad predicha, 0-9
}

// CalibrationBucket asigna una probabilidad a su decil.
func CalibrationBucket(p float64) int {
	if p < 0 {
		return 0
	}
	b := int(p * 10)
	if b > 9 {
		b = 9
	}
	return b
}

// BucketStat es la precisión agregada de un decil de predicciones.
type BucketStat struct {
	PredictedMean float64
	RealizedRate  float64 // suavizada con Laplace para counts pequeños
	Count         int
}

// ModelStat es el desempeño agregado de un modelo de probabilidad.
type ModelStat struct {
	Count            int
	PredictedMean    float64
	RealizedRate     float64
	CalibrationError float64 // |PredictedMean − RealizedRate|
}

// CalibrationReport agrega la calidad de calibración y el ROI del sistema.
type CalibrationReport struct {
	Buckets    map[int]BucketStat
	PerModel   map[string]ModelStat
	SampleSize int
	WinRate    float64
	OverallROI float64 // P&L total / capital apostado total
	TotalPnL   float64
}
