package calibration

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/alejandrodnm/polyedge/internal/domain"
)

var (
	ErrInsufficientSample = errors.New("calibration sample too small")
	ErrDuplicateRecord    = errors.New("bet already recorded")
)

// Muestras mínimas por modelo antes de que su peso se separe de 1.0.
const minModelSample = 10

// Store es el subconjunto de persistencia que necesita el tracker. Un store
// nil deja al tracker operando sólo en memoria, útil en tests.
type Store interface {
	SaveCalibrationRecord(ctx context.Context, rec domain.CalibrationRecord) error
	GetCalibrationRecords(ctx context.Context) ([]domain.CalibrationRecord, error)
}

// Tracker acumula registros predicción-vs-resultado y los agrega en informes
// de calibración y pesos de confianza por modelo.
type Tracker struct {
	mu      sync.Mutex
	store   Store
	records []domain.CalibrationRecord
	byBet   map[string]struct{}
}

func NewTracker(store Store) *Tracker {
	return &Tracker{
		store: store,
		byBet: map[string]struct{}{},
	}
}

// Load hidrata el tracker con los registros persistidos. Se llama una vez
// en el arranque, antes del primer ciclo.
func (t *Tracker) Load(ctx context.Context) error {
	if t.store == nil {
		return nil
	}
	recs, err := t.store.GetCalibrationRecords(ctx)
	if err != nil {
		return fmt.Errorf("calibration.Load: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for _, rec := range recs {
		if _, seen := t.byBet[rec.BetID]; seen {
			continue
		}
		t.byBet[rec.BetID] = struct{}{}
		t.records = append(t.records, rec)
	}
	return nil
}

// Record registra el desenlace de una apuesta resuelta. Idempotente por
// BetID: repetir la misma apuesta devuelve ErrDuplicateRecord sin efecto.
func (t *Tracker) Record(ctx context.Context, bet domain.Bet, outcome string) error {
	if bet.State != domain.BetStateResolved {
		return fmt.Errorf("calibration.Record: bet %s in state %s, want %s", bet.ID, bet.State, domain.BetStateResolved)
	}

	won := bet.Won(outcome)
	rec := domain.CalibrationRecord{
		BetID:     bet.ID,
		Model:     bet.Model,
		Predicted: bet.Probability,
		Stake:     bet.Stake,
		PnL:       bet.PnL,
		Bucket:    domain.CalibrationBucket(bet.Probability),
	}
	if won {
		rec.Outcome = 1
	}

	t.mu.Lock()
	if _, seen := t.byBet[rec.BetID]; seen {
		t.mu.Unlock()
		return fmt.Errorf("calibration.Record: bet %s: %w", bet.ID, ErrDuplicateRecord)
	}
	t.byBet[rec.BetID] = struct{}{}
	t.records = append(t.records, rec)
	t.mu.Unlock()

	if t.store != nil {
		if err := t.store.SaveCalibrationRecord(ctx, rec); err != nil {
			// Sin fila persistida no hay registro: deshacemos la marca en
			// memoria para que un reintento no choque con ErrDuplicateRecord.
			t.mu.Lock()
			delete(t.byBet, rec.BetID)
			for i := len(t.records) - 1; i >= 0; i-- {
				if t.records[i].BetID == rec.BetID {
					t.records = append(t.records[:i], t.records[i+1:]...)
					break
				}
			}
			t.mu.Unlock()
			return fmt.Errorf("calibration.Record: persist bet %s: %w", bet.ID, err)
		}
	}
	return nil
}

// Report agrega los registros en deciles y por modelo. La tasa realizada por
// decil lleva suavizado de Laplace, (wins+1)/(n+2), para que los buckets con
// pocas muestras no den tasas extremas.
func (t *Tracker) Report(minSample int) (domain.CalibrationReport, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.records) < minSample {
		return domain.CalibrationReport{}, fmt.Errorf(
			"calibration.Report: %d records, need %d: %w", len(t.records), minSample, ErrInsufficientSample)
	}

	report := domain.CalibrationReport{
		Buckets:    map[int]domain.BucketStat{},
		PerModel:   map[string]domain.ModelStat{},
		SampleSize: len(t.records),
	}

	type agg struct {
		count     int
		wins      int
		predicted float64
	}
	buckets := map[int]*agg{}
	models := map[string]*agg{}

	var staked, wins float64
	for _, rec := range t.records {
		staked += rec.Stake
		report.TotalPnL += rec.PnL
		wins += float64(rec.Outcome)

		b := buckets[rec.Bucket]
		if b == nil {
			b = &agg{}
			buckets[rec.Bucket] = b
		}
		b.count++
		b.wins += rec.Outcome
		b.predicted += rec.Predicted

		m := models[rec.Model]
		if m == nil {
			m = &agg{}
			models[rec.Model] = m
		}
		m.count++
		m.wins += rec.Outcome
		m.predicted += rec.Predicted
	}

	for bucket, a := range buckets {
		report.Buckets[bucket] = domain.BucketStat{
			Count:         a.count,
			PredictedMean: a.predicted / float64(a.count),
			RealizedRate:  laplace(a.wins, a.count),
		}
	}
	for name, a := range models {
		predicted := a.predicted / float64(a.count)
		realized := laplace(a.wins, a.count)
		report.PerModel[name] = domain.ModelStat{
			Count:            a.count,
			PredictedMean:    predicted,
			RealizedRate:     realized,
			CalibrationError: abs(predicted - realized),
		}
	}

	report.WinRate = wins / float64(len(t.records))
	if staked > 0 {
		report.OverallROI = report.TotalPnL / staked
	}
	return report, nil
}

// ModelWeights traduce el error de calibración de cada modelo en un
// multiplicador de confianza. Modelos bien calibrados suben hasta 1.1;
// modelos que se desvían bajan hasta 0.5. Con muestra insuficiente el
// peso se queda en 1.0.
func (t *Tracker) ModelWeights() map[string]float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	type agg struct {
		count     int
		wins      int
		predicted float64
	}
	models := map[string]*agg{}
	for _, rec := range t.records {
		m := models[rec.Model]
		if m == nil {
			m = &agg{}
			models[rec.Model] = m
		}
		m.count++
		m.wins += rec.Outcome
		m.predicted += rec.Predicted
	}

	weights := map[string]float64{}
	for name, a := range models {
		if a.count < minModelSample {
			weights[name] = 1.0
			continue
		}
		err := abs(a.predicted/float64(a.count) - laplace(a.wins, a.count))
		w := 1.1 - 2*err
		if w < 0.5 {
			w = 0.5
		}
		if w > 1.1 {
			w = 1.1
		}
		weights[name] = w
	}
	return weights
}

// SampleSize devuelve el número de registros acumulados.
func (t *Tracker) SampleSize() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.records)
}

func laplace(wins, n int) float64 {
	return float64(wins+1) / float64(n+2)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
