package bankroll

import (
	"fmt"
	"sync"

	"github.com/alejandrodnm/polyedge/internal/domain"
)

// Config son los límites de riesgo del bankroll. Todos los porcentajes son
// fracciones sobre el capital total.
type Config struct {
	TotalCapital float64
	// KellyMultiplier: fracción de Kelly a usar (0.25 = quarter Kelly).
	KellyMultiplier float64
	// MaxSingleBetPct: tope por apuesta individual.
	MaxSingleBetPct float64
	// MaxTotalExposurePct: tope de capital comprometido simultáneo.
	MaxTotalExposurePct float64
	// MaxCategoryExposurePct: tope de exposición por categoría.
	MaxCategoryExposurePct float64
	// MinEV: EV mínimo exigido en el sizing, independiente del ranker.
	MinEV float64
	// MinKelly: fracción de Kelly efectiva mínima para apostar.
	MinKelly float64
	// MinStake: stake mínimo en dólares; debajo no compensa ejecutar.
	MinStake float64
	// MaxLiquidityPct: tope de stake como fracción de la liquidez del mercado.
	MaxLiquidityPct float64
}

// Manager decide y reserva stakes de forma atómica. Decisión y reserva van
// juntas bajo el mismo lock: dos candidatos nunca pueden aprobar contra el
// mismo capital disponible.
type Manager struct {
	mu    sync.Mutex
	cfg   Config
	state domain.BankrollState
}

func NewManager(cfg Config) *Manager {
	return &Manager{
		cfg: cfg,
		state: domain.BankrollState{
			TotalCapital: cfg.TotalCapital,
			PerCategory:  map[domain.Category]float64{},
		},
	}
}

// SizeAndReserve evalúa el candidato y, si procede, reserva el stake en la
// misma operación. El rechazo nunca es error: es una decisión con motivo.
func (b *Manager) SizeAndReserve(c domain.EdgeCandidate) domain.SizingDecision {
	b.mu.Lock()
	defer b.mu.Unlock()

	reject := func(format string, args ...any) domain.SizingDecision {
		return domain.SizingDecision{Approved: false, Reason: fmt.Sprintf(format, args...)}
	}

	if c.EV < b.cfg.MinEV {
		return reject("EV %.3f below minimum %.3f", c.EV, b.cfg.MinEV)
	}

	// Kelly se recalcula aquí: el score del ranker lleva penalizaciones que
	// no deben entrar en el sizing.
	raw := domain.KellyFraction(c.Probability, c.MarketPrice)
	if raw <= 0 {
		return reject("no positive Kelly edge at price %.2f", c.MarketPrice)
	}
	kelly := raw * b.cfg.KellyMultiplier
	if kelly < b.cfg.MinKelly {
		return reject("fractional Kelly %.4f below minimum %.4f", kelly, b.cfg.MinKelly)
	}

	total := b.state.TotalCapital
	stake := kelly * total

	if limit := b.cfg.MaxSingleBetPct * total; stake > limit {
		stake = limit
	}
	if headroom := b.cfg.MaxTotalExposurePct*total - b.state.Committed; stake > headroom {
		stake = headroom
	}
	if headroom := b.cfg.MaxCategoryExposurePct*total - b.state.PerCategory[c.Category]; stake > headroom {
		stake = headroom
	}
	if b.cfg.MaxLiquidityPct > 0 && c.Liquidity > 0 {
		if limit := b.cfg.MaxLiquidityPct * c.Liquidity; stake > limit {
			stake = limit
		}
	}
	if available := b.state.Available(); stake > available {
		stake = available
	}

	if stake < b.cfg.MinStake {
		return reject("stake $%.2f below minimum $%.2f after caps", stake, b.cfg.MinStake)
	}

	b.state.Committed += stake
	b.state.PerCategory[c.Category] += stake

	return domain.SizingDecision{
		Approved:  true,
		Stake:     stake,
		KellyUsed: stake / total,
		Reason:    fmt.Sprintf("kelly %.4f (raw %.4f × %.2f)", kelly, raw, b.cfg.KellyMultiplier),
	}
}

// Restore reconstruye el capital comprometido a partir de las apuestas
// abiertas persistidas. Se llama una vez al arrancar, antes del primer
// ciclo: sin esto, las apuestas vivas de una ejecución anterior no contarían
// contra los topes de exposición.
func (b *Manager) Restore(bets []domain.Bet) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, bet := range bets {
		if !bet.HoldsCapital() {
			continue
		}
		b.state.Committed += bet.Stake
		b.state.PerCategory[bet.Category] += bet.Stake
	}
}

// Release devuelve capital reservado al pool. Se llama exactamente una vez
// por apuesta, en su transición terminal.
func (b *Manager) Release(cat domain.Category, stake float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state.Committed -= stake
	if b.state.Committed < 0 {
		b.state.Committed = 0
	}
	b.state.PerCategory[cat] -= stake
	if b.state.PerCategory[cat] < 0 {
		b.state.PerCategory[cat] = 0
	}
}

// ApplyPnL ajusta el capital total con el resultado de una apuesta resuelta.
func (b *Manager) ApplyPnL(pnl float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state.TotalCapital += pnl
	if b.state.TotalCapital < 0 {
		b.state.TotalCapital = 0
	}
}

// State devuelve una copia del estado; el llamante no puede mutar el pool.
func (b *Manager) State() domain.BankrollState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.Clone()
}
