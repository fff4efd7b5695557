package engine

// engine.go — orquestador del ciclo de decisión.
//
// Un ciclo es estrictamente secuencial: snapshot → probabilidades → ranking →
// sizing+ejecución en orden de score → reconciliación de resueltos → notify.
// La secuencialidad del sizing es deliberada: los candidatos con más score
// reclaman primero el presupuesto de exposición.

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/polyedge/internal/application/calibration"
	"github.com/alejandrodnm/polyedge/internal/application/edge"
	"github.com/alejandrodnm/polyedge/internal/application/executor"
	"github.com/alejandrodnm/polyedge/internal/application/probability"
	"github.com/alejandrodnm/polyedge/internal/domain"
	"github.com/alejandrodnm/polyedge/internal/ports"
)

// Config controla el ciclo de decisión.
type Config struct {
	// CycleInterval: tiempo entre ciclos en modo daemon.
	CycleInterval time.Duration
	// MaxBetsPerCycle: tope de apuestas nuevas por ciclo.
	MaxBetsPerCycle int
	// MinLiquidity / MinVolume24h: gates de entrada sobre el snapshot.
	MinLiquidity float64
	MinVolume24h float64
	// MinConfidence: confianza mínima de la estimación para considerarla.
	MinConfidence float64
	// ReportMinSample: muestras de calibración para emitir el reporte.
	ReportMinSample int
}

// CycleResult resume lo que pasó en un ciclo.
type CycleResult struct {
	Markets    int
	Gated      int
	Estimated  int
	Candidates []domain.EdgeCandidate
	Placed     []domain.Bet
	Resolved   []domain.Bet
	Duration   time.Duration
}

// Engine orquesta un ciclo completo de decisión de apuestas.
type Engine struct {
	cfg      Config
	provider ports.MarketProvider
	prob     *probability.Engine
	ranker   *edge.Ranker
	exec     *executor.StateMachine
	tracker  *calibration.Tracker
	store    ports.BetStore
	notifier ports.Notifier
	log      *slog.Logger
	now      func() time.Time
}

func New(cfg Config, provider ports.MarketProvider, prob *probability.Engine, ranker *edge.Ranker,
	exec *executor.StateMachine, tracker *calibration.Tracker, store ports.BetStore,
	notifier ports.Notifier, log *slog.Logger) *Engine {

	if cfg.MaxBetsPerCycle <= 0 {
		cfg.MaxBetsPerCycle = 3
	}
	return &Engine{
		cfg:      cfg,
		provider: provider,
		prob:     prob,
		ranker:   ranker,
		exec:     exec,
		tracker:  tracker,
		store:    store,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// Run ejecuta ciclos hasta que el contexto se cancele.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.cfg.CycleInterval)
	defer ticker.Stop()

	// Primer ciclo inmediato; el ticker marca los siguientes.
	for {
		if _, err := e.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// Un ciclo fallido (API caída, etc.) no tumba el daemon.
			e.log.Error("cycle failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunCycle ejecuta un ciclo de decisión completo.
func (e *Engine) RunCycle(ctx context.Context) (CycleResult, error) {
	start := e.now()
	result := CycleResult{}

	// El feedback de calibración entra al principio del ciclo: los pesos
	// son constantes durante todo el ciclo.
	e.prob.SetModelWeights(e.tracker.ModelWeights())

	markets, err := e.provider.FetchMarkets(ctx)
	if err != nil {
		return result, fmt.Errorf("engine.RunCycle: fetch markets: %w", err)
	}
	result.Markets = len(markets)

	openByMarket, err := e.openMarkets(ctx)
	if err != nil {
		return result, fmt.Errorf("engine.RunCycle: %w", err)
	}

	now := e.now()
	byID := make(map[string]domain.Market, len(markets))
	var candidates []domain.EdgeCandidate
	for _, m := range markets {
		if e.gated(m, openByMarket) {
			result.Gated++
			continue
		}

		est, err := e.prob.Estimate(m, now)
		if err != nil {
			// Mercado sin modelo aplicable o con datos rotos: se salta,
			// el ciclo sigue.
			e.log.Debug("estimate skipped", "market", m.ID, "error", err)
			continue
		}
		result.Estimated++
		if est.Confidence < e.cfg.MinConfidence {
			continue
		}

		byID[m.ID] = m
		candidates = append(candidates, e.ranker.BuildCandidate(m, est))
	}

	ranked := e.ranker.Rank(candidates, byID)
	result.Candidates = ranked

	// Ejecución secuencial de mejor a peor: cada apuesta aprobada reduce el
	// presupuesto disponible para las siguientes.
	for _, cand := range ranked {
		if len(result.Placed) >= e.cfg.MaxBetsPerCycle {
			break
		}
		bet, err := e.exec.Execute(ctx, cand)
		if err != nil {
			e.log.Warn("execution error", "market", cand.MarketID, "error", err)
			continue
		}
		if bet.State == domain.BetStateOpen {
			result.Placed = append(result.Placed, bet)
		}
	}

	resolved, err := e.exec.CheckResolutions(ctx, e.provider)
	if err != nil {
		e.log.Warn("resolution sweep failed", "error", err)
	}
	result.Resolved = resolved

	e.notify(ctx, result)
	result.Duration = e.now().Sub(start)

	e.log.Info("cycle complete",
		"markets", result.Markets,
		"gated", result.Gated,
		"candidates", len(result.Candidates),
		"placed", len(result.Placed),
		"resolved", len(result.Resolved),
		"duration", result.Duration.Round(time.Millisecond),
	)
	return result, nil
}

// Status devuelve el estado actual del bankroll y las apuestas abiertas.
func (e *Engine) Status(ctx context.Context) (domain.BankrollState, []domain.Bet, error) {
	open, err := e.store.GetOpenBets(ctx)
	if err != nil {
		return domain.BankrollState{}, nil, fmt.Errorf("engine.Status: %w", err)
	}
	return e.exec.Bankroll(), open, nil
}

// gated aplica los filtros de entrada sobre un mercado del snapshot.
func (e *Engine) gated(m domain.Market, openByMarket map[string]bool) bool {
	switch {
	case m.Resolved:
		return true
	case m.YesPrice <= 0 && m.NoPrice <= 0:
		return true
	case m.Liquidity < e.cfg.MinLiquidity:
		return true
	case m.Volume24h < e.cfg.MinVolume24h:
		return true
	case openByMarket[m.ID]:
		// Una apuesta viva por mercado: sin piramidación.
		return true
	}
	return false
}

// openMarkets devuelve el set de mercados con apuestas vivas.
func (e *Engine) openMarkets(ctx context.Context) (map[string]bool, error) {
	open, err := e.store.GetOpenBets(ctx)
	if err != nil {
		return nil, fmt.Errorf("open bets: %w", err)
	}
	set := make(map[string]bool, len(open))
	for _, bet := range open {
		set[bet.MarketID] = true
	}
	return set, nil
}

// notify emite el resumen del ciclo y, si hay muestra, el reporte de
// calibración. Errores de notificación se loguean y nada más.
func (e *Engine) notify(ctx context.Context, result CycleResult) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.NotifyCycle(ctx, result.Candidates, result.Placed); err != nil {
		e.log.Warn("cycle notification failed", "error", err)
	}

	if len(result.Resolved) == 0 {
		return // el reporte solo cambia cuando algo resuelve
	}
	report, err := e.tracker.Report(e.cfg.ReportMinSample)
	if err != nil {
		return // muestra insuficiente todavía
	}
	if err := e.notifier.NotifyReport(ctx, report); err != nil {
		e.log.Warn("report notification failed", "error", err)
	}
}
