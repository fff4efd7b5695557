package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/polyedge/internal/application/bankroll"
	"github.com/alejandrodnm/polyedge/internal/application/calibration"
	"github.com/alejandrodnm/polyedge/internal/domain"
	"github.com/alejandrodnm/polyedge/internal/ports"
)

// Config controla los tiempos de la fase de fill.
type Config struct {
	// FillTimeout: tiempo máximo esperando el fill antes de cancelar.
	FillTimeout time.Duration
	// FillPollInterval: intervalo entre consultas de estado de la orden.
	FillPollInterval time.Duration
}

// StateMachine ejecuta candidatos aprobados a través del ciclo de vida
// PROPOSED → RESERVED → PLACED → OPEN → RESOLVED. Es el único escritor del
// estado de una apuesta; el resto del sistema solo lee.
type StateMachine struct {
	cfg      Config
	exchange ports.Exchange
	bank     *bankroll.Manager
	store    ports.BetStore
	tracker  *calibration.Tracker
	notifier ports.Notifier
	log      *slog.Logger
	now      func() time.Time
}

func New(cfg Config, exchange ports.Exchange, bank *bankroll.Manager, store ports.BetStore,
	tracker *calibration.Tracker, notifier ports.Notifier, log *slog.Logger) *StateMachine {

	if cfg.FillPollInterval <= 0 {
		cfg.FillPollInterval = 2 * time.Second
	}
	if cfg.FillTimeout <= 0 {
		cfg.FillTimeout = 30 * time.Second
	}
	return &StateMachine{
		cfg:      cfg,
		exchange: exchange,
		bank:     bank,
		store:    store,
		tracker:  tracker,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// Execute lleva un candidato desde PROPOSED hasta OPEN (o un estado terminal
// de fallo). Decisión de sizing y reserva de capital son una sola operación
// atómica; a partir de ahí, cualquier salida terminal libera exactamente una vez.
func (sm *StateMachine) Execute(ctx context.Context, c domain.EdgeCandidate) (domain.Bet, error) {
	bet := domain.Bet{
		ID:          uuid.NewString(),
		MarketID:    c.MarketID,
		Question:    c.Question,
		Category:    c.Category,
		Side:        c.Side,
		TokenID:     c.TokenID,
		EntryPrice:  c.MarketPrice,
		Probability: c.Probability,
		Confidence:  c.Confidence,
		Model:       c.Model,
		Reasoning:   c.Reasoning,
		State:       domain.BetStateProposed,
		ProposedAt:  sm.now(),
	}

	decision := sm.bank.SizeAndReserve(c)
	if !decision.Approved {
		sm.fail(ctx, &bet, decision.Reason, false)
		return bet, nil
	}
	bet.Stake = decision.Stake
	bet.KellyUsed = decision.KellyUsed

	if err := bet.Transition(domain.BetStateReserved); err != nil {
		// No puede pasar desde PROPOSED; si pasa, devolvemos el capital.
		sm.bank.Release(bet.Category, bet.Stake)
		return bet, fmt.Errorf("executor.Execute: %w", err)
	}
	if err := sm.store.SaveBet(ctx, bet); err != nil {
		sm.fail(ctx, &bet, fmt.Sprintf("store unavailable: %v", err), true)
		return bet, fmt.Errorf("executor.Execute: save bet %s: %w", bet.ID, err)
	}

	orderID, err := sm.exchange.Submit(ctx, bet)
	if err != nil {
		sm.fail(ctx, &bet, fmt.Sprintf("submit rejected: %v", err), true)
		return bet, nil
	}
	bet.OrderID = orderID
	bet.PlacedAt = sm.now()
	if err := sm.transition(ctx, &bet, domain.BetStatePlaced); err != nil {
		return bet, err
	}

	filled, err := sm.awaitFill(ctx, bet.OrderID)
	if err != nil {
		sm.fail(ctx, &bet, fmt.Sprintf("fill failed: %v", err), true)
		return bet, nil
	}
	if !filled {
		// Timeout: intentamos cancelar. Si el exchange rechaza la
		// cancelación es que el fill llegó primero; un poll final decide, y
		// un fill confirmado es autoritativo: la apuesta abre, no falla.
		cancelled, cancelErr := sm.exchange.Cancel(ctx, bet.OrderID)
		if cancelErr != nil {
			sm.log.Warn("cancel after fill timeout failed",
				"bet", bet.ID, "order", bet.OrderID, "error", cancelErr)
		}
		if !cancelled && cancelErr == nil {
			status, pollErr := sm.exchange.PollFill(ctx, bet.OrderID)
			if pollErr == nil && status == domain.FillFilled {
				sm.log.Info("fill won the cancel race", "bet", bet.ID, "order", bet.OrderID)
				filled = true
			}
		}
		if !filled {
			sm.fail(ctx, &bet, "fill timeout, order cancelled", true)
			return bet, nil
		}
	}

	bet.OpenedAt = sm.now()
	if err := sm.transition(ctx, &bet, domain.BetStateOpen); err != nil {
		return bet, err
	}
	sm.notifyBet(ctx, bet)
	return bet, nil
}

// Bankroll devuelve una copia del estado del bankroll.
func (sm *StateMachine) Bankroll() domain.BankrollState {
	return sm.bank.State()
}

// awaitFill sondea la orden hasta fill, cancelación o timeout.
func (sm *StateMachine) awaitFill(ctx context.Context, orderID string) (bool, error) {
	deadline := time.NewTimer(sm.cfg.FillTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(sm.cfg.FillPollInterval)
	defer ticker.Stop()

	for {
		status, err := sm.exchange.PollFill(ctx, orderID)
		if err != nil {
			return false, err
		}
		switch status {
		case domain.FillFilled:
			return true, nil
		case domain.FillCancelled, domain.FillRejected:
			return false, fmt.Errorf("order %s: %s", orderID, status)
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-deadline.C:
			return false, nil
		case <-ticker.C:
		}
	}
}

// Resolve cierra una apuesta OPEN con el outcome del mercado: calcula P&L,
// ajusta el bankroll, libera la reserva y registra la calibración.
func (sm *StateMachine) Resolve(ctx context.Context, bet domain.Bet, outcome string) (domain.Bet, error) {
	if err := bet.Transition(domain.BetStateResolved); err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			// Otro camino llegó antes (void o fail); no hay nada que cerrar.
			return bet, nil
		}
		return bet, fmt.Errorf("executor.Resolve: %w", err)
	}

	bet.Outcome = outcome
	bet.ResolvedAt = sm.now()
	bet.PnL = domain.SettlePnL(bet.Won(outcome), bet.Stake, bet.EntryPrice)

	sm.bank.Release(bet.Category, bet.Stake)
	sm.bank.ApplyPnL(bet.PnL)

	if err := sm.store.UpdateBet(ctx, bet); err != nil {
		return bet, fmt.Errorf("executor.Resolve: update bet %s: %w", bet.ID, err)
	}
	if sm.tracker != nil {
		if err := sm.tracker.Record(ctx, bet, outcome); err != nil && !errors.Is(err, calibration.ErrDuplicateRecord) {
			sm.log.Warn("calibration record failed", "bet", bet.ID, "error", err)
		}
	}
	sm.notifyBet(ctx, bet)
	return bet, nil
}

// Void anula una apuesta con capital reservado: mercado anulado o delistado.
// El stake vuelve íntegro al bankroll, sin P&L.
func (sm *StateMachine) Void(ctx context.Context, bet domain.Bet, reason string) (domain.Bet, error) {
	if err := bet.Transition(domain.BetStateVoided); err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			return bet, nil
		}
		return bet, fmt.Errorf("executor.Void: %w", err)
	}

	bet.FailReason = reason
	bet.ResolvedAt = sm.now()
	sm.bank.Release(bet.Category, bet.Stake)

	if err := sm.store.UpdateBet(ctx, bet); err != nil {
		return bet, fmt.Errorf("executor.Void: update bet %s: %w", bet.ID, err)
	}
	sm.notifyBet(ctx, bet)
	return bet, nil
}

// CheckResolutions reconcilia las apuestas abiertas contra el provider y
// resuelve las que ya tienen outcome. Errores por apuesta se loguean y no
// cortan el barrido.
func (sm *StateMachine) CheckResolutions(ctx context.Context, provider ports.MarketProvider) ([]domain.Bet, error) {
	open, err := sm.store.GetOpenBets(ctx)
	if err != nil {
		return nil, fmt.Errorf("executor.CheckResolutions: %w", err)
	}

	var resolved []domain.Bet
	for _, bet := range open {
		if bet.State != domain.BetStateOpen {
			continue
		}
		outcome, done, err := provider.FetchResolution(ctx, bet.MarketID)
		if err != nil {
			sm.log.Warn("resolution check failed", "bet", bet.ID, "market", bet.MarketID, "error", err)
			continue
		}
		if !done {
			continue
		}
		settled, err := sm.Resolve(ctx, bet, outcome)
		if err != nil {
			sm.log.Warn("resolve failed", "bet", bet.ID, "error", err)
			continue
		}
		resolved = append(resolved, settled)
	}
	return resolved, nil
}

// fail mueve la apuesta a FAILED por el camino legal desde su estado actual
// y, si tenía capital reservado, lo libera.
func (sm *StateMachine) fail(ctx context.Context, bet *domain.Bet, reason string, release bool) {
	holding := bet.HoldsCapital()
	if err := bet.Transition(domain.BetStateFailed); err != nil {
		sm.log.Warn("fail transition rejected", "bet", bet.ID, "error", err)
		return
	}
	bet.FailReason = reason
	if release && holding {
		sm.bank.Release(bet.Category, bet.Stake)
	}
	if err := sm.store.UpdateBet(ctx, *bet); err != nil {
		// La apuesta puede no existir aún si falló antes de RESERVED.
		sm.log.Debug("failed bet not persisted", "bet", bet.ID, "error", err)
	}
	sm.log.Info("bet failed", "bet", bet.ID, "market", bet.MarketID, "reason", reason)
}

// transition aplica una transición no terminal y la persiste.
func (sm *StateMachine) transition(ctx context.Context, bet *domain.Bet, to domain.BetState) error {
	if err := bet.Transition(to); err != nil {
		return fmt.Errorf("executor: %w", err)
	}
	if err := sm.store.UpdateBet(ctx, *bet); err != nil {
		return fmt.Errorf("executor: persist bet %s at %s: %w", bet.ID, to, err)
	}
	return nil
}

func (sm *StateMachine) notifyBet(ctx context.Context, bet domain.Bet) {
	if sm.notifier == nil {
		return
	}
	if err := sm.notifier.NotifyBet(ctx, bet); err != nil {
		sm.log.Warn("bet notification failed", "bet", bet.ID, "error", err)
	}
}
