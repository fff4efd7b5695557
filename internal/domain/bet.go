package domain

import (
	"errors"
	"fmt"
	"time"
)

// BetState representa el estado de una apuesta en su ciclo de vida.
type BetState string

const (
	BetStateProposed BetState = "PROPOSED"
	BetStateReserved BetState = "RESERVED"
	BetStatePlaced   BetState = "PLACED"
	BetStateOpen     BetState = "OPEN"
	BetStateResolved BetState = "RESOLVED"
	BetStateVoided   BetState = "VOIDED"
	BetStateFailed   BetState = "FAILED"
)

// ErrInvalidTransition indica un intento de transición no permitida.
// Cuando un fill y una cancelación compiten, la transición que llega primero
// gana y la perdedora recibe este error: el caller lo trata como "ya resuelto".
var ErrInvalidTransition = errors.New("invalid bet state transition")

// allowedTransitions define el grafo unidireccional del ciclo de vida.
// Ningún estado se revisita.
var allowedTransitions = map[BetState][]BetState{
	BetStateProposed: {BetStateReserved, BetStateFailed},
	BetStateReserved: {BetStatePlaced, BetStateVoided, BetStateFailed},
	BetStatePlaced:   {BetStateOpen, BetStateVoided, BetStateFailed},
	BetStateOpen:     {BetStateResolved, BetStateVoided, BetStateFailed},
}

// Bet es una apuesta gestionada por la máquina de estados de ejecución.
// Solo se muta a través de Transition; nadie más escribe su estado.
type Bet struct {
	ID          string
	MarketID    string
	Question    string
	Category    Category
	Side        Side
	Stake       float64 // USDC reservado
	EntryPrice  float64
	KellyUsed   float64 // fracción de Kelly efectivamente usada
	Probability float64 // estimación en el momento de la decisión
	Confidence  float64
	Model       string
	Reasoning   string

	State      BetState
	TokenID    string // token del CLOB del lado tomado
	OrderID    string // handle del exchange, vacío hasta PLACED
	FailReason string

	ProposedAt time.Time
	PlacedAt   time.Time
	OpenedAt   time.Time
	ResolvedAt time.Time
	PnL        float64
	Outcome    string // "YES" | "NO" cuando RESOLVED
}

// Transition mueve la apuesta al estado destino si la transición es legal.
func (b *Bet) Transition(to BetState) error {
	for _, next := range allowedTransitions[b.State] {
		if next == to {
			b.State = to
			return nil
		}
	}
	return fmt.Errorf("bet %s: %s → %s: %w", b.ID, b.State, to, ErrInvalidTransition)
}

// IsTerminal devuelve true si la apuesta está en un estado final.
func (b *Bet) IsTerminal() bool {
	switch b.State {
	case BetStateResolved, BetStateVoided, BetStateFailed:
		return true
	}
	return false
}

// HoldsCapital devuelve true si la apuesta tiene capital reservado todavía.
// El capital se reserva al entrar en RESERVED y se libera en la transición
// terminal, exactamente una vez.
func (b *Bet) HoldsCapital() bool {
	switch b.State {
	case BetStateReserved, BetStatePlaced, BetStateOpen:
		return true
	}
	return false
}

// Won devuelve true si el outcome dado hace ganadora esta apuesta.
func (b *Bet) Won(outcome string) bool {
	if b.Side == SideBuyYes {
		return outcome == "YES"
	}
	return outcome == "NO"
}
