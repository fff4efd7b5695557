package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBet_HappyPath(t *testing.T) {
	b := &Bet{ID: "b1", State: BetStateProposed}
	require.NoError(t, b.Transition(BetStateReserved))
	require.NoError(t, b.Transition(BetStatePlaced))
	require.NoError(t, b.Transition(BetStateOpen))
	require.NoError(t, b.Transition(BetStateResolved))
	assert.True(t, b.IsTerminal())
}

func TestBet_ProposedToFailed_SkipsReserved(t *testing.T) {
	b := &Bet{State: BetStateProposed}
	require.NoError(t, b.Transition(BetStateFailed))
	assert.True(t, b.IsTerminal())
	assert.False(t, b.HoldsCapital())
}

func TestBet_NoBackwardTransitions(t *testing.T) {
	b := &Bet{State: BetStateOpen}
	err := b.Transition(BetStatePlaced)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, BetStateOpen, b.State)
}

func TestBet_TerminalStatesAreFinal(t *testing.T) {
	for _, s := range []BetState{BetStateResolved, BetStateVoided, BetStateFailed} {
		b := &Bet{State: s}
		for _, to := range []BetState{BetStateProposed, BetStateReserved, BetStatePlaced, BetStateOpen, BetStateResolved, BetStateVoided, BetStateFailed} {
			assert.ErrorIs(t, b.Transition(to), ErrInvalidTransition, "%s → %s", s, to)
		}
	}
}

func TestBet_ProposedCannotPlace(t *testing.T) {
	// PLACED exige pasar por RESERVED: nunca sin capital reservado.
	b := &Bet{State: BetStateProposed}
	assert.ErrorIs(t, b.Transition(BetStatePlaced), ErrInvalidTransition)
	assert.ErrorIs(t, b.Transition(BetStateOpen), ErrInvalidTransition)
}

func TestBet_FillCancelRace_FirstTerminalWins(t *testing.T) {
	// Una resolución (→RESOLVED) y una cancelación (→FAILED) compiten: la
	// primera transición terminal gana y la perdedora recibe
	// ErrInvalidTransition, que el caller trata como "ya resuelto".
	b := &Bet{State: BetStateOpen}
	require.NoError(t, b.Transition(BetStateResolved))
	assert.ErrorIs(t, b.Transition(BetStateFailed), ErrInvalidTransition)
	assert.Equal(t, BetStateResolved, b.State)

	// En el orden inverso gana la cancelación y la resolución se descarta.
	b = &Bet{State: BetStateOpen}
	require.NoError(t, b.Transition(BetStateFailed))
	assert.ErrorIs(t, b.Transition(BetStateResolved), ErrInvalidTransition)
	assert.Equal(t, BetStateFailed, b.State)
}

func TestBet_OpenCanFailOrVoid(t *testing.T) {
	// OPEN no es terminal: cancelación de mercado o error tardío lo cierran.
	b := &Bet{State: BetStateOpen}
	require.NoError(t, b.Transition(BetStateVoided))

	b = &Bet{State: BetStateOpen}
	require.NoError(t, b.Transition(BetStateFailed))
}

func TestBet_HoldsCapital(t *testing.T) {
	assert.False(t, (&Bet{State: BetStateProposed}).HoldsCapital())
	assert.True(t, (&Bet{State: BetStateReserved}).HoldsCapital())
	assert.True(t, (&Bet{State: BetStatePlaced}).HoldsCapital())
	assert.True(t, (&Bet{State: BetStateOpen}).HoldsCapital())
	assert.False(t, (&Bet{State: BetStateFailed}).HoldsCapital())
}

func TestBet_Won(t *testing.T) {
	yes := &Bet{Side: SideBuyYes}
	assert.True(t, yes.Won("YES"))
	assert.False(t, yes.Won("NO"))

	no := &Bet{Side: SideSellYes}
	assert.True(t, no.Won("NO"))
	assert.False(t, no.Won("YES"))
}

func TestBankrollState_Available(t *testing.T) {
	s := BankrollState{TotalCapital: 500, Committed: 120}
	assert.InDelta(t, 380.0, s.Available(), 0.0001)
	assert.InDelta(t, 0.24, s.ExposurePct(), 0.0001)
}

func TestBankrollState_Clone_Independent(t *testing.T) {
	s := BankrollState{
		TotalCapital: 500,
		PerCategory:  map[Category]float64{CategoryCrypto: 50},
	}
	c := s.Clone()
	c.PerCategory[CategoryCrypto] = 999
	assert.Equal(t, 50.0, s.PerCategory[CategoryCrypto])
}
