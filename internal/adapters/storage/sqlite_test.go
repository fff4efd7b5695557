package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polyedge/internal/adapters/storage"
	"github.com/alejandrodnm/polyedge/internal/domain"
)

func makeBet(id string, state domain.BetState) domain.Bet {
	return domain.Bet{
		ID:          id,
		MarketID:    "btc-100k",
		Question:    "Will Bitcoin reach $100K by December 31?",
		Category:    domain.CategoryCrypto,
		Side:        domain.SideBuyYes,
		Stake:       50,
		EntryPrice:  0.42,
		KellyUsed:   0.05,
		Probability: 0.55,
		Confidence:  0.45,
		Model:       "crypto-vol",
		Reasoning:   "spot $95000, target $100000 (above)",
		State:       state,
		TokenID:     "tok-yes",
		ProposedAt:  time.Now().UTC().Truncate(time.Second),
	}
}

func TestSQLiteStore_SaveAndGetBet(t *testing.T) {
	db, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	bet := makeBet("b1", domain.BetStateReserved)
	require.NoError(t, db.SaveBet(ctx, bet))

	got, err := db.GetBet(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, bet.MarketID, got.MarketID)
	assert.Equal(t, bet.State, got.State)
	assert.Equal(t, bet.Side, got.Side)
	assert.Equal(t, bet.TokenID, got.TokenID)
	assert.InDelta(t, bet.Stake, got.Stake, 1e-9)
	assert.True(t, bet.ProposedAt.Equal(got.ProposedAt))
	assert.True(t, got.PlacedAt.IsZero(), "los timestamps no seteados vuelven como zero time")
}

func TestSQLiteStore_UpdateBetLifecycle(t *testing.T) {
	db, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	bet := makeBet("b1", domain.BetStateReserved)
	require.NoError(t, db.SaveBet(ctx, bet))

	bet.State = domain.BetStateResolved
	bet.Outcome = "YES"
	bet.PnL = 69.05
	bet.ResolvedAt = time.Now().UTC().Truncate(time.Second)
	require.NoError(t, db.UpdateBet(ctx, bet))

	got, err := db.GetBet(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, domain.BetStateResolved, got.State)
	assert.Equal(t, "YES", got.Outcome)
	assert.InDelta(t, 69.05, got.PnL, 1e-9)
}

func TestSQLiteStore_UpdateUnknownBetFails(t *testing.T) {
	db, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer db.Close()

	err = db.UpdateBet(context.Background(), makeBet("ghost", domain.BetStateOpen))
	assert.Error(t, err)
}

func TestSQLiteStore_GetOpenBets(t *testing.T) {
	db, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, db.SaveBet(ctx, makeBet("open1", domain.BetStateOpen)))
	require.NoError(t, db.SaveBet(ctx, makeBet("placed1", domain.BetStatePlaced)))
	require.NoError(t, db.SaveBet(ctx, makeBet("done1", domain.BetStateResolved)))
	require.NoError(t, db.SaveBet(ctx, makeBet("failed1", domain.BetStateFailed)))

	open, err := db.GetOpenBets(ctx)
	require.NoError(t, err)
	require.Len(t, open, 2)

	ids := []string{open[0].ID, open[1].ID}
	assert.Contains(t, ids, "open1")
	assert.Contains(t, ids, "placed1")
}

func TestSQLiteStore_CalibrationRecordsIdempotent(t *testing.T) {
	db, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	rec := domain.CalibrationRecord{
		BetID: "b1", Model: "crypto-vol", Predicted: 0.55,
		Outcome: 1, Stake: 50, PnL: 69.05, Bucket: 5,
	}
	require.NoError(t, db.SaveCalibrationRecord(ctx, rec))
	// Reinsertar el mismo bet_id es un no-op, no un error.
	require.NoError(t, db.SaveCalibrationRecord(ctx, rec))

	recs, err := db.GetCalibrationRecords(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, rec, recs[0])
}
