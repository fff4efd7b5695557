package storage

// sqlite.go — persistencia de apuestas y registros de calibración.
//
// Estrategia:
//   - `bets`: una fila por apuesta, actualizada en cada transición de estado.
//     Es la fuente de verdad para reconciliar capital tras un reinicio.
//   - `calibration_records`: append-only, una fila por apuesta resuelta.
//     INSERT OR IGNORE sobre la primary key (bet_id) da idempotencia gratis.
//   - Sin prune: el histórico completo es el dataset de calibración.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alejandrodnm/polyedge/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS bets (
    id          TEXT PRIMARY KEY,
    market_id   TEXT NOT NULL,
    question    TEXT,
    category    TEXT NOT NULL,
    side        TEXT NOT NULL,
    stake       REAL NOT NULL DEFAULT 0,
    entry_price REAL NOT NULL DEFAULT 0,
    kelly_used  REAL NOT NULL DEFAULT 0,
    probability REAL NOT NULL DEFAULT 0,
    confidence  REAL NOT NULL DEFAULT 0,
    model       TEXT,
    reasoning   TEXT,
    state       TEXT NOT NULL,
    token_id    TEXT,
    order_id    TEXT,
    fail_reason TEXT,
    proposed_at DATETIME,
    placed_at   DATETIME,
    opened_at   DATETIME,
    resolved_at DATETIME,
    pnl         REAL NOT NULL DEFAULT 0,
    outcome     TEXT
);

CREATE TABLE IF NOT EXISTS calibration_records (
    bet_id    TEXT PRIMARY KEY,
    model     TEXT NOT NULL,
    predicted REAL NOT NULL,
    outcome   INTEGER NOT NULL,
    stake     REAL NOT NULL,
    pnl       REAL NOT NULL,
    bucket    INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_bets_state  ON bets(state);
CREATE INDEX IF NOT EXISTS idx_bets_market ON bets(market_id);
CREATE INDEX IF NOT EXISTS idx_cal_model   ON calibration_records(model);
`

// SQLiteStore implementa ports.BetStore usando SQLite (pure Go, sin CGo).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore abre (o crea) la base de datos en la ruta dada y aplica
// el schema. ":memory:" sirve para tests.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStore: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStore: apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// SaveBet inserta una apuesta nueva.
func (s *SQLiteStore) SaveBet(ctx context.Context, bet domain.Bet) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bets
			(id, market_id, question, category, side, stake, entry_price,
			 kelly_used, probability, confidence, model, reasoning, state,
			 token_id, order_id, fail_reason, proposed_at, placed_at,
			 opened_at, resolved_at, pnl, outcome)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		bet.ID, bet.MarketID, bet.Question, string(bet.Category), string(bet.Side),
		bet.Stake, bet.EntryPrice, bet.KellyUsed, bet.Probability, bet.Confidence,
		bet.Model, bet.Reasoning, string(bet.State), bet.TokenID, bet.OrderID,
		bet.FailReason, nullTime(bet.ProposedAt), nullTime(bet.PlacedAt),
		nullTime(bet.OpenedAt), nullTime(bet.ResolvedAt), bet.PnL, bet.Outcome,
	)
	if err != nil {
		return fmt.Errorf("storage.SaveBet: %s: %w", bet.ID, err)
	}
	return nil
}

// UpdateBet persiste el estado actual de una apuesta existente.
func (s *SQLiteStore) UpdateBet(ctx context.Context, bet domain.Bet) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE bets SET
			state = ?, token_id = ?, order_id = ?, fail_reason = ?,
			stake = ?, kelly_used = ?, placed_at = ?, opened_at = ?,
			resolved_at = ?, pnl = ?, outcome = ?
		WHERE id = ?`,
		string(bet.State), bet.TokenID, bet.OrderID, bet.FailReason,
		bet.Stake, bet.KellyUsed, nullTime(bet.PlacedAt), nullTime(bet.OpenedAt),
		nullTime(bet.ResolvedAt), bet.PnL, bet.Outcome, bet.ID,
	)
	if err != nil {
		return fmt.Errorf("storage.UpdateBet: %s: %w", bet.ID, err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("storage.UpdateBet: %s: %w", bet.ID, sql.ErrNoRows)
	}
	return nil
}

// GetBet devuelve una apuesta por su ID.
func (s *SQLiteStore) GetBet(ctx context.Context, id string) (domain.Bet, error) {
	row := s.db.QueryRowContext(ctx, betSelect+` WHERE id = ?`, id)
	bet, err := scanBet(row)
	if err != nil {
		return domain.Bet{}, fmt.Errorf("storage.GetBet: %s: %w", id, err)
	}
	return bet, nil
}

// GetOpenBets devuelve las apuestas en estados no terminales.
func (s *SQLiteStore) GetOpenBets(ctx context.Context) ([]domain.Bet, error) {
	rows, err := s.db.QueryContext(ctx,
		betSelect+` WHERE state IN (?, ?, ?) ORDER BY proposed_at`,
		string(domain.BetStateReserved), string(domain.BetStatePlaced), string(domain.BetStateOpen),
	)
	if err != nil {
		return nil, fmt.Errorf("storage.GetOpenBets: query: %w", err)
	}
	defer rows.Close()

	var bets []domain.Bet
	for rows.Next() {
		bet, err := scanBet(rows)
		if err != nil {
			return nil, fmt.Errorf("storage.GetOpenBets: scan: %w", err)
		}
		bets = append(bets, bet)
	}
	return bets, rows.Err()
}

// SaveCalibrationRecord añade un registro de calibración. Idempotente por
// bet_id: reinsertar la misma apuesta es un no-op.
func (s *SQLiteStore) SaveCalibrationRecord(ctx context.Context, rec domain.CalibrationRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO calibration_records
			(bet_id, model, predicted, outcome, stake, pnl, bucket)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.BetID, rec.Model, rec.Predicted, rec.Outcome, rec.Stake, rec.PnL, rec.Bucket,
	)
	if err != nil {
		return fmt.Errorf("storage.SaveCalibrationRecord: %s: %w", rec.BetID, err)
	}
	return nil
}

// GetCalibrationRecords devuelve todos los registros de calibración.
func (s *SQLiteStore) GetCalibrationRecords(ctx context.Context) ([]domain.CalibrationRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT bet_id, model, predicted, outcome, stake, pnl, bucket
		FROM calibration_records`)
	if err != nil {
		return nil, fmt.Errorf("storage.GetCalibrationRecords: query: %w", err)
	}
	defer rows.Close()

	var recs []domain.CalibrationRecord
	for rows.Next() {
		var rec domain.CalibrationRecord
		if err := rows.Scan(&rec.BetID, &rec.Model, &rec.Predicted, &rec.Outcome,
			&rec.Stake, &rec.PnL, &rec.Bucket); err != nil {
			return nil, fmt.Errorf("storage.GetCalibrationRecords: scan: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

const betSelect = `
	SELECT id, market_id, question, category, side, stake, entry_price,
	       kelly_used, probability, confidence, model, reasoning, state,
	       token_id, order_id, fail_reason, proposed_at, placed_at,
	       opened_at, resolved_at, pnl, outcome
	FROM bets`

// scanner cubre *sql.Row y *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanBet(row scanner) (domain.Bet, error) {
	var bet domain.Bet
	var category, side, state string
	var proposedAt, placedAt, openedAt, resolvedAt sql.NullTime

	if err := row.Scan(
		&bet.ID, &bet.MarketID, &bet.Question, &category, &side,
		&bet.Stake, &bet.EntryPrice, &bet.KellyUsed, &bet.Probability,
		&bet.Confidence, &bet.Model, &bet.Reasoning, &state,
		&bet.TokenID, &bet.OrderID, &bet.FailReason,
		&proposedAt, &placedAt, &openedAt, &resolvedAt,
		&bet.PnL, &bet.Outcome,
	); err != nil {
		return domain.Bet{}, err
	}

	bet.Category = domain.Category(category)
	bet.Side = domain.Side(side)
	bet.State = domain.BetState(state)
	bet.ProposedAt = proposedAt.Time
	bet.PlacedAt = placedAt.Time
	bet.OpenedAt = openedAt.Time
	bet.ResolvedAt = resolvedAt.Time
	return bet, nil
}

// nullTime mapea el zero time a NULL para no guardar 0001-01-01.
func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t.UTC(), Valid: !t.IsZero()}
}
