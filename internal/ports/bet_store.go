package ports

import (
	"context"

	"github.com/alejandrodnm/polyedge/internal/domain"
)

// BetStore persiste apuestas y registros de calibración.
// El sistema no ejecuta ningún ciclo sin un store disponible: una apuesta
// viva sin tracking duradero es exposición de capital sin reconciliar.
type BetStore interface {
	// SaveBet inserta una apuesta nueva.
	SaveBet(ctx context.Context, bet domain.Bet) error

	// UpdateBet persiste el estado actual de una apuesta existente.
	UpdateBet(ctx context.Context, bet domain.Bet) error

	// GetBet devuelve una apuesta por su ID.
	GetBet(ctx context.Context, id string) (domain.Bet, error)

	// GetOpenBets devuelve las apuestas en estados no terminales.
	GetOpenBets(ctx context.Context) ([]domain.Bet, error)

	// SaveCalibrationRecord añade un registro de calibración (append-only).
	SaveCalibrationRecord(ctx context.Context, rec domain.CalibrationRecord) error

	// GetCalibrationRecords devuelve todos los registros de calibración.
	GetCalibrationRecords(ctx context.Context) ([]domain.CalibrationRecord, error)

	// Close cierra la conexión limpiamente.
	Close() error
}
