package ports

import (
	"context"

	"github.com/alejandrodnm/polyedge/internal/domain"
)

// Notifier es un sink de notificaciones fire-and-forget.
// Sus errores se loguean y jamás bloquean ni abortan el ciclo de decisión.
type Notifier interface {
	// NotifyBet informa de una transición de estado de una apuesta.
	NotifyBet(ctx context.Context, bet domain.Bet) error

	// NotifyCycle informa del resumen de un ciclo: candidatos rankeados y
	// apuestas ejecutadas.
	NotifyCycle(ctx context.Context, candidates []domain.EdgeCandidate, bets []domain.Bet) error

	// NotifyReport informa del reporte de calibración agregado.
	NotifyReport(ctx context.Context, report domain.CalibrationReport) error
}
