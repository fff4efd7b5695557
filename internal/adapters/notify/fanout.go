package notify

import (
	"context"
	"errors"

	"github.com/alejandrodnm/polyedge/internal/domain"
	"github.com/alejandrodnm/polyedge/internal/ports"
)

// Fanout reenvía cada notificación a todos los sinks configurados.
// Acumula los errores en vez de cortar en el primero: un Telegram caído no
// debe silenciar la consola.
type Fanout struct {
	sinks []ports.Notifier
}

func NewFanout(sinks ...ports.Notifier) *Fanout {
	return &Fanout{sinks: sinks}
}

func (f *Fanout) NotifyBet(ctx context.Context, bet domain.Bet) error {
	var errs []error
	for _, sink := range f.sinks {
		errs = append(errs, sink.NotifyBet(ctx, bet))
	}
	return errors.Join(errs...)
}

func (f *Fanout) NotifyCycle(ctx context.Context, candidates []domain.EdgeCandidate, bets []domain.Bet) error {
	var errs []error
	for _, sink := range f.sinks {
		errs = append(errs, sink.NotifyCycle(ctx, candidates, bets))
	}
	return errors.Join(errs...)
}

func (f *Fanout) NotifyReport(ctx context.Context, report domain.CalibrationReport) error {
	var errs []error
	for _, sink := range f.sinks {
		errs = append(errs, sink.NotifyReport(ctx, report))
	}
	return errors.Join(errs...)
}
