package ports

import (
	"context"

	"github.com/alejandrodnm/polyedge/internal/domain"
)

// Exchange submits, polls, and cancels orders on the trading platform.
// The execution state machine treats it as the sole source of truth for
// PLACED/OPEN transitions.
type Exchange interface {
	// Submit places the order for the bet and returns the exchange order handle.
	Submit(ctx context.Context, bet domain.Bet) (orderID string, err error)

	// PollFill returns the current fill status of an order.
	PollFill(ctx context.Context, orderID string) (domain.FillStatus, error)

	// Cancel cancels an open order. Idempotent: cancelling an already
	// filled or cancelled order is not an error. cancelled=false means the
	// exchange refused the cancel, typically because the order filled
	// first — callers must re-poll before treating the order as dead.
	Cancel(ctx context.Context, orderID string) (cancelled bool, err error)
}
