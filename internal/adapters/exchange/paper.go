package exchange

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alejandrodnm/polyedge/internal/domain"
)

// Paper simula el exchange para paper trading: toda orden se acepta y se
// reporta como filled en el primer poll. Guarda las órdenes en memoria para
// poder inspeccionarlas.
type Paper struct {
	mu     sync.Mutex
	log    *slog.Logger
	seq    int
	orders map[string]domain.Bet
}

func NewPaper(log *slog.Logger) *Paper {
	return &Paper{log: log, orders: map[string]domain.Bet{}}
}

func (p *Paper) Submit(_ context.Context, bet domain.Bet) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.seq++
	orderID := fmt.Sprintf("paper-%06d", p.seq)
	p.orders[orderID] = bet

	p.log.Info("paper order filled at market price",
		"bet", bet.ID, "order", orderID, "side", bet.Side,
		"price", bet.EntryPrice, "stake", bet.Stake)
	return orderID, nil
}

func (p *Paper) PollFill(_ context.Context, orderID string) (domain.FillStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.orders[orderID]; !ok {
		return domain.FillRejected, fmt.Errorf("paper: unknown order %s", orderID)
	}
	return domain.FillFilled, nil
}

func (p *Paper) Cancel(_ context.Context, orderID string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.orders, orderID)
	return true, nil
}

// Orders devuelve el número de órdenes simuladas vivas.
func (p *Paper) Orders() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.orders)
}
