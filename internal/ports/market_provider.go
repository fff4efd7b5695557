package ports

import (
	"context"

	"github.com/alejandrodnm/polyedge/internal/domain"
)

// MarketProvider obtiene snapshots de mercados activos.
type MarketProvider interface {
	// FetchMarkets devuelve el snapshot de mercados del ciclo actual.
	// Los IDs son estables entre ciclos para poder correlacionar apuestas abiertas.
	FetchMarkets(ctx context.Context) ([]domain.Market, error)

	// FetchResolution consulta si un mercado concreto ya resolvió.
	// Devuelve el outcome ("YES"/"NO"), o resolved=false si sigue abierto.
	FetchResolution(ctx context.Context, marketID string) (outcome string, resolved bool, err error)
}
