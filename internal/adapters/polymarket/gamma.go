package polymarket

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/polyedge/internal/domain"
)

const (
	gammaMarketsPath = "/markets"
	gammaPageSize    = 100
	gammaMaxPages    = 10
)

// Provider implementa ports.MarketProvider sobre la Gamma API.
type Provider struct {
	client *Client
	log    *slog.Logger
}

func NewProvider(client *Client, log *slog.Logger) *Provider {
	return &Provider{client: client, log: log}
}

// FetchMarkets devuelve el snapshot de mercados binarios activos, paginando
// Gamma hasta agotar resultados o llegar al tope de páginas.
func (p *Provider) FetchMarkets(ctx context.Context) ([]domain.Market, error) {
	var markets []domain.Market
	skipped := 0

	for page := 0; page < gammaMaxPages; page++ {
		url := fmt.Sprintf("%s%s?active=true&closed=false&limit=%d&offset=%d&order=volume24hr&ascending=false",
			p.client.gammaBase, gammaMarketsPath, gammaPageSize, page*gammaPageSize)

		var resp gammaMarketsResponse
		if err := p.client.get(ctx, p.client.gammaLimiter, url, &resp); err != nil {
			return nil, fmt.Errorf("polymarket.FetchMarkets: page %d: %w", page, err)
		}
		if len(resp) == 0 {
			break
		}

		for _, gm := range resp {
			m, ok := mapGammaMarket(gm)
			if !ok {
				skipped++
				continue
			}
			markets = append(markets, m)
		}
		if len(resp) < gammaPageSize {
			break
		}
	}

	p.log.Debug("market snapshot fetched", "markets", len(markets), "skipped", skipped)
	return markets, nil
}

// FetchResolution consulta un mercado concreto y devuelve su outcome si ya
// cerró. Un mercado cerrado sin precios definidos se reporta como no resuelto;
// el siguiente barrido lo reintenta.
func (p *Provider) FetchResolution(ctx context.Context, marketID string) (string, bool, error) {
	url := fmt.Sprintf("%s%s/%s", p.client.gammaBase, gammaMarketsPath, marketID)

	var gm gammaMarket
	if err := p.client.get(ctx, p.client.gammaLimiter, url, &gm); err != nil {
		return "", false, fmt.Errorf("polymarket.FetchResolution: market %s: %w", marketID, err)
	}
	if !gm.Closed {
		return "", false, nil
	}

	outcome, ok := resolvedOutcome(gm)
	if !ok {
		p.log.Debug("closed market without settled prices", "market", marketID)
		return "", false, nil
	}
	return outcome, true, nil
}
