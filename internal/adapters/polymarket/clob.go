package polymarket

// clob.go — ejecución real de órdenes vía Polymarket CLOB API.
//
// Implementa ports.Exchange sobre el AuthClient. Toda orden es una limit BUY
// firmada EIP-712: BUY_YES compra el token YES, SELL_YES compra el token NO
// (en un binario son posiciones equivalentes y evita el camino de venta en
// corto).

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/alejandrodnm/polyedge/internal/domain"
)

// CLOBExchange envía órdenes reales al CLOB.
type CLOBExchange struct {
	auth *AuthClient
	log  *slog.Logger

	mu      sync.Mutex
	negRisk map[string]bool // cache por token: qué exchange contract verifica
}

func NewCLOBExchange(auth *AuthClient, log *slog.Logger) *CLOBExchange {
	return &CLOBExchange{auth: auth, log: log, negRisk: map[string]bool{}}
}

// Submit firma y envía una orden limit GTC al precio de entrada de la
// apuesta. Devuelve el order ID del CLOB.
func (e *CLOBExchange) Submit(ctx context.Context, bet domain.Bet) (string, error) {
	if bet.TokenID == "" {
		return "", fmt.Errorf("clob.Submit: bet %s has no token ID", bet.ID)
	}
	if err := e.auth.EnsureCreds(ctx); err != nil {
		return "", fmt.Errorf("clob.Submit: bet %s: %w", bet.ID, err)
	}

	negRisk, err := e.isNegRisk(ctx, bet.TokenID)
	if err != nil {
		return "", fmt.Errorf("clob.Submit: bet %s: %w", bet.ID, err)
	}

	signed, err := e.auth.buildSignedOrder(bet.TokenID, bet.EntryPrice, bet.Stake, negRisk)
	if err != nil {
		return "", fmt.Errorf("clob.Submit: bet %s: %w", bet.ID, err)
	}

	body := clobSubmitRequest{
		Order: clobSignedOrder{
			Salt:          json.Number(signed.Order.Salt.String()),
			Maker:         signed.Order.Maker.Hex(),
			Signer:        signed.Order.Signer.Hex(),
			Taker:         signed.Order.Taker.Hex(),
			TokenID:       bet.TokenID,
			MakerAmount:   signed.Order.MakerAmount.String(),
			TakerAmount:   signed.Order.TakerAmount.String(),
			Expiration:    signed.Order.Expiration.String(),
			Nonce:         signed.Order.Nonce.String(),
			FeeRateBps:    signed.Order.FeeRateBps.String(),
			Side:          "BUY",
			SignatureType: int(signed.Order.SignatureType.Int64()),
			Signature:     "0x" + hex.EncodeToString(signed.Signature),
		},
		Owner:     e.auth.creds.APIKey,
		OrderType: "GTC",
	}

	var resp clobOrderResponse
	if err := e.auth.doL2(ctx, http.MethodPost, "/order", body, &resp); err != nil {
		return "", fmt.Errorf("clob.Submit: bet %s: %w", bet.ID, err)
	}
	if !resp.Success || resp.Error != "" {
		return "", fmt.Errorf("clob.Submit: bet %s rejected: %s", bet.ID, resp.Error)
	}

	e.log.Info("order submitted", "bet", bet.ID, "order", resp.OrderID,
		"side", bet.Side, "price", bet.EntryPrice, "stake", bet.Stake, "negRisk", negRisk)
	return resp.OrderID, nil
}

// PollFill consulta el estado de la orden.
func (e *CLOBExchange) PollFill(ctx context.Context, orderID string) (domain.FillStatus, error) {
	var status clobOrderStatus
	if err := e.auth.doL2(ctx, http.MethodGet, "/data/order/"+orderID, nil, &status); err != nil {
		return "", fmt.Errorf("clob.PollFill: order %s: %w", orderID, err)
	}

	switch strings.ToUpper(status.Status) {
	case "MATCHED":
		return domain.FillFilled, nil
	case "CANCELED", "CANCELLED":
		return domain.FillCancelled, nil
	case "LIVE", "DELAYED":
		// Fill parcial cuenta como pendiente: el engine espera el resto o
		// cancela en el timeout.
		return domain.FillPending, nil
	default:
		return domain.FillRejected, nil
	}
}

// Cancel cancela una orden abierta. Idempotente: cancelar una orden ya
// cerrada no es error. Devuelve false si el CLOB rechazó la cancelación,
// normalmente porque la orden se llenó justo antes.
func (e *CLOBExchange) Cancel(ctx context.Context, orderID string) (bool, error) {
	var resp clobCancelResponse
	if err := e.auth.doL2(ctx, http.MethodDelete, "/order/"+orderID, nil, &resp); err != nil {
		return false, fmt.Errorf("clob.Cancel: order %s: %w", orderID, err)
	}
	if reason, notCancelled := resp.NotCanceled[orderID]; notCancelled {
		e.log.Debug("order not cancelled", "order", orderID, "reason", reason)
		return false, nil
	}
	return true, nil
}

// isNegRisk resuelve contra qué exchange contract hay que firmar la orden.
// El CLOB lo expone por token; el resultado no cambia, así que se cachea.
func (e *CLOBExchange) isNegRisk(ctx context.Context, tokenID string) (bool, error) {
	e.mu.Lock()
	if v, ok := e.negRisk[tokenID]; ok {
		e.mu.Unlock()
		return v, nil
	}
	e.mu.Unlock()

	url := fmt.Sprintf("%s/neg-risk?token_id=%s", e.auth.clobBase, tokenID)
	var resp clobNegRiskResponse
	if err := e.auth.get(ctx, e.auth.clobLimiter, url, &resp); err != nil {
		return false, fmt.Errorf("neg-risk check: %w", err)
	}

	e.mu.Lock()
	e.negRisk[tokenID] = resp.NegRisk
	e.mu.Unlock()
	return resp.NegRisk, nil
}
