package polymarket

import "encoding/json"

// DTOs raw de la API de Polymarket. Solo se usan dentro de este paquete.
// La conversión a domain entities se hace en mapping.go.

// --- Gamma API ---

// gammaMarketsResponse es la respuesta de GET /markets de Gamma.
type gammaMarketsResponse []gammaMarket

// gammaMarket es un mercado de Gamma. Gamma devuelve bastantes campos
// numéricos como strings JSON, usamos json.Number.
type gammaMarket struct {
	ID            string      `json:"id"`
	ConditionID   string      `json:"conditionId"`
	Question      string      `json:"question"`
	Slug          string      `json:"slug"`
	EndDateISO    string      `json:"endDateIso"`
	Volume24h     json.Number `json:"volume24hr"`
	Liquidity     json.Number `json:"liquidity"`
	Active        bool        `json:"active"`
	Closed        bool        `json:"closed"`
	Outcomes      string      `json:"outcomes"`      // JSON array embebido: ["Yes","No"]
	OutcomePrices string      `json:"outcomePrices"` // JSON array embebido: ["0.42","0.58"]
	ClobTokenIDs  string      `json:"clobTokenIds"`  // JSON array embebido
}

// --- CLOB API ---

// clobSubmitRequest es el body del POST /order autenticado. El CLOB no acepta
// órdenes sin firmar: Order lleva la orden EIP-712 ya firmada por el wallet.
type clobSubmitRequest struct {
	Order     clobSignedOrder `json:"order"`
	Owner     string          `json:"owner"`     // API key derivada del wallet
	OrderType string          `json:"orderType"` // GTC
}

// clobSignedOrder es la orden firmada serializada como la espera el CLOB.
// Los amounts van como strings en micro-unidades (6 decimales).
type clobSignedOrder struct {
	Salt          json.Number `json:"salt"`
	Maker         string      `json:"maker"`
	Signer        string      `json:"signer"`
	Taker         string      `json:"taker"`
	TokenID       string      `json:"tokenId"`
	MakerAmount   string      `json:"makerAmount"`
	TakerAmount   string      `json:"takerAmount"`
	Expiration    string      `json:"expiration"`
	Nonce         string      `json:"nonce"`
	FeeRateBps    string      `json:"feeRateBps"`
	Side          string      `json:"side"`
	SignatureType int         `json:"signatureType"`
	Signature     string      `json:"signature"`
}

// clobOrderResponse es la respuesta del POST /order.
type clobOrderResponse struct {
	Success bool   `json:"success"`
	OrderID string `json:"orderID"`
	Status  string `json:"status"`
	Error   string `json:"errorMsg"`
}

// clobOrderStatus es la respuesta de GET /data/order/{id}.
type clobOrderStatus struct {
	ID           string      `json:"id"`
	Status       string      `json:"status"` // LIVE | MATCHED | CANCELED
	SizeMatched  json.Number `json:"size_matched"`
	OriginalSize json.Number `json:"original_size"`
}

// clobCancelResponse es la respuesta del DELETE /order/{id}.
type clobCancelResponse struct {
	Canceled    []string          `json:"canceled"`
	NotCanceled map[string]string `json:"not_canceled"`
}

// clobNegRiskResponse es la respuesta de GET /neg-risk.
type clobNegRiskResponse struct {
	NegRisk bool `json:"neg_risk"`
}
