package polymarket

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/polyedge/internal/domain"
)

// mapGammaMarket convierte un DTO de Gamma a domain.Market. Devuelve false
// si el mercado no es un binario YES/NO usable.
func mapGammaMarket(gm gammaMarket) (domain.Market, bool) {
	yes, no, ok := parseOutcomePrices(gm.Outcomes, gm.OutcomePrices)
	if !ok {
		return domain.Market{}, false
	}

	m := domain.Market{
		ID:       gm.ID,
		Question: gm.Question,
		YesPrice: yes,
		NoPrice:  no,
		Resolved: gm.Closed,
	}
	if v, err := gm.Volume24h.Float64(); err == nil {
		m.Volume24h = v
	}
	if v, err := gm.Liquidity.Float64(); err == nil {
		m.Liquidity = v
	}
	if tokens := parseTokenIDs(gm.ClobTokenIDs); len(tokens) == 2 {
		// Gamma devuelve los tokens en el orden de outcomes: [YES, NO].
		m.YesTokenID = tokens[0]
		m.NoTokenID = tokens[1]
	}
	if gm.EndDateISO != "" {
		// Polymarket usa varios formatos; intentamos los más comunes
		for _, layout := range []string{
			time.RFC3339,
			"2006-01-02T15:04:05.000Z",
			"2006-01-02T15:04:05Z",
			"2006-01-02",
		} {
			if t, err := time.Parse(layout, gm.EndDateISO); err == nil {
				m.EndDate = t.UTC()
				break
			}
		}
	}

	classify(&m)
	return m, true
}

// parseOutcomePrices extrae los precios YES/NO de los arrays JSON embebidos
// que devuelve Gamma. Solo acepta binarios Yes/No con precios válidos.
func parseOutcomePrices(outcomesRaw, pricesRaw string) (yes, no float64, ok bool) {
	var outcomes, prices []string
	if err := json.Unmarshal([]byte(outcomesRaw), &outcomes); err != nil {
		return 0, 0, false
	}
	if err := json.Unmarshal([]byte(pricesRaw), &prices); err != nil {
		return 0, 0, false
	}
	if len(outcomes) != 2 || len(prices) != 2 {
		return 0, 0, false
	}

	for i, outcome := range outcomes {
		price, err := strconv.ParseFloat(prices[i], 64)
		if err != nil || price < 0 || price > 1 {
			return 0, 0, false
		}
		switch strings.ToLower(outcome) {
		case "yes":
			yes = price
		case "no":
			no = price
		default:
			return 0, 0, false
		}
	}
	if yes <= 0 && no <= 0 {
		return 0, 0, false
	}
	return yes, no, true
}

// parseTokenIDs extrae los token IDs del array JSON embebido.
func parseTokenIDs(raw string) []string {
	if raw == "" {
		return nil
	}
	var tokens []string
	if err := json.Unmarshal([]byte(raw), &tokens); err != nil {
		return nil
	}
	return tokens
}

// resolvedOutcome decide el outcome de un mercado cerrado: el lado cuyo
// precio liquidó en ~1.
func resolvedOutcome(gm gammaMarket) (string, bool) {
	yes, _, ok := parseOutcomePrices(gm.Outcomes, gm.OutcomePrices)
	if !ok {
		return "", false
	}
	if yes >= 0.99 {
		return "YES", true
	}
	if yes <= 0.01 {
		return "NO", true
	}
	return "", false
}

var (
	cryptoAssetRe = regexp.MustCompile(`(?i)\b(bitcoin|btc|ethereum|eth|solana|sol|xrp|dogecoin)\b`)
	// "$100K", "$100,000", "$1.5M"
	targetPriceRe = regexp.MustCompile(`\$\s?([0-9][0-9,\.]*)\s?([kKmM]?)`)
	macroRe       = regexp.MustCompile(`(?i)\b(fed|fomc|rate cut|rate hike|recession|cpi|inflation|gdp|unemployment|treasury)\b`)
	aboveRe       = regexp.MustCompile(`(?i)\b(above|reach|hit|exceed|higher than|over)\b`)
	belowRe       = regexp.MustCompile(`(?i)\b(below|under|dip|fall|drop|lower than)\b`)
)

// Ventana bajo la cual un mercado se trata como near-resolution.
const nearResolutionCutoff = 48 * time.Hour

// classify asigna la categoría del mercado y, para cripto, extrae los
// parámetros del modelo (target y dirección) de la pregunta.
func classify(m *domain.Market) {
	q := m.Question

	if cryptoAssetRe.MatchString(q) {
		if target, ok := parseTargetPrice(q); ok {
			m.Category = domain.CategoryCrypto
			m.TargetPrice = target
			// "above"/"reach" es el default; "below"/"dip" invierte, salvo
			// que la pregunta diga explícitamente ambos lados.
			m.TargetAbove = aboveRe.MatchString(q) || !belowRe.MatchString(q)
			return
		}
	}
	if macroRe.MatchString(q) {
		m.Category = domain.CategoryMacro
		return
	}

	implied := m.ImpliedProbability()
	switch {
	case implied > 0 && implied < 0.10:
		m.Category = domain.CategoryLongshot
	case !m.EndDate.IsZero() && time.Until(m.EndDate) <= nearResolutionCutoff:
		m.Category = domain.CategoryNearResolution
	default:
		m.Category = domain.CategoryGeneric
	}
}

// parseTargetPrice extrae el precio objetivo de la pregunta: "$100K" → 100000.
func parseTargetPrice(question string) (float64, bool) {
	match := targetPriceRe.FindStringSubmatch(question)
	if match == nil {
		return 0, false
	}
	raw := strings.ReplaceAll(match[1], ",", "")
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value <= 0 {
		return 0, false
	}
	switch strings.ToLower(match[2]) {
	case "k":
		value *= 1_000
	case "m":
		value *= 1_000_000
	}
	return value, true
}
