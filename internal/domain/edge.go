package domain

import (
	"math"
	"time"
)

// Umbrales de la corrección por longshot bias, calibrados sobre el
// sobrepago retail observado en probabilidades bajas.
const (
	longshotDeepBelow = 0.08 // por debajo de esto el retail paga ~2-3x la prob real
	longshotBandUpper = 0.30 // desde aquí hacia arriba no hay corrección
	longshotDeepShrink = 0.45
)

// ExpectedValue calcula el EV por unidad apostada de comprar un lado a price
// cuando su probabilidad real estimada es prob. Payout binario de $1:
// EV = prob×1 − price.
func ExpectedValue(prob, price float64) float64 {
	return prob - price
}

// NetOdds devuelve las odds netas b que ofrece un precio binario:
// pagas price, recibes $1 si aciertas → b = (1/price) − 1.
// Devuelve 0 para precios fuera de (0,1).
func NetOdds(price float64) float64 {
	if price <= 0 || price >= 1 {
		return 0
	}
	return 1.0/price - 1.0
}

// KellyFraction calcula la fracción de Kelly completa f* = (p·b − q)/b.
// Puede ser negativa: el caller decide si eso es un rechazo.
func KellyFraction(prob, price float64) float64 {
	b := NetOdds(price)
	if b <= 0 {
		return 0
	}
	return (prob*b - (1 - prob)) / b
}

// LongshotShrink aplica la corrección por longshot bias a una probabilidad
// implícita. Monotónica: nunca sube la probabilidad. Sin efecto en [0.30, 1].
// La magnitud del shrink crece cuanto más baja es la probabilidad implícita,
// hasta ×0.45 por debajo de 0.08.
func LongshotShrink(implied float64) float64 {
	if implied >= longshotBandUpper {
		return implied
	}
	factor := longshotDeepShrink
	if implied > longshotDeepBelow {
		// Interpolación lineal entre (0.08, 0.45) y (0.30, 1.0).
		t := (implied - longshotDeepBelow) / (longshotBandUpper - longshotDeepBelow)
		factor = longshotDeepShrink + t*(1.0-longshotDeepShrink)
	}
	p := implied * factor
	return math.Max(0.01, p)
}

// NearResolutionPenalty calcula el descuento de EV para mercados dentro de la
// ventana previa a su resolución. Crece linealmente hacia maxPenalty cuando el
// tiempo restante tiende a cero. Siempre ≥ 0 y exactamente 0 fuera de la ventana.
func NearResolutionPenalty(timeToResolution, window time.Duration, maxPenalty float64) float64 {
	if window <= 0 || maxPenalty <= 0 {
		return 0
	}
	if timeToResolution >= window {
		return 0
	}
	remaining := timeToResolution.Seconds()
	if remaining < 0 {
		remaining = 0
	}
	return maxPenalty * (1 - remaining/window.Seconds())
}

// SettlePnL calcula el P&L realizado de una apuesta resuelta.
// Si ganó: stake×(1/price − 1). Si perdió: −stake.
func SettlePnL(won bool, stake, price float64) float64 {
	if !won {
		return -stake
	}
	if price <= 0 {
		return 0
	}
	return stake * (1.0/price - 1.0)
}
