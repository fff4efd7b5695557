package probability

import "math"

// normCDF es la distribución normal acumulada estándar, vía math.Erf.
func normCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

// Term structure de volatilidad anualizada por horizonte en días, calibrada
// sobre vol realizada histórica de BTC más la prima de implied típica.
var volTermStructure = []struct {
	days float64
	vol  float64
}{
	{7, 0.85},
	{14, 0.80},
	{30, 0.72},
	{60, 0.68},
	{90, 0.65},
	{180, 0.60},
	{365, 0.55},
	{730, 0.50},
}

// termVol devuelve la vol anualizada interpolada para un horizonte en días.
func termVol(days float64) float64 {
	if days <= volTermStructure[0].days {
		return volTermStructure[0].vol
	}
	last := volTermStructure[len(volTermStructure)-1]
	if days >= last.days {
		return last.vol
	}
	for i := 1; i < len(volTermStructure); i++ {
		lo, hi := volTermStructure[i-1], volTermStructure[i]
		if days <= hi.days {
			t := (days - lo.days) / (hi.days - lo.days)
			return lo.vol + t*(hi.vol-lo.vol)
		}
	}
	return last.vol
}
