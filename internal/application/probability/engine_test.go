package probability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polyedge/internal/domain"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func cryptoMarket(spot, target, vol float64, days float64) domain.Market {
	return domain.Market{
		ID:          "btc-test",
		Question:    "Will Bitcoin be above $100K?",
		Category:    domain.CategoryCrypto,
		YesPrice:    0.40,
		NoPrice:     0.60,
		SpotPrice:   spot,
		TargetPrice: target,
		AnnualVol:   vol,
		TargetAbove: true,
		EndDate:     testNow.Add(time.Duration(days*24) * time.Hour),
	}
}

func TestCryptoVolAtTheMoney(t *testing.T) {
	model := &CryptoVolModel{}

	// Spot en el strike: la deriva del término -σ²T/2 deja la prob algo
	// por debajo de 0.5, pero cerca.
	est, err := model.Estimate(cryptoMarket(100_000, 100_000, 0.60, 30), testNow)
	require.NoError(t, err)
	assert.InDelta(t, 0.47, est.Probability, 0.03)
	assert.Equal(t, "crypto-vol", est.Model)
}

func TestCryptoVolDeterministic(t *testing.T) {
	model := &CryptoVolModel{}
	m := cryptoMarket(95_000, 100_000, 0.55, 45)

	a, err := model.Estimate(m, testNow)
	require.NoError(t, err)
	b, err := model.Estimate(m, testNow)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCryptoVolDirectionality(t *testing.T) {
	model := &CryptoVolModel{}

	deep, err := model.Estimate(cryptoMarket(80_000, 100_000, 0.50, 30), testNow)
	require.NoError(t, err)
	near, err := model.Estimate(cryptoMarket(99_000, 100_000, 0.50, 30), testNow)
	require.NoError(t, err)
	assert.Less(t, deep.Probability, near.Probability, "más lejos del target, menos probable")

	// TargetAbove=false invierte la probabilidad.
	m := cryptoMarket(80_000, 100_000, 0.50, 30)
	m.TargetAbove = false
	below, err := model.Estimate(m, testNow)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, deep.Probability+below.Probability, 0.001)
}

func TestCryptoVolClampsExtremes(t *testing.T) {
	model := &CryptoVolModel{}

	est, err := model.Estimate(cryptoMarket(10_000, 100_000, 0.30, 7), testNow)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, est.Probability, 0.01)

	est, err = model.Estimate(cryptoMarket(1_000_000, 100_000, 0.30, 7), testNow)
	require.NoError(t, err)
	assert.LessOrEqual(t, est.Probability, 0.99)
}

func TestCryptoVolGuards(t *testing.T) {
	model := &CryptoVolModel{}

	_, err := model.Estimate(cryptoMarket(100_000, 0, 0.50, 30), testNow)
	assert.ErrorIs(t, err, ErrModelInapplicable)

	_, err = model.Estimate(cryptoMarket(0, 100_000, 0.50, 30), testNow)
	assert.ErrorIs(t, err, ErrModelInapplicable)

	expired := cryptoMarket(100_000, 100_000, 0.50, 30)
	expired.EndDate = testNow.Add(-time.Hour)
	_, err = model.Estimate(expired, testNow)
	assert.ErrorIs(t, err, ErrInvalidHorizon)

	_, err = model.Estimate(cryptoMarket(100_000, 100_000, -0.5, 30), testNow)
	assert.ErrorIs(t, err, ErrInvalidVolatility)
}

func TestCryptoVolTermStructureFallback(t *testing.T) {
	model := &CryptoVolModel{}

	// Vol cero significa "no informada": se usa la term structure, sin error.
	est, err := model.Estimate(cryptoMarket(100_000, 100_000, 0, 30), testNow)
	require.NoError(t, err)
	assert.Greater(t, est.Probability, 0.0)
}

func TestCryptoVolSpotDefault(t *testing.T) {
	model := &CryptoVolModel{SpotDefault: 100_000}
	m := cryptoMarket(0, 100_000, 0.50, 30)

	est, err := model.Estimate(m, testNow)
	require.NoError(t, err)
	assert.InDelta(t, 0.47, est.Probability, 0.05)
}

func longshotMarket(yesPrice float64, days float64) domain.Market {
	return domain.Market{
		ID:       "ls-test",
		Question: "Will X happen?",
		Category: domain.CategoryLongshot,
		YesPrice: yesPrice,
		NoPrice:  1 - yesPrice,
		EndDate:  testNow.Add(time.Duration(days*24) * time.Hour),
	}
}

func TestLongshotShrinksCheapMarkets(t *testing.T) {
	model := &LongshotModel{}

	est, err := model.Estimate(longshotMarket(0.05, 60), testNow)
	require.NoError(t, err)
	assert.InDelta(t, 0.05*0.45, est.Probability, 1e-9)
	assert.InDelta(t, 0.65, est.Confidence, 1e-9)

	// En la banda intermedia hay shrink parcial y confianza menor.
	est, err = model.Estimate(longshotMarket(0.20, 60), testNow)
	require.NoError(t, err)
	assert.Less(t, est.Probability, 0.20)
	assert.InDelta(t, 0.40, est.Confidence, 1e-9)
}

func TestLongshotNeverIncreasesBelowBand(t *testing.T) {
	model := &LongshotModel{}
	for _, p := range []float64{0.02, 0.05, 0.10, 0.20, 0.29} {
		est, err := model.Estimate(longshotMarket(p, 60), testNow)
		require.NoError(t, err)
		assert.LessOrEqual(t, est.Probability, p)
	}
}

func TestLongshotFavoriteLift(t *testing.T) {
	model := &LongshotModel{}

	est, err := model.Estimate(longshotMarket(0.95, 60), testNow)
	require.NoError(t, err)
	assert.InDelta(t, min(0.98, 0.95*1.03), est.Probability, 1e-9)
	assert.InDelta(t, 0.55, est.Confidence, 1e-9)
}

func TestLongshotNearResolutionNudge(t *testing.T) {
	model := &LongshotModel{}

	far, err := model.Estimate(longshotMarket(0.88, 30), testNow)
	require.NoError(t, err)
	assert.InDelta(t, 0.88, far.Probability, 1e-9)

	near, err := model.Estimate(longshotMarket(0.88, 2), testNow)
	require.NoError(t, err)
	assert.InDelta(t, 0.92, near.Probability, 1e-9)
	assert.InDelta(t, 0.60, near.Confidence, 1e-9)
}

func TestLongshotMidRangeTrustsMarket(t *testing.T) {
	model := &LongshotModel{}

	est, err := model.Estimate(longshotMarket(0.55, 60), testNow)
	require.NoError(t, err)
	assert.InDelta(t, 0.55, est.Probability, 1e-9)
	assert.InDelta(t, 0.20, est.Confidence, 1e-9)
}

func macroMarket(question string) domain.Market {
	return domain.Market{
		ID:       "macro-test",
		Question: question,
		Category: domain.CategoryMacro,
		YesPrice: 0.50,
		NoPrice:  0.50,
		EndDate:  testNow.Add(90 * 24 * time.Hour),
	}
}

func TestMacroPriors(t *testing.T) {
	model := &MacroModel{}

	cases := []struct {
		question string
		want     float64
	}{
		{"Will the Fed announce a rate cut in September?", 0.15},
		{"Will the Fed hike in 2025?", 0.05},
		{"Will the US enter a recession by end of year?", 0.30},
		{"Will CPI come in above 3.5%?", 0.45},
	}
	for _, tc := range cases {
		est, err := model.Estimate(macroMarket(tc.question), testNow)
		require.NoError(t, err)
		assert.InDelta(t, tc.want, est.Probability, 1e-9, tc.question)
	}
}

func TestMacroIndicatorBlend(t *testing.T) {
	model := &MacroModel{}

	m := macroMarket("Will CPI come in above 3.5%?")
	m.Forecast = 3.8
	m.Threshold = 3.5
	m.SurpriseStdDev = 0.2

	est, err := model.Estimate(m, testNow)
	require.NoError(t, err)
	// z = 1.5 → Φ(z) ≈ 0.933; blend 0.6×0.933 + 0.4×0.45 ≈ 0.74
	assert.InDelta(t, 0.74, est.Probability, 0.01)
	assert.Greater(t, est.Probability, 0.45, "indicador por encima del umbral sube la prob")
}

func TestMacroStaleForecastLowersConfidence(t *testing.T) {
	model := &MacroModel{StaleAfter: 24 * time.Hour}

	fresh := macroMarket("Will the Fed announce a rate cut in September?")
	fresh.ForecastAge = 6 * time.Hour
	stale := fresh
	stale.ForecastAge = 96 * time.Hour

	freshEst, err := model.Estimate(fresh, testNow)
	require.NoError(t, err)
	staleEst, err := model.Estimate(stale, testNow)
	require.NoError(t, err)
	assert.Less(t, staleEst.Confidence, freshEst.Confidence)
	assert.Equal(t, freshEst.Probability, staleEst.Probability, "staleness sólo toca la confianza")
}

func TestMacroUnknownQuestionFollowsMarket(t *testing.T) {
	model := &MacroModel{}

	m := macroMarket("Will something unusual happen?")
	m.YesPrice = 0.63
	m.NoPrice = 0.37

	est, err := model.Estimate(m, testNow)
	require.NoError(t, err)
	assert.InDelta(t, 0.63, est.Probability, 1e-9)
	assert.LessOrEqual(t, est.Confidence, 0.25)
}

func TestEngineDispatchByCategory(t *testing.T) {
	eng := NewEngine(Config{})

	est, err := eng.Estimate(cryptoMarket(100_000, 100_000, 0.50, 30), testNow)
	require.NoError(t, err)
	assert.Equal(t, "crypto-vol", est.Model)

	est, err = eng.Estimate(macroMarket("Will the Fed hike in 2025?"), testNow)
	require.NoError(t, err)
	assert.Equal(t, "macro", est.Model)

	est, err = eng.Estimate(longshotMarket(0.05, 60), testNow)
	require.NoError(t, err)
	assert.Equal(t, "longshot-bias", est.Model)
}

func TestEngineFallbackForGeneric(t *testing.T) {
	eng := NewEngine(Config{})

	m := longshotMarket(0.50, 60)
	m.Category = domain.CategoryGeneric

	est, err := eng.Estimate(m, testNow)
	require.NoError(t, err)
	assert.Equal(t, "longshot-bias", est.Model)
}

func TestEngineWeightAdjustsConfidence(t *testing.T) {
	eng := NewEngine(Config{})
	m := longshotMarket(0.05, 60)

	base, err := eng.Estimate(m, testNow)
	require.NoError(t, err)

	eng.SetModelWeights(map[string]float64{"longshot-bias": 0.5})
	weighted, err := eng.Estimate(m, testNow)
	require.NoError(t, err)
	assert.InDelta(t, base.Confidence*0.5, weighted.Confidence, 1e-9)
}

func TestEnginePropagatesModelErrors(t *testing.T) {
	eng := NewEngine(Config{})

	_, err := eng.Estimate(cryptoMarket(100_000, 0, 0.50, 30), testNow)
	assert.ErrorIs(t, err, ErrModelInapplicable)
}
