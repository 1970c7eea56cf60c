package risk

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Parametric
// =============================================================================

func TestParametricOracle(t *testing.T) {
	s := mustSeries(t, oracleReturns)
	e := NewParametricEstimator()

	got, err := e.Estimate(s, testConfig())
	require.NoError(t, err)
	assert.InDelta(t, 24231.43, got, 0.01)

	cfg := testConfig()
	cfg.Horizon = 5
	got, err = e.Estimate(s, cfg)
	require.NoError(t, err)
	assert.InDelta(t, 50037.23, got, 0.01)
}

func TestParametricDeterministic(t *testing.T) {
	s := mustSeries(t, syntheticReturns(252, 1))
	e := NewParametricEstimator()

	a, err := e.Estimate(s, testConfig())
	require.NoError(t, err)
	b, err := e.Estimate(s, testConfig())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestParametricZeroVariance(t *testing.T) {
	flat := make([]float64, 20)
	for i := range flat {
		flat[i] = 0.001
	}
	got, err := NewParametricEstimator().Estimate(mustSeries(t, flat), testConfig())
	require.NoError(t, err)
	// σ=0 → 평균 항만 남음
	assert.InDelta(t, 1000, got, 1e-6)
}

func TestParametricErrors(t *testing.T) {
	s := mustSeries(t, oracleReturns)
	e := NewParametricEstimator()

	cfg := testConfig()
	cfg.Confidence = 0.5
	_, err := e.Estimate(s, cfg)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	cfg = testConfig()
	cfg.PortfolioValue = 0
	_, err = e.Estimate(s, cfg)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = e.Estimate(ReturnSeries{}, testConfig())
	assert.ErrorIs(t, err, ErrInsufficientData)
}

// =============================================================================
// Historical
// =============================================================================

func TestHistoricalSingleDay(t *testing.T) {
	s := mustSeries(t, oracleReturns)
	got, err := NewHistoricalEstimator(rand.NewSource(1)).Estimate(s, testConfig())
	require.NoError(t, err)
	assert.InDelta(t, 22490.15, got, 0.01)
}

func TestHistoricalSimpleReturns(t *testing.T) {
	s, err := NewReturnSeries(oracleReturns, ReturnSimple)
	require.NoError(t, err)

	got, err := NewHistoricalEstimator(rand.NewSource(1)).Estimate(s, testConfig())
	require.NoError(t, err)
	// losses 20000 and 25000 interpolated at 0.55
	assert.InDelta(t, 22750, got, 1e-6)
}

func TestHistoricalHorizonTooLong(t *testing.T) {
	s := mustSeries(t, syntheticReturns(252, 2))
	cfg := testConfig()
	cfg.Horizon = 300

	_, err := NewHistoricalEstimator(rand.NewSource(1)).Estimate(s, cfg)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestHistoricalMultiDayReproducible(t *testing.T) {
	s := mustSeries(t, syntheticReturns(252, 3))
	cfg := testConfig()
	cfg.Horizon = 10

	a, err := NewHistoricalEstimator(rand.NewSource(42)).Estimate(s, cfg)
	require.NoError(t, err)
	b, err := NewHistoricalEstimator(rand.NewSource(42)).Estimate(s, cfg)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	oneDay, err := NewHistoricalEstimator(rand.NewSource(42)).Estimate(s, testConfig())
	require.NoError(t, err)
	assert.Greater(t, a, oneDay)
}

func TestHistoricalHorizonEqualsLength(t *testing.T) {
	s := mustSeries(t, oracleReturns)
	cfg := testConfig()
	cfg.Horizon = len(oracleReturns)

	got, err := NewHistoricalEstimator(rand.NewSource(7)).WithResamples(100).Estimate(s, cfg)
	require.NoError(t, err)
	// 블록이 하나뿐 → 전체 합 -0.015 의 손실
	assert.InDelta(t, 1_000_000*-math.Expm1(-0.015), got, 1e-6)
}

func TestHistoricalAllGainsClampsToZero(t *testing.T) {
	gains := make([]float64, 30)
	for i := range gains {
		gains[i] = 0.01 + 0.001*float64(i)
	}
	got, err := NewHistoricalEstimator(nil).Estimate(mustSeries(t, gains), testConfig())
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

// =============================================================================
// Monte Carlo
// =============================================================================

func TestMonteCarloReproducible(t *testing.T) {
	s := mustSeries(t, syntheticReturns(252, 4))

	a, err := NewMonteCarloEstimator(rand.NewSource(9)).Estimate(s, testConfig())
	require.NoError(t, err)
	b, err := NewMonteCarloEstimator(rand.NewSource(9)).Estimate(s, testConfig())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestMonteCarloWorkersReproducible(t *testing.T) {
	s := mustSeries(t, syntheticReturns(252, 5))

	a, err := NewMonteCarloEstimator(rand.NewSource(9)).WithWorkers(4).Estimate(s, testConfig())
	require.NoError(t, err)
	b, err := NewMonteCarloEstimator(rand.NewSource(9)).WithWorkers(4).Estimate(s, testConfig())
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Greater(t, a, 0.0)
}

func TestMonteCarloCloseToParametric(t *testing.T) {
	s := mustSeries(t, syntheticReturns(500, 6))
	cfg := testConfig()
	cfg.Simulations = 50000

	mc, err := NewMonteCarloEstimator(rand.NewSource(11)).Estimate(s, cfg)
	require.NoError(t, err)
	p, err := NewParametricEstimator().Estimate(s, cfg)
	require.NoError(t, err)

	// 1일 GBM 손실 분위수는 정규 근사와 수 % 이내
	assert.InEpsilon(t, p, mc, 0.08)
}

func TestMonteCarloTooFewSimulations(t *testing.T) {
	s := mustSeries(t, oracleReturns)
	cfg := testConfig()
	cfg.Simulations = 500

	_, err := NewMonteCarloEstimator(rand.NewSource(1)).Estimate(s, cfg)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

// =============================================================================
// Cross-method properties
// =============================================================================

func estimatorsUnderTest() []Estimator {
	return []Estimator{
		NewParametricEstimator(),
		NewHistoricalEstimator(rand.NewSource(21)),
		NewMonteCarloEstimator(rand.NewSource(21)),
	}
}

func TestNonNegative(t *testing.T) {
	s := mustSeries(t, syntheticReturns(252, 7))
	for _, e := range estimatorsUnderTest() {
		for _, h := range []int{1, 5, 20} {
			cfg := testConfig()
			cfg.Horizon = h
			got, err := e.Estimate(s, cfg)
			require.NoError(t, err, e.Method().String())
			assert.GreaterOrEqual(t, got, 0.0, e.Method().String())
		}
	}
}

func TestMonotoneInConfidence(t *testing.T) {
	s := mustSeries(t, syntheticReturns(252, 8))
	levels := []float64{0.90, 0.95, 0.99}

	for _, m := range AllMethods() {
		t.Run(m.String(), func(t *testing.T) {
			prev := -1.0
			for _, c := range levels {
				// 같은 시드로 새 추정기 → 같은 표본에서 분위수만 달라짐
				var e Estimator
				switch m {
				case Parametric:
					e = NewParametricEstimator()
				case Historical:
					e = NewHistoricalEstimator(rand.NewSource(3))
				case MonteCarlo:
					e = NewMonteCarloEstimator(rand.NewSource(3))
				}
				cfg := testConfig()
				cfg.Confidence = c
				got, err := e.Estimate(s, cfg)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, got, prev)
				prev = got
			}
		})
	}
}

func TestScalesWithPortfolioValue(t *testing.T) {
	s := mustSeries(t, syntheticReturns(252, 9))

	// horizon 5는 Historical block bootstrap 경로
	for _, h := range []int{1, 5} {
		t.Run(fmt.Sprintf("horizon %d", h), func(t *testing.T) {
			small := testConfig()
			small.Horizon = h
			large := small
			large.PortfolioValue = 3 * small.PortfolioValue

			p1, err := NewParametricEstimator().Estimate(s, small)
			require.NoError(t, err)
			p3, err := NewParametricEstimator().Estimate(s, large)
			require.NoError(t, err)
			assert.InEpsilon(t, 3*p1, p3, 1e-9)

			h1, err := NewHistoricalEstimator(rand.NewSource(1)).Estimate(s, small)
			require.NoError(t, err)
			h3, err := NewHistoricalEstimator(rand.NewSource(1)).Estimate(s, large)
			require.NoError(t, err)
			assert.InEpsilon(t, 3*h1, h3, 1e-9)

			m1, err := NewMonteCarloEstimator(rand.NewSource(1)).Estimate(s, small)
			require.NoError(t, err)
			m3, err := NewMonteCarloEstimator(rand.NewSource(1)).Estimate(s, large)
			require.NoError(t, err)
			assert.InEpsilon(t, 3*m1, m3, 1e-9)
		})
	}
}
