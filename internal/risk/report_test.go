package risk

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingEstimator struct {
	method Method
	err    error
}

func (f failingEstimator) Method() Method { return f.method }

func (f failingEstimator) Estimate(ReturnSeries, RiskConfig) (float64, error) {
	return 0, f.err
}

func TestReportCompute(t *testing.T) {
	s := mustSeries(t, oracleReturns)
	result, err := NewReport(Options{Seed: 1}).Compute(s, testConfig())
	require.NoError(t, err)

	assert.InDelta(t, 24231.43, result.Value(Parametric), 0.01)
	assert.InDelta(t, 22490.15, result.Value(Historical), 0.01)
	assert.Greater(t, result.Value(MonteCarlo), 0.0)
}

func TestReportReproducibleWithSeed(t *testing.T) {
	s := mustSeries(t, syntheticReturns(252, 10))
	cfg := testConfig()
	cfg.Horizon = 5

	a, err := NewReport(Options{Seed: 77, Workers: 2}).Compute(s, cfg)
	require.NoError(t, err)
	b, err := NewReport(Options{Seed: 77, Workers: 2}).Compute(s, cfg)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestReportRepeatedComputeIsStable(t *testing.T) {
	s := mustSeries(t, syntheticReturns(252, 12))
	cfg := testConfig()
	cfg.Horizon = 5
	cfg.Simulations = 2000

	rep := NewReport(Options{Seed: 42})
	a, err := rep.Compute(s, cfg)
	require.NoError(t, err)
	b, err := rep.Compute(s, cfg)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestReportSharedAcrossGoroutines(t *testing.T) {
	s := mustSeries(t, syntheticReturns(252, 13))
	cfg := testConfig()
	cfg.Horizon = 3
	cfg.Simulations = 2000

	rep := NewReport(Options{Seed: 9, Workers: 2})
	want, err := rep.Compute(s, cfg)
	require.NoError(t, err)

	results := make([]VarResult, 4)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = rep.Compute(s, cfg)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestReportValidatesBeforeEstimating(t *testing.T) {
	s := mustSeries(t, oracleReturns)
	cfg := testConfig()
	cfg.Simulations = 500

	_, err := NewReport(Options{Seed: 1}).Compute(s, cfg)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestReportHorizonLongerThanSeries(t *testing.T) {
	s := mustSeries(t, syntheticReturns(252, 11))
	cfg := testConfig()
	cfg.Horizon = 300

	_, err := NewReport(Options{Seed: 1}).Compute(s, cfg)
	require.ErrorIs(t, err, ErrInsufficientData)

	var rerr *Error
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, Historical, rerr.Method)
	assert.Contains(t, err.Error(), "Historical VaR")
}

func TestReportNoPartialResults(t *testing.T) {
	boom := errors.New("solver diverged")
	r, err := NewReportWith(
		NewParametricEstimator(),
		failingEstimator{method: Historical, err: calculationFailure(0, "losses", boom)},
		NewMonteCarloEstimator(nil),
	)
	require.NoError(t, err)

	result, err := r.Compute(mustSeries(t, oracleReturns), testConfig())
	require.Error(t, err)
	assert.Equal(t, VarResult{}, result)
	assert.ErrorIs(t, err, ErrCalculationFailure)
	assert.ErrorIs(t, err, boom)

	var rerr *Error
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, Historical, rerr.Method)
}

func TestNewReportWithRequiresAllMethods(t *testing.T) {
	_, err := NewReportWith(NewParametricEstimator())
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = NewReportWith(NewParametricEstimator(), NewParametricEstimator(), NewMonteCarloEstimator(nil))
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestComputeDetailed(t *testing.T) {
	d, err := NewReport(Options{Seed: 1}).ComputeDetailed(mustSeries(t, oracleReturns), testConfig())
	require.NoError(t, err)

	assert.Equal(t, 10, d.Observations)
	assert.InDelta(t, -0.0015, d.Mean, 1e-12)
	assert.InDelta(t, -1.6449, d.ZScore, 1e-4)
	assert.Equal(t, ReturnLog, d.ReturnType)
}

func ExampleReport_Compute() {
	returns, _ := NewReturnSeries([]float64{-0.02, 0.01, -0.015, 0.005, -0.01, 0.02, -0.025, 0.015, -0.005, 0.01}, ReturnLog)
	cfg := DefaultRiskConfig(1_000_000)

	result, err := NewReport(Options{Seed: 1}).Compute(returns, cfg)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("Parametric: %.2f\n", result.Value(Parametric))
	fmt.Printf("Historical: %.2f\n", result.Value(Historical))
	// Output:
	// Parametric: 24231.43
	// Historical: 22490.15
}
