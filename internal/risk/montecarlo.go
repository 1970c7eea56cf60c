package risk

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"
)

// MonteCarloEstimator 기하 브라운 운동(GBM) 기반 VaR
//
// 연환산: μ_a = μ·252, σ_a = σ·√252, t = h/252
// 종가 수익률 = exp((μ_a − σ_a²/2)·t + σ_a·√t·ε) − 1, ε ~ N(0,1)
//
// 내부 난수 상태를 가지므로 동시 호출에 안전하지 않다.
type MonteCarloEstimator struct {
	rng     *rand.Rand
	workers int
}

// NewMonteCarloEstimator src가 nil이면 현재 시각으로 시드
func NewMonteCarloEstimator(src rand.Source) *MonteCarloEstimator {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &MonteCarloEstimator{
		rng:     rand.New(src),
		workers: 1,
	}
}

// WithWorkers splits the simulation into n shards run in parallel.
// Results stay reproducible for a fixed seed and worker count.
func (e *MonteCarloEstimator) WithWorkers(n int) *MonteCarloEstimator {
	if n > 0 {
		e.workers = n
	}
	return e
}

// Method returns MonteCarlo.
func (e *MonteCarloEstimator) Method() Method {
	return MonteCarlo
}

// gbmParams 보유기간 drift / diffusion
type gbmParams struct {
	drift     float64
	diffusion float64
	value     float64
}

func (p gbmParams) loss(eps float64) float64 {
	return p.value * -math.Expm1(p.drift+p.diffusion*eps)
}

// Estimate 시뮬레이션 손실 분포의 confidence 분위수
func (e *MonteCarloEstimator) Estimate(returns ReturnSeries, cfg RiskConfig) (float64, error) {
	if err := cfg.validateCommon(MonteCarlo); err != nil {
		return 0, err
	}
	if err := cfg.validateSimulations(MonteCarlo); err != nil {
		return 0, err
	}
	if err := returns.check(MonteCarlo); err != nil {
		return 0, err
	}

	mean, stdDev := MeanStdDev(returns.returns)
	annualMean := mean * TradingDays
	annualStd := stdDev * math.Sqrt(TradingDays)
	years := float64(cfg.Horizon) / TradingDays

	params := gbmParams{
		drift:     (annualMean - 0.5*annualStd*annualStd) * years,
		diffusion: annualStd * math.Sqrt(years),
		value:     cfg.PortfolioValue,
	}

	losses, err := e.simulate(params, cfg.Simulations)
	if err != nil {
		return 0, err
	}
	return lossQuantile(MonteCarlo, losses, cfg.Confidence)
}

func (e *MonteCarloEstimator) simulate(p gbmParams, n int) ([]float64, error) {
	losses := make([]float64, n)

	workers := e.workers
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		for i := range losses {
			losses[i] = p.loss(e.rng.NormFloat64())
		}
		return losses, nil
	}

	// 샤드 시드는 고루틴 시작 전에 순서대로 뽑는다 (재현성)
	seeds := make([]int64, workers)
	for i := range seeds {
		seeds[i] = e.rng.Int63()
	}

	chunk := (n + workers - 1) / workers
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := min(lo+chunk, n)
		if lo >= hi {
			break
		}
		shard := losses[lo:hi]
		rng := rand.New(rand.NewSource(seeds[w]))

		g.Go(func() error {
			for i := range shard {
				shard[i] = p.loss(rng.NormFloat64())
				if math.IsNaN(shard[i]) || math.IsInf(shard[i], 0) {
					return calculationFailure(MonteCarlo, "simulation", fmt.Errorf("non-finite loss in shard starting at %d", lo))
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return losses, nil
}
