package risk

import (
	"math/rand"
	"time"
)

// HistoricalEstimator 과거 수익률 기반 VaR
// horizon=1: 관측 손실의 분위수
// horizon>1: 연속 h일 블록 재샘플링 (block bootstrap)
//
// 내부 난수 상태를 가지므로 동시 호출에 안전하지 않다.
type HistoricalEstimator struct {
	rng       *rand.Rand
	resamples int
}

// NewHistoricalEstimator src가 nil이면 현재 시각으로 시드
func NewHistoricalEstimator(src rand.Source) *HistoricalEstimator {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &HistoricalEstimator{
		rng:       rand.New(src),
		resamples: DefaultResamples,
	}
}

// WithResamples overrides the bootstrap sample count; n <= 0 keeps the default.
func (e *HistoricalEstimator) WithResamples(n int) *HistoricalEstimator {
	if n > 0 {
		e.resamples = n
	}
	return e
}

// Method returns Historical.
func (e *HistoricalEstimator) Method() Method {
	return Historical
}

// Estimate 경험적 손실 분포의 confidence 분위수
func (e *HistoricalEstimator) Estimate(returns ReturnSeries, cfg RiskConfig) (float64, error) {
	if err := cfg.validateCommon(Historical); err != nil {
		return 0, err
	}
	if err := returns.check(Historical); err != nil {
		return 0, err
	}

	n := returns.Len()
	if cfg.Horizon > n {
		return 0, insufficientData(Historical, "horizon", n, cfg.Horizon)
	}

	var losses []float64
	if cfg.Horizon == 1 {
		losses = make([]float64, n)
		for i, r := range returns.returns {
			losses[i] = lossFromReturn(cfg.PortfolioValue, r, returns.returnType)
		}
	} else {
		losses = e.blockLosses(returns, cfg)
	}

	return lossQuantile(Historical, losses, cfg.Confidence)
}

// blockLosses 시작 인덱스 [0, n-h]에서 균등 추출한 연속 블록의 손실
func (e *HistoricalEstimator) blockLosses(returns ReturnSeries, cfg RiskConfig) []float64 {
	n, h := returns.Len(), cfg.Horizon
	starts := n - h + 1

	losses := make([]float64, e.resamples)
	for i := range losses {
		start := e.rng.Intn(starts)
		r := horizonReturn(returns.returns[start:start+h], returns.returnType)
		losses[i] = lossFromReturn(cfg.PortfolioValue, r, returns.returnType)
	}
	return losses
}
