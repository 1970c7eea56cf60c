package risk

import "math"

// ParametricEstimator 분산-공분산(정규분포 가정) VaR
// VaR = V * |z·σ·√h − μ·h|
type ParametricEstimator struct{}

// NewParametricEstimator 새 Parametric 추정기 생성
func NewParametricEstimator() *ParametricEstimator {
	return &ParametricEstimator{}
}

// Method returns Parametric.
func (e *ParametricEstimator) Method() Method {
	return Parametric
}

// Estimate 정규분포 가정 VaR (결정적, 난수 미사용)
func (e *ParametricEstimator) Estimate(returns ReturnSeries, cfg RiskConfig) (float64, error) {
	if err := cfg.validateCommon(Parametric); err != nil {
		return 0, err
	}
	if err := returns.check(Parametric); err != nil {
		return 0, err
	}

	mean, stdDev := MeanStdDev(returns.returns)
	z := ZScore(cfg.Confidence)
	h := float64(cfg.Horizon)

	varReturn := z*stdDev*math.Sqrt(h) - mean*h
	return finite(Parametric, "var", cfg.PortfolioValue*math.Abs(varReturn))
}
