package risk

import (
	"fmt"
	"math/rand"
	"time"
)

// Estimator 단일 방법론 VaR 추정기
type Estimator interface {
	Method() Method
	Estimate(returns ReturnSeries, cfg RiskConfig) (float64, error)
}

// Options Report 생성 옵션
type Options struct {
	Seed      int64 // 0이면 현재 시각
	Workers   int   // Monte Carlo 병렬 샤드 수 (기본 1)
	Resamples int   // Historical block bootstrap 재샘플 수 (기본 10,000)
}

// Report 세 방법론을 한 번에 실행하는 집계기 (VaR report)
// 호출 간 상태가 없다: 난수 추정기는 Compute마다 같은 시드로 새로 만든다.
type Report struct {
	estimators func() []Estimator
}

// NewReport 기본 세 추정기로 Report 생성
// Historical / Monte Carlo 난수원은 하나의 기준 시드에서 파생된다.
// Seed 0은 생성 시점 시각으로 한 번만 고정된다.
func NewReport(opts Options) *Report {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Report{estimators: func() []Estimator {
		base := rand.New(rand.NewSource(seed))
		hist := NewHistoricalEstimator(rand.NewSource(base.Int63())).WithResamples(opts.Resamples)
		mc := NewMonteCarloEstimator(rand.NewSource(base.Int63())).WithWorkers(opts.Workers)
		return []Estimator{NewParametricEstimator(), hist, mc}
	}}
}

// NewReportWith builds a Report from caller-supplied estimators. Every
// method must be covered exactly once. The estimators are reused across
// calls, so any random state they carry is the caller's.
func NewReportWith(estimators ...Estimator) (*Report, error) {
	seen := make(map[Method]bool, numMethods)
	for _, e := range estimators {
		m := e.Method()
		if !m.Valid() {
			return nil, invalidConfig(0, "estimators", "unknown method %s", m)
		}
		if seen[m] {
			return nil, invalidConfig(m, "estimators", "duplicate estimator")
		}
		seen[m] = true
	}
	for _, m := range AllMethods() {
		if !seen[m] {
			return nil, invalidConfig(m, "estimators", "missing estimator")
		}
	}

	cp := make([]Estimator, len(estimators))
	copy(cp, estimators)
	return &Report{estimators: func() []Estimator { return cp }}, nil
}

// Detail 결과 + 표본 통계 (출력용)
type Detail struct {
	Result       VarResult  `json:"var"`
	Observations int        `json:"observations"`
	Mean         float64    `json:"mean"`
	StdDev       float64    `json:"std_dev"`
	ZScore       float64    `json:"z_score"`
	ReturnType   ReturnType `json:"return_type"`
}

// Compute 설정 검증 후 세 추정기 실행. 하나라도 실패하면 부분 결과 없이 실패.
func (r *Report) Compute(returns ReturnSeries, cfg RiskConfig) (VarResult, error) {
	if err := cfg.Validate(); err != nil {
		return VarResult{}, err
	}
	if err := returns.check(0); err != nil {
		return VarResult{}, err
	}

	values := make(map[Method]float64, numMethods)
	for _, e := range r.estimators() {
		v, err := e.Estimate(returns, cfg)
		if err != nil {
			return VarResult{}, fmt.Errorf("%s VaR: %w", e.Method(), withMethod(err, e.Method()))
		}
		values[e.Method()] = v
	}

	return NewVarResult(values)
}

// ComputeDetailed Compute + 표본 통계
func (r *Report) ComputeDetailed(returns ReturnSeries, cfg RiskConfig) (Detail, error) {
	result, err := r.Compute(returns, cfg)
	if err != nil {
		return Detail{}, err
	}

	mean, stdDev := MeanStdDev(returns.returns)
	return Detail{
		Result:       result,
		Observations: returns.Len(),
		Mean:         mean,
		StdDev:       stdDev,
		ZScore:       ZScore(cfg.Confidence),
		ReturnType:   returns.Type(),
	}, nil
}

// Compute runs a time-seeded default Report once.
func Compute(returns ReturnSeries, cfg RiskConfig) (VarResult, error) {
	return NewReport(Options{}).Compute(returns, cfg)
}
