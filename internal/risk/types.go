package risk

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// =============================================================================
// Return Type & Convention
// =============================================================================

// ReturnType 수익률 계산 방식
type ReturnType string

const (
	ReturnSimple ReturnType = "simple" // (P1 - P0) / P0
	ReturnLog    ReturnType = "log"    // ln(P1 / P0)
)

// VaRConvention VaR 부호 규약
// ⭐ SSOT: Loss를 양수(통화 단위)로 표현 (VaR=25,000 → 2.5만 손실 가능)
const VaRConvention = "loss_positive"

const (
	// MinObservations 추정에 필요한 최소 수익률 개수
	MinObservations = 10

	// TradingDays 연간 거래일 수
	TradingDays = 252

	// MinConfidence / MaxConfidence 허용 신뢰수준 범위 (양끝 포함)
	MinConfidence = 0.90
	MaxConfidence = 0.99

	// MinSimulations Monte Carlo 최소 시뮬레이션 횟수
	MinSimulations = 1000

	// DefaultResamples Historical block bootstrap 재샘플 수
	DefaultResamples = 10000
)

// =============================================================================
// Method
// =============================================================================

// Method VaR 계산 방법론 (닫힌 열거형)
type Method int

const (
	Parametric Method = iota + 1
	Historical
	MonteCarlo
)

const numMethods = 3

var methodNames = map[Method]string{
	Parametric: "Parametric",
	Historical: "Historical",
	MonteCarlo: "MonteCarlo",
}

func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// Valid reports whether m is one of the three methods
func (m Method) Valid() bool {
	return m >= Parametric && m <= MonteCarlo
}

// AllMethods 보고서 출력 순서
func AllMethods() []Method {
	return []Method{Parametric, Historical, MonteCarlo}
}

// ParseMethod accepts the canonical names plus "Monte Carlo" / snake case.
func ParseMethod(s string) (Method, error) {
	switch s {
	case "Parametric", "parametric":
		return Parametric, nil
	case "Historical", "historical":
		return Historical, nil
	case "MonteCarlo", "Monte Carlo", "monte_carlo", "montecarlo":
		return MonteCarlo, nil
	}
	return 0, invalidConfig(0, "method", "unknown method %q", s)
}

// =============================================================================
// ReturnSeries
// =============================================================================

// ReturnSeries 수익률 시계열 (불변 값)
// 생성 시점에 길이/유한성 검증을 끝내므로 사용 시점에는 재검증하지 않는다.
type ReturnSeries struct {
	returns    []float64
	returnType ReturnType
}

// NewReturnSeries 검증 후 입력을 복사해 시계열 생성
func NewReturnSeries(returns []float64, returnType ReturnType) (ReturnSeries, error) {
	if returnType != ReturnLog && returnType != ReturnSimple {
		return ReturnSeries{}, invalidConfig(0, "return_type", "unknown return type %q", returnType)
	}
	if len(returns) < MinObservations {
		return ReturnSeries{}, insufficientData(0, "returns", len(returns), MinObservations)
	}

	for i, r := range returns {
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return ReturnSeries{}, invalidConfig(0, "returns", "non-finite return at index %d", i)
		}
		// 단순수익률 -100% 이하는 음수 가격을 의미
		if returnType == ReturnSimple && r <= -1 {
			return ReturnSeries{}, invalidConfig(0, "returns", "simple return %g at index %d implies a non-positive price", r, i)
		}
	}

	cp := make([]float64, len(returns))
	copy(cp, returns)
	return ReturnSeries{returns: cp, returnType: returnType}, nil
}

// Len 관측치 수
func (s ReturnSeries) Len() int {
	return len(s.returns)
}

// Type 수익률 규약
func (s ReturnSeries) Type() ReturnType {
	return s.returnType
}

// Values returns a copy of the returns.
func (s ReturnSeries) Values() []float64 {
	cp := make([]float64, len(s.returns))
	copy(cp, s.returns)
	return cp
}

// check guards against the zero value, which bypassed the constructor.
func (s ReturnSeries) check(m Method) error {
	if len(s.returns) < MinObservations {
		return insufficientData(m, "returns", len(s.returns), MinObservations)
	}
	return nil
}

// =============================================================================
// RiskConfig
// =============================================================================

// RiskConfig VaR 계산 설정 (호출마다 한 번 생성, 불변)
type RiskConfig struct {
	Confidence     float64 `json:"confidence"`      // 신뢰수준 [0.90, 0.99]
	Horizon        int     `json:"horizon"`         // 보유 기간 (거래일)
	Simulations    int     `json:"simulations"`     // Monte Carlo 전용, 최소 1000
	PortfolioValue float64 `json:"portfolio_value"` // 포트폴리오 가치 (통화 단위)
}

// DefaultRiskConfig 기본 설정 (95%, 1일, 10,000회)
func DefaultRiskConfig(portfolioValue float64) RiskConfig {
	return RiskConfig{
		Confidence:     0.95,
		Horizon:        1,
		Simulations:    10000,
		PortfolioValue: portfolioValue,
	}
}

// Validate checks all four bounds. Report calls it before any estimator runs.
func (c RiskConfig) Validate() error {
	if err := c.validateCommon(0); err != nil {
		return err
	}
	return c.validateSimulations(0)
}

// validateCommon 모든 추정기가 공유하는 범위 검사
func (c RiskConfig) validateCommon(m Method) error {
	if math.IsNaN(c.Confidence) || c.Confidence < MinConfidence || c.Confidence > MaxConfidence {
		return invalidConfig(m, "confidence", "%g outside [%.2f, %.2f]", c.Confidence, MinConfidence, MaxConfidence)
	}
	if c.Horizon <= 0 {
		return invalidConfig(m, "horizon", "must be a positive number of trading days, got %d", c.Horizon)
	}
	if math.IsNaN(c.PortfolioValue) || math.IsInf(c.PortfolioValue, 0) || c.PortfolioValue <= 0 {
		return invalidConfig(m, "portfolio_value", "must be positive and finite, got %g", c.PortfolioValue)
	}
	return nil
}

func (c RiskConfig) validateSimulations(m Method) error {
	if c.Simulations < MinSimulations {
		return invalidConfig(m, "simulations", "need at least %d, got %d", MinSimulations, c.Simulations)
	}
	return nil
}

// =============================================================================
// VarResult
// =============================================================================

// VarResult 방법론별 VaR (손실, 양수, 통화 단위)
// ⭐ 생성 후 변경 불가: 값 타입 + 비공개 필드
type VarResult struct {
	values [numMethods]float64
}

// NewVarResult requires a non-negative finite value for every method.
func NewVarResult(values map[Method]float64) (VarResult, error) {
	var r VarResult
	for _, m := range AllMethods() {
		v, ok := values[m]
		if !ok {
			return VarResult{}, calculationFailure(m, "result", fmt.Errorf("missing %s estimate", m))
		}
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return VarResult{}, calculationFailure(m, "result", fmt.Errorf("invalid loss amount %g", v))
		}
		r.values[m-1] = v
	}
	for m := range values {
		if !m.Valid() {
			return VarResult{}, invalidConfig(0, "method", "unknown method %s", m)
		}
	}
	return r, nil
}

// Value returns the VaR for m, or 0 for an unknown method.
func (r VarResult) Value(m Method) float64 {
	if !m.Valid() {
		return 0
	}
	return r.values[m-1]
}

// Methods 결과에 포함된 방법론 (항상 세 개, 고정 순서)
func (r VarResult) Methods() []Method {
	return AllMethods()
}

// Map 방법론 이름 → VaR (복사본)
func (r VarResult) Map() map[string]float64 {
	out := make(map[string]float64, numMethods)
	for _, m := range AllMethods() {
		out[m.String()] = r.Value(m)
	}
	return out
}

// Max 세 방법론 중 가장 보수적인 값
func (r VarResult) Max() (Method, float64) {
	best, bestVal := Parametric, r.Value(Parametric)
	for _, m := range AllMethods()[1:] {
		if v := r.Value(m); v > bestVal {
			best, bestVal = m, v
		}
	}
	return best, bestVal
}

func (r VarResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Map())
}

func (r *VarResult) UnmarshalJSON(data []byte) error {
	var raw map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	values := make(map[Method]float64, len(raw))
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		m, err := ParseMethod(name)
		if err != nil {
			return err
		}
		values[m] = raw[name]
	}

	parsed, err := NewVarResult(values)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
