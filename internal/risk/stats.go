package risk

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// =============================================================================
// 통계 유틸리티
// =============================================================================

// MeanStdDev 표본 평균과 표본 표준편차 (n-1)
func MeanStdDev(values []float64) (mean, stdDev float64) {
	if len(values) == 0 {
		return 0, 0
	}
	if len(values) == 1 {
		return values[0], 0
	}
	return stat.MeanStdDev(values, nil)
}

// ZScore 표준정규분포 분위수 at 1-confidence
// 95%: -1.645, 99%: -2.326
func ZScore(confidence float64) float64 {
	return distuv.UnitNormal.Quantile(1 - confidence)
}

// Percentile 백분위수 계산 (p: 0-100, sorted 오름차순)
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	idx := p / 100.0 * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := lower + 1

	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	// 선형 보간
	weight := idx - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// lossFromReturn 수익률 r에 대한 손실 금액 (양수=손실)
func lossFromReturn(portfolioValue, r float64, rt ReturnType) float64 {
	if rt == ReturnSimple {
		return portfolioValue * -r
	}
	// V - V*exp(r), Expm1로 작은 r에서 정밀도 유지
	return portfolioValue * -math.Expm1(r)
}

// horizonReturn 연속 블록의 기간 수익률: 로그는 합, 단순은 복리
func horizonReturn(block []float64, rt ReturnType) float64 {
	if rt == ReturnSimple {
		growth := 1.0
		for _, r := range block {
			growth *= 1 + r
		}
		return growth - 1
	}

	var sum float64
	for _, r := range block {
		sum += r
	}
	return sum
}

// lossQuantile sorts losses in place and returns the confidence percentile,
// clamped at zero.
func lossQuantile(m Method, losses []float64, confidence float64) (float64, error) {
	if len(losses) == 0 {
		return 0, calculationFailure(m, "losses", fmt.Errorf("empty loss distribution"))
	}
	for i, l := range losses {
		if math.IsNaN(l) || math.IsInf(l, 0) {
			return 0, calculationFailure(m, "losses", fmt.Errorf("non-finite loss at sample %d", i))
		}
	}

	sort.Float64s(losses)
	q := Percentile(losses, 100*confidence)
	if q < 0 {
		q = 0
	}
	return q, nil
}

func finite(m Method, param string, v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, calculationFailure(m, param, fmt.Errorf("non-finite value %g", v))
	}
	return v, nil
}
