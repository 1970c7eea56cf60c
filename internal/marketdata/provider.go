package marketdata

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/wonny/varcalc/internal/risk"
)

// Provider 수익률 시계열 공급자
// 데이터가 없으면 risk.ErrDataUnavailable,
// window 대비 커버리지 미달이면 risk.ErrInsufficientData
type Provider interface {
	Fetch(ctx context.Context, symbol string, window int) (risk.ReturnSeries, error)
}

// DefaultMinCoverage 요청 window 대비 최소 수익률 비율 (10% 결측 허용)
const DefaultMinCoverage = 0.90

// PricePoint 일별 종가
type PricePoint struct {
	Date  time.Time
	Close float64
}

// LogReturns ln(P_t / P_{t-1})
// 비양수 가격은 건너뛴다 (결측 처리).
func LogReturns(closes []float64) []float64 {
	return returnsFrom(closes, func(prev, cur float64) float64 { return math.Log(cur / prev) })
}

// SimpleReturns (P_t - P_{t-1}) / P_{t-1}
func SimpleReturns(closes []float64) []float64 {
	return returnsFrom(closes, func(prev, cur float64) float64 { return cur/prev - 1 })
}

func returnsFrom(closes []float64, fn func(prev, cur float64) float64) []float64 {
	out := make([]float64, 0, len(closes))
	prev := math.NaN()
	for _, c := range closes {
		if math.IsNaN(c) || math.IsInf(c, 0) || c <= 0 {
			continue
		}
		if !math.IsNaN(prev) {
			out = append(out, fn(prev, c))
		}
		prev = c
	}
	return out
}

// buildSeries 종가 → 로그수익률 → 최근 window개 → 커버리지 검사
func buildSeries(symbol string, points []PricePoint, window int, minCoverage float64) (risk.ReturnSeries, error) {
	if window <= 0 {
		return risk.ReturnSeries{}, risk.NewError(risk.ErrInvalidConfiguration, "window",
			fmt.Errorf("must be positive, got %d", window))
	}
	if len(points) == 0 {
		return risk.ReturnSeries{}, risk.NewError(risk.ErrDataUnavailable, "symbol",
			fmt.Errorf("no price data for %s", symbol))
	}
	if minCoverage <= 0 {
		minCoverage = DefaultMinCoverage
	}

	sort.SliceStable(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	closes := make([]float64, len(points))
	for i, p := range points {
		closes[i] = p.Close
	}

	returns := LogReturns(closes)
	if len(returns) > window {
		returns = returns[len(returns)-window:]
	}

	need := requiredReturns(window, minCoverage)
	if len(returns) < need {
		return risk.ReturnSeries{}, risk.NewError(risk.ErrInsufficientData, "window",
			fmt.Errorf("%s: got %d returns, need %d of %d", symbol, len(returns), need, window))
	}

	return risk.NewReturnSeries(returns, risk.ReturnLog)
}

// requiredReturns ceil(coverage·window), 부동소수 오차 보정 (0.9·100 = 90.00000000000001)
func requiredReturns(window int, minCoverage float64) int {
	return int(math.Ceil(minCoverage*float64(window) - 1e-9))
}
