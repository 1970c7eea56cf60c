package audit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/varcalc/internal/risk"
)

// =============================================================================
// Run Context
// =============================================================================

// StampLayout 산출물 파일명 타임스탬프 (20240115_153000)
const StampLayout = "20060102_150405"

// RunContext 한 번의 VaR 실행 식별 정보
// ⭐ 전역 사용자/시각 대신 호출자가 명시적으로 전달
type RunContext struct {
	RunID          string    `json:"run_id"`
	Ticker         string    `json:"ticker"`
	Exchange       string    `json:"exchange"`
	Symbol         string    `json:"symbol"`
	PortfolioValue float64   `json:"portfolio_value"`
	Timestamp      time.Time `json:"timestamp"`
	Operator       string    `json:"operator"`
	Window         int       `json:"window"`
	ProfileHash    string    `json:"profile_hash,omitempty"`
}

// NewRunContext assigns a fresh run ID.
func NewRunContext(ticker, exchange, symbol string, portfolioValue float64, operator string, now time.Time) RunContext {
	if operator == "" {
		operator = "unknown"
	}
	return RunContext{
		RunID:          uuid.NewString(),
		Ticker:         strings.ToUpper(ticker),
		Exchange:       strings.ToUpper(exchange),
		Symbol:         symbol,
		PortfolioValue: portfolioValue,
		Timestamp:      now,
		Operator:       operator,
	}
}

// Stamp 파일명용 타임스탬프
func (rc RunContext) Stamp() string {
	return rc.Timestamp.Format(StampLayout)
}

// fileStem user_exchange_ticker_timestamp (파일명 안전 문자만)
func (rc RunContext) fileStem() string {
	return strings.Join([]string{
		sanitize(rc.Operator), sanitize(rc.Exchange), sanitize(rc.Ticker), rc.Stamp(),
	}, "_")
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			return r
		}
		return '-'
	}, s)
}

// =============================================================================
// Sink
// =============================================================================

// Artifacts 저장 결과 (비어 있는 필드는 해당 싱크 미사용)
type Artifacts struct {
	PortfolioCSV string `json:"portfolio_csv,omitempty"`
	ResultsCSV   string `json:"results_csv,omitempty"`
	ChartPNG     string `json:"chart_png,omitempty"`
	Journal      string `json:"journal,omitempty"`
}

// Files lists the written file paths in display order.
func (a Artifacts) Files() []string {
	var out []string
	for _, p := range []string{a.PortfolioCSV, a.ResultsCSV, a.ChartPNG} {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (a Artifacts) merge(b Artifacts) Artifacts {
	if b.PortfolioCSV != "" {
		a.PortfolioCSV = b.PortfolioCSV
	}
	if b.ResultsCSV != "" {
		a.ResultsCSV = b.ResultsCSV
	}
	if b.ChartPNG != "" {
		a.ChartPNG = b.ChartPNG
	}
	if b.Journal != "" {
		if a.Journal != "" {
			a.Journal += ", "
		}
		a.Journal += b.Journal
	}
	return a
}

// Sink VaR 실행 결과 저장소
type Sink interface {
	Save(ctx context.Context, run RunContext, cfg risk.RiskConfig, result risk.VarResult) (Artifacts, error)
}

// Record 저널에 저장된 한 건
type Record struct {
	Run    RunContext      `json:"run"`
	Config risk.RiskConfig `json:"config"`
	Result risk.VarResult  `json:"result"`
}

// ErrRunNotFound 저널에 해당 run_id 없음
var ErrRunNotFound = errors.New("run not found")

// MultiSink 모든 싱크에 저장; 실패는 모아서 반환 (성공한 산출물은 유지)
type MultiSink []Sink

// Save writes to every sink even when an earlier one fails.
func (m MultiSink) Save(ctx context.Context, run RunContext, cfg risk.RiskConfig, result risk.VarResult) (Artifacts, error) {
	var out Artifacts
	var errs []error
	for _, s := range m {
		a, err := s.Save(ctx, run, cfg, result)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = out.merge(a)
	}
	if len(errs) > 0 {
		return out, fmt.Errorf("save run %s: %w", run.RunID, errors.Join(errs...))
	}
	return out, nil
}
