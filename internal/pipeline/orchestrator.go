package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/varcalc/internal/audit"
	"github.com/wonny/varcalc/internal/marketdata"
	"github.com/wonny/varcalc/internal/risk"
	"github.com/wonny/varcalc/pkg/config"
	"github.com/wonny/varcalc/pkg/logger"
)

// Stage names recorded in RunResult.CompletedStages.
const (
	StageResolve = "S0:Resolve"
	StageReturns = "S1:Returns"
	StageVaR     = "S2:VaR"
	StageSave    = "S3:Save"
)

// Orchestrator coordinates one VaR run: resolve → returns → VaR → save
// ⭐ SSOT: CLI / API / 스케줄러 모두 이 경로로 실행
type Orchestrator struct {
	provider marketdata.Provider
	sink     audit.Sink // nil 이면 저장 생략
	logger   *logger.Logger
	now      func() time.Time
}

// RunConfig holds configuration for a single run
type RunConfig struct {
	Ticker         string
	Exchange       string
	PortfolioValue float64
	Risk           config.RiskDefaults
	Operator       string
	ProfileHash    string
	Save           bool
}

// RunResult holds the results of a complete run
type RunResult struct {
	Run             audit.RunContext `json:"run"`
	Config          risk.RiskConfig  `json:"config"`
	Detail          risk.Detail      `json:"detail"`
	Artifacts       audit.Artifacts  `json:"artifacts"`
	CompletedStages []string         `json:"completed_stages"`
	Duration        time.Duration    `json:"duration"`
}

// Result is the three-method VaR of a completed run.
func (r *RunResult) Result() risk.VarResult {
	return r.Detail.Result
}

// Computed reports whether S2 finished, i.e. the VaR figures are usable
// even if a later stage failed.
func (r *RunResult) Computed() bool {
	if r == nil {
		return false
	}
	for _, s := range r.CompletedStages {
		if s == StageVaR {
			return true
		}
	}
	return false
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(provider marketdata.Provider, sink audit.Sink, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		provider: provider,
		sink:     sink,
		logger:   log.Component("pipeline"),
		now:      time.Now,
	}
}

// Run executes the pipeline. On a save failure the computed result is
// still returned alongside the error.
func (o *Orchestrator) Run(ctx context.Context, rc RunConfig) (*RunResult, error) {
	startTime := o.now()
	result := &RunResult{CompletedStages: make([]string, 0, 4)}

	// S0: 입력 검증 (네트워크 호출 전)
	run, cfg, err := o.resolve(rc, startTime)
	if err != nil {
		return result, fmt.Errorf("resolve: %w", err)
	}
	result.Run, result.Config = run, cfg
	result.CompletedStages = append(result.CompletedStages, StageResolve)

	log := o.logger.WithFields(map[string]interface{}{
		"run_id": run.RunID,
		"symbol": run.Symbol,
		"window": run.Window,
	})
	log.Info("Starting VaR run")

	// S1: 수익률 시계열
	returns, err := o.provider.Fetch(ctx, run.Symbol, run.Window)
	if err != nil {
		return result, fmt.Errorf("fetch %s: %w", run.Symbol, err)
	}
	result.CompletedStages = append(result.CompletedStages, StageReturns)
	log.WithField("observations", returns.Len()).Debug("Returns loaded")

	// S2: 세 방법론 VaR (실행마다 새 Report; 난수 상태 공유 없음)
	report := risk.NewReport(risk.Options{Seed: rc.Risk.Seed, Workers: rc.Risk.Workers})
	detail, err := report.ComputeDetailed(returns, cfg)
	if err != nil {
		return result, err
	}
	result.Detail = detail
	result.CompletedStages = append(result.CompletedStages, StageVaR)

	// S3: 저장
	if rc.Save && o.sink != nil {
		saved, err := o.sink.Save(ctx, run, cfg, detail.Result)
		result.Artifacts = saved
		if err != nil {
			result.Duration = o.now().Sub(startTime)
			log.WithError(err).Error("Saving run failed")
			return result, err
		}
		result.CompletedStages = append(result.CompletedStages, StageSave)
	}

	result.Duration = o.now().Sub(startTime)

	log.WithFields(map[string]interface{}{
		"parametric": detail.Result.Value(risk.Parametric),
		"historical": detail.Result.Value(risk.Historical),
		"montecarlo": detail.Result.Value(risk.MonteCarlo),
		"duration":   result.Duration.Seconds(),
	}).Info("VaR run completed")

	return result, nil
}

func (o *Orchestrator) resolve(rc RunConfig, now time.Time) (audit.RunContext, risk.RiskConfig, error) {
	ex, err := marketdata.ParseExchange(rc.Exchange)
	if err != nil {
		return audit.RunContext{}, risk.RiskConfig{}, err
	}
	symbol, err := marketdata.Symbol(rc.Ticker, ex)
	if err != nil {
		return audit.RunContext{}, risk.RiskConfig{}, err
	}

	cfg := risk.RiskConfig{
		Confidence:     rc.Risk.Confidence,
		Horizon:        rc.Risk.Horizon,
		Simulations:    rc.Risk.Simulations,
		PortfolioValue: rc.PortfolioValue,
	}
	if err := cfg.Validate(); err != nil {
		return audit.RunContext{}, risk.RiskConfig{}, err
	}
	if rc.Risk.Window < risk.MinObservations {
		return audit.RunContext{}, risk.RiskConfig{}, risk.NewError(risk.ErrInvalidConfiguration, "window",
			fmt.Errorf("must be >= %d trading days, got %d", risk.MinObservations, rc.Risk.Window))
	}

	run := audit.NewRunContext(rc.Ticker, string(ex), symbol, rc.PortfolioValue, rc.Operator, now)
	run.Window = rc.Risk.Window
	run.ProfileHash = rc.ProfileHash
	return run, cfg, nil
}
