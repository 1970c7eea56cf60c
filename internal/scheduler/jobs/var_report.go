package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/varcalc/internal/pipeline"
	"github.com/wonny/varcalc/internal/riskprofile"
	"github.com/wonny/varcalc/pkg/config"
	"github.com/wonny/varcalc/pkg/logger"
)

// VarReportJob runs the profile watchlist after market close
// ⭐ SSOT: EOD VaR 리포트 스케줄은 이 Job에서만
type VarReportJob struct {
	orchestrator *pipeline.Orchestrator
	profile      *riskprofile.Profile
	profileHash  string
	defaults     config.RiskDefaults
	operator     string
	logger       *logger.Logger
}

// NewVarReportJob creates a new VaR report job
func NewVarReportJob(o *pipeline.Orchestrator, p *riskprofile.Profile, hash string, cfg *config.Config, log *logger.Logger) *VarReportJob {
	return &VarReportJob{
		orchestrator: o,
		profile:      p,
		profileHash:  hash,
		defaults:     p.Merge(cfg.Risk),
		operator:     cfg.Operator,
		logger:       log.Component("var_report"),
	}
}

// Name returns the job name
func (j *VarReportJob) Name() string {
	return "var_report"
}

// Schedule returns the profile cron (default: weekdays 16:30)
func (j *VarReportJob) Schedule() string {
	if j.profile.Schedule.Cron == "" {
		return riskprofile.DefaultCron
	}
	return j.profile.Schedule.Cron
}

// MaxRetries 0: 종목별 실패는 다음 실행에서 재시도
func (j *VarReportJob) MaxRetries() int {
	return 0
}

// Run computes and saves VaR for every watchlist position.
// 한 종목 실패가 나머지를 막지 않으며, 실패는 모아서 반환
func (j *VarReportJob) Run(ctx context.Context) error {
	j.logger.WithField("positions", len(j.profile.Watchlist)).Info("Starting scheduled VaR report")

	var errs []error
	succeeded := 0
	for _, pos := range j.profile.Watchlist {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		res, err := j.orchestrator.Run(ctx, pipeline.RunConfig{
			Ticker:         pos.Ticker,
			Exchange:       pos.Exchange,
			PortfolioValue: pos.PortfolioValue,
			Risk:           j.defaults,
			Operator:       j.operator,
			ProfileHash:    j.profileHash,
			Save:           true,
		})
		if err != nil {
			j.logger.WithFields(map[string]interface{}{
				"ticker":   pos.Ticker,
				"exchange": pos.Exchange,
			}).WithError(err).Warn("Position failed")
			errs = append(errs, fmt.Errorf("%s/%s: %w", pos.Exchange, pos.Ticker, err))
			continue
		}

		succeeded++
		j.logger.WithFields(map[string]interface{}{
			"run_id": res.Run.RunID,
			"symbol": res.Run.Symbol,
			"files":  len(res.Artifacts.Files()),
		}).Info("Position reported")
	}

	j.logger.WithFields(map[string]interface{}{
		"succeeded": succeeded,
		"failed":    len(errs),
	}).Info("Scheduled VaR report finished")

	return errors.Join(errs...)
}
