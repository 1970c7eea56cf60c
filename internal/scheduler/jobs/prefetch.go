package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/varcalc/internal/marketdata"
	"github.com/wonny/varcalc/internal/riskprofile"
	"github.com/wonny/varcalc/pkg/logger"
)

// PrefetchJob warms the returns cache ahead of the report
type PrefetchJob struct {
	provider marketdata.Provider
	profile  *riskprofile.Profile
	window   int
	logger   *logger.Logger
}

// NewPrefetchJob creates a new prefetch job; provider should be the cached one.
func NewPrefetchJob(provider marketdata.Provider, p *riskprofile.Profile, window int, log *logger.Logger) *PrefetchJob {
	return &PrefetchJob{
		provider: provider,
		profile:  p,
		window:   window,
		logger:   log.Component("returns_prefetch"),
	}
}

// Name returns the job name
func (j *PrefetchJob) Name() string {
	return "returns_prefetch"
}

// Schedule returns the profile prefetch cron
func (j *PrefetchJob) Schedule() string {
	return j.profile.Schedule.Prefetch
}

// Run fetches every watchlist symbol; the first failure aborts so the
// scheduler retry covers the rest.
func (j *PrefetchJob) Run(ctx context.Context) error {
	for _, pos := range j.profile.Watchlist {
		ex, err := marketdata.ParseExchange(pos.Exchange)
		if err != nil {
			return err
		}
		symbol, err := marketdata.Symbol(pos.Ticker, ex)
		if err != nil {
			return err
		}

		series, err := j.provider.Fetch(ctx, symbol, j.window)
		if err != nil {
			return fmt.Errorf("prefetch %s: %w", symbol, err)
		}
		j.logger.WithFields(map[string]interface{}{
			"symbol":       symbol,
			"observations": series.Len(),
		}).Debug("Returns cached")
	}

	j.logger.WithField("symbols", len(j.profile.Watchlist)).Info("Returns prefetch completed")
	return nil
}
