package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wonny/varcalc/internal/audit"
	"github.com/wonny/varcalc/internal/marketdata"
	"github.com/wonny/varcalc/internal/pipeline"
	"github.com/wonny/varcalc/internal/riskprofile"
	"github.com/wonny/varcalc/pkg/config"
	"github.com/wonny/varcalc/pkg/database"
	"github.com/wonny/varcalc/pkg/httputil"
	"github.com/wonny/varcalc/pkg/logger"
	"github.com/wonny/varcalc/pkg/redis"
)

// app 커맨드 공통 의존성
type app struct {
	cfg         *config.Config
	log         *logger.Logger
	profile     *riskprofile.Profile // --profile 미지정 시 nil
	profileHash string

	redis   *redis.Client
	db      *database.DB
	journal audit.Journal // SQLite 우선, 없으면 Postgres

	closers []io.Closer
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// newApp loads config, logger and the optional profile.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if cmd.Flags().Changed("env") {
		cfg.Env = env
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	a := &app{cfg: cfg, log: logger.New(cfg)}
	a.closers = append(a.closers, a.log)

	if profilePath != "" {
		p, _, err := riskprofile.Load(profilePath)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("load profile: %w", err)
		}
		hash, err := riskprofile.Hash(p)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("hash profile: %w", err)
		}
		a.profile, a.profileHash = p, hash
		for _, w := range riskprofile.CheckWarnings(p) {
			a.log.WithField("code", w.Code).Warn(w.Message)
		}
		a.log.WithFields(map[string]interface{}{
			"profile": p.Meta.ProfileID,
			"hash":    hash[:12],
		}).Info("Profile loaded")
	}

	return a, nil
}

// riskDefaults env 기본값 ← 프로파일
func (a *app) riskDefaults() config.RiskDefaults {
	return a.profile.Merge(a.cfg.Risk)
}

// connectRedis REDIS_ENABLED=false 이면 비활성 클라이언트
func (a *app) connectRedis(ctx context.Context) *redis.Client {
	if a.redis != nil {
		return a.redis
	}
	client, err := redis.New(ctx, a.cfg)
	if err != nil {
		a.log.WithError(err).Warn("Redis unavailable, continuing without cache")
		client = redis.Disabled()
	}
	a.redis = client
	a.closers = append(a.closers, client)
	return client
}

// provider 가격 출처: --prices 파일 또는 Yahoo (+ Redis 캐시/분산 레이트리밋)
func (a *app) provider(ctx context.Context, pricesPath string) marketdata.Provider {
	if pricesPath != "" {
		a.log.WithField("path", pricesPath).Info("Using offline price file")
		return marketdata.NewFileProvider(pricesPath, a.cfg.Yahoo.MinCoverage)
	}

	client := a.connectRedis(ctx)
	httpClient := httputil.New(a.cfg, a.log)
	if client.Enabled() {
		httpClient.WithRateLimiter(redis.NewRateLimiter(client, "varcalc"), redis.YahooRateLimit)
	}

	yahoo := marketdata.NewYahooProvider(httpClient, a.log, a.cfg.Yahoo.BaseURL, a.cfg.Yahoo.MinCoverage)
	return marketdata.NewCachedProvider(yahoo, redis.NewCache(client, "varcalc"), a.cfg.Redis.CacheTTL, a.log)
}

// openJournals SQLITE_PATH / DATABASE_URL 중 설정된 저널 (둘 다 없으면 빈 목록)
func (a *app) openJournals(ctx context.Context) ([]audit.Journal, error) {
	var journals []audit.Journal

	if a.cfg.SQLite.Path != "" {
		j, err := audit.NewSQLiteJournal(a.cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, j)
		journals = append(journals, j)
	}

	db, err := database.New(ctx, a.cfg)
	switch {
	case errors.Is(err, database.ErrNotConfigured):
	case err != nil:
		return nil, err
	default:
		a.db = db
		a.closers = append(a.closers, closerFunc(func() error { db.Close(); return nil }))
		repo, err := audit.NewPostgresRepository(ctx, db)
		if err != nil {
			return nil, err
		}
		journals = append(journals, repo)
	}

	if len(journals) > 0 {
		a.journal = journals[0]
	}
	return journals, nil
}

// sink CSV + 차트 (output 설정에 따라) + 저널
func (a *app) sink(ctx context.Context, csv, chart bool) (audit.Sink, error) {
	var sinks audit.MultiSink

	if csv || chart {
		if err := a.cfg.EnsureDirs(); err != nil {
			return nil, err
		}
	}
	if csv {
		sinks = append(sinks, audit.NewCSVSink(a.cfg.Dir(config.PortfoliosDir), a.cfg.Dir(config.ResultsDir)))
	}
	if chart {
		sinks = append(sinks, audit.NewChartRenderer(a.cfg.Dir(config.ReportsDir)))
	}

	journals, err := a.openJournals(ctx)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	for _, j := range journals {
		sinks = append(sinks, j)
	}

	a.log.WithFields(map[string]interface{}{
		"data_dir": filepath.Clean(a.cfg.DataDir),
		"sinks":    len(sinks),
	}).Debug("Sinks configured")
	return sinks, nil
}

// orchestrator provider + sink 조립
func (a *app) orchestrator(ctx context.Context, pricesPath string, csv, chart bool) (*pipeline.Orchestrator, error) {
	sink, err := a.sink(ctx, csv, chart)
	if err != nil {
		return nil, err
	}
	return pipeline.NewOrchestrator(a.provider(ctx, pricesPath), sink, a.log), nil
}

// Close releases resources in reverse order.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
