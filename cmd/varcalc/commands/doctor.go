package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/varcalc/internal/audit"
	"github.com/wonny/varcalc/pkg/database"
	"github.com/wonny/varcalc/pkg/redis"
)

// doctorCmd checks every configured backend
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "환경 / 저장소 연결 점검",
	Long: `설정된 저장소와 데이터 소스 연결을 점검합니다.

이 명령어는:
- config 로드 + 데이터 디렉터리 생성
- SQLite 저널 열기 (SQLITE_PATH)
- PostgreSQL Health Check + 풀 통계 (DATABASE_URL)
- Redis Ping (REDIS_ENABLED)
- Yahoo 시세 조회 (--online)

Example:
  go run ./cmd/varcalc doctor
  go run ./cmd/varcalc doctor --online --symbol INFY.NS`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

var (
	doctorOnline bool
	doctorSymbol string
)

func init() {
	rootCmd.AddCommand(doctorCmd)

	doctorCmd.Flags().BoolVar(&doctorOnline, "online", false, "also fetch returns from Yahoo")
	doctorCmd.Flags().StringVar(&doctorSymbol, "symbol", "INFY.NS", "symbol for the online check")
}

// maskPassword masks the password in the database URL for display
func maskPassword(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	return u.Redacted()
}

type checkResult struct {
	name string
	err  error
	info string
	skip bool
}

func printCheck(w io.Writer, c checkResult) {
	switch {
	case c.skip:
		fmt.Fprintf(w, "➖ %-10s %s\n", c.name, c.info)
	case c.err != nil:
		fmt.Fprintf(w, "❌ %-10s %v\n", c.name, c.err)
	default:
		fmt.Fprintf(w, "✅ %-10s %s\n", c.name, c.info)
	}
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	out := cmd.OutOrStdout()
	PrintHeader(out, "varcalc doctor")
	PrintKeyValue(out, "ENV", a.cfg.Env, 9)
	PrintKeyValue(out, "Operator", a.cfg.Operator, 9)
	PrintKeyValue(out, "Data dir", a.cfg.DataDir, 9)
	fmt.Fprintln(out, singleRule)

	checks := []checkResult{
		{name: "data dirs", err: a.cfg.EnsureDirs(), info: a.cfg.DataDir},
		checkSQLite(a.cfg.SQLite.Path),
		checkPostgres(ctx, a),
		checkRedis(ctx, a),
	}
	if doctorOnline {
		checks = append(checks, checkYahoo(ctx, a))
	}

	var failed []error
	for _, c := range checks {
		printCheck(out, c)
		if c.err != nil {
			failed = append(failed, fmt.Errorf("%s: %w", c.name, c.err))
		}
	}

	if len(failed) > 0 {
		return errors.Join(failed...)
	}
	fmt.Fprintln(out)
	PrintSuccess(out, "All checks passed!")
	return nil
}

func checkSQLite(path string) checkResult {
	if path == "" {
		return checkResult{name: "sqlite", skip: true, info: "SQLITE_PATH not set"}
	}
	j, err := audit.NewSQLiteJournal(path)
	if err != nil {
		return checkResult{name: "sqlite", err: err}
	}
	return checkResult{name: "sqlite", err: j.Close(), info: path}
}

func checkPostgres(ctx context.Context, a *app) checkResult {
	db, err := database.New(ctx, a.cfg)
	if errors.Is(err, database.ErrNotConfigured) {
		return checkResult{name: "postgres", skip: true, info: "DATABASE_URL not set"}
	}
	if err != nil {
		return checkResult{name: "postgres", err: err}
	}
	defer db.Close()

	status, err := db.HealthCheck(ctx)
	if err != nil {
		return checkResult{name: "postgres", err: err}
	}
	return checkResult{name: "postgres", info: fmt.Sprintf("%s (%v, %d/%d conns)",
		maskPassword(a.cfg.Database.URL), status.ResponseTime.Round(time.Millisecond),
		status.Stats.TotalConns, status.Stats.MaxConns)}
}

func checkRedis(ctx context.Context, a *app) checkResult {
	if !a.cfg.Redis.Enabled {
		return checkResult{name: "redis", skip: true, info: "REDIS_ENABLED=false"}
	}
	client, err := redis.New(ctx, a.cfg)
	if err != nil {
		return checkResult{name: "redis", err: err}
	}
	defer client.Close()
	return checkResult{name: "redis", err: client.Ping(ctx), info: a.cfg.Redis.Host + ":" + a.cfg.Redis.Port}
}

func checkYahoo(ctx context.Context, a *app) checkResult {
	series, err := a.provider(ctx, "").Fetch(ctx, doctorSymbol, a.riskDefaults().Window)
	if err != nil {
		return checkResult{name: "yahoo", err: err}
	}
	return checkResult{name: "yahoo", info: fmt.Sprintf("%s: %d returns", doctorSymbol, series.Len())}
}
