package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/varcalc/internal/api"
	"github.com/wonny/varcalc/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /health            - Health check
  POST /api/var           - 시세 조회 + VaR 계산 (save=true 시 저장)
  POST /api/var/compute   - 전달받은 수익률로 VaR 계산
  GET  /api/runs          - 저널 최근 실행 (symbol, limit)
  GET  /api/runs/{id}     - 저널 단건 조회

Example:
  go run ./cmd/varcalc api
  go run ./cmd/varcalc api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort   string
	apiPrices string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT)")
	apiCmd.Flags().StringVar(&apiPrices, "prices", "", "offline price CSV directory instead of Yahoo")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// API 저장은 저널만 (CSV/차트는 CLI 산출물)
	o, err := a.orchestrator(ctx, apiPrices, false, false)
	if err != nil {
		return err
	}

	router := api.NewRouter(
		handlers.NewVarHandler(o, a.riskDefaults(), a.cfg.Operator, a.log),
		handlers.NewRunsHandler(a.journal, a.log),
		a.log,
	)
	server := api.New(a.cfg, a.log, router)

	out := cmd.OutOrStdout()
	PrintHeader(out, "varcalc API Server")
	PrintSuccess(out, fmt.Sprintf("Server running on http://localhost:%s", a.cfg.Port))
	PrintList(out, []string{"GET  /health", "POST /api/var", "POST /api/var/compute", "GET  /api/runs", "GET  /api/runs/{id}"})
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	return server.Run(ctx)
}
