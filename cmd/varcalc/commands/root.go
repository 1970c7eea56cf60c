package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	profilePath string
	env         string
	verbose     bool
)

// rootCmd calculates VaR when given TICKER EXCHANGE PORTFOLIO_VALUE
var rootCmd = &cobra.Command{
	Use:   "varcalc TICKER EXCHANGE PORTFOLIO_VALUE",
	Short: "단일 종목 VaR 계산기 (Parametric / Historical / Monte Carlo)",
	Long: `varcalc - Value at Risk calculator

Yahoo Finance 일별 종가로 로그 수익률을 만들고
세 가지 방법론으로 포트폴리오 VaR를 계산합니다.

Usage:
  go run ./cmd/varcalc TICKER EXCHANGE PORTFOLIO_VALUE [flags]
  go run ./cmd/varcalc [command]

Examples:
  go run ./cmd/varcalc INFY NSE 1000000
  go run ./cmd/varcalc TCS BSE 500000 --confidence 0.99 --horizon 10
  go run ./cmd/varcalc RELIANCE NSE 2500000 --prices data/RELIANCE.csv --seed 42
  go run ./cmd/varcalc api
  go run ./cmd/varcalc schedule start --profile config/profiles/india_eod.yaml`,
	Args: cobra.ExactArgs(3),
	RunE: runCalculate,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&profilePath, "profile", "", "risk profile YAML (risk defaults, watchlist, schedule)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "development", "environment (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (LOG_LEVEL=debug)")

	addCalculateFlags(rootCmd)
}
