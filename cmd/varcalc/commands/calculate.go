package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/varcalc/internal/audit"
	"github.com/wonny/varcalc/internal/pipeline"
	"github.com/wonny/varcalc/internal/risk"
)

var (
	calcConfidence  float64
	calcHorizon     int
	calcWindow      int
	calcSimulations int
	calcSeed        int64
	calcWorkers     int
	calcPrices      string
	calcNoSave      bool
	calcJSON        bool
)

func addCalculateFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Float64Var(&calcConfidence, "confidence", 0.95, "confidence level in [0.90, 0.99]")
	f.IntVar(&calcHorizon, "horizon", 1, "holding period in trading days")
	f.IntVar(&calcWindow, "window", 252, "lookback window in trading days")
	f.IntVar(&calcSimulations, "simulations", 10000, "Monte Carlo simulations (>= 1000)")
	f.Int64Var(&calcSeed, "seed", 0, "random seed (0 = time based)")
	f.IntVar(&calcWorkers, "workers", 1, "Monte Carlo worker goroutines")
	f.StringVar(&calcPrices, "prices", "", "offline date,close CSV (file or directory of SYMBOL.csv)")
	f.BoolVar(&calcNoSave, "no-save", false, "skip CSV, chart and journal output")
	f.BoolVar(&calcJSON, "json", false, "print the result as JSON")
}

// parsePortfolioValue accepts 1000000, 1,000,000 and 1_000_000.
func parsePortfolioValue(s string) (float64, error) {
	clean := strings.NewReplacer(",", "", "_", "").Replace(strings.TrimSpace(s))
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, risk.NewError(risk.ErrInvalidConfiguration, "portfolio_value",
			fmt.Errorf("not a number: %q", s))
	}
	return v, nil
}

func runCalculate(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	value, err := parsePortfolioValue(args[2])
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	// 우선순위: 플래그 > 프로파일 > 환경변수
	rd := a.riskDefaults()
	flags := cmd.Flags()
	if flags.Changed("confidence") || rd.Confidence == 0 {
		rd.Confidence = calcConfidence
	}
	if flags.Changed("horizon") || rd.Horizon == 0 {
		rd.Horizon = calcHorizon
	}
	if flags.Changed("window") || rd.Window == 0 {
		rd.Window = calcWindow
	}
	if flags.Changed("simulations") || rd.Simulations == 0 {
		rd.Simulations = calcSimulations
	}
	if flags.Changed("seed") {
		rd.Seed = calcSeed
	}
	if flags.Changed("workers") || rd.Workers == 0 {
		rd.Workers = calcWorkers
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	csvOut, chartOut := true, true
	if a.profile != nil {
		csvOut, chartOut = a.profile.Output.CSV, a.profile.Output.Chart
	}

	o, err := a.orchestrator(ctx, calcPrices, csvOut && !calcNoSave, chartOut && !calcNoSave)
	if err != nil {
		return err
	}

	res, err := o.Run(ctx, pipeline.RunConfig{
		Ticker:         args[0],
		Exchange:       args[1],
		PortfolioValue: value,
		Risk:           rd,
		Operator:       a.cfg.Operator,
		ProfileHash:    a.profileHash,
		Save:           !calcNoSave,
	})
	if res.Computed() {
		// 저장 실패여도 계산 결과는 출력
		if printErr := printRunResult(cmd, res); printErr != nil {
			return printErr
		}
	}
	if err != nil {
		return err
	}
	return nil
}

func printRunResult(cmd *cobra.Command, res *pipeline.RunResult) error {
	out := cmd.OutOrStdout()
	if calcJSON {
		return writeJSON(out, res)
	}

	fmt.Fprint(out, audit.Summary(res.Run, res.Config, res.Result(), res.Artifacts))
	if verbose {
		PrintDetail(out, res)
	}
	return nil
}
