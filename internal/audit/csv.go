package audit

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/wonny/varcalc/internal/risk"
)

// CSVSink 포트폴리오 입력 / VaR 결과를 CSV로 저장
//
//	portfolios/portfolio_{user}_{exchange}_{ticker}_{timestamp}.csv
//	results/var_results_{user}_{exchange}_{ticker}_{timestamp}.csv
type CSVSink struct {
	portfoliosDir string
	resultsDir    string
}

// NewCSVSink creates a sink; directories are created on first save.
func NewCSVSink(portfoliosDir, resultsDir string) *CSVSink {
	return &CSVSink{portfoliosDir: portfoliosDir, resultsDir: resultsDir}
}

var (
	portfolioHeader = []string{"ticker", "exchange", "portfolio_value", "user", "timestamp"}
	resultsHeader   = []string{
		"run_id", "timestamp", "ticker", "exchange", "symbol", "portfolio_value",
		"confidence", "horizon", "simulations", "window",
		"parametric_var", "historical_var", "monte_carlo_var",
	}
)

// Save writes both files.
func (s *CSVSink) Save(ctx context.Context, run RunContext, cfg risk.RiskConfig, result risk.VarResult) (Artifacts, error) {
	if err := ctx.Err(); err != nil {
		return Artifacts{}, err
	}

	portfolioPath := filepath.Join(s.portfoliosDir, "portfolio_"+run.fileStem()+".csv")
	err := writeCSV(portfolioPath, portfolioHeader, []string{
		run.Ticker,
		run.Exchange,
		Amount(run.PortfolioValue),
		run.Operator,
		run.Timestamp.Format(time.RFC3339),
	})
	if err != nil {
		return Artifacts{}, fmt.Errorf("portfolio csv: %w", err)
	}

	resultsPath := filepath.Join(s.resultsDir, "var_results_"+run.fileStem()+".csv")
	err = writeCSV(resultsPath, resultsHeader, []string{
		run.RunID,
		run.Timestamp.Format(time.RFC3339),
		run.Ticker,
		run.Exchange,
		run.Symbol,
		Amount(run.PortfolioValue),
		strconv.FormatFloat(cfg.Confidence, 'f', -1, 64),
		strconv.Itoa(cfg.Horizon),
		strconv.Itoa(cfg.Simulations),
		strconv.Itoa(run.Window),
		Amount(result.Value(risk.Parametric)),
		Amount(result.Value(risk.Historical)),
		Amount(result.Value(risk.MonteCarlo)),
	})
	if err != nil {
		return Artifacts{PortfolioCSV: portfolioPath}, fmt.Errorf("results csv: %w", err)
	}

	return Artifacts{PortfolioCSV: portfolioPath, ResultsCSV: resultsPath}, nil
}

func writeCSV(path string, header, row []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if err := w.WriteAll([][]string{header, row}); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
