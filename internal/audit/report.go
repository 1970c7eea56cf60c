package audit

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/wonny/varcalc/internal/risk"
)

// CurrencySymbol 콘솔 출력 통화 기호 (NSE/BSE → INR)
const CurrencySymbol = "₹"

// Summary 콘솔 요약 출력
//
//	Value at Risk for INFY portfolio of value ₹1,000,000.00:
//	Parametric VaR: ₹24,231.43
//	...
func Summary(run RunContext, cfg risk.RiskConfig, result risk.VarResult, saved Artifacts) string {
	var b strings.Builder

	fmt.Fprintf(&b, "\nValue at Risk for %s portfolio of value %s%s:\n",
		run.Ticker, CurrencySymbol, FormatAmount(run.PortfolioValue))
	fmt.Fprintf(&b, "  (confidence %.0f%%, horizon %d day(s), %d simulations)\n",
		cfg.Confidence*100, cfg.Horizon, cfg.Simulations)

	for _, m := range result.Methods() {
		fmt.Fprintf(&b, "%s VaR: %s%s\n", Label(m), CurrencySymbol, FormatAmount(result.Value(m)))
	}

	if saved.PortfolioCSV != "" {
		fmt.Fprintf(&b, "\nPortfolio data saved as: '%s'\n", filepath.Base(saved.PortfolioCSV))
	}
	if saved.ResultsCSV != "" {
		fmt.Fprintf(&b, "Results saved as: '%s'\n", filepath.Base(saved.ResultsCSV))
	}
	if saved.ChartPNG != "" {
		fmt.Fprintf(&b, "Comparison plot saved as '%s'\n", filepath.Base(saved.ChartPNG))
	}
	if saved.Journal != "" {
		fmt.Fprintf(&b, "Run journaled: %s\n", saved.Journal)
	}
	return b.String()
}

// Label 출력용 방법론 이름 (MonteCarlo → Monte Carlo)
func Label(m risk.Method) string {
	if m == risk.MonteCarlo {
		return "Monte Carlo"
	}
	return m.String()
}
