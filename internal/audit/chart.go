package audit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vicanso/go-charts/v2"

	"github.com/wonny/varcalc/internal/risk"
)

// ChartRenderer 세 방법론 VaR 비교 막대 차트 (PNG)
//
//	reports/var_report_{user}_{exchange}_{ticker}_{timestamp}.png
type ChartRenderer struct {
	dir    string
	width  int
	height int
}

// NewChartRenderer creates a renderer writing into dir.
func NewChartRenderer(dir string) *ChartRenderer {
	return &ChartRenderer{dir: dir, width: 800, height: 500}
}

// showLabels 막대 위에 값 표시
func showLabels(opt *charts.ChartOption) {
	for i := range opt.SeriesList {
		opt.SeriesList[i].Label.Show = true
	}
}

// Render returns PNG bytes of the comparison chart.
func (c *ChartRenderer) Render(run RunContext, cfg risk.RiskConfig, result risk.VarResult) ([]byte, error) {
	methods := result.Methods()
	labels := make([]string, len(methods))
	values := make([]float64, len(methods))
	for i, m := range methods {
		labels[i] = Label(m)
		values[i] = result.Value(m)
	}

	title := fmt.Sprintf("VaR Comparison for %s (%s)", run.Ticker, run.Exchange)
	subtitle := fmt.Sprintf("Portfolio Value: %s • %.0f%% • %dd",
		FormatAmount(run.PortfolioValue), cfg.Confidence*100, cfg.Horizon)

	painter, err := charts.BarRender([][]float64{values},
		charts.TitleTextOptionFunc(title, subtitle),
		charts.XAxisDataOptionFunc(labels),
		charts.WidthOptionFunc(c.width),
		charts.HeightOptionFunc(c.height),
		charts.ThemeOptionFunc(charts.ThemeLight),
		showLabels,
	)
	if err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	return painter.Bytes()
}

// Save renders and writes the PNG.
func (c *ChartRenderer) Save(ctx context.Context, run RunContext, cfg risk.RiskConfig, result risk.VarResult) (Artifacts, error) {
	if err := ctx.Err(); err != nil {
		return Artifacts{}, err
	}

	img, err := c.Render(run, cfg, result)
	if err != nil {
		return Artifacts{}, err
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return Artifacts{}, fmt.Errorf("create report dir: %w", err)
	}
	path := filepath.Join(c.dir, "var_report_"+run.fileStem()+".png")
	if err := os.WriteFile(path, img, 0o644); err != nil {
		return Artifacts{}, fmt.Errorf("write chart: %w", err)
	}
	return Artifacts{ChartPNG: path}, nil
}
