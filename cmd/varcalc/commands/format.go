package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/wonny/varcalc/internal/audit"
	"github.com/wonny/varcalc/internal/pipeline"
	"github.com/wonny/varcalc/internal/risk"
	"github.com/wonny/varcalc/internal/scheduler"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const (
	doubleRule = "═══════════════════════════════════════════════════════════"
	singleRule = "───────────────────────────────────────────────────────────"
)

// PrintHeader prints a formatted command header
func PrintHeader(w io.Writer, title string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, doubleRule)
	fmt.Fprintf(w, "  %s\n", title)
	fmt.Fprintln(w, singleRule)
}

// PrintDetail prints sample statistics behind a run
func PrintDetail(w io.Writer, res *pipeline.RunResult) {
	d := res.Detail
	fmt.Fprintln(w, singleRule)
	PrintKeyValue(w, "Run ID", res.Run.RunID, 12)
	PrintKeyValue(w, "Symbol", res.Run.Symbol, 12)
	PrintKeyValue(w, "Observations", fmt.Sprintf("%d (%s returns)", d.Observations, d.ReturnType), 12)
	PrintKeyValue(w, "Mean", fmt.Sprintf("%.6f", d.Mean), 12)
	PrintKeyValue(w, "Std Dev", fmt.Sprintf("%.6f", d.StdDev), 12)
	PrintKeyValue(w, "Z-Score", fmt.Sprintf("%.4f", d.ZScore), 12)
	PrintKeyValue(w, "Duration", res.Duration.Round(time.Millisecond).String(), 12)
	if hash := res.Run.ProfileHash; hash != "" {
		PrintKeyValue(w, "Profile", hash[:min(12, len(hash))], 12)
	}
	fmt.Fprintln(w, singleRule)
}

// PrintRecord prints one journaled run
func PrintRecord(w io.Writer, rec audit.Record) {
	fmt.Fprintf(w, "%s  %s  %-12s  %.0f%%/%dd  P %s  H %s  MC %s\n",
		rec.Run.Timestamp.Format("2006-01-02 15:04"),
		rec.Run.RunID[:8],
		rec.Run.Symbol,
		rec.Config.Confidence*100,
		rec.Config.Horizon,
		audit.FormatAmount(rec.Result.Value(risk.Parametric)),
		audit.FormatAmount(rec.Result.Value(risk.Historical)),
		audit.FormatAmount(rec.Result.Value(risk.MonteCarlo)),
	)
}

// PrintJobStats prints scheduler statistics as a table
func PrintJobStats(w io.Writer, stats map[string]scheduler.JobStats, order []string) {
	widths := []int{18, 18, 6, 8, 20}
	PrintTableHeader(w, []string{"JOB", "SCHEDULE", "RUNS", "SUCCESS", "LAST RUN"}, widths)
	for _, name := range order {
		s := stats[name]
		last := "-"
		if s.LastRun != nil {
			last = s.LastRun.Format("2006-01-02 15:04:05")
		}
		PrintTableRow(w, []string{
			s.JobName, s.Schedule, fmt.Sprint(s.TotalRuns), fmt.Sprintf("%.0f%%", s.SuccessRate*100), last,
		}, widths)
	}
}

// PrintTableHeader prints a table header
func PrintTableHeader(w io.Writer, columns []string, widths []int) {
	PrintTableRow(w, columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	for i := 0; i < totalWidth; i++ {
		fmt.Fprint(w, "─")
	}
	fmt.Fprintln(w)
}

// PrintTableRow prints a table row
func PrintTableRow(w io.Writer, values []string, widths []int) {
	for i, val := range values {
		fmt.Fprintf(w, "%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Fprint(w, "  ")
		}
	}
	fmt.Fprintln(w)
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(w io.Writer, key string, value string, keyWidth int) {
	fmt.Fprintf(w, "   %-*s : %s\n", keyWidth, key, value)
}

// PrintList prints a bulleted list
func PrintList(w io.Writer, items []string) {
	for _, item := range items {
		fmt.Fprintf(w, "   • %s\n", item)
	}
}

// PrintSuccess prints a success message
func PrintSuccess(w io.Writer, message string) {
	fmt.Fprintf(w, "✅ %s\n", message)
}

// PrintWarning prints a warning message
func PrintWarning(w io.Writer, message string) {
	fmt.Fprintf(w, "⚠️  %s\n", message)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
