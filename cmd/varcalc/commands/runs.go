package commands

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"
)

// runsCmd lists journaled runs
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "저널 최근 실행 조회",
	Long: `SQLITE_PATH 또는 DATABASE_URL 저널에서 최근 실행을 조회합니다.

Example:
  go run ./cmd/varcalc runs --symbol INFY.NS --limit 10`,
	Args: cobra.NoArgs,
	RunE: runListRuns,
}

var (
	runsSymbol string
	runsLimit  int
)

func init() {
	rootCmd.AddCommand(runsCmd)

	runsCmd.Flags().StringVar(&runsSymbol, "symbol", "", "Yahoo symbol filter (e.g. INFY.NS)")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "number of runs")
}

func runListRuns(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	if _, err := a.openJournals(ctx); err != nil {
		return err
	}
	if a.journal == nil {
		return errors.New("no run journal configured (set SQLITE_PATH or DATABASE_URL)")
	}

	recs, err := a.journal.Recent(ctx, strings.ToUpper(runsSymbol), runsLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, rec := range recs {
		PrintRecord(out, rec)
	}
	if len(recs) == 0 {
		PrintWarning(out, "no runs found")
	}
	return nil
}
