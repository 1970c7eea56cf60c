package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/varcalc/internal/riskprofile"
)

// profileCmd represents the profile command
var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "리스크 프로파일 관리",
}

var profileCheckCmd = &cobra.Command{
	Use:   "check FILE",
	Short: "프로파일 YAML 검증 + 해시 출력",
	Long: `프로파일을 로드/검증하고 경고와 SHA-256 해시를 출력합니다.
해시는 저널에 기록되어 어떤 프로파일로 실행했는지 추적합니다.

Example:
  go run ./cmd/varcalc profile check config/profiles/india_eod.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runProfileCheck,
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileCheckCmd)
}

func runProfileCheck(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	out := cmd.OutOrStdout()

	p, data, err := riskprofile.Load(args[0])
	if err != nil {
		var verr riskprofile.ValidationError
		if errors.As(err, &verr) {
			PrintWarning(out, fmt.Sprintf("invalid %s: %s", verr.Field, verr.Message))
		}
		return err
	}

	hash, err := riskprofile.Hash(p)
	if err != nil {
		return fmt.Errorf("hash profile: %w", err)
	}

	PrintHeader(out, "Profile "+p.Meta.ProfileID)
	PrintKeyValue(out, "File", args[0], 10)
	PrintKeyValue(out, "Size", fmt.Sprintf("%d bytes", len(data)), 10)
	PrintKeyValue(out, "Hash", hash, 10)
	PrintKeyValue(out, "Watchlist", fmt.Sprintf("%d positions", len(p.Watchlist)), 10)
	if p.Schedule.Enabled {
		PrintKeyValue(out, "Schedule", p.Schedule.Cron, 10)
	}

	warnings := riskprofile.CheckWarnings(p)
	for _, w := range warnings {
		PrintWarning(out, fmt.Sprintf("[%s] %s", w.Code, w.Message))
	}
	if len(warnings) == 0 {
		PrintSuccess(out, "Profile is valid")
	}
	return nil
}
