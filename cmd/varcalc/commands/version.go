package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Version 빌드 시 -ldflags "-X .../commands.Version=v1.2.3"
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "버전 정보",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "varcalc %s (%s) %s/%s %s\n",
			Version, GitCommit, runtime.GOOS, runtime.GOARCH, runtime.Version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
