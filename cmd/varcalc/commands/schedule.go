package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/varcalc/internal/scheduler"
	"github.com/wonny/varcalc/internal/scheduler/jobs"
)

// scheduleCmd represents the schedule command
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "EOD VaR 리포트 스케줄러",
	Long: `프로파일 워치리스트를 cron 스케줄로 실행합니다.

Subcommands:
  start   - 스케줄러 시작 (Ctrl+C 로 종료)
  list    - 등록될 작업과 다음 실행 시각
  run     - 특정 작업 즉시 실행

Example:
  go run ./cmd/varcalc schedule start --profile config/profiles/india_eod.yaml
  go run ./cmd/varcalc schedule run var_report --profile config/profiles/india_eod.yaml`,
}

var (
	scheduleStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `등록되는 작업:
- returns_prefetch: schedule.prefetch (설정 시, Redis 캐시 예열)
- var_report: schedule.cron (기본 평일 16:30)`,
		RunE: runScheduler,
	}

	scheduleListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록될 작업 목록",
		RunE:  listJobs,
	}

	scheduleRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJobNow,
	}
)

func init() {
	rootCmd.AddCommand(scheduleCmd)
	scheduleCmd.AddCommand(scheduleStartCmd)
	scheduleCmd.AddCommand(scheduleListCmd)
	scheduleCmd.AddCommand(scheduleRunCmd)
}

var errNoSchedule = errors.New("schedule requires --profile with schedule.enabled: true")

// initScheduler wires jobs from the profile
func initScheduler(ctx context.Context, a *app) (*scheduler.Scheduler, error) {
	p := a.profile
	if p == nil || !p.Schedule.Enabled {
		return nil, errNoSchedule
	}

	var opts []scheduler.Option
	if p.Meta.Timezone != "" {
		loc, err := time.LoadLocation(p.Meta.Timezone)
		if err != nil {
			return nil, fmt.Errorf("load timezone: %w", err)
		}
		opts = append(opts, scheduler.WithLocation(loc))
	}
	sched := scheduler.New(a.log, opts...)

	o, err := a.orchestrator(ctx, "", p.Output.CSV, p.Output.Chart)
	if err != nil {
		return nil, err
	}

	if p.Schedule.Prefetch != "" {
		prefetch := jobs.NewPrefetchJob(a.provider(ctx, ""), p, a.riskDefaults().Window, a.log)
		if err := sched.AddJob(prefetch); err != nil {
			return nil, err
		}
	}
	if err := sched.AddJob(jobs.NewVarReportJob(o, p, a.profileHash, a.cfg, a.log)); err != nil {
		return nil, err
	}

	return sched, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched, err := initScheduler(ctx, a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	sched.Start()

	out := cmd.OutOrStdout()
	PrintHeader(out, "varcalc Scheduler")
	PrintSuccess(out, "Scheduler started successfully")
	for _, name := range sched.GetAllJobs() {
		next, _ := sched.NextRun(name)
		PrintKeyValue(out, name, next.Format("2006-01-02 15:04:05 MST"), 18)
	}
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	<-ctx.Done()
	sched.Stop()
	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := initScheduler(context.Background(), a)
	if err != nil {
		return err
	}

	PrintJobStats(cmd.OutOrStdout(), sched.GetJobStats(), sched.GetAllJobs())
	return nil
}

func runJobNow(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched, err := initScheduler(ctx, a)
	if err != nil {
		return err
	}

	res, err := sched.RunJobSync(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !res.Success {
		PrintWarning(out, fmt.Sprintf("%s failed after %d attempt(s): %s", res.JobName, res.Attempts, res.Error))
		return fmt.Errorf("job %s failed", res.JobName)
	}
	PrintSuccess(out, fmt.Sprintf("%s completed in %s", res.JobName, res.Duration.Round(time.Millisecond)))
	return nil
}
