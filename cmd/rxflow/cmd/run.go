package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/vnykmshr/rxflow/internal/scenarios"
	rxcontext "github.com/vnykmshr/rxflow/pkg/common/context"
	"github.com/vnykmshr/rxflow/pkg/common/validation"
	"github.com/vnykmshr/rxflow/pkg/metrics"
	"github.com/vnykmshr/rxflow/pkg/scheduling/scheduler"
	"github.com/vnykmshr/rxflow/pkg/scheduling/workerpool"
)

type resultInfo struct {
	Name         string   `yaml:"name"`
	Kind         string   `yaml:"kind"`
	Outcome      string   `yaml:"outcome"`
	Expect       string   `yaml:"expect,omitempty"`
	Verdict      string   `yaml:"verdict"`
	Elements     int      `yaml:"elements"`
	Values       []string `yaml:"values,omitempty"`
	Error        string   `yaml:"error,omitempty"`
	Recoveries   int      `yaml:"recoveries"`
	Subscription string   `yaml:"subscription,omitempty"`
	Duration     string   `yaml:"duration"`
}

func newRunCmd(a *app) *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run [scenario...]",
		Short: "Run scenarios and report what reached the observer",
		Long: `Run the named scenarios, or the whole catalog when no name is given.

The range-based scenarios use --start, --count and --trigger: the transform
fails on the element equal to --trigger and replaces every other element
with -1. --async moves sources onto goroutines; --workers runs them on a
bounded worker pool instead.`,
		Example: `  rxflow run range-map-fails-resume
  rxflow run --start 1 range-map-fails-resume
  rxflow run --workers 4 -o yaml`,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.bindRunFlags(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			selected, results, err := a.runScenarios(cmd.Context(), args, nil)
			if results == nil {
				return err
			}
			if rerr := a.renderResults(cmd, selected, results); rerr != nil {
				return rerr
			}
			return err
		},
	}

	addRunFlags(runCmd)
	return runCmd
}

func addRunFlags(cmd *cobra.Command) {
	defaults := scenarios.DefaultParams()
	f := cmd.Flags()
	f.Int("start", defaults.Start, "first value emitted by range scenarios")
	f.Int("count", defaults.Count, "number of values emitted by range scenarios")
	f.Int("trigger", defaults.Trigger, "value on which the transform fails")
	f.String("message", defaults.Message, "failure message raised by the transform")
	f.Bool("async", false, "run sources on dedicated goroutines")
	f.Int("workers", 0, "run sources on a worker pool of this size (0 disables)")
	f.Duration("timeout", 30*time.Second, "overall time limit (0 disables)")
}

func (a *app) bindRunFlags(cmd *cobra.Command) error {
	for _, name := range []string{"start", "count", "trigger", "message", "async", "workers", "timeout"} {
		if err := a.v.BindPFlag("run."+name, cmd.Flags().Lookup(name)); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// runScenarios runs the named scenarios. When reg is non-nil, stream and
// worker pool metrics are registered with it.
func (a *app) runScenarios(ctx context.Context, names []string, reg prometheus.Registerer) ([]scenarios.Scenario, []scenarios.Result, error) {
	catalog, err := a.catalog()
	if err != nil {
		return nil, nil, err
	}
	selected, err := scenarios.Lookup(catalog, names...)
	if err != nil {
		return nil, nil, err
	}

	params := scenarios.Params{
		Start:   a.v.GetInt("run.start"),
		Count:   a.v.GetInt("run.count"),
		Trigger: a.v.GetInt("run.trigger"),
		Message: a.v.GetString("run.message"),
	}
	if err := validation.ValidateRange("run", params.Start, params.Count); err != nil {
		return nil, nil, err
	}

	workers := a.v.GetInt("run.workers")
	if err := validation.ValidateNonNegative("run", "workers", workers); err != nil {
		return nil, nil, err
	}

	var registry *metrics.Registry
	if reg != nil {
		registry = metrics.NewRegistry(reg)
	}

	env := scenarios.Env{Params: params, Logger: a.logger, Metrics: registry}
	switch {
	case workers > 0:
		pool := workerpool.NewWithRegistry(workerpool.Config{
			WorkerCount: workers,
			QueueSize:   workers,
			PanicHandler: func(_ workerpool.Task, recovered interface{}) {
				a.logger.Error("scenario task panicked", "panic", fmt.Sprint(recovered))
			},
		}, "rxflow", registry)
		defer func() { <-pool.Shutdown() }()

		sch, err := scheduler.FromPool(pool, "rxflow")
		if err != nil {
			return nil, nil, err
		}
		env.Scheduler = sch
	case a.v.GetBool("run.async"):
		sch := scheduler.NewGoroutine(a.logger)
		defer sch.Wait()
		env.Scheduler = sch
	}

	ctx, cancel := rxcontext.WithTimeoutOrCancel(ctx, a.v.GetDuration("run.timeout"))
	defer cancel()

	a.logger.Info("running scenarios",
		"count", len(selected),
		"start", params.Start,
		"range_count", params.Count,
		"trigger", params.Trigger,
		"scheduler", schedulerName(env.Scheduler))

	results := scenarios.RunAll(ctx, selected, env)
	if len(results) < len(selected) {
		if rxcontext.IsTimedOut(ctx) {
			return selected, results, fmt.Errorf("run timed out after %d of %d scenarios (raise --timeout): %w", len(results), len(selected), ctx.Err())
		}
		return selected, results, fmt.Errorf("run interrupted after %d of %d scenarios: %w", len(results), len(selected), ctx.Err())
	}
	return selected, results, nil
}

func schedulerName(s scheduler.Scheduler) string {
	if s == nil {
		return "calling goroutine"
	}
	return s.Name()
}

func (a *app) renderResults(cmd *cobra.Command, selected []scenarios.Scenario, results []scenarios.Result) error {
	infos := make([]resultInfo, 0, len(results))
	rows := make([][]string, 0, len(results))
	mismatches := 0

	for i, res := range results {
		s := selected[i]
		verdict := s.Verdict(res)
		if verdict == "mismatch" {
			mismatches++
		}

		subID := ""
		if res.Outcome != scenarios.OutcomePanicked {
			subID = res.SubscriptionID.String()
		}

		info := resultInfo{
			Name:         res.Name,
			Kind:         string(res.Kind),
			Outcome:      string(res.Outcome),
			Expect:       string(s.Expect),
			Verdict:      verdict,
			Elements:     len(res.Values),
			Values:       res.Values,
			Error:        res.ErrorMessage(),
			Recoveries:   res.Recoveries,
			Subscription: subID,
			Duration:     res.Duration.String(),
		}
		infos = append(infos, info)
		rows = append(rows, []string{
			info.Name,
			info.Outcome,
			info.Verdict,
			strconv.Itoa(info.Elements),
			preview(info.Values, 3),
			info.Error,
			strconv.Itoa(info.Recoveries),
		})
	}

	header := []string{"Scenario", "Outcome", "Verdict", "Elements", "Values", "Error", "Recoveries"}
	if err := a.render(cmd.OutOrStdout(), header, rows, infos); err != nil {
		return err
	}
	if format, _ := a.outputFormat(); format == outputTable {
		fmt.Fprintf(cmd.OutOrStdout(), "\nScenarios: %d, mismatches: %d\n", len(results), mismatches)
	}
	return nil
}
