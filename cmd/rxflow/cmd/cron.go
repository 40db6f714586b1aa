package cmd

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/vnykmshr/rxflow/pkg/scheduling/scheduler"
)

type cronInfo struct {
	Expression string   `yaml:"expression"`
	Summary    string   `yaml:"summary"`
	TimeZone   string   `yaml:"time_zone"`
	NextRuns   []string `yaml:"next_runs"`
}

func newCronCmd(a *app) *cobra.Command {
	var runs int

	cronCmd := &cobra.Command{
		Use:   "cron <expression>",
		Short: "Preview the ticks a cron tick source would emit",
		Long: `Parse a cron expression the way observable.Cron does and print its next
fire times. Five or six fields (leading seconds optional) and descriptors
such as @hourly or "@every 5s" are accepted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := scheduler.Describe(args[0], time.Now(), runs)
			if err != nil {
				return err
			}

			info := cronInfo{Expression: d.Expression, Summary: d.Summary, TimeZone: d.TimeZone}
			rows := make([][]string, 0, len(d.NextRuns))
			for i, run := range d.NextRuns {
				formatted := run.Format(time.RFC3339)
				info.NextRuns = append(info.NextRuns, formatted)
				rows = append(rows, []string{strconv.Itoa(i + 1), formatted})
			}

			a.logger.Debug("described cron expression", "expression", d.Expression, "summary", d.Summary)
			return a.render(cmd.OutOrStdout(), []string{"#", "Fire time"}, rows, info)
		},
	}

	cronCmd.Flags().IntVarP(&runs, "runs", "n", 5, "number of fire times to show")
	return cronCmd
}
