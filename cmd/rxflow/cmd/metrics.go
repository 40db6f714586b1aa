package cmd

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
)

func newMetricsCmd(a *app) *cobra.Command {
	metricsCmd := &cobra.Command{
		Use:   "metrics [scenario...]",
		Short: "Run scenarios and print the collected Prometheus metrics",
		Long: `Run scenarios like "rxflow run" against an isolated Prometheus registry,
then print the stream and worker pool metrics in the text exposition format.`,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.bindRunFlags(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := prometheus.NewRegistry()
			_, results, runErr := a.runScenarios(cmd.Context(), args, reg)
			if results == nil {
				return runErr
			}

			families, err := reg.Gather()
			if err != nil {
				return fmt.Errorf("failed to gather metrics: %w", err)
			}

			enc := expfmt.NewEncoder(cmd.OutOrStdout(), expfmt.NewFormat(expfmt.TypeTextPlain))
			for _, mf := range families {
				if err := enc.Encode(mf); err != nil {
					return fmt.Errorf("failed to encode metrics: %w", err)
				}
			}
			return runErr
		},
	}

	addRunFlags(metricsCmd)
	return metricsCmd
}
