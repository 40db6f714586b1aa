package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vnykmshr/rxflow/internal/scenarios"
)

type scenarioInfo struct {
	Name        string `yaml:"name"`
	Kind        string `yaml:"kind"`
	Expect      string `yaml:"expect,omitempty"`
	Description string `yaml:"description"`
}

func newListCmd(a *app) *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available scenarios",
		Long:  `List the built-in scenario catalog, plus any scenarios defined in --file.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := a.catalog()
			if err != nil {
				return err
			}

			infos := make([]scenarioInfo, 0, len(catalog))
			rows := make([][]string, 0, len(catalog))
			for _, s := range catalog {
				info := scenarioInfo{
					Name:        s.Name,
					Kind:        string(s.Kind),
					Expect:      string(s.Expect),
					Description: s.Description,
				}
				infos = append(infos, info)
				rows = append(rows, []string{info.Name, info.Kind, info.Expect, info.Description})
			}

			if err := a.render(cmd.OutOrStdout(), []string{"Name", "Kind", "Expect", "Description"}, rows, infos); err != nil {
				return err
			}
			if format, _ := a.outputFormat(); format == outputTable {
				fmt.Fprintf(cmd.OutOrStdout(), "\nTotal scenarios: %d\n", len(catalog))
			}
			return nil
		},
	}

	return listCmd
}

// catalog returns the built-in scenarios followed by those loaded from run.file.
func (a *app) catalog() ([]scenarios.Scenario, error) {
	catalog := scenarios.Catalog()

	path := a.v.GetString("run.file")
	if path == "" {
		return catalog, nil
	}

	loaded, err := scenarios.LoadFile(path)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("loaded scenario file", "file", path, "scenarios", len(loaded))

	merged, err := scenarios.Merge(catalog, loaded)
	if err != nil {
		return nil, fmt.Errorf("scenario file %s: %w", path, err)
	}
	return merged, nil
}
