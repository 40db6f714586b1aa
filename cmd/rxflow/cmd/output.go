package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

const (
	outputTable = "table"
	outputYAML  = "yaml"
)

func (a *app) outputFormat() (string, error) {
	format := strings.ToLower(a.v.GetString("output"))
	switch format {
	case "", outputTable:
		return outputTable, nil
	case outputYAML:
		return outputYAML, nil
	default:
		return "", fmt.Errorf("invalid output format %q: use table or yaml", format)
	}
}

// render writes rows as a table, or doc as YAML.
func (a *app) render(w io.Writer, header []string, rows [][]string, doc interface{}) error {
	format, err := a.outputFormat()
	if err != nil {
		return err
	}

	if format == outputYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return enc.Close()
	}

	table := tablewriter.NewWriter(w)
	table.Header(toAny(header)...)
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}
	}
	return table.Render()
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// preview joins the first n values, marking truncation.
func preview(values []string, n int) string {
	if len(values) <= n {
		return strings.Join(values, ", ")
	}
	return strings.Join(values[:n], ", ") + fmt.Sprintf(", … (+%d)", len(values)-n)
}
