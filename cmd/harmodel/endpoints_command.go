package main

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/usestring/harmodel/internal/consolidate"
)

// endpointRow is the serializable view of a consolidated endpoint.
type endpointRow struct {
	ID           string         `json:"id" yaml:"id"`
	Method       string         `json:"method" yaml:"method"`
	Path         string         `json:"path" yaml:"path"`
	Count        int            `json:"count" yaml:"count"`
	QueryParams  []string       `json:"query_params,omitempty" yaml:"query_params,omitempty"`
	StatusCounts map[string]int `json:"status_counts" yaml:"status_counts"`
	RequestModel string         `json:"request_model,omitempty" yaml:"request_model,omitempty"`
	Responses    map[string]string `json:"responses,omitempty" yaml:"responses,omitempty"`
}

func newEndpointsCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "endpoints",
		Short: "List consolidated endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, _, _, err := ctx.consolidateEntries()
			if err != nil {
				return err
			}

			rows := make([]endpointRow, 0, len(res.Endpoints))
			for _, ep := range res.Endpoints {
				rows = append(rows, toRow(ep))
			}

			switch output {
			case "json":
				return writeJSON(cmd, rows)
			case "yaml":
				return writeYAML(cmd, rows)
			case "table":
				printTable(cmd, rows)
				return nil
			}
			return fmt.Errorf("unknown output format %q", output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "f", "table", "Output format (table, json, yaml)")
	return cmd
}

func toRow(ep *consolidate.Endpoint) endpointRow {
	row := endpointRow{
		ID:           ep.ID,
		Method:       ep.Method,
		Path:         ep.PathTemplate,
		Count:        ep.Count,
		StatusCounts: ep.StatusProfile,
	}
	for _, q := range ep.QueryParams {
		name := q.Name
		if !q.Required {
			name += "?"
		}
		row.QueryParams = append(row.QueryParams, name)
	}
	if ep.RequestBody != nil && ep.RequestBody.Name != "" {
		row.RequestModel = ep.RequestBody.Name
	}
	for class, tree := range ep.Responses {
		if tree != nil && tree.Name != "" {
			if row.Responses == nil {
				row.Responses = make(map[string]string)
			}
			row.Responses[class] = tree.Name
		}
	}
	return row
}

func printTable(cmd *cobra.Command, rows []endpointRow) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "METHOD\tPATH\tCOUNT\tSTATUS\tQUERY")
	for _, row := range rows {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			row.Method, row.Path, row.Count,
			statusSummary(row.StatusCounts),
			strings.Join(row.QueryParams, ","))
	}
	w.Flush()
}

func statusSummary(counts map[string]int) string {
	classes := make([]string, 0, len(counts))
	for class := range counts {
		classes = append(classes, class)
	}
	sort.Strings(classes)

	parts := make([]string, 0, len(classes))
	for _, class := range classes {
		parts = append(parts, fmt.Sprintf("%s:%d", class, counts[class]))
	}
	return strings.Join(parts, " ")
}
