package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/usestring/harmodel/internal/cache"
	"github.com/usestring/harmodel/internal/query"
)

func newQueryCommand(ctx *commandContext) *cobra.Command {
	var dedupe bool
	var maxResults int
	var requests bool

	cmd := &cobra.Command{
		Use:   "query <jq-expression>",
		Short: "Run a jq expression over captured JSON bodies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := ctx.loadEntries()
			if err != nil {
				return err
			}
			bodies, err := cache.NewBodyCache(ctx.cfg.BodyCacheMaxItems)
			if err != nil {
				return fmt.Errorf("creating body cache: %w", err)
			}

			if maxResults == 0 {
				maxResults = ctx.cfg.QueryMaxResults
			}
			res, err := query.NewEngine(bodies).Run(entries, args[0], query.Options{
				Deduplicate: dedupe,
				MaxResults:  maxResults,
				Requests:    requests,
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd, res)
		},
	}

	cmd.Flags().BoolVar(&dedupe, "dedupe", true, "Drop duplicate values")
	cmd.Flags().IntVar(&maxResults, "max", 0, "Maximum values to return (0 = config default)")
	cmd.Flags().BoolVar(&requests, "requests", false, "Query request bodies instead of responses")
	return cmd
}
