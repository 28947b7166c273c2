package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/usestring/harmodel/internal/replay"
)

func newReplayCommand(ctx *commandContext) *cobra.Command {
	var baseURL string
	var workers int
	var outputJSON bool

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-send captured entries and compare statuses",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := ctx.loadEntries()
			if err != nil {
				return err
			}

			opts := ctx.cfg.ReplayOptions()
			opts.BaseURL = baseURL
			if workers > 0 {
				opts.Workers = workers
			}

			run, err := replay.New(opts).Run(cmd.Context(), entries)
			if err != nil {
				return err
			}

			if outputJSON {
				return writeJSON(cmd, run)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "run %s: %d entries in %dms\n", run.RunID, len(run.Results), run.DurationMs)
			fmt.Fprintf(out, "matched %d, mismatched %d, failed %d\n", run.Matched, run.Mismatched, run.Failed)
			for _, r := range run.Results {
				if r.Error != "" {
					fmt.Fprintf(out, "  FAIL %s %s: %s\n", r.Method, r.URL, r.Error)
				} else if !r.Match {
					fmt.Fprintf(out, "  DIFF %s %s: expected %d, got %d\n", r.Method, r.URL, r.ExpectedStatus, r.Status)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", "", "Base URL override (default: original hosts)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent requests (0 = config default)")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "Emit results as JSON")
	return cmd
}
