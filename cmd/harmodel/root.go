package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	ctx := newCommandContext()

	rootCmd := &cobra.Command{
		Use:           "harmodel",
		Short:         "Generate typed models, clients and API specs from captured HTTP traffic",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.setupLogging()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.closeLogging()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&ctx.input, "input", "i", "", "Path to the HAR capture file")
	pf.StringVar(&ctx.method, "method", "", "Only entries with this HTTP method")
	pf.StringVar(&ctx.host, "host", "", "Only entries for this host")
	pf.StringVar(&ctx.statusClass, "status", "", "Only entries in this status class (2xx, 4xx, ...)")

	rootCmd.AddCommand(newGenerateCommand(ctx))
	rootCmd.AddCommand(newEndpointsCommand(ctx))
	rootCmd.AddCommand(newQueryCommand(ctx))
	rootCmd.AddCommand(newReplayCommand(ctx))

	return rootCmd
}
