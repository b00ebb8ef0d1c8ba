package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRewriteCmd(a *app) *cobra.Command {
	var (
		input, output string
		enabled       bool
	)

	cmd := &cobra.Command{
		Use:   "rewrite",
		Short: "Add or strip the cache bypass marker on a CSV list of form URLs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := newCSVSource(input)
			if err != nil {
				return err
			}

			sink, err := newCSVSink(output)
			if err != nil {
				return err
			}

			urls, err := source.extract(cmd.Context())
			if err != nil {
				return err
			}

			results := rewriteURLs(urls, enabled)
			if err := sink.writeResults(results); err != nil {
				return err
			}

			a.logger.Info("rewrote URLs",
				zap.Int("urls", len(results)),
				zap.Bool("nocache", enabled),
				zap.String("output", output))
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "Path to input CSV file with URLs")
	cmd.Flags().StringVar(&output, "output", "rewritten.csv", "Path to output CSV file")
	cmd.Flags().BoolVar(&enabled, "enabled", true, "Add the marker (false strips it)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
