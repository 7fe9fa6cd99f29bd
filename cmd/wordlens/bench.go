package main

import (
	"fmt"
	"time"

	"github.com/example/go-wordlens/internal/bench"
	"github.com/example/go-wordlens/internal/text"
	"github.com/example/go-wordlens/internal/tokencache"
	"github.com/spf13/cobra"
)

func newBenchCmd() *cobra.Command {
	var (
		input         string
		runs          int
		format        string
		noCache       bool
		minThroughput float64
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark tokenization and sentence-context throughput",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			if runs < 1 {
				return fmt.Errorf("--runs must be at least 1")
			}
			if format != formatTable && format != formatJSON {
				return fmt.Errorf("--format must be 'table' or 'json'")
			}
			src, err := readInput(input, cmd.InOrStdin())
			if err != nil {
				return err
			}

			tokens := bench.TokenFunc(text.Tokenize)
			if !noCache {
				cache, err := tokencache.New(cfg.Cache.Size)
				if err != nil {
					return err
				}
				tokens = cache.Tokens
			}

			results, err := bench.Run(cmd.Context(), src, runs, tokens)
			if err != nil {
				return err
			}

			durations := make([]time.Duration, len(results))
			for i, r := range results {
				durations[i] = r.Duration
			}
			stats := bench.ComputeStats(durations)

			switch format {
			case formatJSON:
				bench.FormatJSON(results, stats, cmd.OutOrStdout())
			default:
				bench.FormatTable(results, stats, cmd.OutOrStdout())
			}

			return bench.CheckMinThroughput(bench.MeanThroughput(results), minThroughput)
		},
	}

	cmd.Flags().StringVar(&input, "text", "", "Text to process on each run (if empty, read from stdin)")
	cmd.Flags().IntVar(&runs, "runs", 5, "Number of runs")
	cmd.Flags().StringVar(&format, "format", formatTable, "Output format: table|json")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Tokenize on every run instead of reusing the token cache")
	cmd.Flags().Float64Var(&minThroughput, "min-throughput", 0, "Exit non-zero if mean tokens/s falls below this value (0 = disabled)")

	return cmd
}
