package main

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/go-wordlens/internal/lookup"
	"github.com/example/go-wordlens/internal/server"
	"github.com/spf13/cobra"
)

var errIndexOrAll = errors.New("either --index or --all is required")

func newLookupCmd() *cobra.Command {
	var (
		input string
		index int
		all   bool
	)

	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Translate the word at --index (or every word with --all) in its sentence",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			if !all && !cmd.Flags().Changed("index") {
				return errIndexOrAll
			}
			src, err := readInput(input, cmd.InOrStdin())
			if err != nil {
				return err
			}

			svc, err := server.BuildService(cfg, slog.Default())
			if err != nil {
				return err
			}
			if svc.Backend() == "" {
				return lookup.ErrNoTranslator
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Server.RequestTimeout)*time.Second)
			defer cancel()

			if all {
				results, err := svc.LookupAll(ctx, src)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), results)
			}

			res, err := svc.LookupAt(ctx, src, index)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().StringVar(&input, "text", "", "Source text (if empty, read from stdin)")
	cmd.Flags().IntVar(&index, "index", 0, "Segment index of the word to translate")
	cmd.Flags().BoolVar(&all, "all", false, "Translate every distinct word once")

	return cmd
}
