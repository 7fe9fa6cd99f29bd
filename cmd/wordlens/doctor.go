package main

import (
	"errors"
	"fmt"

	"github.com/example/go-wordlens/internal/doctor"
	"github.com/example/go-wordlens/internal/lookup"
	"github.com/example/go-wordlens/internal/server"
	"github.com/spf13/cobra"
)

func newDoctorCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run tokenizer and lookup backend checks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			result := doctor.Run(doctor.Config{
				Backend:       cfg.Lookup.Backend,
				GlossaryPath:  cfg.Lookup.GlossaryPath,
				Endpoint:      cfg.Lookup.Endpoint,
				LoadGlossary:  glossaryEntries,
				ProbeEndpoint: doctor.HTTPProbe,
			}, out)

			if addr != "" {
				if err := server.ProbeHTTP(addr); err != nil {
					result.AddFailure(fmt.Sprintf("server %s: %v", addr, err))
					_, _ = fmt.Fprintf(out, "%s server %s: unreachable (%v)\n", doctor.FailMark, addr, err)
				} else {
					_, _ = fmt.Fprintf(out, "%s server: %s\n", doctor.PassMark, addr)
				}
			}

			if result.Failed() {
				for _, f := range result.Failures() {
					fmt.Fprintf(cmd.ErrOrStderr(), "FAIL: %s\n", f)
				}

				return errors.New("doctor checks failed")
			}

			_, _ = fmt.Fprintln(out, "doctor checks passed")

			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Also check a running server's /health at this address")

	return cmd
}

func glossaryEntries(path string) (int, error) {
	g, err := lookup.LoadGlossary(path)
	if err != nil {
		return 0, err
	}
	return g.Len(), nil
}
