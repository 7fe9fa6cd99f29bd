package main

import (
	"fmt"

	"github.com/example/go-wordlens/internal/text"
	"github.com/spf13/cobra"
)

func newSentencesCmd() *cobra.Command {
	var (
		input  string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "sentences",
		Short: "Split text at . ! ? into sentences",
		RunE: func(cmd *cobra.Command, _ []string) error {
			src, err := readInput(input, cmd.InOrStdin())
			if err != nil {
				return err
			}
			sentences := text.SplitSentences(src)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), sentences)
			}
			for _, s := range sentences {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), s.Text); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "text", "", "Source text (if empty, read from stdin)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print sentences with byte offsets as JSON")

	return cmd
}
