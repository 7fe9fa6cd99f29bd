package main

import (
	"fmt"

	"github.com/example/go-wordlens/internal/text"
	"github.com/spf13/cobra"
)

func newContextCmd() *cobra.Command {
	var (
		input string
		index int
	)

	cmd := &cobra.Command{
		Use:   "context",
		Short: "Print the sentence surrounding the token at --index",
		RunE: func(cmd *cobra.Command, _ []string) error {
			src, err := readInput(input, cmd.InOrStdin())
			if err != nil {
				return err
			}
			sentence, err := text.SentenceContextOf(text.Tokenize(src), index)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), sentence)
			return err
		},
	}

	cmd.Flags().StringVar(&input, "text", "", "Source text (if empty, read from stdin)")
	cmd.Flags().IntVar(&index, "index", 0, "Segment index of the target token")
	_ = cmd.MarkFlagRequired("index")

	return cmd
}
