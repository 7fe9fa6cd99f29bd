package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/example/go-wordlens/internal/text"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const (
	formatJSON  = "json"
	formatTable = "table"
)

func newTokenizeCmd() *cobra.Command {
	var (
		input    string
		format   string
		colorize bool
	)

	cmd := &cobra.Command{
		Use:   "tokenize",
		Short: "Split text into whitespace, punctuation and word tokens",
		RunE: func(cmd *cobra.Command, _ []string) error {
			src, err := readInput(input, cmd.InOrStdin())
			if err != nil {
				return err
			}
			tokens := text.Tokenize(src)

			switch format {
			case formatJSON:
				return writeJSON(cmd.OutOrStdout(), tokens)
			case formatTable:
				return writeTokenTable(cmd.OutOrStdout(), tokens, colorize)
			default:
				return fmt.Errorf("unknown format %q (want %s|%s)", format, formatJSON, formatTable)
			}
		},
	}

	cmd.Flags().StringVar(&input, "text", "", "Text to tokenize (if empty, read from stdin)")
	cmd.Flags().StringVar(&format, "format", formatJSON, "Output format (json|table)")
	cmd.Flags().BoolVar(&colorize, "color", false, "Highlight token kinds in table output")

	return cmd
}

func kindPalette(enabled bool) map[text.Kind]*color.Color {
	p := map[text.Kind]*color.Color{
		text.KindWord:       color.New(color.FgGreen),
		text.KindPunct:      color.New(color.FgYellow),
		text.KindWhitespace: color.New(color.FgHiBlack),
	}
	for _, c := range p {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func writeTokenTable(w io.Writer, tokens []text.Token, colorize bool) error {
	palette := kindPalette(colorize)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tKIND\tSOURCE\tCLEAN\tNORMALIZED\tPUNCT")
	for _, tok := range tokens {
		kind := palette[tok.Kind].Sprint(fmt.Sprintf("%-10s", tok.Kind))
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			tok.SegmentIndex,
			kind,
			strconv.Quote(tok.Source()),
			tok.CleanWord,
			tok.NormalizedWord,
			tok.Punctuation,
		)
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
