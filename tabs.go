package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"tab2md/internal/pipeline"
	"tab2md/internal/tab"

	"github.com/spf13/cobra"
)

func newTabsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tabs",
		Short: "List open tabs with their scores and the one that would be converted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd)
			if err != nil {
				return err
			}
			defer log.Sync()

			opts, err := runOptions(cfg, "")
			if err != nil {
				return err
			}

			// No extraction happens here.
			res, err := newPipeline(cfg, log, nil).Inspect(cmd.Context(), opts)
			if err != nil && !errors.Is(err, pipeline.ErrNoContent) {
				return err
			}
			printCards(os.Stdout, res)
			return err
		},
	}
}

func printCards(w io.Writer, res tab.Result) {
	for _, card := range res.Cards {
		marker := " "
		if res.Card != nil && card.Index == res.Card.Index {
			marker = okColor.Sprint("*")
		}
		fmt.Fprintf(w, "%s %s\n", marker, card)
		fmt.Fprintf(w, "    %s\n", card.Page.URL())
		if title := card.Page.Title(); title != "" {
			fmt.Fprintf(w, "    %s\n", dimColor.Sprint(title))
		}
	}
	if res.Card == nil {
		fmt.Fprintln(w, "no candidate tab")
		return
	}
	fmt.Fprintf(w, "selected #%d by %s\n", res.Card.Index, res.Reason)
}
