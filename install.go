package main

import (
	"fmt"
	"os"

	"tab2md/internal/browser"

	"github.com/spf13/cobra"
)

func newInstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Make sure a browser engine for extraction is available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, err := setup(cmd)
			if err != nil {
				return err
			}
			defer log.Sync()

			path, err := browser.EnsureInstalled(log)
			if err != nil {
				return err
			}
			okColor.Fprint(os.Stderr, "✓ ")
			fmt.Fprintf(os.Stderr, "browser engine: %s\n", path)
			return nil
		},
	}
}
