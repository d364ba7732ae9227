package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Discard saved progress",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.logger.Sync() //nolint:errcheck

		if err := a.review.Reset(cmd.Context(), a.session); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved progress cleared.")
		return nil
	},
}
