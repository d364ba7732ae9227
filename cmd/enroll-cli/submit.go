package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// submitCmd confirms the enrollment
var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Confirm and submit the enrollment",
	Long: `Submit the saved answers. Every step must be complete. On success the
saved progress is cleared and receipts are written under the submissions
directory.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.logger.Sync() //nolint:errcheck

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Submitting...")
		submission, err := a.review.Submit(cmd.Context(), a.session)
		if err != nil {
			return err
		}
		payload, err := json.MarshalIndent(submission.Record, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\n\n", payload)
		fmt.Fprintln(out, submission.Message)
		fmt.Fprintf(out, "Submission ID: %s\n", submission.ID)
		fmt.Fprintf(out, "Receipts:      %s\n", a.files.Path(submission.ID))
		return nil
	},
}
