package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/sma-enrollment-wizard/internal/models"
)

var outputFormat string

// showCmd prints the review screen
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the review screen",
	Long:  "Print the saved answers grouped by step, as a table (default), yaml or json.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.logger.Sync() //nolint:errcheck

		view, err := a.review.View(cmd.Context(), a.session)
		if err != nil {
			return err
		}
		return renderReview(cmd.OutOrStdout(), view, outputFormat)
	},
}

func init() {
	showCmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "output format: table, yaml or json")
}

func renderReview(out io.Writer, view models.ReviewView, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(view)
	case "table", "":
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "%s\n", view.Progress.Label)
		for _, section := range view.Sections {
			fmt.Fprintf(tw, "\n%s\t(edit: enroll-cli wizard --step %d)\n", section.Title, int(section.Step))
			for _, item := range section.Items {
				fmt.Fprintf(tw, "  %s\t%s\n", item.Label, item.Value)
			}
		}
		if !view.Complete {
			fmt.Fprintln(tw, "\nSome steps are incomplete; submit will be refused.")
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
