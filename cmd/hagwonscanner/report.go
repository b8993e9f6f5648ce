package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"HagwonScanner/internal/app"
	"HagwonScanner/internal/classify"
	"HagwonScanner/internal/domain"
	"HagwonScanner/internal/report"
)

func newReportCmd(application *app.Application) *cobra.Command {
	var (
		input    string
		dir      string
		prefix   string
		comments bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Aggregate classification results into CSV tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			if input == "" {
				return fmt.Errorf("--input is required")
			}
			if prefix == "" {
				prefix = "article"
				if comments {
					prefix = "yt"
				}
			}

			assignments, err := loadAssignments(input, comments)
			if err != nil {
				return err
			}

			rows, err := application.Reporter(dir, prefix).WriteAll(assignments)
			if err != nil {
				return err
			}
			fmt.Printf("aggregated %d classified rows\n", rows)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "classification CSV to aggregate")
	cmd.Flags().StringVar(&dir, "dir", "", "table output directory (default: <output.dir>/tables)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "table file prefix (default: article, or yt with --comments)")
	cmd.Flags().BoolVar(&comments, "comments", false, "input is a classified comments CSV")
	return cmd
}

func loadAssignments(input string, comments bool) ([]domain.CodeAssignment, error) {
	if comments {
		return report.LoadCommentAssignments(input)
	}
	return classify.ReadAssignmentsCSV(input)
}
