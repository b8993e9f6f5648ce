package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"HagwonScanner/internal/app"
	"HagwonScanner/internal/filter"
)

func newScrapeCmd(application *app.Application) *cobra.Command {
	var (
		sites      []string
		output     string
		resume     bool
		scrapeDate string
		saveEvery  int
	)

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape configured news sites and YouTube channels",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := application.Config()
			if output == "" {
				output = filepath.Join(cfg.Output.Dir, "scraped_articles.json")
			}
			if scrapeDate != "" {
				if _, err := time.Parse("20060102", scrapeDate); err != nil {
					return fmt.Errorf("--scrape-date must be YYYYMMDD: %w", err)
				}
			}
			return application.Scrape(cmd.Context(), app.ScrapeOptions{
				Sites:         sites,
				Output:        output,
				Resume:        resume,
				ScrapeDate:    scrapeDate,
				CheckpointDir: filepath.Join(cfg.Output.Dir, "checkpoints"),
				SaveEvery:     saveEvery,
			})
		},
	}

	cmd.Flags().StringSliceVar(&sites, "site", nil, "site names to scan (default: all configured)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output JSON file for articles")
	cmd.Flags().BoolVar(&resume, "resume", true, "resume from checkpoints")
	cmd.Flags().StringVar(&scrapeDate, "scrape-date", "", "scan a single day (YYYYMMDD) instead of the full study range")
	cmd.Flags().IntVar(&saveEvery, "checkpoint-every", 10, "save checkpoint after this many completed units")
	return cmd
}

func newFixDatesCmd(application *app.Application) *cobra.Command {
	var (
		input     string
		output    string
		scrapedOn string
	)

	cmd := &cobra.Command{
		Use:   "fix-dates",
		Short: "Replace relative YouTube comment dates with exact API timestamps",
		RunE: func(cmd *cobra.Command, args []string) error {
			if input == "" {
				return fmt.Errorf("--input is required")
			}
			if output == "" {
				output = input
			}
			scrapeDate := time.Now()
			if scrapedOn != "" {
				parsed, err := time.Parse("2006-01-02", scrapedOn)
				if err != nil {
					return fmt.Errorf("--scraped-on must be YYYY-MM-DD: %w", err)
				}
				scrapeDate = parsed
			}
			return application.FixCommentDates(cmd.Context(), input, output, scrapeDate)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "comments CSV to fix")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output CSV (default: overwrite input)")
	cmd.Flags().StringVar(&scrapedOn, "scraped-on", "", "date the comments were scraped, anchors relative dates (YYYY-MM-DD)")
	return cmd
}

func newFilterCmd(application *app.Application) *cobra.Command {
	var (
		input        string
		output       string
		textField    string
		publication  string
		saveExcluded bool
		writeCSV     bool
	)

	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Apply the double keyword filter to scraped records",
		RunE: func(cmd *cobra.Command, args []string) error {
			if input == "" {
				return fmt.Errorf("--input is required")
			}
			if output == "" {
				output = filepath.Join(application.Config().Output.Dir, "verified_articles.json")
			}

			sum, err := application.Filter(cmd.Context(), filter.StageOptions{
				Input:        input,
				Output:       output,
				TextField:    textField,
				Publication:  publication,
				SaveExcluded: saveExcluded,
				WriteCSV:     writeCSV,
			})
			if err != nil {
				return err
			}
			fmt.Printf("loaded %d, duplicates %d, outside range %d, verified %d, rejected %d (%.1f%% accepted)\n",
				sum.Loaded, sum.Duplicates, sum.OutsideRange, sum.Verified, sum.Rejected,
				sum.AcceptanceRate())
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "scraped records JSON")
	cmd.Flags().StringVarP(&output, "output", "o", "", "verified records JSON")
	cmd.Flags().StringVar(&textField, "text-field", "text", "record field the filter reads (text or translated_text)")
	cmd.Flags().StringVar(&publication, "publication", "", "backfill publication for records missing one")
	cmd.Flags().BoolVar(&saveExcluded, "save-excluded", false, "also write rejected records to <output>_excluded.json")
	cmd.Flags().BoolVar(&writeCSV, "csv", false, "also write verified records as CSV")
	return cmd
}
