package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"HagwonScanner/internal/app"
	"HagwonScanner/internal/config"
	"HagwonScanner/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "hagwonscanner",
	Short: "Scrape, filter, translate, and classify Korean news coverage of hagwon instructors",
	Long: `hagwonscanner drives a pipeline over Korean news articles and YouTube
comments: scraping with checkpointed resume, keyword filtering, batch
translation and classification through the Anthropic API, and CSV
aggregation tables.`,
	SilenceUsage: true,
}

func main() {
	// .env is optional; real environments set variables directly
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	application := app.New(cfg, logger)

	rootCmd.AddCommand(
		newScrapeCmd(application),
		newFixDatesCmd(application),
		newFilterCmd(application),
		newTranslateCmd(application),
		newTranslateCommentsCmd(application),
		newClassifyCmd(application),
		newClassifyOneCmd(application),
		newClassifyCommentsCmd(application),
		newReportCmd(application),
		newStatusCmd(application),
		newCancelCmd(application),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
