package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"HagwonScanner/internal/app"
	"HagwonScanner/internal/classify"
	"HagwonScanner/internal/domain"
	"HagwonScanner/internal/recordio"
	"HagwonScanner/internal/translate"
)

const defaultPollInterval = 60 * time.Second

func newTranslateCmd(application *app.Application) *cobra.Command {
	var (
		input        string
		inProgress   string
		output       string
		textField    string
		maxTokens    int
		dryRun       bool
		testLimit    int
		submitOnly   bool
		processOnly  string
		pollInterval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Translate verified articles through a message batch",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := application.Config()
			if err := cfg.RequireAnthropic(); err != nil {
				return err
			}
			if input == "" && processOnly == "" {
				return fmt.Errorf("--input is required")
			}
			if output == "" {
				output = filepath.Join(cfg.Output.Dir, "translated_articles.json")
			}

			return application.Translator().Run(cmd.Context(), translate.Options{
				Input:        input,
				InProgress:   inProgress,
				Output:       output,
				TextField:    textField,
				Model:        cfg.Anthropic.BatchModel,
				MaxTokens:    maxTokens,
				DryRun:       dryRun,
				TestLimit:    testLimit,
				SubmitOnly:   submitOnly,
				ProcessOnly:  processOnly,
				PollInterval: pollInterval,
			})
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "verified articles JSON")
	cmd.Flags().StringVar(&inProgress, "in-progress", "", "earlier translation output to skip, read-only")
	cmd.Flags().StringVarP(&output, "output", "o", "", "translated articles JSON, appended to")
	cmd.Flags().StringVar(&textField, "text-field", "text", "record field to translate")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 12000, "max output tokens per article")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be submitted and the cost estimate")
	cmd.Flags().IntVar(&testLimit, "test", 0, "submit at most N articles")
	cmd.Flags().BoolVar(&submitOnly, "submit-only", false, "submit and exit without polling")
	cmd.Flags().StringVar(&processOnly, "process-only", "", "process results of an already-submitted batch id")
	cmd.Flags().DurationVar(&pollInterval, "poll-interval", defaultPollInterval, "batch status poll interval")
	return cmd
}

func newTranslateCommentsCmd(application *app.Application) *cobra.Command {
	var (
		input        string
		output       string
		existing     string
		model        string
		dryRun       bool
		testLimit    int
		submitOnly   bool
		processOnly  string
		pollInterval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "translate-comments",
		Short: "Translate scraped YouTube comments and channel names",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := application.Config()
			if err := cfg.RequireAnthropic(); err != nil {
				return err
			}
			if input == "" && processOnly == "" {
				return fmt.Errorf("--input is required")
			}
			if output == "" {
				output = filepath.Join(cfg.Output.Dir, "translated_comments.csv")
			}
			modelName, err := cfg.Anthropic.ClassifyModels.Model(model)
			if err != nil {
				return err
			}

			return application.CommentTranslator().Run(cmd.Context(), translate.CommentOptions{
				Input:        input,
				Output:       output,
				Existing:     existing,
				Model:        model,
				ModelName:    modelName,
				DryRun:       dryRun,
				TestLimit:    testLimit,
				SubmitOnly:   submitOnly,
				ProcessOnly:  processOnly,
				PollInterval: pollInterval,
			})
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "scraped comments CSV")
	cmd.Flags().StringVarP(&output, "output", "o", "", "translated comments CSV")
	cmd.Flags().StringVar(&existing, "existing", "", "earlier translated CSV to merge, read-only")
	cmd.Flags().StringVar(&model, "model", "sonnet", "model family (sonnet or haiku)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be submitted and the cost estimate")
	cmd.Flags().IntVar(&testLimit, "test", 0, "submit at most N comments")
	cmd.Flags().BoolVar(&submitOnly, "submit-only", false, "submit and exit without polling")
	cmd.Flags().StringVar(&processOnly, "process-only", "", "process results of an already-submitted batch id")
	cmd.Flags().DurationVar(&pollInterval, "poll-interval", defaultPollInterval, "batch status poll interval")
	return cmd
}

func newClassifyCmd(application *app.Application) *cobra.Command {
	var (
		input        string
		output       string
		model        string
		maxTokens    int
		dryRun       bool
		estimateOnly bool
		testLimit    int
		submitOnly   bool
		processOnly  string
		pollInterval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Assign codebook codes to translated articles",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := application.Config()
			if err := cfg.RequireAnthropic(); err != nil {
				return err
			}
			if input == "" && processOnly == "" {
				return fmt.Errorf("--input is required")
			}
			if output == "" {
				output = filepath.Join(cfg.Output.Dir, "classified_articles.csv")
			}
			modelName, err := cfg.Anthropic.ClassifyModels.Model(model)
			if err != nil {
				return err
			}

			return application.ArticleClassifier().Run(cmd.Context(), classify.Options{
				Input:        input,
				Output:       output,
				Model:        modelName,
				ModelName:    model,
				MaxTokens:    maxTokens,
				DryRun:       dryRun,
				EstimateOnly: estimateOnly,
				TestLimit:    testLimit,
				SubmitOnly:   submitOnly,
				ProcessOnly:  processOnly,
				PollInterval: pollInterval,
			})
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "translated articles JSON")
	cmd.Flags().StringVarP(&output, "output", "o", "", "classification CSV, appended to")
	cmd.Flags().StringVar(&model, "model", "sonnet", "model family (sonnet or haiku)")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 15000, "max output tokens per article")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be submitted and the cost estimate")
	cmd.Flags().BoolVar(&estimateOnly, "estimate-only", false, "print the cost estimate and exit")
	cmd.Flags().IntVar(&testLimit, "test", 0, "submit at most N articles")
	cmd.Flags().BoolVar(&submitOnly, "submit-only", false, "submit and exit without polling")
	cmd.Flags().StringVar(&processOnly, "process-only", "", "process results of an already-submitted batch id")
	cmd.Flags().DurationVar(&pollInterval, "poll-interval", defaultPollInterval, "batch status poll interval")
	return cmd
}

func newClassifyOneCmd(application *app.Application) *cobra.Command {
	var (
		input string
		url   string
	)

	cmd := &cobra.Command{
		Use:   "classify-one",
		Short: "Classify one translated article synchronously, without a batch",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := application.Config().RequireAnthropic(); err != nil {
				return err
			}
			if input == "" {
				return fmt.Errorf("--input is required")
			}

			records, err := recordio.ReadJSON(input)
			if err != nil {
				return err
			}
			rec, err := pickRecord(records, url)
			if err != nil {
				return err
			}

			classifier, err := application.SyncClassifier()
			if err != nil {
				return err
			}
			assignments, err := classifier.Classify(cmd.Context(), rec)
			if err != nil {
				return err
			}

			fmt.Printf("%s (%s)\n", rec.URL, rec.Date)
			for _, a := range assignments {
				fmt.Printf("  code %d%s: %s\n", a.Code, a.Code5Sub, a.Justification)
				if a.KeyQuote != "" {
					fmt.Printf("    %q\n", a.KeyQuote)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "translated articles JSON")
	cmd.Flags().StringVar(&url, "url", "", "article url to classify (default: first record)")
	return cmd
}

func pickRecord(records []domain.Record, url string) (domain.Record, error) {
	if len(records) == 0 {
		return domain.Record{}, fmt.Errorf("no records in input")
	}
	if url == "" {
		return records[0], nil
	}
	for _, rec := range records {
		if rec.URL == url {
			return rec, nil
		}
	}
	return domain.Record{}, fmt.Errorf("no record with url %s", url)
}

func newClassifyCommentsCmd(application *app.Application) *cobra.Command {
	var (
		input        string
		output       string
		existing     string
		model        string
		dryRun       bool
		testLimit    int
		submitOnly   bool
		processOnly  string
		pollInterval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "classify-comments",
		Short: "Assign one codebook code to each translated comment",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := application.Config()
			if err := cfg.RequireAnthropic(); err != nil {
				return err
			}
			if input == "" && processOnly == "" {
				return fmt.Errorf("--input is required")
			}
			if output == "" {
				output = filepath.Join(cfg.Output.Dir, "classified_comments.csv")
			}
			modelName, err := cfg.Anthropic.ClassifyModels.Model(model)
			if err != nil {
				return err
			}

			return application.CommentClassifier().Run(cmd.Context(), classify.CommentOptions{
				Input:        input,
				Output:       output,
				Existing:     existing,
				Model:        model,
				ModelName:    modelName,
				DryRun:       dryRun,
				TestLimit:    testLimit,
				SubmitOnly:   submitOnly,
				ProcessOnly:  processOnly,
				PollInterval: pollInterval,
			})
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "translated comments CSV")
	cmd.Flags().StringVarP(&output, "output", "o", "", "classified comments CSV")
	cmd.Flags().StringVar(&existing, "existing", "", "earlier classified CSV to merge, read-only")
	cmd.Flags().StringVar(&model, "model", "haiku", "model family (sonnet or haiku)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be submitted and the cost estimate")
	cmd.Flags().IntVar(&testLimit, "test", 0, "submit at most N comments")
	cmd.Flags().BoolVar(&submitOnly, "submit-only", false, "submit and exit without polling")
	cmd.Flags().StringVar(&processOnly, "process-only", "", "process results of an already-submitted batch id")
	cmd.Flags().DurationVar(&pollInterval, "poll-interval", defaultPollInterval, "batch status poll interval")
	return cmd
}

func newStatusCmd(application *app.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <batch-id>",
		Short: "Show the processing status of a submitted batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := application.Config().RequireAnthropic(); err != nil {
				return err
			}
			batch, err := application.BatchClient().RetrieveBatch(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("batch %s: %s\n", batch.ID, batch.ProcessingStatus)
			fmt.Printf("  processing %d, succeeded %d, errored %d, canceled %d, expired %d\n",
				batch.RequestCounts.Processing, batch.RequestCounts.Succeeded,
				batch.RequestCounts.Errored, batch.RequestCounts.Canceled,
				batch.RequestCounts.Expired)
			if batch.EndedAt != "" {
				fmt.Printf("  ended at %s\n", batch.EndedAt)
			}
			return nil
		},
	}
	return cmd
}

func newCancelCmd(application *app.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cancel <batch-id>",
		Short: "Cancel a submitted batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := application.Config().RequireAnthropic(); err != nil {
				return err
			}
			batch, err := application.BatchClient().CancelBatch(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("batch %s: %s\n", batch.ID, batch.ProcessingStatus)
			return nil
		},
	}
	return cmd
}
