// Package app wires configuration to the pipeline stages. Commands stay
// thin; everything they need is constructed here.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"HagwonScanner/internal/batchjob"
	"HagwonScanner/internal/classify"
	"HagwonScanner/internal/config"
	"HagwonScanner/internal/domain"
	"HagwonScanner/internal/filter"
	"HagwonScanner/internal/infrastructure/anthropic"
	"HagwonScanner/internal/infrastructure/scrape"
	"HagwonScanner/internal/infrastructure/storage"
	"HagwonScanner/internal/infrastructure/youtube"
	"HagwonScanner/internal/logging"
	"HagwonScanner/internal/ports"
	"HagwonScanner/internal/recordio"
	"HagwonScanner/internal/report"
	"HagwonScanner/internal/scanner"
	"HagwonScanner/internal/translate"
)

// Application holds the configured building blocks shared by all commands.
type Application struct {
	cfg config.Config
	log *slog.Logger
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	return &Application{cfg: cfg, log: baseLogger}
}

// Config exposes the loaded configuration to commands.
func (a *Application) Config() config.Config {
	return a.cfg
}

// Logger returns a component logger.
func (a *Application) Logger(component string) *slog.Logger {
	return a.log.With("component", component)
}

// ScrapeOptions select which sites to scan and how.
type ScrapeOptions struct {
	Sites         []string // empty means all configured sites
	Output        string
	Resume        bool
	ScrapeDate    string
	CheckpointDir string
	SaveEvery     int
}

// Scrape runs the configured scanner strategies and writes articles to a
// JSON file and YouTube comments to a CSV next to it.
func (a *Application) Scrape(ctx context.Context, opts ScrapeOptions) error {
	registry := a.buildRegistry()

	sites := a.selectSites(opts.Sites)
	if len(sites) == 0 {
		return fmt.Errorf("no sites matched %v", opts.Sites)
	}

	source := scrape.NewStrategySource(registry, sites, scrape.SourceOptions{
		FromYear:      a.cfg.Study.FromYear,
		ToYear:        a.cfg.Study.ToYear,
		ScrapeDate:    opts.ScrapeDate,
		Resume:        opts.Resume,
		CheckpointDir: opts.CheckpointDir,
		SaveEvery:     opts.SaveEvery,
	}, a.Logger("source"))

	records, err := source.FetchAll(ctx)
	if err != nil {
		return err
	}

	var articles, comments []domain.Record
	for _, rec := range records {
		if rec.VideoURL != "" {
			comments = append(comments, rec)
		} else {
			articles = append(articles, rec)
		}
	}

	if len(articles) > 0 || len(comments) == 0 {
		if err := recordio.WriteJSON(opts.Output, articles); err != nil {
			return err
		}
		a.log.Info("articles saved", "output", opts.Output, "count", len(articles))
	}
	if len(comments) > 0 {
		csvPath := commentsPath(opts.Output)
		if err := recordio.WriteCommentsCSV(csvPath, comments); err != nil {
			return err
		}
		a.log.Info("comments saved", "output", csvPath, "count", len(comments))
	}
	return nil
}

// buildRegistry registers every scanner strategy the config can name.
func (a *Application) buildRegistry() *scanner.Registry {
	registry := scanner.NewRegistry()
	registry.Register(scrape.NewYonhapScanner(nil, a.Logger("scanner.yonhap")))
	registry.Register(scrape.NewDongaScanner(nil, a.Logger("scanner.donga")))
	registry.Register(scrape.NewJoongangScanner(nil, a.Logger("scanner.joongang")))
	registry.Register(scrape.NewSBSScanner(nil, a.Logger("scanner.sbs")))
	registry.Register(scrape.NewRSSScanner(a.Logger("scanner.rss")))

	if a.cfg.YouTube.APIKey != "" {
		client := youtube.NewClient(a.cfg.YouTube.APIKey, nil, "")
		registry.Register(youtube.NewCommentScanner(
			client, a.cfg.YouTube.MaxVideos, a.cfg.YouTube.CommentsPerPage,
			a.Logger("scanner.youtube")))
	}
	return registry
}

// selectSites filters configured sites by name and appends a synthesized
// youtube site when channels are configured without one.
func (a *Application) selectSites(names []string) []config.SiteConfig {
	sites := a.cfg.Sites
	if site, ok := a.youtubeSite(); ok {
		sites = append(sites, site)
	}

	if len(names) == 0 {
		return sites
	}

	wanted := map[string]bool{}
	for _, n := range names {
		wanted[n] = true
	}
	var out []config.SiteConfig
	for _, site := range sites {
		if wanted[site.Name] {
			out = append(out, site)
		}
	}
	return out
}

// youtubeSite builds a site from youtube.channels config when no explicit
// youtube site exists.
func (a *Application) youtubeSite() (config.SiteConfig, bool) {
	if len(a.cfg.YouTube.Channels) == 0 {
		return config.SiteConfig{}, false
	}
	for _, site := range a.cfg.Sites {
		if site.Scanner == "youtube" {
			return config.SiteConfig{}, false
		}
	}

	categories := make([]config.CategoryConfig, 0, len(a.cfg.YouTube.Channels))
	for _, ch := range a.cfg.YouTube.Channels {
		categories = append(categories, config.CategoryConfig{
			Name: youtube.HandleFrom(ch),
			URL:  ch,
		})
	}
	return config.SiteConfig{
		Name:       "youtube",
		Scanner:    "youtube",
		Keywords:   []string{"학원", "강사"},
		Categories: categories,
	}, true
}

// FixCommentDates replaces relative comment dates with exact API timestamps
// where a match is found, approximations otherwise.
func (a *Application) FixCommentDates(ctx context.Context, input, output string, scrapeDate time.Time) error {
	if err := a.cfg.RequireYouTube(); err != nil {
		return err
	}
	log := a.Logger("exactdates")

	records, err := recordio.ReadCommentsCSV(input)
	if err != nil {
		return err
	}
	log.Info("comments loaded", "input", input, "count", len(records))

	client := youtube.NewClient(a.cfg.YouTube.APIKey, nil, "")
	fixed, sum := youtube.FixDates(ctx, client, records, scrapeDate, log)

	if err := recordio.WriteCommentsCSV(output, fixed); err != nil {
		return err
	}
	log.Info("dates fixed", "output", output,
		"exact", sum.Exact, "approximate", sum.Approximate,
		"already_iso", sum.AlreadyISO, "failed", sum.Failed)
	return nil
}

// Filter runs the double keyword filter over a scraped file. The archive is
// attached when a database DSN is configured.
func (a *Application) Filter(ctx context.Context, opts filter.StageOptions) (filter.Summary, error) {
	opts.Logger = a.Logger("filter")
	if opts.FromYear == 0 {
		opts.FromYear = a.cfg.Study.FromYear
	}
	if opts.ToYear == 0 {
		opts.ToYear = a.cfg.Study.ToYear
	}

	if a.cfg.Database.DSN != "" {
		archive, err := storage.Open(ctx, a.cfg.Database.DSN)
		if err != nil {
			return filter.Summary{}, err
		}
		defer archive.Close()
		opts.Archive = archive
	}
	return filter.Run(ctx, opts)
}

// BatchClient returns the Anthropic batch client.
func (a *Application) BatchClient() *anthropic.Client {
	return anthropic.NewClient(a.cfg.Anthropic.APIKey, nil, "")
}

// BatchDir is where batch artifacts live.
func (a *Application) BatchDir() string {
	return filepath.Join(a.cfg.Output.Dir, "batches")
}

// Translator builds the article translation stage.
func (a *Application) Translator() *translate.Stage {
	return &translate.Stage{
		Job: &batchjob.Job{
			Client: a.BatchClient(),
			Dir:    a.BatchDir(),
			Prefix: "article",
			Logger: a.Logger("translate"),
		},
		Logger: a.Logger("translate"),
	}
}

// CommentTranslator builds the comment translation stage.
func (a *Application) CommentTranslator() *translate.CommentStage {
	return &translate.CommentStage{
		Client: a.BatchClient(),
		Dir:    a.BatchDir(),
		Logger: a.Logger("translate.comments"),
	}
}

// ArticleClassifier builds the article classification stage.
func (a *Application) ArticleClassifier() *classify.Stage {
	return &classify.Stage{
		Job: &batchjob.Job{
			Client: a.BatchClient(),
			Dir:    a.BatchDir(),
			Prefix: "article",
			Logger: a.Logger("classify"),
		},
		Logger: a.Logger("classify"),
	}
}

// SyncClassifier builds the synchronous spot-check classifier. Bulk runs go
// through ArticleClassifier instead.
func (a *Application) SyncClassifier() (ports.Classifier, error) {
	return classify.NewAgentClassifier(a.cfg.Anthropic.APIKey, a.cfg.Anthropic.MaxTokens)
}

// CommentClassifier builds the comment classification stage.
func (a *Application) CommentClassifier() *classify.CommentStage {
	return &classify.CommentStage{
		Client: a.BatchClient(),
		Dir:    a.BatchDir(),
		Logger: a.Logger("classify.comments"),
	}
}

// Reporter builds a table writer with the given file prefix.
func (a *Application) Reporter(dir, prefix string) *report.Writer {
	if dir == "" {
		dir = filepath.Join(a.cfg.Output.Dir, "tables")
	}
	return &report.Writer{
		Dir:    dir,
		Prefix: prefix,
		Out:    recordio.WriteCSV,
		Logger: a.Logger("report"),
	}
}

func commentsPath(output string) string {
	ext := filepath.Ext(output)
	base := output[:len(output)-len(ext)]
	return base + "_comments.csv"
}
