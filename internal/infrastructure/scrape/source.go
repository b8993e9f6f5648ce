// Package scrape implements the per-publication scanner strategies and the
// strategy source that drives them from config.
package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"HagwonScanner/internal/checkpoint"
	"HagwonScanner/internal/config"
	"HagwonScanner/internal/domain"
	"HagwonScanner/internal/ports"
	"HagwonScanner/internal/scanner"
)

// SourceOptions tune one FetchAll pass across all configured sites.
type SourceOptions struct {
	FromYear      int
	ToYear        int
	ScrapeDate    string // single YYYYMMDD day, empty for the full range
	Resume        bool
	CheckpointDir string
	SaveEvery     int
}

// StrategySource implements RecordSource via registered scanner strategies.
type StrategySource struct {
	registry *scanner.Registry
	sites    []config.SiteConfig
	opts     SourceOptions
	logger   *slog.Logger
}

var _ ports.RecordSource = (*StrategySource)(nil)

// NewStrategySource wires the scanner registry with config-defined sites.
func NewStrategySource(reg *scanner.Registry, sites []config.SiteConfig, opts SourceOptions, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		sites:    sites,
		opts:     opts,
		logger:   log,
	}
}

// FetchAll iterates over configured sites and executes their scanners. Each
// site gets its own checkpoint file so an interrupted run resumes where it
// stopped; the checkpoint is removed once the site completes.
func (s *StrategySource) FetchAll(ctx context.Context) ([]domain.Record, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	s.debug("fetch all", "sites", len(s.sites))

	var aggregated []domain.Record
	for _, site := range s.sites {
		s.debug("process site", "site", site.Name, "scanner", site.Scanner, "categories", len(site.Categories))
		strategy, err := s.registry.Resolve(site.Scanner)
		if err != nil {
			return nil, fmt.Errorf("site %s: %w", site.Name, err)
		}

		req := scanner.Request{
			SiteName:   site.Name,
			Keywords:   site.Keywords,
			FromYear:   s.opts.FromYear,
			ToYear:     s.opts.ToYear,
			ScrapeDate: s.opts.ScrapeDate,
			Options:    site.Options,
			Categories: toScannerCategories(site.Categories),
		}

		var store *checkpoint.Store
		if s.opts.Resume {
			store, err = s.openCheckpoint(site.Name)
			if err != nil {
				return nil, fmt.Errorf("site %s: %w", site.Name, err)
			}
			req.Checkpoint = store
		}

		results, err := strategy.Scan(ctx, req)
		if err != nil {
			if store != nil {
				if saveErr := store.Save(); saveErr != nil {
					s.logger.Warn("checkpoint save failed", "site", site.Name, "error", saveErr)
				}
			}
			return nil, fmt.Errorf("scan site %s: %w", site.Name, err)
		}

		for i := range results {
			if results[i].Publication == "" {
				results[i].Publication = site.Name
			}
		}
		s.debug("site produced records", "site", site.Name, "count", len(results))
		aggregated = append(aggregated, results...)

		if store != nil {
			if err := store.Remove(); err != nil {
				s.logger.Warn("checkpoint cleanup failed", "site", site.Name, "error", err)
			}
		}
	}

	s.debug("strategy source done", "total_records", len(aggregated))
	return aggregated, nil
}

func (s *StrategySource) openCheckpoint(site string) (*checkpoint.Store, error) {
	dir := s.opts.CheckpointDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create checkpoint dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("checkpoint_%s.json", site))
	store, err := checkpoint.Open(path, s.opts.SaveEvery)
	if err != nil {
		return nil, err
	}
	if store.ProcessedCount() > 0 {
		s.logger.Info("resuming from checkpoint",
			"site", site, "completed", store.ProcessedCount(), "records", len(store.Records()))
	}
	return store, nil
}

func toScannerCategories(cfg []config.CategoryConfig) []scanner.Category {
	categories := make([]scanner.Category, 0, len(cfg))
	for _, cat := range cfg {
		categories = append(categories, scanner.Category{
			Name: cat.Name,
			URL:  cat.URL,
		})
	}
	return categories
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
