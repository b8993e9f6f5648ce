package scanner

import (
	"context"
	"fmt"

	"HagwonScanner/internal/checkpoint"
	"HagwonScanner/internal/domain"
)

// Category describes a concrete endpoint provided by config: a search page,
// a sitemap index, or an RSS feed depending on the strategy.
type Category struct {
	Name string
	URL  string
}

// Request carries all parameters required to execute a scan.
type Request struct {
	SiteName   string
	Keywords   []string
	FromYear   int
	ToYear     int
	ScrapeDate string // restrict to a single YYYYMMDD day when set
	Categories []Category
	Options    map[string]string
	Checkpoint *checkpoint.Store // nil when resume is disabled
}

// Scanner captures a single strategy implementation (Yonhap, Dong-A, etc.).
type Scanner interface {
	Name() string
	Scan(ctx context.Context, req Request) ([]domain.Record, error)
}

// Registry keeps a mapping from scanner names to their implementations.
type Registry struct {
	scanners map[string]Scanner
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{scanners: map[string]Scanner{}}
}

// Register adds or replaces a scanner implementation.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[string]Scanner{}
	}
	r.scanners[scanner.Name()] = scanner
}

// Resolve returns a scanner by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Scanner, error) {
	if scanner, ok := r.scanners[name]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("scanner %s is not registered", name)
}
