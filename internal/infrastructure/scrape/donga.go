package scrape

import (
	"compress/gzip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"HagwonScanner/internal/domain"
	"HagwonScanner/internal/scanner"
)

// DongaScanner walks the Dong-A Ilbo sitemap index and scrapes every article
// page in the requested year range. The sitemap has no keyword search, so
// filtering happens downstream; checkpointing is per article URL because a
// full pass covers hundreds of thousands of pages.
type DongaScanner struct {
	client *http.Client
	delay  time.Duration
	logger *slog.Logger
}

// NewDongaScanner wires an HTTP client with a scraping-friendly timeout.
func NewDongaScanner(client *http.Client, log *slog.Logger) *DongaScanner {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &DongaScanner{client: client, delay: time.Second, logger: log}
}

// Name identifies the strategy inside the registry.
func (d *DongaScanner) Name() string {
	return "donga"
}

type sitemapDoc struct {
	Sitemaps []sitemapLoc `xml:"sitemap"`
	URLs     []sitemapLoc `xml:"url"`
}

type sitemapLoc struct {
	Loc string `xml:"loc"`
}

// Scan collects article URLs from the sitemap tree and scrapes each one.
func (d *DongaScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Record, error) {
	if len(req.Categories) == 0 {
		return nil, fmt.Errorf("no sitemap configured for site %s", req.SiteName)
	}

	var urls []string
	for _, cat := range req.Categories {
		found, err := d.sitemapURLs(ctx, cat.URL, req.FromYear, req.ToYear)
		if err != nil {
			return nil, fmt.Errorf("sitemap %s: %w", cat.Name, err)
		}
		urls = append(urls, found...)
	}
	d.logger.Info("sitemap urls collected", "count", len(urls))

	var results []domain.Record
	for i, articleURL := range urls {
		if req.Checkpoint != nil && req.Checkpoint.Done(articleURL) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec, err := d.scrapeArticle(ctx, articleURL, req.SiteName)
		if err != nil {
			d.logger.Warn("article scrape failed", "url", articleURL, "error", err)
			continue
		}

		if req.Checkpoint != nil {
			if rec.Text != "" {
				req.Checkpoint.Complete(articleURL, *rec)
			} else {
				req.Checkpoint.Complete(articleURL)
			}
			if err := req.Checkpoint.MaybeSave(); err != nil {
				return nil, err
			}
		} else if rec.Text != "" {
			results = append(results, *rec)
		}

		if i%50 == 49 {
			d.logger.Info("scrape progress", "done", i+1, "total", len(urls))
		}
		sleep(ctx, d.delay)
	}

	if req.Checkpoint != nil {
		return dedupeRecords(req.Checkpoint.Records()), nil
	}
	return results, nil
}

// sitemapURLs reads a sitemap, recursing into index children whose names
// mention a year inside the study range.
func (d *DongaScanner) sitemapURLs(ctx context.Context, sitemapURL string, fromYear, toYear int) ([]string, error) {
	doc, err := d.fetchSitemap(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}

	if len(doc.Sitemaps) > 0 {
		d.logger.Debug("sitemap index", "url", sitemapURL, "children", len(doc.Sitemaps))
		var all []string
		for _, child := range doc.Sitemaps {
			if child.Loc == "" || !nameMentionsYear(child.Loc, fromYear, toYear) {
				continue
			}
			urls, err := d.sitemapURLs(ctx, child.Loc, fromYear, toYear)
			if err != nil {
				d.logger.Warn("child sitemap failed", "url", child.Loc, "error", err)
				continue
			}
			all = append(all, urls...)
			sleep(ctx, d.delay)
		}
		return all, nil
	}

	urls := make([]string, 0, len(doc.URLs))
	for _, u := range doc.URLs {
		if u.Loc != "" {
			urls = append(urls, u.Loc)
		}
	}
	return urls, nil
}

func (d *DongaScanner) fetchSitemap(ctx context.Context, sitemapURL string) (*sitemapDoc, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, sitemapURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("User-Agent", userAgent)

	resp, err := d.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request sitemap: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sitemap returned %s", resp.Status)
	}

	var body io.Reader = resp.Body
	if strings.HasSuffix(sitemapURL, ".gz") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("open gzip sitemap: %w", err)
		}
		defer gz.Close()
		body = gz
	}

	var doc sitemapDoc
	if err := xml.NewDecoder(body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse sitemap: %w", err)
	}
	return &doc, nil
}

func (d *DongaScanner) scrapeArticle(ctx context.Context, articleURL, siteName string) (*domain.Record, error) {
	doc, err := fetchDocument(ctx, d.client, articleURL)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(metaContent(doc, "og:title"))
	date := strings.TrimSpace(metaContent(doc, "og:pubdate"))

	view := doc.Find("section.news_view").First()
	view.Find("script").Remove()
	text := strings.TrimSpace(view.Text())

	text, author := splitDongaByline(text)

	return &domain.Record{
		URL:         articleURL,
		Publication: siteName,
		Title:       title,
		Text:        text,
		Author:      author,
		Date:        date,
		ScrapedAt:   time.Now().Format(time.RFC3339),
	}, nil
}

// splitDongaByline peels the reporter byline off the last line of the body.
func splitDongaByline(text string) (string, string) {
	lines := strings.Split(text, "\n")
	if len(lines) == 0 {
		return text, ""
	}

	last := strings.TrimSpace(lines[len(lines)-1])
	if !strings.Contains(last, "기자") && !strings.Contains(last, "@donga.com") {
		return text, ""
	}

	var author string
	if idx := strings.Index(last, "기자"); idx >= 0 {
		head := last[:idx]
		if eq := strings.LastIndex(head, "="); eq >= 0 {
			head = head[eq+1:]
		}
		author = strings.TrimSpace(head)
	}
	return strings.TrimSpace(strings.Join(lines[:len(lines)-1], "\n")), author
}

func nameMentionsYear(name string, fromYear, toYear int) bool {
	for year := fromYear; year <= toYear; year++ {
		if strings.Contains(name, strconv.Itoa(year)) {
			return true
		}
	}
	return false
}
