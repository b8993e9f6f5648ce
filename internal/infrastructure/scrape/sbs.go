package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"HagwonScanner/internal/domain"
	"HagwonScanner/internal/scanner"
)

const sbsArticleURL = "https://news.sbs.co.kr/news/endPage.do?news_id="

// SBSScanner searches SBS News one keyword-year at a time, because the search
// backend caps result depth. Articles found under several keywords keep all
// of them in KeywordsMatched. Checkpointing is per keyword-year pair.
type SBSScanner struct {
	client *http.Client
	delay  time.Duration
	logger *slog.Logger
}

// NewSBSScanner wires an HTTP client with a scraping-friendly timeout.
func NewSBSScanner(client *http.Client, log *slog.Logger) *SBSScanner {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &SBSScanner{client: client, delay: time.Second, logger: log}
}

// Name identifies the strategy inside the registry.
func (s *SBSScanner) Name() string {
	return "sbs"
}

// Scan walks every year of the study range per keyword, collects news ids
// from the result pages, then scrapes each article once.
func (s *SBSScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Record, error) {
	if len(req.Categories) == 0 {
		return nil, fmt.Errorf("no search endpoint configured for site %s", req.SiteName)
	}
	if len(req.Keywords) == 0 {
		return nil, fmt.Errorf("no keywords configured for site %s", req.SiteName)
	}

	searchURL := req.Categories[0].URL

	// newsID -> keywords that found it
	matched := map[string][]string{}

	for year := req.FromYear; year <= req.ToYear; year++ {
		for _, keyword := range req.Keywords {
			unit := fmt.Sprintf("%s|%d", keyword, year)
			if req.Checkpoint != nil && req.Checkpoint.Done(unit) {
				continue
			}

			ids, err := s.collectNewsIDs(ctx, searchURL, keyword, year)
			if err != nil {
				return nil, fmt.Errorf("keyword %s year %d: %w", keyword, year, err)
			}
			for _, id := range ids {
				matched[id] = append(matched[id], keyword)
			}
			s.logger.Info("search done", "keyword", keyword, "year", year, "articles", len(ids))
		}
	}

	ids := make([]string, 0, len(matched))
	for id := range matched {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	s.logger.Info("unique articles", "count", len(ids))

	var results []domain.Record
	for _, id := range ids {
		articleURL := sbsArticleURL + id
		if req.Checkpoint != nil && req.Checkpoint.Done(articleURL) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec, err := s.scrapeArticle(ctx, articleURL, req.SiteName)
		if err != nil {
			s.logger.Warn("article scrape failed", "url", articleURL, "error", err)
			continue
		}
		rec.KeywordsMatched = matched[id]

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
		sleep(ctx, s.delay)
	}

	// mark search units complete only after the articles were scraped
	if req.Checkpoint != nil {
		for year := req.FromYear; year <= req.ToYear; year++ {
			for _, keyword := range req.Keywords {
				unit := fmt.Sprintf("%s|%d", keyword, year)
				if !req.Checkpoint.Done(unit) {
					req.Checkpoint.Complete(unit)
				}
			}
		}
		if err := req.Checkpoint.Save(); err != nil {
			return nil, err
		}
		return dedupeRecords(req.Checkpoint.Records()), nil
	}
	return results, nil
}

// collectNewsIDs paginates one keyword-year search until a page adds nothing.
func (s *SBSScanner) collectNewsIDs(ctx context.Context, searchURL, keyword string, year int) ([]string, error) {
	var ids []string
	seen := map[string]struct{}{}

	for page := 1; ; page++ {
		pageURL, err := buildSBSSearchURL(searchURL, keyword, year, page)
		if err != nil {
			return nil, err
		}

		doc, err := fetchDocument(ctx, s.client, pageURL)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}

		added := 0
		doc.Find("a[href*=\"endPage.do?news_id=\"]").Each(func(_ int, link *goquery.Selection) {
			href, ok := link.Attr("href")
			if !ok {
				return
			}
			id := newsIDFrom(href)
			if id == "" {
				return
			}
			if _, dup := seen[id]; dup {
				return
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
			added++
		})

		if added == 0 {
			break
		}
		sleep(ctx, s.delay)
	}

	return ids, nil
}

func (s *SBSScanner) scrapeArticle(ctx context.Context, articleURL, siteName string) (*domain.Record, error) {
	doc, err := fetchDocument(ctx, s.client, articleURL)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(doc.Find("h1.title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("div.title").First().Text())
	}

	date := strings.TrimSpace(doc.Find("div.date_area, span.date_area").First().Text())
	if date == "" {
		date = strings.TrimSpace(metaContent(doc, "article:published_time"))
	}
	if date == "" {
		date = strings.TrimSpace(doc.Find("div.article_info, p.date").First().Text())
	}

	text := strings.TrimSpace(doc.Find("div.text_area").First().Text())
	if text == "" {
		text = strings.TrimSpace(doc.Find("div#cnbc_body").First().Text())
	}

	return &domain.Record{
		URL:         articleURL,
		Publication: siteName,
		Title:       title,
		Text:        text,
		Date:        date,
		ScrapedAt:   time.Now().Format(time.RFC3339),
	}, nil
}

func newsIDFrom(href string) string {
	_, tail, ok := strings.Cut(href, "news_id=")
	if !ok {
		return ""
	}
	if idx := strings.Index(tail, "&"); idx >= 0 {
		tail = tail[:idx]
	}
	return tail
}

func buildSBSSearchURL(base, keyword string, year, page int) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid search url %s: %w", base, err)
	}

	query := parsed.Query()
	query.Set("query", keyword)
	query.Set("startDate", fmt.Sprintf("%d-01-01", year))
	query.Set("endDate", fmt.Sprintf("%d-12-31", year))
	query.Set("searchOption", "on")
	query.Set("pageIdx", strconv.Itoa(page))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
