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

const joongangBaseURL = "https://www.joongang.co.kr"

// JoongangScanner searches the JoongAng Ilbo site keyword by keyword,
// collects article URLs from the result pages, then scrapes each article.
// Checkpointing is per article URL.
type JoongangScanner struct {
	client   *http.Client
	maxPages int
	delay    time.Duration
	logger   *slog.Logger
}

// NewJoongangScanner wires an HTTP client; maxPages caps pagination per keyword.
func NewJoongangScanner(client *http.Client, log *slog.Logger) *JoongangScanner {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &JoongangScanner{client: client, maxPages: 400, delay: time.Second, logger: log}
}

// Name identifies the strategy inside the registry.
func (j *JoongangScanner) Name() string {
	return "joongang"
}

// Scan collects article URLs for every keyword, dedups them, and scrapes
// each article page.
func (j *JoongangScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Record, error) {
	if len(req.Categories) == 0 {
		return nil, fmt.Errorf("no search endpoint configured for site %s", req.SiteName)
	}
	if len(req.Keywords) == 0 {
		return nil, fmt.Errorf("no keywords configured for site %s", req.SiteName)
	}

	searchURL := req.Categories[0].URL
	startDate := fmt.Sprintf("%d-01-01", req.FromYear)
	endDate := fmt.Sprintf("%d-12-31", req.ToYear)

	urlSet := map[string]struct{}{}
	for _, keyword := range req.Keywords {
		found, err := j.searchKeyword(ctx, searchURL, keyword, startDate, endDate)
		if err != nil {
			return nil, fmt.Errorf("keyword %s: %w", keyword, err)
		}
		for _, u := range found {
			urlSet[u] = struct{}{}
		}
		j.logger.Info("keyword search done", "keyword", keyword, "urls", len(found))
		sleep(ctx, j.delay)
	}

	urls := make([]string, 0, len(urlSet))
	for u := range urlSet {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	j.logger.Info("unique article urls", "count", len(urls))

	var results []domain.Record
	for _, articleURL := range urls {
		if req.Checkpoint != nil && req.Checkpoint.Done(articleURL) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec, err := j.scrapeArticle(ctx, articleURL, req.SiteName)
		if err != nil {
			j.logger.Warn("article scrape failed", "url", articleURL, "error", err)
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
		sleep(ctx, j.delay)
	}

	if req.Checkpoint != nil {
		return dedupeRecords(req.Checkpoint.Records()), nil
	}
	return results, nil
}

// searchKeyword paginates the search results until a page comes back empty.
func (j *JoongangScanner) searchKeyword(ctx context.Context, searchURL, keyword, startDate, endDate string) ([]string, error) {
	var all []string
	seen := map[string]struct{}{}

	for page := 1; page <= j.maxPages; page++ {
		pageURL, err := buildSearchURL(searchURL, keyword, startDate, endDate, page)
		if err != nil {
			return nil, err
		}

		doc, err := fetchDocument(ctx, j.client, pageURL)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}

		found := extractArticleLinks(doc)
		added := 0
		for _, u := range found {
			if _, ok := seen[u]; ok {
				continue
			}
			seen[u] = struct{}{}
			all = append(all, u)
			added++
		}

		if added == 0 {
			break
		}
		sleep(ctx, j.delay)
	}

	return all, nil
}

func extractArticleLinks(doc *goquery.Document) []string {
	var urls []string
	doc.Find("a[href*=\"/article/\"]").Each(func(_ int, link *goquery.Selection) {
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		if strings.HasPrefix(href, "/") {
			href = joongangBaseURL + href
		}
		// drop query parameters so the same article dedups
		if idx := strings.Index(href, "?"); idx >= 0 {
			href = href[:idx]
		}
		urls = append(urls, href)
	})
	return urls
}

func (j *JoongangScanner) scrapeArticle(ctx context.Context, articleURL, siteName string) (*domain.Record, error) {
	doc, err := fetchDocument(ctx, j.client, articleURL)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(metaContent(doc, "og:title"))
	title = strings.TrimSuffix(title, " | 중앙일보")
	title = strings.TrimSuffix(title, " | JoongAng Ilbo")
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1.headline").First().Text())
	}

	date := strings.TrimSpace(metaContent(doc, "article:published_time"))
	if date == "" {
		if dt, ok := doc.Find("time[itemprop=datePublished]").First().Attr("datetime"); ok {
			date = dt
		}
	}

	author := strings.TrimSpace(metaName(doc, "author"))
	if author == "" {
		author = strings.TrimSpace(doc.Find("div.byline a").First().Text())
		author = strings.TrimSpace(strings.TrimSuffix(author, "기자"))
	}

	body := doc.Find("div#article_body").First()
	paragraphs := body.Find("p[data-divno]")
	if paragraphs.Length() == 0 {
		paragraphs = body.Find("p")
	}
	var parts []string
	paragraphs.Each(func(_ int, p *goquery.Selection) {
		if t := strings.TrimSpace(p.Text()); t != "" {
			parts = append(parts, t)
		}
	})

	return &domain.Record{
		URL:         articleURL,
		Publication: siteName,
		Title:       title,
		Text:        strings.Join(parts, "\n"),
		Author:      author,
		Date:        date,
		ScrapedAt:   time.Now().Format(time.RFC3339),
	}, nil
}

func buildSearchURL(base, keyword, startDate, endDate string, page int) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid search url %s: %w", base, err)
	}

	query := parsed.Query()
	query.Set("keyword", keyword)
	query.Set("sfield", "all")
	query.Set("startDate", startDate)
	query.Set("endDate", endDate)
	query.Set("page", strconv.Itoa(page))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
