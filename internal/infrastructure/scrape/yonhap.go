package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"HagwonScanner/internal/domain"
	"HagwonScanner/internal/scanner"
)

const yonhapArticleURL = "https://www.yna.co.kr/view/"

// YonhapScanner queries the Yonhap search API keyword by keyword. Results
// arrive as JSON with the article body inline, so no per-article fetch is
// needed. Checkpointing is per keyword: a keyword is marked done only after
// all of its pages were read.
type YonhapScanner struct {
	client   *http.Client
	pageSize int
	delay    time.Duration
	logger   *slog.Logger
}

// NewYonhapScanner wires an HTTP client; pageSize defaults to 100.
func NewYonhapScanner(client *http.Client, log *slog.Logger) *YonhapScanner {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &YonhapScanner{client: client, pageSize: 100, delay: 300 * time.Millisecond, logger: log}
}

// Name identifies the strategy inside the registry.
func (y *YonhapScanner) Name() string {
	return "yonhap"
}

type yonhapResponse struct {
	Basic yonhapChannel `json:"YIB_KR_A"`
}

type yonhapChannel struct {
	TotalCount int            `json:"totalCount"`
	Result     []yonhapResult `json:"result"`
}

type yonhapResult struct {
	CID      string `json:"CID"`
	Title    string `json:"TITLE"`
	Body     string `json:"BODY"`
	Datetime string `json:"DATETIME"`
	Writer   string `json:"WRITER_NAME"`
}

// Scan walks every keyword through the search API and returns all matching
// articles in the requested year range.
func (y *YonhapScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Record, error) {
	if len(req.Categories) == 0 {
		return nil, fmt.Errorf("no search endpoint configured for site %s", req.SiteName)
	}
	if len(req.Keywords) == 0 {
		return nil, fmt.Errorf("no keywords configured for site %s", req.SiteName)
	}

	searchURL := req.Categories[0].URL
	fromDate, toDate := dateBounds(req)

	seen := map[string]struct{}{}
	var results []domain.Record

	for _, keyword := range req.Keywords {
		if req.Checkpoint != nil && req.Checkpoint.Done(keyword) {
			y.logger.Info("keyword already completed", "keyword", keyword)
			continue
		}

		records, err := y.scanKeyword(ctx, searchURL, keyword, fromDate, toDate, req.SiteName, seen)
		if err != nil {
			return nil, fmt.Errorf("keyword %s: %w", keyword, err)
		}
		y.logger.Info("keyword done", "keyword", keyword, "records", len(records))

		if req.Checkpoint != nil {
			req.Checkpoint.Complete(keyword, records...)
			if err := req.Checkpoint.Save(); err != nil {
				return nil, err
			}
		} else {
			results = append(results, records...)
		}
	}

	if req.Checkpoint != nil {
		return dedupeRecords(req.Checkpoint.Records()), nil
	}
	return results, nil
}

func (y *YonhapScanner) scanKeyword(ctx context.Context, searchURL, keyword, fromDate, toDate, siteName string, seen map[string]struct{}) ([]domain.Record, error) {
	var records []domain.Record

	first, err := y.fetchPage(ctx, searchURL, keyword, fromDate, toDate, 1)
	if err != nil {
		return nil, err
	}

	total := first.Basic.TotalCount
	if total == 0 {
		return nil, nil
	}
	totalPages := total/y.pageSize + 1

	page := first
	for pageNo := 1; pageNo <= totalPages; pageNo++ {
		if pageNo > 1 {
			sleep(ctx, y.delay)
			page, err = y.fetchPage(ctx, searchURL, keyword, fromDate, toDate, pageNo)
			if err != nil {
				return nil, fmt.Errorf("page %d: %w", pageNo, err)
			}
		}

		for _, item := range page.Basic.Result {
			if item.CID == "" {
				continue
			}
			if _, ok := seen[item.CID]; ok {
				continue
			}
			seen[item.CID] = struct{}{}

			records = append(records, domain.Record{
				URL:             yonhapArticleURL + item.CID,
				Publication:     siteName,
				Title:           stripBold(item.Title),
				Text:            stripBold(item.Body),
				Author:          item.Writer,
				Date:            item.Datetime,
				KeywordsMatched: []string{keyword},
				ScrapedAt:       time.Now().Format(time.RFC3339),
			})
		}
	}

	return records, nil
}

func (y *YonhapScanner) fetchPage(ctx context.Context, searchURL, keyword, fromDate, toDate string, pageNo int) (*yonhapResponse, error) {
	parsed, err := url.Parse(searchURL)
	if err != nil {
		return nil, fmt.Errorf("invalid search url %s: %w", searchURL, err)
	}

	query := parsed.Query()
	query.Set("query", keyword)
	query.Set("page_no", strconv.Itoa(pageNo))
	query.Set("page_size", strconv.Itoa(y.pageSize))
	query.Set("scope", "all")
	query.Set("sort", "date")
	query.Set("channel", "basic_kr")
	query.Set("div_code", "all")
	query.Set("from", fromDate)
	query.Set("to", toDate)
	parsed.RawQuery = query.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("User-Agent", userAgent)

	resp, err := y.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request search page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search api returned %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var out yonhapResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return &out, nil
}

// stripBold removes the <b> highlighting the search API injects around hits.
func stripBold(s string) string {
	s = strings.ReplaceAll(s, "<b>", "")
	return strings.ReplaceAll(s, "</b>", "")
}

func dateBounds(req scanner.Request) (string, string) {
	if req.ScrapeDate != "" {
		return req.ScrapeDate, req.ScrapeDate
	}
	return fmt.Sprintf("%d0101", req.FromYear), fmt.Sprintf("%d1231", req.ToYear)
}

func dedupeRecords(records []domain.Record) []domain.Record {
	seen := map[string]struct{}{}
	out := make([]domain.Record, 0, len(records))
	for _, rec := range records {
		key := rec.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rec)
	}
	return out
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
