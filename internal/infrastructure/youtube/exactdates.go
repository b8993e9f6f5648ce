package youtube

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"HagwonScanner/internal/dates"
	"HagwonScanner/internal/domain"
)

// DateFixSummary reports how many comment dates each path resolved.
type DateFixSummary struct {
	Exact       int
	Approximate int
	AlreadyISO  int
	Failed      int
}

// FixDates replaces relative comment timestamps ("2 days ago") with exact
// API dates where a match is found, falling back to arithmetic against the
// scrape date. Comments already carrying ISO dates pass through untouched.
func FixDates(ctx context.Context, client *Client, records []domain.Record, scrapeDate time.Time, log *slog.Logger) ([]domain.Record, DateFixSummary) {
	var sum DateFixSummary

	// one API fetch per video
	byVideo := map[string][]Comment{}
	for i := range records {
		rec := &records[i]
		if isISODate(rec.Date) {
			sum.AlreadyISO++
			continue
		}

		if client != nil {
			comments, ok := byVideo[rec.VideoURL]
			if !ok {
				videoID := videoIDFrom(rec.VideoURL)
				fetched, err := client.CommentThreads(ctx, videoID)
				if err != nil {
					log.Warn("comment fetch failed", "video", rec.VideoURL, "error", err)
				}
				comments = fetched
				byVideo[rec.VideoURL] = comments
			}
			if exact := findExactDate(rec.Text, rec.Author, comments); exact != "" {
				rec.Date = exact
				sum.Exact++
				continue
			}
		}

		if approx := dates.NormalizeAt(rec.Date, scrapeDate); approx != rec.Date && approx != "" {
			rec.Date = approx
			sum.Approximate++
			continue
		}
		sum.Failed++
	}

	return records, sum
}

// findExactDate matches a scraped comment against API comments. The author
// match uses a 30-rune normalized prefix containment in either direction;
// without an author match a 50-rune prefix equality decides.
func findExactDate(text, author string, apiComments []Comment) string {
	textNorm := normalizeText(text)

	for _, c := range apiComments {
		if c.Author != author {
			continue
		}
		cNorm := normalizeText(c.Text)
		if strings.Contains(cNorm, prefix(textNorm, 30)) || strings.Contains(textNorm, prefix(cNorm, 30)) {
			return c.Date
		}
	}

	for _, c := range apiComments {
		cNorm := normalizeText(c.Text)
		if prefix(textNorm, 50) == prefix(cNorm, 50) {
			return c.Date
		}
	}

	return ""
}

// normalizeText drops all whitespace and lowercases for fuzzy matching.
func normalizeText(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

func prefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		return string(runes[:n])
	}
	return s
}

func isISODate(date string) bool {
	return strings.Contains(date, "T") && strings.Contains(date, "-") &&
		!strings.Contains(strings.ToLower(date), "ago")
}

func videoIDFrom(videoURL string) string {
	_, tail, ok := strings.Cut(videoURL, "v=")
	if !ok {
		return videoURL
	}
	if idx := strings.Index(tail, "&"); idx >= 0 {
		tail = tail[:idx]
	}
	return tail
}
