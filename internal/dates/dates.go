// Package dates converts the heterogeneous date encodings produced by the
// scrapers into one canonical ISO 8601 form with an explicit UTC+9 offset.
// Unrecognized input passes through unchanged so that downstream year-range
// filtering drops it instead of guessing.
package dates

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const approxMarker = " (approx)"

var (
	sbsExpr      = regexp.MustCompile(`작성(\d{4})\.(\d{1,2})\.(\d{1,2})\s+(\d{1,2}):(\d{2})`)
	koreanExpr   = regexp.MustCompile(`(\d{4})년\s*(\d{1,2})월\s*(\d{1,2})일`)
	koreanYear   = regexp.MustCompile(`(\d{4})년`)
	relativeExpr = regexp.MustCompile(`^(\d+)\s+(second|minute|hour|day|week|month|year)s?\s+ago$`)
)

// Normalize maps a recognized date shape to ISO 8601 with a +09:00 offset.
// Already-normalized values pass through, which makes Normalize idempotent.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return raw
	}

	// already ISO with an explicit zone (includes relative conversions,
	// which carry a Z suffix and possibly an approx marker)
	if strings.Contains(s, "T") && (strings.Contains(s, "+") || strings.Contains(s, "Z")) {
		return raw
	}

	// SBS byline: "작성2005.12.12 10:01조회조회수"
	if m := sbsExpr.FindStringSubmatch(s); m != nil {
		return fmt.Sprintf("%s-%s-%sT%s:%s:00+09:00",
			m[1], pad2(m[2]), pad2(m[3]), pad2(m[4]), m[5])
	}

	// Yonhap compact timestamp: 20191229154508
	if len(s) == 14 && isDigits(s) {
		return fmt.Sprintf("%s-%s-%sT%s:%s:%s+09:00",
			s[0:4], s[4:6], s[6:8], s[8:10], s[10:12], s[12:14])
	}

	// Korean calendar string: "2025년 12월 18일(목)"
	if m := koreanExpr.FindStringSubmatch(s); m != nil {
		return fmt.Sprintf("%s-%s-%sT00:00:00+09:00", m[1], pad2(m[2]), pad2(m[3]))
	}

	// ISO without a zone: attach Korea's offset
	if strings.Contains(s, "T") {
		return s + "+09:00"
	}

	return raw
}

// NormalizeAt is Normalize extended with relative expressions ("2 days ago")
// anchored to the given reference instant, usually the scrape time. Month and
// year offsets use the fixed 30/365-day approximation; the result is marked
// approx so consumers know the precision loss.
func NormalizeAt(raw string, ref time.Time) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.TrimSpace(strings.ReplaceAll(s, "(edited)", ""))

	if strings.Contains(s, "just now") || strings.Contains(s, "moment") {
		return ref.UTC().Format("2006-01-02T15:04:05Z")
	}

	m := relativeExpr.FindStringSubmatch(s)
	if m == nil {
		return Normalize(raw)
	}

	n, err := strconv.Atoi(m[1])
	if err != nil {
		return Normalize(raw)
	}

	var d time.Duration
	switch m[2] {
	case "second":
		d = time.Duration(n) * time.Second
	case "minute":
		d = time.Duration(n) * time.Minute
	case "hour":
		d = time.Duration(n) * time.Hour
	case "day":
		d = time.Duration(n) * 24 * time.Hour
	case "week":
		d = time.Duration(n) * 7 * 24 * time.Hour
	case "month":
		d = time.Duration(n) * 30 * 24 * time.Hour
	case "year":
		d = time.Duration(n) * 365 * 24 * time.Hour
	}

	return ref.Add(-d).UTC().Format("2006-01-02T15:04:05Z") + approxMarker
}

// StripApprox removes the approximation marker left by relative conversion.
func StripApprox(s string) string {
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), approxMarker))
}

// Year extracts the calendar year from any recognized date shape. The second
// return value reports whether a year was found.
func Year(raw string) (int, bool) {
	s := StripApprox(raw)
	if s == "" {
		return 0, false
	}

	if strings.Contains(s, "T") || strings.Contains(s, "-") {
		if len(s) >= 4 {
			if y, err := strconv.Atoi(s[:4]); err == nil {
				return y, true
			}
		}
	}

	if len(s) == 14 && isDigits(s) {
		y, _ := strconv.Atoi(s[:4])
		return y, true
	}

	if m := sbsExpr.FindStringSubmatch(s); m != nil {
		y, _ := strconv.Atoi(m[1])
		return y, true
	}

	if m := koreanYear.FindStringSubmatch(s); m != nil {
		y, _ := strconv.Atoi(m[1])
		return y, true
	}

	return 0, false
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
