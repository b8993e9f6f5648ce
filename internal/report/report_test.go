package report

import (
	"log/slog"
	"strconv"
	"strings"
	"testing"

	"HagwonScanner/internal/domain"
)

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func assignment(date string, code int, sub, pub string) domain.CodeAssignment {
	return domain.CodeAssignment{
		URL: "https://example.com/" + date, Date: date,
		Publication: pub, Code: code, Code5Sub: sub,
	}
}

func TestCategory(t *testing.T) {
	t.Parallel()

	cases := map[int]string{
		2:  "Moral Taint",
		1:  "Conduct Taint",
		4:  "Conduct Taint",
		5:  "Conduct Taint",
		3:  "Contested Role",
		12: "Contested Role",
		6:  "Low Status",
		7:  "Low Status",
		9:  "Low Status",
		14: "High Status",
		15: "High Status",
		8:  "Neutral",
		10: "Neutral",
		11: "Neutral",
		13: "Neutral",
		16: "Neutral",
		0:  "",
	}
	for code, want := range cases {
		if got := Category(code); got != want {
			t.Errorf("Category(%d) = %q, want %q", code, got, want)
		}
	}
}

func TestIsStigma(t *testing.T) {
	t.Parallel()

	for _, code := range []int{1, 2, 4, 5} {
		if !IsStigma(code) {
			t.Errorf("IsStigma(%d) = false, want true", code)
		}
	}
	for _, code := range []int{3, 6, 13, 16} {
		if IsStigma(code) {
			t.Errorf("IsStigma(%d) = true, want false", code)
		}
	}
}

// captureOut collects written tables instead of touching the filesystem.
type captureOut struct {
	headers map[string][]string
	rows    map[string][][]string
}

func newCaptureOut() *captureOut {
	return &captureOut{headers: map[string][]string{}, rows: map[string][][]string{}}
}

func (c *captureOut) write(path string, header []string, rows [][]string) error {
	c.headers[path] = header
	c.rows[path] = rows
	return nil
}

func (c *captureOut) table(suffix string) ([]string, [][]string) {
	for path, rows := range c.rows {
		if strings.HasSuffix(path, suffix) {
			return c.headers[path], rows
		}
	}
	return nil, nil
}

func TestWriteAll(t *testing.T) {
	t.Parallel()

	assignments := []domain.CodeAssignment{
		assignment("2010-01-01T00:00:00+09:00", 2, "", "yonhap"),
		assignment("2010-02-01T00:00:00+09:00", 5, "a", "yonhap"),
		assignment("2010-03-01T00:00:00+09:00", 13, "", "donga"),
		assignment("2011-01-01T00:00:00+09:00", 5, "c, d", "sbs"),
		assignment("2011-06-01T00:00:00+09:00", 14, "", "sbs"),
		assignment("bad-date", 2, "", "yonhap"),  // dropped: no year
		assignment("2012-01-01", 0, "", "donga"), // dropped: code 0
	}

	out := newCaptureOut()
	w := &Writer{Dir: "tables", Prefix: "article", Out: out.write, Logger: discard()}

	kept, err := w.WriteAll(assignments)
	if err != nil {
		t.Fatalf("WriteAll error: %v", err)
	}
	if kept != 5 {
		t.Fatalf("expected 5 kept rows, got %d", kept)
	}

	// code distribution covers every kept code
	_, dist := out.table("article_code_distribution.csv")
	if len(dist) != 4 {
		t.Fatalf("expected 4 distinct codes, got %d: %v", len(dist), dist)
	}

	// category percentages sum to 100 per year
	header, pcts := out.table("article_category_percentages_by_year.csv")
	if len(header) != 1+len(CategoryOrder) {
		t.Fatalf("unexpected category header: %v", header)
	}
	for _, row := range pcts {
		total := 0.0
		for _, cell := range row[1:] {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				t.Fatalf("bad percentage %q: %v", cell, err)
			}
			total += v
		}
		if total < 99.9 || total > 100.1 {
			t.Fatalf("year %s percentages sum to %.2f, want 100", row[0], total)
		}
	}

	// stigma pivot: 2010 has 2 stigma (codes 2, 5) and 1 non-stigma
	_, stigma := out.table("article_stigma_by_year.csv")
	if len(stigma) != 2 {
		t.Fatalf("expected 2 years, got %d", len(stigma))
	}
	if stigma[0][0] != "2010" || stigma[0][1] != "2" || stigma[0][2] != "1" {
		t.Fatalf("unexpected 2010 stigma row: %v", stigma[0])
	}

	// code 5 subs: one "a" in 2010, "c" and "d" in 2011
	_, subs := out.table("article_code5_subcategories.csv")
	want := map[string]string{
		"Sexual (students)":     "1",
		"Sexual (non-students)": "0",
		"Drug-Related":          "1",
		"Violent/Fraud":         "1",
	}
	for _, row := range subs {
		if want[row[0]] != row[1] {
			t.Fatalf("subcategory %s = %s, want %s", row[0], row[1], want[row[0]])
		}
	}

	// zero-filled code-by-year pivot
	header, byYear := out.table("article_code_by_year.csv")
	if header[0] != "year" {
		t.Fatalf("unexpected pivot header: %v", header)
	}
	if len(byYear) != 2 {
		t.Fatalf("expected 2 year rows, got %d", len(byYear))
	}
	for _, row := range byYear {
		if len(row) != len(header) {
			t.Fatalf("ragged pivot row: %v", row)
		}
	}

	// publications present
	_, pubs := out.table("article_publications.csv")
	if len(pubs) != 3 {
		t.Fatalf("expected 3 publications, got %v", pubs)
	}
}

func TestWriteAllEmpty(t *testing.T) {
	t.Parallel()

	out := newCaptureOut()
	w := &Writer{Dir: "tables", Prefix: "yt", Out: out.write, Logger: discard()}

	_, err := w.WriteAll([]domain.CodeAssignment{
		assignment("no year here", 2, "", ""),
	})
	if err == nil {
		t.Fatal("expected error when nothing survives filtering")
	}
}

func TestCodeCumulativeReaches100(t *testing.T) {
	t.Parallel()

	rows := []row{
		{year: 2010, code: 2}, {year: 2010, code: 2}, {year: 2011, code: 13},
	}
	table := codeCumulative(rows)
	last := table[len(table)-1]
	cum, err := strconv.ParseFloat(last[3], 64)
	if err != nil {
		t.Fatalf("bad cumulative %q: %v", last[3], err)
	}
	if cum < 99.9 || cum > 100.1 {
		t.Fatalf("cumulative ends at %.2f, want 100", cum)
	}
	// most frequent code first
	if table[0][0] != "2" {
		t.Fatalf("expected code 2 first, got %s", table[0][0])
	}
}
