// Package report aggregates classification results into CSV tables: code
// distributions, per-year pivots, category and stigma groupings, and code 5
// subcategory breakdowns. Charting happens elsewhere; these tables are the
// numbers behind it.
package report

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"

	"HagwonScanner/internal/dates"
	"HagwonScanner/internal/domain"
)

// Category groupings over codebook codes.
var (
	moralTaint    = []int{2}
	conductTaint  = []int{1, 4, 5}
	contestedRole = []int{3, 12}
	lowStatus     = []int{6, 7, 9}
	highStatus    = []int{14, 15}
	neutral       = []int{8, 10, 11, 13, 16}

	stigmaCodes = []int{1, 2, 4, 5}
)

// CategoryOrder fixes the column order of category tables.
var CategoryOrder = []string{
	"Moral Taint", "Conduct Taint", "Contested Role", "Low Status", "High Status", "Neutral",
}

// Category maps a code to its analytic category. Unknown codes map to "".
func Category(code int) string {
	switch {
	case contains(moralTaint, code):
		return "Moral Taint"
	case contains(conductTaint, code):
		return "Conduct Taint"
	case contains(contestedRole, code):
		return "Contested Role"
	case contains(lowStatus, code):
		return "Low Status"
	case contains(highStatus, code):
		return "High Status"
	case contains(neutral, code):
		return "Neutral"
	}
	return ""
}

// IsStigma reports whether a code belongs to the stigma group.
func IsStigma(code int) bool {
	return contains(stigmaCodes, code)
}

func contains(codes []int, code int) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

var code5SubLabels = map[string]string{
	"a": "Sexual (students)",
	"b": "Sexual (non-students)",
	"c": "Drug-Related",
	"d": "Violent/Fraud",
}

// Writer renders the full table set for one assignment list.
type Writer struct {
	Dir    string
	Prefix string // e.g. "article" or "yt"
	Out    func(path string, header []string, rows [][]string) error
	Logger *slog.Logger
}

// WriteAll drops code 0 and rows without a parseable year, then writes every
// table. Returns the number of assignments that survived filtering.
func (w *Writer) WriteAll(assignments []domain.CodeAssignment) (int, error) {
	rows := filterRows(assignments)
	if len(rows) == 0 {
		return 0, fmt.Errorf("no classified rows with valid dates")
	}

	tables := []struct {
		name   string
		header []string
		rows   [][]string
	}{
		{"code_distribution", []string{"code", "count", "percentage"}, codeDistribution(rows)},
		{"code_distribution_cumulative", []string{"code", "count", "percentage", "cumulative_percentage"}, codeCumulative(rows)},
		{"code_by_year", nil, nil}, // filled below, header depends on data
		{"category_counts_by_year", nil, nil},
		{"category_percentages_by_year", nil, nil},
		{"stigma_by_year", []string{"year", "stigma", "non_stigma", "stigma_percentage"}, stigmaByYear(rows)},
		{"moral_vs_conduct_by_year", []string{"year", "moral_taint", "conduct_taint"}, moralVsConduct(rows)},
		{"records_per_year", []string{"year", "count"}, recordsPerYear(rows)},
		{"code5_subcategories", []string{"subcategory", "count"}, code5Subs(rows)},
		{"code5_subcategories_by_year", []string{"year", "a", "b", "c", "d"}, code5SubsByYear(rows)},
	}

	header, data := codeByYear(rows)
	tables[2].header, tables[2].rows = header, data

	catHeader, catCounts, catPcts := categoryByYear(rows)
	tables[3].header, tables[3].rows = catHeader, catCounts
	tables[4].header, tables[4].rows = catHeader, catPcts

	if rowsHavePublications(rows) {
		tables = append(tables, struct {
			name   string
			header []string
			rows   [][]string
		}{"publications", []string{"publication", "count"}, publicationCounts(rows)})
	}

	for _, t := range tables {
		path := filepath.Join(w.Dir, fmt.Sprintf("%s_%s.csv", w.Prefix, t.name))
		if err := w.Out(path, t.header, t.rows); err != nil {
			return 0, err
		}
		w.Logger.Debug("table written", "path", path, "rows", len(t.rows))
	}
	w.Logger.Info("report tables written", "dir", w.Dir, "prefix", w.Prefix, "rows", len(rows))
	return len(rows), nil
}

// row is one assignment with its year resolved.
type row struct {
	year        int
	code        int
	code5Sub    string
	publication string
}

func filterRows(assignments []domain.CodeAssignment) []row {
	var rows []row
	for _, a := range assignments {
		if a.Code == 0 {
			continue
		}
		year, ok := dates.Year(a.Date)
		if !ok {
			continue
		}
		rows = append(rows, row{
			year:        year,
			code:        a.Code,
			code5Sub:    a.Code5Sub,
			publication: a.Publication,
		})
	}
	return rows
}

func years(rows []row) []int {
	set := map[int]struct{}{}
	for _, r := range rows {
		set[r.year] = struct{}{}
	}
	out := make([]int, 0, len(set))
	for y := range set {
		out = append(out, y)
	}
	sort.Ints(out)
	return out
}

func codeDistribution(rows []row) [][]string {
	counts := map[int]int{}
	for _, r := range rows {
		counts[r.code]++
	}
	codes := sortedKeys(counts)

	out := make([][]string, 0, len(codes))
	total := float64(len(rows))
	for _, code := range codes {
		pct := float64(counts[code]) / total * 100
		out = append(out, []string{
			strconv.Itoa(code), strconv.Itoa(counts[code]), formatPct(pct),
		})
	}
	return out
}

func codeCumulative(rows []row) [][]string {
	counts := map[int]int{}
	for _, r := range rows {
		counts[r.code]++
	}
	// cumulative runs most-frequent first
	codes := sortedKeys(counts)
	sort.SliceStable(codes, func(i, j int) bool { return counts[codes[i]] > counts[codes[j]] })

	out := make([][]string, 0, len(codes))
	total := float64(len(rows))
	cum := 0.0
	for _, code := range codes {
		pct := float64(counts[code]) / total * 100
		cum += pct
		out = append(out, []string{
			strconv.Itoa(code), strconv.Itoa(counts[code]), formatPct(pct), formatPct(cum),
		})
	}
	return out
}

// codeByYear pivots to year rows and one column per observed code,
// zero-filled.
func codeByYear(rows []row) ([]string, [][]string) {
	byYearCode := map[int]map[int]int{}
	codeSet := map[int]int{}
	for _, r := range rows {
		if byYearCode[r.year] == nil {
			byYearCode[r.year] = map[int]int{}
		}
		byYearCode[r.year][r.code]++
		codeSet[r.code]++
	}
	codes := sortedKeys(codeSet)

	header := []string{"year"}
	for _, code := range codes {
		header = append(header, fmt.Sprintf("code_%d", code))
	}

	var out [][]string
	for _, y := range years(rows) {
		line := []string{strconv.Itoa(y)}
		for _, code := range codes {
			line = append(line, strconv.Itoa(byYearCode[y][code]))
		}
		out = append(out, line)
	}
	return header, out
}

// categoryByYear pivots categories per year. Every category column appears
// even when empty, and each percentage row sums to 100.
func categoryByYear(rows []row) ([]string, [][]string, [][]string) {
	byYearCat := map[int]map[string]int{}
	for _, r := range rows {
		cat := Category(r.code)
		if cat == "" {
			continue
		}
		if byYearCat[r.year] == nil {
			byYearCat[r.year] = map[string]int{}
		}
		byYearCat[r.year][cat]++
	}

	header := []string{"year"}
	header = append(header, CategoryOrder...)

	var counts, pcts [][]string
	for _, y := range years(rows) {
		total := 0
		for _, cat := range CategoryOrder {
			total += byYearCat[y][cat]
		}

		countLine := []string{strconv.Itoa(y)}
		pctLine := []string{strconv.Itoa(y)}
		for _, cat := range CategoryOrder {
			n := byYearCat[y][cat]
			countLine = append(countLine, strconv.Itoa(n))
			pct := 0.0
			if total > 0 {
				pct = float64(n) / float64(total) * 100
			}
			pctLine = append(pctLine, formatPct(pct))
		}
		counts = append(counts, countLine)
		pcts = append(pcts, pctLine)
	}
	return header, counts, pcts
}

func stigmaByYear(rows []row) [][]string {
	type pair struct{ stigma, non int }
	byYear := map[int]*pair{}
	for _, r := range rows {
		p := byYear[r.year]
		if p == nil {
			p = &pair{}
			byYear[r.year] = p
		}
		if IsStigma(r.code) {
			p.stigma++
		} else {
			p.non++
		}
	}

	var out [][]string
	for _, y := range years(rows) {
		p := byYear[y]
		total := p.stigma + p.non
		pct := 0.0
		if total > 0 {
			pct = float64(p.stigma) / float64(total) * 100
		}
		out = append(out, []string{
			strconv.Itoa(y), strconv.Itoa(p.stigma), strconv.Itoa(p.non), formatPct(pct),
		})
	}
	return out
}

func moralVsConduct(rows []row) [][]string {
	type pair struct{ moral, conduct int }
	byYear := map[int]*pair{}
	for _, r := range rows {
		cat := Category(r.code)
		if cat != "Moral Taint" && cat != "Conduct Taint" {
			continue
		}
		p := byYear[r.year]
		if p == nil {
			p = &pair{}
			byYear[r.year] = p
		}
		if cat == "Moral Taint" {
			p.moral++
		} else {
			p.conduct++
		}
	}

	var out [][]string
	for _, y := range years(rows) {
		p := byYear[y]
		moral, conduct := 0, 0
		if p != nil {
			moral, conduct = p.moral, p.conduct
		}
		out = append(out, []string{strconv.Itoa(y), strconv.Itoa(moral), strconv.Itoa(conduct)})
	}
	return out
}

func recordsPerYear(rows []row) [][]string {
	counts := map[int]int{}
	for _, r := range rows {
		counts[r.year]++
	}
	var out [][]string
	for _, y := range years(rows) {
		out = append(out, []string{strconv.Itoa(y), strconv.Itoa(counts[y])})
	}
	return out
}

// code5Subs counts subcategory letters. A single row may name several, as in
// "a, d".
func code5Subs(rows []row) [][]string {
	counts := map[string]int{"a": 0, "b": 0, "c": 0, "d": 0}
	for _, r := range rows {
		if r.code != 5 {
			continue
		}
		for _, sub := range splitSubs(r.code5Sub) {
			if _, ok := counts[sub]; ok {
				counts[sub]++
			}
		}
	}

	var out [][]string
	for _, sub := range []string{"a", "b", "c", "d"} {
		out = append(out, []string{code5SubLabels[sub], strconv.Itoa(counts[sub])})
	}
	return out
}

func code5SubsByYear(rows []row) [][]string {
	byYear := map[int]map[string]int{}
	for _, r := range rows {
		if r.code != 5 {
			continue
		}
		if byYear[r.year] == nil {
			byYear[r.year] = map[string]int{}
		}
		for _, sub := range splitSubs(r.code5Sub) {
			byYear[r.year][sub]++
		}
	}

	var out [][]string
	for _, y := range years(rows) {
		subs := byYear[y]
		out = append(out, []string{
			strconv.Itoa(y),
			strconv.Itoa(subs["a"]), strconv.Itoa(subs["b"]),
			strconv.Itoa(subs["c"]), strconv.Itoa(subs["d"]),
		})
	}
	return out
}

func publicationCounts(rows []row) [][]string {
	counts := map[string]int{}
	for _, r := range rows {
		if r.publication != "" {
			counts[r.publication]++
		}
	}
	pubs := make([]string, 0, len(counts))
	for p := range counts {
		pubs = append(pubs, p)
	}
	sort.Slice(pubs, func(i, j int) bool {
		if counts[pubs[i]] != counts[pubs[j]] {
			return counts[pubs[i]] > counts[pubs[j]]
		}
		return pubs[i] < pubs[j]
	})

	var out [][]string
	for _, p := range pubs {
		out = append(out, []string{p, strconv.Itoa(counts[p])})
	}
	return out
}

func rowsHavePublications(rows []row) bool {
	for _, r := range rows {
		if r.publication != "" {
			return true
		}
	}
	return false
}

func sortedKeys(m map[int]int) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func formatPct(pct float64) string {
	return strconv.FormatFloat(pct, 'f', 2, 64)
}

func splitSubs(s string) []string {
	var out []string
	for _, r := range s {
		switch r {
		case 'a', 'b', 'c', 'd':
			out = append(out, string(r))
		}
	}
	return out
}
