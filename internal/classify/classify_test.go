package classify

import (
	"path/filepath"
	"testing"

	"HagwonScanner/internal/domain"
	"HagwonScanner/internal/recordio"
)

func TestParseAssignments(t *testing.T) {
	t.Parallel()

	content := `[
		{"code": 5, "code_5_sub": "a", "justification": "describes assault charges", "key_quote": "indicted on charges"},
		{"code": 13, "code_5_sub": "", "justification": "neutral service mention", "key_quote": "teaches math"}
	]`

	assignments, err := ParseAssignments(content)
	if err != nil {
		t.Fatalf("ParseAssignments error: %v", err)
	}
	if len(assignments) != 2 {
		t.Fatalf("expected 2 assignments, got %d", len(assignments))
	}
	if assignments[0].Code != 5 || assignments[0].Code5Sub != "a" {
		t.Fatalf("unexpected first assignment: %+v", assignments[0])
	}
	if assignments[1].Code != 13 || assignments[1].Code5Sub != "" {
		t.Fatalf("unexpected second assignment: %+v", assignments[1])
	}
}

func TestParseAssignmentsStripsFences(t *testing.T) {
	t.Parallel()

	content := "```json\n[{\"code\": 2, \"code_5_sub\": \"\", \"justification\": \"j\", \"key_quote\": \"q\"}]\n```"
	assignments, err := ParseAssignments(content)
	if err != nil {
		t.Fatalf("ParseAssignments error: %v", err)
	}
	if len(assignments) != 1 || assignments[0].Code != 2 {
		t.Fatalf("unexpected assignments: %+v", assignments)
	}
}

func TestParseAssignmentsDropsSubOutsideCode5(t *testing.T) {
	t.Parallel()

	content := `[{"code": 13, "code_5_sub": "a", "justification": "j", "key_quote": "q"}]`
	assignments, err := ParseAssignments(content)
	if err != nil {
		t.Fatalf("ParseAssignments error: %v", err)
	}
	if assignments[0].Code5Sub != "" {
		t.Fatalf("expected empty sub for code 13, got %q", assignments[0].Code5Sub)
	}
}

func TestParseAssignmentsRepairsInnerQuotes(t *testing.T) {
	t.Parallel()

	// unescaped quotes inside key_quote break strict parsing
	content := `[
		{"code": 14, "code_5_sub": "", "justification": "quoted as expert",
		"key_quote": "the instructor said "assessment leans toward idealism" in the interview"}
	]`

	assignments, err := ParseAssignments(content)
	if err != nil {
		t.Fatalf("ParseAssignments should repair inner quotes: %v", err)
	}
	if len(assignments) != 1 || assignments[0].Code != 14 {
		t.Fatalf("unexpected assignments: %+v", assignments)
	}
	want := `the instructor said "assessment leans toward idealism" in the interview`
	if assignments[0].KeyQuote != want {
		t.Fatalf("unexpected key quote: %q", assignments[0].KeyQuote)
	}
}

func TestParseAssignmentsRejectsOutOfRange(t *testing.T) {
	t.Parallel()

	if _, err := ParseAssignments(`[{"code": 17, "justification": "j", "key_quote": "q"}]`); err == nil {
		t.Fatal("expected error for code 17")
	}
	if _, err := ParseAssignments(`[{"code": 0, "justification": "j", "key_quote": "q"}]`); err == nil {
		t.Fatal("expected error for code 0")
	}
}

func TestAppendAssignmentsRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "classified.csv")

	first := []domain.CodeAssignment{
		{URL: "https://a", Date: "2015-03-01T00:00:00+09:00", Publication: "yonhap", Code: 5, Code5Sub: "c", Justification: "drug case", KeyQuote: "purchased marijuana"},
	}
	if _, err := appendAssignments(path, first); err != nil {
		t.Fatalf("appendAssignments error: %v", err)
	}

	second := []domain.CodeAssignment{
		{URL: "https://b", Date: "2016-01-01T00:00:00+09:00", Publication: "donga", Code: 13, Justification: "neutral", KeyQuote: "teaches"},
	}
	total, err := appendAssignments(path, second)
	if err != nil {
		t.Fatalf("appendAssignments error: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2 rows, got %d", total)
	}

	got, err := ReadAssignmentsCSV(path)
	if err != nil {
		t.Fatalf("ReadAssignmentsCSV error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 assignments, got %d", len(got))
	}
	if got[0].URL != "https://a" || got[0].Code != 5 || got[0].Code5Sub != "c" {
		t.Fatalf("unexpected first row: %+v", got[0])
	}

	done, err := classifiedURLs(path)
	if err != nil {
		t.Fatalf("classifiedURLs error: %v", err)
	}
	if !done["https://a"] || !done["https://b"] {
		t.Fatalf("unexpected done set: %v", done)
	}
}

func TestClassifiedURLsMissingFile(t *testing.T) {
	t.Parallel()

	done, err := classifiedURLs(filepath.Join(t.TempDir(), "nope.csv"))
	if err != nil {
		t.Fatalf("classifiedURLs error: %v", err)
	}
	if len(done) != 0 {
		t.Fatalf("expected empty set, got %v", done)
	}
}

func TestParseCommentClassification(t *testing.T) {
	t.Parallel()

	cls, err := parseCommentClassification(`{"code": 5, "code_5_sub": "a", "justification": "assault"}`)
	if err != nil {
		t.Fatalf("parseCommentClassification error: %v", err)
	}
	if cls.Code != 5 || cls.Code5Sub != "a" {
		t.Fatalf("unexpected classification: %+v", cls)
	}

	cls, err = parseCommentClassification(`{"code": 0, "code_5_sub": "", "justification": "off-topic"}`)
	if err != nil {
		t.Fatalf("code 0 should be valid for comments: %v", err)
	}
	if cls.Code != 0 {
		t.Fatalf("unexpected code: %d", cls.Code)
	}

	if _, err := parseCommentClassification(`{"code": 17}`); err == nil {
		t.Fatal("expected error for code 17")
	}
}

func TestLoadExistingClassifications(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "classified_comments.csv")
	rows := [][]string{
		{"채널", "Channel", "https://youtube.com/watch?v=x", "댓글", "a comment", "user", "2018-01-01", "3", "12", "", "harmful"},
	}
	if err := recordio.WriteCSV(path, CommentResultColumns, rows); err != nil {
		t.Fatalf("WriteCSV error: %v", err)
	}

	existing, err := loadExistingClassifications(path)
	if err != nil {
		t.Fatalf("loadExistingClassifications error: %v", err)
	}
	key := domain.CommentKey("https://youtube.com/watch?v=x", "user", "댓글")
	cls, ok := existing[key]
	if !ok {
		t.Fatalf("expected key %q in existing set", key)
	}
	if cls.Code != 12 || cls.Justification != "harmful" {
		t.Fatalf("unexpected classification: %+v", cls)
	}
}
