package filter

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"HagwonScanner/internal/domain"
	"HagwonScanner/internal/recordio"
)

func TestStageRun(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := filepath.Join(dir, "scraped.json")
	output := filepath.Join(dir, "verified.json")

	records := []domain.Record{
		{
			URL: "https://news/1", Title: "학원강사 검거",
			Text: "학원강사가 수업 중 검거됐다", Date: "20150301120000",
		},
		{
			URL: "https://news/1", Title: "duplicate",
			Text: "dropped before filtering", Date: "20150301120000",
		},
		{
			URL: "https://news/2", Title: "대학원 강사 채용",
			Text: "대학원 강사를 모집합니다. 학원 수업 경력 우대.", Date: "2016년 5월 2일",
		},
		{
			URL: "https://news/3", Title: "학원강사 인터뷰",
			Text: "학원강사가 강의에 대해 말했다", Date: "2003-01-01T00:00:00+09:00",
		},
		{
			URL: "https://news/4", Title: "no date",
			Text: "학원강사 수업", Date: "언젠가",
		},
	}
	if err := recordio.WriteJSON(input, records); err != nil {
		t.Fatalf("write input: %v", err)
	}

	sum, err := Run(context.Background(), StageOptions{
		Input:        input,
		Output:       output,
		TextField:    "text",
		Publication:  "yonhap",
		SaveExcluded: true,
		FromYear:     2005,
		ToYear:       2019,
		Logger:       slog.New(slog.DiscardHandler),
	})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if sum.Loaded != 5 {
		t.Fatalf("loaded = %d, want 5", sum.Loaded)
	}
	if sum.Duplicates != 1 {
		t.Fatalf("duplicates = %d, want 1", sum.Duplicates)
	}
	// news/3 is before 2005, news/4 has no parseable date
	if sum.OutsideRange != 2 {
		t.Fatalf("outside range = %d, want 2", sum.OutsideRange)
	}
	if sum.Verified != 1 || sum.Rejected != 1 {
		t.Fatalf("verified/rejected = %d/%d, want 1/1", sum.Verified, sum.Rejected)
	}

	verified, err := recordio.ReadJSON(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if len(verified) != 1 {
		t.Fatalf("expected 1 verified record, got %d", len(verified))
	}
	rec := verified[0]
	if rec.URL != "https://news/1" {
		t.Fatalf("unexpected record: %s", rec.URL)
	}
	if rec.Publication != "yonhap" {
		t.Fatalf("publication not backfilled: %q", rec.Publication)
	}
	if rec.Date != "2015-03-01T12:00:00+09:00" {
		t.Fatalf("date not normalized: %q", rec.Date)
	}
	if !rec.Include || rec.Reason == "" {
		t.Fatalf("verdict not recorded: %+v", rec)
	}

	excluded, err := recordio.ReadJSON(filepath.Join(dir, "verified_excluded.json"))
	if err != nil {
		t.Fatalf("read excluded: %v", err)
	}
	if len(excluded) != 1 || excluded[0].URL != "https://news/2" {
		t.Fatalf("unexpected excluded set: %+v", excluded)
	}
}

func TestSummaryAcceptanceRate(t *testing.T) {
	t.Parallel()

	sum := Summary{Verified: 3, Rejected: 1}
	if got := sum.AcceptanceRate(); got != 75 {
		t.Fatalf("AcceptanceRate = %v, want 75", got)
	}
	if got := (Summary{}).AcceptanceRate(); got != 0 {
		t.Fatalf("AcceptanceRate of empty summary = %v, want 0", got)
	}
}

func TestStageRunMissingInput(t *testing.T) {
	t.Parallel()

	_, err := Run(context.Background(), StageOptions{
		Input:  filepath.Join(t.TempDir(), "nope.json"),
		Output: filepath.Join(t.TempDir(), "out.json"),
		Logger: slog.New(slog.DiscardHandler),
	})
	if err == nil {
		t.Fatal("expected error for missing input")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
