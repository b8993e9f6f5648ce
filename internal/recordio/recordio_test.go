package recordio

import (
	"os"
	"path/filepath"
	"testing"

	"HagwonScanner/internal/domain"
)

func TestReadJSONArray(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "records.json")
	records := []domain.Record{
		{URL: "https://news/1", Title: "제목", Text: "본문"},
		{URL: "https://news/2", Title: "둘째", Text: "본문 둘"},
	}
	if err := WriteJSON(path, records); err != nil {
		t.Fatalf("WriteJSON error: %v", err)
	}

	got, err := ReadJSON(path)
	if err != nil {
		t.Fatalf("ReadJSON error: %v", err)
	}
	if len(got) != 2 || got[0].URL != "https://news/1" || got[1].Title != "둘째" {
		t.Fatalf("unexpected records: %+v", got)
	}
}

func TestReadJSONNestedObject(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested.json")
	payload := `{"학원강사": [{"url": "https://news/1", "title": "제목", "text": "본문"}]}`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	got, err := ReadJSON(path)
	if err != nil {
		t.Fatalf("ReadJSON error: %v", err)
	}
	if len(got) != 1 || got[0].URL != "https://news/1" {
		t.Fatalf("unexpected records: %+v", got)
	}
}

func TestReadJSONRejectsGarbage(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "garbage.json")
	if err := os.WriteFile(path, []byte(`"just a string"`), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := ReadJSON(path); err == nil {
		t.Fatal("expected error for non-record JSON")
	}
}

func TestCommentsCSVRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "comments.csv")
	comments := []domain.Record{
		{
			Channel: "미맥스터디", VideoURL: "https://youtube.com/watch?v=abc",
			Text: "학원강사 최고", Author: "user1", Date: "2018-01-01T00:00:00Z", Likes: 12,
		},
		{
			Channel: "미맥스터디", VideoURL: "https://youtube.com/watch?v=def",
			Text: "comma, and \"quotes\"", Author: "user2", Date: "3 years ago", Likes: 0,
		},
	}
	if err := WriteCommentsCSV(path, comments); err != nil {
		t.Fatalf("WriteCommentsCSV error: %v", err)
	}

	got, err := ReadCommentsCSV(path)
	if err != nil {
		t.Fatalf("ReadCommentsCSV error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 comments, got %d", len(got))
	}
	if got[0].Likes != 12 || got[0].Channel != "미맥스터디" {
		t.Fatalf("unexpected first comment: %+v", got[0])
	}
	if got[1].Text != "comma, and \"quotes\"" {
		t.Fatalf("csv quoting broken: %q", got[1].Text)
	}
}

func TestReadCommentsCSVTranslatedLayout(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "translated.csv")
	rows := [][]string{
		{"채널", "Channel EN", "https://youtube.com/watch?v=abc", "댓글", "a comment", "user", "2018-01-01", "7"},
	}
	if err := WriteCSV(path, TranslatedCommentColumns, rows); err != nil {
		t.Fatalf("WriteCSV error: %v", err)
	}

	got, err := ReadCommentsCSV(path)
	if err != nil {
		t.Fatalf("ReadCommentsCSV error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 row, got %d", len(got))
	}
	rec := got[0]
	if rec.TranslatedChannel != "Channel EN" || rec.TranslatedText != "a comment" {
		t.Fatalf("translated columns lost: %+v", rec)
	}
	if rec.Likes != 7 {
		t.Fatalf("likes = %d, want 7", rec.Likes)
	}
}

func TestWriteJSONCreatesParentDirs(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "a", "b", "records.json")
	if err := WriteJSON(path, nil); err != nil {
		t.Fatalf("WriteJSON error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("output missing: %v", err)
	}
}
