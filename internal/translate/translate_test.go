package translate

import (
	"path/filepath"
	"testing"

	"HagwonScanner/internal/domain"
	"HagwonScanner/internal/recordio"
)

func TestParseTranslation(t *testing.T) {
	t.Parallel()

	title, text, err := parseTranslation(`{"translated_title": "Hagwon Instructor Arrested", "translated_text": "A hagwon instructor in Seoul..."}`)
	if err != nil {
		t.Fatalf("parseTranslation error: %v", err)
	}
	if title != "Hagwon Instructor Arrested" {
		t.Fatalf("unexpected title: %q", title)
	}
	if text != "A hagwon instructor in Seoul..." {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestParseTranslationFenced(t *testing.T) {
	t.Parallel()

	content := "```json\n{\"translated_title\": \"T\", \"translated_text\": \"B\"}\n```"
	title, text, err := parseTranslation(content)
	if err != nil {
		t.Fatalf("parseTranslation error: %v", err)
	}
	if title != "T" || text != "B" {
		t.Fatalf("unexpected parse: %q / %q", title, text)
	}
}

func TestParseTranslationRejectsProse(t *testing.T) {
	t.Parallel()

	if _, _, err := parseTranslation("Here is the translation you asked for."); err == nil {
		t.Fatal("expected error for non-JSON reply")
	}
}

func TestParseCommentTranslation(t *testing.T) {
	t.Parallel()

	text, err := parseCommentTranslation(`{"translated_text": "this instructor is the best lol"}`)
	if err != nil {
		t.Fatalf("parseCommentTranslation error: %v", err)
	}
	if text != "this instructor is the best lol" {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestPlanComments(t *testing.T) {
	t.Parallel()

	comments := []domain.Record{
		{Channel: "채널A", VideoURL: "https://v1", Author: "u1", Text: "첫 댓글"},
		{Channel: "채널A", VideoURL: "https://v1", Author: "u2", Text: "둘째 댓글"},
		{Channel: "채널B", VideoURL: "https://v2", Author: "u3", Text: "셋째 댓글"},
	}
	existing := map[string]translatedComment{
		comments[0].Key(): {Text: "first comment", Channel: "Channel A"},
	}

	channels, pendingIdx := planComments(comments, existing, 0)

	// 채널A already has a translated name; 채널B does not
	if len(channels) != 1 || channels[0] != "채널B" {
		t.Fatalf("unexpected channels: %v", channels)
	}
	// comment 0 is already translated
	if len(pendingIdx) != 2 || pendingIdx[0] != 1 || pendingIdx[1] != 2 {
		t.Fatalf("unexpected pending: %v", pendingIdx)
	}
}

func TestPlanCommentsTestLimit(t *testing.T) {
	t.Parallel()

	comments := []domain.Record{
		{Channel: "c", VideoURL: "https://v", Author: "a", Text: "one"},
		{Channel: "c", VideoURL: "https://v", Author: "b", Text: "two"},
		{Channel: "c", VideoURL: "https://v", Author: "c", Text: "three"},
	}

	_, pendingIdx := planComments(comments, map[string]translatedComment{}, 2)
	if len(pendingIdx) != 2 {
		t.Fatalf("limit ignored: %v", pendingIdx)
	}
}

func TestBuildCommentRequests(t *testing.T) {
	t.Parallel()

	comments := []domain.Record{
		{Channel: "채널", VideoURL: "https://v", Author: "a", Text: "번역할 댓글"},
	}
	requests := buildCommentRequests(comments, []string{"채널"}, []int{0}, "claude-3-5-haiku-20241022")

	if len(requests) != 2 {
		t.Fatalf("expected channel + comment request, got %d", len(requests))
	}
	if requests[0].CustomID != "channel_0" || requests[1].CustomID != "comment_0" {
		t.Fatalf("unexpected custom ids: %s, %s", requests[0].CustomID, requests[1].CustomID)
	}
	if requests[0].Params.MaxTokens != 1000 || requests[1].Params.MaxTokens != 8000 {
		t.Fatalf("unexpected token limits: %d, %d", requests[0].Params.MaxTokens, requests[1].Params.MaxTokens)
	}
}

func TestAppendOutput(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "translated.json")

	total, err := appendOutput(path, []domain.Record{{URL: "https://a", TranslatedText: "first"}})
	if err != nil {
		t.Fatalf("appendOutput error: %v", err)
	}
	if total != 1 {
		t.Fatalf("total = %d, want 1", total)
	}

	total, err = appendOutput(path, []domain.Record{{URL: "https://b", TranslatedText: "second"}})
	if err != nil {
		t.Fatalf("appendOutput error: %v", err)
	}
	if total != 2 {
		t.Fatalf("total = %d, want 2", total)
	}

	records, err := recordio.ReadJSON(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if len(records) != 2 || records[0].URL != "https://a" || records[1].URL != "https://b" {
		t.Fatalf("append order broken: %+v", records)
	}
}
