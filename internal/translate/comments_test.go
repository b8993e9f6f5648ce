package translate

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"HagwonScanner/internal/batchjob"
	"HagwonScanner/internal/domain"
	"HagwonScanner/internal/infrastructure/anthropic"
	"HagwonScanner/internal/recordio"
)

func fakeBatchServer(t *testing.T, batchID string, lines []string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/messages/batches/"+batchID, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(anthropic.Batch{ID: batchID, ProcessingStatus: anthropic.StatusEnded})
	})
	mux.HandleFunc("/messages/batches/"+batchID+"/results", func(w http.ResponseWriter, r *http.Request) {
		for _, line := range lines {
			w.Write([]byte(line + "\n"))
		}
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestCommentStageProcessWritesErrorFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	comments := []domain.Record{
		{Channel: "채널A", VideoURL: "https://youtube.com/watch?v=a", Author: "u1", Text: "학원 강사 최고"},
		{Channel: "채널A", VideoURL: "https://youtube.com/watch?v=a", Author: "u2", Text: "돈만 밝힌다"},
	}
	inputFile := filepath.Join(dir, "batch_comments_test.json")
	if err := recordio.WriteJSON(inputFile, comments); err != nil {
		t.Fatalf("WriteJSON error: %v", err)
	}

	output := filepath.Join(dir, "translated.csv")
	info, err := json.Marshal(commentSubmission{
		BatchID:     "batch_tr",
		InputFile:   inputFile,
		OutputFile:  output,
		Channels:    []string{"채널A"},
		NumRequests: 3,
	})
	if err != nil {
		t.Fatalf("marshal info: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "batch_info_batch_tr.json"), info, 0o644); err != nil {
		t.Fatalf("write info: %v", err)
	}

	server := fakeBatchServer(t, "batch_tr", []string{
		`{"custom_id":"channel_0","result":{"type":"succeeded","message":{"content":[{"type":"text","text":"{\"translated_text\": \"Channel A\"}"}]}}}`,
		`{"custom_id":"comment_0","result":{"type":"succeeded","message":{"content":[{"type":"text","text":"{\"translated_text\": \"hagwon instructors are the best\"}"}]}}}`,
		`{"custom_id":"comment_1","result":{"type":"errored","error":{"type":"rate_limit_error","message":"too many requests"}}}`,
	})

	stage := &CommentStage{
		Client: anthropic.NewClient("test-key", server.Client(), server.URL),
		Dir:    dir,
		Logger: slog.New(slog.DiscardHandler),
	}
	if err := stage.Run(context.Background(), CommentOptions{ProcessOnly: "batch_tr"}); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	rows, err := recordio.ReadCommentsCSV(output)
	if err != nil {
		t.Fatalf("ReadCommentsCSV error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 output rows, got %d", len(rows))
	}
	if rows[0].TranslatedText != "hagwon instructors are the best" {
		t.Fatalf("first comment not translated: %+v", rows[0])
	}
	if rows[0].TranslatedChannel != "Channel A" || rows[1].TranslatedChannel != "Channel A" {
		t.Fatalf("channel translation not applied: %+v", rows)
	}
	if rows[1].TranslatedText != "" {
		t.Fatalf("errored comment should stay untranslated: %+v", rows[1])
	}

	matches, err := filepath.Glob(filepath.Join(dir, "batch_errors_*.json"))
	if err != nil {
		t.Fatalf("glob error: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected one error file, got %v", matches)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read error file: %v", err)
	}
	var itemErrs []batchjob.ItemError
	if err := json.Unmarshal(data, &itemErrs); err != nil {
		t.Fatalf("parse error file: %v", err)
	}
	if len(itemErrs) != 1 {
		t.Fatalf("expected one item error, got %+v", itemErrs)
	}
	got := itemErrs[0]
	if got.CustomID != "comment_1" || got.Type != "rate_limit_error" {
		t.Fatalf("unexpected item error: %+v", got)
	}
	if got.Key != comments[1].Key() {
		t.Fatalf("item error key = %q, want %q", got.Key, comments[1].Key())
	}
}
