// Package batchjob drives checkpointed Message Batches runs. A run writes
// three artifacts next to the output: the exact ordered list of submitted
// records, the request JSONL, and a batch info file keyed by batch id. The
// positional custom ids in the requests only resolve through the records
// file, so all three travel together.
package batchjob

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"HagwonScanner/internal/domain"
	"HagwonScanner/internal/infrastructure/anthropic"
	"HagwonScanner/internal/recordio"
)

// Submission records everything needed to process a batch later.
type Submission struct {
	RunID        string `json:"run_id"`
	BatchID      string `json:"batch_id"`
	SubmittedAt  string `json:"submitted_at"`
	Prefix       string `json:"prefix"`
	RecordsFile  string `json:"records_file"`
	RequestsFile string `json:"requests_file"`
	OutputFile   string `json:"output_file"`
	NumRequests  int    `json:"num_requests"`
}

// Job binds a batch client to a working directory and an id prefix.
type Job struct {
	Client *anthropic.Client
	Dir    string // where batch_* artifacts live
	Prefix string // custom id prefix, e.g. "article" or "comment"
	Logger *slog.Logger
}

// Pending filters records down to the ones whose key appears in no done set.
// Records with empty text in the given field are skipped too, matching the
// submission side.
func Pending(records []domain.Record, done map[string]bool, textOf func(domain.Record) string) []domain.Record {
	var pending []domain.Record
	for _, rec := range records {
		if done[rec.Key()] {
			continue
		}
		if textOf != nil && textOf(rec) == "" {
			continue
		}
		pending = append(pending, rec)
	}
	return pending
}

// DoneKeys unions the natural keys of every file that exists. Missing files
// are fine; the in-progress file is never written, only read.
func DoneKeys(files ...string) (map[string]bool, error) {
	done := map[string]bool{}
	for _, path := range files {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		records, err := recordio.ReadJSON(path)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			done[rec.Key()] = true
		}
	}
	return done, nil
}

// CustomID builds the positional id for the i-th submitted record.
func (j *Job) CustomID(i int) string {
	return fmt.Sprintf("%s_%d", j.Prefix, i)
}

// Submit writes the run artifacts, creates the batch, and returns the
// submission. The records slice order defines the custom ids.
func (j *Job) Submit(ctx context.Context, records []domain.Record, requests []anthropic.BatchRequest, outputFile string) (*Submission, error) {
	if len(records) != len(requests) {
		return nil, fmt.Errorf("records/requests length mismatch: %d vs %d", len(records), len(requests))
	}
	if err := os.MkdirAll(j.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create batch dir: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")

	recordsFile := filepath.Join(j.Dir, fmt.Sprintf("batch_records_%s.json", timestamp))
	if err := recordio.WriteJSON(recordsFile, records); err != nil {
		return nil, err
	}

	requestsFile := filepath.Join(j.Dir, fmt.Sprintf("batch_requests_%s.jsonl", timestamp))
	if err := writeRequestsJSONL(requestsFile, requests); err != nil {
		return nil, err
	}
	j.Logger.Info("batch artifacts saved", "records", recordsFile, "requests", requestsFile)

	batch, err := j.Client.CreateBatch(ctx, requests)
	if err != nil {
		return nil, err
	}
	j.Logger.Info("batch submitted",
		"batch_id", batch.ID, "status", batch.ProcessingStatus, "requests", len(requests))

	sub := &Submission{
		RunID:        uuid.NewString(),
		BatchID:      batch.ID,
		SubmittedAt:  timestamp,
		Prefix:       j.Prefix,
		RecordsFile:  recordsFile,
		RequestsFile: requestsFile,
		OutputFile:   outputFile,
		NumRequests:  len(requests),
	}
	if err := j.saveSubmission(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// LoadSubmission reads the info file of a previously submitted batch.
func (j *Job) LoadSubmission(batchID string) (*Submission, []domain.Record, error) {
	path := filepath.Join(j.Dir, fmt.Sprintf("batch_info_%s.json", batchID))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read batch info %s: %w", path, err)
	}

	var sub Submission
	if err := json.Unmarshal(data, &sub); err != nil {
		return nil, nil, fmt.Errorf("parse batch info %s: %w", path, err)
	}

	records, err := recordio.ReadJSON(sub.RecordsFile)
	if err != nil {
		return nil, nil, err
	}
	return &sub, records, nil
}

// Fetch retrieves an ended batch and downloads its results. A batch that is
// still processing returns an error naming its current state.
func (j *Job) Fetch(ctx context.Context, batchID string) ([]anthropic.Result, error) {
	batch, err := j.Client.RetrieveBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if batch.ProcessingStatus != anthropic.StatusEnded {
		return nil, fmt.Errorf("batch %s is %s (processing %d, succeeded %d, errored %d)",
			batchID, batch.ProcessingStatus,
			batch.RequestCounts.Processing, batch.RequestCounts.Succeeded, batch.RequestCounts.Errored)
	}
	return j.Client.Results(ctx, batchID)
}

func (j *Job) saveSubmission(sub *Submission) error {
	data, err := json.MarshalIndent(sub, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal batch info: %w", err)
	}
	path := filepath.Join(j.Dir, fmt.Sprintf("batch_info_%s.json", sub.BatchID))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write batch info: %w", err)
	}
	j.Logger.Info("batch info saved", "path", path)
	return nil
}

func writeRequestsJSONL(path string, requests []anthropic.BatchRequest) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, req := range requests {
		if err := enc.Encode(req); err != nil {
			return fmt.Errorf("write request: %w", err)
		}
	}
	return nil
}
