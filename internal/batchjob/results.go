package batchjob

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"HagwonScanner/internal/domain"
	"HagwonScanner/internal/infrastructure/anthropic"
)

// ItemError is one failed batch item, written to the error side-channel so a
// partial batch still yields its successes.
type ItemError struct {
	CustomID string `json:"custom_id"`
	Key      string `json:"key"`
	Type     string `json:"type"`
	Error    string `json:"error"`
	Title    string `json:"title,omitempty"`
}

// Joined pairs a submitted record with its succeeded result text.
type Joined struct {
	Record domain.Record
	Text   string
}

// Join matches results back to submitted records by positional custom id.
// Failed or missing items land in the error list instead of aborting.
func (j *Job) Join(records []domain.Record, results []anthropic.Result) ([]Joined, []ItemError) {
	byID := make(map[string]anthropic.Result, len(results))
	for _, res := range results {
		byID[res.CustomID] = res
	}

	var joined []Joined
	var errs []ItemError
	for i, rec := range records {
		id := j.CustomID(i)
		res, ok := byID[id]
		if !ok {
			errs = append(errs, ItemError{
				CustomID: id,
				Key:      rec.Key(),
				Type:     "missing_result",
				Error:    "no result returned for request",
				Title:    clip(rec.Title, 100),
			})
			continue
		}

		switch res.Result.Type {
		case "succeeded":
			joined = append(joined, Joined{Record: rec, Text: res.Text()})
		case "errored":
			errType, errMsg := "unknown_error", "no error message"
			if res.Result.Error != nil {
				errType, errMsg = res.Result.Error.Type, res.Result.Error.Message
			}
			errs = append(errs, ItemError{
				CustomID: id,
				Key:      rec.Key(),
				Type:     errType,
				Error:    errMsg,
				Title:    clip(rec.Title, 100),
			})
		default:
			errs = append(errs, ItemError{
				CustomID: id,
				Key:      rec.Key(),
				Type:     res.Result.Type,
				Error:    "request did not succeed",
				Title:    clip(rec.Title, 100),
			})
		}
	}
	return joined, errs
}

// WriteErrors saves the error side-channel file and returns its path.
// No errors means no file.
func (j *Job) WriteErrors(errs []ItemError) (string, error) {
	return WriteErrors(j.Dir, j.Logger, errs)
}

// WriteErrors is the side-channel writer for stages that run batches without
// a Job. Every failed item survives here even after the log scrolls away.
func WriteErrors(dir string, log *slog.Logger, errs []ItemError) (string, error) {
	if len(errs) == 0 {
		return "", nil
	}
	data, err := json.MarshalIndent(errs, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal errors: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create error dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("batch_errors_%s.json", time.Now().Format("20060102_150405")))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write errors: %w", err)
	}
	log.Warn("batch item errors saved", "count", len(errs), "path", path)
	return path, nil
}

// StripFences removes a markdown code fence around a JSON reply. Models wrap
// output in ```json blocks despite instructions not to.
func StripFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}

	content = strings.TrimPrefix(content, "```")
	if idx := strings.Index(content, "```"); idx >= 0 {
		content = content[:idx]
	}
	content = strings.TrimPrefix(strings.TrimSpace(content), "json")
	return strings.TrimSpace(content)
}

// Estimate is a rough pre-submission cost projection.
type Estimate struct {
	Requests     int
	InputTokens  int
	OutputTokens int
	CostUSD      float64
}

// EstimateCost projects batch cost from the actual request text, at roughly
// four characters per token, and per-million-token rates (already
// batch-discounted). Output length has no text to measure, so a per-item
// average stands in.
func EstimateCost(requests []anthropic.BatchRequest, avgOutput int, inputRate, outputRate float64) Estimate {
	in := 0
	for _, req := range requests {
		chars := len(req.Params.System)
		for _, msg := range req.Params.Messages {
			chars += len(msg.Content)
		}
		in += chars / 4
	}
	out := len(requests) * avgOutput
	return Estimate{
		Requests:     len(requests),
		InputTokens:  in,
		OutputTokens: out,
		CostUSD:      (float64(in)*inputRate + float64(out)*outputRate) / 1_000_000,
	}
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
