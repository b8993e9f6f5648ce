// Package anthropic implements the Message Batches API used for bulk
// translation and classification. Batches cost half the synchronous price
// and complete within 24 hours.
package anthropic

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	defaultBaseURL = "https://api.anthropic.com/v1"
	apiVersion     = "2023-06-01"
)

// Batch processing states.
const (
	StatusInProgress = "in_progress"
	StatusEnded      = "ended"
	StatusCanceling  = "canceling"
	StatusCanceled   = "canceled"
	StatusExpired    = "expired"
)

// Client talks to the Anthropic batch endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient builds a client; baseURL is overridable for tests.
func NewClient(apiKey string, httpClient *http.Client, baseURL string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{httpClient: httpClient, baseURL: baseURL, apiKey: apiKey}
}

// Message is one conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// MessageParams mirror the params block of a batch request.
type MessageParams struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []Message `json:"messages"`
}

// BatchRequest pairs a caller-chosen id with its message params. The id is
// positional ("item_3") and resolves through the submitted-items file.
type BatchRequest struct {
	CustomID string        `json:"custom_id"`
	Params   MessageParams `json:"params"`
}

// RequestCounts breaks a batch down by request outcome.
type RequestCounts struct {
	Processing int `json:"processing"`
	Succeeded  int `json:"succeeded"`
	Errored    int `json:"errored"`
	Canceled   int `json:"canceled"`
	Expired    int `json:"expired"`
}

// Batch is the server-side batch object.
type Batch struct {
	ID               string        `json:"id"`
	ProcessingStatus string        `json:"processing_status"`
	RequestCounts    RequestCounts `json:"request_counts"`
	ResultsURL       string        `json:"results_url"`
	CreatedAt        string        `json:"created_at"`
	EndedAt          string        `json:"ended_at"`
}

// Result is one line of the results JSONL stream.
type Result struct {
	CustomID string     `json:"custom_id"`
	Result   ResultBody `json:"result"`
}

// ResultBody carries either a message or an error, depending on Type.
type ResultBody struct {
	Type    string       `json:"type"` // "succeeded" or "errored"
	Message *ResultReply `json:"message,omitempty"`
	Error   *ResultError `json:"error,omitempty"`
}

// ResultReply is the assistant message of a succeeded request.
type ResultReply struct {
	Content []ContentBlock `json:"content"`
	Usage   Usage          `json:"usage"`
}

// ContentBlock is one piece of reply content; only text blocks are used.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Usage reports token consumption of one request.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// ResultError describes a failed request.
type ResultError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Text returns the first text block of a succeeded result.
func (r Result) Text() string {
	if r.Result.Message == nil {
		return ""
	}
	for _, block := range r.Result.Message.Content {
		if block.Type == "text" || block.Type == "" {
			return block.Text
		}
	}
	return ""
}

// CreateBatch submits a new message batch.
func (c *Client) CreateBatch(ctx context.Context, requests []BatchRequest) (*Batch, error) {
	payload, err := json.Marshal(map[string]interface{}{"requests": requests})
	if err != nil {
		return nil, fmt.Errorf("marshal batch: %w", err)
	}

	var batch Batch
	if err := c.do(ctx, http.MethodPost, "/messages/batches", payload, &batch); err != nil {
		return nil, fmt.Errorf("create batch: %w", err)
	}
	return &batch, nil
}

// RetrieveBatch fetches the current state of a batch.
func (c *Client) RetrieveBatch(ctx context.Context, batchID string) (*Batch, error) {
	var batch Batch
	if err := c.do(ctx, http.MethodGet, "/messages/batches/"+batchID, nil, &batch); err != nil {
		return nil, fmt.Errorf("retrieve batch %s: %w", batchID, err)
	}
	return &batch, nil
}

// CancelBatch asks the server to stop an in-progress batch.
func (c *Client) CancelBatch(ctx context.Context, batchID string) (*Batch, error) {
	var batch Batch
	if err := c.do(ctx, http.MethodPost, "/messages/batches/"+batchID+"/cancel", nil, &batch); err != nil {
		return nil, fmt.Errorf("cancel batch %s: %w", batchID, err)
	}
	return &batch, nil
}

// Results streams the JSONL results of an ended batch.
func (c *Client) Results(ctx context.Context, batchID string) ([]Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/messages/batches/"+batchID+"/results", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request results: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("results returned %s: %s", resp.Status, truncate(string(body), 200))
	}

	var results []Result
	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var result Result
		if err := json.Unmarshal(line, &result); err != nil {
			return nil, fmt.Errorf("parse result line: %w", err)
		}
		results = append(results, result)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read results: %w", err)
	}
	return results, nil
}

// PollUntilDone checks batch status on an interval until the batch leaves the
// in-progress state or the context is canceled.
func (c *Client) PollUntilDone(ctx context.Context, batchID string, interval time.Duration, log *slog.Logger) (*Batch, error) {
	if interval <= 0 {
		interval = time.Minute
	}

	for {
		batch, err := c.RetrieveBatch(ctx, batchID)
		if err != nil {
			return nil, err
		}

		counts := batch.RequestCounts
		log.Info("batch status",
			"batch_id", batchID,
			"status", batch.ProcessingStatus,
			"processing", counts.Processing,
			"succeeded", counts.Succeeded,
			"errored", counts.Errored)

		switch batch.ProcessingStatus {
		case StatusEnded, StatusCanceled, StatusExpired:
			return batch, nil
		}

		select {
		case <-ctx.Done():
			return batch, ctx.Err()
		case <-time.After(interval):
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, out interface{}) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request api: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("api returned %s: %s", resp.Status, truncate(string(respBody), 200))
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)
	req.Header.Set("content-type", "application/json")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
