// Package classify assigns codebook codes to translated records through the
// batch engine. Articles may receive several codes each; comments receive
// exactly one. Results land in CSV tables that downstream aggregation reads.
package classify

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"HagwonScanner/internal/batchjob"
	"HagwonScanner/internal/domain"
	"HagwonScanner/internal/infrastructure/anthropic"
	"HagwonScanner/internal/recordio"
)

// Batch rates per million tokens, keyed by model family.
var classifyRates = map[string]struct{ in, out float64 }{
	"sonnet": {1.5, 7.5},
	"haiku":  {0.4, 2.0},
}

// ResultColumns is the header of the classification output CSV. One row per
// assigned code, so an article with three codes produces three rows.
var ResultColumns = []string{
	"url", "date", "publication", "code", "code_5_sub", "justification", "key_quote",
}

// Options configure one article classification run.
type Options struct {
	Input        string
	Output       string
	Model        string
	ModelName    string // "sonnet" or "haiku", for rate lookup
	MaxTokens    int
	DryRun       bool
	EstimateOnly bool
	TestLimit    int
	SubmitOnly   bool
	ProcessOnly  string // batch id
	PollInterval time.Duration
}

// Stage binds a batch job to the article classification flow.
type Stage struct {
	Job    *batchjob.Job
	Logger *slog.Logger
}

// Run executes the stage in the mode the options select.
func (s *Stage) Run(ctx context.Context, opts Options) error {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 15000
	}

	if opts.ProcessOnly != "" {
		return s.process(ctx, opts.ProcessOnly, opts)
	}

	records, err := recordio.ReadJSON(opts.Input)
	if err != nil {
		return err
	}
	s.Logger.Info("input loaded", "input", opts.Input, "records", len(records))

	done, err := classifiedURLs(opts.Output)
	if err != nil {
		return err
	}
	s.Logger.Info("already classified", "count", len(done))

	pending := batchjob.Pending(records, done, func(r domain.Record) string { return r.TranslatedText })
	s.Logger.Info("pending classification", "count", len(pending))
	if len(pending) == 0 {
		s.Logger.Info("nothing to classify")
		return nil
	}

	if opts.TestLimit > 0 && len(pending) > opts.TestLimit {
		pending = pending[:opts.TestLimit]
		s.Logger.Info("test mode", "limit", opts.TestLimit)
	}

	requests := make([]anthropic.BatchRequest, 0, len(pending))
	for i, rec := range pending {
		requests = append(requests, anthropic.BatchRequest{
			CustomID: s.Job.CustomID(i),
			Params: anthropic.MessageParams{
				Model:     opts.Model,
				MaxTokens: opts.MaxTokens,
				System:    Codebook,
				Messages: []anthropic.Message{
					{Role: "user", Content: articlePrompt(rec)},
				},
			},
		})
	}

	if opts.EstimateOnly || opts.DryRun {
		rates := classifyRates["sonnet"]
		if r, ok := classifyRates[opts.ModelName]; ok {
			rates = r
		}
		est := batchjob.EstimateCost(requests, 400, rates.in, rates.out)
		s.Logger.Info("cost estimate, nothing submitted",
			"requests", est.Requests,
			"input_tokens", est.InputTokens,
			"output_tokens", est.OutputTokens,
			"estimated_cost_usd", fmt.Sprintf("%.2f", est.CostUSD))
		return nil
	}

	sub, err := s.Job.Submit(ctx, pending, requests, opts.Output)
	if err != nil {
		return err
	}
	if opts.SubmitOnly {
		s.Logger.Info("submitted, process later", "batch_id", sub.BatchID)
		return nil
	}

	batch, err := s.Job.Client.PollUntilDone(ctx, sub.BatchID, opts.PollInterval, s.Logger)
	if err != nil {
		return err
	}
	if batch.ProcessingStatus != anthropic.StatusEnded {
		return fmt.Errorf("batch %s finished as %s", sub.BatchID, batch.ProcessingStatus)
	}
	return s.process(ctx, sub.BatchID, opts)
}

func (s *Stage) process(ctx context.Context, batchID string, opts Options) error {
	sub, submitted, err := s.Job.LoadSubmission(batchID)
	if err != nil {
		return err
	}
	s.Logger.Info("processing batch", "batch_id", batchID, "records", len(submitted))

	results, err := s.Job.Fetch(ctx, batchID)
	if err != nil {
		return err
	}
	joined, itemErrs := s.Job.Join(submitted, results)

	var assignments []domain.CodeAssignment
	for _, item := range joined {
		parsed, err := ParseAssignments(item.Text)
		if err != nil {
			itemErrs = append(itemErrs, batchjob.ItemError{
				Key:   item.Record.Key(),
				Type:  "parse_error",
				Error: err.Error(),
				Title: item.Record.TranslatedTitle,
			})
			continue
		}
		for _, a := range parsed {
			a.URL = item.Record.URL
			a.Date = item.Record.Date
			a.Publication = item.Record.Publication
			assignments = append(assignments, a)
		}
	}

	if _, err := s.Job.WriteErrors(itemErrs); err != nil {
		return err
	}

	output := sub.OutputFile
	if opts.Output != "" {
		output = opts.Output
	}
	total, err := appendAssignments(output, assignments)
	if err != nil {
		return err
	}
	s.Logger.Info("classifications appended",
		"new", len(assignments), "errors", len(itemErrs), "rows", total, "output", output)
	return nil
}

func articlePrompt(rec domain.Record) string {
	return fmt.Sprintf(`Analyze this Korean newspaper article about hagwon instructors and assign all applicable codes from the codebook.

TITLE: %s

DATE: %s

ARTICLE TEXT:
%s

Return a JSON array of code assignments. Each element must have:
- "code": the code number (1-16)
- "code_5_sub": subcategory letter a/b/c/d, only for code 5, otherwise empty string
- "justification": one or two sentences explaining why the code applies
- "key_quote": the single passage from the article that best supports the code

Return ONLY the JSON array, no commentary.`, rec.TranslatedTitle, rec.Date, rec.TranslatedText)
}

// ParseAssignments decodes a model reply into code assignments. Replies
// whose key_quote fields contain unescaped inner quotes fail strict JSON
// parsing, so a line-level repair pass runs before giving up.
func ParseAssignments(content string) ([]domain.CodeAssignment, error) {
	content = batchjob.StripFences(content)

	assignments, err := decodeAssignments(content)
	if err == nil {
		return assignments, nil
	}

	repaired := repairKeyQuotes(content)
	if assignments, rerr := decodeAssignments(repaired); rerr == nil {
		return assignments, nil
	}
	return nil, err
}

func decodeAssignments(content string) ([]domain.CodeAssignment, error) {
	var raw []struct {
		Code          int    `json:"code"`
		Code5Sub      string `json:"code_5_sub"`
		Justification string `json:"justification"`
		KeyQuote      string `json:"key_quote"`
	}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("parse assignments: %w", err)
	}

	assignments := make([]domain.CodeAssignment, 0, len(raw))
	for _, r := range raw {
		if r.Code < 1 || r.Code > 16 {
			return nil, fmt.Errorf("code %d out of range", r.Code)
		}
		sub := r.Code5Sub
		if r.Code != 5 {
			sub = ""
		}
		assignments = append(assignments, domain.CodeAssignment{
			Code:          r.Code,
			Code5Sub:      sub,
			Justification: r.Justification,
			KeyQuote:      r.KeyQuote,
		})
	}
	return assignments, nil
}

// repairKeyQuotes escapes inner double quotes inside key_quote values. The
// value always runs from the first quote after the colon to the last quote
// on the line, so everything between can be escaped wholesale.
func repairKeyQuotes(content string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		idx := strings.Index(line, `"key_quote"`)
		if idx < 0 {
			continue
		}
		colon := strings.Index(line[idx:], ":")
		if colon < 0 {
			continue
		}
		rest := line[idx+colon+1:]

		start := strings.Index(rest, `"`)
		end := strings.LastIndex(rest, `"`)
		if start < 0 || end <= start {
			continue
		}

		inner := rest[start+1 : end]
		inner = strings.ReplaceAll(inner, `\"`, `"`)
		inner = strings.ReplaceAll(inner, `"`, `\"`)
		lines[i] = line[:idx+colon+1] + rest[:start+1] + inner + rest[end:]
	}
	return strings.Join(lines, "\n")
}

// classifiedURLs reads the output CSV and returns the set of already-coded
// article URLs so reruns only submit the remainder.
func classifiedURLs(path string) (map[string]bool, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return map[string]bool{}, nil
	}
	rows, err := readAssignmentRows(path)
	if err != nil {
		return nil, err
	}
	done := make(map[string]bool, len(rows))
	for _, row := range rows {
		if len(row) > 0 {
			done[row[0]] = true
		}
	}
	return done, nil
}

func readAssignmentRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[1:], nil
}

func appendAssignments(path string, assignments []domain.CodeAssignment) (int, error) {
	existing, err := readExistingAssignments(path)
	if err != nil {
		return 0, err
	}
	all := append(existing, assignments...)

	rows := make([][]string, 0, len(all))
	for _, a := range all {
		rows = append(rows, []string{
			a.URL, a.Date, a.Publication,
			strconv.Itoa(a.Code), a.Code5Sub, a.Justification, a.KeyQuote,
		})
	}
	if err := recordio.WriteCSV(path, ResultColumns, rows); err != nil {
		return 0, err
	}
	return len(all), nil
}

// ReadAssignmentsCSV loads a classification result table.
func ReadAssignmentsCSV(path string) ([]domain.CodeAssignment, error) {
	rows, err := readAssignmentRows(path)
	if err != nil {
		return nil, err
	}

	assignments := make([]domain.CodeAssignment, 0, len(rows))
	for _, row := range rows {
		if len(row) < 7 {
			continue
		}
		code, err := strconv.Atoi(strings.TrimSpace(row[3]))
		if err != nil {
			continue
		}
		assignments = append(assignments, domain.CodeAssignment{
			URL:           row[0],
			Date:          row[1],
			Publication:   row[2],
			Code:          code,
			Code5Sub:      row[4],
			Justification: row[5],
			KeyQuote:      row[6],
		})
	}
	return assignments, nil
}

func readExistingAssignments(path string) ([]domain.CodeAssignment, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	return ReadAssignmentsCSV(path)
}
