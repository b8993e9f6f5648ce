package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"HagwonScanner/internal/batchjob"
	"HagwonScanner/internal/domain"
	"HagwonScanner/internal/infrastructure/anthropic"
	"HagwonScanner/internal/recordio"
)

const commentSystemPrompt = `You are a Korean-English translator specializing in Korean education contexts. Translate YouTube comments about hagwon (private academies) and education.

## TERMINOLOGY RULES

| Korean | English |
|--------|---------|
| 학원 (hakwon) | hagwon (never "academy" or "cram school") |
| 어학원 | language hagwon |
| 학원 강사 / 학원 교사 | hagwon instructor |
| 교사 / 선생님 (without 학원) | school teacher |
| 사교육 | hagwon education (not "private education") |
| 공교육 | public education |
| 수능 | CSAT (college entrance exam) |
| 내신 | school GPA |
| 입시 | college admissions |
| 과외 | private tutoring |
| 강남 | Gangnam |
| 대치동 | Daechi-dong |
| 스타강사 | star instructor |
| 재수생 | repeat test-taker |

## TRANSLATION PRINCIPLES

1. Preserve tone and sentiment (positive, negative, neutral)
2. Keep informal/colloquial style if present
3. Preserve slang, humor, sarcasm
4. Keep names in original format
5. Translate Korean internet slang naturally (ㅋㅋㅋ → "lol", ㅠㅠ → express sadness)

## OUTPUT FORMAT

Return ONLY a JSON object:
{"translated_text": "[translation here]"}`

// Batch rates per million tokens, keyed like the --model flag.
var commentRates = map[string][2]float64{
	"sonnet": {1.5, 7.5},
	"haiku":  {0.4, 2.0},
}

// CommentOptions configure one comment translation run.
type CommentOptions struct {
	Input        string
	Output       string
	Existing     string // earlier translated CSV, read-only
	Model        string // flag value, "sonnet" or "haiku"
	ModelName    string // resolved API model name
	DryRun       bool
	TestLimit    int
	SubmitOnly   bool
	ProcessOnly  string
	PollInterval time.Duration
}

// commentSubmission is the info file of a comment batch. Comment custom ids
// index the full input list, channel ids index the channels slice, so both
// are persisted.
type commentSubmission struct {
	RunID       string   `json:"run_id"`
	BatchID     string   `json:"batch_id"`
	SubmittedAt string   `json:"submitted_at"`
	InputFile   string   `json:"input_file"`
	OutputFile  string   `json:"output_file"`
	Channels    []string `json:"channels"`
	NumRequests int      `json:"num_requests"`
}

// CommentStage translates scraped YouTube comments plus their channel names.
type CommentStage struct {
	Client *anthropic.Client
	Dir    string
	Logger *slog.Logger
}

// Run executes the stage in the mode the options select.
func (s *CommentStage) Run(ctx context.Context, opts CommentOptions) error {
	if opts.ProcessOnly != "" {
		return s.process(ctx, opts.ProcessOnly, opts)
	}

	comments, err := recordio.ReadCommentsCSV(opts.Input)
	if err != nil {
		return err
	}
	s.Logger.Info("comments loaded", "input", opts.Input, "count", len(comments))

	existing, err := loadExistingTranslations(opts.Existing)
	if err != nil {
		return err
	}
	s.Logger.Info("existing translations", "count", len(existing))

	channels, pendingIdx := planComments(comments, existing, opts.TestLimit)
	if len(channels) == 0 && len(pendingIdx) == 0 {
		s.Logger.Info("nothing to translate")
		return nil
	}
	s.Logger.Info("pending", "comments", len(pendingIdx), "channels", len(channels))

	requests := buildCommentRequests(comments, channels, pendingIdx, opts.ModelName)

	if opts.DryRun {
		rates := commentRates[opts.Model]
		est := batchjob.EstimateCost(requests, 300, rates[0], rates[1])
		s.Logger.Info("dry run, nothing submitted",
			"requests", est.Requests, "estimated_cost_usd", fmt.Sprintf("%.2f", est.CostUSD))
		return nil
	}

	sub, err := s.submit(ctx, comments, channels, requests, opts)
	if err != nil {
		return err
	}
	if opts.SubmitOnly {
		s.Logger.Info("submitted, process later", "batch_id", sub.BatchID)
		return nil
	}

	batch, err := s.Client.PollUntilDone(ctx, sub.BatchID, opts.PollInterval, s.Logger)
	if err != nil {
		return err
	}
	if batch.ProcessingStatus != anthropic.StatusEnded {
		return fmt.Errorf("batch %s finished as %s", sub.BatchID, batch.ProcessingStatus)
	}
	return s.process(ctx, sub.BatchID, opts)
}

// planComments decides which channel names and which comment indexes need a
// request. Comments already covered by the existing file keep their old
// translation at merge time.
func planComments(comments []domain.Record, existing map[string]translatedComment, limit int) ([]string, []int) {
	channelSet := map[string]struct{}{}
	translatedChannels := map[string]struct{}{}

	var pendingIdx []int
	for i, c := range comments {
		channelSet[c.Channel] = struct{}{}
		if t, ok := existing[c.Key()]; ok {
			if t.Channel != "" {
				translatedChannels[c.Channel] = struct{}{}
			}
			continue
		}
		if limit > 0 && len(pendingIdx) >= limit {
			continue
		}
		pendingIdx = append(pendingIdx, i)
	}

	var channels []string
	for ch := range channelSet {
		if _, done := translatedChannels[ch]; !done {
			channels = append(channels, ch)
		}
	}
	sort.Strings(channels)
	return channels, pendingIdx
}

func buildCommentRequests(comments []domain.Record, channels []string, pendingIdx []int, model string) []anthropic.BatchRequest {
	var requests []anthropic.BatchRequest

	for i, channel := range channels {
		requests = append(requests, anthropic.BatchRequest{
			CustomID: fmt.Sprintf("channel_%d", i),
			Params: anthropic.MessageParams{
				Model:     model,
				MaxTokens: 1000,
				System:    commentSystemPrompt,
				Messages: []anthropic.Message{{
					Role:    "user",
					Content: fmt.Sprintf("Translate this Korean YouTube channel name to English. Return ONLY JSON: {\"translated_text\": \"...\"}\n\nChannel name: %s", channel),
				}},
			},
		})
	}

	for _, idx := range pendingIdx {
		requests = append(requests, anthropic.BatchRequest{
			CustomID: fmt.Sprintf("comment_%d", idx),
			Params: anthropic.MessageParams{
				Model:     model,
				MaxTokens: 8000,
				System:    commentSystemPrompt,
				Messages: []anthropic.Message{{
					Role:    "user",
					Content: fmt.Sprintf("Translate this Korean YouTube comment to English. Return ONLY JSON: {\"translated_text\": \"...\"}\n\nComment: %s", comments[idx].Text),
				}},
			},
		})
	}

	return requests
}

func (s *CommentStage) submit(ctx context.Context, comments []domain.Record, channels []string, requests []anthropic.BatchRequest, opts CommentOptions) (*commentSubmission, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create batch dir: %w", err)
	}
	timestamp := time.Now().Format("20060102_150405")

	// persist the exact input the ids index into
	recordsFile := filepath.Join(s.Dir, fmt.Sprintf("batch_comments_%s.json", timestamp))
	if err := recordio.WriteJSON(recordsFile, comments); err != nil {
		return nil, err
	}

	batch, err := s.Client.CreateBatch(ctx, requests)
	if err != nil {
		return nil, err
	}
	s.Logger.Info("batch submitted", "batch_id", batch.ID, "requests", len(requests))

	sub := &commentSubmission{
		RunID:       uuid.NewString(),
		BatchID:     batch.ID,
		SubmittedAt: timestamp,
		InputFile:   recordsFile,
		OutputFile:  opts.Output,
		Channels:    channels,
		NumRequests: len(requests),
	}
	data, err := json.MarshalIndent(sub, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal batch info: %w", err)
	}
	infoFile := filepath.Join(s.Dir, fmt.Sprintf("batch_info_%s.json", batch.ID))
	if err := os.WriteFile(infoFile, data, 0o644); err != nil {
		return nil, fmt.Errorf("write batch info: %w", err)
	}
	return sub, nil
}

func (s *CommentStage) process(ctx context.Context, batchID string, opts CommentOptions) error {
	infoFile := filepath.Join(s.Dir, fmt.Sprintf("batch_info_%s.json", batchID))
	data, err := os.ReadFile(infoFile)
	if err != nil {
		return fmt.Errorf("read batch info %s: %w", infoFile, err)
	}
	var sub commentSubmission
	if err := json.Unmarshal(data, &sub); err != nil {
		return fmt.Errorf("parse batch info %s: %w", infoFile, err)
	}

	comments, err := recordio.ReadJSON(sub.InputFile)
	if err != nil {
		return err
	}

	batch, err := s.Client.RetrieveBatch(ctx, batchID)
	if err != nil {
		return err
	}
	if batch.ProcessingStatus != anthropic.StatusEnded {
		return fmt.Errorf("batch %s is %s", batchID, batch.ProcessingStatus)
	}
	results, err := s.Client.Results(ctx, batchID)
	if err != nil {
		return err
	}

	keyFor := func(customID string) string {
		var idx int
		if _, err := fmt.Sscanf(customID, "channel_%d", &idx); err == nil && idx >= 0 && idx < len(sub.Channels) {
			return "channel|" + sub.Channels[idx]
		}
		if _, err := fmt.Sscanf(customID, "comment_%d", &idx); err == nil && idx >= 0 && idx < len(comments) {
			return comments[idx].Key()
		}
		return ""
	}

	channelNames := map[string]string{}
	commentTexts := map[int]string{}
	var itemErrs []batchjob.ItemError
	for _, res := range results {
		if res.Result.Type != "succeeded" {
			errType, errMsg := "unknown_error", "no error message"
			if res.Result.Error != nil {
				errType, errMsg = res.Result.Error.Type, res.Result.Error.Message
			}
			itemErrs = append(itemErrs, batchjob.ItemError{
				CustomID: res.CustomID,
				Key:      keyFor(res.CustomID),
				Type:     errType,
				Error:    errMsg,
			})
			continue
		}
		text, err := parseCommentTranslation(res.Text())
		if err != nil {
			itemErrs = append(itemErrs, batchjob.ItemError{
				CustomID: res.CustomID,
				Key:      keyFor(res.CustomID),
				Type:     "parse_error",
				Error:    err.Error(),
			})
			continue
		}

		var idx int
		if _, err := fmt.Sscanf(res.CustomID, "channel_%d", &idx); err == nil && idx < len(sub.Channels) {
			channelNames[sub.Channels[idx]] = text
			continue
		}
		if _, err := fmt.Sscanf(res.CustomID, "comment_%d", &idx); err == nil {
			commentTexts[idx] = text
		}
	}

	if _, err := batchjob.WriteErrors(s.Dir, s.Logger, itemErrs); err != nil {
		return err
	}

	existing, err := loadExistingTranslations(opts.Existing)
	if err != nil {
		return err
	}

	// merge: every input row goes out, translated from this batch or from
	// the existing file
	translated := 0
	for i := range comments {
		c := &comments[i]
		if text, ok := commentTexts[i]; ok {
			c.TranslatedText = text
			translated++
		} else if old, ok := existing[c.Key()]; ok {
			c.TranslatedText = old.Text
		}
		if name, ok := channelNames[c.Channel]; ok {
			c.TranslatedChannel = name
		} else if old, ok := existing[c.Key()]; ok && old.Channel != "" {
			c.TranslatedChannel = old.Channel
		}
	}

	output := sub.OutputFile
	if opts.Output != "" {
		output = opts.Output
	}
	if err := writeTranslatedCommentsCSV(output, comments); err != nil {
		return err
	}
	s.Logger.Info("translated comments saved",
		"output", output, "rows", len(comments), "translated", translated, "failed", len(itemErrs))
	return nil
}

type translatedComment struct {
	Text    string
	Channel string
}

// loadExistingTranslations keys earlier output rows by comment natural key.
func loadExistingTranslations(path string) (map[string]translatedComment, error) {
	if path == "" {
		return map[string]translatedComment{}, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return map[string]translatedComment{}, nil
	}

	rows, err := recordio.ReadCommentsCSV(path)
	if err != nil {
		return nil, err
	}
	out := make(map[string]translatedComment, len(rows))
	for _, row := range rows {
		out[row.Key()] = translatedComment{
			Text:    row.TranslatedText,
			Channel: row.TranslatedChannel,
		}
	}
	return out, nil
}

func parseCommentTranslation(content string) (string, error) {
	var out struct {
		TranslatedText string `json:"translated_text"`
	}
	if err := json.Unmarshal([]byte(batchjob.StripFences(content)), &out); err != nil {
		return "", fmt.Errorf("parse translation: %w", err)
	}
	return out.TranslatedText, nil
}

func writeTranslatedCommentsCSV(path string, comments []domain.Record) error {
	rows := make([][]string, 0, len(comments))
	for _, c := range comments {
		rows = append(rows, []string{
			c.Channel, c.TranslatedChannel, c.VideoURL, c.Text, c.TranslatedText,
			c.Author, c.Date, fmt.Sprintf("%d", c.Likes),
		})
	}
	return recordio.WriteCSV(path, recordio.TranslatedCommentColumns, rows)
}
