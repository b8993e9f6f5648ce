package classify

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"HagwonScanner/internal/batchjob"
	"HagwonScanner/internal/domain"
	"HagwonScanner/internal/infrastructure/anthropic"
	"HagwonScanner/internal/recordio"
)

// CommentCodebook is the condensed framework for YouTube comments. Comments
// are short, so each receives exactly one code; code 0 marks comments that
// are not about hagwon instructors at all.
const CommentCodebook = `
You are analyzing english translations of korean youtube comments about hagwon (private academy) instructors. assign exactly ONE code to each comment:

CODE 0: NOT ABOUT HAGWON INSTRUCTORS - the comment does not discuss hagwon instructors or the hagwon industry (e.g. reactions to the video itself, off-topic chatter, comments about school teachers only).

CODE 1: FACILITATOR OF ACADEMIC DISHONESTY - portrays instructors as helping students cheat or commit academic fraud.
CODE 2: CONDUIT OF SOCIAL INEQUITY - frames instructors as reproducing inequality by serving only families who can pay.
CODE 3: PROFIT MOTIVE DOUBTED - questions whether instructors care about education or only money.
CODE 4: OPPOSED AS UNDERMINING PUBLIC EDUCATION - opposes instructors/industry as harmful to public schooling.
CODE 5: CRIMINAL CONDUCT - portrays instructors as criminal offenders. subcategories: (a) sexual misconduct with students, (b) sexual misconduct with non-students, (c) drug crimes, (d) violence or fraud.
CODE 6: UNQUALIFIED / SUBSTANDARD CREDENTIALS - portrays instructors as lacking proper qualifications or licenses.
CODE 7: PRECARIOUS / MARGINAL EMPLOYMENT - frames hagwon teaching as insecure, low-paid, vulnerable work.
CODE 8: VICTIM OF DEFAMATION / FALSE ACCUSATIONS - portrays an instructor as wrongly accused or defamed.
CODE 9: FALLBACK CAREER FOR THE EDUCATED - frames hagwon teaching as a last resort after failed job searches.
CODE 10: TRANSITIONAL OR PART-TIME WORK - frames hagwon teaching as temporary work by choice (students, degree candidates).
CODE 11: SUGGESTED AFFORDABILITY - frames instructors' services as accessible and moderately priced.
CODE 12: EDUCATIONALLY COUNTERPRODUCTIVE - frames hagwon education as harmful to real learning or student wellbeing.
CODE 13: FUNCTIONAL EDUCATIONAL SERVICE - neutral mention of instructors providing standard educational services.
CODE 14: RECOGNIZED EXPERT / PROFESSIONAL PEER - portrays instructors as legitimate professionals with expertise.
CODE 15: GLAMOROUS / HIGH-EARNING WORKER - portrays instructors as exceptionally successful or celebrity-like.
CODE 16: ORDINARY CITIZEN - incidental mention of an instructor as an everyday member of society.

PRINCIPLES:
- choose the single code that best captures the comment's framing of hagwon instructors
- when in doubt between a substantive code and 0, ask: does this comment say anything about hagwon instructors as a group or as individuals?
- for code 5, always specify the subcategory letter
`

// CommentResultColumns extends the translated-comment layout with the code.
var CommentResultColumns = []string{
	"channel", "channel_translated", "video_url", "text", "text_translated",
	"author", "date", "likes", "code", "code_5_sub", "justification",
}

// CommentOptions configure one comment classification run.
type CommentOptions struct {
	Input        string // translated comments CSV
	Output       string
	Existing     string // earlier classified CSV, read-only
	Model        string // flag value, "sonnet" or "haiku"
	ModelName    string // resolved API model name
	DryRun       bool
	TestLimit    int
	SubmitOnly   bool
	ProcessOnly  string
	PollInterval time.Duration
}

// commentClassification is one coded comment, keyed by the comment's
// natural key at merge time.
type commentClassification struct {
	Code          int
	Code5Sub      string
	Justification string
}

// commentBatchInfo is the info file of a comment classification batch. The
// positional custom ids index the persisted input list.
type commentBatchInfo struct {
	RunID       string `json:"run_id"`
	BatchID     string `json:"batch_id"`
	SubmittedAt string `json:"submitted_at"`
	InputFile   string `json:"input_file"`
	OutputFile  string `json:"output_file"`
	NumRequests int    `json:"num_requests"`
}

// CommentStage classifies translated YouTube comments one code each.
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

	existing, err := loadExistingClassifications(opts.Existing)
	if err != nil {
		return err
	}
	s.Logger.Info("already classified", "count", len(existing))

	var pendingIdx []int
	for i, c := range comments {
		if _, ok := existing[c.Key()]; ok {
			continue
		}
		if c.TranslatedText == "" {
			continue
		}
		if opts.TestLimit > 0 && len(pendingIdx) >= opts.TestLimit {
			break
		}
		pendingIdx = append(pendingIdx, i)
	}
	s.Logger.Info("pending classification", "count", len(pendingIdx))
	if len(pendingIdx) == 0 {
		s.Logger.Info("nothing to classify")
		return nil
	}

	requests := make([]anthropic.BatchRequest, 0, len(pendingIdx))
	for _, idx := range pendingIdx {
		requests = append(requests, anthropic.BatchRequest{
			CustomID: fmt.Sprintf("comment_%d", idx),
			Params: anthropic.MessageParams{
				Model:     opts.ModelName,
				MaxTokens: 500,
				System:    CommentCodebook,
				Messages: []anthropic.Message{{
					Role:    "user",
					Content: commentPrompt(comments[idx]),
				}},
			},
		})
	}

	if opts.DryRun {
		rates := classifyRates["haiku"]
		if r, ok := classifyRates[opts.Model]; ok {
			rates = r
		}
		est := batchjob.EstimateCost(requests, 100, rates.in, rates.out)
		s.Logger.Info("dry run, nothing submitted",
			"requests", est.Requests, "estimated_cost_usd", fmt.Sprintf("%.2f", est.CostUSD))
		return nil
	}

	sub, err := s.submit(ctx, comments, requests, opts)
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

func commentPrompt(c domain.Record) string {
	return fmt.Sprintf(`Classify this YouTube comment according to the codebook.

COMMENT: %s

Return ONLY a JSON object:
{"code": <0-16>, "code_5_sub": "<a/b/c/d or empty>", "justification": "<one sentence>"}`,
		c.TranslatedText)
}

func (s *CommentStage) submit(ctx context.Context, comments []domain.Record, requests []anthropic.BatchRequest, opts CommentOptions) (*commentBatchInfo, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create batch dir: %w", err)
	}
	timestamp := time.Now().Format("20060102_150405")

	inputFile := filepath.Join(s.Dir, fmt.Sprintf("batch_comments_%s.json", timestamp))
	if err := recordio.WriteJSON(inputFile, comments); err != nil {
		return nil, err
	}

	batch, err := s.Client.CreateBatch(ctx, requests)
	if err != nil {
		return nil, err
	}
	s.Logger.Info("batch submitted", "batch_id", batch.ID, "requests", len(requests))

	sub := &commentBatchInfo{
		RunID:       uuid.NewString(),
		BatchID:     batch.ID,
		SubmittedAt: timestamp,
		InputFile:   inputFile,
		OutputFile:  opts.Output,
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
	var sub commentBatchInfo
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
		if _, err := fmt.Sscanf(customID, "comment_%d", &idx); err == nil && idx >= 0 && idx < len(comments) {
			return comments[idx].Key()
		}
		return ""
	}

	coded := map[int]commentClassification{}
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
		cls, err := parseCommentClassification(res.Text())
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
		if _, err := fmt.Sscanf(res.CustomID, "comment_%d", &idx); err == nil {
			coded[idx] = cls
		}
	}

	if _, err := batchjob.WriteErrors(s.Dir, s.Logger, itemErrs); err != nil {
		return err
	}

	existing, err := loadExistingClassifications(opts.Existing)
	if err != nil {
		return err
	}

	output := sub.OutputFile
	if opts.Output != "" {
		output = opts.Output
	}

	rows := make([][]string, 0, len(comments))
	classified := 0
	for i, c := range comments {
		cls, ok := coded[i]
		if !ok {
			cls, ok = existing[c.Key()]
		}
		code, sub5, just := "", "", ""
		if ok {
			code = strconv.Itoa(cls.Code)
			sub5 = cls.Code5Sub
			just = cls.Justification
			classified++
		}
		rows = append(rows, []string{
			c.Channel, c.TranslatedChannel, c.VideoURL, c.Text, c.TranslatedText,
			c.Author, c.Date, strconv.Itoa(c.Likes), code, sub5, just,
		})
	}
	if err := recordio.WriteCSV(output, CommentResultColumns, rows); err != nil {
		return err
	}
	s.Logger.Info("classified comments saved",
		"output", output, "rows", len(rows), "classified", classified, "failed", len(itemErrs))
	return nil
}

func parseCommentClassification(content string) (commentClassification, error) {
	var out struct {
		Code          int    `json:"code"`
		Code5Sub      string `json:"code_5_sub"`
		Justification string `json:"justification"`
	}
	if err := json.Unmarshal([]byte(batchjob.StripFences(content)), &out); err != nil {
		return commentClassification{}, fmt.Errorf("parse classification: %w", err)
	}
	if out.Code < 0 || out.Code > 16 {
		return commentClassification{}, fmt.Errorf("code %d out of range", out.Code)
	}
	if out.Code != 5 {
		out.Code5Sub = ""
	}
	return commentClassification{
		Code:          out.Code,
		Code5Sub:      out.Code5Sub,
		Justification: out.Justification,
	}, nil
}

// loadExistingClassifications keys earlier output rows by comment natural
// key so a rerun keeps old codes for comments the new batch skipped.
func loadExistingClassifications(path string) (map[string]commentClassification, error) {
	if path == "" {
		return map[string]commentClassification{}, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return map[string]commentClassification{}, nil
	}

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
		return map[string]commentClassification{}, nil
	}

	col := map[string]int{}
	for i, name := range rows[0] {
		col[name] = i
	}
	get := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	out := map[string]commentClassification{}
	for _, row := range rows[1:] {
		code, err := strconv.Atoi(get(row, "code"))
		if err != nil {
			continue
		}
		key := domain.CommentKey(get(row, "video_url"), get(row, "author"), get(row, "text"))
		out[key] = commentClassification{
			Code:          code,
			Code5Sub:      get(row, "code_5_sub"),
			Justification: get(row, "justification"),
		}
	}
	return out, nil
}
