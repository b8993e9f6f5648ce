// Package translate runs Korean-to-English translation through the batch
// engine. Articles use a three-file convention: the input file is never
// modified, the in-progress file holds earlier translations and is read-only,
// and new translations append to the output file.
package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"HagwonScanner/internal/batchjob"
	"HagwonScanner/internal/domain"
	"HagwonScanner/internal/infrastructure/anthropic"
	"HagwonScanner/internal/recordio"
)

const articleSystemPrompt = `You are a professional Korean-English translator specializing in Korean education journalism. You are translating news articles about hagwon (private academy) teachers for qualitative content analysis by English-speaking researchers who are unfamiliar with Korean context.

## CRITICAL TERMINOLOGY RULES

You MUST use these exact translations consistently:

| Korean | English | Notes |
|--------|---------|-------|
| 학원 (hakwon) | hagwon | NEVER translate as "academy" or "cram school" |
| 어학원 | language hagwon | NEVER translate as "language academy" or "language institute" |
| 학원 강사 / 학원 교사 | hagwon instructor / hagwon teacher | Use interchangeably; Korean always specifies 학원 for hagwon teachers |
| 교사 / 교원 / 선생님 (without 학원) | school teacher / public school teacher | When used alone without 학원, these terms refer to school teachers by default |
| 사교육 | hagwon education | In Korean context, 사교육 refers specifically to the hagwon/tutoring industry; do NOT translate as "private education" |
| 공교육 | public education | |
| 전교조 | KTU (Korean Teachers and Education Workers Union, a left-leaning teachers' organization) | Provide full explanation EVERY time |
| 수능 / 대학수학능력시험 | CSAT (College Scholastic Ability Test, Korea's national university entrance exam) | Provide full explanation EVERY time |
| 내신 | school records / GPA | High school transcript grades |
| 입시 | college entrance exam(s) / university admissions | |
| 논술 | essay-writing exam | A component of some university admissions |
| 과외 | private tutoring | One-on-one tutoring, distinct from hagwon group instruction |
| EBS | EBS (Educational Broadcasting System, Korea's state-run educational media) | Provide explanation EVERY time |
| 강남 | Gangnam [an affluent district in Seoul] | Provide explanation EVERY time |
| 대치동 | Daechi-dong [a Gangnam neighborhood known as the epicenter of Korea's elite hagwon industry] | Provide explanation EVERY time |
| 스타강사 | star instructor / celebrity instructor | |
| 족집게 강사 | pinpoint instructor [a teacher known for accurately predicting exam questions] | Provide explanation |
| 재수생 | repeat test-taker [a student retaking CSAT after high school graduation] | Provide explanation |
| 기숙학원 | boarding hagwon | Residential hagwon where students live on-site |
| 수행평가 | performance assessment | School-based assessment (not standardized exam) |

## DISTINGUISHING HAGWON TEACHERS FROM SCHOOL TEACHERS

This is CRITICAL:
- 교사 (without specification) = school teacher. When Korean text uses 교사, 교원, or 선생님 alone, it refers to school teachers by default.
- 학원 강사 or 학원 교사 = hagwon teacher. Korean always specifies 학원 when referring to hagwon teachers.
- EXCEPTION FOR HAGWON CONTEXT: When the article establishes someone works at a hagwon (e.g., "어학원 강사" or "학원에서 일하는"), subsequent references like "영어강사" or "수학강사" should be translated as "English hagwon instructor" or "math hagwon instructor" — include "hagwon" to maintain clarity for English readers even if the Korean uses shorthand.
- For articles NOT about hagwon teachers, do not add "hagwon" where the Korean does not specify it.

## ANNOTATION RULES

Provide contextual annotations in square brackets for:

1. **Organization names** - Provide full name and brief explanation EVERY time (e.g., "KTU (Korean Teachers and Education Workers Union, a left-leaning teachers' organization)")

2. **Geographic references with social connotations** - Provide explanation EVERY time (e.g., "Gangnam [an affluent district in Seoul]" or "Daechi-dong [a Gangnam neighborhood known as the epicenter of Korea's elite hagwon industry]")

3. **Currency amounts** - ALWAYS provide approximate USD equivalent for ALL amounts, including vague amounts. Examples:
   - Specific: "50,000 won [approximately $38 USD]" or "2억원 [approximately $150,000 USD]"
   - Vague: "수백만원" → "millions of won [approximately $2,000–8,000 USD]" or "수천만원" → "tens of millions of won [approximately $15,000–75,000 USD]"

4. **Historical or political references** unfamiliar to international readers (e.g., "386 generation [Koreans born in the 1960s who were politically active in the 1980s democracy movement]")

5. **Educational system-specific terms** not in the terminology list above

## TRANSLATION PRINCIPLES

1. **Preserve framing and tone**: Your primary goal is to preserve HOW hagwon teachers are portrayed—positively, negatively, or neutrally. Capture connotations even if it requires non-literal translation.

2. **Preserve evaluative language**: Maintain loaded verbs, intensifiers, hedges, and scare quotes. Do not soften or amplify the original tone.

3. **Do not neutralize or editorialize**: Transfer the original tone faithfully, not improve or correct it.

4. **Names**: Romanize Korean names using Revised Romanization. Preserve anonymization format (e.g., "Mr. Kim (30)" or "A (female, 25)").

5. **Quotations**: Preserve all direct quotations with proper attribution.

## OUTPUT FORMAT

Return ONLY a JSON object with two fields:
{
  "translated_title": "[translated title here]",
  "translated_text": "[translated body text here with all annotations]"
}

Do not include any explanation or commentary outside the JSON object.`

// Batch rates per million tokens for the article model.
const (
	articleInputRate  = 1.5
	articleOutputRate = 7.5
)

// Options configure one article translation run.
type Options struct {
	Input        string
	InProgress   string
	Output       string
	TextField    string
	Model        string
	MaxTokens    int
	DryRun       bool
	TestLimit    int
	SubmitOnly   bool
	ProcessOnly  string // batch id
	PollInterval time.Duration
}

// Stage binds a batch job to the article translation flow.
type Stage struct {
	Job    *batchjob.Job
	Logger *slog.Logger
}

// Run executes the stage in the mode the options select.
func (s *Stage) Run(ctx context.Context, opts Options) error {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 12000
	}
	if opts.TextField == "" {
		opts.TextField = "text"
	}

	if opts.ProcessOnly != "" {
		return s.process(ctx, opts.ProcessOnly, opts)
	}

	records, err := recordio.ReadJSON(opts.Input)
	if err != nil {
		return err
	}
	s.Logger.Info("input loaded", "input", opts.Input, "records", len(records))

	done, err := batchjob.DoneKeys(opts.InProgress, opts.Output)
	if err != nil {
		return err
	}
	s.Logger.Info("already translated", "count", len(done))

	textOf := func(r domain.Record) string { return textField(r, opts.TextField) }
	pending := batchjob.Pending(records, done, textOf)
	s.Logger.Info("pending translation", "count", len(pending))
	if len(pending) == 0 {
		s.Logger.Info("nothing to translate")
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
				System:    articleSystemPrompt,
				Messages: []anthropic.Message{
					{Role: "user", Content: articleUserMessage(rec.Title, textOf(rec))},
				},
			},
		})
	}

	if opts.DryRun {
		est := batchjob.EstimateCost(requests, 3000, articleInputRate, articleOutputRate)
		s.Logger.Info("dry run, nothing submitted",
			"requests", est.Requests, "estimated_cost_usd", fmt.Sprintf("%.2f", est.CostUSD))
		for i, rec := range pending {
			if i >= 3 {
				break
			}
			s.Logger.Info("sample request", "custom_id", s.Job.CustomID(i), "title", rec.Title, "url", rec.URL)
		}
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

	var translated []domain.Record
	for _, item := range joined {
		title, text, err := parseTranslation(item.Text)
		if err != nil {
			itemErrs = append(itemErrs, batchjob.ItemError{
				Key:   item.Record.Key(),
				Type:  "parse_error",
				Error: err.Error(),
			})
			continue
		}
		rec := item.Record
		rec.TranslatedTitle = title
		rec.TranslatedText = text
		translated = append(translated, rec)
	}

	if _, err := s.Job.WriteErrors(itemErrs); err != nil {
		return err
	}

	output := sub.OutputFile
	if opts.Output != "" {
		output = opts.Output
	}
	total, err := appendOutput(output, translated)
	if err != nil {
		return err
	}
	s.Logger.Info("translations appended",
		"new", len(translated), "errors", len(itemErrs), "total", total, "output", output)
	return nil
}

func articleUserMessage(title, text string) string {
	return fmt.Sprintf(`Translate the following Korean news article into English following all the guidelines in your instructions.

TITLE: %s

BODY:
%s

Return ONLY the JSON object with translated_title and translated_text.`, title, text)
}

func parseTranslation(content string) (string, string, error) {
	var out struct {
		TranslatedTitle string `json:"translated_title"`
		TranslatedText  string `json:"translated_text"`
	}
	if err := json.Unmarshal([]byte(batchjob.StripFences(content)), &out); err != nil {
		return "", "", fmt.Errorf("parse translation: %w", err)
	}
	return out.TranslatedTitle, out.TranslatedText, nil
}

// appendOutput appends to the output file without touching anything else.
func appendOutput(path string, records []domain.Record) (int, error) {
	var existing []domain.Record
	if _, err := os.Stat(path); err == nil {
		existing, err = recordio.ReadJSON(path)
		if err != nil {
			return 0, err
		}
	}
	all := append(existing, records...)
	if err := recordio.WriteJSON(path, all); err != nil {
		return 0, err
	}
	return len(all), nil
}

func textField(r domain.Record, field string) string {
	if field == "translated_text" {
		return r.TranslatedText
	}
	return r.Text
}
