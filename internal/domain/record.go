package domain

import "strings"

// Record is one scraped article or YouTube comment flowing through the
// pipeline. Stages enrich it in place; nothing is ever deleted, only
// excluded from the next stage's output.
type Record struct {
	URL               string   `json:"url,omitempty"`
	Publication       string   `json:"publication,omitempty"`
	Channel           string   `json:"channel,omitempty"`
	VideoURL          string   `json:"video_url,omitempty"`
	Title             string   `json:"title,omitempty"`
	Text              string   `json:"text"`
	Author            string   `json:"author,omitempty"`
	Likes             int      `json:"likes,omitempty"`
	Date              string   `json:"date,omitempty"`
	KeywordsMatched   []string `json:"keywords_matched,omitempty"`
	Include           bool     `json:"include,omitempty"`
	Reason            string   `json:"reason,omitempty"`
	TranslatedTitle   string   `json:"translated_title,omitempty"`
	TranslatedText    string   `json:"translated_text,omitempty"`
	TranslatedChannel string   `json:"channel_translated,omitempty"`
	ScrapedAt         string   `json:"scraped_at,omitempty"`
}

const commentKeyPrefixLen = 50

// Key returns the record's natural identity: the article URL, or a
// channel/author/text-prefix composite for comments that have no stable id.
// Completed-set membership is always checked against this key, never
// against transient positional batch identifiers.
func (r Record) Key() string {
	if r.URL != "" {
		return r.URL
	}
	return CommentKey(r.VideoURL, r.Author, r.Text)
}

// CommentKey builds the composite key for a YouTube comment.
func CommentKey(videoURL, author, text string) string {
	runes := []rune(text)
	if len(runes) > commentKeyPrefixLen {
		runes = runes[:commentKeyPrefixLen]
	}
	return strings.Join([]string{videoURL, author, string(runes)}, "|")
}

// CodeAssignment is one codebook code attached to a record. A record may
// carry zero, one, or many assignments; only code 5 uses the sub letters.
type CodeAssignment struct {
	URL           string `json:"url"`
	Date          string `json:"date"`
	Publication   string `json:"publication"`
	Code          int    `json:"code"`
	Code5Sub      string `json:"code_5_sub,omitempty"`
	Justification string `json:"justification"`
	KeyQuote      string `json:"key_quote"`
}

// ProcessingStatus enumerates pipeline milestones for the archive.
type ProcessingStatus string

const (
	StatusScraped    ProcessingStatus = "scraped"
	StatusFiltered   ProcessingStatus = "filtered"
	StatusTranslated ProcessingStatus = "translated"
	StatusClassified ProcessingStatus = "classified"
)

// ProcessedRecord is the archive row persisted for deduplication and audit.
type ProcessedRecord struct {
	Key         string
	Publication string
	Title       string
	Include     bool
	Reason      string
	Status      ProcessingStatus
}
