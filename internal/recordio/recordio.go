// Package recordio reads and writes the JSON/CSV files that carry records
// between pipeline stages. Each stage owns its output file exclusively for
// the duration of a run, so every save is read-fully-then-overwrite.
package recordio

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"HagwonScanner/internal/domain"
)

// ReadJSON loads a JSON array of records. A top-level object is accepted when
// one of its values is the array (some scraper outputs nest per keyword).
func ReadJSON(path string) ([]domain.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var records []domain.Record
	if err := json.Unmarshal(data, &records); err == nil {
		return records, nil
	}

	var nested map[string]json.RawMessage
	if err := json.Unmarshal(data, &nested); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for _, raw := range nested {
		if err := json.Unmarshal(raw, &records); err == nil {
			return records, nil
		}
	}
	return nil, fmt.Errorf("parse %s: no record array found", path)
}

// WriteJSON saves records as an indented JSON array, creating parent
// directories as needed.
func WriteJSON(path string, records []domain.Record) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// CommentColumns is the fixed header of scraped-comment CSV files.
var CommentColumns = []string{"channel", "video_url", "text", "author", "date", "likes"}

// TranslatedCommentColumns is the header after the translation stage.
var TranslatedCommentColumns = []string{
	"channel", "channel_translated", "video_url", "text", "text_translated",
	"author", "date", "likes",
}

// ReadCommentsCSV loads a comment CSV in either the scraped or translated
// column layout.
func ReadCommentsCSV(path string) ([]domain.Record, error) {
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

	records := make([]domain.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		likes, _ := strconv.Atoi(get(row, "likes"))
		records = append(records, domain.Record{
			Channel:           get(row, "channel"),
			TranslatedChannel: get(row, "channel_translated"),
			VideoURL:          get(row, "video_url"),
			Text:              get(row, "text"),
			TranslatedText:    get(row, "text_translated"),
			Author:            get(row, "author"),
			Date:              get(row, "date"),
			Likes:             likes,
		})
	}
	return records, nil
}

// WriteCommentsCSV saves scraped comments with the fixed header.
func WriteCommentsCSV(path string, records []domain.Record) error {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			rec.Channel, rec.VideoURL, rec.Text, rec.Author, rec.Date,
			strconv.Itoa(rec.Likes),
		})
	}
	return WriteCSV(path, CommentColumns, rows)
}

// WriteCSV writes a header row plus data rows.
func WriteCSV(path string, header []string, rows [][]string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return nil
}
