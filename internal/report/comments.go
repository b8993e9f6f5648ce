package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"HagwonScanner/internal/domain"
)

// LoadCommentAssignments reads a classified comment CSV into assignments so
// comments run through the same tables as articles. The translated channel
// name stands in for the publication column.
func LoadCommentAssignments(path string) ([]domain.CodeAssignment, error) {
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

	var assignments []domain.CodeAssignment
	for _, row := range rows[1:] {
		code, err := strconv.Atoi(get(row, "code"))
		if err != nil {
			continue
		}
		publication := get(row, "channel_translated")
		if publication == "" {
			publication = get(row, "channel")
		}
		assignments = append(assignments, domain.CodeAssignment{
			URL:           get(row, "video_url"),
			Date:          get(row, "date"),
			Publication:   publication,
			Code:          code,
			Code5Sub:      get(row, "code_5_sub"),
			Justification: get(row, "justification"),
		})
	}
	return assignments, nil
}
