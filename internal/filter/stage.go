package filter

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"HagwonScanner/internal/dates"
	"HagwonScanner/internal/domain"
	"HagwonScanner/internal/ports"
	"HagwonScanner/internal/recordio"
)

// StageOptions configures one filter run over a scraped-records file.
type StageOptions struct {
	Input        string
	Output       string
	TextField    string // "text" or "translated_text"
	Publication  string // backfill for records missing one
	SaveExcluded bool
	WriteCSV     bool
	FromYear     int
	ToYear       int
	Archive      ports.ProcessedArchive
	Logger       *slog.Logger
}

// Summary reports what the stage did, for the end-of-run printout.
type Summary struct {
	Loaded       int
	Duplicates   int
	OutsideRange int
	Verified     int
	Rejected     int
}

// AcceptanceRate is the share of filtered records that passed, in percent.
func (s Summary) AcceptanceRate() float64 {
	total := s.Verified + s.Rejected
	if total == 0 {
		return 0
	}
	return 100 * float64(s.Verified) / float64(total)
}

// Run loads records, dedups by natural key, normalizes dates, filters the
// study year range, applies the double filter, and writes verified records.
// Records are never deleted, only excluded from the output.
func Run(ctx context.Context, opts StageOptions) (Summary, error) {
	log := opts.Logger
	var sum Summary

	records, err := recordio.ReadJSON(opts.Input)
	if err != nil {
		return sum, err
	}
	sum.Loaded = len(records)
	log.Info("loaded records", "input", opts.Input, "count", len(records))

	// backfill publication
	if opts.Publication != "" {
		filled := 0
		for i := range records {
			if records[i].Publication == "" {
				records[i].Publication = opts.Publication
				filled++
			}
		}
		if filled > 0 {
			log.Info("backfilled publication", "publication", opts.Publication, "count", filled)
		}
	}

	// dedup by natural key, first wins
	seen := map[string]struct{}{}
	unique := records[:0]
	for _, rec := range records {
		key := rec.Key()
		if _, ok := seen[key]; ok {
			sum.Duplicates++
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, rec)
	}
	records = unique
	if sum.Duplicates > 0 {
		log.Info("removed duplicates", "count", sum.Duplicates)
	}

	// report overlap with earlier runs; records still pass through because
	// the upsert below refreshes their verdicts
	if opts.Archive != nil {
		keys := make([]string, 0, len(records))
		for _, rec := range records {
			keys = append(keys, rec.Key())
		}
		known, err := opts.Archive.AlreadyProcessed(ctx, keys)
		if err != nil {
			log.Warn("archive lookup failed", "error", err)
		} else if len(known) > 0 {
			log.Info("records seen in earlier runs", "count", len(known))
		}
	}

	// normalize dates and filter to the study range; unparseable dates fail
	// the range check, which is the intended fail-safe
	kept := records[:0]
	for _, rec := range records {
		rec.Date = dates.Normalize(rec.Date)
		year, ok := dates.Year(rec.Date)
		if !ok || year < opts.FromYear || year > opts.ToYear {
			sum.OutsideRange++
			continue
		}
		kept = append(kept, rec)
	}
	records = kept
	if sum.OutsideRange > 0 {
		log.Info("removed records outside year range",
			"from", opts.FromYear, "to", opts.ToYear, "count", sum.OutsideRange)
	}

	var verified, rejected []domain.Record
	for i := range records {
		rec := records[i]
		verdict := Classify(rec.Title, textOf(rec, opts.TextField))
		rec.Include = verdict.Include
		rec.Reason = verdict.Reason
		if verdict.Include {
			verified = append(verified, rec)
		} else {
			rejected = append(rejected, rec)
		}

		if opts.Archive != nil {
			err := opts.Archive.SaveProcessed(ctx, domain.ProcessedRecord{
				Key:         rec.Key(),
				Publication: rec.Publication,
				Title:       rec.Title,
				Include:     verdict.Include,
				Reason:      verdict.Reason,
				Status:      domain.StatusFiltered,
			})
			if err != nil {
				log.Warn("archive save failed", "key", rec.Key(), "error", err)
			}
		}
	}
	sum.Verified = len(verified)
	sum.Rejected = len(rejected)

	if err := recordio.WriteJSON(opts.Output, verified); err != nil {
		return sum, err
	}
	log.Info("verified records saved", "output", opts.Output, "count", len(verified))

	if opts.WriteCSV && len(verified) > 0 {
		csvPath := strings.TrimSuffix(opts.Output, ".json") + ".csv"
		if err := writeVerifiedCSV(csvPath, verified, opts.TextField); err != nil {
			return sum, err
		}
		log.Info("csv saved", "output", csvPath)
	}

	if opts.SaveExcluded && len(rejected) > 0 {
		excludedPath := strings.TrimSuffix(opts.Output, ".json") + "_excluded.json"
		if err := recordio.WriteJSON(excludedPath, rejected); err != nil {
			return sum, err
		}
		log.Info("excluded records saved", "output", excludedPath, "count", len(rejected))
	}

	return sum, nil
}

func textOf(rec domain.Record, field string) string {
	if field == "translated_text" {
		return rec.TranslatedText
	}
	return rec.Text
}

func writeVerifiedCSV(path string, records []domain.Record, textField string) error {
	header := []string{"url", "publication", "title", "date", "author", "include", "reason", textField}
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			rec.URL, rec.Publication, rec.Title, rec.Date, rec.Author,
			strconv.FormatBool(rec.Include), rec.Reason, textOf(rec, textField),
		})
	}
	return recordio.WriteCSV(path, header, rows)
}
