package ports

import (
	"context"

	"HagwonScanner/internal/domain"
)

// RecordSource pulls raw records from the configured publications.
type RecordSource interface {
	FetchAll(ctx context.Context) ([]domain.Record, error)
}

// ProcessedArchive persists processed records for deduplication and audit.
// The archive is optional; stages run file-only without one.
type ProcessedArchive interface {
	AlreadyProcessed(ctx context.Context, keys []string) (map[string]bool, error)
	SaveProcessed(ctx context.Context, record domain.ProcessedRecord) error
}

// Classifier assigns codebook codes to a single translated record. Used by
// the synchronous classification path; bulk work goes through the batch API.
type Classifier interface {
	Classify(ctx context.Context, record domain.Record) ([]domain.CodeAssignment, error)
}
