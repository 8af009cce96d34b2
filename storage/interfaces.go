package storage

import (
	"context"

	"property-agent/models"
)

// ListingExporter writes the listings of a run to a flat file.
type ListingExporter interface {
	Write(runID string, listings []models.Listing) error
	Close() error
}

// RunArchiver persists finished analysis runs.
type RunArchiver interface {
	Archive(ctx context.Context, res *models.AnalysisResult) error
	Close() error
}

var (
	_ ListingExporter = (*CSVWriter)(nil)
	_ RunArchiver     = (*PostgresWriter)(nil)
)
