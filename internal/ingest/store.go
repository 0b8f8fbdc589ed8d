package ingest

import "context"

// ReportStore persists position reports.
type ReportStore interface {
	// Insert appends one report. Reports are never updated or deleted.
	Insert(ctx context.Context, report Report) error
}
