// Package source defines the data-source capability the rest of the
// system consumes, plus the shared infrastructure every scraper sits
// behind: per-source rate limiting, circuit breaking, and retry with
// backoff. The multi-source search orchestrator lives here too.
package source

import (
	"context"
	"errors"

	"github.com/dpaoloni/fundscan/internal/model"
	"github.com/dpaoloni/fundscan/internal/progress"
)

// ErrNotFound is returned by GetByISIN when the source has no record
// for the instrument. It is a normal outcome, not a source failure.
var ErrNotFound = errors.New("instrument not found")

// DataSource is the contract every scraper implements. Searches and
// lookups may block on network I/O; cancellation and deadlines arrive
// through the context. Failures stay inside the source: the caller
// isolates them and degrades to zero records.
type DataSource interface {
	// Name returns the source tag stamped on every produced record.
	Name() model.Source

	// SupportedTypes lists the instrument kinds this source covers.
	SupportedTypes() []model.InstrumentType

	// Search returns raw records matching the criteria.
	Search(ctx context.Context, criteria model.SearchCriteria, cb progress.Func) ([]model.SourceRecord, error)

	// GetByISIN returns the record for one instrument, ErrNotFound
	// when the source does not know it.
	GetByISIN(ctx context.Context, code string) (*model.SourceRecord, error)

	// HealthCheck reports whether the source currently answers.
	HealthCheck(ctx context.Context) bool
}
