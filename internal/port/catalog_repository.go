package port

import (
	"context"

	"github.com/google/uuid"

	"bpextract/internal/domain"
)

// CatalogRepository records extracted processes so runs can be queried
// later.
type CatalogRepository interface {
	// SaveProcess stores one process document with its stages and
	// subsheet references, all or nothing.
	SaveProcess(ctx context.Context, runID uuid.UUID, details *domain.ProcessDetails) error
}
