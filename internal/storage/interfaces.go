package storage

import (
	"context"

	"trade-eda/internal/domain"
)

// DatasetStore holds normalized and derived datasets keyed by their
// content fingerprint. Datasets are immutable once stored.
type DatasetStore interface {
	// Insert adds a dataset. Returns ErrDuplicateKey if the ID exists and
	// ErrInvalidInput for a nil dataset or empty ID.
	Insert(ctx context.Context, ds *domain.Dataset) error

	// GetByID retrieves a dataset by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.Dataset, error)

	// Delete removes a dataset. Returns ErrNotFound if not exists.
	Delete(ctx context.Context, id string) error

	// IDs lists stored dataset IDs, oldest insertion first.
	IDs(ctx context.Context) ([]string, error)
}
