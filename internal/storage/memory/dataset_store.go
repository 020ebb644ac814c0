package memory

import (
	"context"
	"sync"

	"trade-eda/internal/domain"
	"trade-eda/internal/storage"
)

// DatasetStore is an in-memory implementation of storage.DatasetStore.
type DatasetStore struct {
	mu    sync.RWMutex
	data  map[string]*domain.Dataset // keyed by dataset id
	order []string                   // insertion order
}

// NewDatasetStore creates a new in-memory dataset store.
func NewDatasetStore() *DatasetStore {
	return &DatasetStore{
		data: make(map[string]*domain.Dataset),
	}
}

// Insert adds a new dataset. Returns ErrDuplicateKey if the id exists.
func (s *DatasetStore) Insert(_ context.Context, ds *domain.Dataset) error {
	if ds == nil || ds.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[ds.ID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *ds
	s.data[ds.ID] = &copy
	s.order = append(s.order, ds.ID)
	return nil
}

// GetByID retrieves a dataset by its ID. Returns ErrNotFound if not exists.
// The record slice is shared with the stored dataset and must not be modified.
func (s *DatasetStore) GetByID(_ context.Context, id string) (*domain.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ds, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *ds
	return &copy, nil
}

// Delete removes a dataset. Returns ErrNotFound if not exists.
func (s *DatasetStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[id]; !exists {
		return storage.ErrNotFound
	}

	delete(s.data, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// IDs lists stored dataset IDs, oldest insertion first.
func (s *DatasetStore) IDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, len(s.order))
	copy(ids, s.order)
	return ids, nil
}

var _ storage.DatasetStore = (*DatasetStore)(nil)
