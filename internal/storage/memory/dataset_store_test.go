package memory

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"trade-eda/internal/domain"
	"trade-eda/internal/storage"
)

func makeDataset(id string, rows int) *domain.Dataset {
	return &domain.Dataset{
		ID:      id,
		Source:  "csv:" + id,
		Records: make([]domain.TradeRecord, rows),
	}
}

func TestDatasetStore_InsertAndGet(t *testing.T) {
	store := NewDatasetStore()
	ctx := context.Background()

	if err := store.Insert(ctx, makeDataset("ds1", 3)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "ds1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Len() != 3 || got.Source != "csv:ds1" {
		t.Errorf("Unexpected dataset: %+v", got)
	}
}

func TestDatasetStore_GetReturnsCopy(t *testing.T) {
	store := NewDatasetStore()
	ctx := context.Background()

	_ = store.Insert(ctx, makeDataset("ds1", 1))

	got, _ := store.GetByID(ctx, "ds1")
	got.Source = "changed"

	again, _ := store.GetByID(ctx, "ds1")
	if again.Source != "csv:ds1" {
		t.Errorf("Store was modified through returned value: %s", again.Source)
	}
}

func TestDatasetStore_DuplicateKey(t *testing.T) {
	store := NewDatasetStore()
	ctx := context.Background()

	_ = store.Insert(ctx, makeDataset("ds1", 1))
	err := store.Insert(ctx, makeDataset("ds1", 2))
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestDatasetStore_InvalidInput(t *testing.T) {
	store := NewDatasetStore()
	ctx := context.Background()

	if err := store.Insert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil, got %v", err)
	}
	if err := store.Insert(ctx, makeDataset("", 1)); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty id, got %v", err)
	}
}

func TestDatasetStore_NotFound(t *testing.T) {
	store := NewDatasetStore()
	ctx := context.Background()

	if _, err := store.GetByID(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if err := store.Delete(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on delete, got %v", err)
	}
}

func TestDatasetStore_DeleteAndOrder(t *testing.T) {
	store := NewDatasetStore()
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := store.Insert(ctx, makeDataset(id, 1)); err != nil {
			t.Fatalf("Insert %s failed: %v", id, err)
		}
	}

	if err := store.Delete(ctx, "b"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.GetByID(ctx, "b"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected deleted dataset to be gone, got %v", err)
	}

	_ = store.Insert(ctx, makeDataset("b", 1))

	ids, _ := store.IDs(ctx)
	if want := []string{"a", "c", "b"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("Expected insertion order %v, got %v", want, ids)
	}
}

func TestDatasetStore_ConcurrentAccess(t *testing.T) {
	store := NewDatasetStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('A' + i%26))
			_ = store.Insert(ctx, makeDataset(id, 1))
			_, _ = store.GetByID(ctx, id)
			_, _ = store.IDs(ctx)
		}(i)
	}
	wg.Wait()

	ids, _ := store.IDs(ctx)
	if len(ids) != 26 {
		t.Errorf("Expected 26 datasets, got %d", len(ids))
	}
}
