package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"booknest/internal/apperr"
	"booknest/internal/models"
)

type libraryKey struct {
	userID string
	bookID string
}

// MockLibraryRepository is an in-memory implementation of LibraryRepository.
// It backs the memory storage driver.
type MockLibraryRepository struct {
	records map[libraryKey]models.LibraryRecord
	mu      sync.RWMutex
}

// NewMockLibraryRepository creates a new instance of MockLibraryRepository.
func NewMockLibraryRepository() *MockLibraryRepository {
	return &MockLibraryRepository{
		records: make(map[libraryKey]models.LibraryRecord),
	}
}

// Get returns the record of a (user, book) pair.
func (r *MockLibraryRepository) Get(_ context.Context, userID, bookID string) (*models.LibraryRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[libraryKey{userID, bookID}]
	if !ok {
		return nil, apperr.NotFound("Library record not found")
	}
	return &rec, nil
}

// Toggle flips flag under the write lock, creating the record if needed.
func (r *MockLibraryRepository) Toggle(_ context.Context, userID, bookID string, flag models.LibraryFlag, volume models.VolumeInfo, now time.Time) (*models.LibraryRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := libraryKey{userID, bookID}
	rec, ok := r.records[key]
	if ok {
		flag.Set(&rec, !flag.Get(&rec))
		rec.VolumeInfo = volume
		rec.UpdatedAt = now
	} else {
		rec = models.LibraryRecord{
			ID:         uuid.New().String(),
			UserID:     userID,
			BookID:     bookID,
			VolumeInfo: volume,
			AddedAt:    now,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		flag.Set(&rec, true)
	}
	r.records[key] = rec
	return &rec, nil
}

// ListByFlag returns the user's records with flag set, newest first.
func (r *MockLibraryRepository) ListByFlag(_ context.Context, userID string, flag models.LibraryFlag) ([]models.LibraryRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]models.LibraryRecord, 0)
	for key, rec := range r.records {
		if key.userID == userID && flag.Get(&rec) {
			list = append(list, rec)
		}
	}
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].AddedAt.Equal(list[j].AddedAt) {
			return list[i].AddedAt.After(list[j].AddedAt)
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

// DeleteByUser removes all records of a user.
func (r *MockLibraryRepository) DeleteByUser(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for key := range r.records {
		if key.userID == userID {
			delete(r.records, key)
			n++
		}
	}
	return n, nil
}
