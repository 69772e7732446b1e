package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"booknest/internal/apperr"
	"booknest/internal/models"
)

// MockBookRepository is an in-memory implementation of BookRepository.
type MockBookRepository struct {
	books map[string]models.Book
	mu    sync.RWMutex
}

// NewMockBookRepository creates a new instance of MockBookRepository.
func NewMockBookRepository() *MockBookRepository {
	return &MockBookRepository{
		books: make(map[string]models.Book),
	}
}

// Upsert stores the book keyed by its catalog ID.
func (r *MockBookRepository) Upsert(_ context.Context, book *models.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if existing, ok := r.books[book.GoogleBookID]; ok {
		book.ID = existing.ID
		book.UserRatings = existing.UserRatings
		book.AddedBy = existing.AddedBy
		book.CreatedAt = existing.CreatedAt
	} else {
		if book.ID == "" {
			book.ID = uuid.New().String()
		}
		book.CreatedAt = now
	}
	book.UpdatedAt = now
	r.books[book.GoogleBookID] = *book
	return nil
}

// GetByGoogleID returns a cached volume.
func (r *MockBookRepository) GetByGoogleID(_ context.Context, googleBookID string) (*models.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	book, ok := r.books[googleBookID]
	if !ok {
		return nil, apperr.NotFound("Book not found")
	}
	return &book, nil
}
