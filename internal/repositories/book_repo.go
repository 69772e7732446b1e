package repositories

import (
	"context"

	"booknest/internal/models"
)

// BookRepository defines the interface for the local catalog cache.
type BookRepository interface {
	// Upsert inserts or refreshes a cached volume keyed by GoogleBookID. User
	// ratings and AddedBy are preserved on refresh.
	Upsert(ctx context.Context, book *models.Book) error
	GetByGoogleID(ctx context.Context, googleBookID string) (*models.Book, error)
}
