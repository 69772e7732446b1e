package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"booknest/internal/models"
)

// GORMBookRepository is a GORM implementation of BookRepository.
type GORMBookRepository struct {
	db *gorm.DB
}

// NewGORMBookRepository creates a new instance of GORMBookRepository.
func NewGORMBookRepository(db *gorm.DB) *GORMBookRepository {
	return &GORMBookRepository{
		db: db,
	}
}

var bookRefreshColumns = []string{
	"title", "authors", "description", "page_count", "categories",
	"image_thumbnail", "image_small_thumbnail", "published_date",
	"publisher", "average_rating", "updated_at",
}

// Upsert inserts the book or refreshes its catalog columns.
func (r *GORMBookRepository) Upsert(ctx context.Context, book *models.Book) error {
	if book.ID == "" {
		book.ID = uuid.New().String()
	}
	if book.UserRatings == nil {
		book.UserRatings = models.UserRatings{}
	}
	if book.AddedBy == nil {
		book.AddedBy = models.StringList{}
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "google_book_id"}},
		DoUpdates: clause.AssignmentColumns(bookRefreshColumns),
	}).Create(book).Error
	return translate(err, "Book not found", "Book already cached")
}

// GetByGoogleID returns a cached volume.
func (r *GORMBookRepository) GetByGoogleID(ctx context.Context, googleBookID string) (*models.Book, error) {
	var book models.Book
	if err := r.db.WithContext(ctx).First(&book, "google_book_id = ?", googleBookID).Error; err != nil {
		return nil, translate(err, "Book not found", "")
	}
	return &book, nil
}
