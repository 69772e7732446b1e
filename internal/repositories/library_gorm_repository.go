package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"booknest/internal/apperr"
	"booknest/internal/models"
)

// GORMLibraryRepository is a GORM implementation of LibraryRepository.
type GORMLibraryRepository struct {
	db *gorm.DB
}

// NewGORMLibraryRepository creates a new instance of GORMLibraryRepository.
func NewGORMLibraryRepository(db *gorm.DB) *GORMLibraryRepository {
	return &GORMLibraryRepository{
		db: db,
	}
}

// Get retrieves a single record by its (user, book) pair.
func (r *GORMLibraryRepository) Get(ctx context.Context, userID, bookID string) (*models.LibraryRecord, error) {
	var rec models.LibraryRecord
	err := r.db.WithContext(ctx).First(&rec, "user_id = ? AND book_id = ?", userID, bookID).Error
	if err != nil {
		return nil, translate(err, "Library record not found", "")
	}
	return &rec, nil
}

// Toggle flips the flag with a single conditional UPDATE so two callers never
// read-modify-write the same row; the insert path relies on the unique
// (user_id, book_id) index.
func (r *GORMLibraryRepository) Toggle(ctx context.Context, userID, bookID string, flag models.LibraryFlag, volume models.VolumeInfo, now time.Time) (*models.LibraryRecord, error) {
	var rec models.LibraryRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		col := flag.Column()
		res := tx.Model(&models.LibraryRecord{}).
			Where("user_id = ? AND book_id = ?", userID, bookID).
			Updates(map[string]interface{}{
				col:           gorm.Expr("NOT " + col),
				"volume_info": volume,
				"updated_at":  now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return tx.First(&rec, "user_id = ? AND book_id = ?", userID, bookID).Error
		}

		rec = models.LibraryRecord{
			ID:         uuid.New().String(),
			UserID:     userID,
			BookID:     bookID,
			VolumeInfo: volume,
			AddedAt:    now,
		}
		flag.Set(&rec, true)
		return tx.Create(&rec).Error
	})
	if err != nil {
		return nil, translate(err, "Library record not found", "Library validation failed", duplicateRecordDetail)
	}
	return &rec, nil
}

// ListByFlag retrieves the user's records with flag set.
func (r *GORMLibraryRepository) ListByFlag(ctx context.Context, userID string, flag models.LibraryFlag) ([]models.LibraryRecord, error) {
	var records []models.LibraryRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where(flag.Column()+" = ?", true).
		Order("added_at DESC").
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, apperr.Server("Server error", fmt.Errorf("failed to list %s records: %w", flag, err))
	}
	return records, nil
}

// DeleteByUser deletes every record owned by userID.
func (r *GORMLibraryRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.LibraryRecord{}, "user_id = ?", userID)
	if res.Error != nil {
		return 0, apperr.Server("Server error", fmt.Errorf("failed to delete library of user %s: %w", userID, res.Error))
	}
	return res.RowsAffected, nil
}
