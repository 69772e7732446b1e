package repositories

import (
	"context"
	"time"

	"booknest/internal/models"
)

// LibraryRepository defines the interface for library record access.
type LibraryRepository interface {
	// Get returns the record for (userID, bookID) or an apperr NotFound error.
	Get(ctx context.Context, userID, bookID string) (*models.LibraryRecord, error)
	// Toggle inverts flag on the (userID, bookID) record and replaces its
	// volume snapshot. When no record exists one is created with flag set
	// and AddedAt = now. A concurrent create of the same pair fails with an
	// apperr Validation error.
	Toggle(ctx context.Context, userID, bookID string, flag models.LibraryFlag, volume models.VolumeInfo, now time.Time) (*models.LibraryRecord, error)
	// ListByFlag returns the user's records with flag set, newest AddedAt first.
	ListByFlag(ctx context.Context, userID string, flag models.LibraryFlag) ([]models.LibraryRecord, error)
	// DeleteByUser removes all records of a user and returns how many went.
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

const duplicateRecordDetail = "book is already in the library"
