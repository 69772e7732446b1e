package repositories

import (
	"context"

	"booknest/internal/models"
)

// UserRepository defines the interface for user data access. Lookups of a
// missing user return an apperr NotFound error; unique violations return an
// apperr Validation error.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}
