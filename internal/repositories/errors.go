package repositories

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"booknest/internal/apperr"
)

// translate classifies a GORM error. notFound is the message used when no row
// matched; duplicate is used for unique-key violations.
func translate(err error, notFound, duplicate string, details ...string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFound(notFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		e := apperr.Validation(duplicate, details...)
		e.Err = err
		return e
	default:
		return apperr.Server("Server error", fmt.Errorf("database: %w", err))
	}
}
