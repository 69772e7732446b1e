package repositories_test

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"booknest/internal/config"
	"booknest/internal/repositories"
)

// newTestDB opens a private in-memory SQLite database for one test.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := repositories.Open(config.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repositories.Close(db) })
	return db
}
