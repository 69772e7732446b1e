package repositories_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booknest/internal/apperr"
	"booknest/internal/models"
	"booknest/internal/repositories"
)

func userRepos(t *testing.T) map[string]repositories.UserRepository {
	return map[string]repositories.UserRepository{
		"gorm":   repositories.NewGORMUserRepository(newTestDB(t)),
		"memory": repositories.NewMockUserRepository(),
	}
}

func TestUserRepository_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	for name, repo := range userRepos(t) {
		t.Run(name, func(t *testing.T) {
			u := &models.User{Username: "alice", Email: "alice@x.com", Password: "hash"}
			require.NoError(t, repo.Create(ctx, u))
			assert.NotEmpty(t, u.ID)

			byEmail, err := repo.GetByEmail(ctx, "alice@x.com")
			require.NoError(t, err)
			assert.Equal(t, u.ID, byEmail.ID)
			assert.NotNil(t, byEmail.Settings)

			byName, err := repo.GetByUsername(ctx, "alice")
			require.NoError(t, err)
			assert.Equal(t, u.ID, byName.ID)

			_, err = repo.GetByID(ctx, "nope")
			assert.True(t, apperr.Is(err, apperr.KindNotFound))
		})
	}
}

func TestUserRepository_UniqueConstraints(t *testing.T) {
	ctx := context.Background()
	for name, repo := range userRepos(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, repo.Create(ctx, &models.User{Username: "alice", Email: "alice@x.com", Password: "h"}))

			err := repo.Create(ctx, &models.User{Username: "alice", Email: "other@x.com", Password: "h"})
			assert.True(t, apperr.Is(err, apperr.KindValidation))

			err = repo.Create(ctx, &models.User{Username: "bob", Email: "alice@x.com", Password: "h"})
			assert.True(t, apperr.Is(err, apperr.KindValidation))
		})
	}
}

func TestUserRepository_UpdateSettingsAndDelete(t *testing.T) {
	ctx := context.Background()
	for name, repo := range userRepos(t) {
		t.Run(name, func(t *testing.T) {
			u := &models.User{Username: "alice", Email: "alice@x.com", Password: "h"}
			require.NoError(t, repo.Create(ctx, u))

			u.Bio = "reader"
			u.Settings = models.Settings{"theme": "dark"}
			require.NoError(t, repo.Update(ctx, u))

			got, err := repo.GetByID(ctx, u.ID)
			require.NoError(t, err)
			assert.Equal(t, "reader", got.Bio)
			assert.Equal(t, "dark", got.Settings["theme"])

			require.NoError(t, repo.Delete(ctx, u.ID))
			err = repo.Delete(ctx, u.ID)
			assert.True(t, apperr.Is(err, apperr.KindNotFound))
			err = repo.Update(ctx, u)
			assert.True(t, apperr.Is(err, apperr.KindNotFound))
		})
	}
}

func TestBookRepository_UpsertKeepsRatings(t *testing.T) {
	ctx := context.Background()
	repos := map[string]repositories.BookRepository{
		"gorm":   repositories.NewGORMBookRepository(newTestDB(t)),
		"memory": repositories.NewMockBookRepository(),
	}
	for name, repo := range repos {
		t.Run(name, func(t *testing.T) {
			first := &models.Book{GoogleBookID: "g1", Title: "Old", UserRatings: models.UserRatings{{UserID: "u1", Rating: 5}}}
			require.NoError(t, repo.Upsert(ctx, first))

			refresh := &models.Book{GoogleBookID: "g1", Title: "New", Authors: models.StringList{"A"}}
			require.NoError(t, repo.Upsert(ctx, refresh))

			got, err := repo.GetByGoogleID(ctx, "g1")
			require.NoError(t, err)
			assert.Equal(t, "New", got.Title)
			assert.Equal(t, []string{"A"}, []string(got.Authors))
			require.Len(t, got.UserRatings, 1)
			assert.Equal(t, 5, got.UserRatings[0].Rating)

			_, err = repo.GetByGoogleID(ctx, "missing")
			assert.True(t, apperr.Is(err, apperr.KindNotFound))
		})
	}
}
