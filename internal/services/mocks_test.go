package services_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"booknest/internal/models"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil && user.ID == "" {
		user.ID = "generated-id"
	}
	return args.Error(0)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockLibraryRepository is a mock implementation of repositories.LibraryRepository
type MockLibraryRepository struct {
	mock.Mock
}

func (m *MockLibraryRepository) Get(ctx context.Context, userID, bookID string) (*models.LibraryRecord, error) {
	args := m.Called(ctx, userID, bookID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LibraryRecord), args.Error(1)
}

func (m *MockLibraryRepository) Toggle(ctx context.Context, userID, bookID string, flag models.LibraryFlag, volume models.VolumeInfo, now time.Time) (*models.LibraryRecord, error) {
	args := m.Called(ctx, userID, bookID, flag, volume, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LibraryRecord), args.Error(1)
}

func (m *MockLibraryRepository) ListByFlag(ctx context.Context, userID string, flag models.LibraryFlag) ([]models.LibraryRecord, error) {
	args := m.Called(ctx, userID, flag)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.LibraryRecord), args.Error(1)
}

func (m *MockLibraryRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// MockPublisher records published events.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(routingKey string, body []byte) error {
	args := m.Called(routingKey, body)
	return args.Error(0)
}

// MockGateway is a mock implementation of catalog.Gateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Search(ctx context.Context, query string, maxResults int) ([]models.BookSummary, error) {
	args := m.Called(ctx, query, maxResults)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.BookSummary), args.Error(1)
}

func (m *MockGateway) GetByID(ctx context.Context, id string) (*models.BookSummary, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BookSummary), args.Error(1)
}
