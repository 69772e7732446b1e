package services_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"booknest/internal/apperr"
	"booknest/internal/logging"
	"booknest/internal/models"
	"booknest/internal/services"
)

const testJWTSecret = "test_jwt_secret"

// TestMain is used to setup test environment
func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	logging.Init(logging.Config{Level: "error", Output: io.Discard})
	code := m.Run()
	os.Exit(code)
}

func notFound() error { return apperr.NotFound("User not found") }

func TestAuthService_RegisterUser(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, 0)

	// Test successful registration
	mockRepo.On("GetByEmail", ctx, "alice@x.com").Return(nil, notFound()).Once()
	mockRepo.On("GetByUsername", ctx, "alice").Return(nil, notFound()).Once()
	mockRepo.On("Create", ctx, mock.MatchedBy(func(u *models.User) bool {
		return u.Username == "alice" && u.Email == "alice@x.com" &&
			bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("Pw1!")) == nil
	})).Return(nil).Once()

	res, err := authService.RegisterUser(ctx, " alice ", " Alice@X.com ", "Pw1!")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "alice@x.com", res.User.Email)
	mockRepo.AssertExpectations(t)

	// Test email already registered
	mockRepo.On("GetByEmail", ctx, "alice@x.com").Return(&models.User{ID: "1"}, nil).Once()
	_, err = authService.RegisterUser(ctx, "alice2", "alice@x.com", "Pw1!")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Contains(t, err.Error(), "User already exists")
	mockRepo.AssertExpectations(t)

	// Test username already taken
	mockRepo.On("GetByEmail", ctx, "new@x.com").Return(nil, notFound()).Once()
	mockRepo.On("GetByUsername", ctx, "alice").Return(&models.User{ID: "1"}, nil).Once()
	_, err = authService.RegisterUser(ctx, "alice", "new@x.com", "Pw1!")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	mockRepo.AssertExpectations(t)

	// Test unique violation from a concurrent registration
	mockRepo.On("GetByEmail", ctx, "race@x.com").Return(nil, notFound()).Once()
	mockRepo.On("GetByUsername", ctx, "racer").Return(nil, notFound()).Once()
	mockRepo.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(apperr.Validation("User already exists")).Once()
	_, err = authService.RegisterUser(ctx, "racer", "race@x.com", "Pw1!")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	mockRepo.AssertExpectations(t)
}

func TestAuthService_RegisterUserMissingFields(t *testing.T) {
	authService := services.NewAuthService(new(MockUserRepository), testJWTSecret, 0)

	for _, in := range [][3]string{{"", "a@x.com", "p"}, {"a", " ", "p"}, {"a", "a@x.com", ""}} {
		_, err := authService.RegisterUser(context.Background(), in[0], in[1], in[2])
		require.Error(t, err)
		msg, _ := apperr.Public(err)
		assert.Equal(t, "Please provide username, email and password", msg)
	}
}

func TestAuthService_LoginUser(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, time.Hour)

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	user := &models.User{
		ID:       "user-123",
		Username: "testuser",
		Email:    "test@example.com",
		Password: string(hashedPassword),
	}

	// Test successful login
	mockRepo.On("GetByEmail", ctx, "test@example.com").Return(user, nil).Once()
	res, err := authService.LoginUser(ctx, "TEST@example.com", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)

	// Validate the token structure
	parsedToken, err := jwt.Parse(res.Token, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	assert.True(t, ok)
	assert.Equal(t, user.ID, claims["userId"])
	assert.Equal(t, user.Username, claims["username"])
	assert.Equal(t, user.Email, claims["email"])
	mockRepo.AssertExpectations(t)

	// Test invalid credentials (wrong password)
	mockRepo.On("GetByEmail", ctx, "test@example.com").Return(user, nil).Once()
	_, err = authService.LoginUser(ctx, "test@example.com", "wrongpassword")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Contains(t, err.Error(), "Invalid credentials")

	// Test invalid credentials (user not found)
	mockRepo.On("GetByEmail", ctx, "nobody@example.com").Return(nil, notFound()).Once()
	_, err = authService.LoginUser(ctx, "nobody@example.com", "password123")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Contains(t, err.Error(), "Invalid credentials")

	// Test repository failure is not reported as bad credentials
	mockRepo.On("GetByEmail", ctx, "down@example.com").Return(nil, errors.New("connection reset")).Once()
	_, err = authService.LoginUser(ctx, "down@example.com", "password123")
	assert.Equal(t, apperr.KindServer, apperr.KindOf(err))
	mockRepo.AssertExpectations(t)
}

func signed(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestAuthService_ValidateToken(t *testing.T) {
	authService := services.NewAuthService(new(MockUserRepository), testJWTSecret, 0)

	// Test valid token
	valid := signed(t, jwt.MapClaims{
		"userId":   "user-123",
		"username": "testuser",
		"email":    "test@example.com",
		"exp":      jwt.TimeFunc().Add(time.Hour).Unix(),
	}, testJWTSecret)
	id, err := authService.ValidateToken(valid)
	require.NoError(t, err)
	assert.Equal(t, &services.Identity{ID: "user-123", Username: "testuser", Email: "test@example.com"}, id)

	tests := []struct {
		name    string
		token   string
		wantMsg string
	}{
		{"garbage", "invalid.token.string", services.MsgInvalidToken},
		{"wrong secret", signed(t, jwt.MapClaims{"userId": "u"}, "other"), services.MsgInvalidToken},
		{"expired", signed(t, jwt.MapClaims{"userId": "u", "exp": jwt.TimeFunc().Add(-time.Hour).Unix()}, testJWTSecret), services.MsgInvalidToken},
		{"missing userId", signed(t, jwt.MapClaims{"username": "u", "exp": jwt.TimeFunc().Add(time.Hour).Unix()}, testJWTSecret), services.MsgMalformedToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := authService.ValidateToken(tt.token)
			require.Error(t, err)
			assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
			msg, _ := apperr.Public(err)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}
