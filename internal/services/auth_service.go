package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"

	"booknest/internal/apperr"
	"booknest/internal/logging"
	"booknest/internal/models"
	"booknest/internal/repositories"
)

// Messages surfaced by the token authenticator.
const (
	MsgNoToken        = "No token, authorization denied"
	MsgInvalidToken   = "Token is not valid"
	MsgMalformedToken = "Invalid token format"
)

// Identity is the authenticated caller attached to a request.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// AuthResult is returned by register and login.
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"-"`
}

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	userRepo  repositories.UserRepository
	jwtSecret []byte
	tokenTTL  time.Duration
}

// NewAuthService creates a new AuthService. tokenTTL of zero means 24 hours.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		userRepo:  userRepo,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
	}
}

// NormalizeEmail trims and lowercases an address the way it is stored.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RegisterUser creates an account and returns a token for it. Any existing
// user with the same username or email makes registration fail with a
// Validation error, including one created concurrently.
func (s *AuthService) RegisterUser(ctx context.Context, username, email, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	email = NormalizeEmail(email)
	if username == "" || email == "" || password == "" {
		return nil, apperr.Validation("Please provide username, email and password")
	}

	if err := s.ensureAvailable(ctx, username, email); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Server("Server error", fmt.Errorf("failed to hash password: %w", err))
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Password: string(hashedPassword),
		Settings: models.Settings{},
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if apperr.Is(err, apperr.KindValidation) {
			return nil, apperr.Validation("User already exists")
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	logging.Info().Str("user_id", user.ID).Msg("user registered")
	return &AuthResult{Token: token, User: user}, nil
}

func (s *AuthService) ensureAvailable(ctx context.Context, username, email string) error {
	for _, lookup := range []func() (*models.User, error){
		func() (*models.User, error) { return s.userRepo.GetByEmail(ctx, email) },
		func() (*models.User, error) { return s.userRepo.GetByUsername(ctx, username) },
	} {
		existing, err := lookup()
		switch {
		case err == nil && existing != nil:
			return apperr.Validation("User already exists")
		case err != nil && !apperr.Is(err, apperr.KindNotFound):
			return fmt.Errorf("failed to check existing user: %w", err)
		}
	}
	return nil
}

// LoginUser authenticates by email and password.
func (s *AuthService) LoginUser(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.Validation("Invalid credentials")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, apperr.Validation("Invalid credentials")
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

func (s *AuthService) issueToken(user *models.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId":   user.ID,
		"username": user.Username,
		"email":    user.Email,
		"iat":      now.Unix(),
		"exp":      now.Add(s.tokenTTL).Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", apperr.Server("Server error", fmt.Errorf("failed to generate token: %w", err))
	}
	return tokenString, nil
}

// ValidateToken verifies a token and returns the identity it carries.
func (s *AuthService) ValidateToken(tokenString string) (*Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		var verr *jwt.ValidationError
		if errors.As(err, &verr) && verr.Errors&jwt.ValidationErrorExpired != 0 {
			logging.Debug().Msg("expired token presented")
		}
		e := apperr.Unauthenticated(MsgInvalidToken)
		e.Err = err
		return nil, e
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, apperr.Unauthenticated(MsgInvalidToken)
	}

	userID, _ := claims["userId"].(string)
	if userID == "" {
		return nil, apperr.Unauthenticated(MsgMalformedToken)
	}
	username, _ := claims["username"].(string)
	email, _ := claims["email"].(string)
	return &Identity{ID: userID, Username: username, Email: email}, nil
}
