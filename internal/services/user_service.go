package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"booknest/internal/apperr"
	"booknest/internal/logging"
	"booknest/internal/models"
	"booknest/internal/repositories"
)

// ProfileUpdate carries the optional fields of a profile edit. A nil field is
// left unchanged.
type ProfileUpdate struct {
	Username       *string
	Bio            *string
	ProfilePicture *string
}

// UserService manages profile, settings, password and account lifecycle.
type UserService struct {
	userRepo  repositories.UserRepository
	publisher Publisher
}

// NewUserService creates a new UserService. publisher may be nil.
func NewUserService(userRepo repositories.UserRepository, publisher Publisher) *UserService {
	return &UserService{
		userRepo:  userRepo,
		publisher: publisher,
	}
}

// GetProfile returns the caller's account.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// UpdateProfile applies a partial profile update.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if upd.Username != nil {
		if username := strings.TrimSpace(*upd.Username); username != "" && username != user.Username {
			existing, err := s.userRepo.GetByUsername(ctx, username)
			switch {
			case err == nil && existing != nil && existing.ID != user.ID:
				return nil, apperr.Validation("Username is already taken")
			case err != nil && !apperr.Is(err, apperr.KindNotFound):
				return nil, fmt.Errorf("failed to check username: %w", err)
			}
			user.Username = username
		}
	}
	if upd.Bio != nil {
		user.Bio = *upd.Bio
	}
	if upd.ProfilePicture != nil {
		user.ProfilePicture = *upd.ProfilePicture
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetSettings returns the caller's settings map.
func (s *UserService) GetSettings(ctx context.Context, userID string) (models.Settings, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Settings == nil {
		return models.Settings{}, nil
	}
	return user.Settings, nil
}

// UpdateSettings shallow-merges patch into the stored settings.
func (s *UserService) UpdateSettings(ctx context.Context, userID string, patch map[string]interface{}) (models.Settings, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Settings = user.Settings.Merge(patch)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user.Settings, nil
}

// ChangePassword replaces the password after checking the current one.
func (s *UserService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return apperr.Validation("Please provide current and new password")
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(currentPassword)); err != nil {
		return apperr.Validation("Current password is incorrect")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperr.Server("Server error", fmt.Errorf("failed to hash password: %w", err))
	}
	user.Password = string(hashed)
	return s.userRepo.Update(ctx, user)
}

// DeleteAccount removes the user. Library records are not deleted here; the
// user.deleted event lets a consumer purge them.
func (s *UserService) DeleteAccount(ctx context.Context, userID string) error {
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return err
	}
	logging.Info().Str("user_id", userID).Msg("account deleted")
	publish(s.publisher, EventUserDeleted, UserDeletedEvent{UserID: userID, At: time.Now().UTC()})
	return nil
}
