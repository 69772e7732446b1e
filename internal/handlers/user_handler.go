package handlers

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"booknest/internal/middleware"
	"booknest/internal/models"
	"booknest/internal/services"
)

// UserHandler handles HTTP requests for accounts, profiles and settings.
type UserHandler struct {
	authService *services.AuthService
	userService *services.UserService
	validate    *validator.Validate
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(authService *services.AuthService, userService *services.UserService) *UserHandler {
	return &UserHandler{
		authService: authService,
		userService: userService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the user routes with the Fiber app.
func (h *UserHandler) RegisterRoutes(router fiber.Router) {
	userRoutes := router.Group("/users")
	userRoutes.Post("/register", h.HandleRegister)
	userRoutes.Post("/login", h.HandleLogin)

	auth := middleware.AuthRequired(h.authService)
	userRoutes.Get("/profile", auth, h.HandleGetProfile)
	userRoutes.Put("/profile", auth, h.HandleUpdateProfile)
	userRoutes.Get("/settings", auth, h.HandleGetSettings)
	userRoutes.Put("/settings", auth, h.HandleUpdateSettings)
	userRoutes.Put("/change-password", auth, h.HandleChangePassword)
	userRoutes.Delete("/delete-account", auth, h.HandleDeleteAccount)
}

// RegisterRequest represents the request body for registration.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfileRequest represents the request body for a profile update.
type ProfileRequest struct {
	Username       *string `json:"username" validate:"omitempty,max=100"`
	Bio            *string `json:"bio" validate:"omitempty,max=1000"`
	ProfilePicture *string `json:"profilePicture" validate:"omitempty,datauri"`
}

// ChangePasswordRequest represents the request body for a password change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

// userView and profileView leave settings out only when the pointer is nil;
// an empty map is still written as {}.
type userView struct {
	ID       string           `json:"id"`
	Username string           `json:"username"`
	Email    string           `json:"email"`
	Settings *models.Settings `json:"settings,omitempty"`
}

type profileView struct {
	ID             string           `json:"id"`
	Username       string           `json:"username"`
	Email          string           `json:"email"`
	Bio            string           `json:"bio"`
	ProfilePicture string           `json:"profilePicture"`
	Settings       *models.Settings `json:"settings,omitempty"`
	CreatedAt      *time.Time       `json:"createdAt,omitempty"`
}

// HandleRegister handles new user registration.
func (h *UserHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, invalidBody(err), nil)
	}

	res, err := h.authService.RegisterUser(c.UserContext(), req.Username, req.Email, req.Password)
	if err != nil {
		return writeError(c, err, nil)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token": res.Token,
		"user": userView{
			ID:       res.User.ID,
			Username: res.User.Username,
			Email:    res.User.Email,
		},
	})
}

// HandleLogin handles user login and issues a JWT token.
func (h *UserHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, invalidBody(err), nil)
	}

	res, err := h.authService.LoginUser(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return writeError(c, err, nil)
	}

	return c.JSON(fiber.Map{
		"token": res.Token,
		"user": userView{
			ID:       res.User.ID,
			Username: res.User.Username,
			Email:    res.User.Email,
			Settings: settingsOf(res.User),
		},
	})
}

// HandleGetProfile returns the caller's profile.
func (h *UserHandler) HandleGetProfile(c *fiber.Ctx) error {
	identity, err := middleware.CurrentUser(c)
	if err != nil {
		return writeError(c, err, nil)
	}

	user, err := h.userService.GetProfile(c.UserContext(), identity.ID)
	if err != nil {
		return writeError(c, err, nil)
	}

	createdAt := user.CreatedAt
	return c.JSON(profileView{
		ID:             user.ID,
		Username:       user.Username,
		Email:          user.Email,
		Bio:            user.Bio,
		ProfilePicture: user.ProfilePicture,
		Settings:       settingsOf(user),
		CreatedAt:      &createdAt,
	})
}

// HandleUpdateProfile applies a partial profile update.
func (h *UserHandler) HandleUpdateProfile(c *fiber.Ctx) error {
	identity, err := middleware.CurrentUser(c)
	if err != nil {
		return writeError(c, err, nil)
	}

	var req ProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, invalidBody(err), nil)
	}
	if err := h.validate.Struct(req); err != nil {
		return writeError(c, validationFailed(err), nil)
	}

	user, err := h.userService.UpdateProfile(c.UserContext(), identity.ID, services.ProfileUpdate{
		Username:       req.Username,
		Bio:            req.Bio,
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		return writeError(c, err, nil)
	}

	return c.JSON(profileView{
		ID:             user.ID,
		Username:       user.Username,
		Email:          user.Email,
		Bio:            user.Bio,
		ProfilePicture: user.ProfilePicture,
	})
}

// HandleGetSettings returns the caller's settings map.
func (h *UserHandler) HandleGetSettings(c *fiber.Ctx) error {
	identity, err := middleware.CurrentUser(c)
	if err != nil {
		return writeError(c, err, nil)
	}

	settings, err := h.userService.GetSettings(c.UserContext(), identity.ID)
	if err != nil {
		return writeError(c, err, nil)
	}
	return c.JSON(settings)
}

// HandleUpdateSettings shallow-merges the body into the caller's settings.
func (h *UserHandler) HandleUpdateSettings(c *fiber.Ctx) error {
	identity, err := middleware.CurrentUser(c)
	if err != nil {
		return writeError(c, err, nil)
	}

	var patch map[string]interface{}
	if err := c.BodyParser(&patch); err != nil {
		return writeError(c, invalidBody(err), nil)
	}

	settings, err := h.userService.UpdateSettings(c.UserContext(), identity.ID, patch)
	if err != nil {
		return writeError(c, err, nil)
	}
	return c.JSON(settings)
}

// HandleChangePassword replaces the caller's password.
func (h *UserHandler) HandleChangePassword(c *fiber.Ctx) error {
	identity, err := middleware.CurrentUser(c)
	if err != nil {
		return writeError(c, err, nil)
	}

	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, invalidBody(err), nil)
	}
	if err := h.validate.Struct(req); err != nil {
		return writeError(c, validationFailed(err), nil)
	}

	if err := h.userService.ChangePassword(c.UserContext(), identity.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return writeError(c, err, nil)
	}
	return c.JSON(fiber.Map{"message": "Password updated successfully"})
}

// HandleDeleteAccount removes the caller's account.
func (h *UserHandler) HandleDeleteAccount(c *fiber.Ctx) error {
	identity, err := middleware.CurrentUser(c)
	if err != nil {
		return writeError(c, err, nil)
	}

	if err := h.userService.DeleteAccount(c.UserContext(), identity.ID); err != nil {
		return writeError(c, err, nil)
	}
	return c.JSON(fiber.Map{"message": "Account deleted successfully"})
}

func settingsOf(user *models.User) *models.Settings {
	settings := user.Settings
	if settings == nil {
		settings = models.Settings{}
	}
	return &settings
}
