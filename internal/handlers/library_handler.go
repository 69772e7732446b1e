package handlers

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"

	"booknest/internal/middleware"
	"booknest/internal/services"
)

// LibraryHandler handles HTTP requests for the user's liked books and nest.
type LibraryHandler struct {
	authService    *services.AuthService
	libraryService *services.LibraryService
	catalogService *services.CatalogService
}

// NewLibraryHandler creates a new LibraryHandler.
func NewLibraryHandler(authService *services.AuthService, libraryService *services.LibraryService, catalogService *services.CatalogService) *LibraryHandler {
	return &LibraryHandler{
		authService:    authService,
		libraryService: libraryService,
		catalogService: catalogService,
	}
}

// RegisterRoutes registers the library routes. All of them require a token.
func (h *LibraryHandler) RegisterRoutes(router fiber.Router) {
	libraryRoutes := router.Group("/library", middleware.AuthRequired(h.authService))
	libraryRoutes.Get("/status/:bookId", h.HandleGetStatus)
	libraryRoutes.Post("/like", h.HandleToggleLike)
	libraryRoutes.Post("/nest", h.HandleToggleNest)
	libraryRoutes.Get("/liked", h.HandleListLiked)
	libraryRoutes.Get("/nest", h.HandleListNest)
	libraryRoutes.Get("/books/:bookId", h.HandleGetBookDetail)
}

// ToggleRequest is the body of the like and nest endpoints. VolumeInfo is
// kept raw; it is normalized before storage.
type ToggleRequest struct {
	BookID     BookID          `json:"bookId"`
	VolumeInfo json.RawMessage `json:"volumeInfo"`
}

// BookID accepts a catalog id sent either as a JSON string or a number.
type BookID string

func (b *BookID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*b = BookID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("bookId must be a string or a number: %w", err)
	}
	*b = BookID(n.String())
	return nil
}

var failed = fiber.Map{"success": false}

// HandleGetStatus returns the caller's flags for one book.
func (h *LibraryHandler) HandleGetStatus(c *fiber.Ctx) error {
	identity, err := middleware.CurrentUser(c)
	if err != nil {
		return writeError(c, err, nil)
	}

	status, err := h.libraryService.GetStatus(c.UserContext(), identity.ID, c.Params("bookId"))
	if err != nil {
		return writeError(c, err, nil)
	}
	return c.JSON(status)
}

// HandleToggleLike flips the liked flag.
func (h *LibraryHandler) HandleToggleLike(c *fiber.Ctx) error {
	identity, err := middleware.CurrentUser(c)
	if err != nil {
		return writeError(c, err, failed)
	}

	var req ToggleRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, invalidBody(err), failed)
	}

	liked, err := h.libraryService.ToggleLike(c.UserContext(), identity.ID, string(req.BookID), req.VolumeInfo)
	if err != nil {
		return writeError(c, err, failed)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Like status updated successfully",
		"isLiked": liked,
	})
}

// HandleToggleNest flips the nest flag.
func (h *LibraryHandler) HandleToggleNest(c *fiber.Ctx) error {
	identity, err := middleware.CurrentUser(c)
	if err != nil {
		return writeError(c, err, failed)
	}

	var req ToggleRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, invalidBody(err), failed)
	}

	inNest, err := h.libraryService.ToggleNest(c.UserContext(), identity.ID, string(req.BookID), req.VolumeInfo)
	if err != nil {
		return writeError(c, err, failed)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Nest status updated successfully",
		"inNest":  inNest,
	})
}

// HandleListLiked returns the liked books, newest first.
func (h *LibraryHandler) HandleListLiked(c *fiber.Ctx) error {
	identity, err := middleware.CurrentUser(c)
	if err != nil {
		return writeError(c, err, nil)
	}

	entries, err := h.libraryService.ListLiked(c.UserContext(), identity.ID)
	if err != nil {
		return writeError(c, err, nil)
	}
	return c.JSON(entries)
}

// HandleListNest returns the nest, newest first.
func (h *LibraryHandler) HandleListNest(c *fiber.Ctx) error {
	identity, err := middleware.CurrentUser(c)
	if err != nil {
		return writeError(c, err, nil)
	}

	entries, err := h.libraryService.ListNest(c.UserContext(), identity.ID)
	if err != nil {
		return writeError(c, err, nil)
	}
	return c.JSON(entries)
}

// HandleGetBookDetail returns the catalog volume with the caller's status.
func (h *LibraryHandler) HandleGetBookDetail(c *fiber.Ctx) error {
	identity, err := middleware.CurrentUser(c)
	if err != nil {
		return writeError(c, err, nil)
	}

	detail, err := h.catalogService.GetBookDetail(c.UserContext(), identity.ID, c.Params("bookId"))
	if err != nil {
		return writeError(c, err, nil)
	}
	return c.JSON(detail)
}
