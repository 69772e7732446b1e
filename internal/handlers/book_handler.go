package handlers

import (
	"github.com/gofiber/fiber/v2"

	"booknest/internal/services"
)

// BookHandler handles HTTP requests for catalog lookups.
type BookHandler struct {
	catalogService *services.CatalogService
}

// NewBookHandler creates a new BookHandler.
func NewBookHandler(catalogService *services.CatalogService) *BookHandler {
	return &BookHandler{catalogService: catalogService}
}

// RegisterRoutes registers the book routes. Extra handlers (rate limiting)
// run before every book route.
func (h *BookHandler) RegisterRoutes(router fiber.Router, extra ...fiber.Handler) {
	bookRoutes := router.Group("/books", extra...)
	bookRoutes.Get("/search", h.HandleSearch)
	bookRoutes.Get("/:id", h.HandleGetBook)
}

// HandleSearch forwards ?query=&maxResults= to the catalog.
func (h *BookHandler) HandleSearch(c *fiber.Ctx) error {
	books, err := h.catalogService.Search(c.UserContext(), c.Query("query"), c.QueryInt("maxResults", 0))
	if err != nil {
		return writeError(c, err, nil)
	}
	return c.JSON(books)
}

// HandleGetBook returns one catalog volume.
func (h *BookHandler) HandleGetBook(c *fiber.Ctx) error {
	book, err := h.catalogService.GetBook(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err, nil)
	}
	return c.JSON(book)
}
