package services

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"booknest/internal/apperr"
	"booknest/internal/catalog"
	"booknest/internal/logging"
	"booknest/internal/models"
	"booknest/internal/repositories"
)

// BookDetail is a catalog volume together with the caller's library status.
type BookDetail struct {
	Book   *models.BookSummary   `json:"book"`
	Status *models.LibraryStatus `json:"status"`
}

// CatalogService fronts the catalog gateway and keeps the local book cache.
type CatalogService struct {
	gateway catalog.Gateway
	books   repositories.BookRepository
	library *LibraryService
}

// NewCatalogService creates a new CatalogService. books may be nil to disable
// the cache.
func NewCatalogService(gateway catalog.Gateway, books repositories.BookRepository, library *LibraryService) *CatalogService {
	return &CatalogService{
		gateway: gateway,
		books:   books,
		library: library,
	}
}

// Search forwards a query to the catalog.
func (s *CatalogService) Search(ctx context.Context, query string, maxResults int) ([]models.BookSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.Validation("Search query is required")
	}
	return s.gateway.Search(ctx, query, catalog.ClampMaxResults(maxResults))
}

// GetBook fetches one volume and writes it through to the cache. When the
// catalog is unreachable a previously cached copy is served instead.
func (s *CatalogService) GetBook(ctx context.Context, id string) (*models.BookSummary, error) {
	book, err := s.gateway.GetByID(ctx, id)
	if err != nil {
		if cached := s.cached(ctx, id, err); cached != nil {
			return cached, nil
		}
		return nil, err
	}
	s.cache(ctx, book)
	return book, nil
}

func (s *CatalogService) cached(ctx context.Context, id string, upstreamErr error) *models.BookSummary {
	if s.books == nil || id == "" || !apperr.Is(upstreamErr, apperr.KindUpstream) {
		return nil
	}
	row, err := s.books.GetByGoogleID(ctx, id)
	if err != nil {
		if !apperr.Is(err, apperr.KindNotFound) {
			logging.Warn().Err(err).Str("book_id", id).Msg("failed to read book cache")
		}
		return nil
	}
	logging.Warn().Err(upstreamErr).Str("book_id", id).Msg("catalog unavailable; serving cached book")
	summary := row.Summary()
	return &summary
}

func (s *CatalogService) cache(ctx context.Context, book *models.BookSummary) {
	if s.books == nil || book == nil || book.ID == "" {
		return
	}
	row := models.BookFromSummary(*book)
	if err := s.books.Upsert(ctx, &row); err != nil {
		logging.Warn().Err(err).Str("book_id", book.ID).Msg("failed to cache book")
	}
}

// GetBookDetail fetches the volume and the caller's status for it
// concurrently. Either failure fails the whole call.
func (s *CatalogService) GetBookDetail(ctx context.Context, userID, bookID string) (*BookDetail, error) {
	var detail BookDetail
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		book, err := s.GetBook(gctx, bookID)
		detail.Book = book
		return err
	})
	g.Go(func() error {
		status, err := s.library.GetStatus(gctx, userID, bookID)
		detail.Status = status
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &detail, nil
}
