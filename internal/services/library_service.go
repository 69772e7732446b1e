package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"booknest/internal/apperr"
	"booknest/internal/logging"
	"booknest/internal/metrics"
	"booknest/internal/models"
	"booknest/internal/repositories"
	"booknest/internal/sanitize"
)

// LibraryService implements like/nest bookkeeping.
type LibraryService struct {
	repo      repositories.LibraryRepository
	publisher Publisher
	now       func() time.Time
}

// NewLibraryService creates a new LibraryService. publisher may be nil.
func NewLibraryService(repo repositories.LibraryRepository, publisher Publisher) *LibraryService {
	return &LibraryService{
		repo:      repo,
		publisher: publisher,
		now:       time.Now,
	}
}

// WithClock replaces the time source used for AddedAt.
func (s *LibraryService) WithClock(now func() time.Time) *LibraryService {
	s.now = now
	return s
}

// GetStatus returns the flags of (userID, bookID). A missing record is not an
// error: both flags are false and AddedAt is nil.
func (s *LibraryService) GetStatus(ctx context.Context, userID, bookID string) (*models.LibraryStatus, error) {
	rec, err := s.repo.Get(ctx, userID, bookID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return &models.LibraryStatus{BookID: bookID, UserID: userID}, nil
		}
		return nil, err
	}
	addedAt := rec.AddedAt
	return &models.LibraryStatus{
		BookID:  rec.BookID,
		UserID:  rec.UserID,
		IsLiked: rec.IsLiked,
		InNest:  rec.InNest,
		AddedAt: &addedAt,
	}, nil
}

// ToggleLike flips isLiked and returns the new value.
func (s *LibraryService) ToggleLike(ctx context.Context, userID, bookID string, rawVolume []byte) (bool, error) {
	return s.toggle(ctx, userID, bookID, models.FlagLiked, rawVolume)
}

// ToggleNest flips inNest and returns the new value.
func (s *LibraryService) ToggleNest(ctx context.Context, userID, bookID string, rawVolume []byte) (bool, error) {
	return s.toggle(ctx, userID, bookID, models.FlagNest, rawVolume)
}

func (s *LibraryService) toggle(ctx context.Context, userID, bookID string, flag models.LibraryFlag, rawVolume []byte) (bool, error) {
	bookID = strings.TrimSpace(bookID)
	if bookID == "" {
		return false, apperr.Validation("Library validation failed", "bookId is required")
	}

	res := sanitize.Volume(rawVolume)
	if res.Shape != sanitize.WellFormed {
		logging.Debug().
			Str("book_id", bookID).
			Str("shape", res.Shape.String()).
			Strs("issues", res.Issues).
			Msg("volumeInfo normalized")
	}

	now := s.now().UTC()
	rec, err := s.repo.Toggle(ctx, userID, bookID, flag, res.Volume, now)
	if err != nil {
		return false, err
	}

	value := flag.Get(rec)
	metrics.RecordToggle(string(flag), value)
	publish(s.publisher, EventLibraryToggled, LibraryToggledEvent{
		UserID: userID,
		BookID: bookID,
		Field:  string(flag),
		Value:  value,
		At:     now,
	})
	return value, nil
}

// ListLiked returns the user's liked books, most recently added first.
func (s *LibraryService) ListLiked(ctx context.Context, userID string) ([]models.LibraryEntry, error) {
	return s.list(ctx, userID, models.FlagLiked)
}

// ListNest returns the user's nest, most recently added first.
func (s *LibraryService) ListNest(ctx context.Context, userID string) ([]models.LibraryEntry, error) {
	return s.list(ctx, userID, models.FlagNest)
}

func (s *LibraryService) list(ctx context.Context, userID string, flag models.LibraryFlag) ([]models.LibraryEntry, error) {
	records, err := s.repo.ListByFlag(ctx, userID, flag)
	if err != nil {
		return nil, err
	}
	entries := make([]models.LibraryEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, models.LibraryEntry{ID: r.BookID, VolumeInfo: r.VolumeInfo})
	}
	return entries, nil
}

// PurgeUser deletes every record of a removed account.
func (s *LibraryService) PurgeUser(ctx context.Context, userID string) (int64, error) {
	return s.repo.DeleteByUser(ctx, userID)
}

// HandleUserDeleted consumes a user.deleted event body and purges that user's
// records.
func (s *LibraryService) HandleUserDeleted(ctx context.Context, body []byte) error {
	var event UserDeletedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("failed to decode %s event: %w", EventUserDeleted, err)
	}
	if event.UserID == "" {
		return fmt.Errorf("%s event without userId", EventUserDeleted)
	}
	n, err := s.PurgeUser(ctx, event.UserID)
	if err != nil {
		return err
	}
	logging.Info().Str("user_id", event.UserID).Int64("records", n).Msg("library purged for deleted user")
	return nil
}
