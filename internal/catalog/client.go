// Package catalog is the gateway to the external book catalog (the Google
// Books volumes API). Every failure is reported as a single upstream error;
// callers cannot tell a missing volume from an unreachable catalog.
package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	gobreaker "github.com/sony/gobreaker/v2"

	"booknest/internal/apperr"
	"booknest/internal/logging"
	"booknest/internal/metrics"
	"booknest/internal/models"
)

const (
	DefaultMaxResults = 10
	MaxMaxResults     = 40

	searchFailed = "Failed to search books"
	fetchFailed  = "Failed to fetch book details"
)

// Gateway is the catalog contract used by the services.
type Gateway interface {
	Search(ctx context.Context, query string, maxResults int) ([]models.BookSummary, error)
	GetByID(ctx context.Context, id string) (*models.BookSummary, error)
}

// Config holds catalog connection details.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type response struct {
	code int
	body []byte
}

// Client talks to the Google Books volumes API through a circuit breaker.
type Client struct {
	cfg     Config
	breaker *gobreaker.CircuitBreaker[response]
}

// NewClient creates a catalog client.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	name := "catalog"
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CatalogBreakerState.WithLabelValues(name).Set(float64(to))
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("catalog circuit breaker state changed")
		},
	}
	metrics.CatalogBreakerState.WithLabelValues(name).Set(0)
	return &Client{
		cfg:     cfg,
		breaker: gobreaker.NewCircuitBreaker[response](settings),
	}
}

type volume struct {
	ID         string     `json:"id"`
	VolumeInfo volumeInfo `json:"volumeInfo"`
}

type volumeInfo struct {
	Title         string             `json:"title"`
	Authors       []string           `json:"authors"`
	Description   string             `json:"description"`
	PageCount     *int               `json:"pageCount"`
	Categories    []string           `json:"categories"`
	ImageLinks    *models.ImageLinks `json:"imageLinks"`
	PublishedDate string             `json:"publishedDate"`
	Publisher     string             `json:"publisher"`
	AverageRating *float64           `json:"averageRating"`
}

type searchResponse struct {
	TotalItems int      `json:"totalItems"`
	Items      []volume `json:"items"`
}

// ClampMaxResults applies the default and the API's upper bound.
func ClampMaxResults(n int) int {
	switch {
	case n <= 0:
		return DefaultMaxResults
	case n > MaxMaxResults:
		return MaxMaxResults
	default:
		return n
	}
}

// Search runs a free-text volume search.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]models.BookSummary, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(ClampMaxResults(maxResults)))

	body, err := c.get(ctx, "search", c.cfg.BaseURL, params)
	if err != nil {
		return nil, apperr.Upstream(searchFailed, err)
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		metrics.CatalogRequests.WithLabelValues("search", "decode_error").Inc()
		return nil, apperr.Upstream(searchFailed, fmt.Errorf("decode search response: %w", err))
	}

	books := make([]models.BookSummary, 0, len(sr.Items))
	for _, item := range sr.Items {
		books = append(books, toSummary(item))
	}
	return books, nil
}

// GetByID fetches one volume.
func (c *Client) GetByID(ctx context.Context, id string) (*models.BookSummary, error) {
	if id == "" {
		return nil, apperr.Upstream(fetchFailed, fmt.Errorf("empty volume id"))
	}
	body, err := c.get(ctx, "get", c.cfg.BaseURL+"/"+url.PathEscape(id), url.Values{})
	if err != nil {
		return nil, apperr.Upstream(fetchFailed, err)
	}

	var v volume
	if err := json.Unmarshal(body, &v); err != nil {
		metrics.CatalogRequests.WithLabelValues("get", "decode_error").Inc()
		return nil, apperr.Upstream(fetchFailed, fmt.Errorf("decode volume %s: %w", id, err))
	}
	summary := toSummary(v)
	return &summary, nil
}

// get performs one GET through the breaker. Only transport errors and 5xx
// responses count against the breaker; other non-2xx statuses are still
// returned as errors.
func (c *Client) get(ctx context.Context, op, rawURL string, params url.Values) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.cfg.APIKey != "" {
		params.Set("key", c.cfg.APIKey)
	}
	target := rawURL
	if encoded := params.Encode(); encoded != "" {
		target += "?" + encoded
	}

	resp, err := c.breaker.Execute(func() (response, error) {
		agent := fiber.Get(target).Timeout(c.cfg.Timeout)
		if err := agent.Parse(); err != nil {
			return response{}, fmt.Errorf("build catalog request: %w", err)
		}
		code, body, errs := agent.Bytes()
		if len(errs) > 0 {
			return response{}, fmt.Errorf("catalog request: %w", errs[0])
		}
		if code >= fiber.StatusInternalServerError {
			return response{code: code}, fmt.Errorf("catalog returned status %d", code)
		}
		return response{code: code, body: body}, nil
	})
	if err != nil {
		metrics.CatalogRequests.WithLabelValues(op, "error").Inc()
		logging.Warn().Err(err).Str("operation", op).Msg("catalog request failed")
		return nil, err
	}
	if resp.code < 200 || resp.code > 299 {
		metrics.CatalogRequests.WithLabelValues(op, "status_"+strconv.Itoa(resp.code)).Inc()
		return nil, fmt.Errorf("catalog returned status %d", resp.code)
	}
	metrics.CatalogRequests.WithLabelValues(op, "ok").Inc()
	return resp.body, nil
}

func toSummary(v volume) models.BookSummary {
	info := v.VolumeInfo
	s := models.BookSummary{
		ID:            v.ID,
		Title:         info.Title,
		Authors:       info.Authors,
		Description:   info.Description,
		PageCount:     info.PageCount,
		Categories:    info.Categories,
		ImageLinks:    info.ImageLinks,
		PublishedDate: info.PublishedDate,
		Publisher:     info.Publisher,
		AverageRating: info.AverageRating,
	}
	if s.Authors == nil {
		s.Authors = []string{}
	}
	if s.Categories == nil {
		s.Categories = []string{}
	}
	return s
}
