package server_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booknest/internal/catalog"
	"booknest/internal/config"
	"booknest/internal/logging"
	"booknest/internal/repositories"
	"booknest/internal/server"
	"booknest/internal/services"
)

func newTestApp(t *testing.T, cfg config.Config) *fiber.App {
	t.Helper()
	logging.Init(logging.Config{Level: "error", Output: io.Discard})

	users := repositories.NewMockUserRepository()
	library := services.NewLibraryService(repositories.NewMockLibraryRepository(), nil)
	gateway := catalog.NewClient(catalog.Config{BaseURL: "http://127.0.0.1:1/volumes", Timeout: time.Second})

	return server.NewApp(server.Deps{
		Config:         cfg,
		AuthService:    services.NewAuthService(users, "secret", time.Hour),
		UserService:    services.NewUserService(users, nil),
		LibraryService: library,
		CatalogService: services.NewCatalogService(gateway, nil, library),
	})
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, config.Config{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "up", body["database"])
	assert.NotEmpty(t, body["time"])
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t, config.Config{})

	_, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "booknest_http_requests_total")
}

func TestUnknownRoute(t *testing.T) {
	app := newTestApp(t, config.Config{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body["message"])
}

func TestSearchRateLimit(t *testing.T) {
	app := newTestApp(t, config.Config{SearchRateLimit: 2})

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/books/search", nil))
		require.NoError(t, err)
		statuses = append(statuses, resp.StatusCode)
	}
	assert.Equal(t, []int{http.StatusBadRequest, http.StatusBadRequest, http.StatusTooManyRequests}, statuses)
}

func TestCORSPreflight(t *testing.T) {
	app := newTestApp(t, config.Config{CORSOrigins: []string{"http://localhost:5173"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/library/liked", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "GET")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
}
