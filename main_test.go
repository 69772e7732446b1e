package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booknest/internal/config"
	"booknest/internal/logging"
)

func testConfig(driver, dsn string) config.Config {
	return config.Config{
		AppPort:         ":0",
		JWTSecret:       "test_jwt_secret",
		TokenTTL:        time.Hour,
		DBDriver:        driver,
		DatabaseDSN:     dsn,
		CatalogURL:      "http://127.0.0.1:1/volumes",
		CatalogTimeout:  time.Second,
		SearchRateLimit: 0,
	}
}

func TestOpenStores(t *testing.T) {
	logging.Init(logging.Config{Level: "error", Output: io.Discard})

	mem, err := openStores(testConfig(config.DriverMemory, ""))
	require.NoError(t, err)
	assert.Nil(t, mem.db)
	assert.NotNil(t, mem.users)
	mem.close()

	sql, err := openStores(testConfig(config.DriverSQLite, "file:main_test?mode=memory&cache=shared"))
	require.NoError(t, err)
	assert.NotNil(t, sql.db)
	sql.close()

	_, err = openStores(testConfig("mongo", "x"))
	assert.Error(t, err)
}

func TestApplicationEndToEnd(t *testing.T) {
	logging.Init(logging.Config{Level: "error", Output: io.Discard})

	st, err := openStores(testConfig(config.DriverMemory, ""))
	require.NoError(t, err)
	a := newApplication(testConfig(config.DriverMemory, ""), st, nil)
	require.NoError(t, a.startConsumers(context.Background()))

	resp, err := a.app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req := httptest.NewRequest(http.MethodPost, "/api/users/register",
		strings.NewReader(`{"username":"alice","email":"alice@x.com","password":"Pw1!"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = a.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var reg struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&reg))
	require.NotEmpty(t, reg.Token)

	req = httptest.NewRequest(http.MethodGet, "/api/library/liked", nil)
	req.Header.Set("x-auth-token", reg.Token)
	resp, err = a.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = a.app.Test(httptest.NewRequest(http.MethodGet, "/api/library/liked", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
