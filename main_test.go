package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edumarket/internal/config"
)

// TestMain is used to setup test environment
func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func testConfig(name string) config.Config {
	v := viper.New()
	config.SetDefaults(v)
	v.Set("DATABASE_DRIVER", "sqlite")
	v.Set("DATABASE_DSN", "file:"+name+"?mode=memory&cache=shared")
	v.Set("JWT_SECRET", "test_jwt_secret")
	v.Set("AI_API_KEY", "")
	return config.Load(v)
}

func TestNewApp_HealthCheck(t *testing.T) {
	app, _, err := NewApp(testConfig("main_health"), nil)
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "\"status\":\"healthy\"")
	assert.Contains(t, string(body), "\"events\":false")
}

func TestNewApp_RoutesAreWired(t *testing.T) {
	app, authService, err := NewApp(testConfig("main_routes"), nil)
	require.NoError(t, err)

	// Public reads need no token
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/listings", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/institutions", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Mutations do
	body, _ := json.Marshal(map[string]any{"title": "Calculus", "subject": "Maths", "condition": "Good", "price": 450})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/listings", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// The AI tools report the missing key instead of failing the app
	body, _ = json.Marshal(map[string]string{"content": "Photosynthesis"})
	req = httptest.NewRequest(http.MethodPost, "/api/v1/ai/summary", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp.Body.Close()

	assert.Nil(t, authService.CurrentSession())
}

func TestNewApp_UnsupportedDatabase(t *testing.T) {
	cfg := testConfig("main_unsupported")
	cfg.DatabaseDriver = "mysql"

	_, _, err := NewApp(cfg, nil)
	assert.Error(t, err)
}
