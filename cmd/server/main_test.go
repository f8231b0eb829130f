package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doHealth(t *testing.T, checks map[string]func(context.Context) error) (*httptest.ResponseRecorder, gin.H) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/health", healthCheckHandler(checks))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)

	var body gin.H
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestHealthCheckAllUp(t *testing.T) {
	ok := func(ctx context.Context) error { return nil }
	w, body := doHealth(t, map[string]func(context.Context) error{
		"database": ok,
		"redis":    ok,
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])
	services := body["services"].(map[string]interface{})
	assert.Equal(t, "ok", services["database"])
	assert.Equal(t, "ok", services["redis"])
}

func TestHealthCheckDegraded(t *testing.T) {
	w, body := doHealth(t, map[string]func(context.Context) error{
		"database": func(ctx context.Context) error { return nil },
		"redis":    func(ctx context.Context) error { return errors.New("connection refused") },
	})

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "degraded", body["status"])
	services := body["services"].(map[string]interface{})
	assert.Equal(t, "ok", services["database"])
	assert.Equal(t, "unreachable", services["redis"])
}
