package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbrain-system/internal/utils"
)

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	protected := r.Group("/", JWTAuth())
	protected.GET("/me", func(c *gin.Context) {
		claims := CurrentClaims(c)
		c.JSON(http.StatusOK, gin.H{"username": claims.Username})
	})
	protected.GET("/admin", RequireRole("admin"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func doRequest(t *testing.T, r *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuth(t *testing.T) {
	utils.InitJWT("test-secret")
	r := newAuthRouter()

	token, _, err := utils.GenerateToken(7, "alice", []string{"staff"}, time.Hour)
	require.NoError(t, err)

	t.Run("missing header", func(t *testing.T) {
		w := doRequest(t, r, "/me", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("not a bearer token", func(t *testing.T) {
		w := doRequest(t, r, "/me", "Basic abc123")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		w := doRequest(t, r, "/me", "Bearer not.a.token")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token reaches handler with claims", func(t *testing.T) {
		w := doRequest(t, r, "/me", "Bearer "+token)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "alice")
	})

	t.Run("expired token rejected", func(t *testing.T) {
		expired, _, err := utils.GenerateToken(7, "alice", nil, -time.Hour)
		require.NoError(t, err)
		w := doRequest(t, r, "/me", "Bearer "+expired)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequireRole(t *testing.T) {
	utils.InitJWT("test-secret")
	r := newAuthRouter()

	staffToken, _, err := utils.GenerateToken(7, "alice", []string{"staff"}, time.Hour)
	require.NoError(t, err)
	adminToken, _, err := utils.GenerateToken(8, "bob", []string{"staff", "admin"}, time.Hour)
	require.NoError(t, err)

	t.Run("role missing", func(t *testing.T) {
		w := doRequest(t, r, "/admin", "Bearer "+staffToken)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("role present", func(t *testing.T) {
		w := doRequest(t, r, "/admin", "Bearer "+adminToken)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
