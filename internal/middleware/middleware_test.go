package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metrika/internal/authz"
)

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetInt64("user_id"), "role_id": c.GetInt("role_id")})
	})
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/admin", RequireRoles(authz.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func do(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	w := do(newRouter(AuthMiddleware()), http.MethodGet, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_PublicPath(t *testing.T) {
	w := do(newRouter(AuthMiddleware()), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	tok, _, err := SignAccessToken(42, authz.RoleMember, time.Minute)
	require.NoError(t, err)

	w := do(newRouter(AuthMiddleware()), http.MethodGet, "/me", tok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":42,"role_id":10}`, w.Body.String())
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	tok, _, err := SignAccessToken(42, authz.RoleMember, -time.Hour)
	require.NoError(t, err)

	w := do(newRouter(AuthMiddleware()), http.MethodGet, "/me", tok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_ForeignSignature(t *testing.T) {
	tok, _, err := SignAccessToken(42, authz.RoleAdmin, time.Minute)
	require.NoError(t, err)

	old := JWTKey
	JWTKey = []byte("another-secret")
	defer func() { JWTKey = old }()

	w := do(newRouter(AuthMiddleware()), http.MethodGet, "/me", tok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRoles(t *testing.T) {
	member, _, err := SignAccessToken(1, authz.RoleMember, time.Minute)
	require.NoError(t, err)
	admin, _, err := SignAccessToken(2, authz.RoleAdmin, time.Minute)
	require.NoError(t, err)

	r := newRouter(AuthMiddleware())
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodPost, "/admin", member).Code)
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodPost, "/admin", admin).Code)
}

func TestRequestID(t *testing.T) {
	r := newRouter(RequestID())

	w := do(r, http.MethodGet, "/healthz", "")
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get(RequestIDHeader))
}
