package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func init() { gin.SetMode(gin.TestMode) }

func signToken(t *testing.T, secret string, sub string, role string, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"exp":  exp.Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func newRouter() *gin.Engine {
	r := gin.New()
	r.Use(RequestID())
	auth := r.Group("", AuthMiddleware(testSecret))
	auth.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": GetUserID(c), "role": GetUserRole(c)})
	})
	auth.GET("/users/:userId", RequireSelf("userId"), func(c *gin.Context) { c.Status(http.StatusOK) })
	auth.GET("/admin", AdminOnly(), func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func do(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := newRouter()
	hour := time.Now().Add(time.Hour)

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"valid", signToken(t, testSecret, "3", "customer", hour), http.StatusOK},
		{"wrong secret", signToken(t, "other", "3", "customer", hour), http.StatusUnauthorized},
		{"expired", signToken(t, testSecret, "3", "customer", time.Now().Add(-time.Hour)), http.StatusUnauthorized},
		{"non numeric subject", signToken(t, testSecret, "abc", "customer", hour), http.StatusUnauthorized},
		{"garbage", "not.a.token", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, "/me", tt.token)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRequireSelf(t *testing.T) {
	r := newRouter()
	hour := time.Now().Add(time.Hour)
	customer := signToken(t, testSecret, "3", "customer", hour)
	admin := signToken(t, testSecret, "1", "admin", hour)

	assert.Equal(t, http.StatusOK, do(r, "/users/3", customer).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/users/4", customer).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, "/users/x", customer).Code)
	assert.Equal(t, http.StatusOK, do(r, "/users/4", admin).Code)
}

func TestAdminOnly(t *testing.T) {
	r := newRouter()
	hour := time.Now().Add(time.Hour)

	assert.Equal(t, http.StatusOK, do(r, "/admin", signToken(t, testSecret, "1", "admin", hour)).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/admin", signToken(t, testSecret, "2", "seller", hour)).Code)
}

func TestRequestID(t *testing.T) {
	r := newRouter()

	w := do(r, "/me", "")
	generated := w.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(RequestIDHeader, "req-"+strconv.Itoa(42))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:3000"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
