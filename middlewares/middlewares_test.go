package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/restaurant-floor/utils"
)

var secret = []byte("test-secret")

func init() {
	gin.SetMode(gin.TestMode)
	utils.SilenceLoggers()
}

func protectedRouter(extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append([]gin.HandlerFunc{AuthMiddleware(secret)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		actor, ok := ActorFromContext(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, actor)
	})
	r.GET("/me", handlers...)
	return r
}

func token(t *testing.T, id uint, role string, ttl time.Duration) string {
	t.Helper()
	tok, err := utils.GenerateToken(secret, id, "Mia", role, ttl)
	require.NoError(t, err)
	return tok
}

func TestAuthMiddleware(t *testing.T) {
	r := protectedRouter()
	valid := token(t, 3, "staff", time.Hour)

	tests := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{"missing", "", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", "", http.StatusUnauthorized},
		{"garbage", "Bearer nope", "", http.StatusUnauthorized},
		{"expired", "Bearer " + token(t, 3, "staff", -time.Minute), "", http.StatusUnauthorized},
		{"zero user", "Bearer " + token(t, 0, "staff", time.Hour), "", http.StatusUnauthorized},
		{"header", "Bearer " + valid, "", http.StatusOK},
		{"query for websockets", "", "?token=" + valid, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, "/me"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestAuthMiddlewareSetsActor(t *testing.T) {
	r := protectedRouter()
	tok := token(t, 3, "staff", time.Hour)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":3,"name":"Mia","role":"staff"}`, w.Body.String())
}

func TestRequireRole(t *testing.T) {
	r := protectedRouter(RequireRole("staff", "manager"))

	for role, want := range map[string]int{
		"staff":   http.StatusOK,
		"manager": http.StatusOK,
		"admin":   http.StatusOK,
		"chef":    http.StatusForbidden,
	} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token(t, 1, role, time.Hour))
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, role)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	r := gin.New()
	r.POST("/action", rl.RateLimit(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/action", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)

	// another terminal has its own bucket
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/action", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders([]string{"https://floor.example.de/", "http://localhost:5173", "*"}))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	csp := w.Header().Get("Content-Security-Policy")
	assert.Contains(t, csp, "default-src 'none'")
	assert.Contains(t, csp, "connect-src 'self' https://floor.example.de wss://floor.example.de http://localhost:5173 ws://localhost:5173")
	assert.NotContains(t, csp, "*")
}

func TestSecurityHeadersWithoutOrigins(t *testing.T) {
	assert.Equal(t, "'self'", connectSources(nil))
}
