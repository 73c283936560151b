package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/iredox10/kano-market-price/internal/core/domain"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubProvider map[string]domain.Identity

func (p stubProvider) Resolve(_ context.Context, token string) (*domain.Identity, error) {
	if token == "down" {
		return nil, domain.NewError(domain.KindInternal, "identity backend down", domain.ErrUnavailable)
	}
	id, ok := p[token]
	if !ok {
		return nil, domain.NewError(domain.KindUnauthenticated, "invalid or expired token", nil)
	}
	return &id, nil
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	provider := stubProvider{
		"admin-token": domain.NewIdentity("admin1", domain.CapabilityAdmin),
		"user-token":  domain.NewIdentity("user456"),
	}

	r := gin.New()
	r.GET("/admin", AuthMiddleware(provider), RequireCapability(domain.CapabilityAdmin), func(c *gin.Context) {
		id, ok := CurrentIdentity(c)
		require.True(t, ok)
		c.String(http.StatusOK, id.UserID+"/"+c.GetString(ContextUserID))
	})

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{name: "admin", header: "Bearer admin-token", status: http.StatusOK, body: "admin1/admin1"},
		{name: "lowercase scheme", header: "bearer admin-token", status: http.StatusOK, body: "admin1/admin1"},
		{name: "missing header", header: "", status: http.StatusUnauthorized},
		{name: "basic auth", header: "Basic dXNlcjpwYXNz", status: http.StatusUnauthorized},
		{name: "empty token", header: "Bearer  ", status: http.StatusUnauthorized},
		{name: "unknown token", header: "Bearer nope", status: http.StatusUnauthorized},
		{name: "not admin", header: "Bearer user-token", status: http.StatusForbidden},
		{name: "provider down", header: "Bearer down", status: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := serve(r, req)
			assert.Equal(t, tt.status, w.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, w.Body.String())
			} else {
				assert.Contains(t, w.Body.String(), `"success":false`)
			}
		})
	}
}

func TestRequireCapability_WithoutIdentity(t *testing.T) {
	r := gin.New()
	r.GET("/", RequireCapability(domain.CapabilityAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequestIDMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, RequestID(c)) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(HeaderRequestID)
	_, err := uuid.Parse(generated)
	require.NoError(t, err)
	assert.Equal(t, generated, w.Body.String())

	existing := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, existing)
	w = serve(r, req)
	assert.Equal(t, existing, w.Header().Get(HeaderRequestID))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "<script>")
	w = serve(r, req)
	assert.NotEqual(t, "<script>", w.Header().Get(HeaderRequestID))
}

func TestLoggerMiddleware(t *testing.T) {
	logger, hook := test.NewNullLogger()

	r := gin.New()
	r.Use(RequestIDMiddleware(), LoggerMiddleware(logger))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	serve(r, httptest.NewRequest(http.MethodGet, "/ok", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/bad", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))

	entries := hook.AllEntries()
	require.Len(t, entries, 3)
	assert.Equal(t, logrus.InfoLevel, entries[0].Level)
	assert.Equal(t, "/ok", entries[0].Data["path"])
	assert.NotEmpty(t, entries[0].Data["requestId"])
	assert.Equal(t, logrus.WarnLevel, entries[1].Level)
	assert.Equal(t, logrus.ErrorLevel, entries[2].Level)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if u := c.GetHeader("X-User"); u != "" {
			c.Set(ContextUserID, u)
		}
		c.Next()
	}, rl.Handler())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	call := func(user string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-User", user)
		return serve(r, req).Code
	}

	assert.Equal(t, http.StatusOK, call("admin1"))
	assert.Equal(t, http.StatusOK, call("admin1"))
	assert.Equal(t, http.StatusTooManyRequests, call("admin1"))
	// Limits are per caller
	assert.Equal(t, http.StatusOK, call("admin2"))

	rl.Cleanup(0)
	time.Sleep(time.Millisecond)
	rl.Cleanup(0)
	assert.Equal(t, http.StatusOK, call("admin1"))
}

func TestRateLimiter_Disabled(t *testing.T) {
	var nilLimiter *RateLimiter
	for _, rl := range []*RateLimiter{nilLimiter, NewRateLimiter(0, 0)} {
		r := gin.New()
		r.Use(rl.Handler())
		r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		for i := 0; i < 20; i++ {
			assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
		}
	}
}
