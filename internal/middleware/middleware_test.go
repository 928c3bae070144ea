package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drivemate/internal/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestIdentity(t *testing.T) {
	r := gin.New()
	r.Use(Identity())
	r.GET("/me", func(c *gin.Context) {
		p, ok := Principal(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"user_id": p.UserID, "role": p.Role})
	})

	tests := []struct {
		name     string
		userID   string
		role     string
		wantCode int
	}{
		{name: "customer", userID: "cust-1", role: "customer", wantCode: http.StatusOK},
		{name: "role is case-insensitive", userID: "user-1", role: "Driver", wantCode: http.StatusOK},
		{name: "missing user", role: "customer", wantCode: http.StatusUnauthorized},
		{name: "unknown role", userID: "cust-1", role: "pilot", wantCode: http.StatusUnauthorized},
		{name: "no headers", wantCode: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.userID != "" {
				req.Header.Set(UserIDHeader, tt.userID)
			}
			if tt.role != "" {
				req.Header.Set(UserRoleHeader, tt.role)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestPrincipalMissing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := Principal(c)
	assert.False(t, ok)

	c.Set(principalKey, domain.Principal{UserID: "u", Role: domain.RoleAdmin})
	p, ok := Principal(c)
	assert.True(t, ok)
	assert.Equal(t, domain.RoleAdmin, p.Role)
}

func newIdempotentRouter(t *testing.T, client *redis.Client) (*gin.Engine, *int32) {
	t.Helper()
	log, _ := test.NewNullLogger()
	var calls int32
	r := gin.New()
	r.Use(Identity(), Idempotency(client, log))
	r.POST("/v1/payments", func(c *gin.Context) {
		n := atomic.AddInt32(&calls, 1)
		c.JSON(http.StatusCreated, gin.H{"call": n})
	})
	r.POST("/v1/boom", func(c *gin.Context) {
		atomic.AddInt32(&calls, 1)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	})
	return r, &calls
}

func post(r http.Handler, path, user, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{}`))
	req.Header.Set(UserIDHeader, user)
	req.Header.Set(UserRoleHeader, "customer")
	if key != "" {
		req.Header.Set(idempotencyHeader, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotencyReplaysResponse(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	r, calls := newIdempotentRouter(t, client)

	first := post(r, "/v1/payments", "cust-1", "k-1")
	second := post(r, "/v1/payments", "cust-1", "k-1")

	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get(replayedHeader))
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))

	other := post(r, "/v1/payments", "cust-2", "k-1")
	assert.JSONEq(t, `{"call":2}`, other.Body.String(), "keys are scoped per caller")

	post(r, "/v1/payments", "cust-1", "")
	post(r, "/v1/payments", "cust-1", "")
	assert.Equal(t, int32(4), atomic.LoadInt32(calls), "requests without a key are never replayed")

	ttl := mr.TTL("idempotency:cust-1:POST:/v1/payments:k-1")
	assert.Equal(t, idempotencyTTL, ttl)
}

func TestIdempotencySkipsServerErrors(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	r, calls := newIdempotentRouter(t, client)

	post(r, "/v1/boom", "cust-1", "k-2")
	post(r, "/v1/boom", "cust-1", "k-2")
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestIdempotencyWithoutRedis(t *testing.T) {
	r, calls := newIdempotentRouter(t, nil)
	post(r, "/v1/payments", "cust-1", "k-1")
	post(r, "/v1/payments", "cust-1", "k-1")
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestIdempotencyRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	r, calls := newIdempotentRouter(t, client)
	mr.Close()

	w := post(r, "/v1/payments", "cust-1", "k-1")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS())
	r.POST("/v1/rides", func(c *gin.Context) { c.Status(http.StatusCreated) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/v1/rides", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), UserRoleHeader)
}

func TestNewRelicAttributesWithoutTransaction(t *testing.T) {
	r := gin.New()
	r.Use(NewRelicAttributes())
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
