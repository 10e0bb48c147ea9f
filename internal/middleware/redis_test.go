package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-booking/internal/config"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func do(e *echo.Echo, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func limitConfig() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Hour,
		TTL:            2 * time.Hour,
		KeyStrategy:    "user",
		Prefix:         "rl",
	}
}

func TestTokenBucketPerUser(t *testing.T) {
	mr, rdb := newRedis(t)
	e := echo.New()
	e.GET("/x", whoami, JWTAuth(secret), NewTokenBucket(limitConfig(), rdb))
	alice := token(t, "alice", "USER")

	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/x", alice).Code)
	rec := do(e, http.MethodGet, "/x", alice)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = do(e, http.MethodGet, "/x", alice)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "3600", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "TOO_MANY_REQUESTS")

	// same address, different user: separate bucket
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/x", token(t, "bob", "USER")).Code)

	assert.True(t, mr.Exists("rl:user:alice"))
	assert.True(t, mr.Exists("rl:user:bob"))
	assert.Greater(t, mr.TTL("rl:user:alice"), time.Hour)
}

func TestTokenBucketAnonymousCallersByAddress(t *testing.T) {
	mr, rdb := newRedis(t)
	e := echo.New()
	e.GET("/x", whoami, OptionalJWT(secret), NewTokenBucket(limitConfig(), rdb))

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, do(e, http.MethodGet, "/x", "").Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, do(e, http.MethodGet, "/x", "").Code)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.2")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, mr.Exists("rl:user:anon-10.0.0.2"))
}

func TestTokenBucketAllowsWhenRedisDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	e := echo.New()
	e.GET("/x", whoami, NewTokenBucket(limitConfig(), rdb))
	mr.Close()

	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/x", "").Code)
}

func cacheConfig() config.CacheConfig {
	return config.CacheConfig{
		Enabled:      true,
		Methods:      []string{"GET"},
		TTL:          time.Minute,
		KeyStrategy:  "route_query",
		Prefix:       "cache",
		MaxBodyBytes: 64,
	}
}

func TestRedisCacheHitAndPurge(t *testing.T) {
	mr, rdb := newRedis(t)
	cfg := cacheConfig()
	calls := 0
	e := echo.New()
	e.GET("/rooms", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"rooms": []string{"Salle 1"}})
	}, NewRedisCache(cfg, rdb))
	e.POST("/rooms", func(c echo.Context) error {
		return c.NoContent(http.StatusCreated)
	}, PurgeCacheOnWrite(cfg, rdb))

	first := do(e, http.MethodGet, "/rooms", "")
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	second := do(e, http.MethodGet, "/rooms", "")
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, calls)
	assert.Len(t, mr.Keys(), 1)

	assert.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/rooms", "").Code)
	assert.Empty(t, mr.Keys())

	assert.Equal(t, "MISS", do(e, http.MethodGet, "/rooms", "").Header().Get("X-Cache"))
	assert.Equal(t, 2, calls)
}

func TestRedisCacheSkipsOversizedBody(t *testing.T) {
	mr, rdb := newRedis(t)
	big := strings.Repeat("x", 200)
	calls := 0
	e := echo.New()
	e.GET("/big", func(c echo.Context) error {
		calls++
		return c.String(http.StatusOK, big)
	}, NewRedisCache(cacheConfig(), rdb))

	for i := 0; i < 2; i++ {
		rec := do(e, http.MethodGet, "/big", "")
		assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
		assert.Equal(t, big, rec.Body.String())
	}
	assert.Equal(t, 2, calls)
	assert.Empty(t, mr.Keys())
}

func TestRedisCacheSkipsErrors(t *testing.T) {
	mr, rdb := newRedis(t)
	e := echo.New()
	e.GET("/missing", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "nope"})
	}, NewRedisCache(cacheConfig(), rdb))

	do(e, http.MethodGet, "/missing", "")
	assert.Empty(t, mr.Keys())
}
