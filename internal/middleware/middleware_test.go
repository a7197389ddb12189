package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/festival-reservation/internal/config"
	"github.com/iliyamo/festival-reservation/internal/utils"
)

const secret = "test-secret"

func protected(mw ...echo.MiddlewareFunc) (*echo.Echo, *httptest.ResponseRecorder) {
	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		id, role, ok := Principal(c)
		if !ok {
			return c.NoContent(http.StatusTeapot)
		}
		return c.JSON(http.StatusOK, echo.Map{"id": id, "role": role})
	}, mw...)
	return e, httptest.NewRecorder()
}

func bearer(t *testing.T, id uint64, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, id, role, 5)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func TestJWTAuth(t *testing.T) {
	e, rec := protected(JWTAuth(secret))
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(echo.HeaderAuthorization, bearer(t, 9, "ORGANIZER"))
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":9,"role":"ORGANIZER"}`, rec.Body.String())
}

func TestJWTAuth_Rejects(t *testing.T) {
	for name, header := range map[string]string{
		"missing":      "",
		"not bearer":   "Basic abc",
		"garbage":      "Bearer nope",
		"other secret": "",
	} {
		t.Run(name, func(t *testing.T) {
			if name == "other secret" {
				tok, err := utils.NewAccessToken("different", 1, "ADMIN", 5)
				require.NoError(t, err)
				header = "Bearer " + tok.Token
			}
			e, rec := protected(JWTAuth(secret))
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if header != "" {
				req.Header.Set(echo.HeaderAuthorization, header)
			}
			e.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestRequireRole(t *testing.T) {
	e, rec := protected(JWTAuth(secret), RequireRole("ADMIN"))
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(echo.HeaderAuthorization, bearer(t, 9, "ORGANIZER"))
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	e, rec = protected(JWTAuth(secret), RequireRole("ADMIN", "ORGANIZER"))
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(echo.HeaderAuthorization, bearer(t, 9, "ORGANIZER"))
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTokenBucket_DisabledPassesThrough(t *testing.T) {
	e, rec := protected(NewTokenBucket(config.RateLimitConfig{Enabled: false}, nil))
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestTokenBucket_RedisErrorFailsOpen(t *testing.T) {
	// No expectation is registered, so the script call fails.
	rdb, _ := redismock.NewClientMock()
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Second, TTL: time.Minute, Prefix: "rl"}

	e, rec := protected(NewTokenBucket(cfg, rdb))
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.RemoteAddr = "192.0.2.1:4000"
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/reservations", nil)
	req.RemoteAddr = "192.0.2.1:4000"
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/reservations")
	c.Set(userIDKey, uint64(4))

	assert.Equal(t, "rl:user:4:route:POST /v1/reservations", buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user_route"}, c))
	assert.Equal(t, "rl:ip:192.0.2.1", buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip"}, c))
}
