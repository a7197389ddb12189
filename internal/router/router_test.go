package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/festival-reservation/internal/config"
	"github.com/iliyamo/festival-reservation/internal/handler"
	"github.com/iliyamo/festival-reservation/internal/model"
	"github.com/iliyamo/festival-reservation/internal/utils"
)

const secret = "router-secret"

func newServer() *echo.Echo {
	e := echo.New()
	RegisterRoutes(e, Handlers{
		Auth:         handler.NewAuthHandler(config.Config{JWTSecret: secret, AccessTTLMin: 5}, nil),
		Zones:        handler.NewZoneHandler(nil),
		Reservations: handler.NewReservationHandler(nil),
		Invoices:     handler.NewInvoiceHandler(nil),
	}, secret, nil)
	return e
}

func TestRoutesRegistered(t *testing.T) {
	e := newServer()
	have := map[string]bool{}
	for _, r := range e.Routes() {
		have[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /healthz",
		"POST /v1/auth/register",
		"POST /v1/auth/login",
		"GET /v1/me",
		"GET /v1/festivals/:id/zones",
		"POST /v1/festivals/:id/zones",
		"POST /v1/reservations",
		"GET /v1/reservations/:id",
		"PATCH /v1/reservations/:id",
		"PUT /v1/reservations/:id/status",
		"DELETE /v1/reservations/:id",
		"GET /v1/festivals/:id/reservations",
		"GET /v1/editors/:id/reservations",
		"GET /v1/reservations/:id/invoice",
		"POST /v1/reservations/:id/invoice",
		"POST /v1/invoices/:id/pay",
	} {
		assert.True(t, have[want], want)
	}
}

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	newServer().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	rec := httptest.NewRecorder()
	newServer().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/reservations", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPayNeedsAdmin(t *testing.T) {
	tok, err := utils.NewAccessToken(secret, 3, model.RoleOrganizer, 5)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/invoices/1/pay", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok.Token)
	newServer().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
