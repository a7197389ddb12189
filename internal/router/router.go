// Package router wires handlers and middleware onto the Echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/festival-reservation/internal/handler"
	"github.com/iliyamo/festival-reservation/internal/middleware"
	"github.com/iliyamo/festival-reservation/internal/model"
)

// Handlers groups everything RegisterRoutes mounts.
type Handlers struct {
	Auth         *handler.AuthHandler
	Zones        *handler.ZoneHandler
	Reservations *handler.ReservationHandler
	Invoices     *handler.InvoiceHandler
}

// RegisterRoutes mounts the public and the protected API.  limiter runs
// on every /v1 route after authentication so buckets can be keyed by
// user; pass nil to disable it.
func RegisterRoutes(e *echo.Echo, h Handlers, jwtSecret string, limiter echo.MiddlewareFunc) {
	if limiter == nil {
		limiter = func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	e.GET("/healthz", handler.Health)

	auth := e.Group("/v1/auth", limiter)
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)

	// Zone listings are public so booking screens work before login.
	e.GET("/v1/festivals/:id/zones", h.Zones.List, limiter)

	v1 := e.Group("/v1", middleware.JWTAuth(jwtSecret), limiter)
	v1.GET("/me", h.Auth.Me)

	admin := middleware.RequireRole(model.RoleAdmin)
	staff := middleware.RequireRole(model.RoleAdmin, model.RoleOrganizer)

	v1.POST("/festivals/:id/zones", h.Zones.Create, admin)

	v1.POST("/reservations", h.Reservations.Create, staff)
	v1.GET("/reservations/:id", h.Reservations.Get, staff)
	v1.PATCH("/reservations/:id", h.Reservations.Update, staff)
	v1.PUT("/reservations/:id/status", h.Reservations.UpdateStatus, staff)
	v1.DELETE("/reservations/:id", h.Reservations.Delete, staff)
	v1.GET("/festivals/:id/reservations", h.Reservations.ListByFestival, staff)
	v1.GET("/editors/:id/reservations", h.Reservations.ListByEditor, staff)

	v1.GET("/reservations/:id/invoice", h.Invoices.Get, staff)
	v1.POST("/reservations/:id/invoice", h.Invoices.Issue, staff)
	v1.POST("/invoices/:id/pay", h.Invoices.Pay, admin)
}
