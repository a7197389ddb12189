package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/festival-reservation/internal/config"
	"github.com/iliyamo/festival-reservation/internal/middleware"
	"github.com/iliyamo/festival-reservation/internal/model"
	"github.com/iliyamo/festival-reservation/internal/repository"
	"github.com/iliyamo/festival-reservation/internal/utils"
)

// UserStore is the part of repository.UserRepo the auth endpoints use.
type UserStore interface {
	Create(ctx context.Context, email, password, role string, cost int) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg   config.Config
	Users UserStore
}

// NewAuthHandler returns an AuthHandler issuing tokens signed with
// cfg.JWTSecret.
func NewAuthHandler(cfg config.Config, u UserStore) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u}
}

// ----- DTOs -----

type credentialsReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}
type authResp struct {
	User   userPart  `json:"user"`
	Access tokenPart `json:"access"`
}

// bindCredentials reads the body.  When ok is false the error response
// has already been written and err is what the handler should return.
func (h *AuthHandler) bindCredentials(c echo.Context) (req credentialsReq, ok bool, err error) {
	if err := c.Bind(&req); err != nil {
		return req, false, badRequest(c, "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := c.Validate(&req); err != nil {
		return req, false, writeError(c, err)
	}
	return req, true, nil
}

func (h *AuthHandler) respond(c echo.Context, status int, u userPart) error {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(status, authResp{User: u, Access: tokenPart{Token: access.Token, Expires: access.Exp}})
}

// Register creates an organizer account and returns an access token.
// Admins are provisioned directly in the database.
func (h *AuthHandler) Register(c echo.Context) error {
	req, ok, err := h.bindCredentials(c)
	if !ok {
		return err
	}
	if err := utils.CheckPassword(req.Password); err != nil {
		return writeError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Email, req.Password, model.RoleOrganizer, h.Cfg.BcryptCost)
	if err != nil {
		return writeError(c, err)
	}
	return h.respond(c, http.StatusCreated, userPart{ID: uid, Email: req.Email, Role: model.RoleOrganizer})
}

// Login verifies credentials and returns a fresh access token.
func (h *AuthHandler) Login(c echo.Context) error {
	req, ok, err := h.bindCredentials(c)
	if !ok {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "invalid credentials"})
		}
		return writeError(c, err)
	}
	if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "invalid credentials"})
	}
	return h.respond(c, http.StatusOK, userPart{ID: u.ID, Email: u.Email, Role: u.Role})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
	id, _, ok := middleware.Principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "no session"})
	}
	u, err := h.Users.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, userPart{ID: u.ID, Email: u.Email, Role: u.Role})
}
