package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/festival-reservation/internal/repository"
	"github.com/iliyamo/festival-reservation/internal/utils"
	"github.com/iliyamo/festival-reservation/internal/workflow"
)

// errorKinds maps each error kind to its HTTP status and wire code.
// Order matters only for readability; kinds do not wrap each other.
var errorKinds = []struct {
	err    error
	status int
	code   string
}{
	{repository.ErrMissingRequiredField, http.StatusBadRequest, "missing_required_field"},
	{repository.ErrInvalidField, http.StatusBadRequest, "invalid_field"},
	{utils.ErrWeakPassword, http.StatusBadRequest, "invalid_field"},
	{repository.ErrUnknownReference, http.StatusUnprocessableEntity, "unknown_reference"},
	{repository.ErrInsufficientStock, http.StatusConflict, "insufficient_stock"},
	{workflow.ErrIllegalTransition, http.StatusConflict, "illegal_transition"},
	{repository.ErrInvoiceAlreadyExists, http.StatusConflict, "invoice_already_exists"},
	{repository.ErrConflict, http.StatusConflict, "conflict"},
	{repository.ErrNotFound, http.StatusNotFound, "not_found"},
}

// writeError renders err as {"error": code, "message": reason}.  Errors of
// no known kind are logged and reported as a bare internal failure.
func writeError(c echo.Context, err error) error {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return c.JSON(k.status, echo.Map{"error": k.code, "message": err.Error()})
		}
	}
	c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "internal error"})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_field", "message": msg})
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
