// Package handler contains the Echo HTTP handlers.  Handlers bind and
// validate request payloads, call the services and translate service
// error kinds into HTTP statuses.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/ecinema/ecinema/internal/middleware"
	"github.com/ecinema/ecinema/internal/service"
)

// getUserID returns the authenticated user's ID set by the JWT
// middleware.
func getUserID(c echo.Context) (uint64, error) {
	id, ok := c.Get(middleware.CtxUserID).(uint64)
	if !ok || id == 0 {
		return 0, errors.New("unauthorized")
	}
	return id, nil
}

// pathID parses a numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

// respondError maps a service error onto the HTTP status for its kind.
func respondError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrConflict), errors.Is(err, service.ErrDuplicateAction):
		status = http.StatusConflict
	case errors.Is(err, service.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrPermissionDenied):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrExpired):
		status = http.StatusGone
	}
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	return c.JSON(status, echo.Map{"error": msg})
}
