package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"attendance-pulse/internal/models"
	"attendance-pulse/internal/repository"
	"attendance-pulse/internal/services"
)

const viewerKey = "viewer"

// viewerFrom returns the authenticated user placed in the context by
// requireAuth.
func viewerFrom(c echo.Context) *models.User {
	return c.Get(viewerKey).(*models.User)
}

// bind decodes and validates a request body.
func (s *Server) bind(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := s.validate.Struct(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// httpError maps service and repository errors onto HTTP statuses. Expected
// conditions travel as values, so the mapping is a plain errors.Is ladder.
func httpError(err error) error {
	switch {
	case errors.Is(err, services.ErrAlreadyMarked):
		return echo.NewHTTPError(http.StatusConflict, services.ErrAlreadyMarked.Error())
	case errors.Is(err, services.ErrInvalidStatus):
		return echo.NewHTTPError(http.StatusBadRequest, services.ErrInvalidStatus.Error())
	case errors.Is(err, services.ErrEmailExists):
		return echo.NewHTTPError(http.StatusBadRequest, services.ErrEmailExists.Error())
	case errors.Is(err, services.ErrNotRecipient):
		return echo.NewHTTPError(http.StatusForbidden, services.ErrNotRecipient.Error())
	case errors.Is(err, repository.ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, repository.ErrInvalidCredentials.Error())
	case errors.Is(err, repository.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, repository.ErrNotFound.Error())
	}
	return err
}
