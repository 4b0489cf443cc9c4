package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/sample_app/internal/logging"
	"github.com/Skotchmaster/sample_app/internal/repo"
	"github.com/Skotchmaster/sample_app/internal/service"
)

// httpError maps domain errors onto responses. Store faults are 503 so
// clients can tell "try again" from "no".
func httpError(ctx context.Context, event string, err error) error {
	l := logging.FromContext(ctx)

	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		l.Info(event, "status", 422, "error", err)
		return echo.NewHTTPError(http.StatusUnprocessableEntity, echo.Map{"message": "validation failed", "errors": verr.Fields})
	case errors.Is(err, service.ErrConflict):
		l.Info(event, "status", 409, "error", err)
		return echo.NewHTTPError(http.StatusConflict, echo.Map{"message": "email has already been taken"})
	case errors.Is(err, repo.ErrNotFound):
		l.Info(event, "status", 404)
		return echo.NewHTTPError(http.StatusNotFound, echo.Map{"message": "not found"})
	case errors.Is(err, service.ErrSearchDisabled):
		l.Info(event, "status", 404, "error", err)
		return echo.NewHTTPError(http.StatusNotFound, echo.Map{"message": "search is not available"})
	case errors.Is(err, repo.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		l.Error(event, "status", 503, "error", err)
		return echo.NewHTTPError(http.StatusServiceUnavailable, echo.Map{"message": "service unavailable"})
	default:
		l.Error(event, "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
}
