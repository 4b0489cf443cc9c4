package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/sample_app/internal/authz"
	"github.com/Skotchmaster/sample_app/internal/logging"
	"github.com/Skotchmaster/sample_app/internal/middleware/auth"
	"github.com/Skotchmaster/sample_app/internal/repo"
	"github.com/Skotchmaster/sample_app/internal/service"
)

type MicropostsHTTP struct {
	Svc *service.MicropostService
}

func (h *MicropostsHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "microposts_create")

	var req struct {
		Content string `json:"content" form:"content"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("micropost_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	m, err := h.Svc.Create(ctx, authz.PrincipalFrom(ctx), req.Content)
	if err != nil {
		return httpError(ctx, "micropost_error", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"micropost": m})
}

// Destroy sends anyone who does not own the post back home.
func (h *MicropostsHTTP) Destroy(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := pathID(c)
	if err != nil {
		return c.Redirect(http.StatusFound, auth.HomePath)
	}

	err = h.Svc.Destroy(ctx, authz.PrincipalFrom(ctx), id)
	if errors.Is(err, repo.ErrNotFound) {
		logging.FromContext(ctx).Info("micropost_destroy_denied", "reason", "not_owner")
		return c.Redirect(http.StatusFound, auth.HomePath)
	}
	if err != nil {
		return httpError(ctx, "micropost_destroy_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Micropost deleted"})
}
