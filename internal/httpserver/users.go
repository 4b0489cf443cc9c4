package httpserver

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/sample_app/internal/authn"
	"github.com/Skotchmaster/sample_app/internal/authz"
	"github.com/Skotchmaster/sample_app/internal/logging"
	"github.com/Skotchmaster/sample_app/internal/middleware/auth"
	"github.com/Skotchmaster/sample_app/internal/middleware/csrf"
	"github.com/Skotchmaster/sample_app/internal/repo"
	"github.com/Skotchmaster/sample_app/internal/service"
	"github.com/Skotchmaster/sample_app/internal/util"
)

type UsersHTTP struct {
	Svc          *service.UserService
	Microposts   *service.MicropostService
	Auth         *authn.Authenticator
	CookieSecure bool
}

type userRequest struct {
	Name                 string `json:"name" form:"name"`
	Email                string `json:"email" form:"email"`
	Password             string `json:"password" form:"password"`
	PasswordConfirmation string `json:"password_confirmation" form:"password_confirmation"`
}

func pathID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, repo.ErrNotFound
	}
	return id, nil
}

func (h *UsersHTTP) Index(c echo.Context) error {
	ctx := c.Request().Context()
	offset, limit := util.ParsePage(c.QueryParam("page"), c.QueryParam("size"))

	page, err := h.Svc.List(ctx, offset, limit)
	if err != nil {
		return httpError(ctx, "users_index_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"total": page.Total, "users": page.Items})
}

func (h *UsersHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query error")
	}
	offset, limit := util.ParsePage(c.QueryParam("page"), c.QueryParam("size"))

	res, err := h.Svc.Search(ctx, q, offset, limit)
	if err != nil {
		return httpError(ctx, "users_search_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"total": res.Total, "users": res.Items})
}

func (h *UsersHTTP) New(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"page":       "users.new",
		"csrf_token": c.Get(csrf.ContextKey),
	})
}

// Create registers the user and signs them in straight away.
func (h *UsersHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users_create")

	var req userRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	u, err := h.Svc.Register(ctx, service.RegisterInput{
		Name:                 req.Name,
		Email:                req.Email,
		Password:             req.Password,
		PasswordConfirmation: req.PasswordConfirmation,
	})
	if err != nil {
		return httpError(ctx, "register_error", err)
	}

	location := "/users/" + u.ID.String()
	res, err := h.Auth.Authenticate(ctx, u.Email, req.Password, metaOf(c))
	if err != nil {
		l.Error("register_signin_failed", "user_id", u.ID, "error", err)
		return c.JSON(http.StatusCreated, echo.Map{"user": u, "location": location})
	}
	c.SetCookie(auth.DeleteCookie(auth.ReturnToCookie, "/", h.CookieSecure))
	c.SetCookie(auth.CreateCookie(auth.SessionCookie, res.Session.Token, "/", res.Session.ExpiresAt, h.CookieSecure))

	return c.JSON(http.StatusCreated, echo.Map{
		"user":          u,
		"location":      location,
		"session_token": res.Session.Token,
		"expires_at":    res.Session.ExpiresAt,
	})
}

func (h *UsersHTTP) Show(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := pathID(c)
	if err != nil {
		return httpError(ctx, "users_show_error", err)
	}

	u, err := h.Svc.Get(ctx, id)
	if err != nil {
		return httpError(ctx, "users_show_error", err)
	}

	offset, limit := util.ParsePage(c.QueryParam("page"), c.QueryParam("size"))
	posts, err := h.Microposts.ListByUser(ctx, id, offset, limit)
	if err != nil {
		return httpError(ctx, "users_show_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user":             u,
		"microposts":       posts.Items,
		"microposts_total": posts.Total,
	})
}

func (h *UsersHTTP) Edit(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := pathID(c)
	if err != nil {
		return httpError(ctx, "users_edit_error", err)
	}
	u, err := h.Svc.Get(ctx, id)
	if err != nil {
		return httpError(ctx, "users_edit_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"page":       "users.edit",
		"user":       u,
		"csrf_token": c.Get(csrf.ContextKey),
	})
}

func (h *UsersHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users_update")

	id, err := pathID(c)
	if err != nil {
		return httpError(ctx, "users_update_error", err)
	}

	var req userRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("users_update_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	u, err := h.Svc.Update(ctx, authz.PrincipalFrom(ctx), id, service.UpdateInput{
		Name:                 req.Name,
		Email:                req.Email,
		Password:             req.Password,
		PasswordConfirmation: req.PasswordConfirmation,
	})
	if err != nil {
		return httpError(ctx, "users_update_error", err)
	}

	l.Info("profile_updated", "user_id", u.ID)
	return c.JSON(http.StatusOK, echo.Map{"user": u, "message": "Profile updated"})
}

func (h *UsersHTTP) Destroy(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := pathID(c)
	if err != nil {
		return httpError(ctx, "users_destroy_error", err)
	}

	err = h.Svc.Destroy(ctx, authz.PrincipalFrom(ctx), id)
	if errors.Is(err, service.ErrSelfDestroy) {
		logging.FromContext(ctx).Warn("users_destroy_denied", "reason", "self_destroy")
		return c.Redirect(http.StatusFound, auth.HomePath)
	}
	if err != nil {
		return httpError(ctx, "users_destroy_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "User deleted"})
}
