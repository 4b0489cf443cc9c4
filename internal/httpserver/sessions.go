package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/sample_app/internal/authn"
	"github.com/Skotchmaster/sample_app/internal/authz"
	"github.com/Skotchmaster/sample_app/internal/logging"
	"github.com/Skotchmaster/sample_app/internal/middleware/auth"
	"github.com/Skotchmaster/sample_app/internal/middleware/csrf"
	"github.com/Skotchmaster/sample_app/internal/mykafka"
	"github.com/Skotchmaster/sample_app/internal/session"
)

type SessionsHTTP struct {
	Auth         *authn.Authenticator
	Sessions     *session.Manager
	Events       *mykafka.UserEvents
	CookieSecure bool
}

type signinRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func metaOf(c echo.Context) session.Meta {
	return session.Meta{IPAddress: c.RealIP(), UserAgent: c.Request().UserAgent()}
}

func (h *SessionsHTTP) New(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"page":       "sessions.new",
		"csrf_token": c.Get(csrf.ContextKey),
	})
}

func (h *SessionsHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "sessions_create")

	var req signinRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("signin_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Auth.Authenticate(ctx, req.Email, req.Password, metaOf(c))
	if errors.Is(err, authn.ErrInvalidCredentials) {
		l.Info("signin_failed", "status", 422)
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"message": authn.InvalidCredentialsMessage})
	}
	if err != nil {
		return httpError(ctx, "signin_error", err)
	}

	location := auth.ReturnTo(c)
	if location == "" {
		location = "/users/" + res.User.ID.String()
	}
	c.SetCookie(auth.DeleteCookie(auth.ReturnToCookie, "/", h.CookieSecure))
	c.SetCookie(auth.CreateCookie(auth.SessionCookie, res.Session.Token, "/", res.Session.ExpiresAt, h.CookieSecure))

	h.Events.Emit(ctx, mykafka.UserEvent{Type: mykafka.UserSignedIn, UserID: res.User.ID, ActorID: res.User.ID})
	l.Info("signin_successful", "user_id", res.User.ID)

	return c.JSON(http.StatusOK, echo.Map{
		"session_token": res.Session.Token,
		"expires_at":    res.Session.ExpiresAt,
		"location":      location,
		"user":          res.User,
	})
}

// Destroy always answers 200 for unknown or missing tokens. Only a store
// fault is reported, and the cookie is cleared either way.
func (h *SessionsHTTP) Destroy(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "sessions_destroy")

	token, _ := auth.SessionToken(c)
	c.SetCookie(auth.DeleteCookie(auth.SessionCookie, "/", h.CookieSecure))

	if err := h.Sessions.Revoke(ctx, token); err != nil {
		return httpError(ctx, "signout_error", err)
	}

	if u := authz.PrincipalFrom(ctx); u != nil {
		h.Events.Emit(ctx, mykafka.UserEvent{Type: mykafka.UserSignedOut, UserID: u.ID, ActorID: u.ID})
	}
	l.Info("signout_successful")
	return c.JSON(http.StatusOK, echo.Map{"message": "signed out"})
}
