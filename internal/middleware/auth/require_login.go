package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/sample_app/internal/authz"
	"github.com/Skotchmaster/sample_app/internal/logging"
)

const (
	HomePath   = "/"
	SigninPath = "/signin"

	returnToTTL = 10 * time.Minute
)

// Keys under which Require leaves the action and its verdict on the echo
// context for the request logger.
const (
	ActionKey  = "authz_action"
	VerdictKey = "authz_verdict"
)

// TargetFunc extracts the user an action operates on.
type TargetFunc func(c echo.Context) uuid.UUID

// UserParam reads the target user id from a path parameter. Malformed ids
// become uuid.Nil, which matches nobody.
func UserParam(name string) TargetFunc {
	return func(c echo.Context) uuid.UUID {
		id, err := uuid.Parse(c.Param(name))
		if err != nil {
			return uuid.Nil
		}
		return id
	}
}

type Authorizer struct {
	Guard        *authz.Guard
	CookieSecure bool
}

// Require runs the guard before the handler. Denials become 302 redirects;
// a guard error is never treated as a denial.
func (a *Authorizer) Require(action authz.Action, target TargetFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := req.Context()
			l := logging.FromContext(ctx).With("action", string(action))

			token, fromCookie := SessionToken(c)
			ar := authz.Request{Token: token, Action: action}
			if target != nil {
				ar.Target = target(c)
			}

			c.Set(ActionKey, action)
			v, err := a.Guard.Authorize(ctx, ar)
			if err != nil {
				if errors.Is(err, authz.ErrUnknownAction) {
					l.Error("authorize_error", "status", 500, "error", err)
					return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
				}
				l.Error("authorize_error", "status", 503, "reason", "session store unavailable", "error", err)
				return echo.NewHTTPError(http.StatusServiceUnavailable, "service unavailable")
			}
			c.Set(VerdictKey, v)

			if token != "" && fromCookie && v.Principal == nil {
				c.SetCookie(DeleteCookie(SessionCookie, "/", a.CookieSecure))
			}

			switch v.Decision {
			case authz.Allowed:
				ctx = authz.WithPrincipal(ctx, v.Principal)
				if v.Principal != nil {
					ctx = logging.IntoContext(ctx, logging.FromContext(ctx).With("user_id", v.Principal.ID))
				}
				c.SetRequest(req.WithContext(ctx))
				return next(c)
			case authz.DeniedRedirectSignin:
				if req.Method == http.MethodGet {
					c.SetCookie(CreateCookie(ReturnToCookie, req.URL.RequestURI(), "/", time.Now().Add(returnToTTL), a.CookieSecure))
				}
				return c.Redirect(http.StatusFound, SigninPath)
			default:
				return c.Redirect(http.StatusFound, HomePath)
			}
		}
	}
}
