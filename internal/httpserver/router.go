package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/sample_app/internal/authz"
	"github.com/Skotchmaster/sample_app/internal/middleware/auth"
)

type Deps struct {
	Guard *authz.Guard

	SessionsHandler   *SessionsHTTP
	UsersHandler      *UsersHTTP
	MicropostsHandler *MicropostsHTTP

	CookieSecure bool
	// SigninLimiter wraps POST /signin when set.
	SigninLimiter echo.MiddlewareFunc
	// SearchEnabled registers GET /users/search.
	SearchEnabled bool
	// Ready backs /health/ready; nil means always ready.
	Ready func(ctx context.Context) error
}

type route struct {
	method  string
	path    string
	action  authz.Action
	target  auth.TargetFunc
	handler echo.HandlerFunc
	extra   []echo.MiddlewareFunc
}

// Register mounts every route behind the guard. It fails when a route names
// an action the guard has no rule for.
func Register(e *echo.Echo, d *Deps) error {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready == nil {
			return c.NoContent(http.StatusOK)
		}
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := d.Ready(ctx); err != nil {
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})

	userID := auth.UserParam("id")
	var signinMw []echo.MiddlewareFunc
	if d.SigninLimiter != nil {
		signinMw = append(signinMw, d.SigninLimiter)
	}

	routes := []route{
		{http.MethodGet, "/", authz.StaticHome, nil, Home, nil},
		{http.MethodGet, "/signin", authz.SessionsNew, nil, d.SessionsHandler.New, nil},
		{http.MethodPost, "/signin", authz.SessionsCreate, nil, d.SessionsHandler.Create, signinMw},
		{http.MethodDelete, "/signin", authz.SessionsDestroy, nil, d.SessionsHandler.Destroy, nil},
		{http.MethodGet, "/signup", authz.UsersNew, nil, d.UsersHandler.New, nil},
		{http.MethodGet, "/users", authz.UsersIndex, nil, d.UsersHandler.Index, nil},
		{http.MethodPost, "/users", authz.UsersCreate, nil, d.UsersHandler.Create, nil},
		{http.MethodGet, "/users/:id", authz.UsersShow, userID, d.UsersHandler.Show, nil},
		{http.MethodGet, "/users/:id/edit", authz.UsersEdit, userID, d.UsersHandler.Edit, nil},
		{http.MethodPatch, "/users/:id", authz.UsersUpdate, userID, d.UsersHandler.Update, nil},
		{http.MethodDelete, "/users/:id", authz.UsersDestroy, userID, d.UsersHandler.Destroy, nil},
		{http.MethodPost, "/microposts", authz.MicropostsCreate, nil, d.MicropostsHandler.Create, nil},
		{http.MethodDelete, "/microposts/:id", authz.MicropostsDestroy, nil, d.MicropostsHandler.Destroy, nil},
	}
	if d.SearchEnabled {
		routes = append(routes, route{http.MethodGet, "/users/search", authz.UsersSearch, nil, d.UsersHandler.Search, nil})
	}

	az := &auth.Authorizer{Guard: d.Guard, CookieSecure: d.CookieSecure}
	for _, r := range routes {
		if !d.Guard.Rules.Has(r.action) {
			return fmt.Errorf("route %s %s: %w: %s", r.method, r.path, authz.ErrUnknownAction, r.action)
		}
		mw := append([]echo.MiddlewareFunc{}, r.extra...)
		mw = append(mw, az.Require(r.action, r.target))
		e.Add(r.method, r.path, r.handler, mw...)
	}
	return nil
}

// Home is the landing page; it only reports who is signed in.
func Home(c echo.Context) error {
	u := authz.PrincipalFrom(c.Request().Context())
	if u == nil {
		return c.JSON(http.StatusOK, echo.Map{"page": "home", "signed_in": false})
	}
	return c.JSON(http.StatusOK, echo.Map{"page": "home", "signed_in": true, "user": u})
}
