package loggingmw

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/sample_app/internal/authz"
	"github.com/Skotchmaster/sample_app/internal/logging"
	"github.com/Skotchmaster/sample_app/internal/middleware/auth"
)

// accessAttrs reports what the guard decided for the route, if it ran.
func accessAttrs(c echo.Context) []any {
	var attrs []any
	if a, ok := c.Get(auth.ActionKey).(authz.Action); ok {
		attrs = append(attrs, "action", string(a))
	}
	v, ok := c.Get(auth.VerdictKey).(authz.Verdict)
	if !ok {
		return attrs
	}
	attrs = append(attrs, "decision", v.Decision.String())
	if v.Principal != nil {
		attrs = append(attrs, "user_id", v.Principal.ID.String())
	}
	if v.Reason != authz.ReasonNone {
		attrs = append(attrs, "reason", string(v.Reason))
	}
	return attrs
}

// RequestLogger puts a request-scoped logger into the request context and
// logs one line per request. It must run after middleware.RequestID.
func RequestLogger(base *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			rid := req.Header.Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = c.Response().Header().Get(echo.HeaderXRequestID)
			}

			l := base.With(
				"method", req.Method,
				"path", c.Path(),
				"url", req.URL.Path,
				"remote_ip", c.RealIP(),
				"user_agent", req.UserAgent(),
			)
			if rid != "" {
				l = l.With("request_id", rid)
			}

			c.SetRequest(req.WithContext(logging.IntoContext(req.Context(), l)))

			start := time.Now()
			err := next(c)
			dur := time.Since(start)

			if err != nil {
				c.Error(err)
			}
			status := c.Response().Status

			attrs := append([]any{"status", status, "duration_ms", dur.Milliseconds()}, accessAttrs(c)...)
			switch {
			case err != nil && status >= 500:
				l.Error("request completed", append(attrs, "error", err.Error())...)
			case status >= 500:
				l.Error("request completed", attrs...)
			case status >= 400:
				l.Warn("request completed", attrs...)
			default:
				l.Info("request completed", append(attrs, "bytes", c.Response().Size)...)
			}
			return nil
		}
	}
}
