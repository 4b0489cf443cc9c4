package csrf

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEcho(cfg Config) *echo.Echo {
	e := echo.New()
	e.Use(Middleware(cfg))
	h := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	e.GET("/", h)
	e.POST("/microposts", h)
	e.POST("/health/ready", h)
	return e
}

func issueToken(t *testing.T, e *echo.Echo) string {
	t.Helper()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	tok := rec.Header().Get("X-CSRF-Token")
	require.NotEmpty(t, tok)
	return tok
}

func post(e *echo.Echo, path string, opts ...func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(""))
	req.Host = "example.com"
	for _, o := range opts {
		o(req)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func sameOriginHeaders(r *http.Request) { r.Header.Set("Origin", "http://example.com") }

func TestMiddleware_AcceptsMatchingToken(t *testing.T) {
	e := newEcho(Config{})
	tok := issueToken(t, e)

	rec := post(e, "/microposts", sameOriginHeaders, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: tok})
		r.Header.Set("X-CSRF-Token", tok)
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddleware_AcceptsFormField(t *testing.T) {
	e := newEcho(Config{})
	tok := issueToken(t, e)

	req := httptest.NewRequest(http.MethodPost, "/microposts", strings.NewReader("csrf_token="+tok))
	req.Host = "example.com"
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	sameOriginHeaders(req)
	req.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: tok})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddleware_Rejects(t *testing.T) {
	e := newEcho(Config{})
	tok := issueToken(t, e)

	missing := post(e, "/microposts", sameOriginHeaders, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: tok})
	})
	assert.Equal(t, http.StatusForbidden, missing.Code)

	mismatch := post(e, "/microposts", sameOriginHeaders, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: tok})
		r.Header.Set("X-CSRF-Token", tok+"x")
	})
	assert.Equal(t, http.StatusForbidden, mismatch.Code)

	crossOrigin := post(e, "/microposts", func(r *http.Request) {
		r.Header.Set("Origin", "http://evil.example")
		r.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: tok})
		r.Header.Set("X-CSRF-Token", tok)
	})
	assert.Equal(t, http.StatusForbidden, crossOrigin.Code)
}

func TestMiddleware_Exemptions(t *testing.T) {
	e := newEcho(Config{SkipPaths: []string{"/health/ready"}})

	assert.Equal(t, http.StatusOK, post(e, "/health/ready").Code)

	bearer := post(e, "/microposts", func(r *http.Request) {
		r.Header.Set(echo.HeaderAuthorization, "Bearer abc")
	})
	assert.Equal(t, http.StatusOK, bearer.Code)
}

func TestSecureCompare(t *testing.T) {
	assert.True(t, secureCompare("abc", "abc"))
	assert.False(t, secureCompare("abc", "abd"))
	assert.False(t, secureCompare("abc", "ab"))
	assert.False(t, secureCompare("", ""))
}
