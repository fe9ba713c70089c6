package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeojw/kampung/internal/session"
)

func csrfRequest(t *testing.T, method, token string, sess *session.Session) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, "/v1/anything", nil)
	if token != "" {
		req.Header.Set("X-CSRF-Token", token)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if sess != nil {
		c.Set(ctxSession, sess)
	}

	handler := CSRF()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	return rec
}

func TestCSRF(t *testing.T) {
	sess := &session.Session{ID: "s1", CSRFToken: "expected-token"}

	t.Run("GET passes without token", func(t *testing.T) {
		rec := csrfRequest(t, http.MethodGet, "", sess)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("POST with matching token passes", func(t *testing.T) {
		rec := csrfRequest(t, http.MethodPost, "expected-token", sess)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("POST without token is rejected", func(t *testing.T) {
		rec := csrfRequest(t, http.MethodPost, "", sess)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("POST with wrong token is rejected", func(t *testing.T) {
		rec := csrfRequest(t, http.MethodPost, "attacker-token", sess)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("DELETE with wrong token is rejected", func(t *testing.T) {
		rec := csrfRequest(t, http.MethodDelete, "attacker-token", sess)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("POST without session is rejected", func(t *testing.T) {
		rec := csrfRequest(t, http.MethodPost, "expected-token", nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestCSRFAcceptsFormField(t *testing.T) {
	e := echo.New()
	form := "csrf_token=expected-token"
	req := httptest.NewRequest(http.MethodPost, "/v1/anything", strings.NewReader(form))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(ctxSession, &session.Session{ID: "s1", CSRFToken: "expected-token"})

	handler := CSRF()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuth(t *testing.T) {
	e := echo.New()
	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	t.Run("anonymous rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/notifications", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		require.NoError(t, RequireAuth()(next)(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("bound principal passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/notifications", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		p := &session.Principal{}
		p.User.ID = 7
		c.Set(ctxPrincipal, p)
		require.NoError(t, RequireAuth()(next)(c))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
