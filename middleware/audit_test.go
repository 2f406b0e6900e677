package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"rov_inventory_go/services"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestAuditContext(t *testing.T) {
	e := echo.New()

	t.Run("from profile", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("User-Agent", "test-agent")
		c := e.NewContext(req, httptest.NewRecorder())
		c.Set(ContextKeyProfile, &services.Profile{UserID: "u1", Email: "ana@example.com", Role: "centro", CenterName: "Centro Sur"})

		err := AuditContext()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })(c)
		assert.NoError(t, err)

		ac := GetAuditContext(c)
		assert.Equal(t, "u1", ac.UserID)
		assert.Equal(t, "ana@example.com", ac.UserEmail)
		assert.Equal(t, "centro", ac.UserRole)
		assert.Equal(t, "Centro Sur", ac.CenterName)
		assert.Equal(t, "test-agent", ac.UserAgent)
	})

	t.Run("without middleware", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.1.2.3:5555"
		c := e.NewContext(req, httptest.NewRecorder())
		ac := GetAuditContext(c)
		assert.Empty(t, ac.UserID)
		assert.Equal(t, "10.1.2.3", ac.IPAddress)
	})
}

func TestSecurityHeaders(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	err := SecurityHeaders()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })(c)
	assert.NoError(t, err)

	nonce := GetNonce(c)
	assert.NotEmpty(t, nonce)
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "'nonce-"+nonce+"'")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, nonce, c.Request().Context().Value(NonceKey))
}
