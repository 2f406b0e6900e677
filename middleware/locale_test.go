package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"rov_inventory_go/config"
	"rov_inventory_go/services/i18n"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestLocale(t *testing.T) {
	e := echo.New()
	cfg := &config.Config{Environment: "development"}

	run := func(req *http.Request) (echo.Context, *httptest.ResponseRecorder) {
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		handler := Locale(cfg)(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
		assert.NoError(t, handler(c))
		return c, rec
	}

	t.Run("query param sets cookie", func(t *testing.T) {
		c, rec := run(httptest.NewRequest(http.MethodGet, "/?lang=en", nil))
		assert.Equal(t, "en", GetLocale(c))
		assert.Equal(t, "en", i18n.GetLocale(c.Request().Context()))
		cookies := rec.Result().Cookies()
		if assert.Len(t, cookies, 1) {
			assert.Equal(t, "lang", cookies[0].Name)
			assert.Equal(t, "en", cookies[0].Value)
		}
	})

	t.Run("unsupported query falls back to spanish", func(t *testing.T) {
		c, _ := run(httptest.NewRequest(http.MethodGet, "/?lang=fr", nil))
		assert.Equal(t, "es", GetLocale(c))
	})

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "lang", Value: "en"})
		c, _ := run(req)
		assert.Equal(t, "en", GetLocale(c))
	})

	t.Run("accept language order", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept-Language", "de-DE, en-US;q=0.8, es;q=0.5")
		c, _ := run(req)
		assert.Equal(t, "en", GetLocale(c))
	})

	t.Run("default", func(t *testing.T) {
		c, _ := run(httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, "es", GetLocale(c))
	})
}
