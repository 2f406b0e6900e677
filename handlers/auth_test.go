package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"rov_inventory_go/middleware"
	"rov_inventory_go/models"
	"rov_inventory_go/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginPostHandler(t *testing.T) {
	env := newTestEnv(t)
	env.fake.AddUser("u1", "ana@example.com", "12345678")

	t.Run("valid credentials open a session", func(t *testing.T) {
		c, rec := env.request(http.MethodPost, "/login", url.Values{"email": {" Ana@Example.com "}, "password": {"12345678"}}, nil)
		require.NoError(t, LoginPostHandler(c))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "/inventario", rec.Header().Get("HX-Redirect"))
		var cookie *http.Cookie
		for _, ck := range rec.Result().Cookies() {
			if ck.Name == middleware.SessionCookieName {
				cookie = ck
			}
		}
		require.NotNil(t, cookie)

		var count int64
		env.db.Model(&models.Session{}).Where("token = ? AND user_id = ?", cookie.Value, "u1").Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("wrong password renders inline error", func(t *testing.T) {
		c, rec := env.request(http.MethodPost, "/login", url.Values{"email": {"ana@example.com"}, "password": {"nope"}}, nil)
		require.NoError(t, LoginPostHandler(c))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("HX-Redirect"))
		assert.Contains(t, rec.Body.String(), "Correo o contraseña incorrectos.")
	})

	t.Run("missing fields", func(t *testing.T) {
		before := env.fake.CallCount("auth", "signin")
		c, rec := env.request(http.MethodPost, "/login", url.Values{"email": {"ana@example.com"}}, nil)
		require.NoError(t, LoginPostHandler(c))
		assert.Contains(t, rec.Body.String(), "Ingrese correo y contraseña.")
		assert.Equal(t, before, env.fake.CallCount("auth", "signin"))
	})
}

func TestLogoutHandler(t *testing.T) {
	env := newTestEnv(t)
	env.fake.AddUser("u1", "ana@example.com", "12345678")
	session, err := env.backend.Sessions.SignIn(context.Background(), "ana@example.com", "12345678", "", "")
	require.NoError(t, err)

	c, rec := env.request(http.MethodPost, "/logout", url.Values{}, officeProfile())
	c.Request().AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: session.Token})
	c.Request().AddCookie(&http.Cookie{Name: "sb-proj-auth-token", Value: "stale"})
	require.NoError(t, LogoutHandler(c))

	assert.Equal(t, "/login", rec.Header().Get("HX-Redirect"))
	assert.Equal(t, 1, env.fake.CallCount("auth", "signout"))

	cleared := map[string]bool{}
	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 {
			cleared[ck.Name] = true
		}
	}
	assert.True(t, cleared[middleware.SessionCookieName])
	assert.True(t, cleared["sb-proj-auth-token"])

	var count int64
	env.db.Model(&models.Session{}).Where("id = ?", session.ID).Count(&count)
	assert.Zero(t, count)
}

func TestGetCurrentUserHandler(t *testing.T) {
	env := newTestEnv(t)

	c, rec := env.request(http.MethodGet, "/api/me", nil, centerProfile())
	require.NoError(t, GetCurrentUserHandler(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body CurrentUserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "u2", body.UserID)
	assert.Equal(t, services.RoleCentro, body.Role)
	assert.Equal(t, "Calbuco", body.CenterName)
	assert.Equal(t, "whoami", body.Source)

	c, rec = env.request(http.MethodGet, "/api/me", nil, nil)
	require.NoError(t, GetCurrentUserHandler(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthHandler(t *testing.T) {
	env := newTestEnv(t)
	c, rec := env.request(http.MethodGet, "/healthz", nil, nil)
	require.NoError(t, HealthHandler(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
