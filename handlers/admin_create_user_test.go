package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"rov_inventory_go/services/backend"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postJSON(env *testEnv, body string) (echo.Context, *httptest.ResponseRecorder) {
	c, rec := env.request(http.MethodPost, "/api/admin/create-user", nil, adminProfile())
	req := httptest.NewRequest(http.MethodPost, "/api/admin/create-user", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c.SetRequest(req)
	return c, rec
}

func TestAdminCreateUserHandler(t *testing.T) {
	t.Run("wrong method", func(t *testing.T) {
		env := newTestEnv(t)
		c, rec := env.request(http.MethodGet, "/api/admin/create-user", nil, adminProfile())
		require.NoError(t, AdminCreateUserHandler(c))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		assert.Empty(t, env.fake.Calls())
	})

	t.Run("validation error is 400", func(t *testing.T) {
		env := newTestEnv(t)
		c, rec := postJSON(env, `{"nombre":"Ana","email":"ana@example.com","rutBody":"12345678","rol":"dev"}`)
		require.NoError(t, AdminCreateUserHandler(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), `"error"`)
		assert.Empty(t, env.fake.Calls())
	})

	t.Run("oversized field is 400", func(t *testing.T) {
		env := newTestEnv(t)
		c, rec := postJSON(env, `{"nombre":"Ana","email":"ana@example.com","rutBody":"12345678901234567890","rol":"oficina"}`)
		require.NoError(t, AdminCreateUserHandler(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Uno de los campos excede el largo permitido.")
		assert.Empty(t, env.fake.Calls())
	})

	t.Run("malformed body is 400", func(t *testing.T) {
		env := newTestEnv(t)
		c, rec := postJSON(env, `{"nombre":`)
		require.NoError(t, AdminCreateUserHandler(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing service role is 500", func(t *testing.T) {
		env := newTestEnv(t)
		env.backend.Admin = nil
		c, rec := postJSON(env, `{"nombre":"Ana","email":"ana@example.com","rutBody":"12345678","rol":"oficina"}`)
		require.NoError(t, AdminCreateUserHandler(c))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("identity refusal is 400", func(t *testing.T) {
		env := newTestEnv(t)
		env.fake.FailOn("admin:create", &backend.Error{Status: 422, Message: "User already registered"})
		c, rec := postJSON(env, `{"nombre":"Ana","email":"ana@example.com","rutBody":"12345678","rol":"oficina"}`)
		require.NoError(t, AdminCreateUserHandler(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "User already registered")
	})

	t.Run("network failure is 500", func(t *testing.T) {
		env := newTestEnv(t)
		env.fake.FailOn("admin:create", backend.ErrTransport)
		c, rec := postJSON(env, `{"nombre":"Ana","email":"ana@example.com","rutBody":"12345678","rol":"oficina"}`)
		require.NoError(t, AdminCreateUserHandler(c))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("success", func(t *testing.T) {
		env := newTestEnv(t)
		c, rec := postJSON(env, `{"nombre":"Ana","email":"Ana@Example.com","rutBody":"12.345.678-9","rol":"oficina"}`)
		require.NoError(t, AdminCreateUserHandler(c))
		require.Equal(t, http.StatusOK, rec.Code)

		var body CreateUserResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.True(t, body.OK)
		assert.NotEmpty(t, body.UserID)
		assert.Empty(t, body.Warning)
		assert.True(t, env.fake.HasUser(body.UserID))
		require.Len(t, env.fake.Rows("profiles"), 1)
		assert.Equal(t, "ana@example.com", env.fake.Rows("profiles")[0]["correo"])
	})

	t.Run("failed center assignment keeps the account with a warning", func(t *testing.T) {
		env := newTestEnv(t)
		c, rec := postJSON(env, `{"nombre":"Luis","email":"luis@example.com","rutBody":"11111111","rol":"centro","centroId":"c9"}`)
		require.NoError(t, AdminCreateUserHandler(c))
		require.Equal(t, http.StatusOK, rec.Code)

		var body CreateUserResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.True(t, body.OK)
		assert.NotEmpty(t, body.Warning)
		assert.True(t, env.fake.HasUser(body.UserID))
	})
}
