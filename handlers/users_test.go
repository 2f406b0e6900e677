package handlers

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"rov_inventory_go/models"
	"rov_inventory_go/services/backend/backendtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsersHandler(t *testing.T) {
	env := newTestEnv(t)
	env.fake.Seed("profiles",
		backendtest.Row{"user_id": "u1", "nombre": "Ana", "correo": "ana@example.com", "rol": "oficina", "is_active": true},
		backendtest.Row{"user_id": "u2", "nombre": "Luis <b>", "correo": "luis@example.com", "rol": "centro", "is_active": false},
	)
	env.fake.Seed("centros", backendtest.Row{"id": "c1", "nombre": "Calbuco"})

	c, rec := env.request(http.MethodGet, "/usuarios?partial=1", nil, adminProfile())
	require.NoError(t, UsersHandler(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `id="users"`)
	assert.Contains(t, body, "ana@example.com")
	assert.Contains(t, body, "Luis &lt;b&gt;")
	assert.Contains(t, body, `hx-post="/usuarios/u2/transferir"`)
	assert.NotContains(t, body, "<!DOCTYPE html>")
}

func TestCreateUserFormHandler(t *testing.T) {
	env := newTestEnv(t)
	form := url.Values{"nombre": {"Ana"}, "email": {"ana@example.com"}, "rutBody": {"12345678"}, "rol": {"oficina"}}

	c, rec := env.request(http.MethodPost, "/usuarios", form, adminProfile())
	require.NoError(t, CreateUserFormHandler(c))
	assert.Equal(t, "users-refresh", rec.Header().Get("HX-Trigger"))
	assert.Contains(t, rec.Body.String(), "Usuario creado.")
	assert.Len(t, env.fake.Rows("profiles"), 1)

	form.Set("rol", "dev")
	c, rec = env.request(http.MethodPost, "/usuarios", form, adminProfile())
	require.NoError(t, CreateUserFormHandler(c))
	assert.Empty(t, rec.Header().Get("HX-Trigger"))
	assert.Contains(t, rec.Body.String(), "Rol no válido.")
}

func TestSetActiveHandlerEndsSessions(t *testing.T) {
	env := newTestEnv(t)
	env.fake.AddUser("u1", "ana@example.com", "12345678")
	env.fake.Seed("profiles", backendtest.Row{"user_id": "u1", "nombre": "Ana", "rol": "oficina", "is_active": true})
	_, err := env.backend.Sessions.SignIn(context.Background(), "ana@example.com", "12345678", "", "")
	require.NoError(t, err)

	c, rec := env.request(http.MethodPost, "/usuarios/u1/activo", url.Values{"activo": {"false"}}, adminProfile())
	c.SetParamNames("id")
	c.SetParamValues("u1")
	require.NoError(t, SetActiveHandler(c))

	assert.Equal(t, "users-refresh", rec.Header().Get("HX-Trigger"))
	assert.Equal(t, false, env.fake.Rows("profiles")[0]["is_active"])
	var count int64
	env.db.Model(&models.Session{}).Where("user_id = ?", "u1").Count(&count)
	assert.Zero(t, count)
}

func TestUpdateRoleHandler(t *testing.T) {
	env := newTestEnv(t)
	env.fake.Seed("profiles", backendtest.Row{"user_id": "u1", "rol": "oficina"})

	c, rec := env.request(http.MethodPost, "/usuarios/u1/rol", url.Values{"rol": {"centro"}}, adminProfile())
	c.SetParamNames("id")
	c.SetParamValues("u1")
	require.NoError(t, UpdateRoleHandler(c))
	assert.Equal(t, "users-refresh", rec.Header().Get("HX-Trigger"))
	assert.Equal(t, "centro", env.fake.Rows("profiles")[0]["rol"])
}

func TestTransferUserHandler(t *testing.T) {
	env := newTestEnv(t)
	var got map[string]any
	env.fake.HandleRPC("rpc_transferir_usuario_definitivo", func(p map[string]any) (any, error) {
		got = p
		return nil, nil
	})

	c, rec := env.request(http.MethodPost, "/usuarios/u2/transferir", url.Values{"centro_id": {"c2"}, "fecha_inicio": {"2024-05-01"}}, adminProfile())
	c.SetParamNames("id")
	c.SetParamValues("u2")
	require.NoError(t, TransferUserHandler(c))
	assert.Equal(t, "users-refresh", rec.Header().Get("HX-Trigger"))
	assert.Equal(t, "c2", got["p_nuevo_centro_id"])
	assert.Equal(t, "2024-05-01", got["p_fecha_inicio"])
}
