package handlers

import (
	"net/http"
	"net/url"
	"testing"

	"rov_inventory_go/services/backend/backendtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogsHandler(t *testing.T) {
	env := newTestEnv(t)
	env.fake.Seed("estado_puerto", backendtest.Row{"codigo": "abierto", "nombre": "Abierto"})

	c, rec := env.request(http.MethodGet, "/catalogos?partial=1&tipo=estado_puerto", nil, adminProfile())
	require.NoError(t, CatalogsHandler(c))
	assert.Contains(t, rec.Body.String(), "Abierto")
	assert.Contains(t, rec.Body.String(), `hx-post="/catalogos/estado_puerto"`)

	c, rec = env.request(http.MethodGet, "/catalogos?partial=1&tipo=usuarios", nil, adminProfile())
	require.NoError(t, CatalogsHandler(c))
	assert.Contains(t, rec.Body.String(), `hx-post="/catalogos/tipo_componente"`)
}

func TestUpsertCatalogHandler(t *testing.T) {
	env := newTestEnv(t)

	c, rec := env.request(http.MethodPost, "/catalogos/actividad_catalogo", url.Values{
		"codigo": {" Inmersion "}, "nombre": {"Inmersión"}, "requiere_equipo": {"1"}, "activo": {"0", "1"},
	}, adminProfile())
	c.SetParamNames("kind")
	c.SetParamValues("actividad_catalogo")
	require.NoError(t, UpsertCatalogHandler(c))
	assert.Equal(t, "catalog-refresh", rec.Header().Get("HX-Trigger"))

	rows := env.fake.Rows("actividad_catalogo")
	require.Len(t, rows, 1)
	assert.Equal(t, "inmersion", rows[0]["codigo"])
	assert.Equal(t, true, rows[0]["requiere_equipo"])
	assert.Equal(t, true, rows[0]["is_active"])

	c, rec = env.request(http.MethodPost, "/catalogos/nope", url.Values{"codigo": {"x"}, "nombre": {"y"}}, adminProfile())
	c.SetParamNames("kind")
	c.SetParamValues("nope")
	require.NoError(t, UpsertCatalogHandler(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
