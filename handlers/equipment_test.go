package handlers

import (
	"net/http"
	"net/url"
	"testing"

	"rov_inventory_go/models"
	"rov_inventory_go/services/backend/backendtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedEquipment(fake *backendtest.Fake) {
	fake.Seed("equipos", backendtest.Row{"id": "e1", "codigo": "EQ-01", "is_active": true})
	fake.Seed("equipo_asignacion", backendtest.Row{"equipo_id": "e1", "centro_id": "c1", "fecha_fin": nil})
	fake.Seed("centros", backendtest.Row{"id": "c1", "nombre": "Calbuco"})
	fake.Seed("equipo_componente",
		backendtest.Row{"equipo_id": "e1", "componente_id": "k1", "es_opcional": false, "fecha_fin": nil},
		backendtest.Row{"equipo_id": "e1", "componente_id": "k4", "es_opcional": true, "fecha_fin": nil},
	)
	fake.Seed(componentView,
		backendtest.Row{"componente_id": "k1", "codigo": "ROV-12", "tipo": "ROV", "ubic_tipo": "equipo", "equipo_codigo": "EQ-01", "is_active": true},
		backendtest.Row{"componente_id": "k4", "codigo": "SEN-1", "tipo": "Sensor", "ubic_tipo": "equipo", "equipo_codigo": "EQ-01", "is_active": true},
		backendtest.Row{"componente_id": "f1", "codigo": "ROV-20", "tipo": "ROV", "ubic_tipo": "bodega", "centro": "Calbuco", "is_active": true},
		backendtest.Row{"componente_id": "f2", "codigo": "UMB-2", "tipo": "Umbilical", "ubic_tipo": "reserva", "is_active": true},
	)
}

func TestAssembleDialogHandler(t *testing.T) {
	env := newTestEnv(t)
	seedEquipment(env.fake)

	c, rec := env.request(http.MethodGet, "/equipos/e1/ensamblar", nil, centerProfile())
	withID(c, "e1")
	require.NoError(t, AssembleDialogHandler(c))
	body := rec.Body.String()
	assert.Contains(t, body, "<dialog")
	assert.Contains(t, body, "UMB-2")
	assert.Contains(t, body, "ROV-20")
	assert.NotContains(t, body, "SEN-1")
}

func TestAssembleHandler(t *testing.T) {
	t.Run("second ROV is refused before any procedure call", func(t *testing.T) {
		env := newTestEnv(t)
		seedEquipment(env.fake)
		c, rec := env.request(http.MethodPost, "/equipos/e1/ensamblar", url.Values{"componente_id": {"f1"}, "opcional": {"0"}}, centerProfile())
		withID(c, "e1")
		require.NoError(t, AssembleHandler(c))
		assert.Empty(t, rec.Header().Get("HX-Trigger"))
		assert.Contains(t, rec.Body.String(), "ROV")
		assert.Zero(t, env.fake.CallCount("rpc", "rpc_ensamblar_componente"))
	})

	t.Run("optional checkbox selects the optional procedure", func(t *testing.T) {
		env := newTestEnv(t)
		seedEquipment(env.fake)
		env.fake.HandleRPC("rpc_equipo_agregar_componente", func(p map[string]any) (any, error) { return nil, nil })
		c, rec := env.request(http.MethodPost, "/equipos/e1/ensamblar", url.Values{"componente_id": {"f2"}, "opcional": {"0", "1"}}, centerProfile())
		withID(c, "e1")
		require.NoError(t, AssembleHandler(c))
		assert.Equal(t, "inventory-refresh", rec.Header().Get("HX-Trigger"))
		assert.Equal(t, 1, env.fake.CallCount("rpc", "rpc_equipo_agregar_componente"))
	})
}

func TestDisassembleHandler(t *testing.T) {
	env := newTestEnv(t)
	seedEquipment(env.fake)
	env.fake.HandleRPC("rpc_equipo_quitar_componente", func(p map[string]any) (any, error) { return nil, nil })

	c, rec := env.request(http.MethodPost, "/equipos/e1/desarmar", url.Values{"componente_id": {"k4"}}, officeProfile())
	withID(c, "e1")
	require.NoError(t, DisassembleHandler(c))
	assert.Equal(t, "inventory-refresh", rec.Header().Get("HX-Trigger"))
	assert.Equal(t, 1, env.fake.CallCount("rpc", "rpc_equipo_quitar_componente"))

	c, rec = env.request(http.MethodPost, "/equipos/e1/desarmar", url.Values{"componente_id": {"f1"}}, officeProfile())
	withID(c, "e1")
	require.NoError(t, DisassembleHandler(c))
	assert.Contains(t, rec.Body.String(), "no está montado")
}

func TestReportEquipmentFaultHandler(t *testing.T) {
	env := newTestEnv(t)
	seedEquipment(env.fake)
	env.fake.HandleRPC("rpc_falla_registrar", func(p map[string]any) (any, error) { return nil, nil })

	c, rec := env.request(http.MethodPost, "/equipos/e1/falla", url.Values{"componente_id": {"f1"}, "detalle": {"sin video"}}, centerProfile())
	withID(c, "e1")
	require.NoError(t, ReportEquipmentFaultHandler(c))
	assert.Zero(t, env.fake.CallCount("rpc", "rpc_falla_registrar"))
	assert.Contains(t, rec.Body.String(), `role="alert"`)

	c, rec = env.request(http.MethodPost, "/equipos/e1/falla", url.Values{"componente_id": {"k1"}, "detalle": {"sin video"}}, centerProfile())
	withID(c, "e1")
	require.NoError(t, ReportEquipmentFaultHandler(c))
	assert.Equal(t, "inventory-refresh", rec.Header().Get("HX-Trigger"))
}

func TestWorkshopHandler(t *testing.T) {
	env := newTestEnv(t)
	var checkin map[string]any
	env.fake.HandleRPC("rpc_equipo_taller_checkin", func(p map[string]any) (any, error) {
		checkin = p
		return nil, nil
	})
	env.fake.HandleRPC("rpc_equipo_taller_checkout", func(p map[string]any) (any, error) { return nil, nil })

	c, rec := env.request(http.MethodPost, "/equipos/e1/taller", url.Values{"accion": {"entrada"}, "taller": {""}}, officeProfile())
	withID(c, "e1")
	require.NoError(t, WorkshopHandler(c))
	assert.Equal(t, "inventory-refresh", rec.Header().Get("HX-Trigger"))
	assert.NotEmpty(t, checkin["p_taller"])

	c, rec = env.request(http.MethodPost, "/equipos/e1/taller", url.Values{"accion": {"salida"}}, officeProfile())
	withID(c, "e1")
	require.NoError(t, WorkshopHandler(c))
	assert.Equal(t, 1, env.fake.CallCount("rpc", "rpc_equipo_taller_checkout"))

	c, rec = env.request(http.MethodPost, "/equipos/e1/taller", url.Values{"accion": {"otra"}}, officeProfile())
	withID(c, "e1")
	require.NoError(t, WorkshopHandler(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateEquipmentHandlerUsesOwnCenter(t *testing.T) {
	env := newTestEnv(t)
	var got map[string]any
	env.fake.HandleRPC("rpc_equipo_crear", func(p map[string]any) (any, error) {
		got = p
		return map[string]string{"id": "e9", "codigo": "EQ-09"}, nil
	})

	c, rec := env.request(http.MethodPost, "/equipos", url.Values{"centro_id": {"c7"}}, centerProfile())
	require.NoError(t, CreateEquipmentHandler(c))
	assert.Equal(t, "inventory-refresh", rec.Header().Get("HX-Trigger"))
	assert.Equal(t, "c1", got["p_centro_id"])
	assert.Contains(t, rec.Body.String(), "EQ-09")
}

func TestEditEquipmentHandlerRequiresStaff(t *testing.T) {
	env := newTestEnv(t)
	c, rec := env.request(http.MethodPost, "/equipos/e1/editar", url.Values{"codigo": {"EQ-01"}}, centerProfile())
	withID(c, "e1")
	require.NoError(t, EditEquipmentHandler(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Zero(t, env.fake.CallCount("rpc", "rpc_equipo_editar"))
}

func TestEquipmentHistoryHandler(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.db.Create(&models.AuditLog{
		ResourceType: "equipment", ResourceID: "e1", Action: models.AuditActionAssemble,
		Description: "Component assembled", UserEmail: "ana@example.com", UserRole: "oficina",
	}).Error)

	c, rec := env.request(http.MethodGet, "/equipos/e1/historial", nil, officeProfile())
	withID(c, "e1")
	require.NoError(t, EquipmentHistoryHandler(c))
	assert.Contains(t, rec.Body.String(), "Component assembled")
	assert.Contains(t, rec.Body.String(), "ana@example.com")
}
