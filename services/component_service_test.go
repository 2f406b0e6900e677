package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"rov_inventory_go/services/backend"
	"rov_inventory_go/services/backend/backendtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedComponents(fake *backendtest.Fake, active, inactive int) {
	for i := 0; i < active; i++ {
		fake.Seed(componentLocationView, backendtest.Row{
			"componente_id": fmt.Sprintf("a%02d", i),
			"codigo":        fmt.Sprintf("ROV-%02d", i),
			"tipo":          "ROV",
			"estado":        "operativo",
			"ubic_tipo":     "bodega",
			"centro":        "Calbuco",
			"is_active":     true,
		})
	}
	for i := 0; i < inactive; i++ {
		fake.Seed(componentLocationView, backendtest.Row{
			"componente_id": fmt.Sprintf("i%02d", i),
			"codigo":        fmt.Sprintf("SEN-%02d", i),
			"tipo":          "Sensor",
			"estado":        "baja",
			"ubic_tipo":     "reserva",
			"is_active":     false,
		})
	}
}

func TestListComponents(t *testing.T) {
	ctx := context.Background()
	fake := backendtest.New()
	seedComponents(fake, 15, 3)

	t.Run("active only paginates", func(t *testing.T) {
		page, err := ListComponents(ctx, fake, ComponentFilter{Page: 1, ActiveOnly: true})
		require.NoError(t, err)
		assert.Len(t, page.Rows, 10)
		assert.Equal(t, int64(15), page.TotalCount)
		assert.Equal(t, 2, page.TotalPages)

		second, err := ListComponents(ctx, fake, ComponentFilter{Page: 2, ActiveOnly: true})
		require.NoError(t, err)
		assert.Len(t, second.Rows, 5)
	})

	t.Run("page below one is clamped", func(t *testing.T) {
		page, err := ListComponents(ctx, fake, ComponentFilter{Page: 0})
		require.NoError(t, err)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, int64(18), page.TotalCount)
	})

	t.Run("filters are substring matches", func(t *testing.T) {
		page, err := ListComponents(ctx, fake, ComponentFilter{Page: 1, StatusContains: "BAJ", TypeContains: "sens"})
		require.NoError(t, err)
		assert.Equal(t, int64(3), page.TotalCount)
		assert.Equal(t, "Reserva", page.Rows[0].Location.String())
		assert.Equal(t, NoCenter, page.Rows[0].Center)
		assert.Equal(t, RoleSensor, page.Rows[0].Role)
		assert.False(t, page.Rows[0].Active)

		page, err = ListComponents(ctx, fake, ComponentFilter{Page: 1, CodeContains: "rov-1"})
		require.NoError(t, err)
		assert.Equal(t, int64(5), page.TotalCount)
	})

	t.Run("empty result has one page", func(t *testing.T) {
		page, err := ListComponents(ctx, fake, ComponentFilter{Page: 1, StatusContains: "nada"})
		require.NoError(t, err)
		assert.Empty(t, page.Rows)
		assert.Equal(t, 1, page.TotalPages)
	})

	t.Run("page past the end falls back to the last page", func(t *testing.T) {
		shrunk := backendtest.New()
		seedComponents(shrunk, 10, 1)

		page, err := ListComponents(ctx, shrunk, ComponentFilter{Page: 2, ActiveOnly: true})
		require.NoError(t, err)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, 1, page.TotalPages)
		assert.Equal(t, int64(10), page.TotalCount)
		assert.Len(t, page.Rows, 10)
		assert.Equal(t, 2, shrunk.CallCount("select", componentLocationView))
	})

	t.Run("empty result past the end is one empty page", func(t *testing.T) {
		page, err := ListComponents(ctx, fake, ComponentFilter{Page: 3, StatusContains: "nada"})
		require.NoError(t, err)
		assert.Equal(t, 1, page.Page)
		assert.Empty(t, page.Rows)
	})

	t.Run("backend failure is wrapped", func(t *testing.T) {
		broken := backendtest.New()
		broken.FailOn("select:"+componentLocationView, backend.ErrTransport)
		_, err := ListComponents(ctx, broken, ComponentFilter{Page: 1})
		assert.True(t, errors.Is(err, backend.ErrTransport))
		assert.Equal(t, KindTransport, ClassifyError(err).Kind)
	})
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 1, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 2, TotalPages(11, 10))
	assert.Equal(t, 1, TotalPages(5, 0))
}

func TestListAvailableForAssembly(t *testing.T) {
	fake := backendtest.New()
	seedComponents(fake, 2, 1)
	fake.Seed(componentLocationView, backendtest.Row{
		"componente_id": "m1", "codigo": "CTL-1", "tipo": "Controlador", "ubic_tipo": "equipo", "equipo_codigo": "EQ-1", "is_active": true,
	})

	rows, err := ListAvailableForAssembly(context.Background(), fake)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.False(t, r.Location.Mounted())
		assert.True(t, r.Active)
	}
}

func TestLogicalDecommission(t *testing.T) {
	ctx := context.Background()
	fake := backendtest.New()
	var got map[string]any
	fake.HandleRPC("rpc_componente_baja_logica", func(p map[string]any) (any, error) {
		got = p
		if p["p_componente_id"] == "busy" {
			return nil, &backend.Error{Status: 400, Code: "P0001", Message: "Movimiento activo: cierre/reciba antes de dar de baja."}
		}
		return nil, nil
	})

	require.NoError(t, LogicalDecommission(ctx, fake, "c1"))
	assert.Equal(t, true, got["p_marcar_estado_baja"])

	err := LogicalDecommission(ctx, fake, "busy")
	f := ClassifyError(err)
	assert.Equal(t, KindDomain, f.Kind)
	assert.Equal(t, "errors.active_movement", f.Key)

	err = LogicalDecommission(ctx, fake, " ")
	assert.Equal(t, KindValidation, ClassifyError(err).Kind)
}

func TestReportFault(t *testing.T) {
	ctx := context.Background()
	fake := backendtest.New()
	fake.HandleRPC("rpc_falla_registrar", func(p map[string]any) (any, error) { return nil, nil })

	err := ReportFault(ctx, fake, "c1", "  <b></b> ")
	assert.Equal(t, "errors.detail_required", ClassifyError(err).Key)
	assert.Equal(t, 0, fake.CallCount("rpc", "rpc_falla_registrar"))

	require.NoError(t, ReportFault(ctx, fake, "c1", "Cable cortado"))
	calls := fake.Calls()
	assert.Equal(t, "Cable cortado", calls[len(calls)-1].Params["p_detalle"])
}

func TestMoveToWarehouse(t *testing.T) {
	ctx := context.Background()

	setup := func() *backendtest.Fake {
		fake := backendtest.New()
		fake.Seed(componentLocationView,
			backendtest.Row{"componente_id": "w1", "codigo": "SEN-1", "tipo": "Sensor", "ubic_tipo": "bodega", "centro": "Calbuco"},
			backendtest.Row{"componente_id": "m1", "codigo": "ROV-1", "tipo": "ROV", "ubic_tipo": "equipo", "equipo_codigo": "EQ-1"},
			backendtest.Row{"componente_id": "r1", "codigo": "SEN-2", "tipo": "Sensor", "ubic_tipo": "reserva"},
		)
		fake.Seed("componente_bodega_historial",
			backendtest.Row{"componente_id": "w1", "centro_id": "old", "fecha_fin": "2023-01-01"},
			backendtest.Row{"componente_id": "w1", "centro_id": "c-cal", "fecha_fin": nil},
		)
		return fake
	}

	t.Run("warehouse move creates and receives", func(t *testing.T) {
		fake := setup()
		var created map[string]any
		fake.HandleRPC("rpc_mov_crear", func(p map[string]any) (any, error) {
			created = p
			return "mov-1", nil
		})
		fake.HandleRPC("rpc_mov_recepcionar", func(p map[string]any) (any, error) { return nil, nil })

		id, err := MoveToWarehouse(ctx, fake, "w1", "c-dest")
		require.NoError(t, err)
		assert.Equal(t, "mov-1", id)
		assert.Equal(t, "c-cal", created["p_origen"])
		assert.Equal(t, "c-dest", created["p_destino"])
		assert.Equal(t, []string{"w1"}, created["p_componentes"])
	})

	t.Run("reserve move has no origin", func(t *testing.T) {
		fake := setup()
		var created map[string]any
		fake.HandleRPC("rpc_mov_crear", func(p map[string]any) (any, error) {
			created = p
			return "mov-2", nil
		})
		fake.HandleRPC("rpc_mov_recepcionar", func(p map[string]any) (any, error) { return nil, nil })

		_, err := MoveToWarehouse(ctx, fake, "r1", "c-dest")
		require.NoError(t, err)
		assert.Nil(t, created["p_origen"])
		assert.Equal(t, 0, fake.CallCount("select", "componente_bodega_historial"))
	})

	t.Run("mounted components do not move", func(t *testing.T) {
		fake := setup()
		_, err := MoveToWarehouse(ctx, fake, "m1", "c-dest")
		assert.Equal(t, "errors.not_movable", ClassifyError(err).Key)
		assert.Equal(t, 0, fake.CallCount("rpc", "rpc_mov_crear"))
	})

	t.Run("failed receive leaves transit", func(t *testing.T) {
		fake := setup()
		fake.HandleRPC("rpc_mov_crear", func(p map[string]any) (any, error) { return "mov-3", nil })
		fake.HandleRPC("rpc_mov_recepcionar", func(p map[string]any) (any, error) {
			return nil, &backend.Error{Status: 403, Code: "42501", Message: "permission denied"}
		})

		id, err := MoveToWarehouse(ctx, fake, "w1", "c-dest")
		assert.Equal(t, "mov-3", id)
		var mi *MoveIncompleteError
		require.True(t, errors.As(err, &mi))
		assert.Equal(t, "mov-3", mi.MovementID)

		f := ClassifyError(err)
		assert.Equal(t, KindPermission, f.Kind)
		assert.Equal(t, "errors.move_in_transit", f.Key)
		assert.Equal(t, "mov-3", f.Args["movement"])
	})

	t.Run("missing destination is validation", func(t *testing.T) {
		fake := setup()
		_, err := MoveToWarehouse(ctx, fake, "w1", "")
		assert.Equal(t, KindValidation, ClassifyError(err).Kind)
		assert.Empty(t, fake.Calls())
	})
}

func TestCreateComponent(t *testing.T) {
	ctx := context.Background()
	fake := backendtest.New()
	var got map[string]any
	fake.HandleRPC("rpc_componente_crear", func(p map[string]any) (any, error) {
		got = p
		return []map[string]any{{"id": "new-1", "codigo": "ROV-099"}}, nil
	})

	_, err := CreateComponent(ctx, fake, NewComponent{TypeID: "t1", StatusID: "s1"})
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "validation.serial.required", ve.Key)

	_, err = CreateComponent(ctx, fake, NewComponent{TypeID: "t1", StatusID: "s1", Serial: "x", IngestedOn: "2024/01/01"})
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "validation.ingestedon.iso_date", ve.Key)

	ref, err := CreateComponent(ctx, fake, NewComponent{TypeID: "t1", StatusID: "s1", Serial: " SN-1 "})
	require.NoError(t, err)
	assert.Equal(t, "ROV-099", ref.Codigo)
	assert.Equal(t, "SN-1", got["p_serie"])
	assert.Nil(t, got["p_codigo"])
	assert.Nil(t, got["p_fecha"])
}

func TestComponentCatalogs(t *testing.T) {
	fake := backendtest.New()
	fake.Seed("tipo_componente", backendtest.Row{"id": "t1", "nombre": "ROV", "display_name": "Vehículo ROV"})
	fake.Seed("estado_componente", backendtest.Row{"id": "s1", "nombre": "operativo"})

	types, statuses, err := ComponentCatalogs(context.Background(), fake)
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.Equal(t, "Vehículo ROV", types[0].Label())
	assert.Equal(t, "operativo", statuses[0].Label())
}
