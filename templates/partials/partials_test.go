package partials

import (
	"bytes"
	"context"
	"testing"

	"rov_inventory_go/services"
	"rov_inventory_go/templates/viewstate"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func TestAssembleDialogWithoutCandidatesHasNoSubmit(t *testing.T) {
	eq := &services.EquipmentRow{ID: "e1", Code: "EQP-0001"}

	html := render(t, AssembleDialog(eq, nil))
	assert.NotContains(t, html, `hx-post`)
	assert.NotContains(t, html, `<select`)
	assert.Contains(t, html, `class="info"`)

	html = render(t, AssembleDialog(eq, []services.ComponentRow{{ID: "c1", Code: "ROV-12", Role: "ROV"}}))
	assert.Contains(t, html, `hx-post="/equipos/e1/ensamblar"`)
	assert.Contains(t, html, `value="c1"`)
}

func TestComponentTabEscapesAndGatesActions(t *testing.T) {
	page := &services.ComponentPage{
		Rows: []services.ComponentRow{{
			ID: "c1", Code: "<b>ROV-1</b>", Active: true,
			Location: services.LocationFrom("bodega", "Centro Sur", ""),
		}},
		TotalCount: 15, Page: 1, TotalPages: 2,
	}
	centers := []services.Center{{ID: "ct1", Name: "Centro Norte"}}

	field := render(t, ComponentTab(ComponentsView{
		State: viewstate.Default(), Page: page, Centers: centers,
		Profile: &services.Profile{Role: services.RoleCentro},
	}))
	assert.Contains(t, field, "&lt;b&gt;ROV-1&lt;/b&gt;")
	assert.Contains(t, field, "/componentes/c1/falla")
	assert.NotContains(t, field, "/componentes/c1/baja")
	assert.NotContains(t, field, "/componentes/c1/mover")
	assert.Contains(t, field, `rel="next"`)
	assert.NotContains(t, field, `rel="prev"`)

	office := render(t, ComponentTab(ComponentsView{
		State: viewstate.Default(), Page: page, Centers: centers,
		Profile: &services.Profile{Role: services.RoleOficina},
	}))
	assert.Contains(t, office, "/componentes/c1/baja")
	assert.Contains(t, office, "/componentes/c1/mover")
}

func TestEquipmentTabBadges(t *testing.T) {
	row := services.EquipmentRow{
		ID: "e1", Code: "EQP-0001", Active: true,
		Components: []services.Attached{
			{ID: "a", Code: "ROV-7", Role: services.RoleROV},
			{ID: "b", Code: "CTRL-7", Role: services.RoleController},
			{ID: "c", Code: "UMB-1", Role: services.RoleUmbilical},
		},
	}
	html := render(t, EquipmentTab(EquipmentView{
		State: viewstate.State{Tab: viewstate.TabEquipment, Page: 1},
		Rows:  []services.EquipmentRow{row}, Profile: &services.Profile{Role: services.RoleCentro, CenterID: "c1"},
	}))
	assert.Contains(t, html, "badge-core")
	assert.Contains(t, html, "badge-paired")
	assert.Contains(t, html, "/equipos/e1/desarmar")
	assert.NotContains(t, html, "/equipos/e1/editar")
}
