package partials

import (
	"context"

	"rov_inventory_go/services"
	ui "rov_inventory_go/templates/components"
	"rov_inventory_go/templates/viewstate"

	"github.com/a-h/templ"
)

// EquipmentView is the data of the equipment tab.
type EquipmentView struct {
	State   viewstate.State
	Rows    []services.EquipmentRow
	Profile *services.Profile
	Centers []services.Center
	Error   string
}

// EquipmentTab renders the equipment list with its actions.
func EquipmentTab(v EquipmentView) templ.Component {
	return ui.Func(func(ctx context.Context, h *ui.HTML) {
		h.F(`<section id="tab-content" hx-get="%s" hx-trigger="inventory-refresh from:body" hx-swap="outerHTML">`, stateURL("/htmx/equipos", v.State))
		h.Raw(`<form class="filters flex gap-2 mb-4" hx-get="/htmx/equipos" hx-target="#tab-content" hx-swap="outerHTML">`)
		h.F(`<input type="hidden" name="tab" value="%s">`, viewstate.TabEquipment)
		h.F(`<input type="search" name="q" value="%s" placeholder="%s">`, v.State.Query, ui.T(ctx, "equipment.search"))
		h.F(`<button type="submit">%s</button></form>`, ui.T(ctx, "common.filter"))
		if viewstate.CanCreateEquipment(v.Profile) {
			h.Render(ctx, equipmentCreateForm(v))
		}
		if v.Error != "" {
			h.Render(ctx, ui.Flash(ui.FlashError, v.Error))
		}
		h.Raw(`<div class="equipment-list grid gap-3">`)
		if len(v.Rows) == 0 && v.Error == "" {
			h.F(`<p class="empty">%s</p>`, ui.T(ctx, "common.no_rows"))
		}
		for _, e := range v.Rows {
			h.Render(ctx, equipmentCard(v, e))
		}
		h.Raw(`</div></section>`)
	})
}

func equipmentCreateForm(v EquipmentView) templ.Component {
	return ui.Func(func(ctx context.Context, h *ui.HTML) {
		h.F(`<details class="mb-4"><summary>%s</summary>`, ui.T(ctx, "equipment.new"))
		h.Raw(`<form hx-post="/equipos" hx-target="#flash" class="flex gap-2">`)
		h.F(`<input name="codigo" placeholder="%s">`, ui.T(ctx, "equipment.code_optional"))
		if v.Profile != nil && v.Profile.Role == services.RoleCentro {
			h.F(`<span class="center-fixed">%s</span>`, v.Profile.CenterName)
		} else {
			h.F(`<select name="centro_id"><option value="">%s</option>`, ui.T(ctx, "equipment.no_center"))
			for _, c := range v.Centers {
				h.F(`<option value="%s">%s</option>`, c.ID, c.Name)
			}
			h.Raw(`</select>`)
		}
		h.F(`<input name="descripcion" placeholder="%s">`, ui.T(ctx, "equipment.description"))
		h.F(`<button type="submit">%s</button></form></details>`, ui.T(ctx, "common.create"))
	})
}

func equipmentCard(v EquipmentView, e services.EquipmentRow) templ.Component {
	return ui.Func(func(ctx context.Context, h *ui.HTML) {
		h.F(`<article id="eq-%s" class="equipment bg-white border rounded-xl p-3">`, e.ID)
		h.F(`<header class="flex justify-between"><strong>%s</strong>`, e.Code)
		center := services.NoCenter
		if e.Center != nil {
			center = e.Center.Name
		}
		h.F(`<span class="center">%s</span><span class="badges">`, center)
		h.If(e.CoreOK(), `<span class="badge badge-core">`+templ.EscapeString(ui.T(ctx, "equipment.core_ok"))+`</span>`)
		h.If(e.Paired(), `<span class="badge badge-paired">`+templ.EscapeString(ui.T(ctx, "equipment.paired"))+`</span>`)
		if e.InWorkshop {
			h.F(`<span class="badge badge-workshop">%s</span>`, ui.T(ctx, "equipment.in_workshop", map[string]interface{}{"name": e.WorkshopName}))
		}
		h.If(!e.Active, `<span class="badge badge-inactive">`+templ.EscapeString(ui.T(ctx, "common.inactive"))+`</span>`)
		h.Raw(`</span></header>`)
		if e.Description != "" {
			h.F(`<p class="description">%s</p>`, e.Description)
		}

		manage := viewstate.CanManageEquipment(v.Profile)
		h.Raw(`<ul class="attached">`)
		if len(e.Components) == 0 {
			h.F(`<li class="empty">%s</li>`, ui.T(ctx, "equipment.no_components"))
		}
		for _, c := range e.Components {
			h.F(`<li data-role="%s"><span class="role">%s</span> <span class="code">%s</span>`, c.Role, c.Role, c.Code)
			if c.Optional {
				h.F(` <span class="optional">%s</span>`, ui.T(ctx, "equipment.optional"))
			}
			if manage {
				h.F(` <button hx-post="/equipos/%s/desarmar" hx-vals="%s" hx-target="#flash" hx-confirm="%s">%s</button>`,
					e.ID, ui.JSON(map[string]string{"componente_id": c.ID}),
					ui.T(ctx, "equipment.disassemble_confirm", map[string]interface{}{"code": c.Code}), ui.T(ctx, "equipment.disassemble"))
			}
			if viewstate.CanReportFault(v.Profile) {
				h.F(` <form class="inline" hx-post="/equipos/%s/falla" hx-target="#flash"><input type="hidden" name="componente_id" value="%s"><input name="detalle" required placeholder="%s"><button type="submit">%s</button></form>`,
					e.ID, c.ID, ui.T(ctx, "faults.detail"), ui.T(ctx, "faults.report"))
			}
			h.Raw(`</li>`)
		}
		h.Raw(`</ul>`)

		if manage {
			h.Raw(`<footer class="flex gap-2 mt-2">`)
			h.F(`<button hx-get="/equipos/%s/ensamblar" hx-target="#dialog">%s</button>`, e.ID, ui.T(ctx, "equipment.assemble"))
			if e.InWorkshop {
				h.F(`<button hx-post="/equipos/%s/taller" hx-vals="%s" hx-target="#flash">%s</button>`,
					e.ID, ui.JSON(map[string]string{"accion": "salida"}), ui.T(ctx, "equipment.workshop_out"))
			} else {
				h.F(`<form class="inline" hx-post="/equipos/%s/taller" hx-target="#flash"><input type="hidden" name="accion" value="entrada"><input name="taller" placeholder="%s"><button type="submit">%s</button></form>`,
					e.ID, services.DefaultWorkshop, ui.T(ctx, "equipment.workshop_in"))
			}
			h.F(`<button hx-get="/equipos/%s/historial" hx-target="#dialog">%s</button>`, e.ID, ui.T(ctx, "equipment.history"))
			h.Raw(`</footer>`)
		}
		if viewstate.CanEditEquipment(v.Profile) {
			h.F(`<details><summary>%s</summary><form hx-post="/equipos/%s/editar" hx-target="#flash" class="flex gap-2">`, ui.T(ctx, "common.edit"), e.ID)
			h.F(`<input name="codigo" value="%s" required><input name="descripcion" value="%s">`, e.Code, e.Description)
			h.F(`<input type="hidden" name="activo" value="0"><label><input type="checkbox" name="activo" value="1"%s> %s</label>`, ui.Checked(e.Active), ui.T(ctx, "common.active"))
			h.F(`<button type="submit">%s</button></form></details>`, ui.T(ctx, "common.save"))
		}
		h.Raw(`</article>`)
	})
}

// AssembleDialog lists the components that can be mounted on e. With none
// available it is informational only and has no submit.
func AssembleDialog(e *services.EquipmentRow, available []services.ComponentRow) templ.Component {
	return ui.Func(func(ctx context.Context, h *ui.HTML) {
		h.F(`<dialog open class="assemble-dialog"><h3>%s</h3>`, ui.T(ctx, "equipment.assemble_title", map[string]interface{}{"code": e.Code}))
		if len(available) == 0 {
			h.F(`<p class="info">%s</p>`, ui.T(ctx, "equipment.none_available"))
			h.F(`<form method="dialog"><button type="submit" class="close">%s</button></form></dialog>`, ui.T(ctx, "common.close"))
			return
		}
		h.F(`<form hx-post="/equipos/%s/ensamblar" hx-target="#flash"><select name="componente_id" required>`, e.ID)
		for _, c := range available {
			h.F(`<option value="%s">%s · %s · %s</option>`, c.ID, c.Code, c.Role, c.Location.String())
		}
		h.Raw(`</select>`)
		h.F(`<input type="hidden" name="opcional" value="0"><label><input type="checkbox" name="opcional" value="1"> %s</label>`, ui.T(ctx, "equipment.optional"))
		h.F(`<button type="submit">%s</button></form>`, ui.T(ctx, "equipment.assemble"))
		h.F(`<form method="dialog"><button type="submit" class="close">%s</button></form></dialog>`, ui.T(ctx, "common.close"))
	})
}
