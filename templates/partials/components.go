package partials

import (
	"context"

	"rov_inventory_go/services"
	ui "rov_inventory_go/templates/components"
	"rov_inventory_go/templates/viewstate"

	"github.com/a-h/templ"
)

// ComponentsView is the data of the component inventory tab.
type ComponentsView struct {
	State    viewstate.State
	Page     *services.ComponentPage
	Profile  *services.Profile
	Types    []services.CatalogOption
	Statuses []services.CatalogOption
	Centers  []services.Center
	Error    string
}

func stateURL(base string, s viewstate.State) string {
	return base + "?" + s.Encode()
}

// ComponentTab renders the filter bar, the table and the pager. It reloads
// itself on the inventory-refresh event sent by command endpoints.
func ComponentTab(v ComponentsView) templ.Component {
	return ui.Func(func(ctx context.Context, h *ui.HTML) {
		self := stateURL("/htmx/componentes", v.State)
		h.F(`<section id="tab-content" hx-get="%s" hx-trigger="inventory-refresh from:body" hx-swap="outerHTML">`, self)
		h.Render(ctx, componentFilters(v))
		if viewstate.CanMoveComponents(v.Profile) {
			h.Render(ctx, componentCreateForm(v))
		}
		if v.Error != "" {
			h.Render(ctx, ui.Flash(ui.FlashError, v.Error))
		}
		if v.Page != nil {
			h.Render(ctx, componentTable(v))
			h.Render(ctx, Pager("/htmx/componentes", v.State, viewstate.Pager(v.State, v.Page.TotalCount)))
		}
		h.Raw(`</section>`)
	})
}

func componentFilters(v ComponentsView) templ.Component {
	return ui.Func(func(ctx context.Context, h *ui.HTML) {
		h.Raw(`<form class="filters flex gap-2 mb-4" hx-get="/htmx/componentes" hx-target="#tab-content" hx-swap="outerHTML" hx-trigger="submit, change">`)
		h.F(`<input type="hidden" name="%s" value="%s">`, viewstate.CurrentParam, v.State.Encode())
		h.F(`<input type="search" name="q" value="%s" placeholder="%s">`, v.State.Query, ui.T(ctx, "components.search"))
		h.F(`<select name="tipo"><option value="">%s</option>`, ui.T(ctx, "components.all_types"))
		for _, t := range v.Types {
			h.F(`<option value="%s"%s>%s</option>`, t.Nombre, ui.Selected(t.Nombre, v.State.Type), t.Label())
		}
		h.Raw(`</select>`)
		h.F(`<select name="estado"><option value="">%s</option>`, ui.T(ctx, "components.all_statuses"))
		for _, st := range v.Statuses {
			h.F(`<option value="%s"%s>%s</option>`, st.Nombre, ui.Selected(st.Nombre, v.State.Status), st.Label())
		}
		h.Raw(`</select>`)
		h.F(`<input type="hidden" name="activos" value="0"><label><input type="checkbox" name="activos" value="1"%s> %s</label>`,
			ui.Checked(v.State.ActiveOnly), ui.T(ctx, "components.active_only"))
		h.F(`<button type="submit">%s</button></form>`, ui.T(ctx, "common.filter"))
	})
}

func componentCreateForm(v ComponentsView) templ.Component {
	return ui.Func(func(ctx context.Context, h *ui.HTML) {
		h.F(`<details class="mb-4"><summary>%s</summary>`, ui.T(ctx, "components.new"))
		h.Raw(`<form hx-post="/componentes" hx-target="#flash" class="grid grid-cols-3 gap-2">`)
		h.F(`<select name="tipo_id" required><option value="">%s</option>`, ui.T(ctx, "components.type"))
		for _, t := range v.Types {
			h.F(`<option value="%s">%s</option>`, t.ID, t.Label())
		}
		h.Raw(`</select>`)
		h.F(`<select name="estado_id" required><option value="">%s</option>`, ui.T(ctx, "components.status"))
		for _, st := range v.Statuses {
			h.F(`<option value="%s">%s</option>`, st.ID, st.Label())
		}
		h.Raw(`</select>`)
		h.F(`<input name="serie" required placeholder="%s">`, ui.T(ctx, "components.serial"))
		h.F(`<input name="codigo" placeholder="%s">`, ui.T(ctx, "components.manual_code"))
		h.F(`<input type="date" name="fecha_ingreso" title="%s">`, ui.T(ctx, "components.ingested_on"))
		h.F(`<select name="centro_id"><option value="">%s</option>`, ui.T(ctx, "components.no_warehouse"))
		for _, c := range v.Centers {
			h.F(`<option value="%s">%s</option>`, c.ID, c.Name)
		}
		h.Raw(`</select>`)
		h.F(`<button type="submit">%s</button></form></details>`, ui.T(ctx, "common.create"))
	})
}

func componentTable(v ComponentsView) templ.Component {
	return ui.Func(func(ctx context.Context, h *ui.HTML) {
		h.Raw(`<table class="w-full text-sm components"><thead><tr>`)
		for _, key := range []string{"components.code", "components.serial", "components.type", "components.status", "components.center", "components.location", "common.actions"} {
			h.F(`<th>%s</th>`, ui.T(ctx, key))
		}
		h.Raw(`</tr></thead><tbody>`)
		if len(v.Page.Rows) == 0 {
			h.F(`<tr><td colspan="7" class="empty">%s</td></tr>`, ui.T(ctx, "common.no_rows"))
		}
		for _, r := range v.Page.Rows {
			cls := ""
			if !r.Active {
				cls = "inactive"
			}
			h.F(`<tr id="comp-%s" class="%s"><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td class="location" data-kind="%s">%s</td><td class="actions">`,
				r.ID, cls, r.Code, r.Serial, r.Type, r.Status, r.Center, string(r.Location.Kind), r.Location.String())
			h.Render(ctx, componentActions(v, r))
			h.Raw(`</td></tr>`)
		}
		h.Raw(`</tbody></table>`)
	})
}

func componentActions(v ComponentsView, r services.ComponentRow) templ.Component {
	return ui.Func(func(ctx context.Context, h *ui.HTML) {
		if viewstate.CanReportFault(v.Profile) {
			h.F(`<form class="inline" hx-post="/componentes/%s/falla" hx-target="#flash"><input name="detalle" required placeholder="%s"><button type="submit">%s</button></form>`,
				r.ID, ui.T(ctx, "faults.detail"), ui.T(ctx, "faults.report"))
		}
		if viewstate.CanDecommission(v.Profile) && r.Active {
			h.F(`<button hx-post="/componentes/%s/baja" hx-target="#flash" hx-confirm="%s">%s</button>`,
				r.ID, ui.T(ctx, "components.decommission_confirm", map[string]interface{}{"code": r.Code}), ui.T(ctx, "components.decommission"))
		}
		if viewstate.CanMoveComponents(v.Profile) && r.Location.Movable() && len(v.Centers) > 0 {
			h.F(`<form class="inline" hx-post="/componentes/%s/mover" hx-target="#flash"><select name="destino_id" required>`, r.ID)
			for _, c := range v.Centers {
				h.F(`<option value="%s">%s</option>`, c.ID, c.Name)
			}
			h.F(`</select><button type="submit">%s</button></form>`, ui.T(ctx, "components.move"))
		}
	})
}

// Pager renders previous/next links computed by the reducer.
func Pager(base string, s viewstate.State, p viewstate.PagerView) templ.Component {
	return ui.Func(func(ctx context.Context, h *ui.HTML) {
		h.Raw(`<nav class="pager flex items-center gap-2 mt-2">`)
		cur := s
		cur.Page = p.Page
		if p.HasPrev {
			h.F(`<a hx-get="%s" hx-target="#tab-content" hx-swap="outerHTML" href="#" rel="prev">%s</a>`,
				stateURL(base, viewstate.Reduce(cur, viewstate.PrevPage{})), ui.T(ctx, "common.prev"))
		}
		h.F(`<span>%s</span>`, ui.T(ctx, "common.page_of", map[string]interface{}{"page": p.Page, "pages": p.TotalPages, "total": p.Total}))
		if p.HasNext {
			h.F(`<a hx-get="%s" hx-target="#tab-content" hx-swap="outerHTML" href="#" rel="next">%s</a>`,
				stateURL(base, viewstate.Reduce(cur, viewstate.NextPage{TotalPages: p.TotalPages})), ui.T(ctx, "common.next"))
		}
		h.Raw(`</nav>`)
	})
}
