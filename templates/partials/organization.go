package partials

import (
	"context"

	"rov_inventory_go/services"
	ui "rov_inventory_go/templates/components"

	"github.com/a-h/templ"
)

// OrganizationView holds companies, the zones of the selected company and
// the centers of the selected zone.
type OrganizationView struct {
	Companies []services.Company
	Zones     []services.Zone
	Centers   []services.Center
	CompanyID string
	ZoneID    string
	Error     string
}

// Organization renders the three linked lists with their create forms.
func Organization(v OrganizationView) templ.Component {
	return ui.Func(func(ctx context.Context, h *ui.HTML) {
		h.F(`<section id="organization" class="grid grid-cols-3 gap-4" hx-get="/organizacion?partial=1&amp;empresa=%s&amp;zona=%s" hx-trigger="org-refresh from:body" hx-swap="outerHTML">`, v.CompanyID, v.ZoneID)
		if v.Error != "" {
			h.Render(ctx, ui.Flash(ui.FlashError, v.Error))
		}

		h.F(`<div class="companies"><h3>%s</h3><ul>`, ui.T(ctx, "org.companies"))
		for _, c := range v.Companies {
			cls := ""
			if c.ID == v.CompanyID {
				cls = "selected"
			}
			h.F(`<li class="%s"><a hx-get="/organizacion?partial=1&amp;empresa=%s" hx-target="#organization" hx-swap="outerHTML" href="#">%s</a> `, cls, c.ID, c.Name)
			h.F(`<button hx-post="/empresas/%s/toggle" hx-vals="%s" hx-target="#flash">%s</button></li>`,
				c.ID, ui.JSON(map[string]bool{"activo": !c.Active}), activeLabel(ctx, c.Active))
		}
		h.Raw(`</ul>`)
		h.F(`<form hx-post="/empresas" hx-target="#flash"><input name="nombre" required placeholder="%s"><button type="submit">%s</button></form></div>`,
			ui.T(ctx, "org.company_name"), ui.T(ctx, "common.create"))

		h.F(`<div class="zones"><h3>%s</h3>`, ui.T(ctx, "org.zones"))
		if v.CompanyID == "" {
			h.F(`<p class="hint">%s</p></div>`, ui.T(ctx, "org.pick_company"))
		} else {
			h.Raw(`<ul>`)
			for _, z := range v.Zones {
				cls := ""
				if z.ID == v.ZoneID {
					cls = "selected"
				}
				h.F(`<li class="%s"><a hx-get="/organizacion?partial=1&amp;empresa=%s&amp;zona=%s" hx-target="#organization" hx-swap="outerHTML" href="#">%s</a> <small>%s</small></li>`,
					cls, v.CompanyID, z.ID, z.Name, z.Region)
			}
			h.Raw(`</ul>`)
			h.F(`<form hx-post="/zonas" hx-target="#flash"><input type="hidden" name="empresa_id" value="%s"><input name="nombre" required placeholder="%s"><input name="region" placeholder="%s"><button type="submit">%s</button></form></div>`,
				v.CompanyID, ui.T(ctx, "org.zone_name"), ui.T(ctx, "org.region"), ui.T(ctx, "common.create"))
		}

		h.F(`<div class="centers"><h3>%s</h3>`, ui.T(ctx, "org.centers"))
		if v.ZoneID == "" {
			h.F(`<p class="hint">%s</p></div>`, ui.T(ctx, "org.pick_zone"))
		} else {
			h.Raw(`<ul>`)
			for _, c := range v.Centers {
				h.F(`<li>%s <small>%s</small></li>`, c.Name, c.StartDate)
			}
			h.Raw(`</ul>`)
			h.F(`<form hx-post="/centros" hx-target="#flash"><input type="hidden" name="zona_id" value="%s"><input name="nombre" required placeholder="%s"><input type="date" name="fecha_inicio"><button type="submit">%s</button></form></div>`,
				v.ZoneID, ui.T(ctx, "org.center_name"), ui.T(ctx, "common.create"))
		}
		h.Raw(`</section>`)
	})
}
