package partials

import (
	"context"

	"rov_inventory_go/services"
	ui "rov_inventory_go/templates/components"

	"github.com/a-h/templ"
)

// CatalogView is one catalog with its entries.
type CatalogView struct {
	Kind    services.CatalogKind
	Entries []services.CatalogEntry
	Error   string
}

// Catalog renders the kind switcher, the entries and the upsert form.
func Catalog(v CatalogView) templ.Component {
	return ui.Func(func(ctx context.Context, h *ui.HTML) {
		h.F(`<section id="catalog" hx-get="/catalogos?partial=1&amp;tipo=%s" hx-trigger="catalog-refresh from:body" hx-swap="outerHTML">`, string(v.Kind))
		h.Raw(`<nav class="flex gap-2 mb-2">`)
		for _, k := range services.CatalogKinds {
			cls := "tab"
			if k == v.Kind {
				cls = "tab tab-active"
			}
			h.F(`<a class="%s" hx-get="/catalogos?partial=1&amp;tipo=%s" hx-target="#catalog" hx-swap="outerHTML" href="#">%s</a>`,
				cls, string(k), ui.T(ctx, "catalogs."+string(k)))
		}
		h.Raw(`</nav>`)
		if v.Error != "" {
			h.Render(ctx, ui.Flash(ui.FlashError, v.Error))
		}
		activity := v.Kind == services.CatalogActivity
		h.F(`<table class="w-full text-sm"><thead><tr><th>%s</th><th>%s</th>`, ui.T(ctx, "catalogs.code"), ui.T(ctx, "catalogs.name"))
		if activity {
			h.F(`<th>%s</th><th>%s</th>`, ui.T(ctx, "catalogs.requires_equipment"), ui.T(ctx, "common.active"))
		}
		h.Raw(`</tr></thead><tbody>`)
		for _, e := range v.Entries {
			h.F(`<tr><td>%s</td><td>%s</td>`, e.Code, e.Name)
			if activity {
				h.F(`<td>%s</td><td>%s</td>`, yesNo(ctx, e.RequiresEquipment), yesNo(ctx, e.Active))
			}
			h.Raw(`</tr>`)
		}
		h.Raw(`</tbody></table>`)

		h.F(`<form hx-post="/catalogos/%s" hx-target="#flash" class="flex gap-2 mt-2">`, string(v.Kind))
		h.F(`<input name="codigo" required placeholder="%s"><input name="nombre" required placeholder="%s">`, ui.T(ctx, "catalogs.code"), ui.T(ctx, "catalogs.name"))
		if activity {
			h.F(`<label><input type="checkbox" name="requiere_equipo" value="1"> %s</label>`, ui.T(ctx, "catalogs.requires_equipment"))
			h.F(`<input type="hidden" name="activo" value="0"><label><input type="checkbox" name="activo" value="1" checked> %s</label>`, ui.T(ctx, "common.active"))
		}
		h.F(`<button type="submit">%s</button></form></section>`, ui.T(ctx, "common.save"))
	})
}

func yesNo(ctx context.Context, b bool) string {
	if b {
		return ui.T(ctx, "common.yes")
	}
	return ui.T(ctx, "common.no")
}
