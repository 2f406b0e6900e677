package pages

import (
	"context"

	ui "rov_inventory_go/templates/components"
	"rov_inventory_go/templates/partials"

	"github.com/a-h/templ"
)

func section(titleKey string, content templ.Component) templ.Component {
	return ui.Func(func(ctx context.Context, h *ui.HTML) {
		h.F(`<h2 class="text-lg font-semibold mb-3">%s</h2>`, ui.T(ctx, titleKey))
		h.Render(ctx, content)
	})
}

// Organization is the companies, zones and centers screen.
func Organization(page ui.Page, v partials.OrganizationView) templ.Component {
	page.ActiveTab = "organizacion"
	return ui.Document(page, section("nav.organization", partials.Organization(v)))
}

// Users is the user administration screen.
func Users(page ui.Page, v partials.UsersView) templ.Component {
	page.ActiveTab = "usuarios"
	return ui.Document(page, section("nav.users", partials.UserList(v)))
}

// Catalogs is the catalog editor.
func Catalogs(page ui.Page, v partials.CatalogView) templ.Component {
	page.ActiveTab = "catalogos"
	return ui.Document(page, section("nav.catalogs", partials.Catalog(v)))
}

// Reports is the bitácora export screen with the export archive.
func Reports(page ui.Page, v partials.ReportsView) templ.Component {
	page.ActiveTab = "reportes"
	v.CSRFToken = page.CSRFToken
	body := ui.Func(func(ctx context.Context, h *ui.HTML) {
		h.Render(ctx, partials.ExportForm(v))
		h.Render(ctx, partials.ExportList(v.Exports))
	})
	return ui.Document(page, section("nav.reports", body))
}
