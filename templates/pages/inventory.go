package pages

import (
	"context"

	ui "rov_inventory_go/templates/components"
	"rov_inventory_go/templates/partials"
	"rov_inventory_go/templates/viewstate"

	"github.com/a-h/templ"
)

// Inventory is the main screen. The active tab body is rendered inline and
// replaced by HTMX on filter, pager and refresh events.
func Inventory(page ui.Page, tab templ.Component) templ.Component {
	body := ui.Func(func(ctx context.Context, h *ui.HTML) {
		h.Raw(`<div id="dialog"></div>`)
		h.Render(ctx, tab)
	})
	return ui.Document(page, body)
}

// ComponentsPage wraps the component tab in the document.
func ComponentsPage(page ui.Page, v partials.ComponentsView) templ.Component {
	page.ActiveTab = viewstate.TabComponents
	return Inventory(page, partials.ComponentTab(v))
}

// EquipmentPage wraps the equipment tab in the document.
func EquipmentPage(page ui.Page, v partials.EquipmentView) templ.Component {
	page.ActiveTab = viewstate.TabEquipment
	return Inventory(page, partials.EquipmentTab(v))
}
