package partials

import (
	"context"

	"rov_inventory_go/services"
	ui "rov_inventory_go/templates/components"

	"github.com/a-h/templ"
)

// UsersView is the data of the user administration screen.
type UsersView struct {
	Users   []services.UserRow
	Centers []services.Center
	Query   string
	Error   string
}

var assignableRoles = []string{services.RoleAdmin, services.RoleOficina, services.RoleCentro}

// UserList renders the create form and the user table.
func UserList(v UsersView) templ.Component {
	return ui.Func(func(ctx context.Context, h *ui.HTML) {
		h.Raw(`<section id="users" hx-get="/usuarios?partial=1" hx-trigger="users-refresh from:body" hx-swap="outerHTML">`)
		h.Render(ctx, userCreateForm(v))
		h.Raw(`<form class="filters mb-2" hx-get="/usuarios?partial=1" hx-target="#users" hx-swap="outerHTML">`)
		h.F(`<input type="search" name="q" value="%s" placeholder="%s"></form>`, v.Query, ui.T(ctx, "users.search"))
		if v.Error != "" {
			h.Render(ctx, ui.Flash(ui.FlashError, v.Error))
		}
		h.Raw(`<table class="w-full text-sm users"><thead><tr>`)
		for _, key := range []string{"users.name", "users.email", "users.national_id", "users.role", "users.location", "common.active", "common.actions"} {
			h.F(`<th>%s</th>`, ui.T(ctx, key))
		}
		h.Raw(`</tr></thead><tbody>`)
		for _, u := range v.Users {
			h.Render(ctx, userRow(v, u))
		}
		h.Raw(`</tbody></table></section>`)
	})
}

func userCreateForm(v UsersView) templ.Component {
	return ui.Func(func(ctx context.Context, h *ui.HTML) {
		h.F(`<details class="mb-4"><summary>%s</summary>`, ui.T(ctx, "users.new"))
		h.Raw(`<form hx-post="/usuarios" hx-target="#flash" class="grid grid-cols-3 gap-2">`)
		h.F(`<input name="nombre" required placeholder="%s">`, ui.T(ctx, "users.name"))
		h.F(`<input type="email" name="email" required placeholder="%s">`, ui.T(ctx, "users.email"))
		h.F(`<input name="rutBody" required placeholder="%s">`, ui.T(ctx, "users.national_id_body"))
		h.Raw(`<select name="rol" required>`)
		for _, r := range assignableRoles {
			h.F(`<option value="%s">%s</option>`, r, ui.T(ctx, "roles."+r))
		}
		h.Raw(`</select>`)
		h.F(`<select name="centroId"><option value="">%s</option>`, ui.T(ctx, "users.reserve"))
		for _, c := range v.Centers {
			h.F(`<option value="%s">%s</option>`, c.ID, c.Name)
		}
		h.Raw(`</select>`)
		h.F(`<p class="hint text-xs">%s</p>`, ui.T(ctx, "users.password_hint"))
		h.F(`<button type="submit">%s</button></form></details>`, ui.T(ctx, "common.create"))
	})
}

func userRow(v UsersView, u services.UserRow) templ.Component {
	return ui.Func(func(ctx context.Context, h *ui.HTML) {
		location := ui.T(ctx, "users.reserve")
		if !u.InReserve() {
			location = u.Center
		}
		h.F(`<tr id="user-%s"><td>%s</td><td>%s</td><td>%s</td>`, u.UserID, u.Name, u.Email, u.NationalID)
		h.F(`<td><form hx-post="/usuarios/%s/rol" hx-target="#flash" hx-trigger="change"><select name="rol">`, u.UserID)
		for _, r := range assignableRoles {
			h.F(`<option value="%s"%s>%s</option>`, r, ui.Selected(r, u.Role), ui.T(ctx, "roles."+r))
		}
		h.Raw(`</select></form></td>`)
		h.F(`<td class="location">%s</td>`, location)
		h.F(`<td><button hx-post="/usuarios/%s/activo" hx-vals="%s" hx-target="#flash">%s</button></td>`,
			u.UserID, ui.JSON(map[string]bool{"activo": !u.Active}), activeLabel(ctx, u.Active))
		h.Raw(`<td>`)
		if u.Role == services.RoleCentro && len(v.Centers) > 0 {
			h.F(`<form class="inline" hx-post="/usuarios/%s/transferir" hx-target="#flash"><select name="centro_id" required>`, u.UserID)
			for _, c := range v.Centers {
				h.F(`<option value="%s"%s>%s</option>`, c.ID, ui.Selected(c.ID, u.CenterID), c.Name)
			}
			h.F(`</select><input type="date" name="fecha_inicio"><button type="submit">%s</button></form>`, ui.T(ctx, "users.transfer"))
		}
		h.If(u.MustChangePassword, `<span class="badge">`+templ.EscapeString(ui.T(ctx, "users.must_change_password"))+`</span>`)
		h.Raw(`</td></tr>`)
	})
}

func activeLabel(ctx context.Context, active bool) string {
	if active {
		return ui.T(ctx, "users.deactivate")
	}
	return ui.T(ctx, "users.activate")
}
