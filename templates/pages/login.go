package pages

import (
	"context"

	ui "rov_inventory_go/templates/components"

	"github.com/a-h/templ"
)

// Login renders the sign-in page. errMsg is shown above the form when set.
func Login(csrfToken, nonce, email, errMsg string) templ.Component {
	body := ui.Func(func(ctx context.Context, h *ui.HTML) {
		h.Raw(`<div class="max-w-sm mx-auto mt-24 bg-white border rounded-xl p-6">`)
		h.F(`<h1 class="text-xl font-semibold mb-4">%s</h1>`, ui.T(ctx, "login.title"))
		h.Raw(`<div id="login-error">`)
		if errMsg != "" {
			h.Render(ctx, ui.Flash(ui.FlashError, errMsg))
		}
		h.Raw(`</div>`)
		h.Raw(`<form method="post" action="/login" hx-post="/login" hx-target="#login-error" class="grid gap-3">`)
		h.F(`<input type="hidden" name="_csrf" value="%s">`, csrfToken)
		h.F(`<label>%s<input type="email" name="email" value="%s" required autocomplete="username"></label>`, ui.T(ctx, "login.email"), email)
		h.F(`<label>%s<input type="password" name="password" required autocomplete="current-password"></label>`, ui.T(ctx, "login.password"))
		h.F(`<button type="submit">%s</button></form></div>`, ui.T(ctx, "login.submit"))
	})
	return ui.Document(ui.Page{Title: "Login", CSRFToken: csrfToken, Nonce: nonce}, body)
}
