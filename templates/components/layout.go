package components

import (
	"context"

	"rov_inventory_go/services"
	"rov_inventory_go/services/i18n"
	"rov_inventory_go/templates/viewstate"

	"github.com/a-h/templ"
)

// Page carries the chrome shared by every authenticated screen.
type Page struct {
	Title     string
	Profile   *services.Profile
	ActiveTab string
	CSRFToken string
	Nonce     string
}

// Document renders a full HTML document around body.
func Document(p Page, body templ.Component) templ.Component {
	return Func(func(ctx context.Context, h *HTML) {
		h.F(`<!DOCTYPE html><html lang="%s"><head><meta charset="utf-8">`, i18n.GetLocale(ctx))
		h.Raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.F(`<title>%s · %s</title>`, p.Title, T(ctx, "app.name"))
		h.F(`<script nonce="%s" src="https://unpkg.com/htmx.org@2.0.4"></script>`, p.Nonce)
		if p.CSRFToken != "" {
			h.F(`<meta name="csrf-token" content="%s">`, p.CSRFToken)
			h.F(`<script nonce="%s">document.addEventListener("htmx:configRequest",function(e){e.detail.headers["X-CSRF-Token"]=document.querySelector('meta[name=csrf-token]').content})</script>`, p.Nonce)
		}
		h.Raw(`</head><body class="min-h-screen bg-slate-50 text-slate-900">`)
		if p.Profile != nil {
			h.Render(ctx, Header(p))
		}
		h.Raw(`<main class="max-w-7xl mx-auto p-4">`)
		h.Raw(`<div id="flash" aria-live="polite"></div>`)
		h.Render(ctx, body)
		h.Raw(`</main></body></html>`)
	})
}

// Header shows the signed-in user, a degraded-profile notice and the navigation.
func Header(p Page) templ.Component {
	return Func(func(ctx context.Context, h *HTML) {
		prof := p.Profile
		h.Raw(`<header class="bg-white border-b"><div class="max-w-7xl mx-auto flex items-center justify-between p-4">`)
		h.F(`<a href="/inventario" class="font-semibold">%s</a>`, T(ctx, "app.name"))
		h.Raw(`<div class="flex items-center gap-4 text-sm">`)
		h.F(`<span class="user-name">%s</span>`, prof.DisplayName())
		role := T(ctx, "roles.unknown")
		if prof.RoleKnown() {
			role = T(ctx, "roles."+prof.Role)
		}
		h.F(`<span class="user-role badge">%s</span>`, role)
		if prof.CenterName != "" {
			h.F(`<span class="user-center">%s</span>`, prof.CenterName)
		}
		h.F(`<form method="post" action="/logout"><input type="hidden" name="_csrf" value="%s"><button type="submit">%s</button></form>`,
			p.CSRFToken, T(ctx, "nav.logout"))
		h.Raw(`</div></div>`)
		if prof.Degraded() {
			h.F(`<div class="profile-degraded bg-amber-50 text-amber-800 text-xs px-4 py-1">%s</div>`, T(ctx, "profile.degraded_"+string(prof.Source)))
		}
		if prof.MustChangePassword {
			h.F(`<div class="must-change-password bg-sky-50 text-sky-800 text-xs px-4 py-1">%s</div>`, T(ctx, "profile.must_change_password"))
		}
		h.Raw(`<nav class="max-w-7xl mx-auto flex gap-2 px-4">`)
		for _, tab := range viewstate.VisibleTabs(prof) {
			cls := "tab"
			if tab.Key == p.ActiveTab {
				cls = "tab tab-active"
			}
			h.F(`<a class="%s" href="%s">%s</a>`, cls, tab.Href, T(ctx, tab.LabelKey))
		}
		h.Raw(`</nav></header>`)
	})
}
