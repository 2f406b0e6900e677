package handlers

import (
	"context"
	"net/http"
	"time"

	"rov_inventory_go/middleware"
	"rov_inventory_go/services"
	"rov_inventory_go/services/backend"
	"rov_inventory_go/templates/pages"
	"rov_inventory_go/templates/partials"
	"rov_inventory_go/templates/viewstate"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/singleflight"
)

// refreshes collapses identical concurrent refreshes of one session into a
// single backend round-trip.
var refreshes singleflight.Group

func refreshKey(c echo.Context, view string, s viewstate.State) string {
	sessionID := ""
	if sess := middleware.GetSession(c); sess != nil {
		sessionID = sess.ID
	}
	return sessionID + "|" + view + "|" + s.Encode()
}

func loadComponentsView(ctx context.Context, data backend.DataAPI, profile *services.Profile, lang string, s viewstate.State) partials.ComponentsView {
	v := partials.ComponentsView{State: s, Profile: profile}
	page, err := services.ListComponents(ctx, data, services.ComponentFilter{
		Page:           s.Page,
		StatusContains: s.Status,
		TypeContains:   s.Type,
		ActiveOnly:     s.ActiveOnly,
		CodeContains:   s.Query,
	})
	if err != nil {
		v.Error = services.ClassifyError(err).Message(lang)
		return v
	}
	v.Page = page
	v.State.Page = page.Page

	if viewstate.CanMoveComponents(profile) {
		// Create and move forms degrade to empty selects when catalogs fail.
		if types, statuses, err := services.ComponentCatalogs(ctx, data); err == nil {
			v.Types, v.Statuses = types, statuses
		}
		if centers, err := services.ListCenters(ctx, data, ""); err == nil {
			v.Centers = centers
		}
	}
	return v
}

func loadEquipmentView(ctx context.Context, data backend.DataAPI, profile *services.Profile, lang string, s viewstate.State) partials.EquipmentView {
	v := partials.EquipmentView{State: s, Profile: profile}
	rows, err := services.ListEquipment(ctx, data, profile, s.Query)
	if err != nil {
		v.Error = services.ClassifyError(err).Message(lang)
		return v
	}
	v.Rows = rows
	if viewstate.CanCreateEquipment(profile) && profile.Role != services.RoleCentro {
		if centers, err := services.ListCenters(ctx, data, ""); err == nil {
			v.Centers = centers
		}
	}
	return v
}

// refreshTimeout bounds a shared load once it no longer follows any one request.
const refreshTimeout = 30 * time.Second

// shared runs load once per key for all concurrent callers. The load is
// detached from the request that started it; each caller stops waiting on
// its own context.
func shared(c echo.Context, key string, load func(ctx context.Context) interface{}) (interface{}, error) {
	ctx := c.Request().Context()
	ch := refreshes.DoChan(key, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		return load(loadCtx), nil
	})
	select {
	case r := <-ch:
		return r.Val, r.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func componentsView(c echo.Context, s viewstate.State) partials.ComponentsView {
	data, profile, lang := middleware.GetData(c), middleware.GetProfile(c), middleware.GetLocale(c)
	v, err := shared(c, refreshKey(c, viewstate.TabComponents, s), func(ctx context.Context) interface{} {
		return loadComponentsView(ctx, data, profile, lang, s)
	})
	if err != nil {
		return partials.ComponentsView{State: s, Profile: profile, Error: services.ClassifyError(err).Message(lang)}
	}
	return v.(partials.ComponentsView)
}

func equipmentView(c echo.Context, s viewstate.State) partials.EquipmentView {
	data, profile, lang := middleware.GetData(c), middleware.GetProfile(c), middleware.GetLocale(c)
	v, err := shared(c, refreshKey(c, viewstate.TabEquipment, s), func(ctx context.Context) interface{} {
		return loadEquipmentView(ctx, data, profile, lang, s)
	})
	if err != nil {
		return partials.EquipmentView{State: s, Profile: profile, Error: services.ClassifyError(err).Message(lang)}
	}
	return v.(partials.EquipmentView)
}

// InventoryHandler renders the inventory screen on the tab named in the URL.
func InventoryHandler(c echo.Context) error {
	s := viewstate.FromQuery(c.QueryParams())
	page := pageFor(c, "nav.inventory")
	if s.Tab == viewstate.TabEquipment {
		return render(c, http.StatusOK, pages.EquipmentPage(page, equipmentView(c, s)))
	}
	return render(c, http.StatusOK, pages.ComponentsPage(page, componentsView(c, s)))
}

// ComponentsHTMX renders the component tab for filter, pager and refresh requests.
// A filter form submits the state it was rendered with, so changed filters
// restart at page one while an unchanged submit keeps the current page.
func ComponentsHTMX(c echo.Context) error {
	s := onTab(viewstate.FromRequest(c.QueryParams()), viewstate.TabComponents)
	return render(c, http.StatusOK, partials.ComponentTab(componentsView(c, s)))
}

// EquipmentHTMX renders the equipment tab.
func EquipmentHTMX(c echo.Context) error {
	s := onTab(viewstate.FromRequest(c.QueryParams()), viewstate.TabEquipment)
	return render(c, http.StatusOK, partials.EquipmentTab(equipmentView(c, s)))
}

func onTab(s viewstate.State, tab string) viewstate.State {
	if s.Tab == tab {
		return s
	}
	return viewstate.Reduce(s, viewstate.SetTab{Tab: tab})
}
