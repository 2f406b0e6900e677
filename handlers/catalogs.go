package handlers

import (
	"net/http"

	"rov_inventory_go/middleware"
	"rov_inventory_go/models"
	"rov_inventory_go/services"
	"rov_inventory_go/templates/pages"
	"rov_inventory_go/templates/partials"
	ui "rov_inventory_go/templates/components"

	"github.com/labstack/echo/v4"
)

const refreshCatalog = "catalog-refresh"

// CatalogsHandler renders the catalog named by ?tipo=, defaulting to component types.
func CatalogsHandler(c echo.Context) error {
	kind, ok := services.ParseCatalogKind(c.QueryParam("tipo"))
	if !ok {
		kind = services.CatalogComponentType
	}
	v := partials.CatalogView{Kind: kind}
	entries, err := services.ListCatalog(c.Request().Context(), middleware.GetData(c), kind)
	if err != nil {
		v.Error = errorMessage(c, err)
	}
	v.Entries = entries

	if c.QueryParam("partial") != "" {
		return render(c, http.StatusOK, partials.Catalog(v))
	}
	return render(c, http.StatusOK, pages.Catalogs(pageFor(c, "nav.catalogs"), v))
}

// UpsertCatalogHandler creates or updates an entry by code.
func UpsertCatalogHandler(c echo.Context) error {
	kind, ok := services.ParseCatalogKind(c.Param("kind"))
	if !ok {
		return render(c, http.StatusNotFound, ui.Flash(ui.FlashError, tr(c, "errors.unknown_catalog")))
	}
	entry := services.CatalogEntry{
		Code:              c.FormValue("codigo"),
		Name:              c.FormValue("nombre"),
		RequiresEquipment: isChecked(c.FormValue("requiere_equipo")),
		Active:            isChecked(lastValue(c, "activo")),
	}
	if err := services.UpsertCatalogEntry(c.Request().Context(), middleware.GetData(c), kind, entry); err != nil {
		return commandFailed(c, "catalog.upsert", err)
	}
	audit(c, models.AuditActionUpdate, "catalog", string(kind), entry.Code, "Catalog entry saved", entry)
	return commandOK(c, refreshCatalog, "catalogs.saved")
}
