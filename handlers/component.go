package handlers

import (
	"net/http"
	"strings"

	"rov_inventory_go/middleware"
	"rov_inventory_go/models"
	"rov_inventory_go/services"
	"rov_inventory_go/templates/viewstate"
	ui "rov_inventory_go/templates/components"

	"github.com/labstack/echo/v4"
)

const refreshInventory = "inventory-refresh"

func forbidden(c echo.Context) error {
	return render(c, http.StatusForbidden, ui.Flash(ui.FlashError, tr(c, "errors.permission")))
}

// CreateComponentHandler registers a component.
func CreateComponentHandler(c echo.Context) error {
	if !viewstate.CanMoveComponents(middleware.GetProfile(c)) {
		return forbidden(c)
	}
	in := services.NewComponent{
		TypeID:            strings.TrimSpace(c.FormValue("tipo_id")),
		StatusID:          strings.TrimSpace(c.FormValue("estado_id")),
		Serial:            strings.TrimSpace(c.FormValue("serie")),
		IngestedOn:        strings.TrimSpace(c.FormValue("fecha_ingreso")),
		Code:              strings.TrimSpace(c.FormValue("codigo")),
		WarehouseCenterID: strings.TrimSpace(c.FormValue("centro_id")),
	}
	ref, err := services.CreateComponent(c.Request().Context(), middleware.GetData(c), in)
	if err != nil {
		return commandFailed(c, "component.create", err)
	}
	audit(c, models.AuditActionCreate, "component", ref.ID, ref.Codigo, "Component created", in)
	return commandOK(c, refreshInventory, "components.created", map[string]interface{}{"code": ref.Codigo})
}

// DecommissionComponentHandler marks a component inactive.
func DecommissionComponentHandler(c echo.Context) error {
	if !viewstate.CanDecommission(middleware.GetProfile(c)) {
		return forbidden(c)
	}
	id := c.Param("id")
	if err := services.LogicalDecommission(c.Request().Context(), middleware.GetData(c), id); err != nil {
		return commandFailed(c, "component.decommission", err)
	}
	audit(c, models.AuditActionDecommission, "component", id, "", "Component decommissioned", nil)
	return commandOK(c, refreshInventory, "components.decommissioned")
}

// ReportComponentFaultHandler records a fault against a component.
func ReportComponentFaultHandler(c echo.Context) error {
	if !viewstate.CanReportFault(middleware.GetProfile(c)) {
		return forbidden(c)
	}
	id := c.Param("id")
	detail := c.FormValue("detalle")
	if err := services.ReportFault(c.Request().Context(), middleware.GetData(c), id, detail); err != nil {
		return commandFailed(c, "component.fault", err)
	}
	audit(c, models.AuditActionFault, "component", id, "", "Fault reported", map[string]string{"detail": services.SanitizeText(detail)})
	return commandOK(c, refreshInventory, "faults.reported")
}

// MoveComponentHandler sends a component to a warehouse center.
func MoveComponentHandler(c echo.Context) error {
	if !viewstate.CanMoveComponents(middleware.GetProfile(c)) {
		return forbidden(c)
	}
	id := c.Param("id")
	dest := strings.TrimSpace(c.FormValue("destino_id"))
	movementID, err := services.MoveToWarehouse(c.Request().Context(), middleware.GetData(c), id, dest)
	if err != nil {
		if movementID != "" {
			// The transit exists, so the table must show it.
			c.Response().Header().Set("HX-Trigger", refreshInventory)
		}
		return commandFailed(c, "component.move", err)
	}
	audit(c, models.AuditActionMove, "component", id, "", "Component moved to warehouse", map[string]string{"destination": dest, "movement": movementID})
	return commandOK(c, refreshInventory, "components.moved")
}
