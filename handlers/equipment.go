package handlers

import (
	"net/http"
	"strings"

	"rov_inventory_go/db"
	"rov_inventory_go/middleware"
	"rov_inventory_go/models"
	"rov_inventory_go/services"
	"rov_inventory_go/templates/partials"
	"rov_inventory_go/templates/viewstate"
	ui "rov_inventory_go/templates/components"

	"github.com/labstack/echo/v4"
)

const equipmentHistoryLimit = 50

// CreateEquipmentHandler creates an equipment. Centro users create in their own center.
func CreateEquipmentHandler(c echo.Context) error {
	profile := middleware.GetProfile(c)
	if !viewstate.CanCreateEquipment(profile) {
		return forbidden(c)
	}
	in := services.NewEquipment{
		Code:        strings.TrimSpace(c.FormValue("codigo")),
		CenterID:    strings.TrimSpace(c.FormValue("centro_id")),
		RoleID:      strings.TrimSpace(c.FormValue("rol_equipo_id")),
		Description: c.FormValue("descripcion"),
	}
	ref, err := services.CreateEquipment(c.Request().Context(), middleware.GetData(c), profile, in)
	if err != nil {
		return commandFailed(c, "equipment.create", err)
	}
	audit(c, models.AuditActionCreate, "equipment", ref.ID, ref.Codigo, "Equipment created", nil)
	return commandOK(c, refreshInventory, "equipment.created", map[string]interface{}{"code": ref.Codigo})
}

// EditEquipmentHandler updates code, description and active flag.
func EditEquipmentHandler(c echo.Context) error {
	if !viewstate.CanEditEquipment(middleware.GetProfile(c)) {
		return forbidden(c)
	}
	in := services.EquipmentEdit{
		ID:          c.Param("id"),
		Code:        strings.TrimSpace(c.FormValue("codigo")),
		RoleID:      strings.TrimSpace(c.FormValue("rol_equipo_id")),
		Description: c.FormValue("descripcion"),
		Active:      isChecked(lastValue(c, "activo")),
	}
	if err := services.EditEquipment(c.Request().Context(), middleware.GetData(c), in); err != nil {
		return commandFailed(c, "equipment.edit", err)
	}
	audit(c, models.AuditActionUpdate, "equipment", in.ID, in.Code, "Equipment edited", in)
	return commandOK(c, refreshInventory, "equipment.saved")
}

// AssembleDialogHandler renders the dialog listing mountable components.
func AssembleDialogHandler(c echo.Context) error {
	if !viewstate.CanManageEquipment(middleware.GetProfile(c)) {
		return forbidden(c)
	}
	ctx, data := c.Request().Context(), middleware.GetData(c)
	eq, err := services.GetEquipment(ctx, data, c.Param("id"))
	if err != nil {
		return commandFailed(c, "equipment.assemble_dialog", err)
	}
	available, err := services.ListAvailableForAssembly(ctx, data)
	if err != nil {
		return commandFailed(c, "equipment.assemble_dialog", err)
	}
	return render(c, http.StatusOK, partials.AssembleDialog(eq, available))
}

// AssembleHandler mounts a component on an equipment.
func AssembleHandler(c echo.Context) error {
	if !viewstate.CanManageEquipment(middleware.GetProfile(c)) {
		return forbidden(c)
	}
	id := c.Param("id")
	componentID := strings.TrimSpace(c.FormValue("componente_id"))
	optional := isChecked(lastValue(c, "opcional"))
	if err := services.AssembleComponent(c.Request().Context(), middleware.GetData(c), id, componentID, optional); err != nil {
		return commandFailed(c, "equipment.assemble", err)
	}
	audit(c, models.AuditActionAssemble, "equipment", id, "", "Component assembled", map[string]interface{}{"component": componentID, "optional": optional})
	return commandOK(c, refreshInventory, "equipment.assembled")
}

// DisassembleHandler removes a component from an equipment.
func DisassembleHandler(c echo.Context) error {
	if !viewstate.CanManageEquipment(middleware.GetProfile(c)) {
		return forbidden(c)
	}
	id := c.Param("id")
	componentID := strings.TrimSpace(c.FormValue("componente_id"))
	if err := services.DisassembleComponent(c.Request().Context(), middleware.GetData(c), id, componentID); err != nil {
		return commandFailed(c, "equipment.disassemble", err)
	}
	audit(c, models.AuditActionDisassemble, "equipment", id, "", "Component disassembled", map[string]string{"component": componentID})
	return commandOK(c, refreshInventory, "equipment.disassembled")
}

// ReportEquipmentFaultHandler records a fault on a component mounted on the equipment.
func ReportEquipmentFaultHandler(c echo.Context) error {
	if !viewstate.CanReportFault(middleware.GetProfile(c)) {
		return forbidden(c)
	}
	id := c.Param("id")
	componentID := strings.TrimSpace(c.FormValue("componente_id"))
	detail := c.FormValue("detalle")
	if err := services.ReportFaultForEquipment(c.Request().Context(), middleware.GetData(c), id, componentID, detail); err != nil {
		return commandFailed(c, "equipment.fault", err)
	}
	audit(c, models.AuditActionFault, "equipment", id, "", "Fault reported", map[string]string{"component": componentID, "detail": services.SanitizeText(detail)})
	return commandOK(c, refreshInventory, "faults.reported")
}

// WorkshopHandler sends an equipment to or returns it from the workshop.
func WorkshopHandler(c echo.Context) error {
	if !viewstate.CanManageEquipment(middleware.GetProfile(c)) {
		return forbidden(c)
	}
	ctx, data, id := c.Request().Context(), middleware.GetData(c), c.Param("id")
	switch c.FormValue("accion") {
	case "entrada":
		workshop := strings.TrimSpace(c.FormValue("taller"))
		if err := services.SendToWorkshop(ctx, data, id, workshop); err != nil {
			return commandFailed(c, "equipment.workshop_in", err)
		}
		audit(c, models.AuditActionWorkshop, "equipment", id, "", "Sent to workshop", map[string]string{"workshop": workshop})
		return commandOK(c, refreshInventory, "equipment.workshop_entered")
	case "salida":
		if err := services.ReturnFromWorkshop(ctx, data, id); err != nil {
			return commandFailed(c, "equipment.workshop_out", err)
		}
		audit(c, models.AuditActionWorkshop, "equipment", id, "", "Returned from workshop", nil)
		return commandOK(c, refreshInventory, "equipment.workshop_left")
	default:
		return render(c, http.StatusBadRequest, ui.Flash(ui.FlashError, tr(c, "validation.workshop.action")))
	}
}

// EquipmentHistoryHandler shows the local audit trail of an equipment.
func EquipmentHistoryHandler(c echo.Context) error {
	if !viewstate.CanManageEquipment(middleware.GetProfile(c)) {
		return forbidden(c)
	}
	logs, err := services.GetResourceAuditHistory(db.DB, "equipment", c.Param("id"), equipmentHistoryLimit)
	if err != nil {
		return commandFailed(c, "equipment.history", err)
	}
	return render(c, http.StatusOK, partials.AuditHistory(tr(c, "equipment.history"), logs))
}
