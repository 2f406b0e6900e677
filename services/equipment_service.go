package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"rov_inventory_go/logger"
	"rov_inventory_go/services/backend"

	"go.uber.org/zap"
)

// DefaultWorkshop is used when no workshop name is given.
const DefaultWorkshop = "Taller"

// CenterRef names a center.
type CenterRef struct {
	ID   string
	Name string
}

// EquipmentRow is one equipment with its current center and attached components.
type EquipmentRow struct {
	ID           string
	Code         string
	Description  string
	Active       bool
	Center       *CenterRef
	Components   []Attached
	InWorkshop   bool
	WorkshopName string
}

func (e EquipmentRow) CoreOK() bool { return CoreOK(e.Components) }
func (e EquipmentRow) Paired() bool { return Paired(e.Components) }

// Attachment returns the open attachment of componentID, if any.
func (e EquipmentRow) Attachment(componentID string) (Attached, bool) {
	for _, c := range e.Components {
		if c.ID == componentID {
			return c, true
		}
	}
	return Attached{}, false
}

func (e EquipmentRow) matches(query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	fields := []string{e.Code, e.Description}
	if e.Center != nil {
		fields = append(fields, e.Center.Name)
	}
	for _, c := range e.Components {
		fields = append(fields, c.Code, c.Role)
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

type equipoRow struct {
	ID          string `json:"id"`
	Codigo      string `json:"codigo"`
	Descripcion string `json:"descripcion"`
	IsActive    *bool  `json:"is_active"`
}

type asignacionRow struct {
	EquipoID string `json:"equipo_id"`
	CentroID string `json:"centro_id"`
}

type equipoComponenteRow struct {
	EquipoID     string `json:"equipo_id"`
	ComponenteID string `json:"componente_id"`
	EsOpcional   bool   `json:"es_opcional"`
}

type tallerRow struct {
	EquipoID string `json:"equipo_id"`
	Taller   string `json:"taller"`
	EnTaller bool   `json:"en_taller"`
}

type namedRow struct {
	ID     string `json:"id"`
	Nombre string `json:"nombre"`
}

// ListEquipment lists equipment visible to viewer, filtered by a free-text query.
// Centro users only see equipment assigned to their own center; a centro user
// in reserve sees none.
func ListEquipment(ctx context.Context, data backend.DataAPI, viewer *Profile, query string) ([]EquipmentRow, error) {
	centerOnly := viewer != nil && viewer.Role == RoleCentro
	if centerOnly && viewer.CenterID == "" {
		return []EquipmentRow{}, nil
	}

	rows, err := loadEquipment(ctx, data, "")
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)

	out := make([]EquipmentRow, 0, len(rows))
	for _, r := range rows {
		if centerOnly && (r.Center == nil || r.Center.ID != viewer.CenterID) {
			continue
		}
		if !r.matches(query) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// GetEquipment loads one equipment with its attachments.
func GetEquipment(ctx context.Context, data backend.DataAPI, equipmentID string) (*EquipmentRow, error) {
	rows, err := loadEquipment(ctx, data, equipmentID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &DomainError{Key: "errors.equipment_not_found"}
	}
	return &rows[0], nil
}

// loadEquipment joins the equipment tables in memory. An empty id loads all.
func loadEquipment(ctx context.Context, data backend.DataAPI, equipmentID string) ([]EquipmentRow, error) {
	eq := backend.From("equipos").Select("id,codigo,descripcion,is_active").Order("codigo", true)
	asg := backend.From("equipo_asignacion").Select("equipo_id,centro_id").IsNull("fecha_fin")
	att := backend.From("equipo_componente").Select("equipo_id,componente_id,es_opcional").IsNull("fecha_fin")
	if equipmentID != "" {
		eq.Eq("id", equipmentID)
		asg.Eq("equipo_id", equipmentID)
		att.Eq("equipo_id", equipmentID)
	}

	var equipos []equipoRow
	if _, err := data.Select(ctx, eq, &equipos); err != nil {
		return nil, fmt.Errorf("failed to list equipment: %w", err)
	}
	if len(equipos) == 0 {
		return nil, nil
	}

	var asignaciones []asignacionRow
	if _, err := data.Select(ctx, asg, &asignaciones); err != nil {
		return nil, fmt.Errorf("failed to list equipment assignments: %w", err)
	}
	var attachments []equipoComponenteRow
	if _, err := data.Select(ctx, att, &attachments); err != nil {
		return nil, fmt.Errorf("failed to list equipment components: %w", err)
	}

	centerNames := map[string]string{}
	if len(asignaciones) > 0 {
		ids := make([]string, 0, len(asignaciones))
		for _, a := range asignaciones {
			ids = append(ids, a.CentroID)
		}
		var centros []namedRow
		if _, err := data.Select(ctx, backend.From("centros").Select("id,nombre").In("id", ids), &centros); err != nil {
			return nil, fmt.Errorf("failed to list centers: %w", err)
		}
		for _, c := range centros {
			centerNames[c.ID] = c.Nombre
		}
	}

	compInfo := map[string]componentViewRow{}
	if len(attachments) > 0 {
		ids := make([]string, 0, len(attachments))
		for _, a := range attachments {
			ids = append(ids, a.ComponenteID)
		}
		var comps []componentViewRow
		q := backend.From(componentLocationView).Select("componente_id,codigo,serie,tipo").In("componente_id", ids)
		if _, err := data.Select(ctx, q, &comps); err != nil {
			return nil, fmt.Errorf("failed to list attached components: %w", err)
		}
		for _, c := range comps {
			compInfo[c.ComponenteID] = c
		}
	}

	// Workshop state is optional; a missing view means nothing is in the workshop.
	workshop := map[string]tallerRow{}
	var talleres []tallerRow
	tq := backend.From("v_equipo_taller_actual").Select("equipo_id,taller,en_taller")
	if equipmentID != "" {
		tq.Eq("equipo_id", equipmentID)
	}
	if _, err := data.Select(ctx, tq, &talleres); err != nil {
		logger.Debug("workshop view unavailable", zap.Error(err))
	}
	for _, t := range talleres {
		workshop[t.EquipoID] = t
	}

	centerByEquipment := map[string]*CenterRef{}
	for _, a := range asignaciones {
		centerByEquipment[a.EquipoID] = &CenterRef{ID: a.CentroID, Name: centerNames[a.CentroID]}
	}
	compsByEquipment := map[string][]Attached{}
	for _, a := range attachments {
		info := compInfo[a.ComponenteID]
		compsByEquipment[a.EquipoID] = append(compsByEquipment[a.EquipoID], Attached{
			ID:       a.ComponenteID,
			Code:     info.Codigo,
			Serial:   info.Serie,
			Role:     RoleFromTypeName(info.Tipo),
			Optional: a.EsOpcional,
		})
	}

	rows := make([]EquipmentRow, 0, len(equipos))
	for _, e := range equipos {
		comps := compsByEquipment[e.ID]
		sort.SliceStable(comps, func(i, j int) bool { return comps[i].Code < comps[j].Code })
		t := workshop[e.ID]
		rows = append(rows, EquipmentRow{
			ID:           e.ID,
			Code:         e.Codigo,
			Description:  e.Descripcion,
			Active:       e.IsActive == nil || *e.IsActive,
			Center:       centerByEquipment[e.ID],
			Components:   comps,
			InWorkshop:   t.EnTaller,
			WorkshopName: t.Taller,
		})
	}
	return rows, nil
}

// NewEquipment is the input to CreateEquipment.
type NewEquipment struct {
	Code        string
	CenterID    string
	RoleID      string
	Description string
}

// CreateEquipment creates an equipment. The backend generates the code when
// none is given. Centro users always create in their own center.
func CreateEquipment(ctx context.Context, data backend.DataAPI, viewer *Profile, in NewEquipment) (*CreatedRef, error) {
	if viewer != nil && viewer.Role == RoleCentro {
		if viewer.CenterID == "" {
			return nil, invalid("validation.center.unassigned")
		}
		in.CenterID = viewer.CenterID
	}

	params := map[string]any{
		"p_codigo":    nilIfEmpty(in.Code),
		"p_centro_id": nilIfEmpty(in.CenterID),
		"p_fecha":     Today(),
	}
	if in.RoleID != "" {
		params["p_rol_equipo_id"] = in.RoleID
	}
	if d := SanitizeText(in.Description); d != "" {
		params["p_descripcion"] = d
	}

	var raw json.RawMessage
	if err := data.RPC(ctx, "rpc_equipo_crear", params, &raw); err != nil {
		return nil, err
	}
	ref, err := decodeOne[CreatedRef](raw)
	if err != nil {
		return nil, fmt.Errorf("unexpected create response: %w", err)
	}
	if ref == nil {
		return &CreatedRef{}, nil
	}
	return ref, nil
}

// EquipmentEdit is the input to EditEquipment.
type EquipmentEdit struct {
	ID          string `validate:"required"`
	Code        string `validate:"required"`
	RoleID      string
	Description string
	Active      bool
}

// EditEquipment updates code, role, description and active flag.
func EditEquipment(ctx context.Context, data backend.DataAPI, in EquipmentEdit) error {
	in.Code = strings.TrimSpace(in.Code)
	if err := validateStruct(in); err != nil {
		return err
	}
	return data.RPC(ctx, "rpc_equipo_editar", map[string]any{
		"p_equipo_id":     in.ID,
		"p_codigo":        in.Code,
		"p_rol_equipo_id": nilIfEmpty(in.RoleID),
		"p_descripcion":   nilIfEmpty(SanitizeText(in.Description)),
		"p_is_active":     in.Active,
	}, nil)
}

// AssembleComponent mounts componentID on equipmentID. A unique role the equipment
// already holds is rejected before anything is written. Optional attachments
// (accessories that do not count toward the core) use the accessory procedure.
func AssembleComponent(ctx context.Context, data backend.DataAPI, equipmentID, componentID string, optional bool) error {
	if equipmentID == "" || componentID == "" {
		return invalid("validation.component.required")
	}

	eq, err := GetEquipment(ctx, data, equipmentID)
	if err != nil {
		return err
	}
	comp, err := GetComponent(ctx, data, componentID)
	if err != nil {
		return err
	}
	if comp.Location.Mounted() {
		return &DomainError{Key: "errors.already_mounted", Args: map[string]interface{}{"equipment": comp.Location.EquipmentCode}}
	}
	if err := CanAddComponent(eq.Components, comp.Role); err != nil {
		return err
	}

	if optional {
		return data.RPC(ctx, "rpc_equipo_agregar_componente", map[string]any{
			"p_equipo_id":     equipmentID,
			"p_componente_id": componentID,
			"p_es_opcional":   true,
		}, nil)
	}
	return data.RPC(ctx, "rpc_ensamblar_componente", map[string]any{
		"p_equipo_id":     equipmentID,
		"p_componente_id": componentID,
		"p_fecha":         Today(),
	}, nil)
}

// DisassembleComponent closes the open attachment of componentID.
func DisassembleComponent(ctx context.Context, data backend.DataAPI, equipmentID, componentID string) error {
	eq, err := GetEquipment(ctx, data, equipmentID)
	if err != nil {
		return err
	}
	att, ok := eq.Attachment(componentID)
	if !ok {
		return &DomainError{Key: "errors.not_attached"}
	}

	if att.Optional {
		return data.RPC(ctx, "rpc_equipo_quitar_componente", map[string]any{
			"p_equipo_id":     equipmentID,
			"p_componente_id": componentID,
		}, nil)
	}
	return data.RPC(ctx, "rpc_desarmar_componente", map[string]any{
		"p_equipo_id":     equipmentID,
		"p_componente_id": componentID,
		"p_fecha":         Today(),
	}, nil)
}

// ReportFaultForEquipment records a fault on a component mounted on equipmentID.
func ReportFaultForEquipment(ctx context.Context, data backend.DataAPI, equipmentID, componentID, detail string) error {
	detail = SanitizeText(detail)
	if detail == "" {
		return invalid("errors.detail_required")
	}
	if componentID == "" {
		return invalid("validation.component.required")
	}

	eq, err := GetEquipment(ctx, data, equipmentID)
	if err != nil {
		return err
	}
	if _, ok := eq.Attachment(componentID); !ok {
		return &DomainError{Key: "errors.not_attached"}
	}

	return data.RPC(ctx, "rpc_equipo_reportar_falla", map[string]any{
		"p_equipo_id":     equipmentID,
		"p_componente_id": componentID,
		"p_detalle":       detail,
	}, nil)
}

// SendToWorkshop checks equipment into a workshop without touching its center.
func SendToWorkshop(ctx context.Context, data backend.DataAPI, equipmentID, workshop string) error {
	if equipmentID == "" {
		return invalid("validation.equipment.required")
	}
	workshop = SanitizeText(workshop)
	if workshop == "" {
		workshop = DefaultWorkshop
	}
	return data.RPC(ctx, "rpc_equipo_taller_checkin", map[string]any{
		"p_equipo_id": equipmentID,
		"p_taller":    workshop,
		"p_fecha":     Today(),
	}, nil)
}

// ReturnFromWorkshop checks equipment out of its workshop.
func ReturnFromWorkshop(ctx context.Context, data backend.DataAPI, equipmentID string) error {
	if equipmentID == "" {
		return invalid("validation.equipment.required")
	}
	return data.RPC(ctx, "rpc_equipo_taller_checkout", map[string]any{
		"p_equipo_id": equipmentID,
		"p_fecha":     Today(),
	}, nil)
}
