package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"rov_inventory_go/logger"
	"rov_inventory_go/services/backend"

	"go.uber.org/zap"
)

// PageSize is the fixed number of rows per inventory page.
const PageSize = 10

const componentLocationView = "v_componente_ubicacion_actual"

// ComponentFilter selects a page of the component inventory.
type ComponentFilter struct {
	Page           int
	StatusContains string
	TypeContains   string
	ActiveOnly     bool
	CodeContains   string
}

// ComponentRow is one inventory line.
type ComponentRow struct {
	ID         string
	Code       string
	Serial     string
	Type       string
	Role       string
	Status     string
	IngestedOn string
	Center     string
	Active     bool
	Location   Location
}

// ComponentPage is a page of inventory rows.
type ComponentPage struct {
	Rows       []ComponentRow
	TotalCount int64
	Page       int
	TotalPages int
}

type componentViewRow struct {
	ComponenteID string `json:"componente_id"`
	Codigo       string `json:"codigo"`
	Serie        string `json:"serie"`
	Tipo         string `json:"tipo"`
	Estado       string `json:"estado"`
	FechaIngreso string `json:"fecha_ingreso"`
	UbicTipo     string `json:"ubic_tipo"`
	Centro       string `json:"centro"`
	EquipoCodigo string `json:"equipo_codigo"`
	IsActive     *bool  `json:"is_active"`
}

func (r componentViewRow) toRow() ComponentRow {
	center := r.Centro
	if center == "" {
		center = NoCenter
	}
	return ComponentRow{
		ID:         r.ComponenteID,
		Code:       r.Codigo,
		Serial:     r.Serie,
		Type:       r.Tipo,
		Role:       RoleFromTypeName(r.Tipo),
		Status:     r.Estado,
		IngestedOn: r.FechaIngreso,
		Center:     center,
		Active:     r.IsActive == nil || *r.IsActive,
		Location:   LocationFrom(r.UbicTipo, r.Centro, r.EquipoCodigo),
	}
}

// TotalPages returns max(1, ceil(count/size)).
func TotalPages(count int64, size int) int {
	if count <= 0 || size <= 0 {
		return 1
	}
	return int((count + int64(size) - 1) / int64(size))
}

func componentQuery(f ComponentFilter, page int) *backend.Query {
	q := backend.From(componentLocationView).
		Select("componente_id,codigo,serie,tipo,estado,fecha_ingreso,ubic_tipo,centro,equipo_codigo,is_active").
		Order("codigo", true).
		Range((page-1)*PageSize, page*PageSize-1).
		CountExact()
	if s := strings.TrimSpace(f.StatusContains); s != "" {
		q.ILike("estado", "%"+s+"%")
	}
	if s := strings.TrimSpace(f.TypeContains); s != "" {
		q.ILike("tipo", "%"+s+"%")
	}
	if s := strings.TrimSpace(f.CodeContains); s != "" {
		q.ILike("codigo", "%"+s+"%")
	}
	if f.ActiveOnly {
		q.Eq("is_active", true)
	}
	return q
}

// ListComponents reads one page of the component location view. A page past
// the end, as after the last row of it was decommissioned, falls back to the
// last page.
func ListComponents(ctx context.Context, data backend.DataAPI, f ComponentFilter) (*ComponentPage, error) {
	page := f.Page
	if page < 1 {
		page = 1
	}

	var raw []componentViewRow
	total, err := data.Select(ctx, componentQuery(f, page), &raw)
	if be, ok := backend.AsError(err); ok && be.Status == http.StatusRequestedRangeNotSatisfiable {
		if last := TotalPages(total, PageSize); last < page {
			page = last
			raw = nil
			total, err = data.Select(ctx, componentQuery(f, page), &raw)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list components: %w", err)
	}

	rows := make([]ComponentRow, 0, len(raw))
	for _, r := range raw {
		rows = append(rows, r.toRow())
	}
	if len(rows) > PageSize {
		rows = rows[:PageSize]
	}

	return &ComponentPage{
		Rows:       rows,
		TotalCount: total,
		Page:       page,
		TotalPages: TotalPages(total, PageSize),
	}, nil
}

// GetComponent reads the current location row of one component.
func GetComponent(ctx context.Context, data backend.DataAPI, componentID string) (*ComponentRow, error) {
	var raw []componentViewRow
	q := backend.From(componentLocationView).Eq("componente_id", componentID).Range(0, 0)
	if _, err := data.Select(ctx, q, &raw); err != nil {
		return nil, fmt.Errorf("failed to load component: %w", err)
	}
	if len(raw) == 0 {
		return nil, &DomainError{Key: "errors.component_not_found"}
	}
	row := raw[0].toRow()
	return &row, nil
}

// ListAvailableForAssembly returns active components not mounted on any equipment.
func ListAvailableForAssembly(ctx context.Context, data backend.DataAPI) ([]ComponentRow, error) {
	var raw []componentViewRow
	q := backend.From(componentLocationView).
		Select("componente_id,codigo,serie,tipo,estado,ubic_tipo,centro,equipo_codigo,is_active").
		Neq("ubic_tipo", string(LocationEquipment)).
		Order("codigo", true)
	if _, err := data.Select(ctx, q, &raw); err != nil {
		return nil, fmt.Errorf("failed to list available components: %w", err)
	}
	rows := make([]ComponentRow, 0, len(raw))
	for _, r := range raw {
		row := r.toRow()
		if row.Active {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// LogicalDecommission marks a component as retired. The procedure refuses
// components with an open movement or still mounted on equipment.
func LogicalDecommission(ctx context.Context, data backend.DataAPI, componentID string) error {
	if strings.TrimSpace(componentID) == "" {
		return invalid("validation.component.required")
	}
	return data.RPC(ctx, "rpc_componente_baja_logica", map[string]any{
		"p_componente_id":      componentID,
		"p_marcar_estado_baja": true,
	}, nil)
}

// ReportFault records a fault against a component.
func ReportFault(ctx context.Context, data backend.DataAPI, componentID, detail string) error {
	if strings.TrimSpace(componentID) == "" {
		return invalid("validation.component.required")
	}
	detail = SanitizeText(detail)
	if detail == "" {
		return invalid("errors.detail_required")
	}
	return data.RPC(ctx, "rpc_falla_registrar", map[string]any{
		"p_componente_id": componentID,
		"p_detalle":       detail,
	}, nil)
}

// MoveIncompleteError reports a move whose transit was created but not received.
// The component stays in transit until someone receives movement MovementID.
type MoveIncompleteError struct {
	MovementID string
	Err        error
}

func (e *MoveIncompleteError) Error() string {
	return fmt.Sprintf("movement %s created but not received: %v", e.MovementID, e.Err)
}

func (e *MoveIncompleteError) Unwrap() error { return e.Err }

// MoveToWarehouse relocates a warehoused or reserve component to the warehouse of
// destinationCenterID. It creates a transit and receives it immediately.
func MoveToWarehouse(ctx context.Context, data backend.DataAPI, componentID, destinationCenterID string) (string, error) {
	if strings.TrimSpace(componentID) == "" {
		return "", invalid("validation.component.required")
	}
	if strings.TrimSpace(destinationCenterID) == "" {
		return "", invalid("validation.destination.required")
	}

	comp, err := GetComponent(ctx, data, componentID)
	if err != nil {
		return "", err
	}
	if !comp.Location.Movable() {
		return "", &DomainError{Key: "errors.not_movable"}
	}

	var origin any
	if comp.Location.Kind == LocationWarehouse {
		var hist []struct {
			CentroID string `json:"centro_id"`
		}
		hq := backend.From("componente_bodega_historial").
			Select("centro_id").
			Eq("componente_id", componentID).
			IsNull("fecha_fin").
			Range(0, 0)
		if _, err := data.Select(ctx, hq, &hist); err != nil {
			return "", fmt.Errorf("failed to read warehouse history: %w", err)
		}
		if len(hist) > 0 && hist[0].CentroID != "" {
			origin = hist[0].CentroID
		}
	}

	today := Today()
	var movementID string
	if err := data.RPC(ctx, "rpc_mov_crear", map[string]any{
		"p_origen":      origin,
		"p_destino":     destinationCenterID,
		"p_fecha":       today,
		"p_componentes": []string{componentID},
	}, &movementID); err != nil {
		return "", err
	}

	if err := data.RPC(ctx, "rpc_mov_recepcionar", map[string]any{
		"p_movimiento_id": movementID,
		"p_fecha":         today,
	}, nil); err != nil {
		logger.Warn("movement left in transit", zap.String("movement_id", movementID), zap.Error(err))
		return movementID, &MoveIncompleteError{MovementID: movementID, Err: err}
	}
	return movementID, nil
}

// NewComponent is the input to CreateComponent.
type NewComponent struct {
	TypeID            string `validate:"required"`
	StatusID          string `validate:"required"`
	Serial            string `validate:"required"`
	IngestedOn        string `validate:"omitempty,iso_date"`
	Code              string
	WarehouseCenterID string
}

// CreatedRef is the id and code assigned by a create procedure.
type CreatedRef struct {
	ID     string `json:"id"`
	Codigo string `json:"codigo"`
}

// CreateComponent registers a component. The code is generated from the type
// when not given.
func CreateComponent(ctx context.Context, data backend.DataAPI, in NewComponent) (*CreatedRef, error) {
	in.Serial = strings.TrimSpace(in.Serial)
	in.Code = strings.TrimSpace(in.Code)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	var raw json.RawMessage
	err := data.RPC(ctx, "rpc_componente_crear", map[string]any{
		"p_tipo_id":       in.TypeID,
		"p_estado_id":     in.StatusID,
		"p_serie":         in.Serial,
		"p_fecha":         dateOrNil(in.IngestedOn),
		"p_codigo":        nilIfEmpty(in.Code),
		"p_bodega_centro": nilIfEmpty(in.WarehouseCenterID),
	}, &raw)
	if err != nil {
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

// CatalogOption is an id/name pair for selects.
type CatalogOption struct {
	ID          string `json:"id"`
	Nombre      string `json:"nombre"`
	DisplayName string `json:"display_name"`
	Codigo      string `json:"codigo"`
}

// Label prefers the display name.
func (o CatalogOption) Label() string {
	if o.DisplayName != "" {
		return o.DisplayName
	}
	return o.Nombre
}

// ComponentCatalogs lists component types and statuses for the create form.
func ComponentCatalogs(ctx context.Context, data backend.DataAPI) (types, statuses []CatalogOption, err error) {
	if _, err = data.Select(ctx, backend.From("tipo_componente").Select("id,nombre,display_name,codigo").Order("nombre", true), &types); err != nil {
		return nil, nil, fmt.Errorf("failed to list component types: %w", err)
	}
	if _, err = data.Select(ctx, backend.From("estado_componente").Select("id,nombre").Order("nombre", true), &statuses); err != nil {
		return nil, nil, fmt.Errorf("failed to list component statuses: %w", err)
	}
	return types, statuses, nil
}

func nilIfEmpty(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
