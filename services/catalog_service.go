package services

import (
	"context"
	"fmt"
	"strings"

	"rov_inventory_go/services/backend"
)

// CatalogKind names an editable lookup table.
type CatalogKind string

const (
	CatalogComponentType   CatalogKind = "tipo_componente"
	CatalogComponentStatus CatalogKind = "estado_componente"
	CatalogPortStatus      CatalogKind = "estado_puerto"
	CatalogActivity        CatalogKind = "actividad_catalogo"
)

// CatalogKinds lists every editable catalog in display order.
var CatalogKinds = []CatalogKind{CatalogComponentType, CatalogComponentStatus, CatalogPortStatus, CatalogActivity}

// ParseCatalogKind validates a catalog name from a URL.
func ParseCatalogKind(s string) (CatalogKind, bool) {
	for _, k := range CatalogKinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// CatalogEntry is one code/name row. RequiresEquipment and Active only apply to activities.
type CatalogEntry struct {
	ID                string `json:"id,omitempty"`
	Code              string `json:"codigo"`
	Name              string `json:"nombre"`
	RequiresEquipment bool   `json:"requiere_equipo,omitempty"`
	Active            bool   `json:"is_active,omitempty"`
}

// ListCatalog lists entries of kind ordered by code.
func ListCatalog(ctx context.Context, data backend.DataAPI, kind CatalogKind) ([]CatalogEntry, error) {
	var out []CatalogEntry
	if _, err := data.Select(ctx, backend.From(string(kind)).Order("codigo", true), &out); err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", kind, err)
	}
	return out, nil
}

// normalizeCode applies the casing convention of each catalog: component types
// are upper case, everything else lower case.
func normalizeCode(kind CatalogKind, code string) string {
	code = strings.TrimSpace(code)
	if kind == CatalogComponentType {
		return strings.ToUpper(code)
	}
	return strings.ToLower(code)
}

// UpsertCatalogEntry creates or updates an entry keyed by code.
func UpsertCatalogEntry(ctx context.Context, data backend.DataAPI, kind CatalogKind, e CatalogEntry) error {
	if _, ok := ParseCatalogKind(string(kind)); !ok {
		return invalid("validation.catalog.kind")
	}
	code := normalizeCode(kind, SanitizeText(e.Code))
	name := SanitizeText(e.Name)
	if code == "" || name == "" {
		return invalid("validation.catalog.code_name")
	}

	row := map[string]any{"codigo": code, "nombre": name}
	if kind == CatalogActivity {
		row["requiere_equipo"] = e.RequiresEquipment
		row["is_active"] = e.Active
	}
	return data.Upsert(ctx, string(kind), []map[string]any{row}, "codigo")
}
