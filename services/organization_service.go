package services

import (
	"context"
	"fmt"
	"strings"

	"rov_inventory_go/services/backend"
)

// Company owns zones.
type Company struct {
	ID     string `json:"id"`
	Name   string `json:"nombre"`
	Active bool   `json:"is_active"`
}

// Zone groups centers within a company.
type Zone struct {
	ID        string `json:"id"`
	Name      string `json:"nombre"`
	Region    string `json:"region,omitempty"`
	CompanyID string `json:"empresa_id"`
}

// Center is a physical site.
type Center struct {
	ID        string `json:"id"`
	Name      string `json:"nombre"`
	ZoneID    string `json:"zona_id,omitempty"`
	StartDate string `json:"fecha_inicio,omitempty"`
}

// ListCompanies lists every company by name.
func ListCompanies(ctx context.Context, data backend.DataAPI) ([]Company, error) {
	var out []Company
	if _, err := data.Select(ctx, backend.From("empresas").Select("id,nombre,is_active").Order("nombre", true), &out); err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	return out, nil
}

// CreateCompany adds an active company.
func CreateCompany(ctx context.Context, data backend.DataAPI, name string) error {
	name = SanitizeText(name)
	if name == "" {
		return invalid("validation.name.required")
	}
	return data.Insert(ctx, "empresas", map[string]any{"nombre": name, "is_active": true}, nil)
}

// SetCompanyActive enables or disables a company.
func SetCompanyActive(ctx context.Context, data backend.DataAPI, companyID string, active bool) error {
	if companyID == "" {
		return invalid("validation.company.required")
	}
	return data.Update(ctx, "empresas", map[string]any{"is_active": active}, backend.Eq("id", companyID))
}

// ListZones lists the zones of companyID by name.
func ListZones(ctx context.Context, data backend.DataAPI, companyID string) ([]Zone, error) {
	if companyID == "" {
		return nil, nil
	}
	var out []Zone
	q := backend.From("zonas").Select("id,nombre,region,empresa_id").Eq("empresa_id", companyID).Order("nombre", true)
	if _, err := data.Select(ctx, q, &out); err != nil {
		return nil, fmt.Errorf("failed to list zones: %w", err)
	}
	return out, nil
}

// CreateZone adds a zone under companyID.
func CreateZone(ctx context.Context, data backend.DataAPI, companyID, name, region string) error {
	name = SanitizeText(name)
	if name == "" {
		return invalid("validation.name.required")
	}
	if companyID == "" {
		return invalid("validation.company.required")
	}
	row := map[string]any{"nombre": name, "empresa_id": companyID}
	if r := SanitizeText(region); r != "" {
		row["region"] = r
	}
	return data.Insert(ctx, "zonas", row, nil)
}

// ListCenters lists the centers of zoneID by name, or all centers when zoneID is empty.
func ListCenters(ctx context.Context, data backend.DataAPI, zoneID string) ([]Center, error) {
	var out []Center
	q := backend.From("centros").Select("id,nombre,zona_id,fecha_inicio").Order("nombre", true)
	if zoneID != "" {
		q.Eq("zona_id", zoneID)
	}
	if _, err := data.Select(ctx, q, &out); err != nil {
		return nil, fmt.Errorf("failed to list centers: %w", err)
	}
	return out, nil
}

// CreateCenter adds a center under zoneID. An empty start date is stored as null.
func CreateCenter(ctx context.Context, data backend.DataAPI, zoneID, name, startDate string) error {
	name = SanitizeText(name)
	if name == "" {
		return invalid("validation.name.required")
	}
	if zoneID == "" {
		return invalid("validation.zone.required")
	}
	startDate = strings.TrimSpace(startDate)
	if startDate != "" {
		if _, err := ParseDate(startDate); err != nil {
			return invalid("validation.date.iso_date")
		}
	}
	return data.Insert(ctx, "centros", map[string]any{
		"nombre":       name,
		"zona_id":      zoneID,
		"fecha_inicio": dateOrNil(startDate),
	}, nil)
}
