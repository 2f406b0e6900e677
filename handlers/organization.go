package handlers

import (
	"net/http"
	"strings"

	"rov_inventory_go/middleware"
	"rov_inventory_go/models"
	"rov_inventory_go/services"
	"rov_inventory_go/templates/pages"
	"rov_inventory_go/templates/partials"

	"github.com/labstack/echo/v4"
)

const refreshOrganization = "org-refresh"

// OrganizationHandler renders companies, the zones of ?empresa= and the
// centers of ?zona=. With ?partial=1 only the section is returned.
func OrganizationHandler(c echo.Context) error {
	ctx, data := c.Request().Context(), middleware.GetData(c)
	v := partials.OrganizationView{
		CompanyID: strings.TrimSpace(c.QueryParam("empresa")),
		ZoneID:    strings.TrimSpace(c.QueryParam("zona")),
	}
	if v.CompanyID == "" {
		v.ZoneID = ""
	}

	var err error
	if v.Companies, err = services.ListCompanies(ctx, data); err != nil {
		v.Error = errorMessage(c, err)
	}
	if v.CompanyID != "" && err == nil {
		if v.Zones, err = services.ListZones(ctx, data, v.CompanyID); err != nil {
			v.Error = errorMessage(c, err)
		}
	}
	if v.ZoneID != "" && err == nil {
		if v.Centers, err = services.ListCenters(ctx, data, v.ZoneID); err != nil {
			v.Error = errorMessage(c, err)
		}
	}

	if c.QueryParam("partial") != "" {
		return render(c, http.StatusOK, partials.Organization(v))
	}
	return render(c, http.StatusOK, pages.Organization(pageFor(c, "nav.organization"), v))
}

// CreateCompanyHandler adds an active company.
func CreateCompanyHandler(c echo.Context) error {
	name := c.FormValue("nombre")
	if err := services.CreateCompany(c.Request().Context(), middleware.GetData(c), name); err != nil {
		return commandFailed(c, "company.create", err)
	}
	audit(c, models.AuditActionCreate, "company", "", strings.TrimSpace(name), "Company created", nil)
	return commandOK(c, refreshOrganization, "org.company_created")
}

// ToggleCompanyHandler activates or deactivates a company.
func ToggleCompanyHandler(c echo.Context) error {
	id := c.Param("id")
	active := isChecked(c.FormValue("activo"))
	if err := services.SetCompanyActive(c.Request().Context(), middleware.GetData(c), id, active); err != nil {
		return commandFailed(c, "company.toggle", err)
	}
	audit(c, models.AuditActionUpdate, "company", id, "", "Company active flag changed", map[string]bool{"active": active})
	return commandOK(c, refreshOrganization, "org.company_updated")
}

// CreateZoneHandler adds a zone to a company.
func CreateZoneHandler(c echo.Context) error {
	companyID := strings.TrimSpace(c.FormValue("empresa_id"))
	name := c.FormValue("nombre")
	if err := services.CreateZone(c.Request().Context(), middleware.GetData(c), companyID, name, c.FormValue("region")); err != nil {
		return commandFailed(c, "zone.create", err)
	}
	audit(c, models.AuditActionCreate, "zone", "", strings.TrimSpace(name), "Zone created", map[string]string{"company": companyID})
	return commandOK(c, refreshOrganization, "org.zone_created")
}

// CreateCenterHandler adds a center to a zone.
func CreateCenterHandler(c echo.Context) error {
	zoneID := strings.TrimSpace(c.FormValue("zona_id"))
	name := c.FormValue("nombre")
	if err := services.CreateCenter(c.Request().Context(), middleware.GetData(c), zoneID, name, strings.TrimSpace(c.FormValue("fecha_inicio"))); err != nil {
		return commandFailed(c, "center.create", err)
	}
	audit(c, models.AuditActionCreate, "center", "", strings.TrimSpace(name), "Center created", map[string]string{"zone": zoneID})
	return commandOK(c, refreshOrganization, "org.center_created")
}
