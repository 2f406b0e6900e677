package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"rov_inventory_go/db"
	"rov_inventory_go/logger"
	"rov_inventory_go/middleware"
	"rov_inventory_go/models"
	"rov_inventory_go/services"
	"rov_inventory_go/templates/pages"
	"rov_inventory_go/templates/partials"
	ui "rov_inventory_go/templates/components"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const exportListLimit = 50

func reportsView(c echo.Context, req services.ExportRequest) partials.ReportsView {
	ctx, data := c.Request().Context(), middleware.GetData(c)
	v := partials.ReportsView{Request: req}
	companies, err := services.ListCompanies(ctx, data)
	if err != nil {
		v.Flash, v.FlashKind = errorMessage(c, err), ui.FlashError
	}
	v.Companies = companies
	if req.CompanyID != "" {
		if zones, err := services.ListZones(ctx, data, req.CompanyID); err == nil {
			v.Zones = zones
		}
	}
	if exports, err := services.ListExports(db.DB, exportListLimit); err == nil {
		v.Exports = exports
	} else {
		logger.Warn("failed to list exports", zap.Error(err))
	}
	return v
}

// ReportsHandler renders the export form and the archive. ?partial=zonas
// returns only the zone select for the chosen company.
func ReportsHandler(c echo.Context) error {
	if c.QueryParam("partial") == "zonas" {
		companyID := strings.TrimSpace(c.QueryParam("empresa_id"))
		var zones []services.Zone
		if companyID != "" {
			var err error
			if zones, err = services.ListZones(c.Request().Context(), middleware.GetData(c), companyID); err != nil {
				return commandFailed(c, "reports.zones", err)
			}
		}
		return render(c, http.StatusOK, partials.ZoneSelect(zones, ""))
	}
	req := services.ExportRequest{CompanyID: strings.TrimSpace(c.QueryParam("empresa_id"))}
	return render(c, http.StatusOK, pages.Reports(pageFor(c, "nav.reports"), reportsView(c, req)))
}

// ExportBitacorasHandler builds the per-center workbook and sends it as a
// download. Every generated file is archived; an archive failure does not
// block the download.
func ExportBitacorasHandler(c echo.Context) error {
	req := services.ExportRequest{
		CompanyID: strings.TrimSpace(c.FormValue("empresa_id")),
		ZoneID:    strings.TrimSpace(c.FormValue("zona_id")),
		DateFrom:  strings.TrimSpace(c.FormValue("desde")),
		DateTo:    strings.TrimSpace(c.FormValue("hasta")),
	}

	exp, err := services.ExportBitacoraRange(c.Request().Context(), middleware.GetData(c), req)
	if err != nil {
		v := reportsView(c, req)
		if errors.Is(err, services.ErrNoResults) {
			v.Flash, v.FlashKind = tr(c, "errors.no_results"), ui.FlashInfo
		} else {
			v.Flash, v.FlashKind = errorMessage(c, err), ui.FlashError
			logger.Info("export failed", zap.String("zone_id", req.ZoneID), zap.Error(err))
		}
		return render(c, http.StatusOK, pages.Reports(pageFor(c, "nav.reports"), v))
	}

	profile := middleware.GetProfile(c)
	userID, email := "", ""
	if profile != nil {
		userID, email = profile.UserID, profile.Email
	}
	record, err := services.ArchiveExport(c.Request().Context(), db.DB, services.Storage, exp, req, userID, email)
	if err != nil {
		logger.Warn("export not archived", zap.String("file", exp.FileName), zap.Error(err))
	} else {
		audit(c, models.AuditActionExport, "export", record.ID, record.FileName, "Bitácora exported",
			map[string]interface{}{"zone": req.ZoneID, "from": req.DateFrom, "to": req.DateTo, "sheets": exp.Sheets, "rows": exp.Rows})
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", exp.FileName))
	return c.Stream(http.StatusOK, services.XLSXContentType, bytes.NewReader(exp.Content))
}

// ListExportsHandler renders the export archive.
func ListExportsHandler(c echo.Context) error {
	exports, err := services.ListExports(db.DB, exportListLimit)
	if err != nil {
		return commandFailed(c, "exports.list", err)
	}
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON) {
		return c.JSON(http.StatusOK, exports)
	}
	return render(c, http.StatusOK, partials.ExportList(exports))
}

// DownloadExportHandler re-downloads an archived export.
func DownloadExportHandler(c echo.Context) error {
	record, reader, err := services.OpenExport(c.Request().Context(), db.DB, services.Storage, c.Param("id"))
	if err != nil {
		var de *services.DomainError
		if errors.As(err, &de) {
			return echo.NewHTTPError(http.StatusNotFound, errorMessage(c, err))
		}
		logger.Error("failed to open export", zap.String("id", c.Param("id")), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, tr(c, "errors.transport"))
	}
	defer reader.Close()

	audit(c, models.AuditActionDownload, "export", record.ID, record.FileName, "Archived export downloaded", nil)
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", record.FileName))
	return c.Stream(http.StatusOK, services.XLSXContentType, reader)
}
