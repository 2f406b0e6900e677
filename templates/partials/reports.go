package partials

import (
	"context"
	"fmt"

	"rov_inventory_go/models"
	"rov_inventory_go/services"
	ui "rov_inventory_go/templates/components"

	"github.com/a-h/templ"
)

// ReportsView is the data of the export screen.
type ReportsView struct {
	Companies []services.Company
	Zones     []services.Zone
	Request   services.ExportRequest
	Exports   []models.ExportRecord
	CSRFToken string
	Flash     string
	FlashKind ui.FlashKind
}

// ExportForm is a plain form post so the browser receives the file download.
func ExportForm(v ReportsView) templ.Component {
	return ui.Func(func(ctx context.Context, h *ui.HTML) {
		if v.Flash != "" {
			h.Render(ctx, ui.Flash(v.FlashKind, v.Flash))
		}
		h.F(`<form method="post" action="/reportes/bitacoras" class="export-form grid grid-cols-5 gap-2"><input type="hidden" name="_csrf" value="%s">`, v.CSRFToken)
		h.F(`<select name="empresa_id" hx-get="/reportes?partial=zonas" hx-target="#zone-select" hx-swap="outerHTML"><option value="">%s</option>`, ui.T(ctx, "reports.company"))
		for _, c := range v.Companies {
			h.F(`<option value="%s"%s>%s</option>`, c.ID, ui.Selected(c.ID, v.Request.CompanyID), c.Name)
		}
		h.Raw(`</select>`)
		h.Render(ctx, ZoneSelect(v.Zones, v.Request.ZoneID))
		h.F(`<input type="date" name="desde" required value="%s" title="%s">`, v.Request.DateFrom, ui.T(ctx, "reports.from"))
		h.F(`<input type="date" name="hasta" required value="%s" title="%s">`, v.Request.DateTo, ui.T(ctx, "reports.to"))
		h.F(`<button type="submit">%s</button></form>`, ui.T(ctx, "reports.export"))
	})
}

// ZoneSelect is swapped in when the company changes.
func ZoneSelect(zones []services.Zone, selected string) templ.Component {
	return ui.Func(func(ctx context.Context, h *ui.HTML) {
		h.F(`<select id="zone-select" name="zona_id" required><option value="">%s</option>`, ui.T(ctx, "reports.zone"))
		for _, z := range zones {
			h.F(`<option value="%s"%s>%s</option>`, z.ID, ui.Selected(z.ID, selected), z.Name)
		}
		h.Raw(`</select>`)
	})
}

// ExportList lists archived exports with download links.
func ExportList(exports []models.ExportRecord) templ.Component {
	return ui.Func(func(ctx context.Context, h *ui.HTML) {
		h.F(`<section id="exports" class="mt-6"><h3>%s</h3>`, ui.T(ctx, "reports.archive"))
		if len(exports) == 0 {
			h.F(`<p class="empty">%s</p></section>`, ui.T(ctx, "common.no_rows"))
			return
		}
		h.Raw(`<table class="w-full text-sm"><thead><tr>`)
		for _, key := range []string{"reports.created_at", "reports.file", "reports.range", "reports.sheets", "reports.rows", "reports.by"} {
			h.F(`<th>%s</th>`, ui.T(ctx, key))
		}
		h.Raw(`</tr></thead><tbody>`)
		for _, e := range exports {
			h.F(`<tr><td>%s</td><td><a href="/reports/exports/%s/download">%s</a> <small>%s</small></td><td>%s – %s</td><td>%d</td><td>%d</td><td>%s</td></tr>`,
				e.CreatedAt.Format("2006-01-02 15:04"), e.ID, e.FileName, formatFileSize(e.FileSize),
				e.DateFrom, e.DateTo, e.SheetCount, e.RowCount, e.UserEmail)
		}
		h.Raw(`</tbody></table></section>`)
	})
}

func formatFileSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
	)
	switch {
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
