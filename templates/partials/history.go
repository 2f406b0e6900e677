package partials

import (
	"context"

	"rov_inventory_go/models"
	ui "rov_inventory_go/templates/components"

	"github.com/a-h/templ"
)

// AuditHistory shows the local audit trail of one resource in a dialog.
func AuditHistory(title string, logs []models.AuditLog) templ.Component {
	return ui.Func(func(ctx context.Context, h *ui.HTML) {
		h.F(`<dialog open class="history-dialog"><h3>%s</h3>`, title)
		if len(logs) == 0 {
			h.F(`<p class="empty">%s</p>`, ui.T(ctx, "common.no_rows"))
		} else {
			h.Raw(`<ol class="text-sm">`)
			for _, l := range logs {
				who := l.UserEmail
				if who == "" {
					who = "—"
				}
				h.F(`<li><time>%s</time> <strong>%s</strong> %s <span class="who">%s</span></li>`,
					l.CreatedAt.Format("2006-01-02 15:04"), string(l.Action), l.Description, who)
			}
			h.Raw(`</ol>`)
		}
		h.F(`<form method="dialog"><button type="submit" class="close">%s</button></form></dialog>`, ui.T(ctx, "common.close"))
	})
}
