package handlers

import (
	"net/http"

	"rov_inventory_go/db"
	"rov_inventory_go/logger"
	"rov_inventory_go/middleware"
	"rov_inventory_go/models"
	"rov_inventory_go/services"
	"rov_inventory_go/services/i18n"
	ui "rov_inventory_go/templates/components"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func render(c echo.Context, status int, component templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(status)
	return component.Render(c.Request().Context(), c.Response())
}

func tr(c echo.Context, key string, args ...map[string]interface{}) string {
	return i18n.Translate(middleware.GetLocale(c), key, args...)
}

// pageFor builds the chrome of an authenticated page.
func pageFor(c echo.Context, titleKey string) ui.Page {
	return ui.Page{
		Title:     tr(c, titleKey),
		Profile:   middleware.GetProfile(c),
		CSRFToken: middleware.GetCSRFToken(c),
		Nonce:     middleware.GetNonce(c),
	}
}

// commandOK answers a successful command with a success flash and fires the
// client event that makes the affected view reload itself.
func commandOK(c echo.Context, refreshEvent, messageKey string, args ...map[string]interface{}) error {
	if refreshEvent != "" {
		c.Response().Header().Set("HX-Trigger", refreshEvent)
	}
	return render(c, http.StatusOK, ui.Flash(ui.FlashSuccess, tr(c, messageKey, args...)))
}

// commandFailed renders the classified error inline. Failures are answered
// with 200 so htmx swaps the flash in.
func commandFailed(c echo.Context, op string, err error) error {
	f := services.ClassifyError(err)
	fields := []zap.Field{zap.String("op", op), zap.String("kind", string(f.Kind)), zap.Error(err)}
	if f.Kind == services.KindTransport {
		logger.Error("command failed", fields...)
	} else {
		logger.Info("command rejected", fields...)
	}
	return render(c, http.StatusOK, ui.Flash(ui.FlashError, f.Message(middleware.GetLocale(c))))
}

func errorMessage(c echo.Context, err error) string {
	return services.ClassifyError(err).Message(middleware.GetLocale(c))
}

// audit records a command issued through the app.
func audit(c echo.Context, action models.AuditAction, resourceType, resourceID, resourceName, description string, details interface{}) {
	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c), action, resourceType, resourceID, resourceName, description, details)
}

func isChecked(v string) bool {
	return v == "1" || v == "true" || v == "on"
}

// lastValue returns the last value of a form field. Checkboxes are paired
// with a hidden "0" input, so the checkbox wins when present.
func lastValue(c echo.Context, name string) string {
	if err := c.Request().ParseForm(); err != nil {
		return ""
	}
	vals := c.Request().Form[name]
	if len(vals) == 0 {
		return ""
	}
	return vals[len(vals)-1]
}
