package handlers

import (
	"net/http"
	"strings"

	"rov_inventory_go/db"
	"rov_inventory_go/logger"
	"rov_inventory_go/middleware"
	"rov_inventory_go/models"
	"rov_inventory_go/services"
	"rov_inventory_go/templates/pages"
	ui "rov_inventory_go/templates/components"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// LoginHandler renders the sign-in page, or redirects when already signed in.
func LoginHandler(c echo.Context) error {
	if cookie, err := c.Cookie(middleware.SessionCookieName); err == nil && cookie.Value != "" {
		if b := middleware.GetBackend(c); b != nil && b.Sessions != nil {
			if _, err := b.Sessions.Validate(cookie.Value); err == nil {
				return c.Redirect(http.StatusSeeOther, "/inventario")
			}
		}
	}
	return render(c, http.StatusOK, pages.Login(middleware.GetCSRFToken(c), middleware.GetNonce(c), "", ""))
}

// LoginPostHandler signs in against the backend and opens a local session.
func LoginPostHandler(c echo.Context) error {
	email := strings.ToLower(strings.TrimSpace(c.FormValue("email")))
	password := c.FormValue("password")
	ip := c.RealIP()

	fail := func(status int, msg string) error {
		if middleware.IsHTMX(c) {
			return render(c, http.StatusOK, ui.Flash(ui.FlashError, msg))
		}
		return render(c, status, pages.Login(middleware.GetCSRFToken(c), middleware.GetNonce(c), email, msg))
	}

	if email == "" || password == "" {
		return fail(http.StatusBadRequest, tr(c, "login.missing_fields"))
	}

	b := middleware.GetBackend(c)
	if b == nil || b.Sessions == nil {
		return fail(http.StatusServiceUnavailable, tr(c, "errors.transport"))
	}

	session, err := b.Sessions.SignIn(c.Request().Context(), email, password, ip, c.Request().UserAgent())
	if err != nil {
		f := services.ClassifyError(err)
		if f.Kind == services.KindTransport {
			logger.Error("sign-in failed", zap.String("email", email), zap.Error(err))
			return fail(http.StatusServiceUnavailable, f.Message(middleware.GetLocale(c)))
		}
		services.Monitor.TrackFailedSignIn(ip, email)
		services.LogSecurityEvent(db.DB, "LOGIN_FAILED", services.AuditContext{UserEmail: email, IPAddress: ip, UserAgent: c.Request().UserAgent()}, f.Key)
		return fail(http.StatusUnauthorized, f.Message(middleware.GetLocale(c)))
	}

	services.Monitor.ResetIP(ip)
	middleware.SetSessionCookie(c, session)
	auditCtx := services.AuditContext{UserID: session.UserID, UserEmail: session.Email, IPAddress: ip, UserAgent: c.Request().UserAgent()}
	services.LogSecurityEvent(db.DB, "LOGIN", auditCtx, "")
	services.LogAuditEvent(db.DB, auditCtx, models.AuditActionLogin, "session", session.ID, session.Email, "Signed in", nil)

	if middleware.IsHTMX(c) {
		c.Response().Header().Set("HX-Redirect", "/inventario")
		return c.NoContent(http.StatusOK)
	}
	return c.Redirect(http.StatusSeeOther, "/inventario")
}

// LogoutHandler ends the backend session, the local session and every
// residual backend token cookie.
func LogoutHandler(c echo.Context) error {
	if cookie, err := c.Cookie(middleware.SessionCookieName); err == nil && cookie.Value != "" {
		if b := middleware.GetBackend(c); b != nil && b.Sessions != nil {
			if err := b.Sessions.SignOut(c.Request().Context(), cookie.Value); err != nil {
				logger.Warn("sign-out incomplete", zap.Error(err))
			}
		}
	}
	if p := middleware.GetProfile(c); p != nil {
		services.LogSecurityEvent(db.DB, "LOGOUT", middleware.GetAuditContext(c), "")
	}
	middleware.ClearSessionCookie(c)
	middleware.ClearBackendCookies(c)

	if middleware.IsHTMX(c) {
		c.Response().Header().Set("HX-Redirect", "/login")
		return c.NoContent(http.StatusOK)
	}
	return c.Redirect(http.StatusSeeOther, "/login")
}

// HomeHandler sends signed-in users to the inventory.
func HomeHandler(c echo.Context) error {
	return c.Redirect(http.StatusSeeOther, "/inventario")
}

// CurrentUserResponse is the JSON shape of /api/me.
type CurrentUserResponse struct {
	UserID             string `json:"user_id"`
	Email              string `json:"email"`
	Name               string `json:"nombre,omitempty"`
	Role               string `json:"rol,omitempty"`
	CenterID           string `json:"centro_id,omitempty"`
	CenterName         string `json:"centro,omitempty"`
	MustChangePassword bool   `json:"must_change_password"`
	Source             string `json:"source"`
}

// GetCurrentUserHandler returns the resolved profile of the caller.
func GetCurrentUserHandler(c echo.Context) error {
	p := middleware.GetProfile(c)
	if p == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": tr(c, "errors.unauthenticated")})
	}
	return c.JSON(http.StatusOK, CurrentUserResponse{
		UserID:             p.UserID,
		Email:              p.Email,
		Name:               p.Name,
		Role:               p.Role,
		CenterID:           p.CenterID,
		CenterName:         p.CenterName,
		MustChangePassword: p.MustChangePassword,
		Source:             string(p.Source),
	})
}

// HealthHandler reports liveness and local database reachability.
func HealthHandler(c echo.Context) error {
	status := "ok"
	code := http.StatusOK
	if db.DB == nil {
		status, code = "degraded", http.StatusServiceUnavailable
	} else if sqlDB, err := db.DB.DB(); err != nil || sqlDB.PingContext(c.Request().Context()) != nil {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	return c.JSON(code, map[string]string{"status": status})
}
