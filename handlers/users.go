package handlers

import (
	"errors"
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

const refreshUsers = "users-refresh"

// UsersHandler renders the user administration screen. With ?partial=1 only
// the list section is returned.
func UsersHandler(c echo.Context) error {
	ctx, data := c.Request().Context(), middleware.GetData(c)
	v := partials.UsersView{Query: strings.TrimSpace(c.QueryParam("q"))}
	users, err := services.ListUsers(ctx, data, v.Query)
	if err != nil {
		v.Error = errorMessage(c, err)
	}
	v.Users = users
	if centers, err := services.ListCenters(ctx, data, ""); err == nil {
		v.Centers = centers
	}

	if c.QueryParam("partial") != "" {
		return render(c, http.StatusOK, partials.UserList(v))
	}
	return render(c, http.StatusOK, pages.Users(pageFor(c, "nav.users"), v))
}

// provisionUser runs the creation saga, then records and announces the new account.
func provisionUser(c echo.Context, in services.NewUser) (*services.CreateUserResult, error) {
	b := middleware.GetBackend(c)
	if b == nil || b.Admin == nil {
		return nil, errAdminUnavailable
	}
	result, err := services.CreateUser(c.Request().Context(), b.Admin, in)
	if err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	audit(c, models.AuditActionCreate, "user", result.UserID, email, "User created", map[string]string{"role": in.Role, "center": in.CenterID})
	services.LogSecurityEvent(db.DB, "USER_CREATED", middleware.GetAuditContext(c), result.UserID)

	cfg := middleware.GetConfig(c)
	services.SendEmailAsync(cfg, services.BuildNewUserWelcomeEmail(email, services.SanitizeText(in.Name), in.Role, cfg.AppURL, middleware.GetLocale(c)))
	return result, nil
}

// CreateUserFormHandler creates a user from the administration screen.
func CreateUserFormHandler(c echo.Context) error {
	in := services.NewUser{
		Name:           c.FormValue("nombre"),
		Email:          c.FormValue("email"),
		NationalIDBody: c.FormValue("rutBody"),
		Role:           c.FormValue("rol"),
		CenterID:       c.FormValue("centroId"),
	}
	result, err := provisionUser(c, in)
	if err != nil {
		if errors.Is(err, errAdminUnavailable) {
			return render(c, http.StatusOK, ui.Flash(ui.FlashError, tr(c, "errors.admin_unavailable")))
		}
		return commandFailed(c, "user.create", err)
	}
	if w := result.Warning(middleware.GetLocale(c)); w != "" {
		c.Response().Header().Set("HX-Trigger", refreshUsers)
		return render(c, http.StatusOK, ui.Flash(ui.FlashWarning, w))
	}
	return commandOK(c, refreshUsers, "users.created")
}

// UpdateRoleHandler changes the role of a user.
func UpdateRoleHandler(c echo.Context) error {
	id, role := c.Param("id"), strings.TrimSpace(c.FormValue("rol"))
	if err := services.UpdateRole(c.Request().Context(), middleware.GetData(c), id, role); err != nil {
		return commandFailed(c, "user.role", err)
	}
	audit(c, models.AuditActionUpdate, "user", id, "", "Role changed", map[string]string{"role": role})
	return commandOK(c, refreshUsers, "users.role_updated")
}

// SetActiveHandler enables or disables a user. Disabling also ends the
// user's local sessions.
func SetActiveHandler(c echo.Context) error {
	id := c.Param("id")
	active := isChecked(c.FormValue("activo"))
	if err := services.SetActive(c.Request().Context(), middleware.GetData(c), id, active); err != nil {
		return commandFailed(c, "user.active", err)
	}
	if !active {
		if err := services.DeleteAllUserSessions(db.DB, id); err != nil {
			logger.Warn("failed to end sessions of disabled user", zap.String("user_id", id), zap.Error(err))
		}
	}
	audit(c, models.AuditActionUpdate, "user", id, "", "Active flag changed", map[string]bool{"active": active})
	if active {
		return commandOK(c, refreshUsers, "users.activated")
	}
	return commandOK(c, refreshUsers, "users.deactivated")
}

// TransferUserHandler moves a user to another center.
func TransferUserHandler(c echo.Context) error {
	id := c.Param("id")
	centerID := strings.TrimSpace(c.FormValue("centro_id"))
	if err := services.TransferToCenter(c.Request().Context(), middleware.GetData(c), id, centerID, strings.TrimSpace(c.FormValue("fecha_inicio"))); err != nil {
		return commandFailed(c, "user.transfer", err)
	}
	audit(c, models.AuditActionMove, "user", id, "", "User transferred", map[string]string{"center": centerID})
	return commandOK(c, refreshUsers, "users.transferred")
}
