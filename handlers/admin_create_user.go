package handlers

import (
	"errors"
	"net/http"

	"rov_inventory_go/logger"
	"rov_inventory_go/middleware"
	"rov_inventory_go/services"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var errAdminUnavailable = errors.New("admin backend not configured")

// CreateUserRequest is the JSON body of the create-user endpoint.
type CreateUserRequest struct {
	Name           string `json:"nombre" validate:"max=120"`
	Email          string `json:"email" validate:"max=254"`
	NationalIDBody string `json:"rutBody" validate:"max=16"`
	Role           string `json:"rol" validate:"max=16"`
	CenterID       string `json:"centroId,omitempty" validate:"max=64"`
}

// CreateUserResponse is returned when an account was created.
type CreateUserResponse struct {
	OK      bool   `json:"ok"`
	UserID  string `json:"user_id"`
	Warning string `json:"warning,omitempty"`
}

// AdminCreateUserHandler provisions a user with the service-role key.
// Validation and backend refusals answer 400, missing configuration and
// unexpected failures answer 500.
func AdminCreateUserHandler(c echo.Context) error {
	if c.Request().Method != http.MethodPost {
		return c.JSON(http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
	}

	var req CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": tr(c, "errors.invalid_body")})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": errorMessage(c, err)})
	}

	result, err := provisionUser(c, services.NewUser{
		Name:           req.Name,
		Email:          req.Email,
		NationalIDBody: req.NationalIDBody,
		Role:           req.Role,
		CenterID:       req.CenterID,
	})
	if err != nil {
		lang := middleware.GetLocale(c)
		if errors.Is(err, errAdminUnavailable) {
			logger.Error("create-user called without service-role key")
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": tr(c, "errors.admin_unavailable")})
		}
		f := services.ClassifyError(err)
		switch {
		case errors.Is(err, services.ErrNoUserID), f.Kind == services.KindTransport:
			logger.Error("create-user failed", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": f.Message(lang)})
		default:
			return c.JSON(http.StatusBadRequest, map[string]string{"error": f.Message(lang)})
		}
	}

	return c.JSON(http.StatusOK, CreateUserResponse{
		OK:      true,
		UserID:  result.UserID,
		Warning: result.Warning(middleware.GetLocale(c)),
	})
}
