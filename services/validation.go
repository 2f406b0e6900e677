package services

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Profile roles accepted by the backend.
const (
	RoleAdmin   = "admin"
	RoleOficina = "oficina"
	RoleCentro  = "centro"
	RoleDev     = "dev"
)

// AssignableRoles are the roles an administrator may grant.
var AssignableRoles = []string{RoleAdmin, RoleOficina, RoleCentro}

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("user_role", validateUserRole)
	_ = validate.RegisterValidation("iso_date", validateISODate)
}

// EchoValidator plugs the shared validator into echo. Failures come back as
// *ValidationError so ClassifyError renders them like service validation.
type EchoValidator struct{}

func (EchoValidator) Validate(i interface{}) error { return validateStruct(i) }

func validateUserRole(fl validator.FieldLevel) bool {
	return IsAssignableRole(fl.Field().String())
}

func validateISODate(fl validator.FieldLevel) bool {
	_, err := ParseDate(fl.Field().String())
	return err == nil
}

// IsAssignableRole reports whether role is admin, oficina or centro.
func IsAssignableRole(role string) bool {
	for _, r := range AssignableRoles {
		if role == r {
			return true
		}
	}
	return false
}

// validateStruct runs struct tags and turns the first failure into a ValidationError
// keyed "validation.<field>.<tag>".
func validateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Tag() == "max" {
			return &ValidationError{Key: "validation.too_long", Args: map[string]interface{}{"field": fe.Field()}}
		}
		return &ValidationError{
			Key:  "validation." + strings.ToLower(fe.Field()) + "." + fe.Tag(),
			Args: map[string]interface{}{"field": fe.Field()},
		}
	}
	return err
}
