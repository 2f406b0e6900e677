package services

import "strings"

// Component roles derived from the component type name.
const (
	RoleROV        = "ROV"
	RoleController = "CONTROLADOR"
	RoleUmbilical  = "UMBILICAL"
	RoleSensor     = "SENSOR"
	RoleGrabber    = "GRABBER"
	RoleUnknown    = "DESCONOCIDO"
)

// uniqueRoles may appear at most once per equipment. Sensors may repeat.
var uniqueRoles = map[string]bool{
	RoleROV:        true,
	RoleController: true,
	RoleUmbilical:  true,
	RoleGrabber:    true,
}

// coreRoles must all be present for an equipment to be operable.
var coreRoles = []string{RoleROV, RoleController, RoleUmbilical}

// IsUniqueRole reports whether role is limited to one per equipment.
func IsUniqueRole(role string) bool {
	return uniqueRoles[role]
}

// RoleFromTypeName maps a component type name to its assembly role.
func RoleFromTypeName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	switch {
	case n == "":
		return RoleUnknown
	case strings.Contains(n, "rov"):
		return RoleROV
	case strings.Contains(n, "control"):
		return RoleController
	case strings.Contains(n, "umbil"):
		return RoleUmbilical
	case strings.Contains(n, "sensor"):
		return RoleSensor
	case strings.Contains(n, "grab"):
		return RoleGrabber
	default:
		return strings.ToUpper(strings.TrimSpace(name))
	}
}

// CodeSuffix returns the token after the first '-' in a component code,
// e.g. "ROV-012" -> "012". Codes without a dash have no suffix.
func CodeSuffix(code string) string {
	parts := strings.Split(code, "-")
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// Attached is a component currently mounted on an equipment.
type Attached struct {
	ID       string
	Code     string
	Serial   string
	Role     string
	Optional bool
}

func findRole(comps []Attached, role string) *Attached {
	for i := range comps {
		if comps[i].Role == role {
			return &comps[i]
		}
	}
	return nil
}

// CoreOK reports whether ROV, controller and umbilical are all attached.
func CoreOK(comps []Attached) bool {
	for _, role := range coreRoles {
		if findRole(comps, role) == nil {
			return false
		}
	}
	return true
}

// Paired reports whether the attached ROV and controller share a code suffix.
func Paired(comps []Attached) bool {
	rov := findRole(comps, RoleROV)
	ctrl := findRole(comps, RoleController)
	if rov == nil || ctrl == nil {
		return false
	}
	s := CodeSuffix(rov.Code)
	return s != "" && s == CodeSuffix(ctrl.Code)
}

// CanAddComponent rejects a unique role that the equipment already holds.
func CanAddComponent(comps []Attached, role string) error {
	if !IsUniqueRole(role) {
		return nil
	}
	if findRole(comps, role) != nil {
		return &DomainError{Key: "errors.role_taken", Args: map[string]interface{}{"role": role}}
	}
	return nil
}
