package services

import (
	"errors"
	"strings"

	"rov_inventory_go/services/backend"
	"rov_inventory_go/services/i18n"
)

// ErrorKind groups failures by how they are shown to the user.
type ErrorKind string

const (
	KindTransport  ErrorKind = "transport"  // missing configuration or network failure
	KindPermission ErrorKind = "permission" // row-level security or role denial
	KindDomain     ErrorKind = "domain"     // rule raised by a stored procedure or a client pre-check
	KindValidation ErrorKind = "validation" // rejected before any network call
)

// ValidationError is a missing or malformed input detected locally.
type ValidationError struct {
	Key  string
	Args map[string]interface{}
}

func (e *ValidationError) Error() string { return i18n.Translate("es", e.Key, e.Args) }

// DomainError is a business rule rejected locally before calling the backend.
type DomainError struct {
	Key  string
	Args map[string]interface{}
}

func (e *DomainError) Error() string { return i18n.Translate("es", e.Key, e.Args) }

func invalid(key string) error { return &ValidationError{Key: key} }

// Failure is the classified, user-facing form of an error.
type Failure struct {
	Kind ErrorKind
	Key  string
	Args map[string]interface{}
}

// Message renders the failure in lang.
func (f Failure) Message(lang string) string {
	return i18n.Translate(lang, f.Key, f.Args)
}

// known procedure messages, matched case-insensitively against backend text.
var domainPatterns = []struct {
	needle string
	key    string
}{
	{"movimiento activo", "errors.active_movement"},
	{"montado", "errors.mounted"},
	{"detalle requerido", "errors.detail_required"},
	{"ya posee", "errors.role_taken_remote"},
	{"invalid login credentials", "errors.invalid_credentials"},
}

// ClassifyError maps any error returned by a service into the four user-facing kinds.
func ClassifyError(err error) Failure {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return Failure{Kind: KindValidation, Key: ve.Key, Args: ve.Args}
	}
	var de *DomainError
	if errors.As(err, &de) {
		return Failure{Kind: KindDomain, Key: de.Key, Args: de.Args}
	}
	var mi *MoveIncompleteError
	if errors.As(err, &mi) {
		inner := ClassifyError(mi.Err)
		return Failure{Kind: inner.Kind, Key: "errors.move_in_transit", Args: map[string]interface{}{
			"movement": mi.MovementID,
			"detail":   inner.Message("es"),
		}}
	}
	if errors.Is(err, backend.ErrNotConfigured) || errors.Is(err, backend.ErrTransport) {
		return Failure{Kind: KindTransport, Key: "errors.transport"}
	}

	msg := ""
	if err != nil {
		msg = err.Error()
	}
	if be, ok := backend.AsError(err); ok {
		if be.IsPermissionDenied() {
			return Failure{Kind: KindPermission, Key: "errors.permission"}
		}
		msg = be.Message
	}

	if backend.MentionsRowSecurity(msg) {
		return Failure{Kind: KindPermission, Key: "errors.permission"}
	}
	lower := strings.ToLower(msg)
	for _, p := range domainPatterns {
		if strings.Contains(lower, p.needle) {
			return Failure{Kind: KindDomain, Key: p.key, Args: map[string]interface{}{"detail": msg}}
		}
	}
	return Failure{Kind: KindDomain, Key: "errors.generic", Args: map[string]interface{}{"detail": msg}}
}

var errNoRows = errors.New("no rows")
