package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"rov_inventory_go/logger"
	"rov_inventory_go/services/backend"
	"rov_inventory_go/services/i18n"

	"go.uber.org/zap"
)

// ErrNoUserID is returned when the identity service accepts a user but returns no id.
var ErrNoUserID = errors.New("identity created without id")

// Provisioner is the privileged backend surface needed to create users.
type Provisioner interface {
	backend.AdminAPI
	backend.DataAPI
}

// NewUser is the input to CreateUser.
type NewUser struct {
	Name           string
	Email          string
	NationalIDBody string
	Role           string
	CenterID       string
}

// CreateUserStatus distinguishes a clean creation from one with a warning.
type CreateUserStatus int

const (
	CreateUserOK CreateUserStatus = iota
	// CreateUserPartial means the account exists but the center assignment failed.
	CreateUserPartial
)

// CreateUserResult is the outcome of a creation that produced an account.
type CreateUserResult struct {
	Status    CreateUserStatus
	UserID    string
	AssignErr error
}

// Warning renders the partial-failure notice in lang, or "" when none.
func (r *CreateUserResult) Warning(lang string) string {
	if r.Status != CreateUserPartial || r.AssignErr == nil {
		return ""
	}
	return i18n.Translate(lang, "users.center_warning", map[string]interface{}{"detail": r.AssignErr.Error()})
}

func (in *NewUser) normalize() error {
	in.Name = SanitizeText(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Role = strings.TrimSpace(in.Role)
	in.CenterID = strings.TrimSpace(in.CenterID)

	if in.Name == "" || in.Email == "" || strings.TrimSpace(in.NationalIDBody) == "" || in.Role == "" {
		return invalid("validation.user.missing_fields")
	}
	if !IsAssignableRole(in.Role) {
		return invalid("validation.user.invalid_role")
	}
	if err := validate.Var(in.Email, "email"); err != nil {
		return invalid("validation.user.invalid_email")
	}
	if in.CenterID != "" && in.Role != RoleCentro {
		return invalid("validation.user.center_not_allowed")
	}
	body, err := NormalizeNationalIDBody(in.NationalIDBody)
	if err != nil {
		return err
	}
	in.NationalIDBody = body
	return nil
}

// CreateUser provisions an account in three steps: identity, profile row and,
// for centro users with a center, the center assignment. A failed profile insert
// deletes any profile row it may have left and then the identity. The compensating delete is best effort; if it
// fails the identity is left orphaned and only logged. A failed center
// assignment keeps the account and is reported as CreateUserPartial.
func CreateUser(ctx context.Context, p Provisioner, in NewUser) (*CreateUserResult, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	user, err := p.CreateUser(ctx, backend.CreateUserParams{
		Email:        in.Email,
		Password:     in.NationalIDBody,
		EmailConfirm: true,
		UserMetadata: map[string]any{"nombre": in.Name, "rut": in.NationalIDBody, "rol": in.Role},
	})
	if err != nil {
		return nil, err
	}
	if user == nil || user.ID == "" {
		return nil, ErrNoUserID
	}

	if err := p.Insert(ctx, "profiles", map[string]any{
		"user_id":              user.ID,
		"nombre":               in.Name,
		"correo":               in.Email,
		"rut":                  in.NationalIDBody,
		"rol":                  in.Role,
		"must_change_password": true,
		"is_active":            true,
	}, nil); err != nil {
		compensateIdentity(ctx, p, user.ID)
		return nil, err
	}

	result := &CreateUserResult{Status: CreateUserOK, UserID: user.ID}
	if in.Role == RoleCentro && in.CenterID != "" {
		if err := TransferToCenter(ctx, p, user.ID, in.CenterID, ""); err != nil {
			logger.Warn("user created without center assignment",
				zap.String("user_id", user.ID), zap.String("center_id", in.CenterID), zap.Error(err))
			result.Status = CreateUserPartial
			result.AssignErr = err
		}
	}

	logger.Security("USER_CREATED", zap.String("user_id", user.ID), zap.String("role", in.Role))
	return result, nil
}

func compensateIdentity(ctx context.Context, p Provisioner, userID string) {
	// A transport failure can hide a committed insert.
	if err := p.Delete(ctx, "profiles", backend.Eq("user_id", userID)); err != nil {
		logger.Warn("failed to remove profile during rollback", zap.String("user_id", userID), zap.Error(err))
	}
	if err := p.DeleteUser(ctx, userID); err != nil {
		logger.Error("failed to roll back identity; account is orphaned",
			zap.String("user_id", userID), zap.Error(err))
		return
	}
	logger.Info("rolled back identity after failed profile insert", zap.String("user_id", userID))
}

// UpdateRole changes a user's role. The current center assignment is left as is,
// even when moving away from centro.
func UpdateRole(ctx context.Context, data backend.DataAPI, userID, role string) error {
	if userID == "" {
		return invalid("validation.user.required")
	}
	if !IsAssignableRole(role) {
		return invalid("validation.user.invalid_role")
	}
	return data.Update(ctx, "profiles", map[string]any{"rol": role}, backend.Eq("user_id", userID))
}

// SetActive enables or disables a user.
func SetActive(ctx context.Context, data backend.DataAPI, userID string, active bool) error {
	if userID == "" {
		return invalid("validation.user.required")
	}
	return data.Update(ctx, "profiles", map[string]any{"is_active": active}, backend.Eq("user_id", userID))
}

// TransferToCenter moves a user's current assignment to centerID. The prior
// assignment is closed by the procedure. An empty startDate means today.
func TransferToCenter(ctx context.Context, data backend.DataAPI, userID, centerID, startDate string) error {
	if userID == "" {
		return invalid("validation.user.required")
	}
	if centerID == "" {
		return invalid("validation.center.required")
	}
	if startDate != "" {
		if _, err := ParseDate(startDate); err != nil {
			return invalid("validation.date.iso_date")
		}
	}
	return data.RPC(ctx, "rpc_transferir_usuario_definitivo", map[string]any{
		"p_user_id":         userID,
		"p_nuevo_centro_id": centerID,
		"p_fecha_inicio":    dateOrNil(startDate),
	}, nil)
}

// UserRow is one line of the user administration table.
type UserRow struct {
	UserID             string `json:"user_id"`
	Name               string `json:"nombre"`
	Email              string `json:"correo"`
	NationalID         string `json:"rut"`
	Role               string `json:"rol"`
	Active             bool   `json:"is_active"`
	MustChangePassword bool   `json:"must_change_password"`
	Company            string `json:"-"`
	Zone               string `json:"-"`
	CenterID           string `json:"-"`
	Center             string `json:"-"`
}

// InReserve reports whether the user has no current center.
func (u UserRow) InReserve() bool { return u.CenterID == "" }

// ListUsers lists profiles ordered by role and name, with their current location.
func ListUsers(ctx context.Context, data backend.DataAPI, query string) ([]UserRow, error) {
	var users []UserRow
	q := backend.From("profiles").
		Select("user_id,nombre,correo,rut,rol,is_active,must_change_password").
		Order("rol", true).
		Order("nombre", true)
	if _, err := data.Select(ctx, q, &users); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	var locs []locationRow
	lq := backend.From("v_usuario_ubicacion_actual").Select("user_id,empresa_id,empresa,zona_id,zona,centro_id,centro")
	if _, err := data.Select(ctx, lq, &locs); err != nil {
		logger.Debug("user location view unavailable", zap.Error(err))
	}
	byUser := make(map[string]locationRow, len(locs))
	for _, l := range locs {
		byUser[l.UserID] = l
	}

	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]UserRow, 0, len(users))
	for _, u := range users {
		if l, ok := byUser[u.UserID]; ok {
			u.Company, u.Zone, u.CenterID, u.Center = l.Empresa, l.Zona, l.CentroID, l.Centro
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(u.Name), query) &&
			!strings.Contains(strings.ToLower(u.Email), query) &&
			!strings.Contains(strings.ToLower(u.NationalID), query) {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}
