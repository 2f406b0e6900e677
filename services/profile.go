package services

import (
	"bytes"
	"context"
	"encoding/json"

	"rov_inventory_go/logger"
	"rov_inventory_go/services/backend"

	"go.uber.org/zap"
)

// ProfileSource records which lookup produced a Profile.
type ProfileSource string

const (
	SourceWhoami   ProfileSource = "whoami"
	SourceProfile  ProfileSource = "profile"
	SourceIdentity ProfileSource = "identity"
)

// Profile is the human-facing view of the signed-in user.
type Profile struct {
	UserID             string
	Email              string
	Name               string
	Role               string // empty when unknown
	CenterID           string
	CenterName         string
	MustChangePassword bool
	Source             ProfileSource
}

// RoleKnown reports whether a role could be resolved.
func (p *Profile) RoleKnown() bool { return p != nil && p.Role != "" }

// DisplayName prefers the profile name and falls back to the email.
func (p *Profile) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Email
}

// Degraded reports whether the profile came from a fallback tier.
func (p *Profile) Degraded() bool { return p.Source != SourceWhoami }

type whoamiRow struct {
	UserID             string `json:"user_id"`
	Nombre             string `json:"nombre"`
	Email              string `json:"email"`
	Correo             string `json:"correo"`
	Rol                string `json:"rol"`
	CentroID           string `json:"centro_id"`
	Centro             string `json:"centro"`
	MustChangePassword bool   `json:"must_change_password"`
}

type profileRow struct {
	UserID             string `json:"user_id"`
	Nombre             string `json:"nombre"`
	Correo             string `json:"correo"`
	Rol                string `json:"rol"`
	MustChangePassword bool   `json:"must_change_password"`
}

type locationRow struct {
	UserID    string `json:"user_id"`
	EmpresaID string `json:"empresa_id"`
	Empresa   string `json:"empresa"`
	ZonaID    string `json:"zona_id"`
	Zona      string `json:"zona"`
	CentroID  string `json:"centro_id"`
	Centro    string `json:"centro"`
}

// ResolveProfile resolves identity into a Profile. It returns nil when there is
// no identity. The whoami procedure is tried first, then the profiles table plus
// the current-location view, and finally the bare identity with role and center unknown.
func ResolveProfile(ctx context.Context, data backend.DataAPI, identity *backend.User) *Profile {
	if identity == nil || identity.ID == "" {
		return nil
	}

	p, err := profileFromWhoami(ctx, data, identity)
	if err == nil {
		return p
	}
	logger.Debug("whoami unavailable, falling back to profiles", zap.Error(err))

	p, err = profileFromTable(ctx, data, identity)
	if err == nil {
		return p
	}
	logger.Warn("profile lookup failed, using identity only", zap.String("user_id", identity.ID), zap.Error(err))

	return &Profile{
		UserID: identity.ID,
		Email:  identity.Email,
		Source: SourceIdentity,
	}
}

func profileFromWhoami(ctx context.Context, data backend.DataAPI, identity *backend.User) (*Profile, error) {
	var raw json.RawMessage
	if err := data.RPC(ctx, "rpc_whoami", nil, &raw); err != nil {
		return nil, err
	}
	row, err := decodeOne[whoamiRow](raw)
	if err != nil {
		return nil, err
	}
	if row == nil || row.Rol == "" {
		return nil, errNoRows
	}
	email := row.Email
	if email == "" {
		email = row.Correo
	}
	if email == "" {
		email = identity.Email
	}
	return &Profile{
		UserID:             identity.ID,
		Email:              email,
		Name:               row.Nombre,
		Role:               row.Rol,
		CenterID:           row.CentroID,
		CenterName:         row.Centro,
		MustChangePassword: row.MustChangePassword,
		Source:             SourceWhoami,
	}, nil
}

func profileFromTable(ctx context.Context, data backend.DataAPI, identity *backend.User) (*Profile, error) {
	var rows []profileRow
	q := backend.From("profiles").
		Select("user_id,nombre,correo,rol,must_change_password").
		Eq("user_id", identity.ID).
		Range(0, 0)
	if _, err := data.Select(ctx, q, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errNoRows
	}

	p := &Profile{
		UserID:             identity.ID,
		Email:              identity.Email,
		Name:               rows[0].Nombre,
		Role:               rows[0].Rol,
		MustChangePassword: rows[0].MustChangePassword,
		Source:             SourceProfile,
	}
	if p.Email == "" {
		p.Email = rows[0].Correo
	}

	// Location is optional; a missing view leaves the user in reserve.
	var locs []locationRow
	lq := backend.From("v_usuario_ubicacion_actual").
		Select("user_id,centro_id,centro").
		Eq("user_id", identity.ID).
		Range(0, 0)
	if _, err := data.Select(ctx, lq, &locs); err != nil {
		logger.Debug("user location view unavailable", zap.Error(err))
	} else if len(locs) > 0 {
		p.CenterID = locs[0].CentroID
		p.CenterName = locs[0].Centro
	}
	return p, nil
}

// decodeOne accepts a procedure result that is either a single object or an
// array of rows and returns the first row, or nil when empty.
func decodeOne[T any](raw json.RawMessage) (*T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var list []T
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, err
		}
		if len(list) == 0 {
			return nil, nil
		}
		return &list[0], nil
	}
	var one T
	if err := json.Unmarshal(trimmed, &one); err != nil {
		return nil, err
	}
	return &one, nil
}
