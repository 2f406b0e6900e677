package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"rov_inventory_go/logger"
	"rov_inventory_go/models"
	"rov_inventory_go/services/backend"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const (
	// SessionTokenLength is the length of the session token in bytes (64 chars hex)
	SessionTokenLength = 32
	// DefaultSessionDuration is the default session duration (7 days)
	DefaultSessionDuration = 7 * 24 * time.Hour
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	// ErrSessionEnded means the backend refused to refresh the tokens.
	ErrSessionEnded = errors.New("session ended by backend")
)

// AccessClaims are the fields read from a backend access token. The token is
// not verified here; the backend verifies it on every call.
type AccessClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// ParseAccessClaims decodes the claims of a backend access token.
func ParseAccessClaims(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("failed to parse access token: %w", err)
	}
	return claims, nil
}

// accessExpiry prefers the token's own exp claim over the advertised lifetime.
func accessExpiry(bs *backend.Session, now time.Time) time.Time {
	if claims, err := ParseAccessClaims(bs.AccessToken); err == nil && claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	return bs.Expiry(now)
}

// GenerateSessionToken generates a cryptographically secure random token
func GenerateSessionToken() (string, error) {
	bytes := make([]byte, SessionTokenLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// SessionManager keeps browser sessions that wrap backend token pairs.
type SessionManager struct {
	db      *gorm.DB
	cipher  *TokenCipher
	auth    backend.AuthAPI
	refresh singleflight.Group
	now     func() time.Time
}

func NewSessionManager(db *gorm.DB, cipher *TokenCipher, auth backend.AuthAPI) *SessionManager {
	return &SessionManager{db: db, cipher: cipher, auth: auth, now: time.Now}
}

// SignIn authenticates against the backend and opens a local session.
func (m *SessionManager) SignIn(ctx context.Context, email, password, ipAddress, userAgent string) (*models.Session, error) {
	bs, err := m.auth.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return m.CreateSession(bs, ipAddress, userAgent)
}

// CreateSession stores bs encrypted under a new random cookie token.
func (m *SessionManager) CreateSession(bs *backend.Session, ipAddress, userAgent string) (*models.Session, error) {
	token, err := GenerateSessionToken()
	if err != nil {
		return nil, err
	}
	access, err := m.cipher.Seal(bs.AccessToken)
	if err != nil {
		return nil, err
	}
	refresh, err := m.cipher.Seal(bs.RefreshToken)
	if err != nil {
		return nil, err
	}

	now := m.now()
	session := &models.Session{
		UserID:          bs.User.ID,
		Email:           bs.User.Email,
		Token:           token,
		IPAddress:       ipAddress,
		UserAgent:       userAgent,
		AccessTokenEnc:  access,
		RefreshTokenEnc: refresh,
		AccessExpiresAt: accessExpiry(bs, now),
		ExpiresAt:       now.Add(DefaultSessionDuration),
	}
	if err := m.db.Create(session).Error; err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// Validate returns the session for a cookie token. Expired sessions are deleted.
func (m *SessionManager) Validate(token string) (*models.Session, error) {
	return ValidateSession(m.db, token)
}

// AccessToken returns a usable backend access token for s, refreshing it when
// stale. Concurrent requests of one session share a single refresh, which is
// not cut short when the request that started it goes away. A refresh refused
// with a 4xx deletes the session and returns ErrSessionEnded; an upstream
// failure keeps it and returns an ErrTransport error.
func (m *SessionManager) AccessToken(ctx context.Context, s *models.Session) (string, error) {
	if !s.AccessTokenStale(m.now()) {
		return m.cipher.Open(s.AccessTokenEnc)
	}

	v, err, _ := m.refresh.Do(s.ID, func() (interface{}, error) {
		return m.refreshSession(context.WithoutCancel(ctx), s.ID)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (m *SessionManager) refreshSession(ctx context.Context, sessionID string) (string, error) {
	// Reload; another request may already have rotated the tokens.
	var current models.Session
	if err := m.db.First(&current, "id = ?", sessionID).Error; err != nil {
		return "", ErrSessionNotFound
	}
	if !current.AccessTokenStale(m.now()) {
		return m.cipher.Open(current.AccessTokenEnc)
	}

	refreshToken, err := m.cipher.Open(current.RefreshTokenEnc)
	if err != nil || refreshToken == "" {
		m.db.Delete(&current)
		return "", ErrSessionEnded
	}

	bs, err := m.auth.Refresh(ctx, refreshToken)
	if err != nil {
		be, ok := backend.AsError(err)
		if !ok {
			return "", err
		}
		if be.Status < 400 || be.Status >= 500 {
			// The auth service failed; the refresh token may still be good.
			logger.Warn("session refresh failed upstream", zap.String("user_id", current.UserID), zap.Error(err))
			return "", fmt.Errorf("%w: refresh: %v", backend.ErrTransport, err)
		}
		logger.Security("SESSION_REFRESH_REJECTED", zap.String("user_id", current.UserID), zap.Error(err))
		m.db.Delete(&current)
		return "", ErrSessionEnded
	}

	access, err := m.cipher.Seal(bs.AccessToken)
	if err != nil {
		return "", err
	}
	updates := map[string]interface{}{
		"access_token_enc":  access,
		"access_expires_at": accessExpiry(bs, m.now()),
	}
	if bs.RefreshToken != "" {
		enc, err := m.cipher.Seal(bs.RefreshToken)
		if err != nil {
			return "", err
		}
		updates["refresh_token_enc"] = enc
	}
	if err := m.db.Model(&current).Updates(updates).Error; err != nil {
		return "", fmt.Errorf("failed to store refreshed tokens: %w", err)
	}
	return bs.AccessToken, nil
}

// SignOut revokes the backend session, ignoring backend errors, and deletes
// the local session.
func (m *SessionManager) SignOut(ctx context.Context, token string) error {
	var session models.Session
	if err := m.db.Where("token = ?", token).First(&session).Error; err != nil {
		return nil
	}
	if access, err := m.cipher.Open(session.AccessTokenEnc); err == nil && access != "" {
		if err := m.auth.SignOut(ctx, access); err != nil {
			logger.Debug("backend sign-out failed", zap.Error(err))
		}
	}
	return DeleteSession(m.db, token)
}

// ValidateSession validates a session token and returns the session if valid
func ValidateSession(db *gorm.DB, token string) (*models.Session, error) {
	var session models.Session
	err := db.Where("token = ?", token).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to validate session: %w", err)
	}

	if session.IsExpired() {
		db.Delete(&session)
		return nil, ErrSessionExpired
	}
	return &session, nil
}

// DeleteSession deletes a session (logout)
func DeleteSession(db *gorm.DB, token string) error {
	result := db.Where("token = ?", token).Delete(&models.Session{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete session: %w", result.Error)
	}
	return nil
}

// CleanupExpiredSessions removes all expired sessions from the database
func CleanupExpiredSessions(db *gorm.DB) (int64, error) {
	result := db.Where("expires_at < ?", time.Now()).Delete(&models.Session{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to cleanup expired sessions: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// DeleteAllUserSessions ends every local session of a user, e.g. when an
// administrator deactivates the account.
func DeleteAllUserSessions(db *gorm.DB, userID string) error {
	result := db.Where("user_id = ?", userID).Delete(&models.Session{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete user sessions: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		logger.Info("Deleted user sessions", zap.String("user_id", userID), zap.Int64("count", result.RowsAffected))
	}
	return nil
}
