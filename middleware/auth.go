package middleware

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"rov_inventory_go/logger"
	"rov_inventory_go/models"
	"rov_inventory_go/services"
	"rov_inventory_go/services/backend"
	"rov_inventory_go/services/i18n"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	// SessionCookieName is the name of the session cookie
	SessionCookieName = "rov_session"
	// ContextKeyProfile is the context key for the resolved profile
	ContextKeyProfile = "profile"
	// ContextKeySession is the context key for the local session
	ContextKeySession = "session"
	// ContextKeyData is the context key for the per-request data client
	ContextKeyData = "data"
)

// IsHTMX reports whether the request was issued by htmx.
func IsHTMX(c echo.Context) bool {
	return c.Request().Header.Get("HX-Request") == "true"
}

func isAPI(c echo.Context) bool {
	return strings.HasPrefix(c.Request().URL.Path, "/api/")
}

func toLogin(c echo.Context) error {
	switch {
	case isAPI(c):
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": i18n.Translate(GetLocale(c), "errors.unauthenticated")})
	case IsHTMX(c):
		c.Response().Header().Set("HX-Redirect", "/login")
		return c.NoContent(http.StatusUnauthorized)
	default:
		return c.Redirect(http.StatusSeeOther, "/login")
	}
}

// RequireAuth loads the session from the cookie, refreshes the backend token
// when stale, resolves the profile and stores a data client acting as the user.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			b := GetBackend(c)
			if b == nil || b.Sessions == nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "backend not configured")
			}

			cookie, err := c.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				return toLogin(c)
			}

			session, err := b.Sessions.Validate(cookie.Value)
			if err != nil {
				ClearSessionCookie(c)
				return toLogin(c)
			}

			ctx := c.Request().Context()
			accessToken, err := b.Sessions.AccessToken(ctx, session)
			if err != nil {
				if errors.Is(err, services.ErrSessionEnded) || errors.Is(err, services.ErrSessionNotFound) {
					ClearSessionCookie(c)
					return toLogin(c)
				}
				logger.Error("Failed to obtain backend token", zap.String("session_id", session.ID), zap.Error(err))
				return echo.NewHTTPError(http.StatusServiceUnavailable, i18n.Translate(GetLocale(c), "errors.transport"))
			}

			data := b.DataFor(accessToken)
			profile := services.ResolveProfile(ctx, data, &backend.User{ID: session.UserID, Email: session.Email})

			c.Set(ContextKeySession, session)
			c.Set(ContextKeyData, data)
			c.Set(ContextKeyProfile, profile)
			return next(c)
		}
	}
}

// RequireRole restricts a route to the given roles. An unresolved role never matches.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			profile := GetProfile(c)
			if profile.RoleKnown() {
				for _, role := range roles {
					if profile.Role == role {
						return next(c)
					}
				}
			}
			msg := i18n.Translate(GetLocale(c), "errors.permission")
			if isAPI(c) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": msg})
			}
			return echo.NewHTTPError(http.StatusForbidden, msg)
		}
	}
}

// GetProfile returns the profile resolved for this request.
func GetProfile(c echo.Context) *services.Profile {
	p, _ := c.Get(ContextKeyProfile).(*services.Profile)
	return p
}

// GetSession returns the local session of this request.
func GetSession(c echo.Context) *models.Session {
	s, _ := c.Get(ContextKeySession).(*models.Session)
	return s
}

// GetData returns the data client acting as the signed-in user.
func GetData(c echo.Context) backend.DataAPI {
	d, _ := c.Get(ContextKeyData).(backend.DataAPI)
	return d
}

// SetSessionCookie writes the session cookie.
func SetSessionCookie(c echo.Context, s *models.Session) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    s.Token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		Secure:   GetConfig(c).Environment == "production",
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie clears the session cookie
func ClearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   GetConfig(c).Environment == "production",
		SameSite: http.SameSiteLaxMode,
	})
}

var backendTokenCookie = regexp.MustCompile(`^sb-[A-Za-z0-9_-]+-(auth-token(\.\d+)?|persist)$`)

// IsBackendTokenCookie matches the token cookies the hosted backend's browser
// client leaves behind: sb-<ref>-auth-token, its chunks (.0, .1) and sb-<ref>-persist.
func IsBackendTokenCookie(name string) bool {
	return backendTokenCookie.MatchString(name)
}

// ClearBackendCookies expires every residual backend token cookie on the request.
func ClearBackendCookies(c echo.Context) int {
	n := 0
	for _, ck := range c.Request().Cookies() {
		if !IsBackendTokenCookie(ck.Name) {
			continue
		}
		c.SetCookie(&http.Cookie{Name: ck.Name, Value: "", Path: "/", MaxAge: -1, Expires: time.Unix(0, 0)})
		n++
	}
	return n
}
