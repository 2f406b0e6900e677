package middleware

import (
	"rov_inventory_go/config"
	"rov_inventory_go/services"
	"rov_inventory_go/services/backend"

	"github.com/labstack/echo/v4"
)

const (
	ContextKeyConfig  = "config"
	ContextKeyBackend = "backend"
)

// Backend bundles the hosted-backend collaborators shared by all requests.
type Backend struct {
	Sessions *services.SessionManager
	// DataFor returns a data client that acts with the given user token so
	// row-level security applies to that user.
	DataFor func(accessToken string) backend.DataAPI
	// Admin is nil when no service-role key is configured.
	Admin services.Provisioner
}

// Inject makes config and backend available to handlers.
func Inject(cfg *config.Config, b *Backend) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(ContextKeyConfig, cfg)
			c.Set(ContextKeyBackend, b)
			return next(c)
		}
	}
}

// GetConfig returns the injected config, or an empty one.
func GetConfig(c echo.Context) *config.Config {
	if cfg, ok := c.Get(ContextKeyConfig).(*config.Config); ok {
		return cfg
	}
	return &config.Config{}
}

// GetBackend returns the injected backend bundle.
func GetBackend(c echo.Context) *Backend {
	b, _ := c.Get(ContextKeyBackend).(*Backend)
	return b
}
