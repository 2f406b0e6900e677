package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"rov_inventory_go/config"
	"rov_inventory_go/services/i18n"

	"github.com/labstack/echo/v4"
)

const (
	langCookie    = "lang"
	defaultLocale = i18n.DefaultLang
)

var supportedLocales = map[string]bool{"es": true, "en": true}

// Locale middleware handles language detection and persistence.
// Priority:
// 1. Query param "lang" (sets cookie)
// 2. Cookie "lang"
// 3. Accept-Language header
// 4. Default ("es")
func Locale(cfg *config.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			lang := ""
			if q := strings.ToLower(c.QueryParam("lang")); q != "" {
				lang = defaultLocale
				if supportedLocales[q] {
					lang = q
				}
				setLanguageCookie(c, cfg, lang)
			} else if cookie, err := c.Cookie(langCookie); err == nil && supportedLocales[cookie.Value] {
				lang = cookie.Value
			}

			if lang == "" {
				lang = fromAcceptLanguage(c.Request().Header.Get("Accept-Language"))
			}

			c.Set("locale", lang)
			ctx := context.WithValue(c.Request().Context(), i18n.LocaleContextKey, lang)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// fromAcceptLanguage picks the first supported primary tag, in header order.
func fromAcceptLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		primary := strings.ToLower(strings.SplitN(tag, "-", 2)[0])
		if supportedLocales[primary] {
			return primary
		}
	}
	return defaultLocale
}

func setLanguageCookie(c echo.Context, cfg *config.Config, lang string) {
	c.SetCookie(&http.Cookie{
		Name:     langCookie,
		Value:    lang,
		Expires:  time.Now().Add(24 * 365 * time.Hour),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   cfg != nil && cfg.Environment == "production",
	})
}

// GetLocale returns the current locale from context
func GetLocale(c echo.Context) string {
	if lang, ok := c.Get("locale").(string); ok && lang != "" {
		return lang
	}
	return defaultLocale
}
