// Package i18n serves the Spanish and English UI catalogs embedded from JSON.
// Keys are flattened to dot notation: "es" -> "components.moved" -> "Componente movido".
package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"sync"

	"rov_inventory_go/logger"

	"go.uber.org/zap"
)

//go:embed *.json
var files embed.FS

// DefaultLang is the catalog every lookup falls back to.
const DefaultLang = "es"

type catalog map[string]string

var (
	mu       sync.RWMutex
	catalogs = map[string]catalog{}
)

// Load reads every embedded locale and swaps them in together. Keys the
// default catalog has and another locale lacks are logged, not fatal.
func Load() error {
	loaded, err := readCatalogs(files)
	if err != nil {
		return err
	}
	if _, ok := loaded[DefaultLang]; !ok {
		return fmt.Errorf("i18n: default locale %q is not embedded", DefaultLang)
	}
	for lang, c := range loaded {
		if missing := missingKeys(loaded[DefaultLang], c); len(missing) > 0 {
			logger.Warn("Locale is missing keys", zap.String("lang", lang), zap.Strings("keys", missing))
		}
		logger.Debug("Loaded locale", zap.String("lang", lang), zap.Int("keys", len(c)))
	}

	mu.Lock()
	catalogs = loaded
	mu.Unlock()
	return nil
}

func readCatalogs(fsys fs.FS) (map[string]catalog, error) {
	paths, err := fs.Glob(fsys, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list embedded locales: %w", err)
	}
	out := make(map[string]catalog, len(paths))
	for _, p := range paths {
		raw, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("failed to read locale file %s: %w", p, err)
		}
		var tree map[string]interface{}
		if err := json.Unmarshal(raw, &tree); err != nil {
			return nil, fmt.Errorf("failed to unmarshal locale %s: %w", p, err)
		}
		flat := catalog{}
		flatten("", tree, flat)
		out[strings.TrimSuffix(p, ".json")] = flat
	}
	return out, nil
}

func flatten(prefix string, nested map[string]interface{}, out catalog) {
	for k, v := range nested {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch child := v.(type) {
		case map[string]interface{}:
			flatten(key, child, out)
		case string:
			out[key] = child
		default:
			out[key] = fmt.Sprintf("%v", child)
		}
	}
}

func missingKeys(want, have catalog) []string {
	var missing []string
	for k := range want {
		if _, ok := have[k]; !ok {
			missing = append(missing, k)
		}
	}
	sort.Strings(missing)
	return missing
}

// Languages lists the loaded locales, sorted.
func Languages() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(catalogs))
	for lang := range catalogs {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}

// MissingKeys lists the default catalog keys that lang does not translate.
func MissingKeys(lang string) []string {
	mu.RLock()
	defer mu.RUnlock()
	return missingKeys(catalogs[DefaultLang], catalogs[lang])
}

// T translates key in the locale carried by ctx.
func T(ctx context.Context, key string, args ...map[string]interface{}) string {
	return Translate(GetLocale(ctx), key, args...)
}

// Translate looks key up in lang, then in the default catalog, and finally
// returns the key itself. {name} placeholders are filled from args[0].
func Translate(lang, key string, args ...map[string]interface{}) string {
	mu.RLock()
	val, ok := catalogs[lang][key]
	if !ok && lang != DefaultLang {
		val, ok = catalogs[DefaultLang][key]
	}
	mu.RUnlock()

	if !ok {
		return key
	}
	return format(val, args...)
}

// format fills every placeholder in one pass, so a value that itself looks
// like a placeholder is left alone.
func format(text string, args ...map[string]interface{}) string {
	if len(args) == 0 || len(args[0]) == 0 {
		return text
	}
	pairs := make([]string, 0, 2*len(args[0]))
	for k, v := range args[0] {
		pairs = append(pairs, "{"+k+"}", fmt.Sprintf("%v", v))
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

type contextKey string

// LocaleContextKey carries the request locale set by the locale middleware.
const LocaleContextKey contextKey = "locale"

// GetLocale returns the locale stored in ctx, or DefaultLang.
func GetLocale(ctx context.Context) string {
	if lang, ok := ctx.Value(LocaleContextKey).(string); ok && lang != "" {
		return lang
	}
	return DefaultLang
}
