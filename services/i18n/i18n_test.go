package i18n

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withCatalogs swaps the loaded catalogs for the duration of a test.
func withCatalogs(t *testing.T, c map[string]catalog) {
	t.Helper()
	mu.Lock()
	old := catalogs
	catalogs = c
	mu.Unlock()
	t.Cleanup(func() {
		mu.Lock()
		catalogs = old
		mu.Unlock()
	})
}

func TestReadCatalogs(t *testing.T) {
	fsys := fstest.MapFS{
		"es.json":    {Data: []byte(`{"nav":{"inventory":"Inventario","reports":{"title":"Reportes"}},"page_size":10}`)},
		"en.json":    {Data: []byte(`{"nav":{"inventory":"Inventory"}}`)},
		"README.txt": {Data: []byte("not a locale")},
	}
	got, err := readCatalogs(fsys)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Inventario", got["es"]["nav.inventory"])
	assert.Equal(t, "Reportes", got["es"]["nav.reports.title"])
	assert.Equal(t, "10", got["es"]["page_size"])
	assert.Equal(t, []string{"nav.reports.title", "page_size"}, missingKeys(got["es"], got["en"]))

	_, err = readCatalogs(fstest.MapFS{"es.json": {Data: []byte(`{`)}})
	assert.ErrorContains(t, err, "es.json")
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		args     map[string]interface{}
		expected string
	}{
		{"no placeholders", "Componente movido", nil, "Componente movido"},
		{"single", "Equipo {code} creado", map[string]interface{}{"code": "EQ-01"}, "Equipo EQ-01 creado"},
		{"several", "Página {page} de {pages} ({total})", map[string]interface{}{"page": 2, "pages": 3, "total": 25}, "Página 2 de 3 (25)"},
		{"missing argument", "Hola {name}", map[string]interface{}{"other": "x"}, "Hola {name}"},
		{"value is not expanded again", "{detail} / {code}", map[string]interface{}{"detail": "{code}", "code": "P0001"}, "{code} / P0001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.args == nil {
				assert.Equal(t, tt.expected, format(tt.text))
				return
			}
			assert.Equal(t, tt.expected, format(tt.text, tt.args))
		})
	}
}

func TestGetLocale(t *testing.T) {
	assert.Equal(t, DefaultLang, GetLocale(context.Background()))
	assert.Equal(t, "en", GetLocale(context.WithValue(context.Background(), LocaleContextKey, "en")))
	assert.Equal(t, DefaultLang, GetLocale(context.WithValue(context.Background(), LocaleContextKey, "")))
}

func TestTranslate(t *testing.T) {
	withCatalogs(t, map[string]catalog{
		"es": {"components.moved": "Componente movido", "equipment.created": "Equipo {code} creado"},
		"en": {"components.moved": "Component moved"},
	})

	assert.Equal(t, "Componente movido", Translate("es", "components.moved"))
	assert.Equal(t, "Component moved", Translate("en", "components.moved"))
	assert.Equal(t, "Equipo EQ-7 creado", Translate("en", "equipment.created", map[string]interface{}{"code": "EQ-7"}))
	assert.Equal(t, "Componente movido", Translate("fr", "components.moved"))
	assert.Equal(t, "missing.key", Translate("en", "missing.key"))

	ctx := context.WithValue(context.Background(), LocaleContextKey, "en")
	assert.Equal(t, "Component moved", T(ctx, "components.moved"))
	assert.Equal(t, []string{"equipment.created"}, MissingKeys("en"))
}

func TestEmbeddedLocalesAreComplete(t *testing.T) {
	require.NoError(t, Load())
	assert.Equal(t, []string{"en", "es"}, Languages())
	assert.Empty(t, MissingKeys("en"))

	mu.RLock()
	extra := missingKeys(catalogs["en"], catalogs["es"])
	mu.RUnlock()
	assert.Empty(t, extra, "keys only in en")
}
