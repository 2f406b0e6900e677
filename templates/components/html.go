package components

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"rov_inventory_go/services/i18n"

	"github.com/a-h/templ"
)

// HTML writes markup to w and keeps the first write error.
// String arguments passed to F are escaped; Raw writes trusted markup as is.
type HTML struct {
	w   io.Writer
	err error
}

func NewHTML(w io.Writer) *HTML { return &HTML{w: w} }

func (h *HTML) Raw(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

// Text writes s escaped.
func (h *HTML) Text(s string) { h.Raw(templ.EscapeString(s)) }

// F formats into the stream, escaping every string and error argument.
func (h *HTML) F(format string, args ...interface{}) {
	for i, a := range args {
		switch v := a.(type) {
		case string:
			args[i] = templ.EscapeString(v)
		case error:
			args[i] = templ.EscapeString(v.Error())
		}
	}
	h.Raw(fmt.Sprintf(format, args...))
}

// Render writes a child component.
func (h *HTML) Render(ctx context.Context, c templ.Component) {
	if h.err != nil || c == nil {
		return
	}
	h.err = c.Render(ctx, h.w)
}

// If writes s when cond holds.
func (h *HTML) If(cond bool, s string) {
	if cond {
		h.Raw(s)
	}
}

func (h *HTML) Err() error { return h.err }

// Func adapts a writer callback into a templ component.
func Func(fn func(ctx context.Context, h *HTML)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := NewHTML(w)
		fn(ctx, h)
		return h.Err()
	})
}

// T translates key in the request locale.
func T(ctx context.Context, key string, args ...map[string]interface{}) string {
	return i18n.T(ctx, key, args...)
}

// JSON marshals v for use in an hx-vals attribute, returning "{}" on error.
func JSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// Checked renders the checked attribute.
func Checked(b bool) string {
	if b {
		return " checked"
	}
	return ""
}

// Selected renders the selected attribute when a == b.
func Selected(a, b string) string {
	if a == b {
		return " selected"
	}
	return ""
}
