package components

import (
	"context"

	"github.com/a-h/templ"
)

type FlashKind string

const (
	FlashSuccess FlashKind = "success"
	FlashError   FlashKind = "error"
	FlashWarning FlashKind = "warning"
	FlashInfo    FlashKind = "info"
)

var flashClasses = map[FlashKind]string{
	FlashSuccess: "bg-green-500/10 border-green-500/20 text-green-700",
	FlashError:   "bg-red-500/10 border-red-500/20 text-red-700",
	FlashWarning: "bg-amber-500/10 border-amber-500/20 text-amber-700",
	FlashInfo:    "bg-sky-500/10 border-sky-500/20 text-sky-700",
}

// Flash is the inline notification returned by command endpoints.
func Flash(kind FlashKind, message string) templ.Component {
	return Func(func(ctx context.Context, h *HTML) {
		cls, ok := flashClasses[kind]
		if !ok {
			cls = flashClasses[FlashInfo]
		}
		h.F(`<div class="flash border px-4 py-3 rounded-xl text-sm %s" role="%s" data-kind="%s">%s</div>`,
			cls, roleFor(kind), string(kind), message)
	})
}

func roleFor(kind FlashKind) string {
	if kind == FlashError {
		return "alert"
	}
	return "status"
}
