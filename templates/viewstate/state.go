// Package viewstate holds the per-request state of the inventory screens.
// State travels in the URL; handlers decode it, apply one action and render.
package viewstate

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	TabComponents = "componentes"
	TabEquipment  = "equipos"
)

// State is what the inventory screen shows.
type State struct {
	Tab        string
	Page       int
	Status     string
	Type       string
	ActiveOnly bool
	Query      string
}

// Default is the state of a fresh visit.
func Default() State {
	return State{Tab: TabComponents, Page: 1, ActiveOnly: true}
}

// FromQuery decodes a state from query parameters. Missing values take defaults.
func FromQuery(q url.Values) State {
	s := Default()
	if tab := q.Get("tab"); tab == TabEquipment || tab == TabComponents {
		s.Tab = tab
	}
	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		s.Page = p
	}
	s.Status = strings.TrimSpace(q.Get("estado"))
	s.Type = strings.TrimSpace(q.Get("tipo"))
	s.Query = strings.TrimSpace(q.Get("q"))
	// A checkbox follows its hidden "0" input, so the last value wins.
	if v, ok := q["activos"]; ok && len(v) > 0 {
		last := v[len(v)-1]
		s.ActiveOnly = last == "1" || last == "true" || last == "on"
	}
	return s
}

// Values encodes s. Defaults are omitted except the active flag, which is
// always written so an explicit "all" survives a round trip.
func (s State) Values() url.Values {
	q := url.Values{}
	if s.Tab != "" && s.Tab != TabComponents {
		q.Set("tab", s.Tab)
	}
	if s.Page > 1 {
		q.Set("page", strconv.Itoa(s.Page))
	}
	if s.Status != "" {
		q.Set("estado", s.Status)
	}
	if s.Type != "" {
		q.Set("tipo", s.Type)
	}
	if s.Query != "" {
		q.Set("q", s.Query)
	}
	if s.ActiveOnly {
		q.Set("activos", "1")
	} else {
		q.Set("activos", "0")
	}
	return q
}

// Encode returns s as a query string.
func (s State) Encode() string {
	return s.Values().Encode()
}

// CurrentParam names the form field carrying the encoded state a filter form
// was rendered with.
const CurrentParam = "actual"

// FromRequest reads the requested state. When q carries the state the form
// was rendered with, the change is reduced from that state so a filter change
// restarts paging and an unchanged submit keeps the current page.
func FromRequest(q url.Values) State {
	next := FromQuery(q)
	raw := q.Get(CurrentParam)
	if raw == "" {
		return next
	}
	prev, err := url.ParseQuery(raw)
	if err != nil {
		return next
	}
	cur := FromQuery(prev)
	return Reduce(cur, Diff(cur, next)...)
}
