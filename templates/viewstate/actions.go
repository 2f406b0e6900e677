package viewstate

import "strings"

// Action is a user intent applied by Reduce.
type Action interface {
	apply(State) State
}

type SetTab struct{ Tab string }
type SetStatusFilter struct{ Status string }
type SetTypeFilter struct{ Type string }
type SetActiveOnly struct{ ActiveOnly bool }
type SetQuery struct{ Query string }

// NextPage advances unless the current page is the last of TotalPages.
type NextPage struct{ TotalPages int }
type PrevPage struct{}

// Refresh re-reads the current state without changing it.
type Refresh struct{}

func (a SetTab) apply(s State) State {
	if a.Tab != TabComponents && a.Tab != TabEquipment {
		return s
	}
	s.Tab = a.Tab
	s.Page = 1
	return s
}

func (a SetStatusFilter) apply(s State) State {
	s.Status = strings.TrimSpace(a.Status)
	s.Page = 1
	return s
}

func (a SetTypeFilter) apply(s State) State {
	s.Type = strings.TrimSpace(a.Type)
	s.Page = 1
	return s
}

func (a SetActiveOnly) apply(s State) State {
	s.ActiveOnly = a.ActiveOnly
	s.Page = 1
	return s
}

func (a SetQuery) apply(s State) State {
	s.Query = strings.TrimSpace(a.Query)
	s.Page = 1
	return s
}

func (a NextPage) apply(s State) State {
	last := a.TotalPages
	if last < 1 {
		last = 1
	}
	if s.Page < last {
		s.Page++
	}
	return s
}

func (PrevPage) apply(s State) State {
	if s.Page > 1 {
		s.Page--
	}
	return s
}

func (Refresh) apply(s State) State { return s }

// Reduce returns the state after applying actions in order. s is not modified.
func Reduce(s State, actions ...Action) State {
	if s.Page < 1 {
		s.Page = 1
	}
	for _, a := range actions {
		if a != nil {
			s = a.apply(s)
		}
	}
	return s
}

// Diff returns the actions that move cur to next's tab and filters. When
// nothing changed it returns Refresh so the current page is kept.
func Diff(cur, next State) []Action {
	var actions []Action
	if next.Tab != cur.Tab {
		actions = append(actions, SetTab{Tab: next.Tab})
	}
	if strings.TrimSpace(next.Status) != cur.Status {
		actions = append(actions, SetStatusFilter{Status: next.Status})
	}
	if strings.TrimSpace(next.Type) != cur.Type {
		actions = append(actions, SetTypeFilter{Type: next.Type})
	}
	if next.ActiveOnly != cur.ActiveOnly {
		actions = append(actions, SetActiveOnly{ActiveOnly: next.ActiveOnly})
	}
	if strings.TrimSpace(next.Query) != cur.Query {
		actions = append(actions, SetQuery{Query: next.Query})
	}
	if len(actions) == 0 {
		return []Action{Refresh{}}
	}
	return actions
}
