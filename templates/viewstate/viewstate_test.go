package viewstate

import (
	"net/url"
	"testing"

	"rov_inventory_go/services"

	"github.com/stretchr/testify/assert"
)

func TestFromQueryRoundTrip(t *testing.T) {
	s := State{Tab: TabEquipment, Page: 3, Status: "operativo", Type: "rov", ActiveOnly: false, Query: "EQP"}
	q, err := url.ParseQuery(s.Encode())
	assert.NoError(t, err)
	assert.Equal(t, s, FromQuery(q))

	assert.Equal(t, Default(), FromQuery(url.Values{}))
	assert.Equal(t, TabComponents, FromQuery(url.Values{"tab": {"nope"}}).Tab)
	assert.Equal(t, 1, FromQuery(url.Values{"page": {"-4"}}).Page)
	assert.True(t, FromQuery(url.Values{"activos": {"0", "1"}}).ActiveOnly)
	assert.False(t, FromQuery(url.Values{"activos": {"0"}}).ActiveOnly)
}

func TestReduceResetsPageOnFilterChange(t *testing.T) {
	start := State{Tab: TabComponents, Page: 4, ActiveOnly: true}

	tests := []struct {
		name   string
		action Action
		check  func(t *testing.T, s State)
	}{
		{"status", SetStatusFilter{Status: " falla "}, func(t *testing.T, s State) { assert.Equal(t, "falla", s.Status) }},
		{"type", SetTypeFilter{Type: "umbilical"}, func(t *testing.T, s State) { assert.Equal(t, "umbilical", s.Type) }},
		{"active", SetActiveOnly{ActiveOnly: false}, func(t *testing.T, s State) { assert.False(t, s.ActiveOnly) }},
		{"query", SetQuery{Query: "ROV-"}, func(t *testing.T, s State) { assert.Equal(t, "ROV-", s.Query) }},
		{"tab", SetTab{Tab: TabEquipment}, func(t *testing.T, s State) { assert.Equal(t, TabEquipment, s.Tab) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Reduce(start, tt.action)
			assert.Equal(t, 1, s.Page)
			tt.check(t, s)
		})
	}
	assert.Equal(t, 4, start.Page)
}

func TestReducePaging(t *testing.T) {
	s := Reduce(Default(), PrevPage{}, PrevPage{})
	assert.Equal(t, 1, s.Page)

	s = Reduce(Default(), NextPage{TotalPages: 2}, NextPage{TotalPages: 2}, NextPage{TotalPages: 2})
	assert.Equal(t, 2, s.Page)

	s = Reduce(Default(), NextPage{TotalPages: 0})
	assert.Equal(t, 1, s.Page)

	s = Reduce(State{Page: 2}, Refresh{}, SetTab{Tab: "bogus"})
	assert.Equal(t, 2, s.Page)
}

func TestFromRequestReducesFromRenderedState(t *testing.T) {
	cur := State{Tab: TabComponents, Page: 3, Status: "operativo", ActiveOnly: true}

	q := url.Values{CurrentParam: {cur.Encode()}, "estado": {"falla"}, "activos": {"0", "1"}}
	s := FromRequest(q)
	assert.Equal(t, 1, s.Page)
	assert.Equal(t, "falla", s.Status)

	q = url.Values{CurrentParam: {cur.Encode()}, "estado": {" operativo "}, "activos": {"0", "1"}}
	assert.Equal(t, cur, FromRequest(q))

	q = url.Values{"page": {"2"}, "q": {"ROV"}}
	assert.Equal(t, FromQuery(q), FromRequest(q))

	assert.Equal(t, []Action{Refresh{}}, Diff(cur, cur))
	assert.Equal(t, []Action{SetTab{Tab: TabEquipment}, SetQuery{Query: "EQ"}},
		Diff(cur, State{Tab: TabEquipment, Status: "operativo", ActiveOnly: true, Query: "EQ"}))
}

func TestPager(t *testing.T) {
	p := Pager(State{Page: 1}, 15)
	assert.Equal(t, PagerView{Page: 1, TotalPages: 2, Total: 15, HasNext: true}, p)

	p = Pager(State{Page: 9}, 15)
	assert.Equal(t, 2, p.Page)
	assert.True(t, p.HasPrev)
	assert.False(t, p.HasNext)

	p = Pager(State{Page: 1}, 0)
	assert.Equal(t, 1, p.TotalPages)
}

func TestPermissions(t *testing.T) {
	admin := &services.Profile{Role: services.RoleAdmin}
	office := &services.Profile{Role: services.RoleOficina}
	field := &services.Profile{Role: services.RoleCentro, CenterID: "c1"}
	reserve := &services.Profile{Role: services.RoleCentro}
	unknown := &services.Profile{Email: "x@y.cl"}

	assert.True(t, CanDecommission(office))
	assert.False(t, CanDecommission(field))
	assert.True(t, CanReportFault(field))
	assert.False(t, CanReportFault(unknown))
	assert.False(t, CanReportFault(nil))
	assert.True(t, CanManageEquipment(field))
	assert.False(t, CanEditEquipment(field))
	assert.True(t, CanCreateEquipment(field))
	assert.False(t, CanCreateEquipment(reserve))
	assert.True(t, CanAdministerUsers(admin))
	assert.False(t, CanAdministerUsers(office))

	keys := func(p *services.Profile) []string {
		var out []string
		for _, tab := range VisibleTabs(p) {
			out = append(out, tab.Key)
		}
		return out
	}
	assert.Equal(t, []string{"componentes", "equipos"}, keys(field))
	assert.Equal(t, []string{"componentes", "equipos", "organizacion", "reportes"}, keys(office))
	assert.Len(t, VisibleTabs(admin), 6)
	assert.Nil(t, VisibleTabs(nil))
}
