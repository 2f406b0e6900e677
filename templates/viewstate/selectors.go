package viewstate

import "rov_inventory_go/services"

// PagerView is what the pager control renders.
type PagerView struct {
	Page       int
	TotalPages int
	Total      int64
	HasPrev    bool
	HasNext    bool
}

// Pager derives the pager for s given the row count reported by the backend.
func Pager(s State, total int64) PagerView {
	pages := services.TotalPages(total, services.PageSize)
	page := s.Page
	if page > pages {
		page = pages
	}
	if page < 1 {
		page = 1
	}
	return PagerView{
		Page:       page,
		TotalPages: pages,
		Total:      total,
		HasPrev:    page > 1,
		HasNext:    page < pages,
	}
}

func isStaff(p *services.Profile) bool {
	if p == nil {
		return false
	}
	switch p.Role {
	case services.RoleAdmin, services.RoleOficina, services.RoleDev:
		return true
	}
	return false
}

func isAdmin(p *services.Profile) bool {
	return p != nil && (p.Role == services.RoleAdmin || p.Role == services.RoleDev)
}

// CanDecommission gates the logical decommission action.
func CanDecommission(p *services.Profile) bool { return isStaff(p) }

// CanMoveComponents gates warehouse moves and component creation.
func CanMoveComponents(p *services.Profile) bool { return isStaff(p) }

// CanReportFault is true for any resolved role.
func CanReportFault(p *services.Profile) bool { return p.RoleKnown() }

// CanManageEquipment gates assembly, disassembly and workshop actions.
func CanManageEquipment(p *services.Profile) bool { return p.RoleKnown() }

// CanEditEquipment gates editing code, role and active flag.
func CanEditEquipment(p *services.Profile) bool { return isStaff(p) }

// CanCreateEquipment requires staff, or a centro user with an assigned center.
func CanCreateEquipment(p *services.Profile) bool {
	if isStaff(p) {
		return true
	}
	return p != nil && p.Role == services.RoleCentro && p.CenterID != ""
}

// CanAdministerUsers gates user and catalog administration.
func CanAdministerUsers(p *services.Profile) bool { return isAdmin(p) }

// NavTab is one entry of the header navigation.
type NavTab struct {
	Key      string
	Href     string
	LabelKey string
}

// VisibleTabs lists the navigation entries p may open.
func VisibleTabs(p *services.Profile) []NavTab {
	if p == nil {
		return nil
	}
	tabs := []NavTab{
		{Key: TabComponents, Href: "/inventario", LabelKey: "nav.components"},
		{Key: TabEquipment, Href: "/inventario?tab=" + TabEquipment, LabelKey: "nav.equipment"},
	}
	if isStaff(p) {
		tabs = append(tabs,
			NavTab{Key: "organizacion", Href: "/organizacion", LabelKey: "nav.organization"},
			NavTab{Key: "reportes", Href: "/reportes", LabelKey: "nav.reports"},
		)
	}
	if isAdmin(p) {
		tabs = append(tabs,
			NavTab{Key: "usuarios", Href: "/usuarios", LabelKey: "nav.users"},
			NavTab{Key: "catalogos", Href: "/catalogos", LabelKey: "nav.catalogs"},
		)
	}
	return tabs
}
