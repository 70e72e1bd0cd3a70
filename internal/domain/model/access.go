package model

import "fmt"

// Role is the closed set of tenant user roles.
type Role string

const (
	RoleOwner   Role = "owner"
	RoleAdmin   Role = "admin"
	RoleSeller  Role = "vendedor"
	RoleSupport Role = "soporte"
	RoleViewer  Role = "lector"
)

// Roles lists every known role.
var Roles = []Role{RoleOwner, RoleAdmin, RoleSeller, RoleSupport, RoleViewer}

// ParseRole converts an API role string into a Role, rejecting unknown values.
func ParseRole(s string) (Role, error) {
	for _, r := range Roles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Section is a gated area of the panel.
type Section string

const (
	SectionDashboard  Section = "dashboard"
	SectionCRM        Section = "crm"
	SectionStorefront Section = "tienda"
	SectionOrders     Section = "pedidos"
	SectionPayments   Section = "pagos"
	SectionReports    Section = "reportes"
	SectionAudit      Section = "auditoria"
	SectionBackups    Section = "backups"
	SectionSettings   Section = "configuracion"
)

// Sections lists every section in navigation order.
var Sections = []Section{
	SectionDashboard,
	SectionCRM,
	SectionStorefront,
	SectionOrders,
	SectionPayments,
	SectionReports,
	SectionAudit,
	SectionBackups,
	SectionSettings,
}

// CanAccess decides whether role may see section. Every role/section pair is
// decided explicitly; unknown roles see nothing.
func CanAccess(role Role, section Section) bool {
	switch role {
	case RoleOwner:
		return true
	case RoleAdmin:
		return section != SectionBackups
	case RoleSeller:
		switch section {
		case SectionDashboard, SectionCRM, SectionOrders, SectionReports:
			return true
		case SectionStorefront, SectionPayments, SectionAudit, SectionBackups, SectionSettings:
			return false
		}
	case RoleSupport:
		switch section {
		case SectionDashboard, SectionCRM, SectionOrders:
			return true
		case SectionStorefront, SectionPayments, SectionReports, SectionAudit, SectionBackups, SectionSettings:
			return false
		}
	case RoleViewer:
		switch section {
		case SectionDashboard, SectionReports:
			return true
		case SectionCRM, SectionStorefront, SectionOrders, SectionPayments, SectionAudit, SectionBackups, SectionSettings:
			return false
		}
	}
	return false
}

// AccessibleSections returns the sections role may see, in navigation order.
func AccessibleSections(role Role) []Section {
	var out []Section
	for _, s := range Sections {
		if CanAccess(role, s) {
			out = append(out, s)
		}
	}
	return out
}
