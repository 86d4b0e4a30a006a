// Package access derives capabilities, screen access and the menu from role
// strings. Everything here is pure and recomputed on every call.
package access

import (
	"strings"

	"github.com/fastygo/assettrack/domain"
)

// Recognized role strings.
const (
	RoleOrganizationSuperAdmin = "organization_super_admin"
	RoleAuditMember            = "audit_member"
	RoleEmployee               = "employee"
	RoleAssetAssignment        = "asset_assignment"
	RoleApprover               = "approver"

	// DefaultRole is used when a user carries no role at all.
	DefaultRole = RoleEmployee
)

// Capabilities is the set of permissions derived from role strings.
type Capabilities struct {
	IsOrganizationSuperAdmin bool `json:"isOrganizationSuperAdmin"`
	IsAuditMember            bool `json:"isAuditMember"`
	IsEmployee               bool `json:"isEmployee"`
	IsAssignee               bool `json:"isAssignee"`
	IsApprover               bool `json:"isApprover"`
}

// Any reports whether at least one capability is granted.
func (c Capabilities) Any() bool {
	return c.IsOrganizationSuperAdmin || c.IsAuditMember || c.IsEmployee || c.IsAssignee || c.IsApprover
}

// ScreenAccess lists which top-level screen groups may be opened.
type ScreenAccess struct {
	AssetCheckInOut bool `json:"AssetCheckInOutScreen"`
	Audit           bool `json:"AuditScreen"`
	AuditReport     bool `json:"AuditReportScreen"`
	Reminder        bool `json:"ReminderScreen"`
	AssetAssignment bool `json:"AssetAssignmentScreen"`
	AssetApproval   bool `json:"AssetApprovalScreen"`
	CurrentPlan     bool `json:"CurrentPlanScreen"`
	Invoice         bool `json:"InvoiceScreen"`
}

// NormalizeRole trims and lowercases a role string.
func NormalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}

// RolesToCapabilities maps role strings onto capabilities. Matching is exact
// after normalization; unknown roles are ignored.
func RolesToCapabilities(roles ...string) Capabilities {
	var caps Capabilities
	for _, role := range roles {
		switch NormalizeRole(role) {
		case RoleOrganizationSuperAdmin:
			caps.IsOrganizationSuperAdmin = true
		case RoleAuditMember:
			caps.IsAuditMember = true
		case RoleEmployee:
			caps.IsEmployee = true
		case RoleAssetAssignment:
			caps.IsAssignee = true
		case RoleApprover:
			caps.IsApprover = true
		}
	}
	return caps
}

// CapabilitiesToScreenAccess applies the screen derivation table. A super
// admin sees every screen, audits included.
func CapabilitiesToScreenAccess(caps Capabilities) ScreenAccess {
	staff := caps.IsOrganizationSuperAdmin || caps.IsEmployee
	return ScreenAccess{
		AssetCheckInOut: staff,
		Audit:           caps.IsAuditMember || caps.IsOrganizationSuperAdmin,
		AuditReport:     staff || caps.IsAuditMember,
		Reminder:        staff,
		AssetAssignment: caps.IsAssignee || caps.IsOrganizationSuperAdmin,
		AssetApproval:   caps.IsApprover || caps.IsOrganizationSuperAdmin,
		CurrentPlan:     caps.IsOrganizationSuperAdmin,
		Invoice:         caps.IsOrganizationSuperAdmin,
	}
}

// UserRoles returns the role list to evaluate for u: role_names when present,
// otherwise the legacy single role.
func UserRoles(u *domain.User) []string {
	if u == nil {
		return nil
	}
	if len(u.RoleNames) > 0 {
		return []string(u.RoleNames)
	}
	if strings.TrimSpace(u.Role) != "" {
		return []string{u.Role}
	}
	return nil
}

// CapabilitiesForUser is RolesToCapabilities over UserRoles.
func CapabilitiesForUser(u *domain.User) Capabilities {
	return RolesToCapabilities(UserRoles(u)...)
}

// ResolveEffectiveRole returns the single role used for initial screen
// selection: the first role name, then the legacy role, then DefaultRole.
func ResolveEffectiveRole(u *domain.User) string {
	if u != nil {
		if len(u.RoleNames) > 0 {
			if r := NormalizeRole(u.RoleNames[0]); r != "" {
				return r
			}
		}
		if r := NormalizeRole(u.Role); r != "" {
			return r
		}
	}
	return DefaultRole
}
