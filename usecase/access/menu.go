package access

import "github.com/fastygo/assettrack/domain"

// MenuItem is one entry of the side menu.
type MenuItem struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
	Route string `json:"route"`
}

// Route names understood by the navigation layer.
const (
	RouteDashboard          = "Dashboard"
	RouteAssetCheckInOut    = "AssetCheckInOutScreen"
	RouteAudit              = "AuditScreen"
	RouteAuditReport        = "AuditReportScreen"
	RouteReminder           = "ReminderScreen"
	RouteAssetApproval      = "AssetApprovalScreen"
	RouteAssetAssignment    = "AssetAssignmentScreen"
	RouteInvoice            = "InvoiceScreen"
	RouteCurrentPlan        = "CurrentPlanScreen"
	RouteChangeOrganization = "ChangeOrganizationScreen"
)

var (
	MenuCheckInOut = MenuItem{ID: "check_in_out", Label: "Check In / Out", Icon: "swap-horizontal", Route: RouteAssetCheckInOut}
	MenuAudits     = MenuItem{ID: "audits", Label: "Audits", Icon: "clipboard-check", Route: RouteAudit}
	MenuReports    = MenuItem{ID: "audit_reports", Label: "Audit Reports", Icon: "file-chart", Route: RouteAuditReport}
	MenuReminders  = MenuItem{ID: "reminders", Label: "Reminders", Icon: "bell", Route: RouteReminder}
	MenuApprovals  = MenuItem{ID: "approvals", Label: "Approvals", Icon: "check-decagram", Route: RouteAssetApproval}
	MenuAssignment = MenuItem{ID: "assignment", Label: "Asset Assignment", Icon: "account-arrow-right", Route: RouteAssetAssignment}
	MenuInvoice    = MenuItem{ID: "invoice", Label: "Invoices", Icon: "receipt", Route: RouteInvoice}
	MenuPlan       = MenuItem{ID: "plan", Label: "Current Plan", Icon: "credit-card", Route: RouteCurrentPlan}
	MenuChangeOrg  = MenuItem{ID: "change_organization", Label: "Change Organization", Icon: "domain", Route: RouteChangeOrganization}
)

// menuOrder is the fixed priority order; each entry is gated by one flag.
var menuOrder = []struct {
	item    MenuItem
	allowed func(ScreenAccess) bool
}{
	{MenuCheckInOut, func(a ScreenAccess) bool { return a.AssetCheckInOut }},
	{MenuAudits, func(a ScreenAccess) bool { return a.Audit }},
	{MenuReports, func(a ScreenAccess) bool { return a.AuditReport }},
	{MenuReminders, func(a ScreenAccess) bool { return a.Reminder }},
	{MenuApprovals, func(a ScreenAccess) bool { return a.AssetApproval }},
	{MenuAssignment, func(a ScreenAccess) bool { return a.AssetAssignment }},
	{MenuInvoice, func(a ScreenAccess) bool { return a.Invoice }},
	{MenuPlan, func(a ScreenAccess) bool { return a.CurrentPlan }},
}

// BuildMenu returns the menu for roles. "Change Organization" is always last.
func BuildMenu(roles ...string) []MenuItem {
	return MenuFor(CapabilitiesToScreenAccess(RolesToCapabilities(roles...)))
}

// MenuFor returns the menu for an already derived screen-access set.
func MenuFor(screens ScreenAccess) []MenuItem {
	items := make([]MenuItem, 0, len(menuOrder)+1)
	for _, entry := range menuOrder {
		if entry.allowed(screens) {
			items = append(items, entry.item)
		}
	}
	return append(items, MenuChangeOrg)
}

// InitialScreen picks the first screen to mount for u. An unknown or missing
// role is treated as employee here and nowhere else.
func InitialScreen(u *domain.User) string {
	switch ResolveEffectiveRole(u) {
	case RoleOrganizationSuperAdmin:
		return RouteDashboard
	case RoleAuditMember:
		return RouteAudit
	case RoleAssetAssignment:
		return RouteAssetAssignment
	case RoleApprover:
		return RouteAssetApproval
	default:
		return RouteAssetCheckInOut
	}
}
