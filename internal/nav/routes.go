package nav

import "github.com/aussiebroadwan/studio/internal/access"

// DefaultRoutes is the route table of the application.
func DefaultRoutes() []Route {
	return []Route{
		{Name: "home", Pattern: "/{$}", Requirement: Public},
		{Name: "privacy", Pattern: "/privacy", Requirement: Public},
		{Name: "verify", Pattern: "/verify", Requirement: Public},

		{Name: "login", Pattern: "/login", Requirement: GuestOnly},
		{Name: "register", Pattern: "/register", Requirement: GuestOnly},
		{Name: "forgot-password", Pattern: "/forgot-password", Requirement: GuestOnly},
		{Name: "reset-password", Pattern: "/reset-password", Requirement: GuestOnly},

		{Name: "verification", Pattern: "/verification", Requirement: PendingVerification},

		{Name: "account", Pattern: "/account", Requirement: Authenticated},
		{Name: "dashboard", Pattern: "/dashboard", Requirement: Requires(access.ViewDashboard)},

		{Name: "calendar", Pattern: "/calendar", Requirement: Requires(access.Enroll)},
		{Name: "billing", Pattern: "/billing", Requirement: Requires(access.ViewBilling)},
		{Name: "attendance", Pattern: "/attendance", Requirement: Requires(access.ViewAttendance)},

		{Name: "instructor", Pattern: "/instructor", Requirement: Requires(access.ManageSessions)},
		{Name: "roll-call", Pattern: "/instructor/sessions/{id}/attendance", Requirement: Requires(access.TakeAttendance)},

		{Name: "admin", Pattern: "/admin", Requirement: Requires(access.ViewAdminPanel)},
		{Name: "admin-users", Pattern: "/admin/users", Requirement: Requires(access.ManageUsers)},
		{Name: "admin-sessions", Pattern: "/admin/sessions", Requirement: Requires(access.ViewAdminPanel)},
		{Name: "admin-payments", Pattern: "/admin/payments", Requirement: Requires(access.ManagePayments)},
	}
}
