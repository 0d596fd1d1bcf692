// Package access derives what the current user may do from the session
// record and the cached current user. The same Capabilities value answers
// both the navigation gate and in-page checks.
package access

import (
	"github.com/aussiebroadwan/studio/internal/querycache"
	"github.com/aussiebroadwan/studio/internal/session"
	"github.com/aussiebroadwan/studio/pkg/apiclient"
)

// Permission names an action or area of the application.
type Permission string

const (
	ViewAccount    Permission = "account:view"
	ViewDashboard  Permission = "dashboard:view"
	Enroll         Permission = "enrollments:write"
	ViewBilling    Permission = "billing:view"
	ViewAttendance Permission = "attendance:view"
	ManageSessions Permission = "sessions:manage"
	TakeAttendance Permission = "attendance:write"
	ViewAdminPanel Permission = "admin:view"
	ManageUsers    Permission = "users:manage"
	ManagePayments Permission = "payments:manage"
)

// Capabilities is the authorization view of the current state.
type Capabilities struct {
	// Rehydrated is false until the session store has loaded its record.
	Rehydrated bool

	IsAuthenticated bool
	IsNotVerified   bool
	IsVerified      bool

	// Role is only set when RoleKnown: the cached user matches the
	// session user.
	Role      apiclient.Role
	RoleKnown bool

	// UserPending holds while the session is authenticated but the user
	// fetch has not settled.
	UserPending bool

	IsAdmin      bool
	IsStudent    bool
	IsInstructor bool
}

// Derive computes the capabilities of a rehydrated session. The role comes
// from the cached user only; a user entry left over from another account is
// ignored.
func Derive(rec session.Record, user querycache.State[apiclient.User]) Capabilities {
	c := Capabilities{
		Rehydrated:      true,
		IsAuthenticated: rec.IsAuthenticated(),
		IsNotVerified:   rec.IsNotVerified(),
	}
	c.IsVerified = c.IsAuthenticated

	if rec.IsGuest() {
		return c
	}

	if user.HasData && user.Data.ID.String() == rec.UserID {
		c.Role = user.Data.Role
		c.RoleKnown = true
	}

	if !c.RoleKnown {
		switch user.Status {
		case querycache.Uninitialized, querycache.Pending:
			c.UserPending = c.IsAuthenticated
		}
		return c
	}

	c.IsAdmin = c.Role == apiclient.RoleAdmin
	c.IsStudent = c.Role == apiclient.RoleStudent
	c.IsInstructor = c.Role == apiclient.RoleInstructor
	return c
}

// Current returns the capabilities for the store, or the zero value while
// it is still rehydrating.
func Current(s *session.Store, user querycache.State[apiclient.User]) Capabilities {
	if !s.Ready() {
		return Capabilities{}
	}
	return Derive(s.Snapshot(), user)
}

// Can reports whether the permission is granted. Role-bound permissions are
// denied while the role is unknown.
func (c Capabilities) Can(p Permission) bool {
	if !c.IsAuthenticated {
		return false
	}

	switch p {
	case ViewAccount, ViewDashboard:
		return true
	case Enroll, ViewBilling, ViewAttendance:
		return c.IsStudent
	case ManageSessions, TakeAttendance:
		return c.IsInstructor || c.IsAdmin
	case ViewAdminPanel, ManageUsers, ManagePayments:
		return c.IsAdmin
	default:
		return false
	}
}

// RoleBound reports whether p depends on the user role.
func RoleBound(p Permission) bool {
	switch p {
	case ViewAccount, ViewDashboard:
		return false
	default:
		return true
	}
}
