package apiclient

import (
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// Users
// ============================================================================

// Role is the studio role of a user.
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	}
	return false
}

// User is the account returned by /users/me and the auth endpoints.
type User struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Role        Role      `json:"role"`
	IsActive    bool      `json:"is_active"`
	IsVerified  bool      `json:"is_verified"`
	IsSuperuser bool      `json:"is_superuser"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// UserUpdate is a partial update of the current user. Nil fields are not
// sent.
type UserUpdate struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Email     *string `json:"email,omitempty"`
	Password  *string `json:"password,omitempty"`
}

// IsEmpty reports whether no field is set.
func (u UserUpdate) IsEmpty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Email == nil && u.Password == nil
}

// ============================================================================
// Auth
// ============================================================================

// RegisterRequest creates a new (unverified) student account.
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=128"`
	FirstName string `json:"first_name" validate:"required,max=64"`
	LastName  string `json:"last_name" validate:"required,max=64"`
}

// LoginRequest is sent form encoded; the backend names the email field
// "username".
type LoginRequest struct {
	Username string `json:"username" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// VerifyRequest carries the token received by email.
type VerifyRequest struct {
	Token string `json:"token" validate:"required"`
}

// EmailRequest is used by request-verify-token and forgot-password.
type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest sets a new password from a reset token.
type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// ============================================================================
// Schedule
// ============================================================================

// SessionStatus is the lifecycle state of one class session.
type SessionStatus string

const (
	SessionScheduled SessionStatus = "scheduled"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
)

// ClassGroup is a recurring class (e.g. "Salsa beginners, Tuesdays").
type ClassGroup struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Style         string    `json:"style"`
	Level         string    `json:"level"`
	InstructorID  uuid.UUID `json:"instructor_id"`
	Instructor    string    `json:"instructor_name"`
	Capacity      int       `json:"capacity"`
	EnrolledCount int       `json:"enrolled_count"`
	WaitlistCount int       `json:"waitlist_count"`
	Weekday       int       `json:"weekday"`
	StartTime     string    `json:"start_time"`
	DurationMin   int       `json:"duration_minutes"`
}

// IsFull reports whether a new enrollment would be waitlisted.
func (g ClassGroup) IsFull() bool {
	return g.Capacity > 0 && g.EnrolledCount >= g.Capacity
}

// ClassGroupQuery filters the class group catalogue.
type ClassGroupQuery struct {
	Style string
	Level string
}

// ClassSession is one dated occurrence of a class group.
type ClassSession struct {
	ID                     uuid.UUID     `json:"id"`
	ClassGroupID           uuid.UUID     `json:"class_group_id"`
	ClassGroupName         string        `json:"class_group_name"`
	StartsAt               time.Time     `json:"starts_at"`
	EndsAt                 time.Time     `json:"ends_at"`
	Status                 SessionStatus `json:"status"`
	InstructorID           uuid.UUID     `json:"instructor_id"`
	SubstituteInstructorID *uuid.UUID    `json:"substitute_instructor_id,omitempty"`
	Location               string        `json:"location,omitempty"`
	Notes                  string        `json:"notes,omitempty"`
}

// CalendarQuery selects a date window, optionally by status.
type CalendarQuery struct {
	From   time.Time
	To     time.Time
	Status SessionStatus
}

// CompleteSessionRequest marks a session as taught.
type CompleteSessionRequest struct {
	Notes string `json:"notes,omitempty" validate:"max=1000"`
}

// CancelSessionRequest cancels a scheduled session.
type CancelSessionRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// RescheduleSessionRequest moves a session in time.
type RescheduleSessionRequest struct {
	StartsAt time.Time `json:"starts_at" validate:"required"`
	EndsAt   time.Time `json:"ends_at" validate:"required,gtfield=StartsAt"`
}

// SubstitutionRequest hands a session to another instructor.
type SubstitutionRequest struct {
	SubstituteInstructorID uuid.UUID `json:"substitute_instructor_id" validate:"required"`
	Reason                 string    `json:"reason,omitempty" validate:"max=500"`
}

// ============================================================================
// Enrollment
// ============================================================================

// EnrollmentStatus is the state of a student's membership of a class group.
type EnrollmentStatus string

const (
	EnrollmentActive     EnrollmentStatus = "active"
	EnrollmentWaitlisted EnrollmentStatus = "waitlisted"
	EnrollmentCancelled  EnrollmentStatus = "cancelled"
)

// Enrollment is a student's enrollment. Waitlist transitions are decided by
// the backend.
type Enrollment struct {
	ID               uuid.UUID        `json:"id"`
	ClassGroupID     uuid.UUID        `json:"class_group_id"`
	ClassGroupName   string           `json:"class_group_name"`
	Status           EnrollmentStatus `json:"status"`
	WaitlistPosition *int             `json:"waitlist_position,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// EnrollRequest enrolls the current student into a class group.
type EnrollRequest struct {
	ClassGroupID uuid.UUID `json:"class_group_id" validate:"required"`
}

// ============================================================================
// Attendance
// ============================================================================

// AttendanceStatus is one student's presence at one session.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceExcused AttendanceStatus = "excused"
)

// AttendanceRecord is one line of a student's attendance history.
type AttendanceRecord struct {
	ClassSessionID uuid.UUID        `json:"class_session_id"`
	ClassGroupName string           `json:"class_group_name"`
	StartsAt       time.Time        `json:"starts_at"`
	Status         AttendanceStatus `json:"status"`
}

// AttendanceSummary is aggregated by the backend.
type AttendanceSummary struct {
	Total          int                `json:"total"`
	Present        int                `json:"present"`
	Absent         int                `json:"absent"`
	Excused        int                `json:"excused"`
	AttendanceRate float64            `json:"attendance_rate"`
	Records        []AttendanceRecord `json:"records"`
}

// AttendanceEntry is one student on an instructor's roll call.
type AttendanceEntry struct {
	StudentID   uuid.UUID        `json:"student_id"`
	StudentName string           `json:"student_name"`
	Status      AttendanceStatus `json:"status,omitempty"`
}

// SessionAttendance is the roll call of one session.
type SessionAttendance struct {
	ClassSessionID uuid.UUID         `json:"class_session_id"`
	Entries        []AttendanceEntry `json:"entries"`
}

// AttendanceMark records one student's status.
type AttendanceMark struct {
	StudentID uuid.UUID        `json:"student_id" validate:"required"`
	Status    AttendanceStatus `json:"status" validate:"required,oneof=present absent excused"`
}

// SaveAttendanceRequest replaces the roll call of a session.
type SaveAttendanceRequest struct {
	Marks []AttendanceMark `json:"marks" validate:"dive"`
}

// ============================================================================
// Billing
// ============================================================================

// BillingItem is one charge. Amounts are in minor units.
type BillingItem struct {
	Description string    `json:"description"`
	AmountCents int64     `json:"amount_cents"`
	DueDate     time.Time `json:"due_date"`
	Paid        bool      `json:"paid"`
}

// BillingSummary is computed by the backend.
type BillingSummary struct {
	Currency       string        `json:"currency"`
	TotalDueCents  int64         `json:"total_due_cents"`
	TotalPaidCents int64         `json:"total_paid_cents"`
	BalanceCents   int64         `json:"balance_cents"`
	Items          []BillingItem `json:"items"`
}

// ============================================================================
// Admin
// ============================================================================

// Page is the envelope of paginated list endpoints.
type Page[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// SortOrder is "asc" or "desc".
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ListUsersParams are the filters of the admin users list.
type ListUsersParams struct {
	Page      int
	PageSize  int
	Search    string
	Role      Role
	IsActive  *bool
	SortBy    string
	SortOrder SortOrder
}

// AdminUserUpdate is a partial update performed by an administrator.
type AdminUserUpdate struct {
	FirstName  *string `json:"first_name,omitempty"`
	LastName   *string `json:"last_name,omitempty"`
	Email      *string `json:"email,omitempty"`
	Role       *Role   `json:"role,omitempty"`
	IsActive   *bool   `json:"is_active,omitempty"`
	IsVerified *bool   `json:"is_verified,omitempty"`
}

// ListClassSessionsParams are the filters of the admin sessions list.
type ListClassSessionsParams struct {
	Page         int
	PageSize     int
	Search       string
	Status       SessionStatus
	InstructorID string
	From         time.Time
	To           time.Time
	SortBy       string
	SortOrder    SortOrder
}

// Student is the light student record used by pickers.
type Student struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
}

// FullName joins first and last name.
func (s Student) FullName() string {
	return User{FirstName: s.FirstName, LastName: s.LastName}.FullName()
}

// Payment is a recorded payment.
type Payment struct {
	ID          uuid.UUID `json:"id"`
	StudentID   uuid.UUID `json:"student_id"`
	StudentName string    `json:"student_name"`
	AmountCents int64     `json:"amount_cents"`
	Method      string    `json:"method"`
	PaidAt      time.Time `json:"paid_at"`
	Note        string    `json:"note,omitempty"`
}

// ListPaymentsParams filters the payments list.
type ListPaymentsParams struct {
	Page      int
	PageSize  int
	StudentID string
}

// RecordPaymentRequest registers a payment for a student.
type RecordPaymentRequest struct {
	StudentID   uuid.UUID `json:"student_id" validate:"required"`
	AmountCents int64     `json:"amount_cents" validate:"gt=0"`
	Method      string    `json:"method" validate:"required,oneof=cash card transfer"`
	Note        string    `json:"note,omitempty" validate:"max=500"`
}
