package apiclient

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// Student facing operations: calendar, enrollments, attendance and billing
// of the current user.

// ClassGroups lists the class group catalogue.
func (c *Client) ClassGroups(ctx context.Context, q ClassGroupQuery) ([]ClassGroup, error) {
	params := query{}.str("style", q.Style).str("level", q.Level).values()

	var groups []ClassGroup
	if err := c.doJSON(ctx, http.MethodGet, "/class-groups", params, nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// MyCalendar lists the sessions of the class groups the student is enrolled
// in, within the window.
func (c *Client) MyCalendar(ctx context.Context, q CalendarQuery) ([]ClassSession, error) {
	params := query{}.date("from_date", q.From).date("to_date", q.To).values()

	var sessions []ClassSession
	if err := c.doJSON(ctx, http.MethodGet, "/me/calendar", params, nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// MyEnrollments lists the student's enrollments, waitlisted ones included.
func (c *Client) MyEnrollments(ctx context.Context) ([]Enrollment, error) {
	var enrollments []Enrollment
	if err := c.doJSON(ctx, http.MethodGet, "/me/enrollments", nil, nil, &enrollments); err != nil {
		return nil, err
	}
	return enrollments, nil
}

// Enroll enrolls the student. The backend decides between active and
// waitlisted.
func (c *Client) Enroll(ctx context.Context, req EnrollRequest) (*Enrollment, error) {
	var enrollment Enrollment
	if err := c.doJSON(ctx, http.MethodPost, "/me/enrollments", nil, req, &enrollment); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// CancelEnrollment cancels an enrollment.
func (c *Client) CancelEnrollment(ctx context.Context, enrollmentID uuid.UUID) (*Enrollment, error) {
	var enrollment Enrollment
	path := "/me/enrollments/" + enrollmentID.String() + "/cancel"
	if err := c.doJSON(ctx, http.MethodPost, path, nil, nil, &enrollment); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// MyAttendance returns the student's attendance summary.
func (c *Client) MyAttendance(ctx context.Context) (*AttendanceSummary, error) {
	var summary AttendanceSummary
	if err := c.doJSON(ctx, http.MethodGet, "/me/attendance", nil, nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// BillingSummary returns the student's billing summary.
func (c *Client) BillingSummary(ctx context.Context) (*BillingSummary, error) {
	var summary BillingSummary
	if err := c.doJSON(ctx, http.MethodGet, "/me/billing/summary", nil, nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}
