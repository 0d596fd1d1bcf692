package apiclient

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

func sessionPath(id uuid.UUID, action string) string {
	return "/instructor/schedule/class-sessions/" + id.String() + "/" + action
}

// InstructorCalendar lists the sessions taught by the current instructor.
func (c *Client) InstructorCalendar(ctx context.Context, q CalendarQuery) ([]ClassSession, error) {
	params := query{}.
		date("from_date", q.From).
		date("to_date", q.To).
		str("status", string(q.Status)).
		values()

	var sessions []ClassSession
	if err := c.doJSON(ctx, http.MethodGet, "/instructor/calendar", params, nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// CompleteSession marks a session as taught.
func (c *Client) CompleteSession(ctx context.Context, id uuid.UUID, req CompleteSessionRequest) (*ClassSession, error) {
	return c.sessionAction(ctx, id, "complete", req)
}

// CancelSession cancels a scheduled session.
func (c *Client) CancelSession(ctx context.Context, id uuid.UUID, req CancelSessionRequest) (*ClassSession, error) {
	return c.sessionAction(ctx, id, "cancel", req)
}

// RescheduleSession moves a session.
func (c *Client) RescheduleSession(ctx context.Context, id uuid.UUID, req RescheduleSessionRequest) (*ClassSession, error) {
	return c.sessionAction(ctx, id, "reschedule", req)
}

// AddSubstitution assigns a substitute instructor.
func (c *Client) AddSubstitution(ctx context.Context, id uuid.UUID, req SubstitutionRequest) (*ClassSession, error) {
	return c.sessionAction(ctx, id, "substitutions", req)
}

func (c *Client) sessionAction(ctx context.Context, id uuid.UUID, action string, body any) (*ClassSession, error) {
	var session ClassSession
	if err := c.doJSON(ctx, http.MethodPost, sessionPath(id, action), nil, body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// SessionAttendance returns the roll call of a session.
func (c *Client) SessionAttendance(ctx context.Context, id uuid.UUID) (*SessionAttendance, error) {
	var att SessionAttendance
	if err := c.doJSON(ctx, http.MethodGet, sessionPath(id, "attendance"), nil, nil, &att); err != nil {
		return nil, err
	}
	return &att, nil
}

// SaveSessionAttendance replaces the roll call of a session.
func (c *Client) SaveSessionAttendance(ctx context.Context, id uuid.UUID, req SaveAttendanceRequest) (*SessionAttendance, error) {
	var att SessionAttendance
	if err := c.doJSON(ctx, http.MethodPut, sessionPath(id, "attendance"), nil, req, &att); err != nil {
		return nil, err
	}
	return &att, nil
}
