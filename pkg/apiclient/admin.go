package apiclient

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// Admin operations. The backend rejects them with 403 for non admins.

// ListUsers returns one page of users.
func (c *Client) ListUsers(ctx context.Context, p ListUsersParams) (*Page[User], error) {
	params := query{}.
		int("page", p.Page).
		int("page_size", p.PageSize).
		str("search", p.Search).
		str("role", string(p.Role)).
		bool("is_active", p.IsActive).
		str("sort_by", p.SortBy).
		str("sort_order", string(p.SortOrder)).
		values()

	var page Page[User]
	if err := c.doJSON(ctx, http.MethodGet, "/admin/users", params, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// UpdateUser applies an admin update to a user.
func (c *Client) UpdateUser(ctx context.Context, id uuid.UUID, update AdminUserUpdate) (*User, error) {
	var user User
	if err := c.doJSON(ctx, http.MethodPatch, "/admin/users/"+id.String(), nil, update, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes a user.
func (c *Client) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return c.doJSON(ctx, http.MethodDelete, "/admin/users/"+id.String(), nil, nil, nil)
}

// ListClassSessions returns one page of sessions across all instructors.
func (c *Client) ListClassSessions(ctx context.Context, p ListClassSessionsParams) (*Page[ClassSession], error) {
	params := query{}.
		int("page", p.Page).
		int("page_size", p.PageSize).
		str("search", p.Search).
		str("status", string(p.Status)).
		str("instructor_id", p.InstructorID).
		date("from_date", p.From).
		date("to_date", p.To).
		str("sort_by", p.SortBy).
		str("sort_order", string(p.SortOrder)).
		values()

	var page Page[ClassSession]
	if err := c.doJSON(ctx, http.MethodGet, "/admin/class-sessions", params, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListStudents returns every student, used by pickers that filter locally.
func (c *Client) ListStudents(ctx context.Context) ([]Student, error) {
	var students []Student
	if err := c.doJSON(ctx, http.MethodGet, "/admin/students", nil, nil, &students); err != nil {
		return nil, err
	}
	return students, nil
}

// ListPayments returns one page of payments.
func (c *Client) ListPayments(ctx context.Context, p ListPaymentsParams) (*Page[Payment], error) {
	params := query{}.
		int("page", p.Page).
		int("page_size", p.PageSize).
		str("student_id", p.StudentID).
		values()

	var page Page[Payment]
	if err := c.doJSON(ctx, http.MethodGet, "/admin/payments", params, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// RecordPayment registers a payment.
func (c *Client) RecordPayment(ctx context.Context, req RecordPaymentRequest) (*Payment, error) {
	var payment Payment
	if err := c.doJSON(ctx, http.MethodPost, "/admin/payments", nil, req, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}
