package apiclient

import (
	"context"
	"net/http"
)

// GetMe returns the user owning the session cookie.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var user User
	if err := c.doJSON(ctx, http.MethodGet, "/users/me", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateMe applies a partial update to the current user.
func (c *Client) UpdateMe(ctx context.Context, update UserUpdate) (*User, error) {
	var user User
	if err := c.doJSON(ctx, http.MethodPatch, "/users/me", nil, update, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
