package apiclient

import (
	"context"
	"net/http"
	"net/url"
)

// Auth operations. The backend answers login and logout with cookies only,
// so those calls return no payload.

// Register creates an unverified account and returns it.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	var user User
	if err := c.doJSON(ctx, http.MethodPost, "/auth/register", nil, req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login performs the cookie login. The body is form encoded as the backend
// expects an OAuth2 password form.
func (c *Client) Login(ctx context.Context, req LoginRequest) error {
	form := url.Values{
		"username": {req.Username},
		"password": {req.Password},
	}
	return c.doForm(ctx, "/auth/login", form, nil)
}

// Logout clears the session cookie on the server side.
func (c *Client) Logout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)
}

// Verify consumes an email verification token and returns the verified user.
func (c *Client) Verify(ctx context.Context, req VerifyRequest) (*User, error) {
	var user User
	if err := c.doJSON(ctx, http.MethodPost, "/auth/verify", nil, req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// RequestVerifyToken asks the backend to send a new verification email.
func (c *Client) RequestVerifyToken(ctx context.Context, req EmailRequest) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/request-verify-token", nil, req, nil)
}

// ForgotPassword asks the backend to send a password reset email.
func (c *Client) ForgotPassword(ctx context.Context, req EmailRequest) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/forgot-password", nil, req, nil)
}

// ResetPassword sets a new password from a reset token.
func (c *Client) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/reset-password", nil, req, nil)
}
