// Package session holds the minimal authentication facts of the client: who
// is signed in, whether the account is verified, and when cooldown-limited
// requests were last made. The Store is the only writer of the record; it
// persists the record locally and rehydrates it at boot.
package session

import (
	"time"

	"github.com/aussiebroadwan/studio/pkg/apiclient"
)

// Record is the persisted session. Only these fields are ever written to
// storage.
type Record struct {
	UserID                        string     `json:"userId"`
	Email                         string     `json:"email"`
	IsVerified                    *bool      `json:"isVerified,omitempty"`
	ResendVerificationRequestedAt *time.Time `json:"resendVerificationRequestedAt,omitempty"`
	ForgotPasswordRequestedAt     *time.Time `json:"forgotPasswordRequestedAt,omitempty"`
}

// IsAuthenticated holds when a user id is known and the account is verified.
func (r Record) IsAuthenticated() bool {
	return r.UserID != "" && r.verified()
}

// IsNotVerified holds when a user id is known but the account is not (yet)
// verified.
func (r Record) IsNotVerified() bool {
	return r.UserID != "" && !r.verified()
}

// IsGuest holds when no user id is known.
func (r Record) IsGuest() bool {
	return r.UserID == ""
}

func (r Record) verified() bool {
	return r.IsVerified != nil && *r.IsVerified
}

// clone copies the pointer fields so callers cannot mutate the store.
func (r Record) clone() Record {
	out := r
	if r.IsVerified != nil {
		v := *r.IsVerified
		out.IsVerified = &v
	}
	if r.ResendVerificationRequestedAt != nil {
		t := *r.ResendVerificationRequestedAt
		out.ResendVerificationRequestedAt = &t
	}
	if r.ForgotPasswordRequestedAt != nil {
		t := *r.ForgotPasswordRequestedAt
		out.ForgotPasswordRequestedAt = &t
	}
	return out
}

// Credentials are the user facts written by SetCredentials.
type Credentials struct {
	UserID     string
	Email      string
	IsVerified bool
}

// CredentialsFromUser extracts credentials from a server returned user.
func CredentialsFromUser(u apiclient.User) Credentials {
	return Credentials{
		UserID:     u.ID.String(),
		Email:      u.Email,
		IsVerified: u.IsVerified,
	}
}
