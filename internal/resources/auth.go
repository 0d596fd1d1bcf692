package resources

import (
	"context"
	"fmt"

	"github.com/aussiebroadwan/studio/internal/querycache"
	"github.com/aussiebroadwan/studio/internal/session"
	"github.com/aussiebroadwan/studio/pkg/apiclient"
)

// Auth is the account family. The current user entry is the server truth
// behind the session record: its results are written into the store.
type Auth struct {
	cache *querycache.Cache
	deps  *Deps

	CurrentUser *querycache.Query[None, apiclient.User]

	Register           *querycache.Mutation[apiclient.RegisterRequest, apiclient.User]
	Login              *querycache.Mutation[apiclient.LoginRequest, apiclient.User]
	Logout             *querycache.Mutation[None, None]
	Verify             *querycache.Mutation[apiclient.VerifyRequest, apiclient.User]
	RequestVerifyToken *querycache.Mutation[apiclient.EmailRequest, None]
	ForgotPassword     *querycache.Mutation[apiclient.EmailRequest, None]
	ResetPassword      *querycache.Mutation[apiclient.ResetPasswordRequest, None]
	UpdateMe           *querycache.Mutation[apiclient.UserUpdate, apiclient.User]
}

func newAuth(d *Deps, c *querycache.Cache) *Auth {
	a := &Auth{cache: c, deps: d}

	a.CurrentUser = querycache.NewQuery(c, querycache.QueryDef[None, apiclient.User]{
		Name:     "getCurrentUser",
		Fetch:    a.fetchCurrentUser,
		Provides: provides[None, apiclient.User](TagUser),
	})

	a.Register = querycache.NewMutation(c, querycache.MutationDef[apiclient.RegisterRequest, apiclient.User]{
		Name: "register",
		Do:   deref(d.API.Register),
		OnSuccess: func(ctx context.Context, _ apiclient.RegisterRequest, u apiclient.User) {
			a.setCredentials(ctx, u)
		},
	})

	a.Login = querycache.NewMutation(c, querycache.MutationDef[apiclient.LoginRequest, apiclient.User]{
		Name: "login",
		Do:   a.login,
	})

	a.Logout = querycache.NewMutation(c, querycache.MutationDef[None, None]{
		Name: "logout",
		Do: func(ctx context.Context, _ None) (None, error) {
			// An expired session is as good as a signed out one.
			if err := d.API.Logout(ctx); err != nil && !apiclient.IsUnauthorized(err) {
				return None{}, err
			}
			return None{}, nil
		},
		OnSuccess: func(ctx context.Context, _ None, _ None) {
			d.clearCredentials(ctx)
			c.Reset()
		},
	})

	a.Verify = querycache.NewMutation(c, querycache.MutationDef[apiclient.VerifyRequest, apiclient.User]{
		Name: "verify",
		Do:   deref(d.API.Verify),
		// A verified account signs in again to get a session cookie.
		OnSuccess: func(ctx context.Context, _ apiclient.VerifyRequest, _ apiclient.User) {
			d.clearCredentials(ctx)
		},
	})

	a.RequestVerifyToken = querycache.NewMutation(c, querycache.MutationDef[apiclient.EmailRequest, None]{
		Name: "requestVerifyToken",
		Do: func(ctx context.Context, req apiclient.EmailRequest) (None, error) {
			return None{}, d.API.RequestVerifyToken(ctx, req)
		},
		OnSuccess: func(ctx context.Context, _ apiclient.EmailRequest, _ None) {
			if err := d.Session.SetResendVerificationRequestedAt(ctx, d.Now()); err != nil {
				d.Logger.Warn("failed to record verification request", "error", err)
			}
		},
	})

	a.ForgotPassword = querycache.NewMutation(c, querycache.MutationDef[apiclient.EmailRequest, None]{
		Name: "forgotPassword",
		Do: func(ctx context.Context, req apiclient.EmailRequest) (None, error) {
			return None{}, d.API.ForgotPassword(ctx, req)
		},
		OnSuccess: func(ctx context.Context, _ apiclient.EmailRequest, _ None) {
			if err := d.Session.SetForgotPasswordRequestedAt(ctx, d.Now()); err != nil {
				d.Logger.Warn("failed to record password reset request", "error", err)
			}
		},
	})

	a.ResetPassword = querycache.NewMutation(c, querycache.MutationDef[apiclient.ResetPasswordRequest, None]{
		Name: "resetPassword",
		Do: func(ctx context.Context, req apiclient.ResetPasswordRequest) (None, error) {
			return None{}, d.API.ResetPassword(ctx, req)
		},
	})

	a.UpdateMe = querycache.NewMutation(c, querycache.MutationDef[apiclient.UserUpdate, apiclient.User]{
		Name: "updateMe",
		Do:   guard(d, deref(d.API.UpdateMe)),
		OnSuccess: func(ctx context.Context, _ apiclient.UserUpdate, u apiclient.User) {
			a.setCredentials(ctx, u)
		},
		Invalidates: invalidates[apiclient.UserUpdate, apiclient.User](TagUser),
	})

	return a
}

// fetchCurrentUser loads the user of the session cookie. A 401 means the
// session is gone: the credentials are cleared and the failure is marked
// expected so that it is not reported.
func (a *Auth) fetchCurrentUser(ctx context.Context, _ None) (apiclient.User, error) {
	u, err := a.deps.API.GetMe(ctx)
	if apiclient.IsUnauthorized(err) {
		a.deps.clearCredentials(ctx)
		return apiclient.User{}, querycache.Expected(err)
	}
	if err != nil {
		return apiclient.User{}, err
	}

	a.setCredentials(ctx, *u)
	return *u, nil
}

// login exchanges the password for a session cookie and then loads the
// user, whose fetch writes the credentials.
func (a *Auth) login(ctx context.Context, req apiclient.LoginRequest) (apiclient.User, error) {
	if err := a.deps.API.Login(ctx, req); err != nil {
		return apiclient.User{}, err
	}

	state, err := a.CurrentUser.Fetch(ctx, None{}, true)
	if err != nil {
		return apiclient.User{}, fmt.Errorf("failed to load user after login: %w", err)
	}
	return state.Data, nil
}

func (a *Auth) setCredentials(ctx context.Context, u apiclient.User) {
	if err := a.deps.Session.SetCredentials(ctx, session.CredentialsFromUser(u)); err != nil {
		a.deps.Logger.Error("failed to store credentials", "error", err)
	}
}

// UserOptions are the subscription options of the current user: the query
// is skipped until the session knows a user id.
func (a *Auth) UserOptions() querycache.Options {
	return querycache.Options{Skip: a.deps.Session.Snapshot().IsGuest()}
}
