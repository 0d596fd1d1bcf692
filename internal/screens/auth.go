package screens

import (
	"context"
	"fmt"
	"time"

	"github.com/aussiebroadwan/studio/internal/resources"
	"github.com/aussiebroadwan/studio/internal/session"
	"github.com/aussiebroadwan/studio/pkg/apiclient"
)

// DefaultCooldown is the wait suggested between two emails of one kind.
const DefaultCooldown = 60 * time.Second

// CooldownError reports a request made before the cooldown ended. The
// cooldown only mirrors the backend limit for display.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("screens: retry in %s", e.Remaining.Round(time.Second))
}

// AuthFlows drives the sign in, registration, verification and password
// reset screens.
type AuthFlows struct {
	env    *Env
	resend session.Cooldown
	forgot session.Cooldown
}

// NewAuthFlows creates the flows with the resend-verification and
// forgot-password cooldowns. Non positive values use DefaultCooldown.
func NewAuthFlows(env *Env, resend, forgot time.Duration) *AuthFlows {
	if resend <= 0 {
		resend = DefaultCooldown
	}
	if forgot <= 0 {
		forgot = DefaultCooldown
	}
	return &AuthFlows{
		env:    env,
		resend: session.Cooldown{Period: resend},
		forgot: session.Cooldown{Period: forgot},
	}
}

func (f *AuthFlows) auth() *resources.Auth { return f.env.Families.Auth }

func (f *AuthFlows) validate(v any) error {
	return f.env.Validator.Struct(f.env.Locale, v)
}

func (f *AuthFlows) Login(ctx context.Context, email, password string) (apiclient.User, error) {
	req := apiclient.LoginRequest{Username: email, Password: password}
	if err := f.validate(req); err != nil {
		return apiclient.User{}, err
	}

	u, err := f.auth().Login.Run(ctx, req)
	if err != nil {
		f.env.report(err)
		return u, err
	}
	f.env.Notify.Success("auth.login.success", u.FullName())
	return u, nil
}

func (f *AuthFlows) Register(ctx context.Context, req apiclient.RegisterRequest) (apiclient.User, error) {
	if err := f.validate(req); err != nil {
		return apiclient.User{}, err
	}

	u, err := f.auth().Register.Run(ctx, req)
	if err != nil {
		f.env.report(err)
		return u, err
	}
	f.env.Notify.Success("auth.register.success")
	return u, nil
}

func (f *AuthFlows) Logout(ctx context.Context) error {
	if _, err := f.auth().Logout.Run(ctx, resources.None{}); err != nil {
		f.env.report(err)
		return err
	}
	f.env.Notify.Info("auth.logout.success")
	return nil
}

func (f *AuthFlows) Verify(ctx context.Context, token string) error {
	req := apiclient.VerifyRequest{Token: token}
	if err := f.validate(req); err != nil {
		return err
	}

	if _, err := f.auth().Verify.Run(ctx, req); err != nil {
		f.env.report(err)
		return err
	}
	f.env.Notify.Success("auth.verify.success")
	return nil
}

// ResendCooldown is the wait before another verification email, in whole
// seconds.
func (f *AuthFlows) ResendCooldown() int {
	return f.resend.Seconds(f.env.Session.Snapshot().ResendVerificationRequestedAt, f.env.now())
}

// ForgotCooldown is the wait before another reset email, in whole seconds.
func (f *AuthFlows) ForgotCooldown() int {
	return f.forgot.Seconds(f.env.Session.Snapshot().ForgotPasswordRequestedAt, f.env.now())
}

func (f *AuthFlows) checkCooldown(cd session.Cooldown, since *time.Time) error {
	remaining := cd.Remaining(since, f.env.now())
	if remaining <= 0 {
		return nil
	}
	f.env.Notify.Info("auth.cooldown", cd.Seconds(since, f.env.now()))
	return &CooldownError{Remaining: remaining}
}

// ResendVerification sends another verification email to the session
// email.
func (f *AuthFlows) ResendVerification(ctx context.Context) error {
	rec := f.env.Session.Snapshot()
	if err := f.checkCooldown(f.resend, rec.ResendVerificationRequestedAt); err != nil {
		return err
	}

	req := apiclient.EmailRequest{Email: rec.Email}
	if err := f.validate(req); err != nil {
		return err
	}

	if _, err := f.auth().RequestVerifyToken.Run(ctx, req); err != nil {
		f.env.report(err)
		return err
	}
	f.env.Notify.Success("auth.verification.sent")
	return nil
}

func (f *AuthFlows) ForgotPassword(ctx context.Context, email string) error {
	if err := f.checkCooldown(f.forgot, f.env.Session.Snapshot().ForgotPasswordRequestedAt); err != nil {
		return err
	}

	req := apiclient.EmailRequest{Email: email}
	if err := f.validate(req); err != nil {
		return err
	}

	if _, err := f.auth().ForgotPassword.Run(ctx, req); err != nil {
		f.env.report(err)
		return err
	}
	f.env.Notify.Success("auth.reset.sent")
	return nil
}

func (f *AuthFlows) ResetPassword(ctx context.Context, token, password string) error {
	req := apiclient.ResetPasswordRequest{Token: token, Password: password}
	if err := f.validate(req); err != nil {
		return err
	}

	if _, err := f.auth().ResetPassword.Run(ctx, req); err != nil {
		f.env.report(err)
		return err
	}
	f.env.Notify.Success("auth.reset.success")
	return nil
}
