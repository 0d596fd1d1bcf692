// Package screens holds the view models of the application screens: each
// one subscribes to the resource caches it renders, owns its local UI state
// and turns user actions into mutations and notifications.
package screens

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/studio/internal/forms"
	"github.com/aussiebroadwan/studio/internal/i18n"
	"github.com/aussiebroadwan/studio/internal/notify"
	"github.com/aussiebroadwan/studio/internal/resources"
	"github.com/aussiebroadwan/studio/internal/session"
	"golang.org/x/text/message"
)

// ErrNoTarget is returned when confirming a modal that is not open.
var ErrNoTarget = errors.New("screens: modal has no target")

// Env is what every screen needs.
type Env struct {
	Families  *resources.Families
	Session   *session.Store
	Notify    *notify.Center
	Validator *forms.Validator
	Bundle    *i18n.Bundle
	Locale    string
	Logger    *slog.Logger

	// Now is the clock, time.Now when nil.
	Now func() time.Time
}

func (e *Env) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

func (e *Env) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

func (e *Env) printer() *message.Printer {
	return e.Bundle.Printer(e.Locale)
}

// report publishes err unless it is a local validation failure, which the
// form shows next to its field.
func (e *Env) report(err error) {
	var fe forms.FieldErrors
	if err == nil || errors.As(err, &fe) || errors.Is(err, forms.ErrInvalid) {
		return
	}
	e.Notify.Notify(err)
}

// refetch reloads a subscription after a write whose tags may not cover
// it. A failure is already on the entry, so it is only logged.
func (e *Env) refetch(ctx context.Context, name string, r interface{ Refetch(context.Context) error }) {
	if err := r.Refetch(ctx); err != nil {
		e.logger().Debug("refetch failed", "screen", name, "error", err)
	}
}
