// Package app wires the client together: configuration, local storage,
// session, transport, resource caches, navigation and notifications.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/studio/internal/access"
	"github.com/aussiebroadwan/studio/internal/forms"
	"github.com/aussiebroadwan/studio/internal/i18n"
	"github.com/aussiebroadwan/studio/internal/nav"
	"github.com/aussiebroadwan/studio/internal/notify"
	"github.com/aussiebroadwan/studio/internal/querycache"
	"github.com/aussiebroadwan/studio/internal/resources"
	"github.com/aussiebroadwan/studio/internal/screens"
	"github.com/aussiebroadwan/studio/internal/session"
	"github.com/aussiebroadwan/studio/internal/storage"
	"github.com/aussiebroadwan/studio/internal/storage/drivers/sqlite"
	"github.com/aussiebroadwan/studio/pkg/apiclient"
	"github.com/aussiebroadwan/studio/pkg/httpx"
	"github.com/aussiebroadwan/studio/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application holds the process scoped state of the client. It is created
// once, booted, and shut down on exit.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db        storage.Store
	jar       *apiclient.PersistentJar
	api       *apiclient.Client
	collector *querycache.Collector
	started   bool

	Session   *session.Store
	Consent   *session.ConsentStore
	Families  *resources.Families
	Gate      *nav.Gate
	Bundle    *i18n.Bundle
	Validator *forms.Validator
	Notify    *notify.Center
}

// New creates an Application with all dependencies initialized. Nothing is
// read from storage or the network until Boot.
func New(cfg Config) (*Application, error) {
	return NewWithLogger(cfg, slogx.New(slogx.Config{
		Service: "studio",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	}))
}

// NewWithLogger is New with a caller provided logger.
func NewWithLogger(cfg Config, logger *slog.Logger) (*Application, error) {
	app := &Application{cfg: cfg, logger: logger}

	if err := app.initStorage(); err != nil {
		return nil, err
	}

	if err := app.initTransport(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	if err := app.initState(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	return app, nil
}

// initStorage opens the local database and applies migrations.
func (app *Application) initStorage() error {
	db, err := sqlite.NewStore(app.cfg.DataFile)
	if err != nil {
		return fmt.Errorf("failed to initialize local storage: %w", err)
	}

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply local storage migrations: %w", err)
	}

	app.db = db
	app.logger.Debug("local storage ready", "file", app.cfg.DataFile)
	return nil
}

// initTransport builds the cookie jar and the API client.
func (app *Application) initTransport() error {
	jar, err := apiclient.NewPersistentJar(app.cfg.APIURL, storage.NewJarStore(app.db), app.logger)
	if err != nil {
		return fmt.Errorf("failed to create cookie jar: %w", err)
	}
	app.jar = jar

	transport := httpx.Chain(http.DefaultTransport,
		httpx.RequestID(),
		httpx.RateLimit(httpx.RateLimitConfig{
			RequestsPerSecond: app.cfg.RequestsPerSecond,
			Burst:             app.cfg.RequestBurst,
		}),
	)

	api, err := apiclient.New(app.cfg.APIURL,
		apiclient.WithPrefix(app.cfg.APIPrefix),
		apiclient.WithJar(jar),
		apiclient.WithTransport(slogx.Transport(app.logger, transport)),
	)
	if err != nil {
		return fmt.Errorf("failed to create api client: %w", err)
	}
	app.api = api
	return nil
}

// initState builds the session, caches, gate and notification center.
func (app *Application) initState() error {
	persister := storage.NewKVPersister(app.db)
	app.Session = session.New(persister, app.logger)
	app.Consent = session.NewConsentStore(persister)

	app.Families = resources.New(resources.Deps{
		API:       app.api,
		Session:   app.Session,
		Logger:    app.logger,
		Retention: app.cfg.CacheRetention,
	})

	gate, err := nav.NewGate(nav.DefaultRoutes(), app.logger)
	if err != nil {
		return fmt.Errorf("failed to build route table: %w", err)
	}
	app.Gate = gate

	bundle, err := i18n.Default()
	if err != nil {
		return fmt.Errorf("failed to load message catalogs: %w", err)
	}
	app.Bundle = bundle

	v, err := forms.NewValidator()
	if err != nil {
		return fmt.Errorf("failed to create validator: %w", err)
	}
	app.Validator = v

	app.Notify = notify.NewCenter(notify.NewTranslator(bundle, app.cfg.Locale), notify.Config{
		TTL:    app.cfg.NotificationTTL,
		Logger: app.logger,
	})

	app.collector = querycache.NewCollector(app.logger, app.cfg.CacheGCInterval, app.Families.Caches()...)
	return nil
}

// Boot rehydrates the session and the cookie jar, starts the cache
// collector and, when a user is remembered, loads the current user so the
// role is known before the first route is resolved. An expired session is
// not an error: it leaves the client signed out.
func (app *Application) Boot(ctx context.Context) error {
	if err := app.jar.Restore(ctx); err != nil {
		app.logger.Warn("failed to restore cookies", "error", err)
	}

	if err := app.Session.Rehydrate(ctx); err != nil {
		return fmt.Errorf("failed to rehydrate session: %w", err)
	}

	if !app.started {
		app.collector.Start()
		app.started = true
	}

	if app.Session.Snapshot().IsGuest() {
		app.logger.Info("client booted", "signed_in", false)
		return nil
	}

	_, err := app.Families.Auth.CurrentUser.Fetch(ctx, resources.None{}, false)
	if err != nil && !querycache.IsExpected(err) {
		app.logger.Warn("failed to load current user", "error", err)
	}

	app.logger.Info("client booted", "signed_in", !app.Session.Snapshot().IsGuest())
	return nil
}

// Capabilities derives the capability set from the session and the cached
// current user.
func (app *Application) Capabilities() access.Capabilities {
	return access.Current(app.Session, app.Families.Auth.CurrentUser.Select(resources.None{}))
}

// Resolve runs the navigation gate for path.
func (app *Application) Resolve(path string) nav.Decision {
	return app.Gate.Resolve(path, app.Capabilities())
}

// Env returns the environment of the screens.
func (app *Application) Env() *screens.Env {
	return &screens.Env{
		Families:  app.Families,
		Session:   app.Session,
		Notify:    app.Notify,
		Validator: app.Validator,
		Bundle:    app.Bundle,
		Locale:    app.cfg.Locale,
		Logger:    app.logger,
	}
}

// AuthFlows returns the auth screens configured with the cooldowns.
func (app *Application) AuthFlows() *screens.AuthFlows {
	return screens.NewAuthFlows(app.Env(), app.cfg.ResendCooldown, app.cfg.ForgotCooldown)
}

func (app *Application) Logger() *slog.Logger { return app.logger }

// Shutdown stops the background work and closes local storage.
func (app *Application) Shutdown() error {
	app.logger.Debug("shutting down client")

	if app.started {
		app.collector.Stop()
		app.started = false
	}
	app.Families.Close()

	var errs []error
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing local storage", "error", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
