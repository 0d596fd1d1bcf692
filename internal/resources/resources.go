// Package resources defines one request cache per backend resource family
// (auth, schedule, enrollment, attendance, billing, admin) with its query
// and mutation endpoints, their invalidation tags, and the side effects
// that carry server truth into the session store.
package resources

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/studio/internal/querycache"
	"github.com/aussiebroadwan/studio/internal/session"
	"github.com/aussiebroadwan/studio/pkg/apiclient"
)

// Invalidation tag types.
const (
	TagUser          = "User"
	TagClassGroups   = "ClassGroups"
	TagCalendar      = "Calendar"
	TagEnrollments   = "Enrollments"
	TagAttendance    = "Attendance"
	TagBilling       = "Billing"
	TagUsers         = "Users"
	TagClassSessions = "ClassSessions"
	TagStudents      = "Students"
	TagPayments      = "Payments"
)

// None is the argument of endpoints that take no parameters.
type None struct{}

type Deps struct {
	API     *apiclient.Client
	Session *session.Store
	Logger  *slog.Logger

	// Retention of unobserved cache entries.
	Retention time.Duration

	// Now is the clock used for cooldown timestamps, time.Now when nil.
	Now func() time.Time
}

// Families bundles the caches of every resource family. It is process
// scoped: build it once at boot and share it.
type Families struct {
	Auth       *Auth
	Schedule   *Schedule
	Enrollment *Enrollment
	Attendance *Attendance
	Billing    *Billing
	Admin      *Admin

	deps    *Deps
	unwatch func()

	mu       sync.Mutex
	lastUser string
}

func New(d Deps) *Families {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}

	f := &Families{deps: &d}

	// Caches first: mutations of one family invalidate tags in another.
	auth := newCache(&d, "auth")
	schedule := newCache(&d, "schedule")
	enrollment := newCache(&d, "enrollment")
	attendance := newCache(&d, "attendance")
	billing := newCache(&d, "billing")
	admin := newCache(&d, "admin")

	f.Auth = newAuth(&d, auth)
	f.Schedule = newSchedule(&d, schedule, admin, attendance)
	f.Enrollment = newEnrollment(&d, enrollment, schedule)
	f.Attendance = newAttendance(&d, attendance)
	f.Billing = newBilling(&d, billing)
	f.Admin = newAdmin(&d, admin, auth, billing, schedule)

	f.lastUser = d.Session.Snapshot().UserID
	f.unwatch = d.Session.Subscribe(f.onSession)

	return f
}

func newCache(d *Deps, name string) *querycache.Cache {
	return querycache.New(name, querycache.Config{Retention: d.Retention, Logger: d.Logger})
}

// Caches returns every family cache, for the collector.
func (f *Families) Caches() []*querycache.Cache {
	return []*querycache.Cache{
		f.Auth.cache,
		f.Schedule.cache,
		f.Enrollment.cache,
		f.Attendance.cache,
		f.Billing.cache,
		f.Admin.cache,
	}
}

// ResetData drops the cached data of every family except auth, whose user
// entry is needed to decide where to send the user next.
func (f *Families) ResetData() {
	for _, c := range f.Caches()[1:] {
		c.Reset()
	}
}

// Close stops following the session store.
func (f *Families) Close() {
	if f.unwatch != nil {
		f.unwatch()
	}
}

// onSession drops per-user data whenever the signed in user goes away or
// changes, so that the next user never sees it.
func (f *Families) onSession(r session.Record) {
	f.mu.Lock()
	prev := f.lastUser
	f.lastUser = r.UserID
	f.mu.Unlock()

	if prev == "" || prev == r.UserID {
		return
	}
	if r.UserID == "" {
		f.deps.Logger.Debug("credentials cleared, resetting resource caches")
	} else {
		f.deps.Logger.Debug("user switched, resetting resource caches")
	}
	f.ResetData()
}

// clearCredentials is used by every family when the backend answers 401.
func (d *Deps) clearCredentials(ctx context.Context) {
	if err := d.Session.ClearCredentials(ctx); err != nil {
		d.Logger.Error("failed to clear credentials", "error", err)
	}
}

// guard wraps a fetch so that a 401 clears the session credentials.
func guard[A, T any](d *Deps, fetch func(context.Context, A) (T, error)) func(context.Context, A) (T, error) {
	return func(ctx context.Context, arg A) (T, error) {
		data, err := fetch(ctx, arg)
		if apiclient.IsUnauthorized(err) {
			d.clearCredentials(ctx)
		}
		return data, err
	}
}

// provides returns a Provides function yielding fixed type tags.
func provides[A, T any](typs ...string) func(A, T) []querycache.Tag {
	tags := querycache.Tags(typs...)
	return func(A, T) []querycache.Tag { return tags }
}

// invalidates returns an Invalidates function yielding fixed type tags.
func invalidates[B, T any](typs ...string) func(B, T) []querycache.Tag {
	tags := querycache.Tags(typs...)
	return func(B, T) []querycache.Tag { return tags }
}

// deref adapts client calls returning pointers.
func deref[A, T any](call func(context.Context, A) (*T, error)) func(context.Context, A) (T, error) {
	return func(ctx context.Context, arg A) (T, error) {
		v, err := call(ctx, arg)
		if err != nil || v == nil {
			var zero T
			return zero, err
		}
		return *v, nil
	}
}
