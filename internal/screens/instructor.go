package screens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aussiebroadwan/studio/internal/querycache"
	"github.com/aussiebroadwan/studio/internal/resources"
	"github.com/aussiebroadwan/studio/pkg/apiclient"
)

const (
	// UpcomingDays is the length of the upcoming sessions window.
	UpcomingDays = 14
	// UnfinishedDays is how far back scheduled sessions are looked up.
	UnfinishedDays = 30
)

// InstructorDashboard lists the upcoming sessions and the past ones still
// marked scheduled, and runs the session workflows through modals.
type InstructorDashboard struct {
	env *Env

	upcoming   *querycache.Subscription[apiclient.CalendarQuery, []apiclient.ClassSession]
	unfinished *querycache.Subscription[apiclient.CalendarQuery, []apiclient.ClassSession]

	Complete   Modal[apiclient.ClassSession]
	Cancel     Modal[apiclient.ClassSession]
	Reschedule Modal[apiclient.ClassSession]
	Substitute Modal[apiclient.ClassSession]
	Attendance Modal[apiclient.ClassSession]
}

func NewInstructorDashboard(ctx context.Context, env *Env) (*InstructorDashboard, error) {
	d := &InstructorDashboard{env: env}
	cal := env.Families.Schedule.InstructorCalendar
	up, past := dashboardWindows(env.now())

	var upErr, pastErr error
	d.upcoming, upErr = cal.Subscribe(ctx, up, querycache.Options{}, nil)
	d.unfinished, pastErr = cal.Subscribe(ctx, past, querycache.Options{}, nil)

	err := errors.Join(upErr, pastErr)
	env.report(err)
	return d, err
}

func day(t time.Time) time.Time {
	y, m, dd := t.Date()
	return time.Date(y, m, dd, 0, 0, 0, 0, t.Location())
}

// dashboardWindows returns the upcoming and unfinished query windows. Both
// are whole days so that the cache keys stay stable through the day.
func dashboardWindows(now time.Time) (upcoming, unfinished apiclient.CalendarQuery) {
	today := day(now)
	upcoming = apiclient.CalendarQuery{
		From:   today,
		To:     today.AddDate(0, 0, UpcomingDays-1),
		Status: apiclient.SessionScheduled,
	}
	unfinished = apiclient.CalendarQuery{
		From:   today.AddDate(0, 0, -UnfinishedDays),
		To:     today,
		Status: apiclient.SessionScheduled,
	}
	return upcoming, unfinished
}

// Upcoming returns the scheduled sessions that have not ended.
func (d *InstructorDashboard) Upcoming() []apiclient.ClassSession {
	now := d.env.now()
	var out []apiclient.ClassSession
	for _, s := range d.upcoming.State().Data {
		if s.EndsAt.After(now) {
			out = append(out, s)
		}
	}
	return out
}

// Unfinished returns the sessions that ended but are still scheduled.
func (d *InstructorDashboard) Unfinished() []apiclient.ClassSession {
	now := d.env.now()
	var out []apiclient.ClassSession
	for _, s := range d.unfinished.State().Data {
		if !s.EndsAt.After(now) {
			out = append(out, s)
		}
	}
	return out
}

func (d *InstructorDashboard) IsLoading() bool {
	return d.upcoming.State().IsLoading() || d.unfinished.State().IsLoading()
}

// finish closes the modal and makes sure both windows reflect the write
// issued at since. The unfinished window is a separate entry the tags may
// not reach; a window the invalidation already reloaded is not fetched
// again.
func (d *InstructorDashboard) finish(ctx context.Context, m *Modal[apiclient.ClassSession], key string, since time.Time) {
	m.Close()
	d.env.Notify.Success(key)
	d.reload(ctx, "instructor.upcoming", d.upcoming, since)
	d.reload(ctx, "instructor.unfinished", d.unfinished, since)
}

func (d *InstructorDashboard) reload(
	ctx context.Context,
	name string,
	sub *querycache.Subscription[apiclient.CalendarQuery, []apiclient.ClassSession],
	since time.Time,
) {
	if st := sub.State(); st.IsSuccess() && !st.Stale && !st.LastFetchedAt.Before(since) {
		return
	}
	d.env.refetch(ctx, name, sub)
}

func confirm[R any](
	ctx context.Context,
	d *InstructorDashboard,
	m *Modal[apiclient.ClassSession],
	mut *querycache.Mutation[resources.SessionCommand[R], apiclient.ClassSession],
	body R,
	key string,
) error {
	target, ok := m.Target()
	if !ok {
		return ErrNoTarget
	}

	if err := d.env.Validator.Struct(d.env.Locale, body); err != nil {
		return err
	}

	since := time.Now()
	_, err := mut.Run(ctx, resources.SessionCommand[R]{ClassSessionID: target.ID, Body: body})
	if err != nil {
		d.env.report(err)
		return err
	}

	d.finish(ctx, m, key, since)
	return nil
}

func (d *InstructorDashboard) ConfirmComplete(ctx context.Context, notes string) error {
	return confirm(ctx, d, &d.Complete, d.env.Families.Schedule.CompleteSession,
		apiclient.CompleteSessionRequest{Notes: notes}, "session.completed")
}

func (d *InstructorDashboard) ConfirmCancel(ctx context.Context, reason string) error {
	return confirm(ctx, d, &d.Cancel, d.env.Families.Schedule.CancelSession,
		apiclient.CancelSessionRequest{Reason: reason}, "session.cancelled")
}

func (d *InstructorDashboard) ConfirmReschedule(ctx context.Context, startsAt, endsAt time.Time) error {
	return confirm(ctx, d, &d.Reschedule, d.env.Families.Schedule.RescheduleSession,
		apiclient.RescheduleSessionRequest{StartsAt: startsAt, EndsAt: endsAt}, "session.rescheduled")
}

func (d *InstructorDashboard) ConfirmSubstitute(ctx context.Context, instructorID uuid.UUID, reason string) error {
	return confirm(ctx, d, &d.Substitute, d.env.Families.Schedule.AddSubstitution,
		apiclient.SubstitutionRequest{SubstituteInstructorID: instructorID, Reason: reason}, "session.substituted")
}

// RollCall loads the attendance of the session bound to the attendance
// modal.
func (d *InstructorDashboard) RollCall(ctx context.Context) (apiclient.SessionAttendance, error) {
	target, ok := d.Attendance.Target()
	if !ok {
		return apiclient.SessionAttendance{}, ErrNoTarget
	}

	st, err := d.env.Families.Attendance.SessionAttendance.Fetch(ctx, target.ID, false)
	if err != nil {
		d.env.report(err)
		return apiclient.SessionAttendance{}, fmt.Errorf("failed to load roll call: %w", err)
	}
	return st.Data, nil
}

// SubmitAttendance saves the marks of the attendance modal.
func (d *InstructorDashboard) SubmitAttendance(ctx context.Context, marks []apiclient.AttendanceMark) error {
	target, ok := d.Attendance.Target()
	if !ok {
		return ErrNoTarget
	}

	body := apiclient.SaveAttendanceRequest{Marks: marks}
	if err := d.env.Validator.Struct(d.env.Locale, body); err != nil {
		return err
	}

	cmd := resources.SessionCommand[apiclient.SaveAttendanceRequest]{ClassSessionID: target.ID, Body: body}
	since := time.Now()
	if _, err := d.env.Families.Attendance.SaveSessionAttendance.Run(ctx, cmd); err != nil {
		d.env.report(err)
		return err
	}

	d.finish(ctx, &d.Attendance, "attendance.saved", since)
	return nil
}

func (d *InstructorDashboard) Close() {
	d.upcoming.Unsubscribe()
	d.unfinished.Unsubscribe()
}
