package screens

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aussiebroadwan/studio/internal/querycache"
	"github.com/aussiebroadwan/studio/internal/resources"
	"github.com/aussiebroadwan/studio/pkg/apiclient"
)

// StudentCalendar shows one week of the student's sessions next to the
// class catalogue and their enrollments.
type StudentCalendar struct {
	env *Env

	mu   sync.Mutex
	week time.Time

	sessions    *querycache.Subscription[apiclient.CalendarQuery, []apiclient.ClassSession]
	groups      *querycache.Subscription[apiclient.ClassGroupQuery, []apiclient.ClassGroup]
	enrollments *querycache.Subscription[resources.None, []apiclient.Enrollment]
}

// WeekStart returns the Monday of the week of t.
func WeekStart(t time.Time) time.Time {
	d := day(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

func weekQuery(start time.Time) apiclient.CalendarQuery {
	return apiclient.CalendarQuery{From: start, To: start.AddDate(0, 0, 6)}
}

func NewStudentCalendar(ctx context.Context, env *Env) (*StudentCalendar, error) {
	c := &StudentCalendar{env: env, week: WeekStart(env.now())}
	fam := env.Families

	var errs [3]error
	c.sessions, errs[0] = fam.Schedule.MyCalendar.Subscribe(ctx, weekQuery(c.week), querycache.Options{}, nil)
	c.groups, errs[1] = fam.Schedule.ClassGroups.Subscribe(ctx, apiclient.ClassGroupQuery{}, querycache.Options{}, nil)
	c.enrollments, errs[2] = fam.Enrollment.MyEnrollments.Subscribe(ctx, resources.None{}, querycache.Options{}, nil)

	err := errors.Join(errs[:]...)
	env.report(err)
	return c, err
}

// Week returns the Monday of the shown week.
func (c *StudentCalendar) Week() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.week
}

func (c *StudentCalendar) move(ctx context.Context, to time.Time) error {
	c.mu.Lock()
	c.week = to
	c.mu.Unlock()

	err := c.sessions.Update(ctx, weekQuery(to), querycache.Options{})
	c.env.report(err)
	return err
}

func (c *StudentCalendar) NextWeek(ctx context.Context) error {
	return c.move(ctx, c.Week().AddDate(0, 0, 7))
}

func (c *StudentCalendar) PrevWeek(ctx context.Context) error {
	return c.move(ctx, c.Week().AddDate(0, 0, -7))
}

func (c *StudentCalendar) ThisWeek(ctx context.Context) error {
	return c.move(ctx, WeekStart(c.env.now()))
}

func (c *StudentCalendar) Sessions() []apiclient.ClassSession { return c.sessions.State().Data }

func (c *StudentCalendar) Groups() []apiclient.ClassGroup { return c.groups.State().Data }

func (c *StudentCalendar) Enrollments() []apiclient.Enrollment { return c.enrollments.State().Data }

// EnrollmentFor returns the live enrollment in a group, if any.
func (c *StudentCalendar) EnrollmentFor(groupID uuid.UUID) (apiclient.Enrollment, bool) {
	for _, e := range c.Enrollments() {
		if e.ClassGroupID == groupID && e.Status != apiclient.EnrollmentCancelled {
			return e, true
		}
	}
	return apiclient.Enrollment{}, false
}

// Enroll joins a group. A full group puts the student on its waitlist,
// which the notification tells apart.
func (c *StudentCalendar) Enroll(ctx context.Context, groupID uuid.UUID) (apiclient.Enrollment, error) {
	e, err := c.env.Families.Enrollment.Enroll.Run(ctx, apiclient.EnrollRequest{ClassGroupID: groupID})
	if err != nil {
		c.env.report(err)
		return e, err
	}

	if e.Status == apiclient.EnrollmentWaitlisted {
		position := 0
		if e.WaitlistPosition != nil {
			position = *e.WaitlistPosition
		}
		c.env.Notify.Info("enrollment.waitlisted", e.ClassGroupName, position)
	} else {
		c.env.Notify.Success("enrollment.enrolled", e.ClassGroupName)
	}
	return e, nil
}

func (c *StudentCalendar) CancelEnrollment(ctx context.Context, enrollmentID uuid.UUID) error {
	e, err := c.env.Families.Enrollment.CancelEnrollment.Run(ctx, enrollmentID)
	if err != nil {
		c.env.report(err)
		return err
	}
	c.env.Notify.Success("enrollment.cancelled", e.ClassGroupName)
	return nil
}

func (c *StudentCalendar) Close() {
	c.sessions.Unsubscribe()
	c.groups.Unsubscribe()
	c.enrollments.Unsubscribe()
}
