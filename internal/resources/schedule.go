package resources

import (
	"context"

	"github.com/google/uuid"

	"github.com/aussiebroadwan/studio/internal/querycache"
	"github.com/aussiebroadwan/studio/pkg/apiclient"
)

// SessionCommand is the body of the instructor session actions.
type SessionCommand[R any] struct {
	ClassSessionID uuid.UUID
	Body           R
}

// Schedule is the class catalogue and calendar family.
type Schedule struct {
	cache *querycache.Cache

	ClassGroups        *querycache.Query[apiclient.ClassGroupQuery, []apiclient.ClassGroup]
	MyCalendar         *querycache.Query[apiclient.CalendarQuery, []apiclient.ClassSession]
	InstructorCalendar *querycache.Query[apiclient.CalendarQuery, []apiclient.ClassSession]

	CompleteSession   *querycache.Mutation[SessionCommand[apiclient.CompleteSessionRequest], apiclient.ClassSession]
	CancelSession     *querycache.Mutation[SessionCommand[apiclient.CancelSessionRequest], apiclient.ClassSession]
	RescheduleSession *querycache.Mutation[SessionCommand[apiclient.RescheduleSessionRequest], apiclient.ClassSession]
	AddSubstitution   *querycache.Mutation[SessionCommand[apiclient.SubstitutionRequest], apiclient.ClassSession]
}

// newSchedule builds the family. Session actions also invalidate the admin
// sessions list and the attendance of the session.
func newSchedule(d *Deps, c, admin, attendance *querycache.Cache) *Schedule {
	s := &Schedule{cache: c}

	s.ClassGroups = querycache.NewQuery(c, querycache.QueryDef[apiclient.ClassGroupQuery, []apiclient.ClassGroup]{
		Name:     "getClassGroups",
		Fetch:    guard(d, d.API.ClassGroups),
		Provides: provides[apiclient.ClassGroupQuery, []apiclient.ClassGroup](TagClassGroups),
	})
	s.MyCalendar = querycache.NewQuery(c, querycache.QueryDef[apiclient.CalendarQuery, []apiclient.ClassSession]{
		Name:     "getMyCalendar",
		Fetch:    guard(d, d.API.MyCalendar),
		Provides: provides[apiclient.CalendarQuery, []apiclient.ClassSession](TagCalendar),
	})
	s.InstructorCalendar = querycache.NewQuery(c, querycache.QueryDef[apiclient.CalendarQuery, []apiclient.ClassSession]{
		Name:     "getInstructorCalendar",
		Fetch:    guard(d, d.API.InstructorCalendar),
		Provides: provides[apiclient.CalendarQuery, []apiclient.ClassSession](TagCalendar),
	})

	s.CompleteSession = sessionMutation(d, c, "completeSession", d.API.CompleteSession, admin, attendance)
	s.CancelSession = sessionMutation(d, c, "cancelSession", d.API.CancelSession, admin, attendance)
	s.RescheduleSession = sessionMutation(d, c, "rescheduleSession", d.API.RescheduleSession, admin, attendance)
	s.AddSubstitution = sessionMutation(d, c, "addSubstitution", d.API.AddSubstitution, admin, attendance)

	return s
}

func sessionMutation[R any](
	d *Deps,
	c *querycache.Cache,
	name string,
	call func(context.Context, uuid.UUID, R) (*apiclient.ClassSession, error),
	also ...*querycache.Cache,
) *querycache.Mutation[SessionCommand[R], apiclient.ClassSession] {
	do := func(ctx context.Context, cmd SessionCommand[R]) (*apiclient.ClassSession, error) {
		return call(ctx, cmd.ClassSessionID, cmd.Body)
	}

	return querycache.NewMutation(c, querycache.MutationDef[SessionCommand[R], apiclient.ClassSession]{
		Name: name,
		Do:   guard(d, deref(do)),
		Invalidates: func(cmd SessionCommand[R], _ apiclient.ClassSession) []querycache.Tag {
			return []querycache.Tag{
				querycache.TypeTag(TagCalendar),
				querycache.TypeTag(TagClassSessions),
				querycache.IDTag(TagAttendance, cmd.ClassSessionID.String()),
			}
		},
	}, also...)
}
