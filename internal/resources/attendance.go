package resources

import (
	"context"

	"github.com/google/uuid"

	"github.com/aussiebroadwan/studio/internal/querycache"
	"github.com/aussiebroadwan/studio/pkg/apiclient"
)

// Attendance covers the student summary and the roll call of a session.
type Attendance struct {
	cache *querycache.Cache

	MyAttendance      *querycache.Query[None, apiclient.AttendanceSummary]
	SessionAttendance *querycache.Query[uuid.UUID, apiclient.SessionAttendance]

	SaveSessionAttendance *querycache.Mutation[SessionCommand[apiclient.SaveAttendanceRequest], apiclient.SessionAttendance]
}

func newAttendance(d *Deps, c *querycache.Cache) *Attendance {
	a := &Attendance{cache: c}

	a.MyAttendance = querycache.NewQuery(c, querycache.QueryDef[None, apiclient.AttendanceSummary]{
		Name: "getMyAttendance",
		Fetch: guard(d, deref(func(ctx context.Context, _ None) (*apiclient.AttendanceSummary, error) {
			return d.API.MyAttendance(ctx)
		})),
		Provides: provides[None, apiclient.AttendanceSummary](TagAttendance),
	})

	a.SessionAttendance = querycache.NewQuery(c, querycache.QueryDef[uuid.UUID, apiclient.SessionAttendance]{
		Name:  "getSessionAttendance",
		Fetch: guard(d, deref(d.API.SessionAttendance)),
		Provides: func(id uuid.UUID, _ apiclient.SessionAttendance) []querycache.Tag {
			return []querycache.Tag{querycache.IDTag(TagAttendance, id.String())}
		},
	})

	save := func(ctx context.Context, cmd SessionCommand[apiclient.SaveAttendanceRequest]) (*apiclient.SessionAttendance, error) {
		return d.API.SaveSessionAttendance(ctx, cmd.ClassSessionID, cmd.Body)
	}
	a.SaveSessionAttendance = querycache.NewMutation(c, querycache.MutationDef[SessionCommand[apiclient.SaveAttendanceRequest], apiclient.SessionAttendance]{
		Name: "saveSessionAttendance",
		Do:   guard(d, deref(save)),
		Invalidates: func(cmd SessionCommand[apiclient.SaveAttendanceRequest], _ apiclient.SessionAttendance) []querycache.Tag {
			return []querycache.Tag{querycache.IDTag(TagAttendance, cmd.ClassSessionID.String())}
		},
	})

	return a
}
