package resources

import (
	"context"

	"github.com/google/uuid"

	"github.com/aussiebroadwan/studio/internal/querycache"
	"github.com/aussiebroadwan/studio/pkg/apiclient"
)

// Enrollment is the student enrollment family. Its writes change the
// calendar and the group counts held by the schedule cache as well.
type Enrollment struct {
	cache *querycache.Cache

	MyEnrollments *querycache.Query[None, []apiclient.Enrollment]

	Enroll           *querycache.Mutation[apiclient.EnrollRequest, apiclient.Enrollment]
	CancelEnrollment *querycache.Mutation[uuid.UUID, apiclient.Enrollment]
}

func newEnrollment(d *Deps, c, schedule *querycache.Cache) *Enrollment {
	e := &Enrollment{cache: c}

	e.MyEnrollments = querycache.NewQuery(c, querycache.QueryDef[None, []apiclient.Enrollment]{
		Name: "getMyEnrollments",
		Fetch: guard(d, func(ctx context.Context, _ None) ([]apiclient.Enrollment, error) {
			return d.API.MyEnrollments(ctx)
		}),
		Provides: provides[None, []apiclient.Enrollment](TagEnrollments),
	})

	e.Enroll = querycache.NewMutation(c, querycache.MutationDef[apiclient.EnrollRequest, apiclient.Enrollment]{
		Name:        "enroll",
		Do:          guard(d, deref(d.API.Enroll)),
		Invalidates: invalidates[apiclient.EnrollRequest, apiclient.Enrollment](TagEnrollments, TagCalendar, TagClassGroups),
	}, schedule)

	e.CancelEnrollment = querycache.NewMutation(c, querycache.MutationDef[uuid.UUID, apiclient.Enrollment]{
		Name:        "cancelEnrollment",
		Do:          guard(d, deref(d.API.CancelEnrollment)),
		Invalidates: invalidates[uuid.UUID, apiclient.Enrollment](TagEnrollments, TagCalendar, TagClassGroups),
	}, schedule)

	return e
}
