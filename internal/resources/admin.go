package resources

import (
	"context"

	"github.com/google/uuid"

	"github.com/aussiebroadwan/studio/internal/querycache"
	"github.com/aussiebroadwan/studio/pkg/apiclient"
)

// UserPatch is the body of an administrator user update.
type UserPatch struct {
	UserID uuid.UUID
	Update apiclient.AdminUserUpdate
}

// Admin holds the administration lists.
type Admin struct {
	cache *querycache.Cache

	Users         *querycache.Query[apiclient.ListUsersParams, apiclient.Page[apiclient.User]]
	ClassSessions *querycache.Query[apiclient.ListClassSessionsParams, apiclient.Page[apiclient.ClassSession]]
	Students      *querycache.Query[None, []apiclient.Student]
	Payments      *querycache.Query[apiclient.ListPaymentsParams, apiclient.Page[apiclient.Payment]]

	UpdateUser    *querycache.Mutation[UserPatch, apiclient.User]
	DeleteUser    *querycache.Mutation[uuid.UUID, None]
	RecordPayment *querycache.Mutation[apiclient.RecordPaymentRequest, apiclient.Payment]
}

func newAdmin(d *Deps, c, auth, billing, schedule *querycache.Cache) *Admin {
	a := &Admin{cache: c}

	a.Users = querycache.NewQuery(c, querycache.QueryDef[apiclient.ListUsersParams, apiclient.Page[apiclient.User]]{
		Name:     "getUsers",
		Fetch:    guard(d, deref(d.API.ListUsers)),
		Provides: provides[apiclient.ListUsersParams, apiclient.Page[apiclient.User]](TagUsers),
	})
	a.ClassSessions = querycache.NewQuery(c, querycache.QueryDef[apiclient.ListClassSessionsParams, apiclient.Page[apiclient.ClassSession]]{
		Name:     "getClassSessions",
		Fetch:    guard(d, deref(d.API.ListClassSessions)),
		Provides: provides[apiclient.ListClassSessionsParams, apiclient.Page[apiclient.ClassSession]](TagClassSessions),
	})
	a.Students = querycache.NewQuery(c, querycache.QueryDef[None, []apiclient.Student]{
		Name: "getStudents",
		Fetch: guard(d, func(ctx context.Context, _ None) ([]apiclient.Student, error) {
			return d.API.ListStudents(ctx)
		}),
		Provides: provides[None, []apiclient.Student](TagStudents),
	})
	a.Payments = querycache.NewQuery(c, querycache.QueryDef[apiclient.ListPaymentsParams, apiclient.Page[apiclient.Payment]]{
		Name:     "getPayments",
		Fetch:    guard(d, deref(d.API.ListPayments)),
		Provides: provides[apiclient.ListPaymentsParams, apiclient.Page[apiclient.Payment]](TagPayments),
	})

	// Editing one's own account through the admin list refreshes the
	// current user too.
	a.UpdateUser = querycache.NewMutation(c, querycache.MutationDef[UserPatch, apiclient.User]{
		Name: "updateUser",
		Do: guard(d, deref(func(ctx context.Context, p UserPatch) (*apiclient.User, error) {
			return d.API.UpdateUser(ctx, p.UserID, p.Update)
		})),
		Invalidates: func(p UserPatch, _ apiclient.User) []querycache.Tag {
			tags := querycache.Tags(TagUsers, TagStudents, TagClassGroups)
			if p.UserID.String() == d.Session.Snapshot().UserID {
				tags = append(tags, querycache.TypeTag(TagUser))
			}
			return tags
		},
	}, auth, schedule)

	a.DeleteUser = querycache.NewMutation(c, querycache.MutationDef[uuid.UUID, None]{
		Name: "deleteUser",
		Do: guard(d, func(ctx context.Context, id uuid.UUID) (None, error) {
			return None{}, d.API.DeleteUser(ctx, id)
		}),
		Invalidates: invalidates[uuid.UUID, None](TagUsers, TagStudents),
	})

	a.RecordPayment = querycache.NewMutation(c, querycache.MutationDef[apiclient.RecordPaymentRequest, apiclient.Payment]{
		Name:        "recordPayment",
		Do:          guard(d, deref(d.API.RecordPayment)),
		Invalidates: invalidates[apiclient.RecordPaymentRequest, apiclient.Payment](TagPayments, TagBilling),
	}, billing)

	return a
}
