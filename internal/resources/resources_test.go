package resources_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/studio/internal/querycache"
	"github.com/aussiebroadwan/studio/internal/resources"
	"github.com/aussiebroadwan/studio/internal/session"
	"github.com/aussiebroadwan/studio/internal/testkit/fakeapi"
	"github.com/aussiebroadwan/studio/pkg/apiclient"
	"github.com/aussiebroadwan/studio/pkg/slogx"
)

var now = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type harness struct {
	srv  *fakeapi.Server
	sess *session.Store
	fam  *resources.Families
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	srv := fakeapi.New(t)
	api, err := apiclient.New(srv.URL)
	require.NoError(t, err)

	sess := session.New(nil, slogx.Discard())
	require.NoError(t, sess.Rehydrate(t.Context()))

	fam := resources.New(resources.Deps{
		API:     api,
		Session: sess,
		Logger:  slogx.Discard(),
		Now:     func() time.Time { return now },
	})
	t.Cleanup(fam.Close)

	return &harness{srv: srv, sess: sess, fam: fam}
}

func (h *harness) signIn(t *testing.T, role apiclient.Role) apiclient.User {
	t.Helper()

	u := h.srv.AddUser(apiclient.User{
		Email:      string(role) + "@studio.test",
		FirstName:  "Sam",
		LastName:   "Rivera",
		Role:       role,
		IsVerified: true,
	}, "password1")

	_, err := h.fam.Auth.Login.Run(t.Context(), apiclient.LoginRequest{Username: u.Email, Password: "password1"})
	require.NoError(t, err)
	return u
}

func TestLoginStoresCredentials(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	u := h.signIn(t, apiclient.RoleStudent)

	rec := h.sess.Snapshot()
	require.True(t, rec.IsAuthenticated())
	require.Equal(t, u.ID.String(), rec.UserID)
	require.Equal(t, u.Email, rec.Email)

	state := h.fam.Auth.CurrentUser.Select(resources.None{})
	require.True(t, state.IsSuccess())
	require.Equal(t, apiclient.RoleStudent, state.Data.Role)
	require.Equal(t, querycache.Fulfilled, h.fam.Auth.Login.State().Status)
}

func TestLoginFailureKeepsGuest(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	_, err := h.fam.Auth.Login.Run(t.Context(), apiclient.LoginRequest{Username: "nobody@studio.test", Password: "password1"})
	require.Equal(t, apiclient.CodeLoginBadCredentials, apiclient.Code(err))
	require.True(t, h.sess.Snapshot().IsGuest())
	require.Equal(t, querycache.Rejected, h.fam.Auth.Login.State().Status)
}

func TestRegisterAndVerify(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := t.Context()

	_, err := h.fam.Auth.Register.Run(ctx, apiclient.RegisterRequest{
		Email:     "new@studio.test",
		Password:  "password1",
		FirstName: "Noa",
		LastName:  "Kim",
	})
	require.NoError(t, err)
	require.True(t, h.sess.Snapshot().IsNotVerified())

	_, err = h.fam.Auth.RequestVerifyToken.Run(ctx, apiclient.EmailRequest{Email: "new@studio.test"})
	require.NoError(t, err)
	at := h.sess.Snapshot().ResendVerificationRequestedAt
	require.NotNil(t, at)
	require.True(t, at.Equal(now))

	_, err = h.fam.Auth.Verify.Run(ctx, apiclient.VerifyRequest{Token: h.srv.VerifyToken("new@studio.test")})
	require.NoError(t, err)

	// The user signs in again after verifying; the cooldown survives.
	rec := h.sess.Snapshot()
	require.True(t, rec.IsGuest())
	require.NotNil(t, rec.ResendVerificationRequestedAt)
}

func TestForgotPasswordRecordsRequest(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.srv.AddUser(apiclient.User{Email: "sam@studio.test", IsVerified: true}, "password1")

	_, err := h.fam.Auth.ForgotPassword.Run(t.Context(), apiclient.EmailRequest{Email: "sam@studio.test"})
	require.NoError(t, err)
	at := h.sess.Snapshot().ForgotPasswordRequestedAt
	require.NotNil(t, at)
	require.True(t, at.Equal(now))

	_, err = h.fam.Auth.ResetPassword.Run(t.Context(), apiclient.ResetPasswordRequest{
		Token:    h.srv.ResetToken("sam@studio.test"),
		Password: "password2",
	})
	require.NoError(t, err)

	_, err = h.fam.Auth.Login.Run(t.Context(), apiclient.LoginRequest{Username: "sam@studio.test", Password: "password2"})
	require.NoError(t, err)
}

func TestCurrentUserUnauthorizedIsExpected(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	require.NoError(t, h.sess.SetCredentials(t.Context(), session.Credentials{UserID: "stale", Email: "x@studio.test", IsVerified: true}))

	state, err := h.fam.Auth.CurrentUser.Fetch(t.Context(), resources.None{}, false)
	require.Error(t, err)
	require.True(t, apiclient.IsUnauthorized(err))
	require.True(t, querycache.IsExpected(err))
	require.True(t, state.IsError())
	require.True(t, h.sess.Snapshot().IsGuest())
}

func TestQueryUnauthorizedClearsCredentials(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.signIn(t, apiclient.RoleStudent)
	h.srv.ExpireSessions()

	_, err := h.fam.Billing.Summary.Fetch(t.Context(), resources.None{}, false)
	require.True(t, apiclient.IsUnauthorized(err))
	require.False(t, querycache.IsExpected(err))
	require.True(t, h.sess.Snapshot().IsGuest())
}

func TestLogoutResetsData(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.signIn(t, apiclient.RoleStudent)

	state, err := h.fam.Enrollment.MyEnrollments.Fetch(t.Context(), resources.None{}, false)
	require.NoError(t, err)
	require.True(t, state.IsSuccess())

	_, err = h.fam.Auth.Logout.Run(t.Context(), resources.None{})
	require.NoError(t, err)

	require.True(t, h.sess.Snapshot().IsGuest())
	require.Equal(t, querycache.Uninitialized, h.fam.Enrollment.MyEnrollments.Select(resources.None{}).Status)
	require.Equal(t, querycache.Uninitialized, h.fam.Auth.CurrentUser.Select(resources.None{}).Status)
}

func TestLogoutWithExpiredSession(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.signIn(t, apiclient.RoleStudent)
	h.srv.ExpireSessions()

	_, err := h.fam.Auth.Logout.Run(t.Context(), resources.None{})
	require.NoError(t, err)
	require.True(t, h.sess.Snapshot().IsGuest())
}

func TestEnrollRefreshesCalendar(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.signIn(t, apiclient.RoleStudent)
	ctx := t.Context()

	group := h.srv.AddClassGroup(apiclient.ClassGroup{Name: "Salsa I", Capacity: 10})
	h.srv.AddClassSession(apiclient.ClassSession{
		ClassGroupID: group.ID,
		StartsAt:     now.Add(24 * time.Hour),
		EndsAt:       now.Add(25 * time.Hour),
	})

	week := apiclient.CalendarQuery{From: now, To: now.AddDate(0, 0, 7)}
	cal, err := h.fam.Schedule.MyCalendar.Subscribe(ctx, week, querycache.Options{}, nil)
	require.NoError(t, err)
	defer cal.Unsubscribe()
	require.Empty(t, cal.State().Data)

	enrollment, err := h.fam.Enrollment.Enroll.Run(ctx, apiclient.EnrollRequest{ClassGroupID: group.ID})
	require.NoError(t, err)
	require.Equal(t, apiclient.EnrollmentActive, enrollment.Status)

	// The observed calendar was refetched before Run returned.
	require.Len(t, cal.State().Data, 1)
	require.Equal(t, 2, h.srv.Calls(http.MethodGet, "/v1/me/calendar"))

	_, err = h.fam.Enrollment.CancelEnrollment.Run(ctx, enrollment.ID)
	require.NoError(t, err)
	require.Empty(t, cal.State().Data)
}

func TestSwitchingUsersDropsCachedData(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := t.Context()

	alice := h.srv.AddUser(apiclient.User{Email: "alice@studio.test", IsVerified: true}, "password1")
	bob := h.srv.AddUser(apiclient.User{Email: "bob@studio.test", IsVerified: true}, "password1")
	group := h.srv.AddClassGroup(apiclient.ClassGroup{Name: "Salsa I", Capacity: 10})

	login := func(u apiclient.User) {
		t.Helper()
		_, err := h.fam.Auth.Login.Run(ctx, apiclient.LoginRequest{Username: u.Email, Password: "password1"})
		require.NoError(t, err)
		require.Equal(t, u.ID.String(), h.sess.Snapshot().UserID)
	}

	login(alice)
	_, err := h.fam.Enrollment.Enroll.Run(ctx, apiclient.EnrollRequest{ClassGroupID: group.ID})
	require.NoError(t, err)

	st, err := h.fam.Enrollment.MyEnrollments.Fetch(ctx, resources.None{}, false)
	require.NoError(t, err)
	require.Len(t, st.Data, 1)

	// Refreshing the same user keeps the cache.
	_, err = h.fam.Auth.CurrentUser.Fetch(ctx, resources.None{}, true)
	require.NoError(t, err)
	require.Len(t, h.fam.Enrollment.MyEnrollments.Select(resources.None{}).Data, 1)

	// Signing in as someone else without signing out first.
	login(bob)
	require.False(t, h.fam.Enrollment.MyEnrollments.Select(resources.None{}).HasData)

	st, err = h.fam.Enrollment.MyEnrollments.Fetch(ctx, resources.None{}, false)
	require.NoError(t, err)
	require.Empty(t, st.Data)
}

func TestEnrollFailureKeepsCache(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.signIn(t, apiclient.RoleStudent)
	ctx := t.Context()

	enrollments, err := h.fam.Enrollment.MyEnrollments.Subscribe(ctx, resources.None{}, querycache.Options{}, nil)
	require.NoError(t, err)
	defer enrollments.Unsubscribe()

	_, err = h.fam.Enrollment.Enroll.Run(ctx, apiclient.EnrollRequest{ClassGroupID: h.srv.AddClassGroup(apiclient.ClassGroup{Name: "x"}).ID})
	require.NoError(t, err)

	_, err = h.fam.Enrollment.Enroll.Run(ctx, apiclient.EnrollRequest{ClassGroupID: enrollments.State().Data[0].ClassGroupID})
	require.Equal(t, apiclient.CodeAlreadyEnrolled, apiclient.Code(err))
	require.Equal(t, 2, h.srv.Calls(http.MethodGet, "/v1/me/enrollments"))
}

func TestSessionActionRefreshesInstructorCalendar(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	instructor := h.signIn(t, apiclient.RoleInstructor)
	ctx := t.Context()

	group := h.srv.AddClassGroup(apiclient.ClassGroup{Name: "Tango", InstructorID: instructor.ID})
	cs := h.srv.AddClassSession(apiclient.ClassSession{
		ClassGroupID: group.ID,
		InstructorID: instructor.ID,
		StartsAt:     now.Add(2 * time.Hour),
		EndsAt:       now.Add(3 * time.Hour),
	})

	window := apiclient.CalendarQuery{From: now, To: now.AddDate(0, 0, 7)}
	cal, err := h.fam.Schedule.InstructorCalendar.Subscribe(ctx, window, querycache.Options{}, nil)
	require.NoError(t, err)
	defer cal.Unsubscribe()
	require.Len(t, cal.State().Data, 1)
	require.Equal(t, apiclient.SessionScheduled, cal.State().Data[0].Status)

	_, err = h.fam.Schedule.CompleteSession.Run(ctx, resources.SessionCommand[apiclient.CompleteSessionRequest]{
		ClassSessionID: cs.ID,
		Body:           apiclient.CompleteSessionRequest{Notes: "good class"},
	})
	require.NoError(t, err)
	require.Equal(t, apiclient.SessionCompleted, cal.State().Data[0].Status)

	_, err = h.fam.Schedule.CancelSession.Run(ctx, resources.SessionCommand[apiclient.CancelSessionRequest]{
		ClassSessionID: cs.ID,
		Body:           apiclient.CancelSessionRequest{Reason: "flood"},
	})
	require.Equal(t, apiclient.CodeSessionAlreadyCompleted, apiclient.Code(err))
	require.Equal(t, querycache.Rejected, h.fam.Schedule.CancelSession.State().Status)
}

func TestAdminUpdatingSelfRefreshesCurrentUser(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	admin := h.signIn(t, apiclient.RoleAdmin)
	ctx := t.Context()

	me, err := h.fam.Auth.CurrentUser.Subscribe(ctx, resources.None{}, h.fam.Auth.UserOptions(), nil)
	require.NoError(t, err)
	defer me.Unsubscribe()

	users, err := h.fam.Admin.Users.Subscribe(ctx, apiclient.ListUsersParams{Page: 1, PageSize: 10}, querycache.Options{}, nil)
	require.NoError(t, err)
	defer users.Unsubscribe()
	require.Equal(t, 1, users.State().Data.Total)

	name := "Alex"
	_, err = h.fam.Admin.UpdateUser.Run(ctx, resources.UserPatch{
		UserID: admin.ID,
		Update: apiclient.AdminUserUpdate{FirstName: &name},
	})
	require.NoError(t, err)

	require.Equal(t, "Alex", me.State().Data.FirstName)
	require.Equal(t, "Alex", users.State().Data.Items[0].FirstName)
}

func TestSkippedUserQueryForGuests(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	require.True(t, h.fam.Auth.UserOptions().Skip)

	sub, err := h.fam.Auth.CurrentUser.Subscribe(t.Context(), resources.None{}, h.fam.Auth.UserOptions(), nil)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	require.Equal(t, querycache.Uninitialized, sub.State().Status)
	require.Zero(t, h.srv.Calls(http.MethodGet, "/v1/users/me"))
	require.ErrorIs(t, sub.Refetch(t.Context()), querycache.ErrSkipped)
}
