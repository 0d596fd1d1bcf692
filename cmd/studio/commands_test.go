package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/studio/internal/app"
	"github.com/aussiebroadwan/studio/internal/testkit/fakeapi"
	"github.com/aussiebroadwan/studio/pkg/apiclient"
	"github.com/aussiebroadwan/studio/pkg/slogx"
)

func newCLI(t *testing.T, srv *fakeapi.Server, in string) (*cli, *bytes.Buffer) {
	t.Helper()

	application, err := app.NewWithLogger(app.Config{
		APIURL:          srv.URL,
		APIPrefix:       apiclient.DefaultPrefix,
		DataFile:        filepath.Join(t.TempDir(), "studio.db"),
		Locale:          "en-US",
		CacheRetention:  time.Minute,
		CacheGCInterval: time.Minute,
	}, slogx.Discard())
	require.NoError(t, err)
	require.NoError(t, application.Boot(t.Context()))
	t.Cleanup(func() { require.NoError(t, application.Shutdown()) })

	out := &bytes.Buffer{}
	return &cli{app: application, out: out, in: strings.NewReader(in)}, out
}

// Commands share the package level password reader, so they run serially.
func TestCommands(t *testing.T) {
	orig := readPassword
	readPassword = func(int) ([]byte, error) { return []byte("password1"), nil }
	t.Cleanup(func() { readPassword = orig })

	srv := fakeapi.New(t)
	srv.AddUser(apiclient.User{Email: "stu@studio.test", FirstName: "Stu", IsVerified: true}, "password1")
	group := srv.AddClassGroup(apiclient.ClassGroup{Name: "Salsa"})
	srv.AddClassSession(apiclient.ClassSession{
		ClassGroupID: group.ID,
		StartsAt:     time.Now().Add(time.Hour),
		EndsAt:       time.Now().Add(2 * time.Hour),
	})

	c, out := newCLI(t, srv, "stu@studio.test\n")
	ctx := t.Context()

	t.Run("guest", func(t *testing.T) {
		out.Reset()
		require.NoError(t, whoamiCmd(ctx, c, nil))
		require.Equal(t, "guest\n", out.String())

		out.Reset()
		require.NoError(t, openCmd(ctx, c, []string{"/billing"}))
		require.Equal(t, "redirect /login\n", out.String())

		require.Error(t, calendarCmd(ctx, c, nil))
	})

	t.Run("login", func(t *testing.T) {
		out.Reset()
		require.NoError(t, loginCmd(ctx, c, nil))

		out.Reset()
		require.NoError(t, whoamiCmd(ctx, c, nil))
		require.Equal(t, "stu@studio.test\nrole: student\n", out.String())
	})

	t.Run("open", func(t *testing.T) {
		out.Reset()
		require.NoError(t, openCmd(ctx, c, []string{"/admin"}))
		require.Equal(t, "redirect /account\n", out.String())

		out.Reset()
		require.NoError(t, openCmd(ctx, c, []string{"/calendar"}))
		require.True(t, strings.HasPrefix(out.String(), "render "))

		require.Error(t, openCmd(ctx, c, nil))
	})

	t.Run("calendar", func(t *testing.T) {
		out.Reset()
		require.NoError(t, calendarCmd(ctx, c, []string{"-weeks", "1"}))
		require.Contains(t, out.String(), "no sessions")
	})

	t.Run("consent", func(t *testing.T) {
		out.Reset()
		require.NoError(t, consentCmd(ctx, c, nil))
		require.Equal(t, "cookie notice accepted: false\n", out.String())

		require.NoError(t, consentCmd(ctx, c, []string{"accept"}))
		require.Error(t, consentCmd(ctx, c, []string{"maybe"}))

		out.Reset()
		require.NoError(t, consentCmd(ctx, c, nil))
		require.Equal(t, "cookie notice accepted: true\n", out.String())
	})

	t.Run("logout", func(t *testing.T) {
		require.NoError(t, logoutCmd(ctx, c, nil))
		require.True(t, c.app.Session.Snapshot().IsGuest())

		out.Reset()
		printNotifications(c.app, out)
		require.Contains(t, out.String(), "[info]")
		require.Contains(t, out.String(), "[success]")
	})
}
