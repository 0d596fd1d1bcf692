package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/aussiebroadwan/studio/internal/app"
	"github.com/aussiebroadwan/studio/internal/nav"
	"github.com/aussiebroadwan/studio/internal/screens"
)

// readPassword is replaced in tests.
var readPassword = term.ReadPassword

type cli struct {
	app *app.Application
	out io.Writer
	in  io.Reader
}

type command func(ctx context.Context, c *cli, args []string) error

var commands = map[string]command{
	"login":    loginCmd,
	"logout":   logoutCmd,
	"whoami":   whoamiCmd,
	"open":     openCmd,
	"calendar": calendarCmd,
	"consent":  consentCmd,
}

func loginCmd(ctx context.Context, c *cli, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" {
		fmt.Fprint(c.out, "Email: ")
		line, err := bufio.NewReader(c.in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		*email = strings.TrimSpace(line)
	}

	fmt.Fprint(c.out, "Password: ")
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(c.out)
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	_, err = c.app.AuthFlows().Login(ctx, *email, string(pw))
	return err
}

func logoutCmd(ctx context.Context, c *cli, _ []string) error {
	if c.app.Session.Snapshot().IsGuest() {
		fmt.Fprintln(c.out, "not signed in")
		return nil
	}
	return c.app.AuthFlows().Logout(ctx)
}

func whoamiCmd(_ context.Context, c *cli, _ []string) error {
	rec := c.app.Session.Snapshot()
	caps := c.app.Capabilities()

	switch {
	case rec.IsGuest():
		fmt.Fprintln(c.out, "guest")
		return nil
	case rec.IsNotVerified():
		fmt.Fprintf(c.out, "%s (not verified)\n", rec.Email)
		return nil
	}

	role := "unknown"
	if caps.RoleKnown {
		role = string(caps.Role)
	}
	fmt.Fprintf(c.out, "%s\nrole: %s\n", rec.Email, role)
	return nil
}

func openCmd(_ context.Context, c *cli, args []string) error {
	if len(args) != 1 {
		return errors.New("expected one path")
	}

	d := c.app.Resolve(args[0])
	switch d.Kind {
	case nav.Redirect:
		fmt.Fprintf(c.out, "redirect %s\n", d.To)
	case nav.Render:
		fmt.Fprintf(c.out, "render %s", d.Route)
		for _, k := range slices.Sorted(maps.Keys(d.Params)) {
			fmt.Fprintf(c.out, " %s=%s", k, d.Params[k])
		}
		fmt.Fprintln(c.out)
	default:
		fmt.Fprintln(c.out, d.Kind)
	}
	return nil
}

func calendarCmd(ctx context.Context, c *cli, args []string) error {
	fs := flag.NewFlagSet("calendar", flag.ContinueOnError)
	weeks := fs.Int("weeks", 0, "weeks from the current one")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if d := c.app.Resolve("/calendar"); d.Kind != nav.Render {
		return fmt.Errorf("calendar is not available (%s %s)", d.Kind, d.To)
	}

	cal, err := screens.NewStudentCalendar(ctx, c.app.Env())
	if err != nil {
		return err
	}
	defer cal.Close()

	for i := 0; i < *weeks; i++ {
		if err := cal.NextWeek(ctx); err != nil {
			return err
		}
	}
	for i := 0; i > *weeks; i-- {
		if err := cal.PrevWeek(ctx); err != nil {
			return err
		}
	}

	fmt.Fprintf(c.out, "week of %s\n", cal.Week().Format(time.DateOnly))
	sessions := cal.Sessions()
	if len(sessions) == 0 {
		fmt.Fprintln(c.out, "no sessions")
	}
	for _, s := range sessions {
		fmt.Fprintf(c.out, "%s  %-24s %s\n", s.StartsAt.Local().Format("Mon 15:04"), s.ClassGroupName, s.Status)
	}
	return nil
}

func consentCmd(ctx context.Context, c *cli, args []string) error {
	if len(args) > 0 {
		if args[0] != "accept" {
			return fmt.Errorf("unknown argument %q", args[0])
		}
		if err := c.app.Consent.Accept(ctx); err != nil {
			return err
		}
		c.app.Notify.Success("consent.accepted")
		return nil
	}

	accepted, err := c.app.Consent.Accepted(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "cookie notice accepted: %t\n", accepted)
	return nil
}

func printNotifications(application *app.Application, w io.Writer) {
	for _, n := range application.Notify.Active(time.Now()) {
		fmt.Fprintf(w, "[%s] %s\n", n.Level, n.Text)
	}
}
