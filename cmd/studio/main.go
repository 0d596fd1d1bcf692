package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aussiebroadwan/studio/internal/app"
)

const usage = `usage: studio <command> [args]

commands:
  login [-email addr]   sign in (password is read from the terminal)
  logout                sign out
  whoami                show the session and capabilities
  open <path>           resolve a route through the navigation gate
  calendar [-weeks n]   list the student sessions of a week
  consent [accept]      show or accept the cookie notice
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, application, os.Args[1], os.Args[2:])
	stop()

	if err := application.Shutdown(); err != nil {
		log.Printf("shutdown error: %v", err)
	}
	os.Exit(code)
}

func run(ctx context.Context, application *app.Application, name string, args []string) int {
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", name, usage)
		return 2
	}

	if err := application.Boot(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "boot failed: %v\n", err)
		return 1
	}

	err := cmd(ctx, &cli{app: application, out: os.Stdout, in: os.Stdin}, args)
	printNotifications(application, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
		return 1
	}
	return 0
}
