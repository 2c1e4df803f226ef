package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/andrebq/turnstile/cmd/turnstile/serve"
	"github.com/andrebq/turnstile/cmd/turnstile/sessions"
	"github.com/andrebq/turnstile/cmd/turnstile/users"
	"github.com/andrebq/turnstile/internal/cmdflags"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func main() {
	var settings cmdflags.Settings
	app := &cli.App{
		Name:  "turnstile",
		Usage: "Session authentication in front of your api",
		Commands: []*cli.Command{
			serve.Cmd(&settings),
			users.Cmd(&settings),
			sessions.Cmd(&settings),
		},
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	err := app.RunContext(ctx, os.Args)
	if err != nil {
		log.Error().Err(err).Msg("Application failed")
		os.Exit(1)
	}
}
