package serve

import (
	"fmt"
	"net/url"

	"github.com/andrebq/turnstile/api"
	"github.com/andrebq/turnstile/directory"
	"github.com/andrebq/turnstile/gate"
	"github.com/andrebq/turnstile/internal/cmdflags"
	"github.com/andrebq/turnstile/internal/httpserver"
	"github.com/andrebq/turnstile/internal/logutil"
	"github.com/andrebq/turnstile/session"
	"github.com/urfave/cli/v2"
)

func Cmd(settings *cmdflags.Settings) *cli.Command {
	var bind, authType, sessionName, upstream string
	var sessionDuration int
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the http api, optionally gating an upstream service",
		Flags: append(settings.Flags(),
			&cli.StringFlag{
				Name:        "bind",
				Usage:       "Address to listen for incoming requests",
				Destination: &bind,
			},
			&cli.StringFlag{
				Name:        "auth-type",
				Usage:       "One of auth, basic_auth, session_auth, session_exp_auth, session_db_auth",
				Destination: &authType,
			},
			&cli.StringFlag{
				Name:        "session-name",
				Usage:       "Name of the session cookie",
				Destination: &sessionName,
			},
			&cli.IntFlag{
				Name:        "session-duration",
				Usage:       "Session lifetime in seconds, 0 or less means sessions never expire",
				Destination: &sessionDuration,
			},
			&cli.StringFlag{
				Name:        "upstream",
				Usage:       "Base url of the service that receives requests not handled by turnstile",
				Destination: &upstream,
			},
		),
		Action: func(ctx *cli.Context) error {
			cfg, err := settings.Config(ctx)
			if err != nil {
				return err
			}
			if ctx.IsSet("bind") {
				cfg.Bind = bind
			}
			if ctx.IsSet("auth-type") {
				cfg.AuthType = authType
			}
			if ctx.IsSet("session-name") {
				cfg.SessionName = sessionName
			}
			if ctx.IsSet("session-duration") {
				cfg.SessionDuration = sessionDuration
			}
			if ctx.IsSet("upstream") {
				cfg.Upstream = upstream
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			appCtx, err := cmdflags.Logger(ctx.Context, cfg)
			if err != nil {
				return err
			}
			log := logutil.GetOrDefault(appCtx)

			var target *url.URL
			if cfg.Upstream != "" {
				target, err = url.Parse(cfg.Upstream)
				if err != nil {
					return fmt.Errorf("invalid upstream %q, cause %w", cfg.Upstream, err)
				}
			}

			kind, _ := gate.ParseKind(cfg.AuthType)
			users, err := directory.Open(appCtx, cfg.UsersDB)
			if err != nil {
				return err
			}
			defer users.Close()

			policy, err := gate.OpenPolicy(appCtx, kind, cfg.SessionStore, cfg.SessionDuration)
			if err != nil {
				return err
			}
			if policy != nil {
				defer session.Close(policy.Store())
			}

			g, err := gate.New(gate.Options{
				Kind:          kind,
				ExcludedPaths: cfg.ExcludedPaths,
				CookieName:    cfg.SessionName,
				SecureCookie:  cfg.SecureCookie,
				Users:         users,
				Sessions:      policy,
			})
			if err != nil {
				return err
			}
			handler, err := api.AsHandler(appCtx, api.Deps{Gate: g, Users: users, Upstream: target})
			if err != nil {
				return err
			}
			log.Info().
				Str("auth_type", string(kind)).
				Str("bind", cfg.Bind).
				Dur("session_duration", session.Seconds(cfg.SessionDuration)).
				Msg("Starting turnstile")
			return httpserver.Serve(appCtx, cfg.Bind, handler)
		},
	}
}
