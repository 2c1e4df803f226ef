package sessions

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/andrebq/turnstile/internal/cmdflags"
	"github.com/andrebq/turnstile/internal/logutil"
	"github.com/andrebq/turnstile/session"
	"github.com/urfave/cli/v2"
)

// Cmd manages the persisted session store, the one used by session_db_auth.
// In-memory stores only live inside a running server.
func Cmd(settings *cmdflags.Settings) *cli.Command {
	var policy *session.Policy
	return &cli.Command{
		Name:  "sessions",
		Usage: "Inspect and clean the persisted session store",
		Flags: settings.Flags(),
		Before: func(ctx *cli.Context) error {
			cfg, err := settings.Config(ctx)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			ctx.Context, err = cmdflags.Logger(ctx.Context, cfg)
			if err != nil {
				return err
			}
			store, err := session.OpenStore(ctx.Context, cfg.SessionStore, nil)
			if err != nil {
				return err
			}
			policy = session.NewPolicy(store, session.Seconds(cfg.SessionDuration), nil)
			return nil
		},
		After: func(ctx *cli.Context) error {
			if policy == nil {
				return nil
			}
			return session.Close(policy.Store())
		},
		Subcommands: []*cli.Command{
			listCmd(&policy),
			sweepCmd(&policy),
			destroyCmd(&policy),
		},
	}
}

type listEntry struct {
	session.Record
	Expired bool `json:"expired"`
}

func listCmd(policy **session.Policy) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "Print every session as a json line",
		Action: func(ctx *cli.Context) error {
			p := *policy
			lister, ok := p.Store().(session.Lister)
			if !ok {
				return errors.New("session store cannot list its records")
			}
			records, err := lister.Records(ctx.Context)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(ctx.App.Writer)
			for _, r := range records {
				if err := enc.Encode(listEntry{Record: r, Expired: p.Expired(r)}); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func sweepCmd(policy **session.Policy) *cli.Command {
	return &cli.Command{
		Name:  "sweep",
		Usage: "Remove expired sessions, does nothing when sessions never expire",
		Action: func(ctx *cli.Context) error {
			n, err := (*policy).Sweep(ctx.Context)
			if err != nil {
				return err
			}
			log := logutil.GetOrDefault(ctx.Context)
			log.Info().Int("removed", n).Msg("Sweep completed")
			return nil
		},
	}
}

func destroyCmd(policy **session.Policy) *cli.Command {
	var id string
	return &cli.Command{
		Name:  "destroy",
		Usage: "Remove a single session",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "id",
				Usage:       "Session id",
				Destination: &id,
				Required:    true,
			},
		},
		Action: func(ctx *cli.Context) error {
			removed, err := (*policy).Destroy(ctx.Context, id)
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("session %v not found", id)
			}
			return nil
		},
	}
}
