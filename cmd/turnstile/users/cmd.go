package users

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"strings"

	"github.com/andrebq/turnstile/directory"
	"github.com/andrebq/turnstile/internal/cmdflags"
	"github.com/andrebq/turnstile/internal/logutil"
	"github.com/urfave/cli/v2"
)

func Cmd(settings *cmdflags.Settings) *cli.Command {
	var users *directory.Directory
	return &cli.Command{
		Name:  "users",
		Usage: "Manage the user directory",
		Flags: settings.Flags(),
		Before: func(ctx *cli.Context) error {
			cfg, err := settings.Config(ctx)
			if err != nil {
				return err
			}
			ctx.Context, err = cmdflags.Logger(ctx.Context, cfg)
			if err != nil {
				return err
			}
			users, err = directory.Open(ctx.Context, cfg.UsersDB)
			return err
		},
		After: func(ctx *cli.Context) error {
			if users == nil {
				return nil
			}
			return users.Close()
		},
		Subcommands: []*cli.Command{
			registerCmd(&users),
			showCmd(&users),
		},
	}
}

func registerCmd(users **directory.Directory) *cli.Command {
	var email string
	return &cli.Command{
		Name:  "register",
		Usage: "Register a new user (password is read from stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "email",
				Aliases:     []string{"e"},
				Usage:       "Email of the user to register",
				Destination: &email,
				Required:    true,
			},
		},
		Action: func(ctx *cli.Context) error {
			sc := bufio.NewScanner(os.Stdin)
			if !sc.Scan() {
				if sc.Err() != nil {
					return sc.Err()
				}
				return errors.New("missing password from stdin")
			}
			password := strings.TrimSpace(sc.Text())
			if len(password) == 0 {
				return errors.New("missing password from stdin")
			}
			u, err := directory.Register(ctx.Context, *users, email, password)
			if err != nil {
				return err
			}
			log := logutil.GetOrDefault(ctx.Context)
			log.Info().Int64("user_id", u.ID).Msg("User registered")
			return nil
		},
	}
}

func showCmd(users **directory.Directory) *cli.Command {
	var email string
	return &cli.Command{
		Name:  "show",
		Usage: "Print a user as json",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "email",
				Aliases:     []string{"e"},
				Usage:       "Email of the user",
				Destination: &email,
				Required:    true,
			},
		},
		Action: func(ctx *cli.Context) error {
			u, err := (*users).FindUserBy(ctx.Context, directory.Attrs{"email": email})
			if err != nil {
				return err
			}
			enc := json.NewEncoder(ctx.App.Writer)
			enc.SetIndent("", "  ")
			return enc.Encode(u)
		},
	}
}
