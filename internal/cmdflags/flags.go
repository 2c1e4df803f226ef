package cmdflags

import (
	"context"
	"os"

	"github.com/andrebq/turnstile/internal/config"
	"github.com/andrebq/turnstile/internal/logutil"
	"github.com/andrebq/turnstile/session"
	"github.com/urfave/cli/v2"
)

type (
	// Settings are the flags every command shares, they take precedence
	// over the config file and the environment.
	Settings struct {
		ConfigFile  string
		UsersDB     string
		SessionFile string
		RedisAddr   string
		LogLevel    string
		LogFormat   string
	}
)

func (s *Settings) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "Path to a yaml config file",
			EnvVars:     []string{"TURNSTILE_CONFIG"},
			Destination: &s.ConfigFile,
		},
		&cli.StringFlag{
			Name:        "users-db",
			Usage:       "Path to the sqlite database holding users",
			Destination: &s.UsersDB,
		},
		&cli.StringFlag{
			Name:        "session-file",
			Usage:       "Path to the file used to persist sessions",
			Destination: &s.SessionFile,
		},
		&cli.StringFlag{
			Name:        "redis-addr",
			Usage:       "Persist sessions in redis at the given address instead of a file",
			Destination: &s.RedisAddr,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "One of trace, debug, info, warn, error",
			Destination: &s.LogLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "json or console",
			Destination: &s.LogFormat,
		},
	}
}

// Config loads the config file, applies the environment and then
// whatever flags were set on ctx.
func (s *Settings) Config(ctx *cli.Context) (config.Config, error) {
	cfg, err := config.Load(s.ConfigFile)
	if err != nil {
		return cfg, err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return cfg, err
	}
	if ctx.IsSet("users-db") {
		cfg.UsersDB = s.UsersDB
	}
	if ctx.IsSet("session-file") {
		cfg.SessionStore.Path = s.SessionFile
	}
	if ctx.IsSet("redis-addr") {
		cfg.SessionStore.Kind = session.KindRedis
		cfg.SessionStore.Redis.Addr = s.RedisAddr
	}
	if ctx.IsSet("log-level") {
		cfg.Log.Level = s.LogLevel
	}
	if ctx.IsSet("log-format") {
		cfg.Log.Format = s.LogFormat
	}
	return cfg, nil
}

// Logger builds the logger described by cfg and attaches it to ctx
func Logger(ctx context.Context, cfg config.Config) (context.Context, error) {
	log, err := logutil.New(cfg.Log, os.Stderr)
	if err != nil {
		return ctx, err
	}
	return logutil.WithLogger(ctx, log), nil
}
