// Package config holds the settings turnstile is started with.
//
// Values come from defaults, then an optional yaml file, then the
// environment. Command line flags are applied on top by the cli.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/andrebq/turnstile/gate"
	"github.com/andrebq/turnstile/internal/logutil"
	"github.com/andrebq/turnstile/session"
	"gopkg.in/yaml.v3"
)

const (
	AuthTypeEnvVar        = "AUTH_TYPE"
	SessionNameEnvVar     = "SESSION_NAME"
	SessionDurationEnvVar = "SESSION_DURATION"
	HostEnvVar            = "API_HOST"
	PortEnvVar            = "API_PORT"
	SessionFileEnvVar     = "TURNSTILE_SESSION_FILE"
	UsersDBEnvVar         = "TURNSTILE_USERS_DB"
	RedisAddrEnvVar       = "TURNSTILE_REDIS_ADDR"

	DefaultHost        = "0.0.0.0"
	DefaultPort        = "5000"
	DefaultSessionName = "_my_session_id"
	DefaultSessionFile = ".db_UserSession.json"
	DefaultUsersDB     = "users.db"
)

type (
	Config struct {
		Bind            string               `yaml:"bind"`
		AuthType        string               `yaml:"auth_type"`
		SessionName     string               `yaml:"session_name"`
		SessionDuration int                  `yaml:"session_duration"`
		SecureCookie    bool                 `yaml:"secure_cookie"`
		ExcludedPaths   []string             `yaml:"excluded_paths"`
		UsersDB         string               `yaml:"users_db"`
		SessionStore    session.StoreOptions `yaml:"session_store"`
		Upstream        string               `yaml:"upstream"`
		Log             logutil.Options      `yaml:"log"`
	}

	InvalidValue struct {
		Name  string
		Value string
		cause error
	}
)

func (i InvalidValue) Error() string {
	if i.cause != nil {
		return fmt.Sprintf("config: invalid value %q for %v, cause %v", i.Value, i.Name, i.cause)
	}
	return fmt.Sprintf("config: invalid value %q for %v", i.Value, i.Name)
}

func (i InvalidValue) Unwrap() error {
	return i.cause
}

// DefaultExcludedPaths are reachable without credentials
func DefaultExcludedPaths() []string {
	return []string{
		"/api/v1/status/",
		"/api/v1/unauthorized/",
		"/api/v1/forbidden/",
		"/api/v1/auth_session/login/",
		"/api/v1/users/",
	}
}

func Default() Config {
	return Config{
		Bind:          net.JoinHostPort(DefaultHost, DefaultPort),
		SessionName:   DefaultSessionName,
		ExcludedPaths: DefaultExcludedPaths(),
		UsersDB:       DefaultUsersDB,
		SessionStore: session.StoreOptions{
			Kind: session.KindFile,
			Path: DefaultSessionFile,
		},
	}
}

// Load reads file on top of the defaults, an empty name returns Default()
func Load(file string) (Config, error) {
	cfg := Default()
	if file == "" {
		return cfg, nil
	}
	buf, err := os.ReadFile(file)
	if err != nil {
		return cfg, fmt.Errorf("config: unable to read %v, cause %w", file, err)
	}
	err = yaml.Unmarshal(buf, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("config: unable to parse %v, cause %w", file, err)
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with values from the environment,
// getenv defaults to os.Getenv
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := getenv(AuthTypeEnvVar); v != "" {
		c.AuthType = v
	}
	if v := getenv(SessionNameEnvVar); v != "" {
		c.SessionName = v
	}
	if v := getenv(SessionDurationEnvVar); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return InvalidValue{Name: SessionDurationEnvVar, Value: v, cause: err}
		}
		c.SessionDuration = n
	}
	host, port := getenv(HostEnvVar), getenv(PortEnvVar)
	if host != "" || port != "" {
		if host == "" {
			host = DefaultHost
		}
		if port == "" {
			port = DefaultPort
		}
		c.Bind = net.JoinHostPort(host, port)
	}
	if v := getenv(SessionFileEnvVar); v != "" {
		c.SessionStore.Path = v
	}
	if v := getenv(UsersDBEnvVar); v != "" {
		c.UsersDB = v
	}
	if v := getenv(RedisAddrEnvVar); v != "" {
		c.SessionStore.Kind = session.KindRedis
		c.SessionStore.Redis.Addr = v
	}
	return nil
}

func (c Config) Validate() error {
	if _, err := gate.ParseKind(c.AuthType); err != nil {
		return InvalidValue{Name: "auth_type", Value: c.AuthType, cause: err}
	}
	if c.SessionName == "" {
		return InvalidValue{Name: "session_name"}
	}
	if int64(c.SessionDuration) > session.MaxSeconds {
		return InvalidValue{Name: "session_duration", Value: strconv.Itoa(c.SessionDuration), cause: fmt.Errorf("limit is %v", session.MaxSeconds)}
	}
	switch c.SessionStore.Kind {
	case session.KindFile:
		if c.SessionStore.Path == "" {
			return InvalidValue{Name: "session_store.path"}
		}
	case session.KindRedis:
		if c.SessionStore.Redis.Addr == "" {
			return InvalidValue{Name: "session_store.redis.addr"}
		}
	default:
		return InvalidValue{Name: "session_store.kind", Value: c.SessionStore.Kind}
	}
	if c.UsersDB == "" {
		return InvalidValue{Name: "users_db"}
	}
	return nil
}
