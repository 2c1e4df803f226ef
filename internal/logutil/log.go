package logutil

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type (
	key byte

	Options struct {
		Level  string   `yaml:"level"`
		Format string   `yaml:"format"`
		Redact []string `yaml:"redact"`
	}
)

var (
	loggerKey = key(1)

	// PIIFields are redacted from logs unless Options.Redact says otherwise
	PIIFields = []string{"name", "email", "phone", "ssn", "password"}
)

func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

func GetOrDefault(ctx context.Context) zerolog.Logger {
	v := ctx.Value(loggerKey)
	if v == nil {
		return log.Logger
	}
	return v.(zerolog.Logger)
}

// New builds a logger writing to out (stderr if nil), every line goes
// through a Redactor before reaching out.
func New(opts Options, out io.Writer) (zerolog.Logger, error) {
	if out == nil {
		out = os.Stderr
	}
	level := zerolog.InfoLevel
	if opts.Level != "" {
		var err error
		level, err = zerolog.ParseLevel(opts.Level)
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("logutil: invalid level %q, cause %w", opts.Level, err)
		}
	}
	fields := opts.Redact
	if fields == nil {
		fields = PIIFields
	}
	var w io.Writer
	switch opts.Format {
	case "", "json":
		w = NewRedactor(fields, out)
	case "console":
		w = NewRedactor(fields, zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	default:
		return zerolog.Nop(), fmt.Errorf("logutil: invalid format %q", opts.Format)
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}
