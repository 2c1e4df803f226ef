package session

import (
	"context"
	"fmt"
	"io"
)

const (
	KindMemory = "memory"
	KindFile   = "file"
	KindRedis  = "redis"
)

type (
	StoreOptions struct {
		Kind  string       `yaml:"kind"`
		Path  string       `yaml:"path"`
		Redis RedisOptions `yaml:"redis"`
	}
)

// OpenStore builds the store described by opts
func OpenStore(ctx context.Context, opts StoreOptions, clock Clock) (Store, error) {
	switch opts.Kind {
	case KindMemory, "":
		m, err := NewMemoryStore(clock)
		if err != nil {
			return nil, err
		}
		return m, nil
	case KindFile:
		if opts.Path == "" {
			return nil, fmt.Errorf("session: file store requires a path")
		}
		return OpenFileStore(ctx, opts.Path, clock), nil
	case KindRedis:
		r, err := OpenRedisStore(ctx, opts.Redis, clock)
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("session: invalid store kind %q", opts.Kind)
	}
}

// Close releases resources held by s, if any
func Close(s Store) error {
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
