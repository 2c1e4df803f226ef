package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

type (
	// RedisStore is a persisted store for deployments that already run redis.
	// Records never get a TTL, like the file store they live until destroyed.
	RedisStore struct {
		client *redis.Client
		prefix string
		clock  Clock
	}

	RedisOptions struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	}
)

func OpenRedisStore(ctx context.Context, opts RedisOptions, clock Clock) (*RedisStore, error) {
	if opts.Prefix == "" {
		opts.Prefix = "turnstile:session:"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, StorageUnavailable{Path: opts.Addr, cause: err}
	}
	return &RedisStore{
		client: client,
		prefix: opts.Prefix,
		clock:  clock,
	}, nil
}

func (r *RedisStore) key(sessionID string) string {
	return r.prefix + sessionID
}

func (r *RedisStore) Create(ctx context.Context, userID string) (string, error) {
	rec, err := newRecord(userID, r.clock)
	if err != nil {
		return "", err
	}
	for {
		data, err := json.Marshal(rec)
		if err != nil {
			return "", err
		}
		created, err := r.client.SetNX(ctx, r.key(rec.ID), data, 0).Result()
		if err != nil {
			return "", fmt.Errorf("session: unable to save %v, cause %w", rec.ID, err)
		}
		if created {
			return rec.ID, nil
		}
		rec.ID = NewID()
	}
}

func (r *RedisStore) Find(ctx context.Context, sessionID string) (Record, bool, error) {
	if sessionID == "" {
		return Record{}, false, nil
	}
	data, err := r.client.Get(ctx, r.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, false, nil
	} else if err != nil {
		return Record{}, false, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, false, fmt.Errorf("session: corrupted entry %v, cause %w", sessionID, err)
	}
	return rec, true, nil
}

func (r *RedisStore) Destroy(ctx context.Context, sessionID string) (bool, error) {
	if sessionID == "" {
		return false, nil
	}
	n, err := r.client.Del(ctx, r.key(sessionID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *RedisStore) Records(ctx context.Context) ([]Record, error) {
	var out []Record
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := r.client.Get(ctx, iter.Val()).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		} else if err != nil {
			return nil, err
		}
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("session: corrupted entry %v, cause %w", iter.Val(), err)
		}
		out = append(out, rec)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *RedisStore) Sweep(ctx context.Context, cutoff time.Time) (int, error) {
	all, err := r.Records(ctx)
	if err != nil {
		return 0, err
	}
	var count int
	for _, rec := range all {
		if !rec.CreatedAt.Before(cutoff) {
			continue
		}
		removed, err := r.Destroy(ctx, rec.ID)
		if err != nil {
			return count, err
		}
		if removed {
			count++
		}
	}
	return count, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
