package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
)

type (
	// MemoryStore keeps records for the lifetime of the process.
	MemoryStore struct {
		cache *bigcache.BigCache
		clock Clock
	}
)

// entries should outlive the process, expiration is a Policy decision
// and must not be taken by the cache behind our back.
const memoryLifeWindow = 100 * 365 * 24 * time.Hour

// NewMemoryStore returns an empty in-memory store, clock can be nil.
func NewMemoryStore(clock Clock) (*MemoryStore, error) {
	cfg := bigcache.DefaultConfig(memoryLifeWindow)
	cfg.Shards = 64
	cfg.MaxEntriesInWindow = 1024
	cfg.MaxEntrySize = 256
	cfg.CleanWindow = 0
	cfg.HardMaxCacheSize = 0
	cfg.Verbose = false
	cache, err := bigcache.NewBigCache(cfg)
	if err != nil {
		return nil, fmt.Errorf("session: unable to allocate memory store, cause %w", err)
	}
	return &MemoryStore{
		cache: cache,
		clock: clock,
	}, nil
}

func (m *MemoryStore) Create(ctx context.Context, userID string) (string, error) {
	rec, err := newRecord(userID, m.clock)
	if err != nil {
		return "", err
	}
	for {
		if _, err := m.cache.Get(rec.ID); err != nil {
			break
		}
		rec.ID = NewID()
	}
	buf, err := json.Marshal(rec)
	if err != nil {
		return "", err
	}
	err = m.cache.Set(rec.ID, buf)
	if err != nil {
		return "", fmt.Errorf("session: unable to save %v, cause %w", rec.ID, err)
	}
	return rec.ID, nil
}

func (m *MemoryStore) Find(ctx context.Context, sessionID string) (Record, bool, error) {
	if sessionID == "" {
		return Record{}, false, nil
	}
	buf, err := m.cache.Get(sessionID)
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return Record{}, false, nil
	} else if err != nil {
		return Record{}, false, err
	}
	var rec Record
	err = json.Unmarshal(buf, &rec)
	if err != nil {
		return Record{}, false, fmt.Errorf("session: corrupted entry %v, cause %w", sessionID, err)
	}
	return rec, true, nil
}

func (m *MemoryStore) Destroy(ctx context.Context, sessionID string) (bool, error) {
	if sessionID == "" {
		return false, nil
	}
	err := m.cache.Delete(sessionID)
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return true, nil
}

func (m *MemoryStore) Records(ctx context.Context) ([]Record, error) {
	var out []Record
	it := m.cache.Iterator()
	for it.SetNext() {
		entry, err := it.Value()
		if err != nil {
			// entry removed while iterating
			continue
		}
		var rec Record
		if err := json.Unmarshal(entry.Value(), &rec); err != nil {
			return nil, fmt.Errorf("session: corrupted entry %v, cause %w", entry.Key(), err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (m *MemoryStore) Sweep(ctx context.Context, cutoff time.Time) (int, error) {
	all, err := m.Records(ctx)
	if err != nil {
		return 0, err
	}
	var count int
	for _, rec := range all {
		if !rec.CreatedAt.Before(cutoff) {
			continue
		}
		removed, err := m.Destroy(ctx, rec.ID)
		if err != nil {
			return count, err
		}
		if removed {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) Close() error {
	return m.cache.Close()
}
