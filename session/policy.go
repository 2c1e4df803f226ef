package session

import (
	"context"
	"errors"
	"math"
	"time"
)

type (
	// Policy resolves session ids to user ids, applying an optional
	// expiration on top of a Store.
	//
	// A record is valid while now <= CreatedAt + duration. Expired records
	// are left in the store, only Destroy and Sweep remove them.
	Policy struct {
		store    Store
		duration time.Duration
		clock    Clock
	}
)

var (
	ErrSweepUnsupported = errors.New("session: store does not support sweeping")
)

// NewPolicy returns a policy over store, a duration <= 0 disables expiration.
func NewPolicy(store Store, duration time.Duration, clock Clock) *Policy {
	if duration < 0 {
		duration = 0
	}
	return &Policy{
		store:    store,
		duration: duration,
		clock:    clock,
	}
}

// MaxSeconds is the largest amount of seconds a time.Duration can hold
const MaxSeconds = int64(math.MaxInt64 / int64(time.Second))

// Seconds converts a configured amount of seconds into a duration,
// zero or negative values mean no expiration. Values above MaxSeconds
// are clamped.
func Seconds(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	if int64(n) > MaxSeconds {
		return time.Duration(MaxSeconds) * time.Second
	}
	return time.Duration(n) * time.Second
}

func (p *Policy) Store() Store {
	return p.store
}

func (p *Policy) Duration() time.Duration {
	return p.duration
}

func (p *Policy) Create(ctx context.Context, userID string) (string, error) {
	return p.store.Create(ctx, userID)
}

func (p *Policy) Destroy(ctx context.Context, sessionID string) (bool, error) {
	return p.store.Destroy(ctx, sessionID)
}

// Find returns the record for sessionID ignoring expiration.
func (p *Policy) Find(ctx context.Context, sessionID string) (Record, bool, error) {
	return p.store.Find(ctx, sessionID)
}

// Resolve returns the user id owning sessionID, the boolean is false
// if the session is unknown or expired.
func (p *Policy) Resolve(ctx context.Context, sessionID string) (string, bool, error) {
	if sessionID == "" {
		return "", false, nil
	}
	rec, found, err := p.store.Find(ctx, sessionID)
	if err != nil || !found {
		return "", false, err
	}
	if p.Expired(rec) {
		return "", false, nil
	}
	return rec.UserID, true, nil
}

// Expired reports if rec is no longer valid
func (p *Policy) Expired(rec Record) bool {
	if p.duration <= 0 {
		return false
	}
	if rec.CreatedAt.IsZero() {
		return true
	}
	return p.clock.now().After(rec.CreatedAt.Add(p.duration))
}

// Sweep removes every expired record from the underlying store.
func (p *Policy) Sweep(ctx context.Context) (int, error) {
	if p.duration <= 0 {
		return 0, nil
	}
	sw, ok := p.store.(Sweeper)
	if !ok {
		return 0, ErrSweepUnsupported
	}
	// created before now - duration is the same as now after created + duration
	return sw.Sweep(ctx, p.clock.now().Add(-p.duration))
}
