package session

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPolicyWithoutExpiration(t *testing.T) {
	ctx := context.Background()
	clock := newManualClock()
	store, err := NewMemoryStore(clock.Now)
	require.NoError(t, err)
	defer store.Close()

	for _, d := range []time.Duration{0, -time.Second} {
		p := NewPolicy(store, d, clock.Now)
		id, err := p.Create(ctx, "u")
		require.NoError(t, err)
		clock.Advance(24 * 365 * time.Hour)
		user, ok, err := p.Resolve(ctx, id)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "u", user)
	}
}

func TestPolicyExpirationBoundary(t *testing.T) {
	ctx := context.Background()
	clock := newManualClock()
	store, err := NewMemoryStore(clock.Now)
	require.NoError(t, err)
	defer store.Close()

	p := NewPolicy(store, Seconds(60), clock.Now)
	id, err := p.Create(ctx, "u")
	require.NoError(t, err)

	user, ok, err := p.Resolve(ctx, id)
	require.NoError(t, err)
	require.True(t, ok, "valid at created_at")
	require.Equal(t, "u", user)

	clock.Advance(60 * time.Second)
	_, ok, err = p.Resolve(ctx, id)
	require.NoError(t, err)
	require.True(t, ok, "valid exactly at created_at + duration")

	clock.Advance(time.Second)
	_, ok, err = p.Resolve(ctx, id)
	require.NoError(t, err)
	require.False(t, ok, "expired at created_at + duration + 1")

	_, found, err := p.Find(ctx, id)
	require.NoError(t, err)
	require.True(t, found, "expiration must not delete the record")
}

func TestPolicyUnknownSession(t *testing.T) {
	ctx := context.Background()
	store, err := NewMemoryStore(nil)
	require.NoError(t, err)
	defer store.Close()
	p := NewPolicy(store, time.Minute, nil)

	_, ok, err := p.Resolve(ctx, "")
	require.NoError(t, err)
	require.False(t, ok)
	_, ok, err = p.Resolve(ctx, "unknown")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPolicySweep(t *testing.T) {
	ctx := context.Background()
	clock := newManualClock()
	store := OpenFileStore(ctx, tempSessionFile(t), clock.Now)

	p := NewPolicy(store, Seconds(10), clock.Now)
	expired, err := p.Create(ctx, "a")
	require.NoError(t, err)
	clock.Advance(5 * time.Second)
	boundary, err := p.Create(ctx, "b")
	require.NoError(t, err)
	clock.Advance(10 * time.Second)

	n, err := p.Sweep(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	_, found, _ := p.Find(ctx, expired)
	require.False(t, found)
	user, ok, err := p.Resolve(ctx, boundary)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "b", user)

	n, err = NewPolicy(store, 0, clock.Now).Sweep(ctx)
	require.NoError(t, err)
	require.Zero(t, n, "nothing expires without a duration")
}

func TestSeconds(t *testing.T) {
	require.Equal(t, time.Duration(0), Seconds(0))
	require.Equal(t, time.Duration(0), Seconds(-5))
	require.Equal(t, 90*time.Second, Seconds(90))

	huge := Seconds(math.MaxInt)
	require.Equal(t, time.Duration(MaxSeconds)*time.Second, huge)
	require.True(t, huge > 0)
}

func TestPolicyHugeDuration(t *testing.T) {
	ctx := context.Background()
	clock := newManualClock()
	store, err := NewMemoryStore(clock.Now)
	require.NoError(t, err)
	defer store.Close()
	p := NewPolicy(store, Seconds(math.MaxInt), clock.Now)

	id, err := p.Create(ctx, "1")
	require.NoError(t, err)
	clock.Advance(100 * 365 * 24 * time.Hour)
	_, ok, err := p.Resolve(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)

	n, err := p.Sweep(ctx)
	require.NoError(t, err)
	require.Zero(t, n)
}
