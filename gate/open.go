package gate

import (
	"context"

	"github.com/andrebq/turnstile/session"
)

// OpenPolicy builds the session policy used by kind: the in-memory store
// for session_auth and session_exp_auth, persisted (as described by
// persisted) for session_db_auth. Only expiring kinds honor seconds.
// Kinds without sessions get a nil policy.
func OpenPolicy(ctx context.Context, kind Kind, persisted session.StoreOptions, seconds int) (*session.Policy, error) {
	if !kind.UsesSessions() {
		return nil, nil
	}
	opts := session.StoreOptions{Kind: session.KindMemory}
	if kind.Persistent() {
		opts = persisted
	}
	store, err := session.OpenStore(ctx, opts, nil)
	if err != nil {
		return nil, err
	}
	duration := session.Seconds(seconds)
	if !kind.Expires() {
		duration = 0
	}
	return session.NewPolicy(store, duration, nil), nil
}
