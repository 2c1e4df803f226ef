// Package session holds the session lifecycle: records mapping an opaque
// session id to a user id, the stores that keep them and the Policy
// deciding whether a record is still valid.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type (
	// Record is immutable once created
	Record struct {
		ID        string    `json:"session_id"`
		UserID    string    `json:"user_id"`
		CreatedAt time.Time `json:"created_at"`
	}

	// Store keeps records keyed by session id. Find and Destroy report
	// absence through their boolean result, never as an error.
	Store interface {
		Create(ctx context.Context, userID string) (string, error)
		Find(ctx context.Context, sessionID string) (Record, bool, error)
		Destroy(ctx context.Context, sessionID string) (bool, error)
	}

	// Sweeper is implemented by stores that can remove old records in bulk
	Sweeper interface {
		Sweep(ctx context.Context, cutoff time.Time) (int, error)
	}

	// Lister is implemented by stores that can enumerate their records
	Lister interface {
		Records(ctx context.Context) ([]Record, error)
	}

	// Clock returns the current time, stores and policies accept one
	// so tests can move time around.
	Clock func() time.Time

	StorageUnavailable struct {
		Path  string
		cause error
	}
)

var (
	ErrMissingUserID = errors.New("session: user id is required")
)

func (s StorageUnavailable) Error() string {
	return fmt.Sprintf("session storage %v unavailable, cause %v", s.Path, s.cause)
}

func (s StorageUnavailable) Unwrap() error {
	return s.cause
}

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}

// NewID returns a fresh random (v4) uuid
func NewID() string {
	return uuid.NewString()
}

func newRecord(userID string, clock Clock) (Record, error) {
	if userID == "" {
		return Record{}, ErrMissingUserID
	}
	return Record{
		ID:        NewID(),
		UserID:    userID,
		CreatedAt: clock.now(),
	}, nil
}
