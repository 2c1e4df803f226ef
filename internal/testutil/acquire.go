package testutil

import (
	"context"
	"os"
	"path/filepath"

	"github.com/andrebq/turnstile/directory"
	"golang.org/x/crypto/bcrypt"
)

type (
	TestLog interface {
		Fatal(...interface{})
		Log(...interface{})
	}
)

// AcquireDirectory opens an empty user directory in a temp folder,
// passwords are hashed with the minimum bcrypt cost.
func AcquireDirectory(ctx context.Context, t TestLog) (*directory.Directory, func()) {
	dir, err := os.MkdirTemp("", "turnstile-tests")
	if err != nil {
		t.Fatal(err)
	}
	d, err := directory.Open(ctx, filepath.Join(dir, "users.db"))
	if err != nil {
		t.Fatal(err)
	}
	d.SetHashCost(bcrypt.MinCost)
	return d, func() {
		err := d.Close()
		if err != nil {
			t.Log("unable to close directory", err)
		}
		err = os.RemoveAll(dir)
		if err != nil {
			t.Log("unable to cleanup temp dir", dir)
		}
	}
}

// AcquirePopulatedDirectory is AcquireDirectory plus one user per
// email/password pair.
func AcquirePopulatedDirectory(ctx context.Context, t TestLog, users map[string]string) (*directory.Directory, func()) {
	d, cleanup := AcquireDirectory(ctx, t)
	for email, password := range users {
		_, err := directory.Register(ctx, d, email, password)
		if err != nil {
			cleanup()
			t.Fatal(err)
		}
	}
	return d, cleanup
}

// AcquireSessionFile returns a path for a session file inside a temp folder
func AcquireSessionFile(t TestLog) (string, func()) {
	dir, err := os.MkdirTemp("", "turnstile-sessions")
	if err != nil {
		t.Fatal(err)
	}
	return filepath.Join(dir, ".db_UserSession.json"), func() {
		err := os.RemoveAll(dir)
		if err != nil {
			t.Log("unable to cleanup temp dir", dir)
		}
	}
}
