// Package credentials hashes and verifies user passwords.
//
// Digests are bcrypt strings, so every call to Hash uses a fresh salt and
// the cost travels with the digest.
package credentials

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultCost is used by Hash
	DefaultCost = bcrypt.DefaultCost
	// MaxPasswordLen is the largest input bcrypt looks at, anything
	// after it would be silently ignored.
	MaxPasswordLen = 72
)

type (
	// PasswordTooLong is returned by Hash when the input cannot be
	// fully represented in the digest
	PasswordTooLong struct {
		Size int
	}
)

func (p PasswordTooLong) Error() string {
	return fmt.Sprintf("credentials: password has %v bytes, limit is %v", p.Size, MaxPasswordLen)
}

// Hash returns a salted one-way digest of password.
func Hash(password string) (string, error) {
	return HashWithCost(password, DefaultCost)
}

// HashWithCost is like Hash but lets the caller pick the bcrypt cost,
// tests use bcrypt.MinCost to keep things fast.
func HashWithCost(password string, cost int) (string, error) {
	if len(password) > MaxPasswordLen {
		return "", PasswordTooLong{Size: len(password)}
	}
	buf, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("credentials: unable to hash password, cause %w", err)
	}
	return string(buf), nil
}

// Verify reports whether password produced digest. A malformed digest
// is never a match.
func Verify(digest, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}
