package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/andrebq/turnstile/credentials"
)

// Register creates a new user with the given email and password.
// The password is never stored, only its digest.
func Register(ctx context.Context, d *Directory, email, password string) (*User, error) {
	if email == "" {
		return nil, MissingField{Name: "email"}
	}
	if password == "" {
		return nil, MissingField{Name: "password"}
	}
	_, err := d.FindUserBy(ctx, Attrs{"email": email})
	if err == nil {
		return nil, DuplicateEmail{Email: email}
	} else if !errors.As(err, &UserNotFound{}) {
		return nil, err
	}
	digest, err := credentials.HashWithCost(password, d.hashCost)
	if err != nil {
		return nil, fmt.Errorf("unable to register %v, cause %w", email, err)
	}
	return d.AddUser(ctx, email, digest)
}

// Authenticate returns the user identified by email if password is valid.
func Authenticate(ctx context.Context, finder UserFinder, email, password string) (*User, error) {
	if email == "" {
		return nil, MissingField{Name: "email"}
	}
	if password == "" {
		return nil, MissingField{Name: "password"}
	}
	u, err := finder.FindUserBy(ctx, Attrs{"email": email})
	if err != nil {
		return nil, err
	}
	if !credentials.Verify(u.HashedPassword, password) {
		return nil, WrongPassword{Email: email}
	}
	return u, nil
}

// ValidLogin is Authenticate without the details
func ValidLogin(ctx context.Context, finder UserFinder, email, password string) bool {
	_, err := Authenticate(ctx, finder, email, password)
	return err == nil
}
