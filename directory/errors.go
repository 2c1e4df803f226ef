package directory

import (
	"fmt"
	"sort"
	"strings"
)

type (
	UserNotFound struct {
		Attrs Attrs
	}

	DuplicateEmail struct {
		Email string
	}

	InvalidAttribute struct {
		Name string
	}

	MissingField struct {
		Name string
	}

	WrongPassword struct {
		Email string
	}
)

func (u UserNotFound) Error() string {
	keys := make([]string, 0, len(u.Attrs))
	for k, v := range u.Attrs {
		keys = append(keys, fmt.Sprintf("%v=%v", k, v))
	}
	sort.Strings(keys)
	return fmt.Sprintf("no user found for %v", strings.Join(keys, ", "))
}

func (d DuplicateEmail) Error() string {
	return fmt.Sprintf("user %v already exists", d.Email)
}

func (i InvalidAttribute) Error() string {
	return fmt.Sprintf("invalid user attribute: %q", i.Name)
}

func (m MissingField) Error() string {
	return fmt.Sprintf("%v missing", m.Name)
}

func (w WrongPassword) Error() string {
	return "wrong password"
}
