// Package gate decides, per request, whether credentials are needed and
// who the caller is.
//
// A Gate is assembled from independent pieces: the excluded path rules
// (RequiresAuth), the extractors (Authorization header and session cookie)
// and the resolvers (basic credentials against the user directory, or
// session ids against a session.Policy). Which pieces are active depends
// on the Kind the gate was built with.
package gate

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/andrebq/turnstile/directory"
	"github.com/andrebq/turnstile/internal/httpserver"
	"github.com/andrebq/turnstile/internal/logutil"
	"github.com/andrebq/turnstile/session"
)

type (
	// State of a request after going through the gate
	State byte

	Decision struct {
		State State
		User  *directory.User
	}

	Options struct {
		Kind          Kind
		ExcludedPaths []string
		CookieName    string
		// SecureCookie limits the session cookie to https
		SecureCookie bool
		Users        directory.UserFinder
		// Sessions is required by the session kinds and ignored otherwise
		Sessions *session.Policy
	}

	Gate struct {
		kind         Kind
		excluded     []string
		cookieName   string
		secureCookie bool
		users        directory.UserFinder
		sessions     *session.Policy
	}

	userContextKeyType struct{}
)

const (
	Unchecked State = iota
	Exempt
	Unauthenticated
	Forbidden
	Authenticated
)

var (
	userKey = userContextKeyType{}

	ErrSessionsDisabled = errors.New("gate: strategy does not use sessions")
)

func (s State) String() string {
	switch s {
	case Exempt:
		return "exempt"
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	case Authenticated:
		return "authenticated"
	}
	return "unchecked"
}

func New(opts Options) (*Gate, error) {
	if opts.Kind == "" {
		opts.Kind = KindDisabled
	}
	if _, err := ParseKind(string(opts.Kind)); err != nil {
		return nil, err
	}
	if opts.Kind != KindDisabled && opts.Users == nil {
		return nil, fmt.Errorf("gate: %v requires a user directory", opts.Kind)
	}
	if opts.Kind.UsesSessions() {
		if opts.Sessions == nil {
			return nil, fmt.Errorf("gate: %v requires a session policy", opts.Kind)
		}
		if opts.CookieName == "" {
			return nil, fmt.Errorf("gate: %v requires a cookie name", opts.Kind)
		}
	} else {
		opts.Sessions = nil
	}
	return &Gate{
		kind:         opts.Kind,
		excluded:     append([]string(nil), opts.ExcludedPaths...),
		cookieName:   opts.CookieName,
		secureCookie: opts.SecureCookie,
		users:        opts.Users,
		sessions:     opts.Sessions,
	}, nil
}

// UserFromContext returns the user attached by Protect
func UserFromContext(ctx context.Context) (*directory.User, bool) {
	u, ok := ctx.Value(userKey).(*directory.User)
	return u, ok && u != nil
}

// WithUser attaches u to ctx
func WithUser(ctx context.Context, u *directory.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

func (g *Gate) Kind() Kind { return g.kind }

func (g *Gate) CookieName() string { return g.cookieName }

// Sessions returns the session policy, nil for strategies without sessions
func (g *Gate) Sessions() *session.Policy { return g.sessions }

// RequiresAuth is always false for the disabled strategy
func (g *Gate) RequiresAuth(path string) bool {
	if g.kind == KindDisabled {
		return false
	}
	return RequiresAuth(path, g.excluded)
}

// SessionCookie returns the session id sent as a cookie, empty if the
// strategy does not use sessions
func (g *Gate) SessionCookie(r *http.Request) string {
	if g.sessions == nil {
		return ""
	}
	return SessionCookie(r, g.cookieName)
}

// SessionToken returns the session id from the cookie or, failing that,
// from a bearer Authorization header
func (g *Gate) SessionToken(r *http.Request) string {
	if g.sessions == nil {
		return ""
	}
	if id := g.SessionCookie(r); id != "" {
		return id
	}
	return BearerToken(AuthorizationHeader(r))
}

// CurrentUser resolves the credentials in r to a user, a nil user
// without error means the credentials did not match anyone.
func (g *Gate) CurrentUser(r *http.Request) (*directory.User, error) {
	ctx := r.Context()
	switch {
	case g.kind == KindBasic:
		email, password, ok := BasicCredentials(AuthorizationHeader(r))
		if !ok {
			return nil, nil
		}
		u, err := directory.Authenticate(ctx, g.users, email, password)
		return nilIfNoMatch(u, err)
	case g.sessions != nil:
		id := g.SessionToken(r)
		if id == "" {
			return nil, nil
		}
		userID, ok, err := g.sessions.Resolve(ctx, id)
		if err != nil || !ok {
			return nil, err
		}
		return nilIfNoMatch(directory.FindUserByID(ctx, g.users, userID))
	}
	return nil, nil
}

// Check runs the decision procedure for r
func (g *Gate) Check(r *http.Request) (Decision, error) {
	if !g.RequiresAuth(r.URL.Path) {
		return Decision{State: Exempt}, nil
	}
	// any session cookie counts as a credential, even for strategies
	// that cannot resolve it
	if AuthorizationHeader(r) == "" && SessionCookie(r, g.cookieName) == "" {
		return Decision{State: Unauthenticated}, nil
	}
	u, err := g.CurrentUser(r)
	if err != nil {
		return Decision{State: Unchecked}, err
	}
	if u == nil {
		return Decision{State: Forbidden}, nil
	}
	return Decision{State: Authenticated, User: u}, nil
}

// Protect only lets authenticated (or exempt) requests reach next
func (g *Gate) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logutil.GetOrDefault(r.Context())
		d, err := g.Check(r)
		if err != nil {
			log.Error().Err(err).Str("path", r.URL.Path).Msg("Unable to resolve credentials")
			httpserver.Error(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}
		switch d.State {
		case Exempt:
			next.ServeHTTP(w, r)
		case Unauthenticated:
			httpserver.Error(w, http.StatusUnauthorized, "Unauthorized")
		case Forbidden:
			log.Debug().Str("path", r.URL.Path).Msg("Credentials did not resolve to a user")
			httpserver.Error(w, http.StatusForbidden, "Forbidden")
		case Authenticated:
			ctx := WithUser(r.Context(), d.User)
			ctx = logutil.WithLogger(ctx, log.With().Int64("user_id", d.User.ID).Logger())
			next.ServeHTTP(w, r.WithContext(ctx))
		}
	})
}

func nilIfNoMatch(u *directory.User, err error) (*directory.User, error) {
	switch {
	case err == nil:
		return u, nil
	case errors.As(err, &directory.UserNotFound{}),
		errors.As(err, &directory.WrongPassword{}),
		errors.As(err, &directory.MissingField{}):
		return nil, nil
	}
	return nil, err
}
