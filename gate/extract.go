package gate

import (
	"encoding/base64"
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	bearerTokenRE = regexp.MustCompile(`^Bearer ([^\s]+)$`)
	basicTokenRE  = regexp.MustCompile(`^Basic ([^\s]+)$`)
)

// AuthorizationHeader returns the raw Authorization header
func AuthorizationHeader(r *http.Request) string {
	return r.Header.Get("Authorization")
}

// SessionCookie returns the value of the cookie called name
func SessionCookie(r *http.Request, name string) string {
	if name == "" {
		return ""
	}
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header
func BearerToken(header string) string {
	groups := bearerTokenRE.FindStringSubmatch(header)
	if len(groups) == 0 {
		return ""
	}
	return groups[1]
}

// BasicCredentials decodes an "Authorization: Basic <base64(email:password)>"
// header. The password is everything after the first colon.
func BasicCredentials(header string) (email, password string, ok bool) {
	groups := basicTokenRE.FindStringSubmatch(header)
	if len(groups) == 0 {
		return "", "", false
	}
	buf, err := base64.StdEncoding.DecodeString(groups[1])
	if err != nil || !utf8.Valid(buf) {
		return "", "", false
	}
	email, password, ok = strings.Cut(string(buf), ":")
	if !ok {
		return "", "", false
	}
	return email, password, true
}
