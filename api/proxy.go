package api

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"

	"github.com/andrebq/turnstile/gate"
	"github.com/andrebq/turnstile/internal/httpserver"
	"github.com/andrebq/turnstile/internal/logutil"
)

// UserIDHeader carries the authenticated user id to the upstream
const UserIDHeader = "X-Turnstile-User-Id"

// Proxy forwards requests to upstream. The path is forwarded with its dot
// segments resolved, the same form the gate checked. Any UserIDHeader sent
// by the client is dropped and replaced by the id of the user the gate
// resolved.
func Proxy(upstream *url.URL) http.Handler {
	proxy := httputil.NewSingleHostReverseProxy(upstream)
	director := proxy.Director
	proxy.Director = func(r *http.Request) {
		r.URL.Path = gate.CleanPath(r.URL.Path)
		r.URL.RawPath = ""
		director(r)
		r.Header.Del(UserIDHeader)
		if u, ok := gate.UserFromContext(r.Context()); ok {
			r.Header.Set(UserIDHeader, strconv.FormatInt(u.ID, 10))
		}
	}
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log := logutil.GetOrDefault(r.Context())
		log.Error().Err(err).Str("upstream", upstream.String()).Msg("Upstream failed")
		httpserver.Error(w, http.StatusBadGateway, "Bad Gateway")
	}
	return proxy
}
