// Package api exposes the user and session endpoints over http.
//
// Every route sits behind a gate.Gate, so handlers can rely on
// gate.UserFromContext for anything that is not in the excluded paths.
package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/andrebq/turnstile/directory"
	"github.com/andrebq/turnstile/gate"
	"github.com/andrebq/turnstile/internal/httpserver"
	"github.com/julienschmidt/httprouter"
)

type (
	Deps struct {
		Gate  *gate.Gate
		Users *directory.Directory
		// Upstream receives every request that does not match a route,
		// when nil those get a 404
		Upstream *url.URL
	}
)

func AsHandler(ctx context.Context, deps Deps) (http.Handler, error) {
	if deps.Gate == nil {
		return nil, errors.New("api: missing gate")
	}
	if deps.Users == nil {
		return nil, errors.New("api: missing user directory")
	}
	router := httprouter.New()
	router.HandleMethodNotAllowed = false

	router.HandlerFunc("GET", "/api/v1/status", status)
	router.HandlerFunc("GET", "/api/v1/unauthorized", statusOnly(http.StatusUnauthorized, "Unauthorized"))
	router.HandlerFunc("GET", "/api/v1/forbidden", statusOnly(http.StatusForbidden, "Forbidden"))

	router.HandlerFunc("POST", "/api/v1/users", register(deps.Users))
	// httprouter does not allow /users/me next to /users/:id
	router.GET("/api/v1/users/:id", showUser(deps.Users))

	if deps.Gate.Sessions() != nil {
		router.HandlerFunc("POST", "/api/v1/auth_session/login", login(deps.Gate, deps.Users))
		router.HandlerFunc("DELETE", "/api/v1/auth_session/logout", logout(deps.Gate, deps.Users))
	}

	if deps.Upstream != nil {
		router.NotFound = Proxy(deps.Upstream)
	} else {
		router.NotFound = statusOnly(http.StatusNotFound, "Not found")
	}

	return deps.Gate.Protect(router), nil
}

func status(w http.ResponseWriter, r *http.Request) {
	httpserver.WriteJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

func statusOnly(code int, msg string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpserver.Error(w, code, msg)
	}
}
