package api

import (
	"errors"
	"net/http"

	"github.com/andrebq/turnstile/directory"
	"github.com/andrebq/turnstile/gate"
	"github.com/andrebq/turnstile/internal/httpserver"
	"github.com/andrebq/turnstile/internal/logutil"
)

func login(g *gate.Gate, users *directory.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := logutil.GetOrDefault(ctx)
		email, password, err := readCredentials(r)
		if err != nil {
			httpserver.Error(w, http.StatusBadRequest, "invalid request body")
			return
		}
		u, err := directory.Authenticate(ctx, users, email, password)
		switch {
		case err == nil:
		case errors.As(err, &directory.MissingField{}):
			httpserver.Error(w, http.StatusBadRequest, err.Error())
			return
		case errors.As(err, &directory.UserNotFound{}):
			httpserver.Error(w, http.StatusNotFound, "no user found for this email")
			return
		case errors.As(err, &directory.WrongPassword{}):
			httpserver.Error(w, http.StatusUnauthorized, "wrong password")
			return
		default:
			log.Error().Err(err).Msg("Unable to authenticate user")
			httpserver.Error(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}
		sid, err := g.Login(ctx, w, u.ID)
		if err != nil {
			log.Error().Err(err).Int64("user_id", u.ID).Msg("Unable to create session")
			httpserver.Error(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}
		// the session store is the source of truth, the user row only
		// mirrors the last session handed out
		if err := users.UpdateUser(ctx, u.ID, directory.Attrs{"session_id": sid}); err != nil {
			log.Warn().Err(err).Int64("user_id", u.ID).Msg("Unable to record session on user")
		}
		log.Info().Int64("user_id", u.ID).Msg("Session created")
		httpserver.WriteJSON(w, http.StatusOK, u)
	}
}

func logout(g *gate.Gate, users *directory.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := logutil.GetOrDefault(ctx)
		removed, err := g.DestroySession(r)
		if err != nil {
			log.Error().Err(err).Msg("Unable to destroy session")
			httpserver.Error(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}
		if !removed {
			httpserver.Error(w, http.StatusNotFound, "Not found")
			return
		}
		if u, ok := gate.UserFromContext(ctx); ok {
			if err := users.UpdateUser(ctx, u.ID, directory.Attrs{"session_id": ""}); err != nil {
				log.Warn().Err(err).Int64("user_id", u.ID).Msg("Unable to clear session on user")
			}
		}
		g.ClearCookie(w)
		log.Info().Msg("Session destroyed")
		httpserver.WriteJSON(w, http.StatusOK, map[string]string{})
	}
}
