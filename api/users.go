package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/andrebq/turnstile/credentials"
	"github.com/andrebq/turnstile/directory"
	"github.com/andrebq/turnstile/gate"
	"github.com/andrebq/turnstile/internal/httpserver"
	"github.com/andrebq/turnstile/internal/logutil"
	"github.com/julienschmidt/httprouter"
)

const maxBodySize = 64 << 10

func register(users *directory.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logutil.GetOrDefault(r.Context())
		email, password, err := readCredentials(r)
		if err != nil {
			httpserver.Error(w, http.StatusBadRequest, "invalid request body")
			return
		}
		u, err := directory.Register(r.Context(), users, email, password)
		switch {
		case err == nil:
		case errors.As(err, &directory.MissingField{}):
			httpserver.Error(w, http.StatusBadRequest, err.Error())
			return
		case errors.As(err, &credentials.PasswordTooLong{}):
			httpserver.Error(w, http.StatusBadRequest, "password too long")
			return
		case errors.As(err, &directory.DuplicateEmail{}):
			httpserver.WriteJSON(w, http.StatusConflict, map[string]string{"message": "email already registered"})
			return
		default:
			log.Error().Err(err).Msg("Unable to register user")
			httpserver.Error(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}
		log.Info().Int64("user_id", u.ID).Msg("User registered")
		httpserver.WriteJSON(w, http.StatusCreated, map[string]string{"email": u.Email, "message": "user created"})
	}
}

func showUser(users *directory.Directory) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
		id := params.ByName("id")
		if id == "me" {
			u, ok := gate.UserFromContext(r.Context())
			if !ok {
				httpserver.Error(w, http.StatusNotFound, "Not found")
				return
			}
			httpserver.WriteJSON(w, http.StatusOK, u)
			return
		}
		u, err := users.FindUserByID(r.Context(), id)
		switch {
		case err == nil:
			httpserver.WriteJSON(w, http.StatusOK, u)
		case errors.As(err, &directory.UserNotFound{}):
			httpserver.Error(w, http.StatusNotFound, "Not found")
		default:
			log := logutil.GetOrDefault(r.Context())
			log.Error().Err(err).Str("id", id).Msg("Unable to fetch user")
			httpserver.Error(w, http.StatusInternalServerError, "Internal Server Error")
		}
	}
}

// readCredentials accepts either a json object or a form
func readCredentials(r *http.Request) (email, password string, err error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodySize)
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt == "application/json" {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		err = json.NewDecoder(r.Body).Decode(&body)
		if errors.Is(err, io.EOF) {
			err = nil
		}
		return body.Email, body.Password, err
	}
	if err = r.ParseForm(); err != nil {
		return "", "", err
	}
	return r.PostForm.Get("email"), r.PostForm.Get("password"), nil
}
