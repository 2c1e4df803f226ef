package gate

import (
	"context"
	"net/http"
	"strconv"
)

// Login opens a session for userID and sends it back as a cookie
func (g *Gate) Login(ctx context.Context, w http.ResponseWriter, userID int64) (string, error) {
	if g.sessions == nil {
		return "", ErrSessionsDisabled
	}
	id, err := g.sessions.Create(ctx, strconv.FormatInt(userID, 10))
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     g.cookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   g.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return id, nil
}

// DestroySession removes the session presented by r. It returns false if
// r has no session token or the token is unknown.
func (g *Gate) DestroySession(r *http.Request) (bool, error) {
	if g.sessions == nil {
		return false, nil
	}
	id := g.SessionToken(r)
	if id == "" {
		return false, nil
	}
	ctx := r.Context()
	_, found, err := g.sessions.Find(ctx, id)
	if err != nil || !found {
		return false, err
	}
	return g.sessions.Destroy(ctx, id)
}

// ClearCookie tells the client to drop the session cookie
func (g *Gate) ClearCookie(w http.ResponseWriter) {
	if g.cookieName == "" {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     g.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   g.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
