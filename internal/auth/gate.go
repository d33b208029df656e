// Package auth implements the admin session gate: a single shared password,
// carried back by the browser in a cookie and compared on every request.
// There is no hashing and no server-side session state.
package auth

import (
	"crypto/subtle"
	"net/http"
	"net/url"
	"time"
)

const (
	CookieName = "admin_token"
	SessionTTL = 24 * time.Hour
)

type Gate struct {
	secret string
	secure bool
}

// NewGate returns a gate for secret. secure marks the cookie Secure and
// should be set in production.
func NewGate(secret string, secure bool) *Gate {
	return &Gate{secret: secret, secure: secure}
}

// Valid reports whether value equals the configured secret. An empty secret
// matches nothing.
func (g *Gate) Valid(value string) bool {
	if g.secret == "" || value == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(value), []byte(g.secret)) == 1
}

// Login sets a fresh session cookie when password is correct. The cookie
// value is the password itself, query-escaped so any password survives the
// cookie syntax.
func (g *Gate) Login(w http.ResponseWriter, password string) bool {
	if !g.Valid(password) {
		return false
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    url.QueryEscape(password),
		Path:     "/",
		MaxAge:   int(SessionTTL / time.Second),
		Expires:  time.Now().Add(SessionTTL),
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteStrictMode,
	})
	return true
}

// Logout expires the session cookie.
func (g *Gate) Logout(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// Authenticated reports whether r carries a valid session cookie.
func (g *Gate) Authenticated(r *http.Request) bool {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return false
	}
	value, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return false
	}
	return g.Valid(value)
}
