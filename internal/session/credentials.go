package session

import (
	"net/http"
	"time"
)

const (
	// CookieName is the primary persisted credential location.
	CookieName = "auth_token"
	// MirrorCookieName is the redundant legacy location. It is written
	// alongside the primary but only consulted when the primary is absent.
	MirrorCookieName = "token"
)

// CredentialStore is where the session store persists the raw token. Only
// the store's own methods may write through it.
type CredentialStore interface {
	// Read returns the persisted token, if any.
	Read() (string, bool)
	// Write persists the token with the given expiry.
	Write(token string, expiresAt time.Time)
	// Clear removes the persisted token from every location.
	Clear()
}

// CookieCredentials binds credential persistence to one HTTP exchange:
// reads come from the request's cookies, writes become Set-Cookie headers
// on the response.
type CookieCredentials struct {
	r *http.Request
	w http.ResponseWriter
}

// NewCookieCredentials returns a CredentialStore over the given exchange.
func NewCookieCredentials(w http.ResponseWriter, r *http.Request) *CookieCredentials {
	return &CookieCredentials{r: r, w: w}
}

func (c *CookieCredentials) Read() (string, bool) {
	for _, name := range []string{CookieName, MirrorCookieName} {
		if cookie, err := c.r.Cookie(name); err == nil && cookie.Value != "" {
			return cookie.Value, true
		}
	}
	return "", false
}

func (c *CookieCredentials) Write(token string, expiresAt time.Time) {
	for _, name := range []string{CookieName, MirrorCookieName} {
		http.SetCookie(c.w, &http.Cookie{
			Name:     name,
			Value:    token,
			Path:     "/",
			Expires:  expiresAt,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

func (c *CookieCredentials) Clear() {
	for _, name := range []string{CookieName, MirrorCookieName} {
		http.SetCookie(c.w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Expires:  time.Unix(0, 0),
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// MemoryCredentials keeps the credential in memory. Used by tests and by
// callers that manage persistence themselves.
type MemoryCredentials struct {
	token   string
	present bool
	expires time.Time
}

func (m *MemoryCredentials) Read() (string, bool) {
	return m.token, m.present
}

func (m *MemoryCredentials) Write(token string, expiresAt time.Time) {
	m.token = token
	m.present = true
	m.expires = expiresAt
}

func (m *MemoryCredentials) Clear() {
	m.token = ""
	m.present = false
	m.expires = time.Time{}
}

// ExpiresAt returns the expiry recorded by the last Write.
func (m *MemoryCredentials) ExpiresAt() time.Time {
	return m.expires
}
