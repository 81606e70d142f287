package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCookieCredentialsPrimaryWins(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: MirrorCookieName, Value: "mirror-token"})
	r.AddCookie(&http.Cookie{Name: CookieName, Value: "primary-token"})

	creds := NewCookieCredentials(httptest.NewRecorder(), r)
	got, ok := creds.Read()
	if !ok || got != "primary-token" {
		t.Fatalf("Read = %q ok=%v, want primary-token", got, ok)
	}
}

func TestCookieCredentialsMirrorFallback(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: MirrorCookieName, Value: "mirror-token"})

	creds := NewCookieCredentials(httptest.NewRecorder(), r)
	got, ok := creds.Read()
	if !ok || got != "mirror-token" {
		t.Fatalf("Read = %q ok=%v, want mirror fallback", got, ok)
	}
}

func TestCookieCredentialsWriteSetsBothWithExpiry(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	exp := time.Now().Add(time.Hour).UTC().Truncate(time.Second)

	NewCookieCredentials(w, r).Write("tok", exp)

	cookies := w.Result().Cookies()
	if len(cookies) != 2 {
		t.Fatalf("expected 2 cookies, got %d", len(cookies))
	}
	seen := map[string]bool{}
	for _, c := range cookies {
		seen[c.Name] = true
		if c.Value != "tok" || c.Path != "/" {
			t.Fatalf("cookie %s = %+v", c.Name, c)
		}
		if !c.Expires.Equal(exp) {
			t.Fatalf("cookie %s expires %v, want %v", c.Name, c.Expires, exp)
		}
	}
	if !seen[CookieName] || !seen[MirrorCookieName] {
		t.Fatalf("cookies written: %v", seen)
	}
}

func TestCookieCredentialsClearExpiresAtEpoch(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	NewCookieCredentials(w, r).Clear()

	cookies := w.Result().Cookies()
	if len(cookies) != 2 {
		t.Fatalf("expected 2 cookies, got %d", len(cookies))
	}
	for _, c := range cookies {
		if c.Value != "" || c.MaxAge >= 0 {
			t.Fatalf("cookie %s not cleared: %+v", c.Name, c)
		}
		if c.Expires.After(time.Unix(1, 0)) {
			t.Fatalf("cookie %s expiry not at epoch: %v", c.Name, c.Expires)
		}
	}
}
