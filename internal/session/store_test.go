package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"clinicore.org/internal/rbac"

	"github.com/golang-jwt/jwt/v5"
)

type recordingNavigator struct {
	loginRedirects []string
	redirects      []string
}

func (n *recordingNavigator) RedirectToLogin(from string) {
	n.loginRedirects = append(n.loginRedirects, from)
}

func (n *recordingNavigator) RedirectTo(path string) {
	n.redirects = append(n.redirects, path)
}

type stubClient struct {
	result  LoginResult
	err     error
	before  func()
	calls   int
	lastCtx context.Context
}

func (c *stubClient) Login(ctx context.Context, email, password string) (LoginResult, error) {
	c.calls++
	c.lastCtx = ctx
	if c.before != nil {
		c.before()
	}
	return c.result, c.err
}

func testToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("upstream-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func TestResolveWithoutCredential(t *testing.T) {
	nav := &recordingNavigator{}
	store := NewStore(&MemoryCredentials{}, &stubClient{}, WithNavigator(nav))

	if store.State() != StateLoading {
		t.Fatalf("new store must start loading, got %v", store.State())
	}
	if st := store.Resolve(context.Background(), "/patients"); st != StateUnauthenticated {
		t.Fatalf("state = %v, want unauthenticated", st)
	}
	if len(nav.loginRedirects) != 1 || nav.loginRedirects[0] != "/patients" {
		t.Fatalf("expected one redirect-to-login with from, got %v", nav.loginRedirects)
	}
	if _, ok := store.Identity(); ok {
		t.Fatal("no identity expected")
	}
}

func TestResolveExpiredCredentialClearsIt(t *testing.T) {
	creds := &MemoryCredentials{}
	creds.Write(testToken(t, jwt.MapClaims{"exp": time.Now().Add(-time.Hour).Unix(), "role": "ADMIN"}), time.Now())
	nav := &recordingNavigator{}
	store := NewStore(creds, &stubClient{}, WithNavigator(nav))

	if st := store.Resolve(context.Background(), ""); st != StateUnauthenticated {
		t.Fatalf("state = %v, want unauthenticated", st)
	}
	if _, ok := creds.Read(); ok {
		t.Fatal("expired credential must be cleared")
	}
	if len(nav.loginRedirects) != 1 {
		t.Fatalf("expected redirect to login, got %v", nav.loginRedirects)
	}
}

func TestResolveValidCredentialDerivesIdentity(t *testing.T) {
	creds := &MemoryCredentials{}
	creds.Write(testToken(t, jwt.MapClaims{
		"exp":  time.Now().Add(time.Hour).Unix(),
		"role": "DOCTOR",
		"name": "Dr. Grey",
	}), time.Now().Add(time.Hour))
	store := NewStore(creds, &stubClient{})

	if st := store.Resolve(context.Background(), ""); st != StateAuthenticated {
		t.Fatalf("state = %v, want authenticated", st)
	}
	identity, ok := store.Identity()
	if !ok {
		t.Fatal("expected identity")
	}
	if identity.Role != rbac.RoleDoctor {
		t.Fatalf("role = %s, want DOCTOR", identity.Role)
	}
	want := rbac.Default.PermissionsFor(rbac.RoleDoctor)
	if len(identity.Permissions) != len(want) {
		t.Fatalf("permissions = %v, want DOCTOR row %v", identity.Permissions, want)
	}
	for i := range want {
		if identity.Permissions[i] != want[i] {
			t.Fatalf("permissions = %v, want DOCTOR row %v", identity.Permissions, want)
		}
	}
}

func TestResolveUnknownRoleFallsBackToStaff(t *testing.T) {
	creds := &MemoryCredentials{}
	creds.Write(testToken(t, jwt.MapClaims{
		"exp":  time.Now().Add(time.Hour).Unix(),
		"role": "SUPERVISOR",
	}), time.Now().Add(time.Hour))
	store := NewStore(creds, &stubClient{})

	store.Resolve(context.Background(), "")
	identity, ok := store.Identity()
	if !ok || identity.Role != rbac.RoleStaff {
		t.Fatalf("expected STAFF fallback, got %+v ok=%v", identity, ok)
	}
}

func TestLoginPersistsTokenAndNavigatesBack(t *testing.T) {
	exp := time.Now().Add(24 * time.Hour).Truncate(time.Second)
	tok := testToken(t, jwt.MapClaims{"exp": exp.Unix(), "role": "ADMIN", "id": 3})
	creds := &MemoryCredentials{}
	nav := &recordingNavigator{}
	client := &stubClient{result: LoginResult{Token: tok, Name: "Root"}}
	store := NewStore(creds, client, WithNavigator(nav))

	store.Resolve(context.Background(), "/users")

	identity, err := store.Login(context.Background(), "a@b.com", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if store.State() != StateAuthenticated {
		t.Fatalf("state = %v", store.State())
	}
	if identity.Role != rbac.RoleAdmin || identity.Name != "Root" || identity.ID != 3 {
		t.Fatalf("identity = %+v", identity)
	}
	if identity.Email != "a@b.com" {
		t.Fatalf("email should fall back to the submitted one, got %s", identity.Email)
	}
	if got, ok := creds.Read(); !ok || got != tok {
		t.Fatal("token was not persisted")
	}
	if !creds.ExpiresAt().Equal(exp) {
		t.Fatalf("persisted expiry %v, want token exp %v", creds.ExpiresAt(), exp)
	}
	if len(nav.redirects) != 1 || nav.redirects[0] != "/users" {
		t.Fatalf("expected navigation back to /users, got %v", nav.redirects)
	}
}

func TestLoginFailureKeepsStateAndRecordsError(t *testing.T) {
	creds := &MemoryCredentials{}
	client := &stubClient{err: errors.New("invalid credentials")}
	store := NewStore(creds, client)
	store.Resolve(context.Background(), "")

	if _, err := store.Login(context.Background(), "a@b.com", "nope"); err == nil {
		t.Fatal("expected error")
	}
	if store.State() != StateUnauthenticated {
		t.Fatalf("state = %v, want unauthenticated", store.State())
	}
	if store.Err() != "invalid credentials" {
		t.Fatalf("recorded error = %q", store.Err())
	}
	if _, ok := creds.Read(); ok {
		t.Fatal("no credential should be written on failure")
	}
}

func TestLoginWithoutTokenFails(t *testing.T) {
	store := NewStore(&MemoryCredentials{}, &stubClient{result: LoginResult{Name: "x"}})
	store.Resolve(context.Background(), "")
	if _, err := store.Login(context.Background(), "a@b.com", "pw"); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("err = %v, want ErrMissingToken", err)
	}
}

func TestLogoutClearsCredentialAndRedirects(t *testing.T) {
	tok := testToken(t, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix(), "role": "NURSE"})
	creds := &MemoryCredentials{}
	creds.Write(tok, time.Now().Add(time.Hour))
	nav := &recordingNavigator{}
	store := NewStore(creds, &stubClient{}, WithNavigator(nav))
	store.Resolve(context.Background(), "")

	store.Logout()

	if store.State() != StateUnauthenticated {
		t.Fatalf("state = %v", store.State())
	}
	if _, ok := creds.Read(); ok {
		t.Fatal("credential must be cleared")
	}
	if len(nav.loginRedirects) == 0 {
		t.Fatal("expected redirect to login")
	}
	if got := store.Token(); got != "" {
		t.Fatalf("token = %q after logout", got)
	}
}

func TestStaleLoginResponseIsDiscarded(t *testing.T) {
	tok := testToken(t, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix(), "role": "ADMIN"})
	creds := &MemoryCredentials{}
	var store *Store
	client := &stubClient{result: LoginResult{Token: tok}}
	// A logout lands while the login call is in flight.
	client.before = func() { store.Logout() }
	store = NewStore(creds, client)
	store.Resolve(context.Background(), "")

	if _, err := store.Login(context.Background(), "a@b.com", "pw"); !errors.Is(err, ErrLoginSuperseded) {
		t.Fatalf("err = %v, want ErrLoginSuperseded", err)
	}
	if store.State() != StateUnauthenticated {
		t.Fatalf("state = %v, want unauthenticated after logout", store.State())
	}
	if _, ok := creds.Read(); ok {
		t.Fatal("stale login must not persist a credential")
	}
}

func TestSetTokenNilTwiceIsIdempotent(t *testing.T) {
	creds := &MemoryCredentials{}
	store := NewStore(creds, &stubClient{})
	store.Resolve(context.Background(), "")

	store.SetToken("")
	if store.State() != StateUnauthenticated {
		t.Fatalf("state = %v", store.State())
	}
	store.SetToken("")
	if store.State() != StateUnauthenticated {
		t.Fatalf("state = %v after second clear", store.State())
	}
	if _, ok := creds.Read(); ok {
		t.Fatal("credential must stay cleared")
	}
}

func TestSetTokenAdoptsCredential(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	tok := testToken(t, jwt.MapClaims{"exp": exp.Unix(), "role": "NURSE", "email": "n@clinic.test"})
	creds := &MemoryCredentials{}
	store := NewStore(creds, &stubClient{})
	store.Resolve(context.Background(), "")

	store.SetToken(tok)

	if store.State() != StateAuthenticated {
		t.Fatalf("state = %v", store.State())
	}
	identity, _ := store.Identity()
	if identity.Role != rbac.RoleNurse || identity.Email != "n@clinic.test" {
		t.Fatalf("identity = %+v", identity)
	}
	if !creds.ExpiresAt().Equal(exp) {
		t.Fatalf("persisted expiry %v, want %v", creds.ExpiresAt(), exp)
	}
}
