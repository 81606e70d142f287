package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"clinicore.org/internal/ids"
	"clinicore.org/internal/obs"
	"clinicore.org/internal/rbac"
	"clinicore.org/internal/token"
)

// State is the authentication state of a session.
type State int

const (
	// StateLoading means the persisted credential has not been validated
	// yet. Consumers must treat it as unknown access, never as allow.
	StateLoading State = iota
	StateUnauthenticated
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// DefaultLanding is where a logged-in user ends up when no destination was
// remembered.
const DefaultLanding = "/"

var (
	// ErrMissingToken indicates a login response without a token.
	ErrMissingToken = errors.New("session: login response missing token")
	// ErrLoginSuperseded indicates a login completion that arrived after a
	// logout or a newer login; its result was discarded.
	ErrLoginSuperseded = errors.New("session: login superseded")
)

// LoginClient is the slice of the resource client the store depends on.
type LoginClient interface {
	Login(ctx context.Context, email, password string) (LoginResult, error)
}

// Navigator receives navigation side effects. Decisions stay inside the
// store; turning them into HTTP redirects (or recording them in tests) is
// the navigator's job.
type Navigator interface {
	// RedirectToLogin sends the user to the login entry point. from is the
	// attempted destination, empty when there was none.
	RedirectToLogin(from string)
	// RedirectTo sends the user to an application route.
	RedirectTo(path string)
}

type nopNavigator struct{}

func (nopNavigator) RedirectToLogin(string) {}
func (nopNavigator) RedirectTo(string)      {}

// Store owns the session state machine: loading until the persisted
// credential has been validated, then authenticated or unauthenticated.
// All transitions are serialized by a mutex and only Store methods write
// the credential store.
type Store struct {
	mu     sync.Mutex
	creds  CredentialStore
	client LoginClient
	nav    Navigator
	policy rbac.Policy
	now    func() time.Time

	landing string

	state    State
	identity *Identity
	token    string
	lastErr  string
	attempt  string
	intended string
}

// Option configures a Store.
type Option func(*Store)

// WithNavigator sets the navigation sink.
func WithNavigator(nav Navigator) Option {
	return func(s *Store) {
		if nav != nil {
			s.nav = nav
		}
	}
}

// WithPolicy overrides the permission policy used to derive identities.
func WithPolicy(policy rbac.Policy) Option {
	return func(s *Store) { s.policy = policy }
}

// WithLanding overrides the default post-login landing route.
func WithLanding(path string) Option {
	return func(s *Store) {
		if strings.TrimSpace(path) != "" {
			s.landing = path
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(s *Store) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewStore constructs a Store in the loading state.
func NewStore(creds CredentialStore, client LoginClient, opts ...Option) *Store {
	s := &Store{
		creds:   creds,
		client:  client,
		nav:     nopNavigator{},
		policy:  rbac.Default,
		now:     time.Now,
		landing: DefaultLanding,
		state:   StateLoading,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve validates the persisted credential and leaves the loading state.
// from is the route the user was trying to reach; it is remembered so a
// later login can return there. Any failure resolves to unauthenticated
// with a redirect-to-login effect; Resolve never leaves the store loading.
func (s *Store) Resolve(ctx context.Context, from string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			obs.Log(map[string]any{
				"level": "error",
				"msg":   "session validation panic",
				"panic": fmt.Sprint(r),
			})
			s.toUnauthenticatedLocked(from)
		}
	}()

	raw, ok := s.creds.Read()
	if !ok || strings.TrimSpace(raw) == "" {
		s.toUnauthenticatedLocked(from)
		return s.state
	}
	if s.isExpired(raw) {
		s.creds.Clear()
		s.toUnauthenticatedLocked(from)
		return s.state
	}
	identity := IdentityFromClaims(token.Decode(raw), s.policy)
	s.state = StateAuthenticated
	s.identity = &identity
	s.token = raw
	return s.state
}

func (s *Store) isExpired(raw string) bool {
	exp := token.ExpirationTime(raw)
	return exp.IsZero() || exp.UnixMilli() < s.now().UnixMilli()
}

func (s *Store) toUnauthenticatedLocked(from string) {
	s.state = StateUnauthenticated
	s.identity = nil
	s.token = ""
	s.intended = from
	s.nav.RedirectToLogin(from)
}

// Login authenticates against the resource client. On success the token is
// persisted (cookie expiry synced to the token's own exp), the identity is
// adopted and navigation to the remembered destination is triggered. On
// failure the state is unchanged, the message is recorded and the error is
// returned for the caller to display.
//
// Each call is tagged with a monotonic attempt id; if a logout or a newer
// login happens while the network call is in flight, the stale completion
// is discarded and reported as ErrLoginSuperseded.
func (s *Store) Login(ctx context.Context, email, password string) (Identity, error) {
	s.mu.Lock()
	attempt := ids.New()
	s.attempt = attempt
	s.lastErr = ""
	s.mu.Unlock()

	res, err := s.client.Login(ctx, email, password)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attempt != attempt {
		return Identity{}, ErrLoginSuperseded
	}
	s.attempt = ""
	if err != nil {
		s.lastErr = err.Error()
		return Identity{}, err
	}
	if strings.TrimSpace(res.Token) == "" {
		s.lastErr = ErrMissingToken.Error()
		return Identity{}, ErrMissingToken
	}

	if res.Email == "" {
		res.Email = email
	}
	s.creds.Write(res.Token, token.ExpirationTime(res.Token))
	identity := identityFromLogin(res, s.policy)
	s.state = StateAuthenticated
	s.identity = &identity
	s.token = res.Token

	dest := s.intended
	s.intended = ""
	if dest == "" {
		dest = s.landing
	}
	s.nav.RedirectTo(dest)
	return identity, nil
}

// Logout clears the persisted credential and redirects to login. An
// in-flight login becomes stale.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempt = ""
	s.creds.Clear()
	s.toUnauthenticatedLocked("")
}

// SetToken imperatively adopts (non-empty) or clears (empty) the credential,
// for tokens obtained outside the normal login flow. Safe to repeat.
func (s *Store) SetToken(raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempt = ""
	raw = strings.TrimSpace(raw)
	if raw == "" {
		s.creds.Clear()
		s.state = StateUnauthenticated
		s.identity = nil
		s.token = ""
		return
	}
	s.creds.Write(raw, token.ExpirationTime(raw))
	identity := IdentityFromClaims(token.Decode(raw), s.policy)
	s.state = StateAuthenticated
	s.identity = &identity
	s.token = raw
}

// State returns the current session state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Identity returns the resolved identity, if authenticated.
func (s *Store) Identity() (Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return Identity{}, false
	}
	return *s.identity, true
}

// Token returns the current raw token, empty when unauthenticated.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Err returns the last recorded login error message, empty when none.
func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}
