// File: pkg/client/session.go
package client

import (
	"context"
	"errors"
	"sync"
)

// State is the session lifecycle state.
type State int

const (
	// Unauthenticated means no valid session exists.
	Unauthenticated State = iota
	// Loading means a persisted session is being restored.
	Loading
	// Authenticated means a profile is cached and a token is set.
	Authenticated
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Authenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// ErrNotAdmin is returned when a role change is attempted by a caller whose
// cached profile is not an admin. No request is sent in that case.
var ErrNotAdmin = errors.New("only admins can change user roles")

// Subscriber is notified on every session state change.
type Subscriber func(state State, profile *User)

// Session owns the client-side view of one signed-in user: the cached
// profile, the lifecycle state and the latest error. It is the single
// writer of that state; views subscribe instead of polling.
type Session struct {
	client   *Client
	provider IdentityProvider

	mu          sync.Mutex
	state       State
	profile     *User
	lastErr     string
	subscribers map[int]Subscriber
	nextSubID   int
}

// NewSession creates a session container in the loading state; call Restore
// to resolve it.
func NewSession(client *Client, provider IdentityProvider) *Session {
	return &Session{
		client:      client,
		provider:    provider,
		state:       Loading,
		subscribers: make(map[int]Subscriber),
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Profile returns a copy of the cached profile, or nil when signed out.
func (s *Session) Profile() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return nil
	}
	copied := *s.profile
	return &copied
}

// Err returns the latest operation error message, empty when the last
// operation succeeded.
func (s *Session) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Subscribe registers a callback invoked on every state change. The
// returned function unsubscribes.
func (s *Session) Subscribe(fn Subscriber) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// setState updates state+profile and notifies subscribers outside the lock.
func (s *Session) setState(state State, profile *User) {
	s.mu.Lock()
	s.state = state
	s.profile = profile
	subs := make([]Subscriber, 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(state, profile)
	}
}

// clearErr resets the error before an operation; fail records the failure
// and returns the error for re-throwing.
func (s *Session) clearErr() {
	s.mu.Lock()
	s.lastErr = ""
	s.mu.Unlock()
}

func (s *Session) fail(err error) error {
	s.mu.Lock()
	s.lastErr = err.Error()
	s.mu.Unlock()
	return err
}

// Restore resolves a persisted session: with a stored token it fetches the
// profile, otherwise it settles into the unauthenticated state.
func (s *Session) Restore(ctx context.Context) error {
	s.clearErr()
	s.setState(Loading, nil)

	if s.client.Token() == "" {
		s.setState(Unauthenticated, nil)
		return nil
	}

	var profile User
	if err := s.client.Get(ctx, "/auth/me", &profile); err != nil {
		// Stale or revoked token: drop it and settle signed out.
		_ = s.client.SetToken("")
		s.setState(Unauthenticated, nil)
		return s.fail(err)
	}
	s.setState(Authenticated, &profile)
	return nil
}

// SignIn authenticates with the identity provider, exchanges the identity
// token for a backend session, and caches the returned profile.
func (s *Session) SignIn(ctx context.Context, email, password string) error {
	s.clearErr()

	idToken, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		s.setState(Unauthenticated, nil)
		return s.fail(err)
	}

	var auth AuthResponse
	if err := s.client.Post(ctx, "/auth/signin", map[string]string{"idToken": idToken}, &auth); err != nil {
		s.setState(Unauthenticated, nil)
		return s.fail(err)
	}
	if err := s.client.SetToken(auth.Token.AccessToken); err != nil {
		s.setState(Unauthenticated, nil)
		return s.fail(err)
	}
	s.setState(Authenticated, &auth.User)
	return nil
}

// SignUpInput carries the signup form fields. Role is advisory; the backend
// promotes the very first account to admin regardless.
type SignUpInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName,omitempty"`
	Role        string `json:"role,omitempty"`
}

// SignUp creates an account directly with the backend and caches the
// returned session. A provider-side session is established best-effort for
// consistency with password sign-in.
func (s *Session) SignUp(ctx context.Context, input SignUpInput) error {
	s.clearErr()

	var auth AuthResponse
	if err := s.client.Post(ctx, "/auth/signup", input, &auth); err != nil {
		s.setState(Unauthenticated, nil)
		return s.fail(err)
	}
	if err := s.client.SetToken(auth.Token.AccessToken); err != nil {
		s.setState(Unauthenticated, nil)
		return s.fail(err)
	}
	s.setState(Authenticated, &auth.User)

	// The backend already issued a session; a provider failure here is not
	// a signup failure.
	_, _ = s.provider.SignIn(ctx, input.Email, input.Password)
	return nil
}

// SignOut invalidates the backend session, clears the stored token and the
// cached profile, and signs out of the identity provider.
func (s *Session) SignOut(ctx context.Context) error {
	s.clearErr()

	var firstErr error
	if err := s.client.Post(ctx, "/auth/signout", nil, nil); err != nil {
		firstErr = err
	}
	if err := s.client.SetToken(""); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := s.provider.SignOut(ctx); err != nil && firstErr == nil {
		firstErr = err
	}

	s.setState(Unauthenticated, nil)
	if firstErr != nil {
		return s.fail(firstErr)
	}
	return nil
}

// Me re-fetches the caller's profile and replaces the cache.
func (s *Session) Me(ctx context.Context) (*User, error) {
	s.clearErr()

	var profile User
	if err := s.client.Get(ctx, "/auth/me", &profile); err != nil {
		return nil, s.fail(err)
	}
	s.setState(Authenticated, &profile)
	return s.Profile(), nil
}

// UpdateProfile applies a partial update and replaces the cached profile
// wholesale with the server-returned values.
func (s *Session) UpdateProfile(ctx context.Context, update ProfileUpdate) (*User, error) {
	s.clearErr()

	var profile User
	if err := s.client.Put(ctx, "/auth/profile", update, &profile); err != nil {
		return nil, s.fail(err)
	}
	s.setState(Authenticated, &profile)
	return s.Profile(), nil
}

// ListUsers fetches the full account roster. Admin only; the backend
// enforces it.
func (s *Session) ListUsers(ctx context.Context) ([]User, error) {
	s.clearErr()

	var users []User
	if err := s.client.Get(ctx, "/auth/users", &users); err != nil {
		return nil, s.fail(err)
	}
	return users, nil
}

// UpdateUserRole changes another account's role. Permitted only when the
// cached profile is an admin; otherwise it fails immediately without any
// network call. The roster must be re-fetched to observe the change.
func (s *Session) UpdateUserRole(ctx context.Context, uid, role string) error {
	s.clearErr()

	if !s.Profile().IsAdmin() {
		return s.fail(ErrNotAdmin)
	}

	body := map[string]string{"uid": uid, "role": role}
	if err := s.client.Put(ctx, "/auth/users/role", body, nil); err != nil {
		return s.fail(err)
	}
	return nil
}
