// Package session is the single source of truth for who is logged in. State
// changes only through the named mutators; callers observe via Snapshot and
// OnChange. The token alone is durable, the user record never is.
package session

import (
	"context"
	"errors"
	"sync"

	"bizdesk/internal/domain"
)

// Status is the authentication lifecycle state.
type Status string

const (
	StatusAnonymous      Status = "anonymous"
	StatusAuthenticating Status = "authenticating"
	StatusAuthenticated  Status = "authenticated"
	StatusFailed         Status = "failed"
)

var (
	// ErrAuthInFlight rejects a second authentication attempt while one is
	// outstanding.
	ErrAuthInFlight = errors.New("authentication already in flight")
	// ErrNotAuthenticating rejects a completion or failure without a
	// matching BeginAuth in the same cycle.
	ErrNotAuthenticating = errors.New("no authentication in flight")
	// ErrBootstrapped rejects a second Bootstrap in the same process.
	ErrBootstrapped = errors.New("session already bootstrapped")
)

// Verifier confirms a stored token with the backend and returns the identity
// it belongs to.
type Verifier func(ctx context.Context, token string) (domain.User, error)

// Snapshot is a read-only view of the session.
type Snapshot struct {
	User      *domain.User
	Token     string
	Status    Status
	LastError string
}

// Authenticated reports whether the snapshot carries a confirmed identity.
func (s Snapshot) Authenticated() bool { return s.Status == StatusAuthenticated }

// Store holds the session state machine. Invariants: authenticated iff both
// user and token are set; failed iff lastError is set and user/token are not.
type Store struct {
	mu           sync.Mutex
	tokens       TokenStore
	user         *domain.User
	token        string
	status       Status
	lastError    string
	bootstrapped bool
	onChange     []func(Snapshot)
}

// NewStore creates an anonymous session backed by the given token store.
func NewStore(tokens TokenStore) *Store {
	return &Store{tokens: tokens, status: StatusAnonymous}
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	var user *domain.User
	if s.user != nil {
		u := *s.user
		user = &u
	}
	return Snapshot{User: user, Token: s.token, Status: s.status, LastError: s.lastError}
}

// OnChange registers a callback invoked after every state transition. Used by
// the route guard to re-resolve mounted protected routes.
func (s *Store) OnChange(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

func (s *Store) notifyLocked() {
	snap := s.snapshotLocked()
	fns := make([]func(Snapshot), len(s.onChange))
	copy(fns, s.onChange)
	s.mu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
	s.mu.Lock()
}

// Bootstrap runs once per process. A stored token is treated as provisionally
// authenticated: the session enters authenticating and the verifier confirms
// the identity with the backend before anything trusts it. A rejected token
// is cleared from durable storage and the session lands on anonymous.
func (s *Store) Bootstrap(ctx context.Context, verify Verifier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bootstrapped {
		return ErrBootstrapped
	}
	token, err := s.tokens.Load()
	if err != nil {
		// Leave bootstrapped unset so a transient read failure can be retried.
		return err
	}
	s.bootstrapped = true
	if token == "" || s.status != StatusAnonymous {
		return nil
	}
	s.status = StatusAuthenticating
	s.notifyLocked()

	s.mu.Unlock()
	user, verr := verify(ctx, token)
	s.mu.Lock()

	if verr != nil {
		s.user = nil
		s.token = ""
		s.status = StatusAnonymous
		s.lastError = ""
		_ = s.tokens.Clear()
		s.notifyLocked()
		return nil
	}
	s.user = &user
	s.token = token
	s.status = StatusAuthenticated
	s.lastError = ""
	s.notifyLocked()
	return nil
}

// BeginAuth transitions to authenticating. At most one attempt may be in
// flight; a concurrent begin is rejected, never queued.
func (s *Store) BeginAuth() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusAuthenticating {
		return ErrAuthInFlight
	}
	s.user = nil
	s.token = ""
	s.lastError = ""
	s.status = StatusAuthenticating
	s.notifyLocked()
	return nil
}

// CompleteAuth finishes the in-flight attempt and persists the token.
func (s *Store) CompleteAuth(user domain.User, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusAuthenticating {
		return ErrNotAuthenticating
	}
	if err := s.tokens.Save(token); err != nil {
		return err
	}
	s.user = &user
	s.token = token
	s.status = StatusAuthenticated
	s.lastError = ""
	s.notifyLocked()
	return nil
}

// FailAuth records the failure message and clears identity and token.
func (s *Store) FailAuth(message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusAuthenticating {
		return ErrNotAuthenticating
	}
	s.user = nil
	s.token = ""
	s.status = StatusFailed
	s.lastError = message
	s.notifyLocked()
	return nil
}

// Logout clears everything, including the persisted token, from any state.
func (s *Store) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.token = ""
	s.lastError = ""
	s.status = StatusAnonymous
	err := s.tokens.Clear()
	s.notifyLocked()
	return err
}
