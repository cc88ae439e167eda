package session_test

import (
	"context"
	"errors"
	"testing"

	"bizdesk/internal/domain"
	"bizdesk/internal/session"
)

func testUser() domain.User {
	return domain.User{ID: "u-1", Name: "Ada", Username: "ada", Email: "ada@example.com", Role: "owner", Verified: true}
}

func TestLoginLifecycle(t *testing.T) {
	tokens := &session.MemoryTokenStore{}
	store := session.NewStore(tokens)
	if got := store.Snapshot().Status; got != session.StatusAnonymous {
		t.Fatalf("initial status %s", got)
	}
	if err := store.BeginAuth(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if got := store.Snapshot().Status; got != session.StatusAuthenticating {
		t.Fatalf("status after begin %s", got)
	}
	if err := store.CompleteAuth(testUser(), "tok-123"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	snap := store.Snapshot()
	if !snap.Authenticated() || snap.User == nil || snap.User.ID != "u-1" || snap.Token != "tok-123" {
		t.Fatalf("bad authenticated snapshot: %+v", snap)
	}
	if tokens.Token != "tok-123" {
		t.Fatalf("token not persisted: %q", tokens.Token)
	}
}

func TestFailedLoginClearsIdentity(t *testing.T) {
	store := session.NewStore(&session.MemoryTokenStore{})
	if err := store.BeginAuth(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := store.FailAuth("invalid credentials"); err != nil {
		t.Fatalf("fail: %v", err)
	}
	snap := store.Snapshot()
	if snap.Status != session.StatusFailed || snap.User != nil || snap.Token != "" {
		t.Fatalf("failed snapshot should carry no identity: %+v", snap)
	}
	if snap.LastError != "invalid credentials" {
		t.Fatalf("lastError %q", snap.LastError)
	}
}

func TestSingleFlightAuth(t *testing.T) {
	store := session.NewStore(&session.MemoryTokenStore{})
	if err := store.BeginAuth(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := store.BeginAuth(); !errors.Is(err, session.ErrAuthInFlight) {
		t.Fatalf("second begin: %v", err)
	}
	// completing out of band is rejected too
	if err := store.FailAuth("x"); err != nil {
		t.Fatalf("fail: %v", err)
	}
	if err := store.CompleteAuth(testUser(), "tok"); !errors.Is(err, session.ErrNotAuthenticating) {
		t.Fatalf("complete without begin: %v", err)
	}
}

func TestLogoutClearsEverything(t *testing.T) {
	tokens := &session.MemoryTokenStore{}
	store := session.NewStore(tokens)
	store.BeginAuth()
	store.CompleteAuth(testUser(), "tok-123")
	if err := store.Logout(); err != nil {
		t.Fatalf("logout: %v", err)
	}
	snap := store.Snapshot()
	if snap.Status != session.StatusAnonymous || snap.User != nil || snap.Token != "" {
		t.Fatalf("logout left state behind: %+v", snap)
	}
	if tokens.Token != "" {
		t.Fatalf("durable token not cleared")
	}
}

func TestBootstrapVerifiesStoredToken(t *testing.T) {
	tokens := &session.MemoryTokenStore{Token: "tok-old"}
	store := session.NewStore(tokens)
	var statuses []session.Status
	store.OnChange(func(s session.Snapshot) { statuses = append(statuses, s.Status) })
	verify := func(ctx context.Context, token string) (domain.User, error) {
		if token != "tok-old" {
			t.Fatalf("verifier got token %q", token)
		}
		return testUser(), nil
	}
	if err := store.Bootstrap(context.Background(), verify); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	snap := store.Snapshot()
	if !snap.Authenticated() || snap.User.Username != "ada" {
		t.Fatalf("expected verified session: %+v", snap)
	}
	// the token is provisional until verified, never silently trusted
	want := []session.Status{session.StatusAuthenticating, session.StatusAuthenticated}
	if len(statuses) != 2 || statuses[0] != want[0] || statuses[1] != want[1] {
		t.Fatalf("transitions %v, want %v", statuses, want)
	}
}

func TestBootstrapRejectedTokenIsCleared(t *testing.T) {
	tokens := &session.MemoryTokenStore{Token: "tok-stale"}
	store := session.NewStore(tokens)
	verify := func(ctx context.Context, token string) (domain.User, error) {
		return domain.User{}, errors.New("401")
	}
	if err := store.Bootstrap(context.Background(), verify); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	snap := store.Snapshot()
	if snap.Status != session.StatusAnonymous || snap.User != nil {
		t.Fatalf("rejected token must land anonymous: %+v", snap)
	}
	if tokens.Token != "" {
		t.Fatalf("stale token not removed from storage")
	}
}

func TestBootstrapRunsOnce(t *testing.T) {
	store := session.NewStore(&session.MemoryTokenStore{})
	verify := func(ctx context.Context, token string) (domain.User, error) { return testUser(), nil }
	if err := store.Bootstrap(context.Background(), verify); err != nil {
		t.Fatalf("first bootstrap: %v", err)
	}
	if err := store.Bootstrap(context.Background(), verify); !errors.Is(err, session.ErrBootstrapped) {
		t.Fatalf("second bootstrap: %v", err)
	}
}

func TestBootstrapWithoutTokenStaysAnonymous(t *testing.T) {
	store := session.NewStore(&session.MemoryTokenStore{})
	verify := func(ctx context.Context, token string) (domain.User, error) {
		t.Fatal("verifier called with no stored token")
		return domain.User{}, nil
	}
	if err := store.Bootstrap(context.Background(), verify); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	snap := store.Snapshot()
	if snap.Status != session.StatusAnonymous || snap.User != nil || snap.Token != "" {
		t.Fatalf("expected anonymous session, got %+v", snap)
	}
}

type flakyTokenStore struct {
	session.MemoryTokenStore
	loadErr error
}

func (s *flakyTokenStore) Load() (string, error) {
	if err := s.loadErr; err != nil {
		s.loadErr = nil
		return "", err
	}
	return s.MemoryTokenStore.Load()
}

func TestBootstrapRetriesAfterLoadError(t *testing.T) {
	tokens := &flakyTokenStore{loadErr: errors.New("disk unavailable")}
	tokens.Token = "tok-stored"
	store := session.NewStore(tokens)
	verify := func(ctx context.Context, token string) (domain.User, error) { return testUser(), nil }
	if err := store.Bootstrap(context.Background(), verify); err == nil {
		t.Fatal("expected load error from first bootstrap")
	}
	if err := store.Bootstrap(context.Background(), verify); err != nil {
		t.Fatalf("retry after load error: %v", err)
	}
	if got := store.Snapshot().Status; got != session.StatusAuthenticated {
		t.Fatalf("status after retry %s", got)
	}
}

func TestFileTokenStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := session.FileTokenStore{Workspace: dir}
	if tok, err := store.Load(); err != nil || tok != "" {
		t.Fatalf("empty load: %q %v", tok, err)
	}
	if err := store.Save("tok-xyz"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if tok, err := store.Load(); err != nil || tok != "tok-xyz" {
		t.Fatalf("load: %q %v", tok, err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if tok, _ := store.Load(); tok != "" {
		t.Fatalf("token survived clear: %q", tok)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("double clear should be fine: %v", err)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	store := session.NewStore(&session.MemoryTokenStore{})
	store.BeginAuth()
	store.CompleteAuth(testUser(), "tok")
	snap := store.Snapshot()
	snap.User.Name = "tampered"
	if store.Snapshot().User.Name != "Ada" {
		t.Fatalf("snapshot aliases internal user")
	}
}
