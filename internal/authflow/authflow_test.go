package authflow_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bizdesk/internal/authflow"
	"bizdesk/internal/session"
	"bizdesk/internal/validation"
	bizdesksdk "bizdesk/sdk/go"
)

// stubBackend fakes the API surface the flow talks to.
type stubBackend struct {
	mux      *http.ServeMux
	requests []string
}

func newStubBackend(t *testing.T) (*stubBackend, *httptest.Server) {
	t.Helper()
	b := &stubBackend{mux: http.NewServeMux()}
	outer := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.requests = append(b.requests, r.Method+" "+r.URL.Path)
		b.mux.ServeHTTP(w, r)
	})
	srv := httptest.NewServer(outer)
	t.Cleanup(srv.Close)
	return b, srv
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func apiErrorBody(message string) map[string]any {
	return map[string]any{"error": map[string]any{"code": "invalid_credentials", "message": message}}
}

func loginBody(token string) map[string]any {
	return map[string]any{
		"user": map[string]any{
			"id":         "u-1",
			"name":       "Ada",
			"username":   "ada",
			"email":      "ada@example.com",
			"role":       "owner",
			"verified":   true,
			"created_at": "2026-01-01T00:00:00Z",
		},
		"token": token,
	}
}

func newFlow(t *testing.T, srv *httptest.Server) (*authflow.Flow, *session.MemoryTokenStore) {
	t.Helper()
	tokens := &session.MemoryTokenStore{}
	store := session.NewStore(tokens)
	client := bizdesksdk.New(srv.URL)
	return authflow.New(client, store, validation.Default()), tokens
}

func TestLoginSuccess(t *testing.T) {
	backend, srv := newStubBackend(t)
	backend.mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, loginBody("tok-abc"))
	})
	flow, tokens := newFlow(t, srv)
	if err := flow.Login(context.Background(), "ada", "supersecret"); err != nil {
		t.Fatalf("login: %v", err)
	}
	snap := flow.Store().Snapshot()
	if !snap.Authenticated() || snap.User.Username != "ada" || snap.Token != "tok-abc" {
		t.Fatalf("bad session after login: %+v", snap)
	}
	if tokens.Token != "tok-abc" {
		t.Fatalf("token not persisted")
	}
}

func TestLoginFailureSurfacesServerMessage(t *testing.T) {
	backend, srv := newStubBackend(t)
	backend.mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, apiErrorBody("invalid credentials"))
	})
	flow, tokens := newFlow(t, srv)
	err := flow.Login(context.Background(), "ada", "wrong")
	if err == nil || !strings.Contains(err.Error(), "invalid credentials") {
		t.Fatalf("expected server message, got %v", err)
	}
	snap := flow.Store().Snapshot()
	if snap.Status != session.StatusFailed || snap.User != nil || snap.Token != "" {
		t.Fatalf("failed login must clear identity: %+v", snap)
	}
	if tokens.Token != "" {
		t.Fatalf("failed login must not persist a token")
	}
}

func TestLoginMalformedSuccessBody(t *testing.T) {
	backend, srv := newStubBackend(t)
	backend.mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"unexpected": true})
	})
	flow, _ := newFlow(t, srv)
	if err := flow.Login(context.Background(), "ada", "supersecret"); err == nil {
		t.Fatalf("expected structural failure")
	}
	if got := flow.Store().Snapshot().Status; got != session.StatusFailed {
		t.Fatalf("status %s", got)
	}
}

func TestRegisterDoesNotAuthenticate(t *testing.T) {
	backend, srv := newStubBackend(t)
	backend.mux.HandleFunc("/api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"message": "ok", "otp_sent": true})
	})
	flow, _ := newFlow(t, srv)
	res, err := flow.Register(context.Background(), "Ada", "ada", "ada@example.com", "supersecret", "supersecret")
	if err != nil || !res.OK {
		t.Fatalf("register: %v %v", err, res.Errors)
	}
	if got := flow.Store().Snapshot().Status; got != session.StatusAnonymous {
		t.Fatalf("registration must not authenticate, status %s", got)
	}
	if !flow.AwaitingVerification() || flow.PendingEmail() != "ada@example.com" {
		t.Fatalf("expected awaiting verification for ada@example.com")
	}
}

func TestRegisterValidatesLocallyFirst(t *testing.T) {
	backend, srv := newStubBackend(t)
	flow, _ := newFlow(t, srv)
	res, err := flow.Register(context.Background(), "Ada", "ada", "ada@example.com", "supersecret", "other-secret")
	if err != nil {
		t.Fatalf("local validation failure is not an error: %v", err)
	}
	if res.OK {
		t.Fatalf("expected confirm mismatch")
	}
	if len(backend.requests) != 0 {
		t.Fatalf("invalid form must not reach the backend: %v", backend.requests)
	}
}

func TestVerifyOTPChecksShapeLocally(t *testing.T) {
	backend, srv := newStubBackend(t)
	flow, _ := newFlow(t, srv)
	if err := flow.VerifyOTP(context.Background(), "ada@example.com", "12345"); err == nil {
		t.Fatalf("5-digit code must fail")
	}
	if err := flow.VerifyOTP(context.Background(), "ada@example.com", "12345a"); err == nil {
		t.Fatalf("non-digit code must fail")
	}
	if len(backend.requests) != 0 {
		t.Fatalf("malformed codes must not reach the backend: %v", backend.requests)
	}
}

func TestVerifyOTPClearsAwaiting(t *testing.T) {
	backend, srv := newStubBackend(t)
	backend.mux.HandleFunc("/api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"otp_sent": true})
	})
	backend.mux.HandleFunc("/api/auth/verify-otp", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"message": "verified"})
	})
	flow, _ := newFlow(t, srv)
	flow.Register(context.Background(), "Ada", "ada", "ada@example.com", "supersecret", "supersecret")
	if err := flow.VerifyOTP(context.Background(), "ada@example.com", "123456"); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if flow.AwaitingVerification() {
		t.Fatalf("verification did not clear the pending flag")
	}
	if got := flow.Store().Snapshot().Status; got != session.StatusAnonymous {
		t.Fatalf("verification must not authenticate, status %s", got)
	}
}

func TestResetPasswordAlwaysSucceeds(t *testing.T) {
	backend, srv := newStubBackend(t)
	backend.mux.HandleFunc("/api/auth/reset-password", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, apiErrorBody("boom"))
	})
	flow, _ := newFlow(t, srv)
	if err := flow.RequestPasswordReset(context.Background(), "ada@example.com"); err != nil {
		t.Fatalf("reset must swallow backend errors: %v", err)
	}
	if err := flow.RequestPasswordReset(context.Background(), "nobody@example.com"); err != nil {
		t.Fatalf("reset for unknown account: %v", err)
	}
}

func TestBootstrapUsesStoredToken(t *testing.T) {
	backend, srv := newStubBackend(t)
	backend.mux.HandleFunc("/api/auth/profile", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-old" {
			writeJSON(w, http.StatusUnauthorized, apiErrorBody("authentication required"))
			return
		}
		writeJSON(w, http.StatusOK, loginBody("")["user"])
	})
	tokens := &session.MemoryTokenStore{Token: "tok-old"}
	store := session.NewStore(tokens)
	flow := authflow.New(bizdesksdk.New(srv.URL), store, validation.Default())
	if err := flow.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	snap := store.Snapshot()
	if !snap.Authenticated() || snap.User.ID != "u-1" {
		t.Fatalf("expected restored session: %+v", snap)
	}
}

func TestBootstrapDropsRejectedToken(t *testing.T) {
	backend, srv := newStubBackend(t)
	backend.mux.HandleFunc("/api/auth/profile", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, apiErrorBody("authentication required"))
	})
	tokens := &session.MemoryTokenStore{Token: "tok-stale"}
	store := session.NewStore(tokens)
	flow := authflow.New(bizdesksdk.New(srv.URL), store, validation.Default())
	if err := flow.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if store.Snapshot().Status != session.StatusAnonymous {
		t.Fatalf("rejected token must land anonymous")
	}
	if tokens.Token != "" {
		t.Fatalf("stale token kept in storage")
	}
}

func TestUpdateProfileRequiresSession(t *testing.T) {
	_, srv := newStubBackend(t)
	flow, _ := newFlow(t, srv)
	name := "New Name"
	if _, err := flow.UpdateProfile(context.Background(), bizdesksdk.ProfileUpdate{Name: &name}); err != authflow.ErrNotAuthenticated {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}
