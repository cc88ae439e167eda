package guard_test

import (
	"testing"

	"bizdesk/internal/config"
	"bizdesk/internal/domain"
	"bizdesk/internal/guard"
	"bizdesk/internal/session"
)

func newGuard() *guard.Guard {
	return guard.FromConfig(config.Default())
}

func anonymous() session.Snapshot {
	return session.Snapshot{Status: session.StatusAnonymous}
}

func authenticated() session.Snapshot {
	u := domain.User{ID: "u-1", Username: "ada"}
	return session.Snapshot{User: &u, Token: "tok", Status: session.StatusAuthenticated}
}

func TestUnprotectedAlwaysRendersBare(t *testing.T) {
	g := newGuard()
	for _, snap := range []session.Snapshot{anonymous(), authenticated()} {
		d := g.ResolvePath("/login", snap)
		if d.Render != guard.RenderTarget {
			t.Fatalf("login for %s: %v", snap.Status, d)
		}
	}
}

func TestProtectedRendersInShellWhenAuthenticated(t *testing.T) {
	g := newGuard()
	d := g.ResolvePath("/dashboard", authenticated())
	if d.Render != guard.RenderInShell {
		t.Fatalf("expected in-shell render: %v", d)
	}
}

func TestProtectedRedirectsWithReturnTo(t *testing.T) {
	g := newGuard()
	for _, snap := range []session.Snapshot{
		anonymous(),
		{Status: session.StatusAuthenticating},
		{Status: session.StatusFailed, LastError: "nope"},
	} {
		d := g.ResolvePath("/reports", snap)
		if d.Render != guard.RenderRedirect {
			t.Fatalf("status %s: %v", snap.Status, d)
		}
		if d.RedirectTo != "/login" || d.ReturnTo != "/reports" {
			t.Fatalf("redirect should carry return path: %v", d)
		}
	}
}

func TestUnknownPathRedirects(t *testing.T) {
	g := newGuard()
	d := g.ResolvePath("/no-such-page", authenticated())
	if d.Render != guard.RenderRedirect || d.RedirectTo != "/login" {
		t.Fatalf("unknown path: %v", d)
	}
}

func TestWatchReResolvesOnSessionChange(t *testing.T) {
	g := newGuard()
	store := session.NewStore(&session.MemoryTokenStore{})
	target, ok := g.Lookup("/dashboard")
	if !ok {
		t.Fatalf("dashboard route missing")
	}
	var decisions []guard.Decision
	g.Watch(store, target, func(d guard.Decision) { decisions = append(decisions, d) })

	store.BeginAuth()
	store.CompleteAuth(domain.User{ID: "u-1"}, "tok")
	store.Logout()

	if len(decisions) != 3 {
		t.Fatalf("expected 3 re-resolutions, got %d", len(decisions))
	}
	if decisions[1].Render != guard.RenderInShell {
		t.Fatalf("after login: %v", decisions[1])
	}
	if decisions[2].Render != guard.RenderRedirect {
		t.Fatalf("after logout the mounted route must force a redirect: %v", decisions[2])
	}
}

func TestRouteTableIsStatic(t *testing.T) {
	g := newGuard()
	routes := g.Routes()
	routes[0].Protected = !routes[0].Protected
	fresh, _ := g.Lookup(routes[0].Path)
	if fresh.Protected == routes[0].Protected {
		t.Fatalf("Routes must return a copy of the table")
	}
}
