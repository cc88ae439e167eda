// Package guard decides whether a navigation target renders bare, renders
// inside the authenticated shell, or redirects to the login entry point.
package guard

import (
	"bizdesk/internal/config"
	"bizdesk/internal/session"
)

// Route is one entry of the static navigation surface.
type Route struct {
	Path      string
	Protected bool
}

// Render is the guard's verdict for a target.
type Render string

const (
	RenderTarget   Render = "target"
	RenderInShell  Render = "target-in-shell"
	RenderRedirect Render = "redirect"
)

// Decision carries the verdict. On redirect, ReturnTo preserves the
// originally requested path so login can send the user back.
type Decision struct {
	Render     Render
	RedirectTo string
	ReturnTo   string
}

// Guard resolves targets against a fixed route table. Routes are not
// registered at runtime.
type Guard struct {
	loginPath string
	routes    map[string]Route
	order     []string
}

// New builds a guard from a route table and the login entry point.
func New(loginPath string, routes []Route) *Guard {
	g := &Guard{loginPath: loginPath, routes: map[string]Route{}}
	for _, r := range routes {
		if _, ok := g.routes[r.Path]; ok {
			continue
		}
		g.routes[r.Path] = r
		g.order = append(g.order, r.Path)
	}
	return g
}

// FromConfig builds a guard from the config route table.
func FromConfig(cfg *config.Config) *Guard {
	routes := make([]Route, 0, len(cfg.Routes.Table))
	for _, r := range cfg.Routes.Table {
		routes = append(routes, Route{Path: r.Path, Protected: r.Protected})
	}
	return New(cfg.Routes.LoginPath, routes)
}

// LoginPath returns the login entry point.
func (g *Guard) LoginPath() string { return g.loginPath }

// Routes returns the table in declared order.
func (g *Guard) Routes() []Route {
	out := make([]Route, 0, len(g.order))
	for _, p := range g.order {
		out = append(out, g.routes[p])
	}
	return out
}

// Lookup finds a route by path.
func (g *Guard) Lookup(path string) (Route, bool) {
	r, ok := g.routes[path]
	return r, ok
}

// Resolve decides renderability of a target for the given session state.
// Unprotected targets always render bare; protected targets render inside the
// shell when authenticated and redirect to login otherwise.
func (g *Guard) Resolve(target Route, snap session.Snapshot) Decision {
	if !target.Protected {
		return Decision{Render: RenderTarget}
	}
	if snap.Status == session.StatusAuthenticated {
		return Decision{Render: RenderInShell}
	}
	return Decision{Render: RenderRedirect, RedirectTo: g.loginPath, ReturnTo: target.Path}
}

// ResolvePath resolves by path lookup. Unknown paths redirect to login.
func (g *Guard) ResolvePath(path string, snap session.Snapshot) Decision {
	target, ok := g.Lookup(path)
	if !ok {
		return Decision{Render: RenderRedirect, RedirectTo: g.loginPath, ReturnTo: path}
	}
	return g.Resolve(target, snap)
}

// Watch re-resolves a mounted target whenever the session changes, forcing a
// redirect if the status drops below authenticated while the target is
// protected.
func (g *Guard) Watch(store *session.Store, target Route, fn func(Decision)) {
	store.OnChange(func(snap session.Snapshot) {
		fn(g.Resolve(target, snap))
	})
}
