package app

import (
	"database/sql"
	"fmt"
	"time"

	"bizdesk/internal/authflow"
	"bizdesk/internal/config"
	"bizdesk/internal/db"
	"bizdesk/internal/events"
	"bizdesk/internal/guard"
	"bizdesk/internal/migrate"
	"bizdesk/internal/repo"
	"bizdesk/internal/session"
	"bizdesk/internal/validation"
	bizdesksdk "bizdesk/sdk/go"
)

// Env bundles the server-side workspace resources a command needs.
type Env struct {
	Workspace string
	Config    *config.Config
	DB        *sql.DB
	Repo      repo.Repo
	Events    events.Writer
}

// OpenEnv prepares the workspace database and loads the workspace config,
// falling back to the built-in defaults when no config file exists.
func OpenEnv(workspace string) (*Env, error) {
	conn, err := db.Open(workspace)
	if err != nil {
		return nil, err
	}
	if err := migrate.Migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if cfg == nil {
		cfg = config.Default()
	}
	return &Env{
		Workspace: workspace,
		Config:    cfg,
		DB:        conn,
		Repo:      repo.Repo{DB: conn},
		Events:    events.Writer{DB: conn, Now: time.Now},
	}, nil
}

func (e *Env) Close() error {
	if e.DB == nil {
		return nil
	}
	return e.DB.Close()
}

// Client bundles the client-side pieces: the SDK client, the session store
// backed by the workspace token file, the auth flow and the route guard.
type Client struct {
	Workspace string
	Config    *config.Config
	SDK       *bizdesksdk.Client
	Rules     *validation.Table
	Session   *session.Store
	Flow      *authflow.Flow
	Guard     *guard.Guard
}

// NewClient wires the client stack for a workspace against a server URL.
// It does not contact the server; call Flow.Bootstrap to restore a session.
func NewClient(workspace, serverURL string) (*Client, error) {
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.Default()
	}
	rules, err := validation.FromConfig(cfg)
	if err != nil {
		return nil, err
	}
	store := session.NewStore(session.FileTokenStore{Workspace: workspace})
	sdk := bizdesksdk.New(serverURL)
	return &Client{
		Workspace: workspace,
		Config:    cfg,
		SDK:       sdk,
		Rules:     rules,
		Session:   store,
		Flow:      authflow.New(sdk, store, rules),
		Guard:     guard.FromConfig(cfg),
	}, nil
}
