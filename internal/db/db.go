// Package db opens the per-workspace SQLite store kept under .bizdesk/.
package db

import (
	"database/sql"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const storeFile = "bizdesk.db"

// Open creates the workspace state directory if missing and opens the
// SQLite store inside it, with foreign key enforcement on.
func Open(workspace string) (*sql.DB, error) {
	dir := stateDir(workspace)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	dsn := "file:" + filepath.Join(dir, storeFile) + "?cache=shared&_pragma=foreign_keys(1)"
	return sql.Open("sqlite", dsn)
}

func stateDir(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, ".bizdesk")
}
