// Package db opens the per-workspace tripline database. A workspace is any
// directory the user plans from; the store lives under .tripline/ inside it
// so trips travel with the folder they describe.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const (
	workspaceDir = ".tripline"
	dbFile       = "tripline.db"
)

type Config struct {
	Workspace string
}

// EnsureWorkspace creates the .tripline directory inside the workspace.
func EnsureWorkspace(workspace string) (string, error) {
	dir := filepath.Join(workspace, workspaceDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create tripline workspace: %w", err)
	}
	return dir, nil
}

// Open opens the workspace database, creating it if needed. Foreign keys
// are on so activities cannot outlive their trip; the single-connection
// limit keeps the pure-Go driver from tripping over concurrent writers.
func Open(cfg Config) (*sql.DB, error) {
	if _, err := EnsureWorkspace(cfg.Workspace); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", Path(cfg.Workspace))
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open workspace db: %w", err)
	}
	conn.SetMaxOpenConns(1)
	return conn, nil
}

// Path returns the database file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, workspaceDir, dbFile)
}
