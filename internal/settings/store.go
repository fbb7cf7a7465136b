// Package settings persists per-node-type enabled flags in SQLite so they
// survive restarts.
//
// A Store that is read-only, closed, or was never opened reports itself as
// unavailable. The registry refuses every mutation while settings are
// unavailable.
package settings

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/specialistvlad/nodereg/internal/settings/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for node type state.
type Store struct {
	sqlDB    *sql.DB
	readOnly bool
}

// Option configures a Store.
type Option func(*Store)

// ReadOnly marks the store as unavailable for changes. Persisted state can
// still be read.
func ReadOnly() Option {
	return func(s *Store) { s.readOnly = true }
}

// Open opens and migrates a settings database.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("settings path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	s := &Store{sqlDB: sqlDB}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close releases the database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	err := s.sqlDB.Close()
	s.sqlDB = nil
	return err
}

// Available reports whether the store accepts changes.
func (s *Store) Available() bool {
	return s != nil && s.sqlDB != nil && !s.readOnly
}

// NodeStates returns the persisted enabled flag of every node type, keyed by
// node type name.
func (s *Store) NodeStates(ctx context.Context) (map[string]bool, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("settings are not configured")
	}
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT node_type, enabled FROM node_state`)
	if err != nil {
		return nil, fmt.Errorf("list node state: %w", err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var name string
		var enabled int64
		if err := rows.Scan(&name, &enabled); err != nil {
			return nil, fmt.Errorf("scan node state: %w", err)
		}
		out[name] = enabled != 0
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate node state: %w", err)
	}
	return out, nil
}

// SaveNodeState records the enabled flag of a node type.
func (s *Store) SaveNodeState(ctx context.Context, module, nodeType string, enabled bool) error {
	if !s.Available() {
		return fmt.Errorf("settings are not available")
	}
	flag := 0
	if enabled {
		flag = 1
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO node_state (node_type, module, enabled, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(node_type) DO UPDATE SET
		    module = excluded.module,
		    enabled = excluded.enabled,
		    updated_at = excluded.updated_at`,
		nodeType, module, flag, time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save node state: %w", err)
	}
	return nil
}

// DeleteModule forgets the state of every node type of module.
func (s *Store) DeleteModule(ctx context.Context, module string) error {
	if !s.Available() {
		return fmt.Errorf("settings are not available")
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM node_state WHERE module = ?`, module); err != nil {
		return fmt.Errorf("delete module state: %w", err)
	}
	return nil
}
