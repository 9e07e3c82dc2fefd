/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Seednode/fishbowl/games/fishbowl"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// SQLite stores one row per session holding its JSON snapshot.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens the database at path, creating the schema if needed.
func OpenSQLite(path string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("database path is required")
	}

	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLite) Save(ctx context.Context, id string, st fishbowl.State) error {
	payload, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", id, err)
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO sessions (id, state_json, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		    state_json = excluded.state_json,
		    updated_at = excluded.updated_at`,
		id,
		payload,
		time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save session %s: %w", id, err)
	}

	return nil
}

func (s *SQLite) Load(ctx context.Context, id string) (fishbowl.State, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT state_json FROM sessions WHERE id = ?`, id).Scan(&payload)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fishbowl.State{}, ErrNotFound
	case err != nil:
		return fishbowl.State{}, fmt.Errorf("load session %s: %w", id, err)
	}

	var st fishbowl.State
	if err := json.Unmarshal(payload, &st); err != nil {
		return fishbowl.State{}, fmt.Errorf("decode session %s: %w", id, err)
	}

	return st, nil
}

func (s *SQLite) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}

	return nil
}

func (s *SQLite) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM sessions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}
