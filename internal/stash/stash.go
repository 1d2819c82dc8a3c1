/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package stash persists headless node geometry in a local SQLite file, the
// way the host keeps authored geometry inside a node's stash parameter.
package stash

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"houbevy/internal/headless"
	applog "houbevy/internal/log"
	"houbevy/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

// schemaVersion tracks the stash schema. Bump it and add a migration step on breaking changes.
const schemaVersion = 2

// ErrNotFound is returned by Load for nodes that were never saved.
var ErrNotFound = errors.New("stash: node not found")

// Entry summarizes one stored node.
type Entry struct {
	Node      string
	Prims     int
	UpdatedAt time.Time
}

// Stash is an open stash database.
type Stash struct {
	db   *sql.DB
	path string
	log  *slog.Logger
}

// Open creates or opens the stash file, enables WAL and brings the schema up to date.
func Open(path string) (*Stash, error) {
	l := applog.WithOperation(applog.WithComponent("stash"), "open").With(slog.String("path", path))
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("stash path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create stash dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}
	l.Debug("stash ready")
	return &Stash{db: db, path: path, log: applog.WithComponent("stash")}, nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS version (
			id         INTEGER PRIMARY KEY CHECK(id=1),
			schema     INTEGER NOT NULL,
			app        TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	var cur int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS stash (
			node       TEXT PRIMARY KEY,
			geometry   BLOB    NOT NULL,
			prims      INTEGER NOT NULL DEFAULT 0,
			updated_at TEXT    NOT NULL
		);`); err != nil {
			return fmt.Errorf("create stash table: %w", err)
		}
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, version.String(), now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, version.String(), now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// runMigrations upgrades stash files written by older builds.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			// prim count for listings without decoding the blob
			stmts = []string{`ALTER TABLE stash ADD COLUMN prims INTEGER NOT NULL DEFAULT 0;`}
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		cur = next
	}
	return nil
}

func (s *Stash) Path() string { return s.path }

// Save stores geo under node, replacing any earlier geometry.
func (s *Stash) Save(ctx context.Context, node string, geo *headless.Geometry) error {
	blob, err := geo.Snapshot()
	if err != nil {
		return fmt.Errorf("stash %s: %w", node, err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(ctx, `INSERT INTO stash (node, geometry, prims, updated_at) VALUES(?, ?, ?, ?)
		ON CONFLICT(node) DO UPDATE SET geometry=excluded.geometry, prims=excluded.prims, updated_at=excluded.updated_at`,
		node, blob, geo.NumPrims(), now)
	if err != nil {
		return fmt.Errorf("stash %s: %w", node, err)
	}
	s.log.Debug("geometry stashed", slog.String("node", node), slog.Int("prims", geo.NumPrims()), slog.Int("bytes", len(blob)))
	return nil
}

// Load returns the geometry stored for node.
func (s *Stash) Load(ctx context.Context, node string) (*headless.Geometry, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT geometry FROM stash WHERE node=?`, node).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, node)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", node, err)
	}
	geo := headless.NewGeometry()
	if err := geo.Restore(blob); err != nil {
		return nil, fmt.Errorf("load %s: %w", node, err)
	}
	return geo, nil
}

// Delete drops node; missing nodes are not an error.
func (s *Stash) Delete(ctx context.Context, node string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM stash WHERE node=?`, node); err != nil {
		return fmt.Errorf("delete %s: %w", node, err)
	}
	return nil
}

// Nodes lists stored nodes by name.
func (s *Stash) Nodes(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT node, prims, updated_at FROM stash ORDER BY node`)
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		var ts string
		if err := rows.Scan(&e.Node, &e.Prims, &ts); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		e.UpdatedAt, _ = time.Parse(time.RFC3339Nano, ts)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Stash) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
