/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package stash

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"houbevy/internal/geom"
	"houbevy/internal/headless"
)

func openTemp(t *testing.T) *Stash {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "stash.sqlite"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleGeometry() *headless.Geometry {
	g := headless.NewGeometry()
	_, _ = g.AddPolygon([]geom.Vec3{
		geom.NewVec3(0, 0, 0), geom.NewVec3(4, 0, 0), geom.NewVec3(4, 3, 0), geom.NewVec3(0, 3, 0),
	})
	_ = g.SetPrimString(0, "name", "ground")
	return g
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	if err := s.Save(ctx, "platformer1", sampleGeometry()); err != nil {
		t.Fatal(err)
	}
	g, err := s.Load(ctx, "platformer1")
	if err != nil {
		t.Fatal(err)
	}
	if g.NumPrims() != 1 || g.NumPoints() != 4 {
		t.Fatalf("loaded prims=%d points=%d", g.NumPrims(), g.NumPoints())
	}
	if name, _ := g.PrimString(0, "name"); name != "ground" {
		t.Fatalf("prim attribute lost: %q", name)
	}

	// overwrite
	g2 := sampleGeometry()
	_, _ = g2.AddPolygon([]geom.Vec3{geom.NewVec3(5, 5, 0), geom.NewVec3(6, 5, 0), geom.NewVec3(6, 6, 0)})
	if err := s.Save(ctx, "platformer1", g2); err != nil {
		t.Fatal(err)
	}
	nodes, err := s.Nodes(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 1 || nodes[0].Node != "platformer1" || nodes[0].Prims != 2 || nodes[0].UpdatedAt.IsZero() {
		t.Fatalf("unexpected nodes %+v", nodes)
	}
}

func TestLoadMissing(t *testing.T) {
	s := openTemp(t)
	if _, err := s.Load(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	_ = s.Save(ctx, "a", sampleGeometry())
	_ = s.Save(ctx, "b", sampleGeometry())
	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("deleting a missing node: %v", err)
	}
	nodes, _ := s.Nodes(ctx)
	if len(nodes) != 1 || nodes[0].Node != "b" {
		t.Fatalf("unexpected nodes %+v", nodes)
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stash.sqlite")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	_ = s.Save(context.Background(), "n", sampleGeometry())
	_ = s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if _, err := s.Load(context.Background(), "n"); err != nil {
		t.Fatalf("data lost across reopen: %v", err)
	}
}

func TestMigratesVersionOneFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.sqlite")
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s", filepath.ToSlash(path)))
	if err != nil {
		t.Fatal(err)
	}
	blob, _ := sampleGeometry().Snapshot()
	stmts := []string{
		`CREATE TABLE version (id INTEGER PRIMARY KEY CHECK(id=1), schema INTEGER NOT NULL, app TEXT, created_at TEXT NOT NULL, updated_at TEXT NOT NULL);`,
		`INSERT INTO version VALUES(1, 1, 'old', '2025-01-01T00:00:00Z', '2025-01-01T00:00:00Z');`,
		`CREATE TABLE stash (node TEXT PRIMARY KEY, geometry BLOB NOT NULL, updated_at TEXT NOT NULL);`,
	}
	for _, q := range stmts {
		if _, err := db.Exec(q); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := db.Exec(`INSERT INTO stash VALUES('legacy', ?, '2025-01-01T00:00:00Z')`, blob); err != nil {
		t.Fatal(err)
	}
	_ = db.Close()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open old file: %v", err)
	}
	defer s.Close()
	var schema int
	if err := s.db.QueryRow(`SELECT schema FROM version WHERE id=1`).Scan(&schema); err != nil || schema != schemaVersion {
		t.Fatalf("schema = %d, %v", schema, err)
	}
	nodes, err := s.Nodes(context.Background())
	if err != nil || len(nodes) != 1 || nodes[0].Prims != 0 {
		t.Fatalf("unexpected nodes %+v, %v", nodes, err)
	}
	if _, err := s.Load(context.Background(), "legacy"); err != nil {
		t.Fatalf("legacy geometry unreadable: %v", err)
	}
}
