/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	"errors"
	"testing"

	"houbevy/internal/geom"
)

func unitUV() []geom.Vec2 {
	return []geom.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
}

func mustRect(t *testing.T, w, h, x, y, z float64) Rect {
	t.Helper()
	r, err := NewRect(geom.NewVec2(w, h), geom.NewVec3(x, y, z), unitUV())
	if err != nil {
		t.Fatalf("NewRect: %v", err)
	}
	return r
}

func TestNewRectUVCount(t *testing.T) {
	for _, n := range []int{0, 3, 5} {
		uv := make([]geom.Vec2, n)
		if _, err := NewRect(geom.SplatVec2(1), geom.Vec3{}, uv); !errors.Is(err, ErrUVCount) {
			t.Errorf("%d uvs: expected ErrUVCount, got %v", n, err)
		}
	}
	r, err := NewRect(geom.NewVec2(2, 3), geom.NewVec3(1, 2, 3), unitUV())
	if err != nil {
		t.Fatalf("4 uvs rejected: %v", err)
	}
	if r.UV[2] != (geom.Vec2{X: 1, Y: 1}) || r.Size != (geom.Vec2{X: 2, Y: 3}) {
		t.Fatalf("rect fields not stored: %+v", r)
	}
}

func TestCreateLayerIsIdempotent(t *testing.T) {
	d := New()
	d.CreateLayer("ground")
	d.Layer("ground").AppendRect(mustRect(t, 1, 1, 0, 0, 0))
	d.CreateLayer("ground")
	if d.Len() != 1 {
		t.Fatalf("Len = %d, want 1", d.Len())
	}
	if got := len(d.Layer("ground").Rects()); got != 1 {
		t.Fatalf("CreateLayer replaced existing layer, rects = %d", got)
	}
}

func TestLayerGetCreatesLazily(t *testing.T) {
	d := New()
	if _, ok := d.Lookup("bg"); ok {
		t.Fatalf("Lookup created a layer")
	}
	l := d.Layer("bg")
	if l == nil || d.Len() != 1 {
		t.Fatalf("Layer did not create")
	}
	if l.RectPresence() != Absent || l.MeshPresence() != Absent {
		t.Fatalf("fresh layer should have both kinds absent")
	}
	if d.Layer("bg") != l {
		t.Fatalf("second Layer call returned a different layer")
	}
}

func TestAppendDispatchesByKind(t *testing.T) {
	d := New()
	if err := d.Append("ground", mustRect(t, 1, 1, 0, 0, 0)); err != nil {
		t.Fatal(err)
	}
	if err := d.Append("2d_mesh", Mesh2D{ID: 7}); err != nil {
		t.Fatal(err)
	}
	r := mustRect(t, 2, 2, 1, 1, 0)
	if err := d.Append("ground", &r); err != nil {
		t.Fatal(err)
	}
	if err := d.Append("ground", nil); err == nil {
		t.Fatalf("nil primitive accepted")
	}

	ground, _ := d.Lookup("ground")
	if ground.RectPresence() != Populated || ground.MeshPresence() != Absent {
		t.Fatalf("ground presence = %v/%v", ground.RectPresence(), ground.MeshPresence())
	}
	if len(ground.Rects()) != 2 {
		t.Fatalf("ground rects = %d", len(ground.Rects()))
	}
	mesh, _ := d.Lookup("2d_mesh")
	if mesh.MeshPresence() != Populated || mesh.RectPresence() != Absent || mesh.Meshes()[0].ID != 7 {
		t.Fatalf("mesh layer mismatch: %+v", mesh)
	}
	if got := d.Names(); len(got) != 2 || got[0] != "ground" || got[1] != "2d_mesh" {
		t.Fatalf("Names = %v", got)
	}
	if rects, meshes := d.Counts(); rects != 2 || meshes != 1 {
		t.Fatalf("Counts = %d/%d", rects, meshes)
	}
}

func TestPresenceIsThreeValued(t *testing.T) {
	l := NewLayer()
	if l.RectPresence() != Absent {
		t.Fatalf("want absent")
	}
	l.SetRects(nil)
	if l.RectPresence() != Empty {
		t.Fatalf("want empty after SetRects(nil), got %v", l.RectPresence())
	}
	l.AppendRect(Rect{})
	if l.RectPresence() != Populated {
		t.Fatalf("want populated")
	}
	if l.MeshPresence() != Absent {
		t.Fatalf("mesh presence leaked from rects")
	}
	if Presence(9).String() != "Presence(9)" || Empty.String() != "empty" {
		t.Fatalf("Presence.String mismatch")
	}
}

func TestLayerEqualSeesPresence(t *testing.T) {
	a, b := NewLayer(), NewLayer()
	if !a.Equal(b) {
		t.Fatalf("two fresh layers differ")
	}
	b.SetMeshes(nil)
	if a.Equal(b) {
		t.Fatalf("absent and empty mesh lists compared equal")
	}
	a.SetMeshes([]Mesh2D{})
	if !a.Equal(b) {
		t.Fatalf("two empty mesh lists differ")
	}
}
