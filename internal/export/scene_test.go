/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"errors"
	"path/filepath"
	"testing"

	"houbevy/internal/geom"
	"houbevy/internal/headless"
	applog "houbevy/internal/log"
	"houbevy/internal/scene"
)

var quad = []geom.Vec3{
	geom.NewVec3(0, 0, 0),
	geom.NewVec3(4, 0, 0),
	geom.NewVec3(4, 2, 0),
	geom.NewVec3(0, 2, 0),
}

func testOpts() Options {
	return Options{DeriveRects: true, Validate: true, Logger: applog.Discard()}
}

// typedPrim adds a quad carrying prepared rect attributes.
func typedPrim(t *testing.T, g *headless.Geometry, layer, typ string, uv ...float64) {
	t.Helper()
	n, err := g.AddPolygon(quad)
	if err != nil {
		t.Fatal(err)
	}
	_ = g.SetPrimString(n, AttrName, layer)
	_ = g.SetPrimString(n, AttrType, typ)
	_ = g.SetPrimFloats(n, AttrCenter, 2, 1, 3)
	_ = g.SetPrimFloats(n, AttrSize, 4, 2, 0)
	if uv != nil {
		_ = g.SetPrimFloats(n, AttrUV, uv...)
	}
}

var uv4 = []float64{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0}

func TestBuildLayers(t *testing.T) {
	g := headless.NewGeometry()
	typedPrim(t, g, "ground", TypeRect, uv4...)
	typedPrim(t, g, "decor", "Sprite")
	typedPrim(t, g, "ground", TypeRect, uv4...)
	if _, err := g.AddPolygon(quad); err != nil {
		t.Fatal(err)
	}
	if _, err := g.AddPolygon(quad[:3]); err != nil {
		t.Fatal(err)
	}
	g.SetDetailFloats(AttrPList, 0, 0, 0, 1, 0, 0, 1, 1, 0)
	g.SetDetailFloats(AttrNormals, 0, 0, 1, 0, 0, 1, 0, 0, 1)
	g.SetDetailInts(AttrIndices, 0, 1, 2)
	g.SetDetailFloats(AttrZ, -1)

	data, err := Build(g, testOpts())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	names := data.Names()
	want := []string{"ground", "decor", "platform", "2d_mesh"}
	if len(names) != len(want) {
		t.Fatalf("layers = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("layers = %v, want %v", names, want)
		}
	}

	ground, _ := data.Lookup("ground")
	if len(ground.Rects()) != 2 {
		t.Fatalf("ground rects = %d", len(ground.Rects()))
	}
	r := ground.Rects()[0]
	if r.Translation != geom.NewVec3(2, 1, 3) || r.Size != geom.NewVec2(4, 2) || r.UV[2] != geom.NewVec2(1, 1) {
		t.Fatalf("unexpected rect %+v", r)
	}

	decor, _ := data.Lookup("decor")
	if decor.RectPresence() != scene.Absent || decor.MeshPresence() != scene.Absent {
		t.Fatalf("unknown type should leave an empty layer")
	}

	platform, _ := data.Lookup("platform")
	if len(platform.Rects()) != 1 {
		t.Fatalf("derived rects = %d, want 1 (triangles are not rects)", len(platform.Rects()))
	}
	d := platform.Rects()[0]
	if d.Translation != geom.NewVec3(2, 1, 0) || d.Size != geom.NewVec2(4, 2) || d.UV[0] != geom.NewVec2(0, 0) {
		t.Fatalf("unexpected derived rect %+v", d)
	}

	mesh, _ := data.Lookup("2d_mesh")
	if len(mesh.Meshes()) != 1 {
		t.Fatalf("meshes = %d", len(mesh.Meshes()))
	}
	m := mesh.Meshes()[0]
	if len(m.Vertices) != 3 || m.Vertices[2] != geom.NewVec2(1, 1) || len(m.Normals) != 3 || len(m.Indices) != 3 || m.Z != -1 || m.ID != 0 {
		t.Fatalf("unexpected mesh %+v", m)
	}
}

func TestBuildWithoutDerive(t *testing.T) {
	g := headless.NewGeometry()
	_, _ = g.AddPolygon(quad)
	opts := testOpts()
	opts.DeriveRects = false
	data, err := Build(g, opts)
	if err != nil {
		t.Fatal(err)
	}
	if data.Len() != 0 {
		t.Fatalf("expected no layers, got %v", data.Names())
	}
}

func TestBuildRejectsBadUV(t *testing.T) {
	tests := []struct {
		name string
		uv   []float64
		want error
	}{
		{"three uvs", uv4[:9], scene.ErrUVCount},
		{"five uvs", append(append([]float64(nil), uv4...), 1, 1, 0), scene.ErrUVCount},
		{"ragged list", uv4[:10], geom.ErrFlatLength},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := headless.NewGeometry()
			typedPrim(t, g, "ground", TypeRect, tt.uv...)
			if _, err := Build(g, testOpts()); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestBuildRejectsShortCenter(t *testing.T) {
	g := headless.NewGeometry()
	typedPrim(t, g, "ground", TypeRect, uv4...)
	_ = g.SetPrimFloats(0, AttrCenter, 1, 2)
	if _, err := Build(g, testOpts()); err == nil {
		t.Fatalf("expected an error for a 2-component center")
	}
}

func TestRunWritesValidatedScene(t *testing.T) {
	g := headless.NewGeometry()
	typedPrim(t, g, "ground", TypeRect, uv4...)
	_, _ = g.AddPolygon(quad)

	path := filepath.Join(t.TempDir(), "out", "level.json")
	data, err := Run(g, path, testOpts())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	back, err := scene.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !back.Equal(data) {
		t.Fatalf("file content differs from the built scene")
	}
}
