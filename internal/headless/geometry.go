/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package headless is an in-memory host for the authoring tools. It backs the
// replay sessions, the export pass and the tests without a 3D application.
package headless

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"

	"houbevy/internal/geom"
	"houbevy/internal/host"
)

// ErrDegenerate is returned when a polygon has fewer than three vertices.
var ErrDegenerate = errors.New("polygon needs at least 3 points")

const planeEps = 1e-12

// Prim is a closed polygon referencing points by number, with optional attributes.
type Prim struct {
	Vertices []int                `json:"vertices"`
	Strings  map[string]string    `json:"strings,omitempty"`
	Floats   map[string][]float64 `json:"floats,omitempty"`
}

// Detail holds geometry-wide attributes.
type Detail struct {
	Floats map[string][]float64 `json:"floats,omitempty"`
	Ints   map[string][]int     `json:"ints,omitempty"`
}

// Geometry is a point/polygon container implementing host.Geometry.
// The zero value is an empty geometry ready for use.
type Geometry struct {
	Points []geom.Vec3 `json:"points"`
	Prims  []Prim      `json:"prims"`
	Detail Detail      `json:"detail"`
}

var _ host.Geometry = (*Geometry)(nil)

func NewGeometry() *Geometry { return &Geometry{} }

func (g *Geometry) NumPoints() int { return len(g.Points) }
func (g *Geometry) NumPrims() int  { return len(g.Prims) }

// AddPoint appends a loose point and returns its number.
func (g *Geometry) AddPoint(p geom.Vec3) int {
	g.Points = append(g.Points, p)
	return len(g.Points) - 1
}

// AddPolygon creates one new point per position and a closed polygon through them.
func (g *Geometry) AddPolygon(pts []geom.Vec3) (int, error) {
	if len(pts) < 3 {
		return -1, fmt.Errorf("add polygon with %d points: %w", len(pts), ErrDegenerate)
	}
	verts := make([]int, len(pts))
	for i, p := range pts {
		verts[i] = g.AddPoint(p)
	}
	g.Prims = append(g.Prims, Prim{Vertices: verts})
	return len(g.Prims) - 1, nil
}

func (g *Geometry) prim(n int) (*Prim, error) {
	if n < 0 || n >= len(g.Prims) {
		return nil, fmt.Errorf("prim %d: %w", n, host.ErrNoPrim)
	}
	return &g.Prims[n], nil
}

// PrimPoints returns the vertex positions of prim n in winding order.
func (g *Geometry) PrimPoints(n int) ([]geom.Vec3, error) {
	p, err := g.prim(n)
	if err != nil {
		return nil, err
	}
	out := make([]geom.Vec3, len(p.Vertices))
	for i, v := range p.Vertices {
		out[i] = g.Points[v]
	}
	return out, nil
}

// DeletePrim removes prim n. Points it used that no other prim references are
// deleted too and the remaining points are renumbered.
func (g *Geometry) DeletePrim(n int) error {
	p, err := g.prim(n)
	if err != nil {
		return err
	}
	candidates := make(map[int]bool, len(p.Vertices))
	for _, v := range p.Vertices {
		candidates[v] = true
	}
	g.Prims = append(g.Prims[:n], g.Prims[n+1:]...)
	for _, other := range g.Prims {
		for _, v := range other.Vertices {
			delete(candidates, v)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	remap := make([]int, len(g.Points))
	kept := g.Points[:0]
	for i, pt := range g.Points {
		if candidates[i] {
			remap[i] = -1
			continue
		}
		remap[i] = len(kept)
		kept = append(kept, pt)
	}
	g.Points = kept
	for i := range g.Prims {
		for j, v := range g.Prims[i].Vertices {
			g.Prims[i].Vertices[j] = remap[v]
		}
	}
	return nil
}

// NearestPoints returns up to max points within radius of pos, nearest first.
// Ties keep point order. max <= 0 means no cap.
func (g *Geometry) NearestPoints(pos geom.Vec3, max int, radius float64) []host.Point {
	var hits []host.Point
	var dists []float64
	for i, p := range g.Points {
		d := p.Sub(pos).Len()
		if d > radius {
			continue
		}
		hits = append(hits, host.Point{Num: i, Pos: p})
		dists = append(dists, d)
	}
	idx := make([]int, len(hits))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return dists[idx[a]] < dists[idx[b]] })
	if max > 0 && len(idx) > max {
		idx = idx[:max]
	}
	out := make([]host.Point, len(idx))
	for i, k := range idx {
		out[i] = hits[k]
	}
	return out
}

// Intersect casts ray against every polygon and returns the nearest hit in
// front of the origin. Equal distances resolve to the lower prim number.
func (g *Geometry) Intersect(ray geom.Ray) (int, bool) {
	best, bestT := -1, math.Inf(1)
	for n := range g.Prims {
		pts, _ := g.PrimPoints(n)
		t, ok := intersectPolygon(ray, pts)
		if ok && t < bestT {
			best, bestT = n, t
		}
	}
	return best, best >= 0
}

func intersectPolygon(ray geom.Ray, pts []geom.Vec3) (float64, bool) {
	if len(pts) < 3 {
		return 0, false
	}
	n := newellNormal(pts)
	if n.Len() < planeEps {
		return 0, false
	}
	denom := n.Dot(ray.Dir)
	if math.Abs(denom) < planeEps {
		return 0, false
	}
	t := n.Dot(pts[0].Sub(ray.Origin)) / denom
	if t < 0 {
		return 0, false
	}
	return t, insidePolygon(ray.At(t), pts, n)
}

// newellNormal is robust for non-convex and slightly non-planar polygons.
func newellNormal(pts []geom.Vec3) geom.Vec3 {
	var n geom.Vec3
	for i, cur := range pts {
		next := pts[(i+1)%len(pts)]
		n.X += (cur.Y - next.Y) * (cur.Z + next.Z)
		n.Y += (cur.Z - next.Z) * (cur.X + next.X)
		n.Z += (cur.X - next.X) * (cur.Y + next.Y)
	}
	return n
}

// insidePolygon projects onto the plane dropping the dominant normal axis and
// runs an even-odd test. Points on an edge count as inside.
func insidePolygon(p geom.Vec3, pts []geom.Vec3, n geom.Vec3) bool {
	proj := func(v geom.Vec3) (float64, float64) {
		ax, ay, az := math.Abs(n.X), math.Abs(n.Y), math.Abs(n.Z)
		switch {
		case az >= ax && az >= ay:
			return v.X, v.Y
		case ay >= ax:
			return v.Z, v.X
		default:
			return v.Y, v.Z
		}
	}
	px, py := proj(p)
	inside := false
	for i := range pts {
		ax, ay := proj(pts[i])
		bx, by := proj(pts[(i+1)%len(pts)])
		if onSegment(px, py, ax, ay, bx, by) {
			return true
		}
		if (ay > py) != (by > py) {
			x := ax + (py-ay)*(bx-ax)/(by-ay)
			if px < x {
				inside = !inside
			}
		}
	}
	return inside
}

func onSegment(px, py, ax, ay, bx, by float64) bool {
	cross := (bx-ax)*(py-ay) - (by-ay)*(px-ax)
	if math.Abs(cross) > 1e-9 {
		return false
	}
	return px >= math.Min(ax, bx)-1e-9 && px <= math.Max(ax, bx)+1e-9 &&
		py >= math.Min(ay, by)-1e-9 && py <= math.Max(ay, by)+1e-9
}

// SetPrimString sets a string attribute on prim n.
func (g *Geometry) SetPrimString(n int, name, val string) error {
	p, err := g.prim(n)
	if err != nil {
		return err
	}
	if p.Strings == nil {
		p.Strings = make(map[string]string)
	}
	p.Strings[name] = val
	return nil
}

// SetPrimFloats sets a float tuple attribute on prim n.
func (g *Geometry) SetPrimFloats(n int, name string, vals ...float64) error {
	p, err := g.prim(n)
	if err != nil {
		return err
	}
	if p.Floats == nil {
		p.Floats = make(map[string][]float64)
	}
	p.Floats[name] = append([]float64(nil), vals...)
	return nil
}

func (g *Geometry) PrimString(n int, name string) (string, bool) {
	if n < 0 || n >= len(g.Prims) {
		return "", false
	}
	v, ok := g.Prims[n].Strings[name]
	return v, ok
}

func (g *Geometry) PrimFloats(n int, name string) ([]float64, bool) {
	if n < 0 || n >= len(g.Prims) {
		return nil, false
	}
	v, ok := g.Prims[n].Floats[name]
	return v, ok
}

func (g *Geometry) SetDetailFloats(name string, vals ...float64) {
	if g.Detail.Floats == nil {
		g.Detail.Floats = make(map[string][]float64)
	}
	g.Detail.Floats[name] = append([]float64(nil), vals...)
}

func (g *Geometry) SetDetailInts(name string, vals ...int) {
	if g.Detail.Ints == nil {
		g.Detail.Ints = make(map[string][]int)
	}
	g.Detail.Ints[name] = append([]int(nil), vals...)
}

func (g *Geometry) DetailFloats(name string) ([]float64, bool) {
	v, ok := g.Detail.Floats[name]
	return v, ok
}

func (g *Geometry) DetailInts(name string) ([]int, bool) {
	v, ok := g.Detail.Ints[name]
	return v, ok
}

// Snapshot serializes the geometry for undo or stash storage.
func (g *Geometry) Snapshot() ([]byte, error) {
	return json.Marshal(g)
}

// Restore replaces the geometry contents with a snapshot.
func (g *Geometry) Restore(b []byte) error {
	var fresh Geometry
	if err := json.Unmarshal(b, &fresh); err != nil {
		return fmt.Errorf("restore geometry: %w", err)
	}
	for i, p := range fresh.Prims {
		for _, v := range p.Vertices {
			if v < 0 || v >= len(fresh.Points) {
				return fmt.Errorf("restore geometry: prim %d references point %d of %d", i, v, len(fresh.Points))
			}
		}
	}
	*g = fresh
	return nil
}

// Clone returns a deep copy.
func (g *Geometry) Clone() *Geometry {
	b, err := g.Snapshot()
	if err != nil {
		return &Geometry{}
	}
	c := &Geometry{}
	_ = c.Restore(b)
	return c
}
