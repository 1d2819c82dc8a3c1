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
	"fmt"
	"slices"

	"houbevy/internal/geom"
)

// ErrUVCount is returned when a rectangle is built with anything but four UVs.
var ErrUVCount = errors.New("rect needs exactly 4 uv coordinates")

// DefaultRectSize is the size assumed for a rect whose JSON omits "size".
var DefaultRectSize = geom.SplatVec2(0.5)

// Primitive is either a Rect or a Mesh2D.
type Primitive interface {
	primitive()
}

// Rect is a textured quad. Translation.Z orders quads in depth.
type Rect struct {
	Size        geom.Vec2
	Translation geom.Vec3
	UV          [4]geom.Vec2
}

// NewRect validates the UV count; the list is never padded or truncated.
func NewRect(size geom.Vec2, translation geom.Vec3, uv []geom.Vec2) (Rect, error) {
	if len(uv) != 4 {
		return Rect{}, fmt.Errorf("scene: %w, got %d", ErrUVCount, len(uv))
	}
	r := Rect{Size: size, Translation: translation}
	copy(r.UV[:], uv)
	return r, nil
}

// Mesh2D is a triangulated surface exported as one unit.
type Mesh2D struct {
	Vertices []geom.Vec2
	Normals  []geom.Vec3
	Indices  []int
	Z        float64
	ID       int
}

// Equal compares meshes element-wise; nil and empty lists are equal.
func (m Mesh2D) Equal(o Mesh2D) bool {
	return m.Z == o.Z && m.ID == o.ID &&
		slices.Equal(m.Vertices, o.Vertices) &&
		slices.Equal(m.Normals, o.Normals) &&
		slices.Equal(m.Indices, o.Indices)
}

func (Rect) primitive()   {}
func (Mesh2D) primitive() {}

// Presence tells apart "never populated", "populated but empty" and "has items".
type Presence uint8

const (
	Absent Presence = iota
	Empty
	Populated
)

func (p Presence) String() string {
	switch p {
	case Absent:
		return "absent"
	case Empty:
		return "empty"
	case Populated:
		return "populated"
	default:
		return fmt.Sprintf("Presence(%d)", uint8(p))
	}
}

// Layer holds the primitives of one named bucket. Both kinds are tracked independently.
type Layer struct {
	rects     []Rect
	hasRects  bool
	meshes    []Mesh2D
	hasMeshes bool
}

// NewLayer returns a layer with both kinds absent.
func NewLayer() *Layer { return &Layer{} }

func (l *Layer) Rects() []Rect    { return l.rects }
func (l *Layer) Meshes() []Mesh2D { return l.meshes }

func (l *Layer) RectPresence() Presence { return presence(l.hasRects, len(l.rects)) }
func (l *Layer) MeshPresence() Presence { return presence(l.hasMeshes, len(l.meshes)) }

func presence(set bool, n int) Presence {
	switch {
	case !set:
		return Absent
	case n == 0:
		return Empty
	default:
		return Populated
	}
}

// Append stores p in the list matching its kind, allocating that list on first use.
func (l *Layer) Append(p Primitive) error {
	switch v := p.(type) {
	case Rect:
		l.AppendRect(v)
	case *Rect:
		l.AppendRect(*v)
	case Mesh2D:
		l.AppendMesh(v)
	case *Mesh2D:
		l.AppendMesh(*v)
	case nil:
		return errors.New("scene: nil primitive")
	default:
		return fmt.Errorf("scene: unsupported primitive %T", p)
	}
	return nil
}

func (l *Layer) AppendRect(r Rect) {
	l.hasRects = true
	l.rects = append(l.rects, r)
}

func (l *Layer) AppendMesh(m Mesh2D) {
	l.hasMeshes = true
	l.meshes = append(l.meshes, m)
}

// SetRects replaces the rect list and marks it present, even when rs is empty.
func (l *Layer) SetRects(rs []Rect) {
	l.hasRects = true
	l.rects = slices.Clone(rs)
}

// SetMeshes replaces the mesh list and marks it present, even when ms is empty.
func (l *Layer) SetMeshes(ms []Mesh2D) {
	l.hasMeshes = true
	l.meshes = slices.Clone(ms)
}

// Equal reports whether both layers hold the same primitives with the same presence.
func (l *Layer) Equal(o *Layer) bool {
	if l.RectPresence() != o.RectPresence() || l.MeshPresence() != o.MeshPresence() {
		return false
	}
	if !slices.Equal(l.rects, o.rects) {
		return false
	}
	return slices.EqualFunc(l.meshes, o.meshes, Mesh2D.Equal)
}

// Data is the export root: layer name -> Layer, in insertion order.
type Data struct {
	order  []string
	layers map[string]*Layer
}

func New() *Data { return &Data{layers: make(map[string]*Layer)} }

// CreateLayer adds an empty layer unless one with that name exists.
func (d *Data) CreateLayer(name string) {
	if d.layers == nil {
		d.layers = make(map[string]*Layer)
	}
	if _, ok := d.layers[name]; ok {
		return
	}
	d.layers[name] = NewLayer()
	d.order = append(d.order, name)
}

// Layer returns the named layer, creating it first if needed.
func (d *Data) Layer(name string) *Layer {
	d.CreateLayer(name)
	return d.layers[name]
}

// Lookup returns the named layer without creating it.
func (d *Data) Lookup(name string) (*Layer, bool) {
	l, ok := d.layers[name]
	return l, ok
}

// Append adds p to the named layer.
func (d *Data) Append(name string, p Primitive) error {
	if err := d.Layer(name).Append(p); err != nil {
		return fmt.Errorf("layer %q: %w", name, err)
	}
	return nil
}

// Names returns layer names in insertion order.
func (d *Data) Names() []string { return slices.Clone(d.order) }

func (d *Data) Len() int { return len(d.order) }

// Equal compares names, order and layer contents.
func (d *Data) Equal(o *Data) bool {
	if !slices.Equal(d.order, o.order) {
		return false
	}
	for _, name := range d.order {
		if !d.layers[name].Equal(o.layers[name]) {
			return false
		}
	}
	return true
}

// Counts returns the number of rects and meshes across all layers.
func (d *Data) Counts() (rects, meshes int) {
	for _, name := range d.order {
		l := d.layers[name]
		rects += len(l.rects)
		meshes += len(l.meshes)
	}
	return rects, meshes
}
