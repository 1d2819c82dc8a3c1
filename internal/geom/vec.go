/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package geom holds the small value types shared by the authoring tools and
// the export model: 2D/3D float vectors, an integer pair, and a ray.
// Vectors serialize as flat JSON arrays and accept either arrays or
// {"x":..,"y":..} objects when decoding.
package geom

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// Vec2 is a 2D point or extent.
type Vec2 struct{ X, Y float64 }

// Vec3 is a 3D point or direction.
type Vec3 struct{ X, Y, Z float64 }

// Int2 is an integer pair.
type Int2 struct{ X, Y int }

func NewVec2(x, y float64) Vec2    { return Vec2{X: x, Y: y} }
func SplatVec2(v float64) Vec2     { return Vec2{X: v, Y: v} }
func NewVec3(x, y, z float64) Vec3 { return Vec3{X: x, Y: y, Z: z} }
func SplatVec3(v float64) Vec3     { return Vec3{X: v, Y: v, Z: v} }
func NewInt2(x, y int) Int2        { return Int2{X: x, Y: y} }
func SplatInt2(v int) Int2         { return Int2{X: v, Y: v} }

// XY drops z.
func (v Vec3) XY() Vec2 { return Vec2{X: v.X, Y: v.Y} }

func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3      { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Dot(o Vec3) float64   { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }
func (v Vec3) Len() float64         { return math.Sqrt(v.Dot(v)) }

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		X: v.Y*o.Z - v.Z*o.Y,
		Y: v.Z*o.X - v.X*o.Z,
		Z: v.X*o.Y - v.Y*o.X,
	}
}

// Ray is a viewport pick ray.
type Ray struct {
	Origin Vec3
	Dir    Vec3
}

// At returns the point at parameter t along the ray.
func (r Ray) At(t float64) Vec3 { return r.Origin.Add(r.Dir.Scale(t)) }

// ErrFlatLength reports a flat coordinate list that does not split into whole tuples.
var ErrFlatLength = errors.New("flat list length does not match tuple stride")

// Vec2sFromFlat splits vals into Vec2s. stride is 2 for packed pairs or 3 when
// each entry is a 3-wide host vector whose z is ignored.
func Vec2sFromFlat(vals []float64, stride int) ([]Vec2, error) {
	if err := checkFlat(len(vals), stride, 2); err != nil {
		return nil, err
	}
	out := make([]Vec2, 0, len(vals)/stride)
	for i := 0; i < len(vals); i += stride {
		out = append(out, Vec2{X: vals[i], Y: vals[i+1]})
	}
	return out, nil
}

// Vec3sFromFlat splits vals into triples.
func Vec3sFromFlat(vals []float64) ([]Vec3, error) {
	if err := checkFlat(len(vals), 3, 3); err != nil {
		return nil, err
	}
	out := make([]Vec3, 0, len(vals)/3)
	for i := 0; i < len(vals); i += 3 {
		out = append(out, Vec3{X: vals[i], Y: vals[i+1], Z: vals[i+2]})
	}
	return out, nil
}

// Int2sFromFlat is Vec2sFromFlat for integers.
func Int2sFromFlat(vals []int, stride int) ([]Int2, error) {
	if err := checkFlat(len(vals), stride, 2); err != nil {
		return nil, err
	}
	out := make([]Int2, 0, len(vals)/stride)
	for i := 0; i < len(vals); i += stride {
		out = append(out, Int2{X: vals[i], Y: vals[i+1]})
	}
	return out, nil
}

func checkFlat(n, stride, minStride int) error {
	if stride < minStride {
		return fmt.Errorf("geom: stride %d below tuple width %d", stride, minStride)
	}
	if n%stride != 0 {
		return fmt.Errorf("geom: %w: length %d, stride %d", ErrFlatLength, n, stride)
	}
	return nil
}

// Flat2 returns the components of vs back to back.
func Flat2(vs []Vec2) []float64 {
	out := make([]float64, 0, 2*len(vs))
	for _, v := range vs {
		out = append(out, v.X, v.Y)
	}
	return out
}

// Flat3 returns the components of vs back to back.
func Flat3(vs []Vec3) []float64 {
	out := make([]float64, 0, 3*len(vs))
	for _, v := range vs {
		out = append(out, v.X, v.Y, v.Z)
	}
	return out
}

func (v Vec2) MarshalJSON() ([]byte, error) { return json.Marshal([2]float64{v.X, v.Y}) }
func (v Vec3) MarshalJSON() ([]byte, error) { return json.Marshal([3]float64{v.X, v.Y, v.Z}) }
func (v Int2) MarshalJSON() ([]byte, error) { return json.Marshal([2]int{v.X, v.Y}) }

func (v *Vec2) UnmarshalJSON(b []byte) error {
	if isArray(b) {
		var a []float64
		if err := json.Unmarshal(b, &a); err != nil {
			return fmt.Errorf("geom: vec2: %w", err)
		}
		if len(a) != 2 {
			return fmt.Errorf("geom: vec2: want 2 components, got %d", len(a))
		}
		*v = Vec2{X: a[0], Y: a[1]}
		return nil
	}
	var m struct{ X, Y float64 }
	if err := json.Unmarshal(b, &m); err != nil {
		return fmt.Errorf("geom: vec2: %w", err)
	}
	*v = Vec2{X: m.X, Y: m.Y}
	return nil
}

func (v *Vec3) UnmarshalJSON(b []byte) error {
	if isArray(b) {
		var a []float64
		if err := json.Unmarshal(b, &a); err != nil {
			return fmt.Errorf("geom: vec3: %w", err)
		}
		if len(a) != 3 {
			return fmt.Errorf("geom: vec3: want 3 components, got %d", len(a))
		}
		*v = Vec3{X: a[0], Y: a[1], Z: a[2]}
		return nil
	}
	var m struct{ X, Y, Z float64 }
	if err := json.Unmarshal(b, &m); err != nil {
		return fmt.Errorf("geom: vec3: %w", err)
	}
	*v = Vec3{X: m.X, Y: m.Y, Z: m.Z}
	return nil
}

func (v *Int2) UnmarshalJSON(b []byte) error {
	if isArray(b) {
		var a []int
		if err := json.Unmarshal(b, &a); err != nil {
			return fmt.Errorf("geom: int2: %w", err)
		}
		if len(a) != 2 {
			return fmt.Errorf("geom: int2: want 2 components, got %d", len(a))
		}
		*v = Int2{X: a[0], Y: a[1]}
		return nil
	}
	var m struct{ X, Y int }
	if err := json.Unmarshal(b, &m); err != nil {
		return fmt.Errorf("geom: int2: %w", err)
	}
	*v = Int2{X: m.X, Y: m.Y}
	return nil
}

func isArray(b []byte) bool {
	b = bytes.TrimSpace(b)
	return len(b) > 0 && b[0] == '['
}
