/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geom

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestVec2sFromFlat(t *testing.T) {
	tests := []struct {
		name   string
		vals   []float64
		stride int
		want   []Vec2
		err    bool
	}{
		{name: "packed pairs", vals: []float64{0, 1, 2, 3}, stride: 2, want: []Vec2{{0, 1}, {2, 3}}},
		{name: "host uv triples", vals: []float64{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0}, stride: 3, want: []Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}}},
		{name: "empty", vals: nil, stride: 2, want: []Vec2{}},
		{name: "odd pairs", vals: []float64{1, 2, 3}, stride: 2, err: true},
		{name: "short triple", vals: []float64{1, 2, 3, 4}, stride: 3, err: true},
		{name: "stride too small", vals: []float64{1}, stride: 1, err: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Vec2sFromFlat(tc.vals, tc.stride)
			if tc.err {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				if got != nil {
					t.Fatalf("partial parse returned %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tc.want))
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("[%d] = %v, want %v", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestVec3sFromFlatRejectsRaggedInput(t *testing.T) {
	_, err := Vec3sFromFlat([]float64{0, 0, 1, 0, 0})
	if !errors.Is(err, ErrFlatLength) {
		t.Fatalf("expected ErrFlatLength, got %v", err)
	}
	got, err := Vec3sFromFlat([]float64{0, 0, 1, 1, 2, 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[1] != (Vec3{1, 2, 3}) {
		t.Fatalf("got %v", got)
	}
}

func TestInt2sFromFlat(t *testing.T) {
	got, err := Int2sFromFlat([]int{1, 2, 3, 4}, 2)
	if err != nil || len(got) != 2 || got[1] != (Int2{3, 4}) {
		t.Fatalf("got %v, %v", got, err)
	}
	if _, err := Int2sFromFlat([]int{1, 2, 3}, 2); !errors.Is(err, ErrFlatLength) {
		t.Fatalf("expected ErrFlatLength, got %v", err)
	}
}

func TestFlatInverse(t *testing.T) {
	vs := []Vec3{{1, 2, 3}, {4, 5, 6}}
	back, err := Vec3sFromFlat(Flat3(vs))
	if err != nil || back[0] != vs[0] || back[1] != vs[1] {
		t.Fatalf("Flat3 inverse mismatch: %v %v", back, err)
	}
	pairs := Flat2([]Vec2{{7, 8}})
	if len(pairs) != 2 || pairs[0] != 7 || pairs[1] != 8 {
		t.Fatalf("Flat2 = %v", pairs)
	}
}

func TestVectorJSONForms(t *testing.T) {
	b, err := json.Marshal(struct {
		A Vec2 `json:"a"`
		B Vec3 `json:"b"`
		C Int2 `json:"c"`
	}{NewVec2(1.5, -2), NewVec3(0, 1, 2), NewInt2(3, 4)})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(b), `{"a":[1.5,-2],"b":[0,1,2],"c":[3,4]}`; got != want {
		t.Fatalf("marshal = %s, want %s", got, want)
	}

	var v2 Vec2
	if err := json.Unmarshal([]byte(`{"y": 3}`), &v2); err != nil || v2 != (Vec2{0, 3}) {
		t.Fatalf("named form with default x: %v %v", v2, err)
	}
	var v3 Vec3
	if err := json.Unmarshal([]byte(`{"x": 1, "z": 2}`), &v3); err != nil || v3 != (Vec3{1, 0, 2}) {
		t.Fatalf("named form with default y: %v %v", v3, err)
	}
	if err := json.Unmarshal([]byte(` [4, 5, 6]`), &v3); err != nil || v3 != (Vec3{4, 5, 6}) {
		t.Fatalf("array form: %v %v", v3, err)
	}
	var i2 Int2
	if err := json.Unmarshal([]byte(`{"x": 9}`), &i2); err != nil || i2 != (Int2{9, 0}) {
		t.Fatalf("int2 named form: %v %v", i2, err)
	}
}

func TestVectorJSONRejectsWrongArity(t *testing.T) {
	var v2 Vec2
	if err := json.Unmarshal([]byte(`[1, 2, 3]`), &v2); err == nil {
		t.Fatalf("vec2 accepted three components")
	}
	var v3 Vec3
	if err := json.Unmarshal([]byte(`[1, 2]`), &v3); err == nil {
		t.Fatalf("vec3 accepted two components")
	}
}

func TestVec3Math(t *testing.T) {
	x := NewVec3(1, 0, 0)
	y := NewVec3(0, 1, 0)
	if got := x.Cross(y); got != (Vec3{0, 0, 1}) {
		t.Fatalf("cross = %v", got)
	}
	if got := NewVec3(3, 4, 0).Len(); got != 5 {
		t.Fatalf("len = %v", got)
	}
	r := Ray{Origin: NewVec3(1, 1, 10), Dir: NewVec3(0, 0, -1)}
	if got := r.At(10); got != (Vec3{1, 1, 0}) {
		t.Fatalf("At = %v", got)
	}
	if SplatVec2(0.5) != (Vec2{0.5, 0.5}) || SplatVec3(2).XY() != (Vec2{2, 2}) || SplatInt2(1) != (Int2{1, 1}) {
		t.Fatalf("splat constructors mismatch")
	}
}
