/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"houbevy/internal/geom"
)

type rectJSON struct {
	Size        geom.Vec2   `json:"size"`
	Translation geom.Vec3   `json:"translation"`
	UV          []geom.Vec2 `json:"uv"`
}

func (r Rect) MarshalJSON() ([]byte, error) {
	return json.Marshal(rectJSON{Size: r.Size, Translation: r.Translation, UV: r.UV[:]})
}

// UnmarshalJSON fills absent size/translation with defaults but still demands four UVs.
func (r *Rect) UnmarshalJSON(b []byte) error {
	raw := rectJSON{Size: DefaultRectSize}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	v, err := NewRect(raw.Size, raw.Translation, raw.UV)
	if err != nil {
		return err
	}
	*r = v
	return nil
}

type meshJSON struct {
	Vertices []geom.Vec2 `json:"vertices"`
	Indices  []int       `json:"indices"`
	Normals  []geom.Vec3 `json:"normals"`
	Z        float64     `json:"z"`
	ID       int         `json:"id"`
}

func (m Mesh2D) MarshalJSON() ([]byte, error) {
	return json.Marshal(meshJSON{
		Vertices: orEmpty(m.Vertices),
		Indices:  orEmpty(m.Indices),
		Normals:  orEmpty(m.Normals),
		Z:        m.Z,
		ID:       m.ID,
	})
}

func (m *Mesh2D) UnmarshalJSON(b []byte) error {
	var raw meshJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*m = Mesh2D{Vertices: raw.Vertices, Normals: raw.Normals, Indices: raw.Indices, Z: raw.Z, ID: raw.ID}
	return nil
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func (l *Layer) MarshalJSON() ([]byte, error) {
	out := struct {
		Rect   *[]Rect   `json:"rect,omitempty"`
		Mesh2D *[]Mesh2D `json:"mesh2d,omitempty"`
	}{}
	if l.hasRects {
		rs := orEmpty(l.rects)
		out.Rect = &rs
	}
	if l.hasMeshes {
		ms := orEmpty(l.meshes)
		out.Mesh2D = &ms
	}
	return json.Marshal(out)
}

// UnmarshalJSON treats a missing key and an explicit null alike: the kind stays absent.
func (l *Layer) UnmarshalJSON(b []byte) error {
	var raw struct {
		Rect   json.RawMessage `json:"rect"`
		Mesh2D json.RawMessage `json:"mesh2d"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*l = Layer{}
	if present(raw.Rect) {
		var rs []Rect
		if err := json.Unmarshal(raw.Rect, &rs); err != nil {
			return fmt.Errorf("rect: %w", err)
		}
		l.SetRects(rs)
	}
	if present(raw.Mesh2D) {
		var ms []Mesh2D
		if err := json.Unmarshal(raw.Mesh2D, &ms); err != nil {
			return fmt.Errorf("mesh2d: %w", err)
		}
		l.SetMeshes(ms)
	}
	return nil
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && !bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// MarshalJSON writes layers in insertion order.
func (d *Data) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"layer":{`)
	for i, name := range d.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(d.layers[name])
		if err != nil {
			return nil, fmt.Errorf("layer %q: %w", name, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteString(`}}`)
	return buf.Bytes(), nil
}

// UnmarshalJSON keeps the document's layer order. A missing "layer" key yields an empty scene.
func (d *Data) UnmarshalJSON(b []byte) error {
	var top struct {
		Layer json.RawMessage `json:"layer"`
	}
	if err := json.Unmarshal(b, &top); err != nil {
		return err
	}
	*d = Data{layers: make(map[string]*Layer)}
	if !present(top.Layer) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(top.Layer))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("scene: \"layer\" must be an object")
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := tok.(string)
		if _, dup := d.layers[name]; dup {
			return fmt.Errorf("scene: duplicate layer %q", name)
		}
		l := NewLayer()
		if err := dec.Decode(l); err != nil {
			return fmt.Errorf("scene: layer %q: %w", name, err)
		}
		d.layers[name] = l
		d.order = append(d.order, name)
	}
	_, err = dec.Token()
	return err
}

// ToJSON renders the scene with two-space indentation.
func (d *Data) ToJSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// FromJSON parses a scene document.
func FromJSON(b []byte) (*Data, error) {
	d := New()
	if err := json.Unmarshal(b, d); err != nil {
		return nil, fmt.Errorf("scene: parse: %w", err)
	}
	return d, nil
}
