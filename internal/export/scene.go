/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export turns authored host geometry into the layered JSON scene.
package export

import (
	"fmt"
	"log/slog"
	"math"

	"houbevy/internal/config"
	"houbevy/internal/geom"
	applog "houbevy/internal/log"
	"houbevy/internal/scene"
)

// Attribute names read from the host geometry.
const (
	AttrName    = "name"
	AttrType    = "type"
	AttrCenter  = "center"
	AttrSize    = "size"
	AttrUV      = "uv"
	AttrPList   = "P_list"
	AttrNormals = "N"
	AttrIndices = "indices"
	AttrZ       = "z"

	// TypeRect marks prims that carry a prepared rect.
	TypeRect = "HouRect"
)

// Source is read-only access to host geometry with attributes.
type Source interface {
	NumPrims() int
	PrimString(prim int, name string) (string, bool)
	PrimFloats(prim int, name string) ([]float64, bool)
	PrimPoints(prim int) ([]geom.Vec3, error)
	DetailFloats(name string) ([]float64, bool)
	DetailInts(name string) ([]int, bool)
}

// Options controls one export pass.
type Options struct {
	// MeshLayer receives the detail mesh.
	MeshLayer string
	// DefaultLayer is used for prims without a name.
	DefaultLayer string
	// DeriveRects turns untyped 4-point polygons into rects.
	DeriveRects bool
	// Validate checks the document against the scene schema before writing.
	Validate bool

	Logger *slog.Logger
}

// OptionsFromConfig maps the user configuration onto Options.
func OptionsFromConfig(c config.ExportConfig) Options {
	return Options{MeshLayer: c.MeshLayer, DefaultLayer: c.DefaultLayer, DeriveRects: c.DeriveRects, Validate: c.Validate}
}

func (o *Options) defaults() {
	d := config.Defaults().Export
	if o.MeshLayer == "" {
		o.MeshLayer = d.MeshLayer
	}
	if o.DefaultLayer == "" {
		o.DefaultLayer = d.DefaultLayer
	}
	if o.Logger == nil {
		o.Logger = applog.WithComponent("export")
	}
}

var unitUV = []geom.Vec2{geom.NewVec2(0, 0), geom.NewVec2(1, 0), geom.NewVec2(1, 1), geom.NewVec2(0, 1)}

// Build collects every prim and the detail mesh into a scene.
func Build(src Source, opts Options) (*scene.Data, error) {
	opts.defaults()
	log := opts.Logger
	data := scene.New()
	for prim := 0; prim < src.NumPrims(); prim++ {
		layer, ok := src.PrimString(prim, AttrName)
		if !ok || layer == "" {
			layer = opts.DefaultLayer
		}
		typ, typed := src.PrimString(prim, AttrType)
		if !typed {
			if !opts.DeriveRects {
				continue
			}
			r, ok, err := deriveRect(src, prim)
			if err != nil {
				return nil, err
			}
			if !ok {
				log.Debug("skipping untyped prim", slog.Int("prim", prim))
				continue
			}
			if err := data.Append(layer, r); err != nil {
				return nil, err
			}
			continue
		}

		data.CreateLayer(layer)
		switch typ {
		case TypeRect:
			r, err := typedRect(src, prim)
			if err != nil {
				return nil, err
			}
			if err := data.Append(layer, r); err != nil {
				return nil, err
			}
		default:
			log.Warn("unknown prim type", slog.Int("prim", prim), slog.String("type", typ), slog.String("layer", layer))
		}
	}

	mesh, ok, err := detailMesh(src)
	if err != nil {
		return nil, err
	}
	if ok {
		if err := data.Append(opts.MeshLayer, mesh); err != nil {
			return nil, err
		}
	}
	rects, meshes := data.Counts()
	log.Info("scene built", slog.Int("layers", data.Len()), slog.Int("rects", rects), slog.Int("meshes", meshes))
	return data, nil
}

func typedRect(src Source, prim int) (scene.Rect, error) {
	center, ok := src.PrimFloats(prim, AttrCenter)
	if !ok || len(center) < 3 {
		return scene.Rect{}, fmt.Errorf("prim %d: %s needs 3 components, got %d", prim, AttrCenter, len(center))
	}
	size := scene.DefaultRectSize
	if s, ok := src.PrimFloats(prim, AttrSize); ok {
		if len(s) < 2 {
			return scene.Rect{}, fmt.Errorf("prim %d: %s needs 2 components, got %d", prim, AttrSize, len(s))
		}
		size = geom.NewVec2(s[0], s[1])
	}
	raw, _ := src.PrimFloats(prim, AttrUV)
	uv, err := geom.Vec2sFromFlat(raw, 3)
	if err != nil {
		return scene.Rect{}, fmt.Errorf("prim %d: %s: %w", prim, AttrUV, err)
	}
	r, err := scene.NewRect(size, geom.NewVec3(center[0], center[1], center[2]), uv)
	if err != nil {
		return scene.Rect{}, fmt.Errorf("prim %d: %w", prim, err)
	}
	return r, nil
}

// deriveRect reads a bare quad as drawn in the viewport: bbox center, full
// extent and unit UVs. Prims that are not quads are not rects.
func deriveRect(src Source, prim int) (scene.Rect, bool, error) {
	pts, err := src.PrimPoints(prim)
	if err != nil {
		return scene.Rect{}, false, err
	}
	if len(pts) != 4 {
		return scene.Rect{}, false, nil
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	var z float64
	for _, p := range pts {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
		z += p.Z
	}
	center := geom.NewVec3((minX+maxX)/2, (minY+maxY)/2, z/4)
	r, err := scene.NewRect(geom.NewVec2(maxX-minX, maxY-minY), center, unitUV)
	return r, err == nil, err
}

func detailMesh(src Source) (scene.Mesh2D, bool, error) {
	plist, ok := src.DetailFloats(AttrPList)
	if !ok {
		return scene.Mesh2D{}, false, nil
	}
	verts, err := geom.Vec2sFromFlat(plist, 3)
	if err != nil {
		return scene.Mesh2D{}, false, fmt.Errorf("detail %s: %w", AttrPList, err)
	}
	m := scene.Mesh2D{Vertices: verts}
	if n, ok := src.DetailFloats(AttrNormals); ok {
		if m.Normals, err = geom.Vec3sFromFlat(n); err != nil {
			return scene.Mesh2D{}, false, fmt.Errorf("detail %s: %w", AttrNormals, err)
		}
	}
	if idx, ok := src.DetailInts(AttrIndices); ok {
		m.Indices = append([]int(nil), idx...)
	}
	if z, ok := src.DetailFloats(AttrZ); ok && len(z) > 0 {
		m.Z = z[0]
	}
	return m, true, nil
}

// Run builds the scene from src and writes it to path.
func Run(src Source, path string, opts Options) (*scene.Data, error) {
	opts.defaults()
	data, err := Build(src, opts)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	if opts.Validate {
		doc, err := data.ToJSON()
		if err != nil {
			return nil, fmt.Errorf("export: %w", err)
		}
		if err := scene.Validate(doc); err != nil {
			return nil, fmt.Errorf("export: %w", err)
		}
	}
	if err := scene.WriteFile(path, data); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	opts.Logger.Info("scene written", slog.String("path", path))
	return data, nil
}
