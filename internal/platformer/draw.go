/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package platformer

import (
	"fmt"
	"log/slog"
	"math"

	"houbevy/internal/geom"
	"houbevy/internal/host"
)

// DrawRect places rectangles with three clicks. The first click sets a corner,
// the second fixes the first edge along the dominant axis and the third sets
// the extent of the perpendicular edge. The fourth corner is derived.
type DrawRect struct {
	st     *State
	points [3]geom.Vec3
	fourth geom.Vec3
	clicks int
	axis   Axis
	cursor geom.Vec3
}

func newDrawRect(st *State) *DrawRect {
	d := &DrawRect{st: st}
	st.polyGuide.AddDrawable(host.Drawable{Name: "point", Kind: host.DrawPoints, Color: host.RGBA{1, 0.1, 0.1, 1}, Radius: 6})
	st.polyGuide.AddDrawable(host.Drawable{Name: "line", Kind: host.DrawLines, Color: host.RGBA{0.5, 0.5, 0.5, 1}, LineWidth: 1})
	st.polyGuide.AddDrawable(host.Drawable{Name: "face", Kind: host.DrawFaces, Color: host.RGBA{0, 0.2, 0.7, 0.5}})
	return d
}

// Clicks is the number of corners placed so far (0..2).
func (d *DrawRect) Clicks() int { return d.clicks }

func (d *DrawRect) Axis() Axis { return d.axis }

// Cursor is the constrained cursor position of the last event.
func (d *DrawRect) Cursor() geom.Vec3 { return d.cursor }

// Points returns the placed corners.
func (d *DrawRect) Points() []geom.Vec3 { return append([]geom.Vec3(nil), d.points[:d.clicks]...) }

// Reset drops every placed corner.
func (d *DrawRect) Reset() {
	d.points = [3]geom.Vec3{}
	d.fourth = geom.Vec3{}
	d.clicks = 0
	d.axis = AxisUnset
}

func (d *DrawRect) handle(geo host.Geometry, ev host.Event) error {
	x, y := ev.Ray.Origin.X, ev.Ray.Origin.Y
	raw := geom.NewVec3(x, y, 0)
	var snap *geom.Vec3
	if near := geo.NearestPoints(raw, d.st.cfg.SnapCandidates, d.st.cfg.SnapRadius); len(near) > 0 {
		snap = &near[0].Pos
	}

	cursor := raw
	switch d.clicks {
	case 0:
		if snap != nil {
			cursor = *snap
		}
	case 1:
		first := d.points[0]
		if math.Abs(first.Y-y) > math.Abs(first.X-x) {
			x = first.X
			d.axis = AxisY
		} else {
			y = first.Y
			d.axis = AxisX
		}
		if snap != nil {
			if d.axis == AxisY {
				y = snap.Y
			} else {
				x = snap.X
			}
		}
		cursor = geom.NewVec3(x, y, 0)
	case 2:
		second := d.points[1]
		if d.axis == AxisY {
			y = second.Y
		} else {
			x = second.X
		}
		if snap != nil {
			if d.axis == AxisY {
				x = snap.X
			} else {
				y = snap.Y
			}
		}
		cursor = geom.NewVec3(x, y, 0)
		d.fourth = d.corner(cursor)
	}
	d.cursor = cursor

	if ev.LeftButton && ev.Reason == host.ReasonPicked {
		d.points[d.clicks] = cursor
		d.clicks++
		d.st.log.Debug("corner placed", slog.Int("click", d.clicks), slog.String("axis", d.axis.String()))
		if d.clicks > 2 {
			err := d.commit(geo)
			d.Reset()
			d.preview()
			return err
		}
	}
	d.preview()
	return nil
}

// corner completes the rectangle opposite the clicked third point.
func (d *DrawRect) corner(cursor geom.Vec3) geom.Vec3 {
	first := d.points[0]
	if d.axis == AxisY {
		return geom.NewVec3(cursor.X, first.Y, 0)
	}
	return geom.NewVec3(first.X, cursor.Y, 0)
}

func (d *DrawRect) preview() {
	p := host.Preview{Points: []geom.Vec3{d.cursor}}
	switch d.clicks {
	case 1:
		first := d.points[0]
		p.Points = append(p.Points, first)
		p.Polygon = []geom.Vec3{first, d.cursor}
	case 2:
		first, second := d.points[0], d.points[1]
		fourth := d.corner(d.cursor)
		p.Points = append(p.Points, first, second, fourth)
		p.Polygon = []geom.Vec3{first, second, d.cursor, fourth}
	}
	d.st.polyGuide.SetGeometry(p)
	d.st.polyGuide.Show(true)
}

func (d *DrawRect) commit(geo host.Geometry) error {
	quad, _ := ReorderPoints(d.points[0], d.points[1], d.points[2], d.fourth, d.axis)
	d.st.Start()
	defer d.st.Finish()
	prim, err := geo.AddPolygon(quad[:])
	if err != nil {
		return fmt.Errorf("add rect: %w", err)
	}
	d.st.log.Info("rect added", slog.Int("prim", prim), slog.String("axis", d.axis.String()))
	return nil
}
