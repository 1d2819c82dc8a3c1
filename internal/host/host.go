/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package host describes what the authoring tools need from the 3D content
// application they run inside: viewport events, geometry queries and edits,
// a viewer for prompts and undo transactions, and guide groups for preview
// drawing. Implementations live outside this package (see internal/headless).
package host

import (
	"errors"

	"houbevy/internal/geom"
)

// Reason tells hover updates apart from committing clicks.
type Reason int

const (
	ReasonMoved Reason = iota
	ReasonPicked
	ReasonStart
	ReasonActive
	ReasonChanged
)

func (r Reason) String() string {
	switch r {
	case ReasonMoved:
		return "moved"
	case ReasonPicked:
		return "picked"
	case ReasonStart:
		return "start"
	case ReasonActive:
		return "active"
	case ReasonChanged:
		return "changed"
	default:
		return "unknown"
	}
}

// Event is one viewport pointer event.
type Event struct {
	Ray        geom.Ray
	LeftButton bool
	Reason     Reason
}

// Point is a geometry point handle.
type Point struct {
	Num int
	Pos geom.Vec3
}

// ErrNoPrim is returned for prim numbers that do not exist.
var ErrNoPrim = errors.New("no such primitive")

// Geometry is the editable geometry of the node being authored.
type Geometry interface {
	// NearestPoints returns up to max points within radius of pos, nearest first.
	NearestPoints(pos geom.Vec3, max int, radius float64) []Point
	// Intersect returns the prim hit first by ray.
	Intersect(ray geom.Ray) (prim int, ok bool)
	// PrimPoints returns the positions of a prim's vertices in order.
	PrimPoints(prim int) ([]geom.Vec3, error)
	// AddPolygon appends a closed polygon through pts and returns its prim number.
	AddPolygon(pts []geom.Vec3) (int, error)
	// DeletePrim removes a prim and any points left unreferenced.
	DeletePrim(prim int) error
}

// Node is the host node the tools author on.
type Node interface {
	// Geometry may return nil when the node has not cooked.
	Geometry() Geometry
	// Mode reads the tool mode parameter: 0 draw, 1 edit.
	Mode() int
}

// Viewer is the scene viewer hosting the tool session.
type Viewer interface {
	SetPromptMessage(msg string)
	BeginUndo(label string)
	EndUndo()
}

// DrawableKind is the primitive type a guide drawable renders.
type DrawableKind int

const (
	DrawPoints DrawableKind = iota
	DrawLines
	DrawFaces
)

// RGBA is a linear color with alpha.
type RGBA [4]float64

// Drawable describes one layer of a guide group. Styling is advisory; the host decides how to render it.
type Drawable struct {
	Name      string
	Kind      DrawableKind
	Color     RGBA
	LineWidth float64
	Radius    float64
}

// Preview is throwaway feedback geometry: loose points plus at most one polygon.
type Preview struct {
	Points  []geom.Vec3
	Polygon []geom.Vec3
}

// Guide is a named group of drawables sharing one preview geometry.
type Guide interface {
	AddDrawable(d Drawable)
	SetGeometry(p Preview)
	Show(visible bool)
}

// GuideFactory creates guide groups bound to the current viewer.
type GuideFactory func(name string) Guide
