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

	"houbevy/internal/host"
)

// EditRect selects placed rectangles by ray hit and deletes the selection.
type EditRect struct {
	st       *State
	selected int
	// highlight holds the selected prim's corners, nil when idle
	highlight *host.Preview
	selGuide  host.Guide
	edgeGuide host.Guide
}

func newEditRect(st *State) *EditRect {
	e := &EditRect{st: st, selected: -1}
	e.selGuide = st.cfg.Guides(GuideSelected)
	e.selGuide.AddDrawable(host.Drawable{Name: "face", Kind: host.DrawFaces, Color: host.RGBA{0.5, 4, 0, 0.3}})
	e.selGuide.AddDrawable(host.Drawable{Name: "line", Kind: host.DrawLines, Color: host.RGBA{0.1, 0.1, 0.8, 1}, LineWidth: 1})
	e.edgeGuide = st.cfg.Guides(GuideSelectedEdge)
	e.edgeGuide.AddDrawable(host.Drawable{Name: "line", Kind: host.DrawLines, Color: host.RGBA{1, 1, 0.8, 1}, LineWidth: 1})
	e.edgeGuide.AddDrawable(host.Drawable{Name: "point", Kind: host.DrawPoints, Color: host.RGBA{1, 0.1, 0.1, 1}, Radius: 6})
	return e
}

// Selected returns the selected prim number.
func (e *EditRect) Selected() (int, bool) { return e.selected, e.selected >= 0 }

func (e *EditRect) handle(geo host.Geometry, ev host.Event) error {
	if !ev.LeftButton {
		return nil
	}
	prim, hit := geo.Intersect(ev.Ray)
	if !hit {
		e.clear()
		return nil
	}
	pts, err := geo.PrimPoints(prim)
	if err != nil {
		return fmt.Errorf("select prim %d: %w", prim, err)
	}
	e.selected = prim
	e.highlight = &host.Preview{Points: pts, Polygon: pts}
	e.selGuide.SetGeometry(*e.highlight)
	e.selGuide.Show(true)
	e.st.log.Debug("rect selected", slog.Int("prim", prim))
	return nil
}

// Delete removes the selected prim and its unused points. It does nothing
// without a selection.
func (e *EditRect) Delete(geo host.Geometry) error {
	if e.selected < 0 || e.highlight == nil {
		return nil
	}
	prim := e.selected
	e.st.Start()
	err := geo.DeletePrim(prim)
	e.st.Finish()
	if err != nil {
		return fmt.Errorf("delete prim %d: %w", prim, err)
	}
	e.st.log.Info("rect deleted", slog.Int("prim", prim))
	e.clear()
	return nil
}

func (e *EditRect) clear() {
	if e.highlight != nil {
		e.selGuide.SetGeometry(host.Preview{})
	}
	e.selected = -1
	e.highlight = nil
	e.selGuide.Show(false)
}

func (e *EditRect) interrupt() {
	e.selGuide.Show(false)
	e.edgeGuide.Show(false)
}

func (e *EditRect) resume() {
	e.selGuide.Show(true)
	e.edgeGuide.Show(true)
	e.st.cfg.Viewer.SetPromptMessage(e.st.cfg.Prompt)
}
