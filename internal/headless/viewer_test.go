/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package headless

import (
	"testing"

	"houbevy/internal/host"
)

func TestViewerUndoRedo(t *testing.T) {
	node := NewNode("platformer1", nil)
	v := NewViewer(node)
	v.SetPromptMessage("hello")
	if v.Prompt() != "hello" {
		t.Fatalf("prompt = %q", v.Prompt())
	}

	v.BeginUndo("Add rect")
	_, _ = node.Geo.AddPolygon(square(0, 0, 1))
	v.EndUndo()
	v.BeginUndo("Add rect")
	v.BeginUndo("nested")
	_, _ = node.Geo.AddPolygon(square(3, 0, 1))
	v.EndUndo()
	if !v.InUndo() {
		t.Fatalf("outer transaction closed by nested EndUndo")
	}
	v.EndUndo()
	if got := v.Transactions(); len(got) != 2 {
		t.Fatalf("expected 2 transactions, got %v", got)
	}

	label, ok, err := v.Undo()
	if err != nil || !ok || label != "Add rect" {
		t.Fatalf("Undo = %q %v %v", label, ok, err)
	}
	if node.Geo.NumPrims() != 1 {
		t.Fatalf("expected 1 prim after undo, got %d", node.Geo.NumPrims())
	}
	if _, ok, _ := v.Redo(); !ok || node.Geo.NumPrims() != 2 {
		t.Fatalf("redo did not restore second prim (ok=%v prims=%d)", ok, node.Geo.NumPrims())
	}
	_, _, _ = v.Undo()
	_, _, _ = v.Undo()
	if node.Geo.NumPrims() != 0 || node.Geo.NumPoints() != 0 {
		t.Fatalf("expected empty geometry, got prims=%d points=%d", node.Geo.NumPrims(), node.Geo.NumPoints())
	}
	if _, ok, _ := v.Undo(); ok {
		t.Fatalf("undo past the first transaction")
	}
}

func TestNodeGeometryNil(t *testing.T) {
	n := &Node{Name: "empty"}
	if n.Geometry() != nil {
		t.Fatalf("expected nil geometry interface")
	}
	n.SetMode(1)
	if n.Mode() != 1 {
		t.Fatalf("mode = %d", n.Mode())
	}
}

func TestGuidesFactory(t *testing.T) {
	gs := NewGuides()
	f := gs.Factory()
	a := f("poly_guide")
	a.AddDrawable(host.Drawable{Name: "point", Kind: host.DrawPoints})
	a.Show(true)
	a.SetGeometry(host.Preview{Points: square(0, 0, 1)[:1]})
	if f("poly_guide") != a {
		t.Fatalf("factory returned a new guide for an existing name")
	}
	f("selected_guide")
	g := gs.Get("poly_guide")
	if g == nil || !g.Visible || g.Updates != 1 || len(g.Drawables) != 1 {
		t.Fatalf("unexpected guide state %+v", g)
	}
	if names := gs.Names(); len(names) != 2 || names[0] != "poly_guide" {
		t.Fatalf("names = %v", names)
	}
}
