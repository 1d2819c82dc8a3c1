/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package headless

import (
	"sort"

	"houbevy/internal/host"
)

// Guide records what a host would draw for one guide group.
type Guide struct {
	Name      string
	Drawables []host.Drawable
	Preview   host.Preview
	Visible   bool
	// Updates counts SetGeometry calls.
	Updates int
}

var _ host.Guide = (*Guide)(nil)

func (g *Guide) AddDrawable(d host.Drawable) { g.Drawables = append(g.Drawables, d) }

func (g *Guide) SetGeometry(p host.Preview) {
	g.Preview = p
	g.Updates++
}

func (g *Guide) Show(visible bool) { g.Visible = visible }

// Guides keeps every guide group created through its factory.
type Guides struct {
	byName map[string]*Guide
}

func NewGuides() *Guides { return &Guides{byName: make(map[string]*Guide)} }

// Factory returns a host.GuideFactory; asking twice for one name yields the same guide.
func (gs *Guides) Factory() host.GuideFactory {
	return func(name string) host.Guide {
		if g, ok := gs.byName[name]; ok {
			return g
		}
		g := &Guide{Name: name}
		gs.byName[name] = g
		return g
	}
}

// Get returns the guide named name, or nil.
func (gs *Guides) Get(name string) *Guide { return gs.byName[name] }

func (gs *Guides) Names() []string {
	out := make([]string, 0, len(gs.byName))
	for n := range gs.byName {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
