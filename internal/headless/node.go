/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package headless

import (
	"houbevy/internal/host"
)

// Node is a named geometry container with a tool mode parameter.
type Node struct {
	Name string
	Geo  *Geometry
	mode int
}

var _ host.Node = (*Node)(nil)

func NewNode(name string, geo *Geometry) *Node {
	if geo == nil {
		geo = NewGeometry()
	}
	return &Node{Name: name, Geo: geo}
}

// Geometry returns nil when the node holds no geometry.
func (n *Node) Geometry() host.Geometry {
	if n == nil || n.Geo == nil {
		return nil
	}
	return n.Geo
}

func (n *Node) Mode() int        { return n.mode }
func (n *Node) SetMode(mode int) { n.mode = mode }
