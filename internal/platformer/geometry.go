/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package platformer

import "houbevy/internal/geom"

// Axis is the direction of the first drawn edge.
type Axis int

const (
	AxisUnset Axis = iota
	AxisX
	AxisY
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "X"
	case AxisY:
		return "Y"
	default:
		return "unset"
	}
}

// Order returns the permutation that turns four click-ordered corners into a
// consistently wound quad. Configurations matching no rule keep identity order.
func Order(p0, p1, p2, p3 geom.Vec3, axis Axis) [4]int {
	order := [4]int{0, 1, 2, 3}
	if axis == AxisY {
		switch {
		case p0.Y > p1.Y && p1.X > p2.X:
			order = [4]int{3, 0, 1, 2}
		case p0.Y < p1.Y && p1.X > p2.X:
			order = [4]int{2, 1, 0, 3}
		}
		return order
	}
	if p0.X > p1.X {
		if p1.Y < p2.Y {
			order = [4]int{2, 3, 0, 1}
		}
	} else if p1.X > p0.X && p2.Y > p1.Y {
		order = [4]int{3, 2, 1, 0}
	}
	return order
}

// ReorderPoints applies Order and returns the reordered quad along with the input.
func ReorderPoints(p0, p1, p2, p3 geom.Vec3, axis Axis) (ordered, original [4]geom.Vec3) {
	original = [4]geom.Vec3{p0, p1, p2, p3}
	for i, k := range Order(p0, p1, p2, p3, axis) {
		ordered[i] = original[k]
	}
	return ordered, original
}
