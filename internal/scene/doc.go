/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package scene is the layered export model handed to the game engine.
// A Data value maps layer names, in insertion order, to Layers; each Layer
// carries an optional list of rectangles and an optional list of 2D meshes.
// The JSON form is {"layer": {<name>: {"rect": [...], "mesh2d": [...]}}}
// where an absent key means the layer never held that primitive kind.
package scene
