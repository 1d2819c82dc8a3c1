/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package session replays scripted viewport input against the headless host.
package session

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Script is a recorded authoring session.
//
//	node: platformer1
//	steps:
//	  - pick: [0, 0]
//	  - move: [3, 0.5]
//	  - mode: 1
//	  - key: Ctrl+d
type Script struct {
	Node  string `yaml:"node,omitempty"`
	Steps []Step `yaml:"steps"`
}

// Step holds exactly one action.
type Step struct {
	Mode      *int      `yaml:"mode,omitempty"`
	Move      []float64 `yaml:"move,omitempty"`
	Pick      []float64 `yaml:"pick,omitempty"`
	Key       string    `yaml:"key,omitempty"`
	Interrupt bool      `yaml:"interrupt,omitempty"`
	Resume    bool      `yaml:"resume,omitempty"`
	Undo      bool      `yaml:"undo,omitempty"`
	Redo      bool      `yaml:"redo,omitempty"`
}

var ErrBadStep = errors.New("invalid step")

// Kind names the step's action.
func (s Step) Kind() string {
	kinds := s.kinds()
	if len(kinds) == 1 {
		return kinds[0]
	}
	return "invalid"
}

func (s Step) kinds() []string {
	var k []string
	if s.Mode != nil {
		k = append(k, "mode")
	}
	if s.Move != nil {
		k = append(k, "move")
	}
	if s.Pick != nil {
		k = append(k, "pick")
	}
	if s.Key != "" {
		k = append(k, "key")
	}
	if s.Interrupt {
		k = append(k, "interrupt")
	}
	if s.Resume {
		k = append(k, "resume")
	}
	if s.Undo {
		k = append(k, "undo")
	}
	if s.Redo {
		k = append(k, "redo")
	}
	return k
}

// Validate checks that the step has one action with well-formed arguments.
func (s Step) Validate() error {
	kinds := s.kinds()
	switch {
	case len(kinds) == 0:
		return fmt.Errorf("%w: no action", ErrBadStep)
	case len(kinds) > 1:
		return fmt.Errorf("%w: several actions %v", ErrBadStep, kinds)
	}
	for _, xy := range [][]float64{s.Move, s.Pick} {
		if xy != nil && len(xy) != 2 {
			return fmt.Errorf("%w: %s needs [x, y], got %d values", ErrBadStep, kinds[0], len(xy))
		}
	}
	return nil
}

// Parse decodes a script, rejecting unknown fields.
func Parse(b []byte) (Script, error) {
	var sc Script
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return Script{}, fmt.Errorf("parse script: %w", err)
	}
	for i, st := range sc.Steps {
		if err := st.Validate(); err != nil {
			return Script{}, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return sc, nil
}

// Load reads and parses a script file.
func Load(path string) (Script, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Script{}, fmt.Errorf("read script: %w", err)
	}
	return Parse(b)
}
