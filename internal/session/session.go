/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package session

import (
	"fmt"
	"log/slog"

	"houbevy/internal/config"
	"houbevy/internal/geom"
	"houbevy/internal/headless"
	"houbevy/internal/host"
	applog "houbevy/internal/log"
	"houbevy/internal/platformer"
)

// rayHeight is where replayed pointer rays start above the working plane.
const rayHeight = 10

// Session is one entered tool state on a headless node.
type Session struct {
	Node   *headless.Node
	Viewer *headless.Viewer
	Guides *headless.Guides
	State  *platformer.State
	log    *slog.Logger
}

// New enters the platformer tool on node.
func New(node *headless.Node, tool config.ToolConfig) (*Session, error) {
	viewer := headless.NewViewer(node)
	guides := headless.NewGuides()
	cfg := platformer.ConfigFromTool(tool)
	cfg.Viewer = viewer
	cfg.Node = node
	cfg.Guides = guides.Factory()
	st, err := platformer.New(cfg)
	if err != nil {
		return nil, err
	}
	if err := st.Enter(); err != nil {
		return nil, fmt.Errorf("enter %s: %w", node.Name, err)
	}
	return &Session{Node: node, Viewer: viewer, Guides: guides, State: st, log: applog.WithComponent("session")}, nil
}

// Event builds a viewport event for a replayed pointer position.
func Event(x, y float64, picked bool) host.Event {
	ev := host.Event{
		Ray:    geom.Ray{Origin: geom.NewVec3(x, y, rayHeight), Dir: geom.NewVec3(0, 0, -1)},
		Reason: host.ReasonMoved,
	}
	if picked {
		ev.LeftButton = true
		ev.Reason = host.ReasonPicked
	}
	return ev
}

// Run plays every step in order and stops at the first failure.
func (s *Session) Run(sc Script) error {
	for i, st := range sc.Steps {
		if err := s.step(st); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, st.Kind(), err)
		}
	}
	s.log.Info("replay finished", slog.Int("steps", len(sc.Steps)), slog.Int("prims", s.Node.Geo.NumPrims()))
	return nil
}

func (s *Session) step(st Step) error {
	if err := st.Validate(); err != nil {
		return err
	}
	switch {
	case st.Mode != nil:
		s.Node.SetMode(*st.Mode)
	case st.Move != nil:
		return s.State.MouseEvent(Event(st.Move[0], st.Move[1], false))
	case st.Pick != nil:
		return s.State.MouseEvent(Event(st.Pick[0], st.Pick[1], true))
	case st.Key != "":
		consumed, err := s.State.KeyEvent(st.Key)
		if err != nil {
			return err
		}
		if !consumed {
			s.log.Debug("key ignored", slog.String("key", st.Key), slog.Int("mode", s.State.Mode()))
		}
	case st.Interrupt:
		s.State.Interrupt()
	case st.Resume:
		s.State.Resume()
	case st.Undo:
		_, _, err := s.Viewer.Undo()
		return err
	case st.Redo:
		_, _, err := s.Viewer.Redo()
		return err
	}
	return nil
}
