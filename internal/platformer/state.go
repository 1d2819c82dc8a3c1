/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package platformer implements the viewport tools that author 2D platform
// rectangles: a three-click Draw tool, a select/delete Edit tool, and the
// State coordinator that routes host events between them.
package platformer

import (
	"errors"
	"log/slog"

	"houbevy/internal/config"
	"houbevy/internal/host"
	applog "houbevy/internal/log"
)

// Guide group names the host must draw.
const (
	GuidePoly         = "poly_guide"
	GuideSelected     = "selected_guide"
	GuideSelectedEdge = "selected_edge"
)

// Tool modes read from the node.
const (
	ModeDraw = 0
	ModeEdit = 1
)

var (
	ErrNoNode      = errors.New("no node to author on")
	ErrNoGeometry  = errors.New("node has no geometry")
	ErrNotEntered  = errors.New("tool state not entered")
	ErrNoViewer    = errors.New("no scene viewer")
	ErrNoGuideHost = errors.New("no guide factory")
)

// Config lists everything a State needs from its host.
type Config struct {
	Viewer host.Viewer
	Node   host.Node
	Guides host.GuideFactory
	Logger *slog.Logger

	SnapRadius     float64
	SnapCandidates int
	DeleteKey      string
	Prompt         string
	UndoLabel      string
}

// ConfigFromTool fills the tool settings from the user configuration.
func ConfigFromTool(t config.ToolConfig) Config {
	return Config{
		SnapRadius:     t.SnapRadius,
		SnapCandidates: t.SnapCandidates,
		DeleteKey:      t.DeleteKey,
		Prompt:         t.Prompt,
	}
}

func (c *Config) defaults() {
	d := config.Defaults().Tool
	if c.SnapRadius <= 0 {
		c.SnapRadius = d.SnapRadius
	}
	if c.SnapCandidates <= 0 {
		c.SnapCandidates = d.SnapCandidates
	}
	if c.DeleteKey == "" {
		c.DeleteKey = d.DeleteKey
	}
	if c.Prompt == "" {
		c.Prompt = d.Prompt
	}
	if c.UndoLabel == "" {
		c.UndoLabel = "Edit platforms"
	}
	if c.Logger == nil {
		c.Logger = applog.WithComponent("platformer")
	}
}

// State coordinates one authoring session.
type State struct {
	cfg       Config
	log       *slog.Logger
	polyGuide host.Guide
	draw      *DrawRect
	edit      *EditRect
	pressed   bool
	mode      int
}

// New validates cfg and creates the draw guide group.
func New(cfg Config) (*State, error) {
	if cfg.Viewer == nil {
		return nil, ErrNoViewer
	}
	if cfg.Guides == nil {
		return nil, ErrNoGuideHost
	}
	cfg.defaults()
	s := &State{cfg: cfg, log: cfg.Logger}
	s.polyGuide = cfg.Guides(GuidePoly)
	return s, nil
}

// Enter starts the session: the tools are created and the prompt is shown.
func (s *State) Enter() error {
	if s.cfg.Node == nil {
		return ErrNoNode
	}
	if s.cfg.Node.Geometry() == nil {
		return ErrNoGeometry
	}
	s.mode = s.cfg.Node.Mode()
	s.cfg.Viewer.SetPromptMessage(s.cfg.Prompt)
	s.draw = newDrawRect(s)
	s.edit = newEditRect(s)
	s.log.Info("session entered", slog.Int("mode", s.mode))
	return nil
}

// Draw returns the draw tool, nil before Enter.
func (s *State) Draw() *DrawRect { return s.draw }

// Edit returns the edit tool, nil before Enter.
func (s *State) Edit() *EditRect { return s.edit }

// Mode is the mode seen by the last event.
func (s *State) Mode() int { return s.mode }

// Pressed reports whether an undo transaction is open.
func (s *State) Pressed() bool { return s.pressed }

// Start opens an undo transaction unless one is already open.
func (s *State) Start() {
	if !s.pressed {
		s.cfg.Viewer.BeginUndo(s.cfg.UndoLabel)
	}
	s.pressed = true
}

// Finish closes the open undo transaction.
func (s *State) Finish() {
	if s.pressed {
		s.cfg.Viewer.EndUndo()
	}
	s.pressed = false
}

func (s *State) geometry() (host.Geometry, error) {
	if s.draw == nil || s.edit == nil {
		return nil, ErrNotEntered
	}
	geo := s.cfg.Node.Geometry()
	if geo == nil {
		return nil, ErrNoGeometry
	}
	return geo, nil
}

// MouseEvent routes ev by the node's current mode.
func (s *State) MouseEvent(ev host.Event) error {
	geo, err := s.geometry()
	if err != nil {
		return err
	}
	s.mode = s.cfg.Node.Mode()
	switch s.mode {
	case ModeDraw:
		if err := s.draw.handle(geo, ev); err != nil {
			return err
		}
		s.edit.clear()
	case ModeEdit:
		if err := s.edit.handle(geo, ev); err != nil {
			return err
		}
		s.polyGuide.Show(false)
	default:
		s.polyGuide.Show(false)
	}
	return nil
}

// KeyEvent handles a key string such as "Ctrl+d". It reports whether the key
// was consumed.
func (s *State) KeyEvent(key string) (bool, error) {
	s.mode = s.cfg.Node.Mode()
	if key != s.cfg.DeleteKey || s.mode != ModeEdit || s.edit == nil {
		return false, nil
	}
	geo, err := s.geometry()
	if err != nil {
		return true, err
	}
	return true, s.edit.Delete(geo)
}

// Interrupt suspends the session.
func (s *State) Interrupt() {
	s.Finish()
	if s.mode == ModeEdit && s.edit != nil {
		s.edit.interrupt()
	}
}

// Resume continues a suspended session.
func (s *State) Resume() {
	s.cfg.Viewer.SetPromptMessage(s.cfg.Prompt)
	if s.mode == ModeEdit && s.edit != nil {
		s.edit.resume()
	}
}

// Guides lists the guide groups the host must draw each frame.
func (s *State) Guides() []string {
	return []string{GuidePoly, GuideSelected, GuideSelectedEdge}
}
