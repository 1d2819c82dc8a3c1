/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package headless

import (
	"fmt"
	"log/slog"
	"time"

	"houbevy/internal/host"
	applog "houbevy/internal/log"
	"houbevy/internal/undo"
)

// Viewer records prompts and turns undo transactions into geometry snapshots.
type Viewer struct {
	node   *Node
	undo   *undo.Manager
	prompt string
	depth  int
	labels []string
	log    *slog.Logger
	now    func() time.Time
}

var _ host.Viewer = (*Viewer)(nil)

// NewViewer binds a viewer to node. Undo snapshots never coalesce so every
// transaction stays individually undoable.
func NewViewer(node *Node) *Viewer {
	return &Viewer{
		node: node,
		undo: undo.NewManager(undo.Config{MinInterval: -1}),
		log:  applog.WithComponent("viewer"),
		now:  time.Now,
	}
}

func (v *Viewer) SetPromptMessage(msg string) { v.prompt = msg }

// Prompt returns the last prompt message.
func (v *Viewer) Prompt() string { return v.prompt }

// BeginUndo snapshots the node geometry when the outermost transaction opens.
func (v *Viewer) BeginUndo(label string) {
	v.depth++
	if v.depth > 1 {
		return
	}
	blob, err := v.node.Geo.Snapshot()
	if err != nil {
		v.log.Error("undo snapshot failed", slog.String("label", label), slog.Any("err", err))
		return
	}
	v.undo.Push(undo.Snapshot{Key: v.node.Name, Label: label, Blob: blob, TS: v.now()})
	v.labels = append(v.labels, label)
}

func (v *Viewer) EndUndo() {
	if v.depth > 0 {
		v.depth--
	}
}

// InUndo reports whether a transaction is open.
func (v *Viewer) InUndo() bool { return v.depth > 0 }

// Transactions lists the labels of every transaction opened so far.
func (v *Viewer) Transactions() []string { return append([]string(nil), v.labels...) }

// Undo rolls the node geometry back to the state before the last transaction.
func (v *Viewer) Undo() (string, bool, error) {
	cur, err := v.node.Geo.Snapshot()
	if err != nil {
		return "", false, err
	}
	s, ok := v.undo.Undo(v.node.Name, cur)
	if !ok {
		return "", false, nil
	}
	if err := v.node.Geo.Restore(s.Blob); err != nil {
		return s.Label, false, fmt.Errorf("undo %q: %w", s.Label, err)
	}
	return s.Label, true, nil
}

// Redo reapplies the last undone transaction.
func (v *Viewer) Redo() (string, bool, error) {
	cur, err := v.node.Geo.Snapshot()
	if err != nil {
		return "", false, err
	}
	s, ok := v.undo.Redo(v.node.Name, cur)
	if !ok {
		return "", false, nil
	}
	if err := v.node.Geo.Restore(s.Blob); err != nil {
		return s.Label, false, fmt.Errorf("redo %q: %w", s.Label, err)
	}
	return s.Label, true, nil
}
