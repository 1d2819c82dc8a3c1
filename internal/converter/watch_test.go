/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package converter

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	applog "houbevy/internal/log"
)

func TestWatcherReportsSceneFiles(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir, 20*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	scene := filepath.Join(dir, "level.json")
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(scene, []byte(`{"layer":{}}`), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	select {
	case name := <-w.Events:
		if name != scene {
			t.Fatalf("event for %q, want %q", name, scene)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("no event for scene file")
	}
	select {
	case name := <-w.Events:
		t.Fatalf("burst not debounced, extra event %q", name)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcherCloseClosesChannels(t *testing.T) {
	w, err := NewWatcher(t.TempDir(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	select {
	case _, ok := <-w.Events:
		if ok {
			t.Fatalf("unexpected event after close")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Events not closed")
	}
}

func TestWatchRunsConverter(t *testing.T) {
	useFakeCommand(t)
	dir := t.TempDir()
	onStatus, ch := collect()
	r := &Runner{Exe: fakeExe(t), OnStatus: onStatus, Logger: applog.Discard()}
	opts := WatchOptions{OutputDir: filepath.Join(dir, "out"), Debounce: 20 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, dir, r, opts) }()

	scene := filepath.Join(dir, "level.json")
	// the watcher may not be registered yet; keep writing until a report arrives
	deadline := time.After(10 * time.Second)
	var rep Report
loop:
	for {
		_ = os.WriteFile(scene, []byte(`{"layer":{}}`), 0o644)
		select {
		case rep = <-ch:
			if rep.Status == StatusSucceeded {
				break loop
			}
		case <-time.After(100 * time.Millisecond):
		case <-deadline:
			t.Fatalf("converter never ran")
		}
	}
	want := "converted " + scene + " -o " + filepath.Join(dir, "out", "level.usda")
	if rep.Message != want {
		t.Fatalf("message = %q, want %q", rep.Message, want)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Watch returned %v", err)
	}
}

func TestOutputFor(t *testing.T) {
	if got := (WatchOptions{}).OutputFor("a/level.json"); got != "" {
		t.Fatalf("OutputFor without dir = %q", got)
	}
	if got := (WatchOptions{OutputDir: "out"}).OutputFor("a/level.json"); got != filepath.Join("out", "level.usda") {
		t.Fatalf("OutputFor = %q", got)
	}
}
