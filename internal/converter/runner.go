/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package converter launches the external scene converter and can watch an
// export directory to re-run it whenever a scene file changes.
package converter

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	applog "houbevy/internal/log"
)

// ErrExeNotFound is returned when no converter executable can be located.
var ErrExeNotFound = errors.New("converter executable not found")

// BaseName is the converter executable name without extension.
const BaseName = "usdrs"

// execCommand is swapped in tests.
var execCommand = exec.Command

// Status is the lifecycle stage of one conversion.
type Status int

const (
	StatusStarted Status = iota
	StatusSucceeded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusStarted:
		return "started"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Report is delivered to the status callback.
type Report struct {
	Status  Status
	Input   string
	Message string
	Err     error
}

// Args builds the converter command line after the executable.
func Args(input, output string, removeInput bool) []string {
	args := []string{"export", input}
	if output != "" {
		args = append(args, "-o", output)
	}
	if removeInput {
		args = append(args, "--remove-input")
	}
	return args
}

func exeName() string {
	if runtime.GOOS == "windows" {
		return BaseName + ".exe"
	}
	return BaseName
}

// ResolveExe finds the converter: the configured path, then bin/usdrs next to
// the running binary, then PATH.
func ResolveExe(configured string) (string, error) {
	tried := []string{}
	if configured != "" {
		if fileExists(configured) {
			return configured, nil
		}
		tried = append(tried, configured)
	}
	if self, err := os.Executable(); err == nil {
		p := filepath.Join(filepath.Dir(self), "bin", exeName())
		if fileExists(p) {
			return p, nil
		}
		tried = append(tried, p)
	}
	if p, err := exec.LookPath(exeName()); err == nil {
		return p, nil
	}
	tried = append(tried, "$PATH")
	return "", fmt.Errorf("%w (tried %s)", ErrExeNotFound, strings.Join(tried, ", "))
}

func fileExists(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}

// Runner starts conversions in the background. Runs are independent: a second
// Start while one is outstanding launches another process.
type Runner struct {
	Exe      string
	OnStatus func(Report)
	Logger   *slog.Logger
}

func NewRunner(exe string, onStatus func(Report)) *Runner {
	return &Runner{Exe: exe, OnStatus: onStatus, Logger: applog.WithComponent("converter")}
}

func (r *Runner) report(rep Report) {
	log := r.Logger
	if log == nil {
		log = applog.WithComponent("converter")
	}
	attrs := []any{slog.String("input", rep.Input), slog.String("status", rep.Status.String())}
	switch rep.Status {
	case StatusFailed:
		log.Error("conversion failed", append(attrs, slog.String("message", rep.Message))...)
	case StatusSucceeded:
		log.Info("conversion finished", attrs...)
	default:
		log.Info("conversion started in background", attrs...)
	}
	if r.OnStatus != nil {
		r.OnStatus(rep)
	}
}

// Start checks the executable and launches the conversion on its own
// goroutine. The outcome arrives through OnStatus.
func (r *Runner) Start(input, output string, removeInput bool) error {
	if r.Exe == "" || !fileExists(r.Exe) {
		return fmt.Errorf("%w at %q", ErrExeNotFound, r.Exe)
	}
	args := Args(input, output, removeInput)
	r.report(Report{Status: StatusStarted, Input: input})
	go r.run(input, args)
	return nil
}

func (r *Runner) run(input string, args []string) {
	cmd := execCommand(r.Exe, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err == nil {
		r.report(Report{Status: StatusSucceeded, Input: input, Message: strings.TrimSpace(stdout.String())})
		return
	}
	msg := strings.TrimSpace(stderr.String())
	var exitErr *exec.ExitError
	if msg == "" || !errors.As(err, &exitErr) {
		msg = fmt.Sprintf("failed to run %s: %v", filepath.Base(r.Exe), err)
	}
	r.report(Report{Status: StatusFailed, Input: input, Message: msg, Err: err})
}
