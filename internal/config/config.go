/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted as YAML in the user scope.
// Environment variables are read-only overrides applied at load time.
//
// config_version: bump when the structure changes in a backward-incompatible way.
type AppConfig struct {
	ConfigVersion int             `yaml:"config_version"`
	Tool          ToolConfig      `yaml:"tool"`
	Export        ExportConfig    `yaml:"export"`
	Converter     ConverterConfig `yaml:"converter"`
	Stash         StashConfig     `yaml:"stash"`
	Logging       LoggingConfig   `yaml:"logging"`
}

// ToolConfig tunes the viewport authoring tools.
type ToolConfig struct {
	SnapRadius     float64 `yaml:"snap_radius"`
	SnapCandidates int     `yaml:"snap_candidates"`
	DeleteKey      string  `yaml:"delete_key"`
	Prompt         string  `yaml:"prompt"`
}

// ExportConfig controls the JSON export pass.
type ExportConfig struct {
	MeshLayer    string `yaml:"mesh_layer"`
	DefaultLayer string `yaml:"default_layer"`
	DeriveRects  bool   `yaml:"derive_rects"`
	Validate     bool   `yaml:"validate"`
}

// ConverterConfig points at the external scene converter.
type ConverterConfig struct {
	Exe         string `yaml:"exe"` // empty: resolve next to the binary, then PATH
	RemoveInput bool   `yaml:"remove_input"`
}

// StashConfig locates the SQLite stash used by the headless host.
type StashConfig struct {
	Path string `yaml:"path"`
	Node string `yaml:"node"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Tool: ToolConfig{
			SnapRadius:     5,
			SnapCandidates: 2,
			DeleteKey:      "Ctrl+d",
			Prompt:         "Move the mouse over the geometry.",
		},
		Export:    ExportConfig{MeshLayer: "2d_mesh", DefaultLayer: "platform", DeriveRects: true, Validate: true},
		Converter: ConverterConfig{},
		Stash:     StashConfig{Path: "stash.sqlite", Node: "platformer1"},
		Logging:   LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvSnapRadius   = "HBV_SNAP_RADIUS"
	EnvDeleteKey    = "HBV_DELETE_KEY"
	EnvConverterExe = "HBV_CONVERTER_EXE"
	EnvStashPath    = "HBV_STASH_PATH"
	EnvStashNode    = "HBV_STASH_NODE"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "HBV_LOG_LEVEL"
	EnvLogFormat = "HBV_LOG_FORMAT"
	EnvLogSource = "HBV_LOG_SOURCE"
	EnvLogFile   = "HBV_LOG_FILE"
)

// configPathOverride lets tests redirect the user config file.
var configPathOverride string

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	if configPathOverride != "" {
		return configPathOverride, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "HouBevy")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "HouBevy")
	default:
		base = filepath.Join(os.Getenv("HOME"), ".config", "houbevy")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges environment overrides.
func Load() (AppConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		cfg := Defaults()
		applyEnvOverrides(&cfg)
		return cfg, err
	}
	return loadFrom(path, false)
}

// LoadFile is Load for an explicit path; unlike Load a missing or malformed file is an error.
func LoadFile(path string) (AppConfig, error) {
	return loadFrom(path, true)
}

func loadFrom(path string, strict bool) (AppConfig, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		fileCfg := Defaults()
		if uerr := yaml.Unmarshal(data, &fileCfg); uerr != nil {
			if strict {
				return cfg, fmt.Errorf("config: parse %s: %w", path, uerr)
			}
		} else {
			mergeInto(&cfg, &fileCfg)
		}
	case strict:
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	// tool
	if src.Tool.SnapRadius > 0 {
		dst.Tool.SnapRadius = src.Tool.SnapRadius
	}
	if src.Tool.SnapCandidates > 0 {
		dst.Tool.SnapCandidates = src.Tool.SnapCandidates
	}
	if s := strings.TrimSpace(src.Tool.DeleteKey); s != "" {
		dst.Tool.DeleteKey = s
	}
	if s := strings.TrimSpace(src.Tool.Prompt); s != "" {
		dst.Tool.Prompt = s
	}
	// export
	if s := strings.TrimSpace(src.Export.MeshLayer); s != "" {
		dst.Export.MeshLayer = s
	}
	if s := strings.TrimSpace(src.Export.DefaultLayer); s != "" {
		dst.Export.DefaultLayer = s
	}
	dst.Export.DeriveRects = src.Export.DeriveRects
	dst.Export.Validate = src.Export.Validate
	// converter
	if s := strings.TrimSpace(src.Converter.Exe); s != "" {
		dst.Converter.Exe = s
	}
	dst.Converter.RemoveInput = src.Converter.RemoveInput
	// stash
	if s := strings.TrimSpace(src.Stash.Path); s != "" {
		dst.Stash.Path = s
	}
	if s := strings.TrimSpace(src.Stash.Node); s != "" {
		dst.Stash.Node = s
	}
	// logging
	if s := strings.TrimSpace(src.Logging.Level); s != "" {
		dst.Logging.Level = strings.ToLower(s)
	}
	if s := strings.TrimSpace(src.Logging.Format); s != "" {
		dst.Logging.Format = strings.ToLower(s)
	}
	dst.Logging.Source = src.Logging.Source
	if s := strings.TrimSpace(src.Logging.File); s != "" {
		dst.Logging.File = s
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvSnapRadius)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Tool.SnapRadius = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvDeleteKey)); v != "" {
		cfg.Tool.DeleteKey = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvConverterExe)); v != "" {
		cfg.Converter.Exe = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvStashPath)); v != "" {
		cfg.Stash.Path = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvStashNode)); v != "" {
		cfg.Stash.Node = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

func parseBool(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

// envKeys maps dotted config keys to the env vars that override them.
var envKeys = map[string]string{
	"tool.snap_radius": EnvSnapRadius,
	"tool.delete_key":  EnvDeleteKey,
	"converter.exe":    EnvConverterExe,
	"stash.path":       EnvStashPath,
	"stash.node":       EnvStashNode,
	"logging.level":    EnvLogLevel,
	"logging.format":   EnvLogFormat,
	"logging.source":   EnvLogSource,
	"logging.file":     EnvLogFile,
}

// EnvKeys lists the dotted keys that can be overridden from the environment, sorted.
func EnvKeys() []string {
	keys := make([]string, 0, len(envKeys))
	for k := range envKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	name, ok := envKeys[key]
	if !ok || os.Getenv(name) == "" {
		return "", false
	}
	return name, true
}
