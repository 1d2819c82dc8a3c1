/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"houbevy/internal/config"
	"houbevy/internal/converter"
	"houbevy/internal/crash"
	"houbevy/internal/export"
	"houbevy/internal/headless"
	applog "houbevy/internal/log"
	"houbevy/internal/scene"
	"houbevy/internal/session"
	"houbevy/internal/stash"
	"houbevy/internal/version"
)

// errUsage marks command line mistakes; they exit with code 2.
var errUsage = errors.New("usage")

type command struct {
	summary string
	run     func(app *app, args []string) error
}

var commands = map[string]command{
	"version":  {"Show version", cmdVersion},
	"config":   {"Print the config path and effective settings", cmdConfig},
	"replay":   {"Replay a YAML input script against a stashed node", cmdReplay},
	"nodes":    {"List nodes stored in the stash", cmdNodes},
	"export":   {"Export a stashed node to a JSON scene", cmdExport},
	"validate": {"Check JSON scenes against the strict schema (-lenient: parse only)", cmdValidate},
	"convert":  {"Run the external converter on a JSON scene and wait for it", cmdConvert},
	"watch":    {"Convert every JSON scene written in a directory", cmdWatch},
}

type app struct {
	stdout  io.Writer
	stderr  io.Writer
	cfg     config.AppConfig
	cfgPath string
	crash   *crash.Context
	log     *slog.Logger
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "houbevy: platformer authoring toolkit")
	fmt.Fprintf(w, "Version: %s\n", version.String())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  houbevy [-config file] <command> [flags] [args]")
	fmt.Fprintln(w)
	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(w, "  %-10s %s\n", n, commands[n].summary)
	}
}

func main() {
	applog.Init(applog.FromEnv())
	cc := &crash.Context{}
	defer crash.Recover(cc)
	if code := run(os.Args[1:], os.Stdout, os.Stderr, cc); code != 0 {
		os.Exit(code)
	}
}

func run(args []string, stdout, stderr io.Writer, cc *crash.Context) int {
	if len(args) == 1 && (args[0] == "-v" || args[0] == "--version") {
		args = []string{"version"}
	}
	fs := flag.NewFlagSet("houbevy", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfgPath := fs.String("config", "", "config file (default: user config)")
	fs.Usage = func() { usage(stderr) }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	rest := fs.Args()
	if len(rest) == 0 {
		usage(stderr)
		return 2
	}
	name := rest[0]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", rest[0])
		usage(stderr)
		return 2
	}

	cfg, loaded, err := loadConfig(*cfgPath)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
		Console:   stderr,
	})
	cc.Command = name
	a := &app{stdout: stdout, stderr: stderr, cfg: cfg, cfgPath: loaded, crash: cc, log: applog.WithComponent("cli")}
	a.log.Debug("start", slog.String("command", name), slog.Int("args", len(rest)-1))

	if err := cmd.run(a, rest[1:]); err != nil {
		if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
			if !errors.Is(err, flag.ErrHelp) {
				fmt.Fprintln(stderr, err)
			}
			return 2
		}
		a.log.Error("command failed", slog.String("command", name), slog.Any("err", err))
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	return 0
}

// loadConfig returns the effective config and the file it came from ("" when
// no user config dir can be resolved).
func loadConfig(path string) (config.AppConfig, string, error) {
	if path != "" {
		cfg, err := config.LoadFile(path)
		return cfg, path, err
	}
	cfg, err := config.Load()
	if err != nil {
		// no resolvable user dir: defaults plus env are still usable
		applog.WithComponent("cli").Warn("user config unavailable", slog.Any("err", err))
		return cfg, "", nil
	}
	p, _ := config.ConfigPath()
	return cfg, p, nil
}

func newFlags(a *app, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

func usageErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

func cmdVersion(a *app, _ []string) error {
	fmt.Fprintln(a.stdout, "houbevy", version.String())
	return nil
}

func cmdConfig(a *app, _ []string) error {
	if a.cfgPath != "" {
		fmt.Fprintln(a.stdout, "# path:", a.cfgPath)
	}
	for _, key := range config.EnvKeys() {
		if env, ok := config.EnvOverrideFor(key); ok {
			fmt.Fprintf(a.stdout, "# override: %s from %s=%s\n", key, env, os.Getenv(env))
		}
	}
	b, err := yaml.Marshal(a.cfg)
	if err != nil {
		return err
	}
	_, err = a.stdout.Write(b)
	return err
}

// stashFlags registers the flags shared by commands working on a stashed node.
func stashFlags(a *app, fs *flag.FlagSet) (path, node *string) {
	path = fs.String("stash", a.cfg.Stash.Path, "stash database")
	node = fs.String("node", a.cfg.Stash.Node, "node name")
	return path, node
}

func cmdReplay(a *app, args []string) error {
	fs := newFlags(a, "replay")
	stashPath, nodeName := stashFlags(a, fs)
	fresh := fs.Bool("fresh", false, "start from empty geometry instead of the stashed one")
	dryRun := fs.Bool("dry-run", false, "do not write the result back to the stash")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usageErr("replay needs exactly one script")
	}
	sc, err := session.Load(fs.Arg(0))
	if err != nil {
		return err
	}
	if sc.Node != "" && !flagSet(fs, "node") {
		*nodeName = sc.Node
	}

	st, err := stash.Open(*stashPath)
	if err != nil {
		return err
	}
	defer st.Close()
	ctx := context.Background()

	geo := headless.NewGeometry()
	if !*fresh {
		loaded, err := st.Load(ctx, *nodeName)
		switch {
		case err == nil:
			geo = loaded
		case errors.Is(err, stash.ErrNotFound):
			a.log.Info("new node", slog.String("node", *nodeName))
		default:
			return err
		}
	}
	node := headless.NewNode(*nodeName, geo)
	a.crash.Node = node.Name
	if !*dryRun {
		a.crash.Autosave = func() (string, error) {
			return st.Path(), st.Save(context.Background(), node.Name, node.Geo)
		}
	}

	s, err := session.New(node, a.cfg.Tool)
	if err != nil {
		return err
	}
	if err := s.Run(sc); err != nil {
		return err
	}
	if !*dryRun {
		if err := st.Save(ctx, node.Name, node.Geo); err != nil {
			return err
		}
	}
	fmt.Fprintf(a.stdout, "%s: %d steps, %d prims, %d points\n", node.Name, len(sc.Steps), node.Geo.NumPrims(), node.Geo.NumPoints())
	return nil
}

func cmdNodes(a *app, args []string) error {
	fs := newFlags(a, "nodes")
	stashPath := fs.String("stash", a.cfg.Stash.Path, "stash database")
	if err := fs.Parse(args); err != nil {
		return err
	}
	st, err := stash.Open(*stashPath)
	if err != nil {
		return err
	}
	defer st.Close()
	entries, err := st.Nodes(context.Background())
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Fprintf(a.stdout, "%s\t%d prims\t%s\n", e.Node, e.Prims, e.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func cmdExport(a *app, args []string) error {
	fs := newFlags(a, "export")
	stashPath, nodeName := stashFlags(a, fs)
	out := fs.String("o", "", "output JSON file (default: <node>.json)")
	noValidate := fs.Bool("no-validate", false, "skip the schema check")
	convert := fs.Bool("convert", false, "run the external converter on the result")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 0 {
		return usageErr("export takes no arguments")
	}
	if *out == "" {
		*out = *nodeName + ".json"
	}

	st, err := stash.Open(*stashPath)
	if err != nil {
		return err
	}
	defer st.Close()
	geo, err := st.Load(context.Background(), *nodeName)
	if err != nil {
		return err
	}
	opts := export.OptionsFromConfig(a.cfg.Export)
	if *noValidate {
		opts.Validate = false
	}
	data, err := export.Run(geo, *out, opts)
	if err != nil {
		return err
	}
	rects, meshes := data.Counts()
	fmt.Fprintf(a.stdout, "wrote %s: %d layers, %d rects, %d meshes\n", *out, data.Len(), rects, meshes)
	if *convert {
		return convertAndWait(a, *out, "", a.cfg.Converter.RemoveInput)
	}
	return nil
}

func cmdValidate(a *app, args []string) error {
	fs := newFlags(a, "validate")
	lenient := fs.Bool("lenient", false, "accept any document the scene parser reads, filling defaults")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return usageErr("validate needs at least one file")
	}
	var failed []string
	for _, path := range fs.Args() {
		b, err := os.ReadFile(path)
		if err == nil && !*lenient {
			err = scene.Validate(b)
		}
		var data *scene.Data
		if err == nil {
			data, err = scene.FromJSON(b)
		}
		if err != nil {
			fmt.Fprintf(a.stdout, "FAIL %s: %v\n", path, err)
			failed = append(failed, path)
			continue
		}
		rects, meshes := data.Counts()
		fmt.Fprintf(a.stdout, "ok   %s: %d layers, %d rects, %d meshes\n", path, data.Len(), rects, meshes)
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d files invalid", len(failed), fs.NArg())
	}
	return nil
}

func cmdConvert(a *app, args []string) error {
	fs := newFlags(a, "convert")
	out := fs.String("o", "", "output file")
	remove := fs.Bool("remove-input", a.cfg.Converter.RemoveInput, "delete the input after a successful conversion")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usageErr("convert needs exactly one input")
	}
	return convertAndWait(a, fs.Arg(0), *out, *remove)
}

// convertAndWait blocks until the background conversion reports back, since
// the process would otherwise exit first.
func convertAndWait(a *app, input, output string, remove bool) error {
	exe, err := converter.ResolveExe(a.cfg.Converter.Exe)
	if err != nil {
		return err
	}
	done := make(chan converter.Report, 1)
	r := converter.NewRunner(exe, func(rep converter.Report) {
		if rep.Status != converter.StatusStarted {
			done <- rep
		}
	})
	abs, _ := filepath.Abs(input)
	if err := r.Start(abs, output, remove); err != nil {
		return err
	}
	rep := <-done
	if rep.Status == converter.StatusFailed {
		return fmt.Errorf("converter: %s", rep.Message)
	}
	if rep.Message != "" {
		fmt.Fprintln(a.stdout, rep.Message)
	}
	return nil
}

func cmdWatch(a *app, args []string) error {
	fs := newFlags(a, "watch")
	outDir := fs.String("out", "", "directory for converter output")
	remove := fs.Bool("remove-input", a.cfg.Converter.RemoveInput, "delete inputs after conversion")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usageErr("watch needs exactly one directory")
	}
	exe, err := converter.ResolveExe(a.cfg.Converter.Exe)
	if err != nil {
		return err
	}
	r := converter.NewRunner(exe, statusPrinter(a.stdout))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return converter.Watch(ctx, fs.Arg(0), r, converter.WatchOptions{OutputDir: *outDir, RemoveInput: *remove})
}

// lockedWriter serializes writes from concurrent converter runs.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// statusPrinter returns a runner callback printing one line per finished run.
func statusPrinter(w io.Writer) func(converter.Report) {
	out := &lockedWriter{w: w}
	return func(rep converter.Report) {
		if rep.Status == converter.StatusStarted {
			return
		}
		fmt.Fprintf(out, "%s %s %s\n", rep.Status, rep.Input, rep.Message)
	}
}

func flagSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
