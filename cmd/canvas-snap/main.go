package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/alchemmist/canvas-snap/internal/app"
	"github.com/alchemmist/canvas-snap/internal/config"
	"github.com/alchemmist/canvas-snap/internal/di"
	"github.com/alchemmist/canvas-snap/internal/store"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		usage(stdout)
		return 2
	}

	var err error
	switch args[0] {
	case "panel":
		err = runPanel(args[1:])
	case "serve":
		err = runServe(args[1:])
	case "export":
		err = runExport(args[1:], stdout)
	case "inspect":
		err = runInspect(args[1:], stdout)
	case "help", "-h", "--help":
		usage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "canvas-snap: unknown command: %s\n", args[0])
		return 1
	}
	if err != nil {
		fmt.Fprintf(stderr, "canvas-snap: %s\n", formatError(err))
		return 1
	}
	return 0
}

type commonFlags struct {
	config *string
	doc    *string
}

func addCommon(fs *flag.FlagSet) commonFlags {
	return commonFlags{
		config: fs.String("config", config.DefaultPath(), "config file"),
		doc:    fs.String("doc", "", "scene file (.yaml, .yml or .json)"),
	}
}

func (c commonFlags) load() (config.Config, error) {
	cfg, err := config.Load(*c.config)
	if err != nil {
		return config.Config{}, err
	}
	if doc := strings.TrimSpace(*c.doc); doc != "" {
		cfg.Document = doc
	}
	if strings.TrimSpace(cfg.Document) == "" {
		return config.Config{}, errors.New("a scene file is required (--doc)")
	}
	return cfg, nil
}

func runPanel(args []string) error {
	fs := flag.NewFlagSet("panel", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	common := addCommon(fs)
	exportDir := fs.String("export-dir", "", "directory for exported snapshots")
	compress := fs.Bool("compress", false, "compress exports with zstd")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := common.load()
	if err != nil {
		return err
	}
	if cfg.Logger.File == "" {
		cfg.Logger.File = filepath.Join(os.TempDir(), "canvas-snap.log")
	}
	if *exportDir != "" {
		cfg.Export.Dir = *exportDir
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, cleanup, err := di.InitApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	unlock, err := a.Lock()
	if err != nil {
		return err
	}
	defer unlock()

	go a.RunAutosave(ctx, 0)
	return a.RunPanel(ctx, app.PanelOptions{
		ExportDir: cfg.Export.Dir,
		Compress:  *compress || cfg.Export.Compress,
	})
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	common := addCommon(fs)
	addr := fs.String("addr", "", "listen address (default from config)")
	autosave := fs.Duration("autosave", 0, "autosave interval, 0 uses the config value")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := common.load()
	if err != nil {
		return err
	}
	if *autosave > 0 {
		cfg.Autosave.Interval = *autosave
	}
	listen := cfg.Addr()
	if *addr != "" {
		listen = *addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, cleanup, err := di.InitApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	unlock, err := a.Lock()
	if err != nil {
		return err
	}
	defer unlock()

	go a.RunAutosave(ctx, cfg.Autosave.Interval)
	return a.Serve(ctx, listen)
}

func runExport(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	common := addCommon(fs)
	name := fs.String("name", "", "snapshot name")
	outDir := fs.String("out", "", "output directory (default from config)")
	compress := fs.Bool("compress", false, "compress with zstd")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*name) == "" {
		return errors.New("export requires --name")
	}
	cfg, err := common.load()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	a, cleanup, err := di.InitApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	path, err := a.ExportScene(ctx, *name, *outDir, *compress || cfg.Export.Compress)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, path)
	return nil
}

func runInspect(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("inspect requires exactly one export file")
	}
	text, err := app.Inspect(fs.Arg(0))
	if err != nil {
		return err
	}
	fmt.Fprint(out, text)
	return nil
}

func usage(out io.Writer) {
	fmt.Fprint(out, `canvas-snap - design document snapshots with capture, restore and export

Usage:
  canvas-snap <command> [flags]

Commands:
  panel      Open the interactive version control panel for a scene
  serve      Serve the snapshot API over HTTP
  export     Capture a scene and write it as a snapshot export file
  inspect    Describe a snapshot export file
`)
}

func formatError(err error) string {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return fmt.Sprintf("not found: %v", err)
	case errors.Is(err, store.ErrNoDocument):
		return fmt.Sprintf("no document: %v", err)
	}
	return err.Error()
}
