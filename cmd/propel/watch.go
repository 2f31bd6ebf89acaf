package main

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/syssam/propel"
	"github.com/syssam/propel/compiler"
	"github.com/syssam/propel/config"
)

const defaultDebounce = 200 * time.Millisecond

func newWatchCmd(a *app) *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch [schema...]",
		Short: "Rebuild when a schema document changes",
		Long: "Build the schema documents, then rebuild each one when it is written. Build errors are " +
			"logged and the watch goes on. Stop with an interrupt.",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := a.schemaPaths(args)
			if err != nil {
				return err
			}
			c, err := a.compiler(compiler.WithSQLDir(a.props.SQLDir()))
			if err != nil {
				return err
			}
			w := &watcher{app: a, compiler: c, debounce: debounce}
			return w.run(cmd.Context(), paths)
		},
	}
	fs := cmd.Flags()
	fs.String("platform", "", "SQL platform: mssql, mysql, oracle, pgsql or sqlite")
	fs.String("output", "", "output directory of the generated code")
	fs.DurationVar(&debounce, "debounce", defaultDebounce, "quiet period before a rebuild")
	bindKey(fs, "platform", config.KeyPlatform)
	bindKey(fs, "output", config.KeyOutputDir)
	return cmd
}

// watcher rebuilds schema documents on change.
type watcher struct {
	app      *app
	compiler *compiler.Compiler
	debounce time.Duration

	// ready and built are test hooks.
	ready func()
	built func(path string, err error)
}

func (w *watcher) run(ctx context.Context, paths []string) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return propel.NewIOError("watch", "", err)
	}
	defer fw.Close()

	// Editors often replace files, so the directories are watched.
	docs := make(map[string]string, len(paths))
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return propel.NewIOError("watch", p, err)
		}
		docs[abs] = p
		if dir := filepath.Dir(abs); !dirs[dir] {
			if err := fw.Add(dir); err != nil {
				return propel.NewIOError("watch", dir, err)
			}
			dirs[dir] = true
		}
	}
	for _, p := range paths {
		w.build(ctx, p)
	}
	w.app.logger.Info("watching schema documents", "documents", len(docs), "directories", len(dirs))
	if w.ready != nil {
		w.ready()
	}

	var (
		pending = make(map[string]bool)
		timer   *time.Timer
		fire    <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			p, ok := docs[filepath.Clean(ev.Name)]
			if !ok {
				continue
			}
			w.app.logger.Debug("schema changed", "path", p, "op", ev.Op.String())
			pending[p] = true
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.app.logger.Warn("watch error", "error", err)
		case <-fire:
			fire = nil
			for p := range pending {
				w.build(ctx, p)
			}
			clear(pending)
		}
	}
}

func (w *watcher) build(ctx context.Context, path string) {
	res, err := w.compiler.Generate(ctx, path)
	if err != nil {
		w.app.logger.Error("build failed", "path", path, "error", err)
	} else {
		w.app.logger.Info("build done", "path", path, "entities", len(res.Database.Entities), "files", len(res.Files))
	}
	if w.built != nil {
		w.built(path, err)
	}
}
