package main

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce coalesces bursts of events (editors often write several times).
const debounce = 300 * time.Millisecond

// watch runs rebuild once, then again after every settled burst of changes
// under root, until ctx is done. Events on the skip paths (the bundle's own
// output and cache) and under hidden directories are ignored.
func watch(ctx context.Context, root string, skip []string, logger *slog.Logger, rebuild func(context.Context) error) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addRecursive(w, root); err != nil {
		return err
	}

	skipped := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		if p == "" {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			skipped[abs] = struct{}{}
		}
	}

	if err := rebuild(ctx); err != nil {
		logger.Error("build failed", "error", err)
	}
	logger.Info("watching for changes", "root", root)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !relevant(root, ev, skipped) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := addRecursive(w, ev.Name); err != nil {
						logger.Warn("could not watch directory", "path", ev.Name, "error", err)
					}
				}
			}
			logger.Debug("change detected", "path", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)

		case <-fire:
			fire = nil
			if err := rebuild(ctx); err != nil {
				logger.Error("rebuild failed", "error", err)
			}
		}
	}
}

func relevant(root string, ev fsnotify.Event, skipped map[string]struct{}) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	if _, ok := skipped[ev.Name]; ok {
		return false
	}
	rel, err := filepath.Rel(root, ev.Name)
	if err != nil {
		return false
	}
	for _, seg := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(seg, ".") && seg != "." && seg != ".." {
			return false
		}
	}
	return true
}

// addRecursive watches dir and every non-hidden directory below it.
func addRecursive(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
