package main

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"codemap/internal/location"
	"codemap/internal/pipeline"
	"codemap/internal/progress"
)

// runWatch rebuilds the whole graph on every source-tree change. This
// is a full rebuild on every event, never an incremental one — the
// pipeline has no notion of a partial re-index (spec's Non-goals).
func runWatch(cmd *cobra.Command, args []string) error {
	root, err := targetRoot(args)
	if err != nil {
		return err
	}
	fw, err := loadFrameworkConfig()
	if err != nil {
		return err
	}
	path, err := resolveDBPath(root)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := addWatchDirs(watcher, root); err != nil {
		return err
	}

	ctx := cmd.Context()
	rebuild := func() error {
		result, err := pipeline.Run(ctx, pipeline.Options{
			Root:         root,
			FrameworkCfg: fw,
			UseGitignore: true,
			Sink:         progress.NewSlogSink(log),
		})
		if err != nil {
			return err
		}
		s, err := openStore(path)
		if err != nil {
			return err
		}
		defer s.Close()
		if err := pipeline.Persist(ctx, s, result.Graph); err != nil {
			return err
		}
		if memBackend {
			if err := s.Save(ctx, path); err != nil {
				return err
			}
		}
		log.Info("rebuilt graph", "files", result.FileCount, "nodes", len(result.Graph.Nodes), "edges", len(result.Graph.Edges))
		return nil
	}

	if err := rebuild(); err != nil {
		return err
	}

	// Debounce bursts of filesystem events (a save often fires several
	// events in quick succession) into one rebuild.
	var pending *time.Timer
	const debounce = 300 * time.Millisecond
	// Timer callbacks run on their own goroutines; buildMu makes a
	// rebuild wait for any rebuild still in progress, so only one
	// writes the store at a time.
	var buildMu sync.Mutex

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isSourceEvent(event) {
				continue
			}
			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(debounce, func() {
				buildMu.Lock()
				defer buildMu.Unlock()
				if err := rebuild(); err != nil {
					log.Error("rebuild failed", "error", err)
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error("watch error", "error", err)
		}
	}
}

func isSourceEvent(event fsnotify.Event) bool {
	return location.DefaultExtensions[filepath.Ext(event.Name)]
}

func addWatchDirs(w *fsnotify.Watcher, root string) error {
	files, err := location.Walk(root, location.WalkOptions{UseGitignore: true})
	if err != nil {
		return err
	}
	dirs := map[string]bool{root: true}
	for _, f := range files {
		dirs[filepath.Dir(f)] = true
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			return err
		}
	}
	return nil
}
