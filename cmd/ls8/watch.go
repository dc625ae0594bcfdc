package main

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"time"

	"github.com/howeyc/fsnotify"
)

// watchProgram runs the program at path, then runs it again on a fresh
// emulator every time the file changes, until ctx is done.
// Load and runtime errors are logged, and do not stop the watch.
// A run in progress is stopped when ctx is done.
func watchProgram(ctx context.Context, path string, out io.Writer, opt options) error {
	path, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Watch(filepath.Dir(path)); err != nil {
		return err
	}

	run := time.After(1 * time.Millisecond)
	for {
		select {
		case <-run:
			log.Printf("watch: run %s", filepath.Base(path))
			report, err := execute(ctx, path, out, opt)
			if err != nil {
				log.Printf("watch: %v", err)
				break
			}
			log.Printf("watch: %v after %d instructions", report.Reason, report.State.Ticks)
		case ev := <-watcher.Event:
			if ev.Name == path && !ev.IsAttrib() {
				run = time.After(100 * time.Millisecond)
			}
		case err := <-watcher.Error:
			log.Printf("watch: watcher: %v", err)
		case <-ctx.Done():
			return nil
		}
	}
}
