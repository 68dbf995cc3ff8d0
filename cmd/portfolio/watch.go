package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/goliatone/go-portfolio/pkg/document"
)

const rebuildDelay = 200 * time.Millisecond

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".svg":  true,
}

// watchBuild runs build after the portfolio file or an image next to it
// changes, until ctx is done. Build failures are reported and watching
// continues.
func watchBuild(ctx context.Context, input string, build func(context.Context) error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer watcher.Close()

	// Editors often save by rename, so watch directories rather than files.
	dirs := watchedDirs(input)
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	timer := time.NewTimer(rebuildDelay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if isRebuildEvent(event, input) {
				timer.Reset(rebuildDelay)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			printWarning("watch: %v", err)
		case <-timer.C:
			if err := build(ctx); err != nil {
				printError("%v", err)
			}
		}
	}
}

// watchedDirs returns the portfolio file's directory plus the image's
// directory when it differs.
func watchedDirs(input string) []string {
	dirs := []string{filepath.Dir(input)}
	file, err := document.Load(input)
	if err != nil {
		return dirs
	}
	if image := file.ImagePath(); image != "" {
		if dir := filepath.Dir(image); filepath.Clean(dir) != filepath.Clean(dirs[0]) {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

func isRebuildEvent(event fsnotify.Event, input string) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return false
	}
	if filepath.Clean(event.Name) == filepath.Clean(input) {
		return true
	}
	return imageExts[strings.ToLower(filepath.Ext(event.Name))]
}
