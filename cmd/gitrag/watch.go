package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/4thel00z/gitrag/internal"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// watchAndExport re-runs the export whenever HEAD or a branch ref changes,
// batching bursts of events within the debounce window.
func watchAndExport(cmd *cobra.Command, uc *internal.ExportUseCase, input internal.ExportInput, gitDir string, debounce time.Duration) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := addWatchDirs(watcher, gitDir); err != nil {
		return fmt.Errorf("add watch dirs: %w", err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s for new commits...\n", gitDir)

	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-cmd.Context().Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if shouldIgnoreEvent(event) {
				continue
			}
			if !pending {
				timer.Reset(debounce)
				pending = true
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "watch error: %v\n", err)
		case <-timer.C:
			pending = false
			out, exportErr := uc.Execute(cmd.Context(), input)
			if exportErr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "export: %v\n", exportErr)
				continue
			}
			if err := printExport(cmd, out); err != nil {
				return err
			}
		}
	}
}

// addWatchDirs watches the git directory itself, for HEAD and packed-refs,
// and every directory under refs/heads.
func addWatchDirs(watcher *fsnotify.Watcher, gitDir string) error {
	if err := watcher.Add(gitDir); err != nil {
		return err
	}
	heads := filepath.Join(gitDir, "refs", "heads")
	return filepath.Walk(heads, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}

func shouldIgnoreEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return true
	}
	if strings.HasSuffix(event.Name, ".lock") {
		return true
	}

	base := filepath.Base(event.Name)
	dir := filepath.Base(filepath.Dir(event.Name))
	switch {
	case base == "HEAD" && dir != "logs":
		return false
	case base == "packed-refs":
		return false
	case strings.Contains(filepath.ToSlash(event.Name), "/refs/heads/"):
		return false
	}
	return true
}
