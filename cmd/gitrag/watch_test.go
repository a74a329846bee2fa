package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fsnotify/fsnotify"
)

func TestShouldIgnoreEvent(t *testing.T) {
	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{
			name:  "branch ref updated",
			event: fsnotify.Event{Name: "/repo/.git/refs/heads/main", Op: fsnotify.Write},
			want:  false,
		},
		{
			name:  "nested branch ref created",
			event: fsnotify.Event{Name: "/repo/.git/refs/heads/feature/x", Op: fsnotify.Create},
			want:  false,
		},
		{
			name:  "HEAD moved",
			event: fsnotify.Event{Name: "/repo/.git/HEAD", Op: fsnotify.Rename},
			want:  false,
		},
		{
			name:  "packed refs rewritten",
			event: fsnotify.Event{Name: "/repo/.git/packed-refs", Op: fsnotify.Create},
			want:  false,
		},
		{
			name:  "lock file ignored",
			event: fsnotify.Event{Name: "/repo/.git/refs/heads/main.lock", Op: fsnotify.Create},
			want:  true,
		},
		{
			name:  "index write ignored",
			event: fsnotify.Event{Name: "/repo/.git/index", Op: fsnotify.Write},
			want:  true,
		},
		{
			name:  "reflog HEAD ignored",
			event: fsnotify.Event{Name: "/repo/.git/logs/HEAD", Op: fsnotify.Write},
			want:  true,
		},
		{
			name:  "chmod ignored",
			event: fsnotify.Event{Name: "/repo/.git/HEAD", Op: fsnotify.Chmod},
			want:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldIgnoreEvent(tt.event); got != tt.want {
				t.Errorf("shouldIgnoreEvent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAddWatchDirs(t *testing.T) {
	gitDir := filepath.Join(t.TempDir(), ".git")
	if err := os.MkdirAll(filepath.Join(gitDir, "refs", "heads", "feature"), 0755); err != nil {
		t.Fatal(err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		t.Fatal(err)
	}
	defer watcher.Close()

	if err := addWatchDirs(watcher, gitDir); err != nil {
		t.Fatalf("add watch dirs: %v", err)
	}
	if got := len(watcher.WatchList()); got != 3 {
		t.Errorf("expected 3 watched dirs, got %d", got)
	}
}
