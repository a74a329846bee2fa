package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const HookMarker = "# gitrag: managed post-commit hook"

var ErrForeignHook = errors.New("hook exists and is not managed by gitrag")

// HookScript returns the shell shim that refreshes the commit log.
func HookScript(hookType string) string {
	return fmt.Sprintf("#!/bin/sh\n%s (%s)\nexec gitrag export --quiet >/dev/null 2>&1\n", HookMarker, hookType)
}

// IsManagedHook checks if the given script content was written by gitrag.
func IsManagedHook(content string) bool {
	return strings.Contains(content, HookMarker)
}

// FindGitDir walks up from dir looking for a .git directory.
func FindGitDir(dir string) (string, error) {
	for {
		gitDir := filepath.Join(dir, ".git")
		info, err := os.Stat(gitDir)
		if err == nil && info.IsDir() {
			return gitDir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not a git repository (no .git found)")
		}
		dir = parent
	}
}

// InstallHook writes the post-commit shim into gitDir. An existing hook not
// written by gitrag is left alone unless force is set, in which case it is
// kept next to the new one with a .bak suffix.
func InstallHook(gitDir string, force bool) (string, error) {
	hooksDir := filepath.Join(gitDir, "hooks")
	if err := os.MkdirAll(hooksDir, 0755); err != nil {
		return "", fmt.Errorf("create hooks directory: %w", err)
	}

	path := filepath.Join(hooksDir, "post-commit")
	existing, err := os.ReadFile(path)
	switch {
	case err == nil && !IsManagedHook(string(existing)):
		if !force {
			return "", fmt.Errorf("%w: %s", ErrForeignHook, path)
		}
		if err := os.WriteFile(path+".bak", existing, 0755); err != nil {
			return "", fmt.Errorf("back up hook: %w", err)
		}
	case err != nil && !os.IsNotExist(err):
		return "", fmt.Errorf("read hook: %w", err)
	}

	if err := os.WriteFile(path, []byte(HookScript("post-commit")), 0755); err != nil {
		return "", fmt.Errorf("write hook: %w", err)
	}
	return path, nil
}

// UninstallHook removes the post-commit shim if gitrag wrote it.
func UninstallHook(gitDir string) error {
	path := filepath.Join(gitDir, "hooks", "post-commit")
	existing, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read hook: %w", err)
	}
	if !IsManagedHook(string(existing)) {
		return fmt.Errorf("%w: %s", ErrForeignHook, path)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove hook: %w", err)
	}
	return nil
}
