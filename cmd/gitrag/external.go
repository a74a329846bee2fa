package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/4thel00z/gitrag/internal"
)

const externalPrefix = "gitrag-"

func findExternal(name string) (string, error) {
	binary := externalPrefix + name
	path, err := exec.LookPath(binary)
	if err != nil {
		return "", fmt.Errorf("unknown command %q: %s not found in PATH", name, binary)
	}
	return path, nil
}

func listExternalCommands() []string {
	var commands []string
	seen := make(map[string]bool)

	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		commands = appendExternalsFromDir(dir, seen, commands)
	}
	return commands
}

func appendExternalsFromDir(dir string, seen map[string]bool, commands []string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return commands
	}

	for _, entry := range entries {
		name := extractExternalName(dir, entry)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		commands = append(commands, name)
	}
	return commands
}

func extractExternalName(dir string, entry os.DirEntry) string {
	if entry.IsDir() {
		return ""
	}

	name := entry.Name()
	if !strings.HasPrefix(name, externalPrefix) {
		return ""
	}

	info, err := os.Stat(filepath.Join(dir, name))
	if err != nil || info.Mode()&0111 == 0 {
		return ""
	}

	return strings.TrimPrefix(name, externalPrefix)
}

// executeExternal runs gitrag-<name> with the workspace paths exported, so
// plugins can read the same commit log and config.
func executeExternal(ctx context.Context, name string, args []string, version string) error {
	binaryPath, err := findExternal(name)
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, binaryPath, args...)
	cmd.Env = buildExternalEnv(version)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd.Run()
}

func buildExternalEnv(version string) []string {
	bin, _ := os.Executable()
	scope := internal.NewScopeResolver().Resolve("")

	env := os.Environ()
	env = append(env,
		"GITRAG_VERSION="+version,
		"GITRAG_BIN="+bin,
		"GITRAG_ROOT="+scope.Path,
		"GITRAG_DATA="+scope.DataPath,
	)
	if cfg, err := internal.LoadConfig(scope); err == nil {
		env = append(env, "GITRAG_LOG="+cfg.LogPath(scope))
	}
	return env
}
