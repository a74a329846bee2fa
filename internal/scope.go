package internal

import (
	"os"
	"path/filepath"
)

// DataDirName is the per-workspace directory holding config and caches.
const DataDirName = ".gitrag"

type ScopeType string

const (
	ScopeGlobal  ScopeType = "global"
	ScopeProject ScopeType = "project"
)

type Scope struct {
	Type     ScopeType
	Path     string // workspace root
	DataPath string // .gitrag directory
}

func (s Scope) ConfigPath() string {
	return filepath.Join(s.DataPath, "config.yaml")
}

// Resolve makes p absolute relative to the workspace root.
func (s Scope) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.Path, p)
}

// ResolveData makes p absolute relative to the data directory.
func (s Scope) ResolveData(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.DataPath, p)
}

// Initialized reports whether the data directory exists.
func (s Scope) Initialized() bool {
	info, err := os.Stat(s.DataPath)
	return err == nil && info.IsDir()
}

type ScopeResolver struct {
	homeDir string
}

func NewScopeResolver() *ScopeResolver {
	home, _ := os.UserHomeDir()
	return &ScopeResolver{homeDir: home}
}

func (r *ScopeResolver) Global() Scope {
	return Scope{
		Type:     ScopeGlobal,
		Path:     r.homeDir,
		DataPath: filepath.Join(r.homeDir, DataDirName),
	}
}

func (r *ScopeResolver) Project() (Scope, bool) {
	cwd, err := os.Getwd()
	if err != nil {
		return Scope{}, false
	}
	return r.findProjectScope(cwd)
}

func (r *ScopeResolver) findProjectScope(dir string) (Scope, bool) {
	for {
		dataPath := filepath.Join(dir, DataDirName)
		info, err := os.Stat(dataPath)
		if err == nil && info.IsDir() && dir != r.homeDir {
			return Scope{Type: ScopeProject, Path: dir, DataPath: dataPath}, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Scope{}, false
		}
		dir = parent
	}
}

// Resolve picks the project scope unless global is requested or no project
// workspace encloses the working directory.
func (r *ScopeResolver) Resolve(explicit string) Scope {
	if explicit == string(ScopeGlobal) {
		return r.Global()
	}
	if scope, ok := r.Project(); ok {
		return scope
	}
	return r.Global()
}

// ProjectAt returns the project scope rooted at dir, initialized or not.
func (r *ScopeResolver) ProjectAt(dir string) Scope {
	return Scope{Type: ScopeProject, Path: dir, DataPath: filepath.Join(dir, DataDirName)}
}
