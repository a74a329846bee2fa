package internal

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// IgnoreFilename lists gitignore-style patterns for files whose changes are
// left out of exported diffs.
const IgnoreFilename = ".gitragignore"

type PathFilter struct {
	patterns []gitignore.Pattern
}

// NewPathFilter reads IgnoreFilename from the repository root. A missing
// file yields a filter that matches nothing.
func NewPathFilter(repoRoot string) (*PathFilter, error) {
	f, err := os.Open(filepath.Join(repoRoot, IgnoreFilename))
	if os.IsNotExist(err) {
		return &PathFilter{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return ParsePathFilter(lines), nil
}

// ParsePathFilter builds a filter from pattern lines; blanks and comments
// are ignored.
func ParsePathFilter(lines []string) *PathFilter {
	var patterns []gitignore.Pattern
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}
	return &PathFilter{patterns: patterns}
}

// Match reports whether the slash-separated repository path is excluded.
// Later patterns override earlier ones, as in gitignore.
func (f *PathFilter) Match(path string) bool {
	if f == nil || len(f.patterns) == 0 {
		return false
	}
	return gitignore.NewMatcher(f.patterns).Match(strings.Split(path, "/"), false)
}

func (f *PathFilter) Len() int {
	if f == nil {
		return 0
	}
	return len(f.patterns)
}
