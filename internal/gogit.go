package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

// ExportDateLayout matches the author timestamp format of the log file.
const ExportDateLayout = "2006-01-02 15:04:05-07:00"

type ExportOptions struct {
	// RepoPath is a directory inside a working tree, or the clone target
	// when URL is set.
	RepoPath   string
	URL        string
	Branch     string
	MaxCommits int
	Logger     *slog.Logger
}

type ExportStats struct {
	Written     int `json:"written"`
	SkippedRoot int `json:"skipped_root"`
	Failed      int `json:"failed"`
}

type LogExporter struct {
	repo     *git.Repository
	rootPath string
	branch   string
	max      int
	filter   *PathFilter
	logger   *slog.Logger
}

// OpenExporter opens the repository for opts. With a URL it clones into
// RepoPath, or pulls when RepoPath already holds a clone.
func OpenExporter(ctx context.Context, opts ExportOptions) (*LogExporter, error) {
	logger := orDiscard(opts.Logger)

	var repo *git.Repository
	var rootPath string
	var err error

	if opts.URL != "" {
		repo, err = cloneOrPull(ctx, opts.URL, opts.RepoPath, logger)
		rootPath = opts.RepoPath
	} else {
		repo, rootPath, err = openLocal(opts.RepoPath)
	}
	if err != nil {
		return nil, err
	}

	filter, err := NewPathFilter(rootPath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", IgnoreFilename, err)
	}

	maxCommits := opts.MaxCommits
	if maxCommits <= 0 {
		maxCommits = DefaultMaxCommits
	}

	return &LogExporter{
		repo:     repo,
		rootPath: rootPath,
		branch:   opts.Branch,
		max:      maxCommits,
		filter:   filter,
		logger:   logger,
	}, nil
}

func openLocal(dir string) (*git.Repository, string, error) {
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, "", fmt.Errorf("resolve repository path: %w", err)
	}

	gitDir, err := FindGitDir(abs)
	if err != nil {
		return nil, "", err
	}
	rootPath := filepath.Dir(gitDir)

	storage := filesystem.NewStorage(osfs.New(gitDir), cache.NewObjectLRUDefault())
	repo, err := git.Open(storage, osfs.New(rootPath))
	if err != nil {
		return nil, "", fmt.Errorf("open repository: %w", err)
	}
	return repo, rootPath, nil
}

func cloneOrPull(ctx context.Context, url, dir string, logger *slog.Logger) (*git.Repository, error) {
	if dir == "" {
		return nil, fmt.Errorf("clone of %s needs a target directory", url)
	}

	if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
		repo, err := git.PlainOpen(dir)
		if err != nil {
			return nil, fmt.Errorf("open repository: %w", err)
		}
		wt, err := repo.Worktree()
		if err != nil {
			return nil, fmt.Errorf("get worktree: %w", err)
		}
		logger.Info("pulling", "dir", dir)
		err = wt.PullContext(ctx, &git.PullOptions{RemoteName: "origin"})
		if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return nil, fmt.Errorf("pull: %w", err)
		}
		return repo, nil
	}

	logger.Info("cloning", "url", url, "dir", dir)
	repo, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{URL: url})
	if err != nil {
		return nil, fmt.Errorf("clone %s: %w", url, err)
	}
	return repo, nil
}

// RootPath is the working tree root of the exported repository.
func (e *LogExporter) RootPath() string {
	return e.rootPath
}

// GitDir is the repository's .git directory.
func (e *LogExporter) GitDir() string {
	return filepath.Join(e.rootPath, ".git")
}

// startHash resolves the configured branch, falling back to master, main
// and finally HEAD when none is configured.
func (e *LogExporter) startHash() (plumbing.Hash, error) {
	candidates := []string{"master", "main"}
	if e.branch != "" {
		candidates = []string{e.branch}
	}

	for _, name := range candidates {
		ref, err := e.repo.Reference(plumbing.NewBranchReferenceName(name), true)
		if err == nil {
			return ref.Hash(), nil
		}
		if !errors.Is(err, plumbing.ErrReferenceNotFound) {
			return plumbing.ZeroHash, fmt.Errorf("resolve branch %s: %w", name, err)
		}
	}
	if e.branch != "" {
		return plumbing.ZeroHash, fmt.Errorf("branch %s not found", e.branch)
	}

	head, err := e.repo.Head()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("get HEAD: %w", err)
	}
	return head.Hash(), nil
}

// Export writes up to the configured number of commits, newest first, as
// log blocks. Root commits have no parent to diff against and are skipped.
// A commit whose patch cannot be computed is logged and skipped.
func (e *LogExporter) Export(ctx context.Context, w io.Writer) (ExportStats, error) {
	var stats ExportStats

	from, err := e.startHash()
	if err != nil {
		return stats, err
	}

	iter, err := e.repo.Log(&git.LogOptions{From: from})
	if err != nil {
		return stats, fmt.Errorf("get log: %w", err)
	}
	defer iter.Close()

	count := 0
	err = iter.ForEach(func(c *object.Commit) error {
		if count >= e.max {
			return io.EOF
		}
		count++
		if err := ctx.Err(); err != nil {
			return err
		}

		if c.NumParents() == 0 {
			stats.SkippedRoot++
			e.logger.Debug("skipping root commit", "hash", c.Hash.String()[:7])
			return nil
		}

		diff, err := e.patch(ctx, c)
		if err != nil {
			stats.Failed++
			e.logger.Warn("could not diff commit", "hash", c.Hash.String(), "err", err)
			return nil
		}

		if err := WriteBlock(w, toRecord(c, diff)); err != nil {
			return fmt.Errorf("write block: %w", err)
		}
		stats.Written++
		return nil
	})
	if err != nil && !errors.Is(err, io.EOF) {
		return stats, err
	}

	return stats, nil
}

// ExportFile writes the log to path, replacing it only on success.
func (e *LogExporter) ExportFile(ctx context.Context, path string) (ExportStats, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return ExportStats{}, fmt.Errorf("create log directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".gitrag-log-*")
	if err != nil {
		return ExportStats{}, fmt.Errorf("create temp log: %w", err)
	}
	defer os.Remove(tmp.Name())

	stats, err := e.Export(ctx, tmp)
	if err != nil {
		tmp.Close()
		return stats, err
	}
	if err := tmp.Close(); err != nil {
		return stats, fmt.Errorf("close log: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return stats, fmt.Errorf("replace log: %w", err)
	}
	return stats, nil
}

// patch renders the diff of c against its first parent, without files
// matched by the path filter.
func (e *LogExporter) patch(ctx context.Context, c *object.Commit) (string, error) {
	parent, err := c.Parent(0)
	if err != nil {
		return "", fmt.Errorf("get parent: %w", err)
	}

	parentTree, err := parent.Tree()
	if err != nil {
		return "", fmt.Errorf("get parent tree: %w", err)
	}
	tree, err := c.Tree()
	if err != nil {
		return "", fmt.Errorf("get tree: %w", err)
	}

	changes, err := parentTree.DiffContext(ctx, tree)
	if err != nil {
		return "", fmt.Errorf("diff trees: %w", err)
	}

	if e.filter.Len() > 0 {
		kept := changes[:0:0]
		for _, ch := range changes {
			name := ch.To.Name
			if name == "" {
				name = ch.From.Name
			}
			if e.filter.Match(name) {
				continue
			}
			kept = append(kept, ch)
		}
		changes = kept
	}

	if len(changes) == 0 {
		return "", nil
	}

	patch, err := changes.PatchContext(ctx)
	if err != nil {
		return "", fmt.Errorf("build patch: %w", err)
	}
	return patch.String(), nil
}

func toRecord(c *object.Commit, diff string) CommitRecord {
	return CommitRecord{
		Hash:    c.Hash.String(),
		Author:  fmt.Sprintf("%s <%s>", c.Author.Name, c.Author.Email),
		Date:    c.Author.When.Format(ExportDateLayout),
		Message: strings.TrimSpace(c.Message),
		Diff:    diff,
	}
}
