package git

import (
	"context"
	"fmt"
	"strings"

	"go.chain.dev/chain/internal/silog"
)

// Repository is a handle to a Git repository on disk.
//
// It provides access to repository-wide state (config, objects, refs)
// that does not require a clean working tree.
type Repository struct {
	rootDir string // absolute path to the worktree root
	gitDir  string // absolute path to the .git directory

	log  *silog.Logger
	exec execer
}

// OpenOptions configures the behavior of Open.
type OpenOptions struct {
	// Log specifies the logger to use for messages.
	// If nil, a no-op logger is used.
	Log *silog.Logger

	exec execer
}

// Open opens the repository containing dir.
// If dir is empty, the current working directory is used.
func Open(ctx context.Context, dir string, opts OpenOptions) (*Repository, error) {
	if opts.exec == nil {
		opts.exec = _realExec
	}
	if opts.Log == nil {
		opts.Log = silog.Nop()
	}

	out, err := newGitCmd(ctx, opts.Log, "rev-parse", "--show-toplevel", "--absolute-git-dir").
		Dir(dir).
		OutputString(opts.exec)
	if err != nil {
		return nil, fmt.Errorf("not a git repository: %w", err)
	}

	root, gitDir, ok := strings.Cut(out, "\n")
	if !ok {
		return nil, fmt.Errorf("unexpected output from git rev-parse: %q", out)
	}

	return &Repository{
		rootDir: root,
		gitDir:  gitDir,
		log:     opts.Log,
		exec:    opts.exec,
	}, nil
}

// RootDir returns the absolute path to the root of the working tree.
func (r *Repository) RootDir() string { return r.rootDir }

// GitDir returns the absolute path to the repository's .git directory.
func (r *Repository) GitDir() string { return r.gitDir }

// Config returns a handle to the repository's configuration.
func (r *Repository) Config() *Config {
	return &Config{dir: r.rootDir, log: r.log, exec: r.exec}
}

// Worktree returns a handle to the primary worktree of the repository,
// rooted at RootDir.
func (r *Repository) Worktree() *Worktree {
	return &Worktree{repo: r, dir: r.rootDir, gitDir: r.gitDir, log: r.log, exec: r.exec}
}

func (r *Repository) gitCmd(ctx context.Context, args ...string) *gitCmd {
	return newGitCmd(ctx, r.log, args...).Dir(r.rootDir)
}
