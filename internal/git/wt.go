package git

import (
	"context"

	"go.chain.dev/chain/internal/silog"
)

// Worktree is a handle to a Git working tree:
// a checked-out copy of a repository's files plus an index.
//
// Operations that mutate HEAD, the index, or tracked files
// go through this type rather than Repository.
type Worktree struct {
	repo   *Repository
	dir    string // absolute path to the worktree root
	gitDir string // absolute path to the .git directory for this worktree

	log  *silog.Logger
	exec execer
}

// Repository returns the repository that owns this worktree.
func (w *Worktree) Repository() *Repository { return w.repo }

// RootDir returns the absolute path to the root of this worktree.
func (w *Worktree) RootDir() string { return w.dir }

func (w *Worktree) gitCmd(ctx context.Context, args ...string) *gitCmd {
	return newGitCmd(ctx, w.log, args...).Dir(w.dir)
}
