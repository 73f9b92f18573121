package git

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrDetachedHead indicates that the worktree is
// unexpectedly in detached HEAD state.
var ErrDetachedHead = errors.New("in detached HEAD state")

// CurrentBranch reports the branch checked out in this worktree.
// It returns [ErrDetachedHead] if the worktree is in detached HEAD state.
func (w *Worktree) CurrentBranch(ctx context.Context) (string, error) {
	name, err := w.gitCmd(ctx, "branch", "--show-current").
		OutputString(w.exec)
	if err != nil {
		return "", fmt.Errorf("git branch --show-current: %w", err)
	}
	name = strings.TrimSpace(name)
	if len(name) == 0 {
		return "", ErrDetachedHead
	}
	return name, nil
}

// DetachHead detaches HEAD, optionally pointing it at commitish.
// If commitish is empty, HEAD stays at the current commit.
func (w *Worktree) DetachHead(ctx context.Context, commitish string) error {
	w.log.Debugf("detaching HEAD at %q", commitish)

	args := []string{"checkout", "--detach"}
	if len(commitish) > 0 {
		args = append(args, commitish)
	}
	if err := w.gitCmd(ctx, args...).Run(w.exec); err != nil {
		return fmt.Errorf("git checkout --detach: %w", err)
	}
	return nil
}

// Checkout switches the worktree to the named branch.
func (w *Worktree) Checkout(ctx context.Context, branch string) error {
	w.log.Debugf("checking out %q", branch)

	if err := w.gitCmd(ctx, "checkout", branch).Run(w.exec); err != nil {
		return fmt.Errorf("git checkout: %w", err)
	}
	return nil
}
