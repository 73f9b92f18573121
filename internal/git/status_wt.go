package git

import (
	"bytes"
	"context"
	"fmt"
)

// IsDirty reports whether the worktree has uncommitted changes:
// staged, unstaged, or untracked files.
//
// Cascade operations (§4.4, §4.6) refuse to start against a dirty
// worktree; they offer no autostash.
func (w *Worktree) IsDirty(ctx context.Context) (bool, error) {
	out, err := w.gitCmd(ctx, "status", "--porcelain").Output(w.exec)
	if err != nil {
		return false, fmt.Errorf("git status: %w", err)
	}
	return len(bytes.TrimSpace(out)) > 0, nil
}
