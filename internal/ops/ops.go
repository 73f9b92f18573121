// Package ops implements OpsUtil (§4.7): the ancillary chain-wide
// operations that sit alongside the cascade engines — backup branch
// management, pushing a chain's members, pruning merged branches, and
// moving HEAD between neighbors in the active chain.
package ops

import (
	"context"
	"fmt"

	"go.chain.dev/chain/internal/chain"
	"go.chain.dev/chain/internal/git"
)

// BackupBranch returns the backup branch name for member of chainName,
// per §6's "backup-<chain>/<branchName>" naming.
func BackupBranch(chainName, member string) string {
	return fmt.Sprintf("backup-%s/%s", chainName, member)
}

// ErrDirtyWorktree indicates that an operation requiring a clean
// worktree (e.g. Backup) was attempted with uncommitted or untracked
// changes present.
type ErrDirtyWorktree struct {
	Branch string
}

func (e *ErrDirtyWorktree) Error() string {
	return fmt.Sprintf("%s has uncommitted changes", e.Branch)
}

// Backup creates or overwrites a backup branch at the current tip of
// every member of c. Refuses if the worktree is dirty, since a
// mid-flight checkout during backup (or a later rebase relying on
// this backup) would otherwise silently carry uncommitted state.
func Backup(ctx context.Context, repo *git.Repository, c *chain.Chain) error {
	wt := repo.Worktree()
	dirty, err := wt.IsDirty(ctx)
	if err != nil {
		return fmt.Errorf("check worktree status: %w", err)
	}
	if dirty {
		branch, _ := wt.CurrentBranch(ctx)
		return &ErrDirtyWorktree{Branch: branch}
	}

	for _, member := range c.Members {
		tip, err := repo.PeelToCommit(ctx, member)
		if err != nil {
			return fmt.Errorf("resolve tip of %s: %w", member, err)
		}
		ref := "refs/heads/" + BackupBranch(c.Name, member)
		if err := repo.SetRef(ctx, git.SetRefRequest{Ref: ref, Hash: tip}); err != nil {
			return fmt.Errorf("update %s: %w", ref, err)
		}
	}
	return nil
}

// CleanupBackups deletes every backup branch belonging to c, if
// present. Supplements §4.4's --cleanup-backups flag with a standalone
// operation, per SPEC_FULL.md §4.7.
func CleanupBackups(ctx context.Context, repo *git.Repository, c *chain.Chain) error {
	for _, member := range c.Members {
		name := BackupBranch(c.Name, member)
		if !repo.BranchExists(ctx, name) {
			continue
		}
		if err := repo.DeleteBranch(ctx, name, git.BranchDeleteOptions{Force: true}); err != nil {
			return fmt.Errorf("delete backup branch %s: %w", name, err)
		}
	}
	return nil
}

// Push pushes every member of c to remote, in chain order. force maps
// to "force with lease" rather than an unconditional overwrite, per
// §4.7.
func Push(ctx context.Context, wt *git.Worktree, c *chain.Chain, remote string, force bool) error {
	for _, member := range c.Members {
		opts := git.PushOptions{Remote: remote, Branch: member}
		if force {
			opts.ForceWithLease = member
		}
		if err := wt.Push(ctx, opts); err != nil {
			return fmt.Errorf("push %s: %w", member, err)
		}
	}
	return nil
}

// Prune reports the members of c whose tip is already an ancestor of
// (or equal to) the chain's root, i.e. branches merged upstream. The
// caller is responsible for removing them from the chain's metadata;
// Prune never deletes the branch itself, per §4.7.
func Prune(ctx context.Context, repo *git.Repository, c *chain.Chain) []string {
	var merged []string
	for _, member := range c.Members {
		if repo.IsAncestor(ctx, member, c.Root) {
			merged = append(merged, member)
		}
	}
	return merged
}

// Neighbor identifies a direction to move HEAD relative to the active
// chain.
type Neighbor int

const (
	// First moves to the chain's first member.
	First Neighbor = iota
	// Last moves to the chain's last member.
	Last
	// Next moves to the member after the current branch.
	Next
	// Prev moves to the member before the current branch (or the
	// root, if the current branch is the first member).
	Prev
)

// ErrNoNeighbor indicates that the requested neighbor does not exist,
// e.g. Next from the last member. Navigating from a branch that is
// not a chain member (such as the root) fails with a different error.
type ErrNoNeighbor struct {
	Neighbor Neighbor
	Branch   string
}

func (e *ErrNoNeighbor) Error() string {
	return fmt.Sprintf("%s has no %s", e.Branch, e.Neighbor)
}

func (n Neighbor) String() string {
	switch n {
	case First:
		return "first"
	case Last:
		return "last"
	case Next:
		return "next"
	case Prev:
		return "previous"
	default:
		return "neighbor"
	}
}

// Move checks out the branch identified by dir relative to the
// worktree's current branch within chain c.
func Move(ctx context.Context, wt *git.Worktree, c *chain.Chain, dir Neighbor) error {
	target, err := target(ctx, wt, c, dir)
	if err != nil {
		return err
	}
	if err := wt.Checkout(ctx, target); err != nil {
		return fmt.Errorf("checkout %s: %w", target, err)
	}
	return nil
}

func target(ctx context.Context, wt *git.Worktree, c *chain.Chain, dir Neighbor) (string, error) {
	switch dir {
	case First:
		if len(c.Members) == 0 {
			return "", &ErrNoNeighbor{Neighbor: dir, Branch: c.Root}
		}
		return c.Members[0], nil
	case Last:
		if len(c.Members) == 0 {
			return "", &ErrNoNeighbor{Neighbor: dir, Branch: c.Root}
		}
		return c.Members[len(c.Members)-1], nil
	default:
		current, err := wt.CurrentBranch(ctx)
		if err != nil {
			return "", fmt.Errorf("resolve current branch: %w", err)
		}

		idx := c.IndexOf(current)
		if idx < 0 {
			return "", fmt.Errorf("%s is not a member of chain %s", current, c.Name)
		}

		if dir == Next {
			if idx+1 >= len(c.Members) {
				return "", &ErrNoNeighbor{Neighbor: dir, Branch: current}
			}
			return c.Members[idx+1], nil
		}

		// Prev
		if idx == 0 {
			return c.Root, nil
		}
		return c.Members[idx-1], nil
	}
}
