package git

import (
	"bytes"
	"context"
	"fmt"
)

// CurrentBranch reports the branch checked out at the repository's
// primary worktree.
func (r *Repository) CurrentBranch(ctx context.Context) (string, error) {
	name, err := r.gitCmd(ctx, "rev-parse", "--abbrev-ref", "HEAD").
		OutputString(r.exec)
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %w", err)
	}
	return name, nil
}

// BranchExists reports whether a local branch by the given name exists.
func (r *Repository) BranchExists(ctx context.Context, branch string) bool {
	return r.gitCmd(ctx, "show-ref", "--verify", "--quiet", "refs/heads/"+branch).
		Run(r.exec) == nil
}

// BranchDeleteOptions configures DeleteBranch.
type BranchDeleteOptions struct {
	// Force deletes the branch even if it is not fully merged.
	Force bool
}

// DeleteBranch deletes the named local branch.
func (r *Repository) DeleteBranch(ctx context.Context, branch string, opts BranchDeleteOptions) error {
	args := []string{"branch"}
	if opts.Force {
		args = append(args, "-D")
	} else {
		args = append(args, "-d")
	}
	args = append(args, branch)

	if err := r.gitCmd(ctx, args...).Run(r.exec); err != nil {
		return fmt.Errorf("git branch -d: %w", err)
	}
	return nil
}

// LocalBranches returns the names of all local branches.
func (r *Repository) LocalBranches(ctx context.Context) ([]string, error) {
	out, err := r.gitCmd(ctx, "for-each-ref", "--format=%(refname:short)", "refs/heads/").
		Output(r.exec)
	if err != nil {
		return nil, fmt.Errorf("git for-each-ref: %w", err)
	}

	var branches []string
	for _, line := range bytes.Split(out, []byte{'\n'}) {
		if len(line) == 0 {
			continue
		}
		branches = append(branches, string(line))
	}
	return branches, nil
}

// RenameBranch renames oldName to newName.
func (r *Repository) RenameBranch(ctx context.Context, oldName, newName string) error {
	if err := r.gitCmd(ctx, "branch", "-m", oldName, newName).Run(r.exec); err != nil {
		return fmt.Errorf("git branch -m: %w", err)
	}
	return nil
}
