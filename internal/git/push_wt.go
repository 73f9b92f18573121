package git

import (
	"context"
	"errors"
	"fmt"
)

// PushOptions specifies options for the Push operation.
type PushOptions struct {
	// Remote is the remote to push to.
	// If empty, the default remote for the current branch is used.
	Remote string

	// Branch is the branch to push. If empty, the current branch is
	// pushed.
	Branch string

	// Force indicates that a push should overwrite the ref
	// unconditionally.
	Force bool

	// ForceWithLease indicates that a push should overwrite a ref only
	// if its current value matches this expected value.
	ForceWithLease string

	// NoVerify indicates that pre-push hooks should be bypassed.
	NoVerify bool
}

// Push pushes objects and refs to a remote repository.
//
// This backs "chain push" (ops.Push), which pushes every member of a
// chain in member order. No cascade pushes on its own.
func (w *Worktree) Push(ctx context.Context, opts PushOptions) error {
	if opts.Remote == "" {
		return errors.New("push: no remote specified")
	}

	w.log.Debugf("pushing %q to %q (force=%v)", opts.Branch, opts.Remote, opts.Force)

	args := []string{"push"}
	if lease := opts.ForceWithLease; lease != "" {
		args = append(args, "--force-with-lease="+lease)
	}
	if opts.Force {
		args = append(args, "--force")
	}
	if opts.NoVerify {
		args = append(args, "--no-verify")
	}
	args = append(args, opts.Remote)
	if opts.Branch != "" {
		args = append(args, opts.Branch)
	}

	if err := w.gitCmd(ctx, args...).Run(w.exec); err != nil {
		return fmt.Errorf("git push: %w", err)
	}
	return nil
}
