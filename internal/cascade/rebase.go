package cascade

import (
	"context"
	"errors"
	"fmt"

	"go.chain.dev/chain/internal/cascade/state"
	"go.chain.dev/chain/internal/chain"
	"go.chain.dev/chain/internal/git"
	"go.chain.dev/chain/internal/ops"
	"go.chain.dev/chain/internal/silog"
)

// SquashedMergeMode selects how the cascade handles a branch whose
// changes have already been squash-merged into its parent, per
// §4.4(c).
type SquashedMergeMode int

const (
	// SquashedMergeReset backs up the branch and hard-resets it to
	// its parent's tip. The default.
	SquashedMergeReset SquashedMergeMode = iota

	// SquashedMergeSkip leaves the branch untouched.
	SquashedMergeSkip

	// SquashedMergeRebase rebases the branch normally, ignoring the
	// squash detection.
	SquashedMergeRebase
)

// ParseSquashedMergeMode parses the --squashed-merge flag value.
func ParseSquashedMergeMode(s string) (SquashedMergeMode, error) {
	switch s {
	case "", "reset":
		return SquashedMergeReset, nil
	case "skip":
		return SquashedMergeSkip, nil
	case "rebase", "merge":
		return SquashedMergeRebase, nil
	default:
		return 0, fmt.Errorf("unknown --squashed-merge value %q", s)
	}
}

// RebaseOptions configures a call to RebaseEngine.Run or
// RebaseEngine.Step.
type RebaseOptions struct {
	// ChainName operates on the named chain instead of the active
	// one.
	ChainName string

	// IgnoreRoot skips rebasing the first member onto the root
	// branch.
	IgnoreRoot bool

	// SquashedMerge selects the squash-merge handling policy.
	SquashedMerge SquashedMergeMode

	// CleanupBackups deletes the backup-<chain>/<member> branch of
	// every current member once the cascade completes, whether the
	// engine or "chain backup" created it. Continue and Skip resume
	// with empty options, so a cascade that paused does not clean up.
	CleanupBackups bool
}

// RebaseEngine drives a chain's members through a sequential rebase
// onto their updated parents, per §4.4.
type RebaseEngine struct {
	repo       *git.Repository
	store      *chain.Store
	forkPoints *ForkPointResolver
	squash     *SquashDetector
	reporter   Reporter
	log        *silog.Logger
}

// NewRebaseEngine builds a RebaseEngine backed by repo and store. A
// nil reporter uses NopReporter; a nil log uses silog.Nop().
func NewRebaseEngine(repo *git.Repository, store *chain.Store, reporter Reporter, log *silog.Logger) *RebaseEngine {
	if reporter == nil {
		reporter = NopReporter{}
	}
	if log == nil {
		log = silog.Nop()
	}
	return &RebaseEngine{
		repo:       repo,
		store:      store,
		forkPoints: NewForkPointResolver(repo),
		squash:     NewSquashDetector(repo),
		reporter:   reporter,
		log:        log,
	}
}

// Run executes the main cascade: §4.4's steps 1 through 5.
func (e *RebaseEngine) Run(ctx context.Context, opts RebaseOptions) error {
	wt := e.repo.Worktree()

	if err := e.checkPreconditions(ctx, wt); err != nil {
		return err
	}

	chainName, err := e.store.ResolveChainName(ctx, opts.ChainName)
	if err != nil {
		return err
	}
	c, err := e.store.Get(ctx, chainName)
	if err != nil {
		return err
	}
	if len(c.Members) == 0 {
		return &ErrPrecondition{Reason: fmt.Sprintf("chain %s has no member branches", c.Name)}
	}

	originalBranch, err := wt.CurrentBranch(ctx)
	if err != nil {
		return fmt.Errorf("resolve current branch: %w", err)
	}

	st, err := e.buildInitialState(ctx, c, originalBranch)
	if err != nil {
		return err
	}

	gitDir := e.repo.GitDir()
	if err := state.Save(gitDir, st); err != nil {
		return fmt.Errorf("persist rebase state: %w", err)
	}

	return e.runCascade(ctx, wt, st, opts)
}

// Step rebases at most one branch: the first member whose current
// state is not already up to date with its parent. No state file is
// persisted.
func (e *RebaseEngine) Step(ctx context.Context, opts RebaseOptions) error {
	wt := e.repo.Worktree()
	if err := e.checkPreconditions(ctx, wt); err != nil {
		return err
	}

	chainName, err := e.store.ResolveChainName(ctx, opts.ChainName)
	if err != nil {
		return err
	}
	c, err := e.store.Get(ctx, chainName)
	if err != nil {
		return err
	}

	for idx, member := range c.Members {
		if opts.IgnoreRoot && idx == 0 {
			continue
		}
		parent := c.Parent(idx)
		if e.repo.IsAncestor(ctx, member, parent) {
			continue
		}

		entry := &state.BranchEntry{Name: member, Parent: parent}
		parentTip, err := e.repo.PeelToCommit(ctx, parent)
		if err != nil {
			return fmt.Errorf("resolve current tip of %s: %w", parent, err)
		}

		res, err := e.forkPoints.Resolve(ctx, member, parent)
		if err != nil {
			return err
		}
		entry.MergeBaseOid = res.UpstreamOid.String()

		e.reporter.Step(1, 1, member, parent)
		return e.processBranch(ctx, wt, c.Name, entry, parentTip, opts)
	}

	e.log.Info("every branch is already up to date with its parent")
	return nil
}

// Continue resumes a paused cascade after the conflicted branch's
// rebase has been completed and staged by the user.
func (e *RebaseEngine) Continue(ctx context.Context) error {
	gitDir := e.repo.GitDir()
	st, err := state.Load(gitDir)
	if err != nil {
		if errors.Is(err, state.ErrNoState) {
			return ErrNoRebaseState
		}
		return err
	}

	entry := conflictEntry(st)
	if entry == nil {
		return &ErrExternalMutation{Reason: "no branch is recorded as conflicted; state file may be stale"}
	}

	current, err := e.repo.PeelToCommit(ctx, entry.Name)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", entry.Name, err)
	}
	if current.String() == entry.OriginalOid {
		return &ErrExternalMutation{
			Branch: entry.Name,
			Reason: "the underlying rebase appears to have been aborted externally; use --skip or --abort",
		}
	}

	if _, err := e.repo.Worktree().RebaseState(ctx); err == nil {
		if err := e.repo.Worktree().RebaseContinue(ctx, nil); err != nil {
			return asConflict(entry.Name, err)
		}
	}

	entry.Status = state.Completed
	if err := state.Save(gitDir, st); err != nil {
		return err
	}
	e.reporter.Done(entry.Name, state.Completed)

	wt := e.repo.Worktree()
	return e.runCascade(ctx, wt, st, RebaseOptions{})
}

// Skip restores the conflicted branch to its pre-rebase position,
// marks it Skipped, and resumes the cascade from the next branch.
func (e *RebaseEngine) Skip(ctx context.Context) error {
	gitDir := e.repo.GitDir()
	st, err := state.Load(gitDir)
	if err != nil {
		if errors.Is(err, state.ErrNoState) {
			return ErrNoRebaseState
		}
		return err
	}

	entry := conflictEntry(st)
	if entry == nil {
		return &ErrExternalMutation{Reason: "no branch is recorded as conflicted; state file may be stale"}
	}

	wt := e.repo.Worktree()
	if _, err := wt.RebaseState(ctx); err == nil {
		if err := wt.RebaseAbort(ctx); err != nil {
			return fmt.Errorf("abort in-progress rebase: %w", err)
		}
	}

	if err := wt.Checkout(ctx, entry.Name); err != nil {
		return fmt.Errorf("checkout %s: %w", entry.Name, err)
	}
	if err := wt.Reset(ctx, entry.OriginalOid, git.ResetOptions{Mode: git.ResetHard}); err != nil {
		return fmt.Errorf("restore %s: %w", entry.Name, err)
	}

	entry.Status = state.Skipped
	if err := state.Save(gitDir, st); err != nil {
		return err
	}
	e.reporter.Done(entry.Name, state.Skipped)

	return e.runCascade(ctx, wt, st, RebaseOptions{})
}

// Abort restores every chain member to its pre-cascade position and
// deletes the state file.
func (e *RebaseEngine) Abort(ctx context.Context) error {
	gitDir := e.repo.GitDir()
	st, err := state.Load(gitDir)
	if err != nil {
		if errors.Is(err, state.ErrNoState) {
			return ErrNoRebaseState
		}
		return err
	}

	wt := e.repo.Worktree()
	if _, err := wt.RebaseState(ctx); err == nil {
		if err := wt.RebaseAbort(ctx); err != nil {
			return fmt.Errorf("abort in-progress rebase: %w", err)
		}
	}

	for _, entry := range st.Branches {
		if !e.repo.BranchExists(ctx, entry.Name) {
			continue
		}
		if err := wt.Checkout(ctx, entry.Name); err != nil {
			return fmt.Errorf("checkout %s: %w", entry.Name, err)
		}
		if err := wt.Reset(ctx, entry.OriginalOid, git.ResetOptions{Mode: git.ResetHard}); err != nil {
			return fmt.Errorf("restore %s: %w", entry.Name, err)
		}
	}

	if st.OriginalBranch != "" && e.repo.BranchExists(ctx, st.OriginalBranch) {
		if err := wt.Checkout(ctx, st.OriginalBranch); err != nil {
			return fmt.Errorf("checkout %s: %w", st.OriginalBranch, err)
		}
	}

	return state.Delete(gitDir)
}

// Status loads and returns the in-progress rebase state, for
// pretty-printing by the caller.
func (e *RebaseEngine) Status(context.Context) (*state.State, error) {
	st, err := state.Load(e.repo.GitDir())
	if err != nil {
		if errors.Is(err, state.ErrNoState) {
			return nil, ErrNoRebaseState
		}
		return nil, err
	}
	return st, nil
}

func conflictEntry(st *state.State) *state.BranchEntry {
	for i := range st.Branches {
		if st.Branches[i].Status == state.Conflict {
			return &st.Branches[i]
		}
	}
	return nil
}

func (e *RebaseEngine) checkPreconditions(ctx context.Context, wt *git.Worktree) error {
	dirty, err := wt.IsDirty(ctx)
	if err != nil {
		return fmt.Errorf("check worktree status: %w", err)
	}
	if dirty {
		branch, _ := wt.CurrentBranch(ctx)
		return &ErrPrecondition{Reason: fmt.Sprintf("%s has uncommitted changes", branch)}
	}

	if _, err := wt.RebaseState(ctx); err == nil {
		return &ErrPrecondition{Reason: "a rebase is already in progress"}
	} else if !errors.Is(err, git.ErrNoRebase) {
		return fmt.Errorf("check rebase state: %w", err)
	}

	if state.Exists(e.repo.GitDir()) {
		return ErrRebaseInProgress
	}

	return nil
}

// buildInitialState computes (parent, fork_point) for every member of
// c and builds the Pending entries described in §4.4 step 2.
func (e *RebaseEngine) buildInitialState(ctx context.Context, c *chain.Chain, originalBranch string) (*state.State, error) {
	entries := make([]state.BranchEntry, len(c.Members))
	for idx, member := range c.Members {
		parent := c.Parent(idx)

		originalOid, err := e.repo.PeelToCommit(ctx, member)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", member, err)
		}
		parentOriginalOid, err := e.repo.PeelToCommit(ctx, parent)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", parent, err)
		}

		res, err := e.forkPoints.Resolve(ctx, member, parent)
		if err != nil {
			return nil, err
		}

		entries[idx] = state.BranchEntry{
			Name:              member,
			Parent:            parent,
			OriginalOid:       originalOid.String(),
			ParentOriginalOid: parentOriginalOid.String(),
			MergeBaseOid:      res.UpstreamOid.String(),
			Status:            state.Pending,
		}
	}

	return &state.State{
		ChainName:      c.Name,
		OriginalBranch: originalBranch,
		Branches:       entries,
	}, nil
}

// runCascade iterates the Pending entries of st, processing each in
// turn, persisting state after every step, and stopping on the first
// conflict.
func (e *RebaseEngine) runCascade(ctx context.Context, wt *git.Worktree, st *state.State, opts RebaseOptions) error {
	gitDir := e.repo.GitDir()
	n := len(st.Branches)

	for i := range st.Branches {
		entry := &st.Branches[i]
		if entry.Status != state.Pending {
			continue
		}

		e.reporter.Step(i+1, n, entry.Name, entry.Parent)

		if !e.repo.BranchExists(ctx, entry.Name) {
			e.log.Warnf("%s no longer exists; skipping", entry.Name)
			entry.Status = state.Skipped
			if err := state.Save(gitDir, st); err != nil {
				return err
			}
			e.reporter.Done(entry.Name, state.Skipped)
			continue
		}

		if opts.IgnoreRoot && i == 0 {
			entry.Status = state.Skipped
			if err := state.Save(gitDir, st); err != nil {
				return err
			}
			e.reporter.Done(entry.Name, state.Skipped)
			continue
		}

		parentTip, err := e.repo.PeelToCommit(ctx, entry.Parent)
		if err != nil {
			return fmt.Errorf("resolve current tip of %s: %w", entry.Parent, err)
		}

		if err := e.processBranch(ctx, wt, st.ChainName, entry, parentTip, opts); err != nil {
			var conflictErr *ErrConflict
			if errors.As(err, &conflictErr) {
				entry.Status = state.Conflict
				if saveErr := state.Save(gitDir, st); saveErr != nil {
					return saveErr
				}
				e.reporter.Conflict(entry.Name)
			}
			return err
		}

		if err := state.Save(gitDir, st); err != nil {
			return err
		}
		e.reporter.Done(entry.Name, entry.Status)
	}

	return e.finish(ctx, wt, st, opts)
}

// processBranch executes step 4(b-d) of §4.4 for a single branch:
// squash-merge detection, then either a squash-reset, a skip, or a
// normal rebase onto parentTip.
func (e *RebaseEngine) processBranch(ctx context.Context, wt *git.Worktree, chainName string, entry *state.BranchEntry, parentTip git.Hash, opts RebaseOptions) error {
	squashed, err := e.squash.Detect(ctx, entry.Name, parentTip.String())
	if err != nil {
		return fmt.Errorf("detect squash-merge of %s: %w", entry.Name, err)
	}

	if squashed.IsSquashed() {
		switch opts.SquashedMerge {
		case SquashedMergeSkip:
			entry.Status = state.Skipped
			return nil
		case SquashedMergeRebase:
			// fall through to the normal rebase path below.
		default: // SquashedMergeReset
			return e.resetSquashed(ctx, wt, chainName, entry, parentTip)
		}
	}

	upstream := git.Hash(entry.MergeBaseOid)
	if upstream == "" {
		// NoRebaseNeeded was recorded: the branch was already an
		// ancestor of its parent when fork-points were resolved.
		entry.Status = state.Completed
		return nil
	}

	err = wt.Rebase(ctx, git.RebaseRequest{
		Branch:    entry.Name,
		Upstream:  upstream.String(),
		Onto:      parentTip.String(),
		KeepEmpty: true,
		Quiet:     true,
	})
	if err != nil {
		return asConflict(entry.Name, err)
	}

	entry.Status = state.Completed
	return nil
}

// resetSquashed implements §4.4(c)'s "reset" squashed-merge policy:
// back up the branch, then hard-reset it to its parent's current tip.
func (e *RebaseEngine) resetSquashed(ctx context.Context, wt *git.Worktree, chainName string, entry *state.BranchEntry, parentTip git.Hash) error {
	backupRef := "refs/heads/" + ops.BackupBranch(chainName, entry.Name)
	tip, err := e.repo.PeelToCommit(ctx, entry.Name)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", entry.Name, err)
	}
	if err := e.repo.SetRef(ctx, git.SetRefRequest{Ref: backupRef, Hash: tip}); err != nil {
		return fmt.Errorf("create backup branch for %s: %w", entry.Name, err)
	}

	if err := wt.Checkout(ctx, entry.Name); err != nil {
		return fmt.Errorf("checkout %s: %w", entry.Name, err)
	}
	if err := wt.Reset(ctx, parentTip.String(), git.ResetOptions{Mode: git.ResetHard}); err != nil {
		return fmt.Errorf("reset %s: %w", entry.Name, err)
	}

	entry.Status = state.SquashReset
	return nil
}

// finish implements §4.4 step 5: emit the summary, delete the state
// file, optionally clean up backup branches, and return to the
// original branch.
func (e *RebaseEngine) finish(ctx context.Context, wt *git.Worktree, st *state.State, opts RebaseOptions) error {
	var counts Counts
	for _, entry := range st.Branches {
		switch entry.Status {
		case state.Completed:
			counts.Completed++
		case state.Skipped:
			counts.Skipped++
		case state.SquashReset:
			counts.SquashReset++
		}
	}
	e.reporter.Summary(counts)

	if err := state.Delete(e.repo.GitDir()); err != nil {
		return err
	}

	if opts.CleanupBackups {
		c, err := e.store.Get(ctx, st.ChainName)
		if err != nil {
			return err
		}
		if err := ops.CleanupBackups(ctx, e.repo, c); err != nil {
			return err
		}
	}

	if st.OriginalBranch != "" {
		if err := wt.Checkout(ctx, st.OriginalBranch); err != nil {
			return fmt.Errorf("checkout %s: %w", st.OriginalBranch, err)
		}
	}

	return nil
}
