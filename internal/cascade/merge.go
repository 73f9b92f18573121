package cascade

import (
	"context"
	"errors"
	"fmt"

	"go.chain.dev/chain/internal/chain"
	"go.chain.dev/chain/internal/git"
	"go.chain.dev/chain/internal/ops"
	"go.chain.dev/chain/internal/silog"
)

// MergeOptions configures a call to MergeEngine.Run, per §4.6's option
// table.
type MergeOptions struct {
	// ChainName operates on the named chain instead of the active
	// one.
	ChainName string

	// IgnoreRoot skips merging the root branch into the first member.
	IgnoreRoot bool

	// Stay leaves HEAD on the last branch processed instead of
	// returning to the original branch.
	Stay bool

	// Simple disables fork-point and squash detection: every member
	// is merged unconditionally.
	Simple bool

	// NoFastPath disables the short-circuit that records a member
	// which already contains its parent as fast-forwarded without
	// running a merge (set by "--no-fork-point"). When set, such a
	// member goes through 'git merge' like any other, which reports
	// it as already up to date, and it is recorded as Skipped.
	NoFastPath bool

	// SquashedMerge selects the squash-merge handling policy.
	SquashedMerge SquashedMergeMode

	// FF, NoFF, FFOnly, Squash forward directly to 'git merge''s own
	// flags of the same names.
	FF, NoFF, FFOnly, Squash bool

	// Strategy and StrategyOptions forward to 'git merge -s'/'-X'.
	Strategy        git.MergeStrategy
	StrategyOptions []string
}

// MergeSummary tallies the outcome of a cascade merge.
type MergeSummary struct {
	Merged       []string
	FastForwards []string
	Skipped      []string
}

// MergeEngine drives a chain's members through a sequential merge of
// each branch's parent into it, per §4.6.
type MergeEngine struct {
	repo   *git.Repository
	store  *chain.Store
	squash *SquashDetector
	log    *silog.Logger
}

// NewMergeEngine builds a MergeEngine backed by repo and store.
func NewMergeEngine(repo *git.Repository, store *chain.Store, log *silog.Logger) *MergeEngine {
	if log == nil {
		log = silog.Nop()
	}
	return &MergeEngine{repo: repo, store: store, squash: NewSquashDetector(repo), log: log}
}

// Run executes the cascade merge: in chain order, checks out each
// branch and merges its parent into it.
//
// Unlike RebaseEngine, no state file is persisted: a merge conflict
// leaves the repository in Git's normal conflict state, resolved with
// the usual 'add' + 'commit' (or git.Worktree's MergeContinue), not a
// bespoke resume mechanism.
func (e *MergeEngine) Run(ctx context.Context, opts MergeOptions) (*MergeSummary, error) {
	wt := e.repo.Worktree()

	dirty, err := wt.IsDirty(ctx)
	if err != nil {
		return nil, fmt.Errorf("check worktree status: %w", err)
	}
	if dirty {
		branch, _ := wt.CurrentBranch(ctx)
		return nil, &ErrPrecondition{Reason: fmt.Sprintf("%s has uncommitted changes", branch)}
	}

	chainName, err := e.store.ResolveChainName(ctx, opts.ChainName)
	if err != nil {
		return nil, err
	}
	c, err := e.store.Get(ctx, chainName)
	if err != nil {
		return nil, err
	}
	if len(c.Members) == 0 {
		return nil, &ErrPrecondition{Reason: fmt.Sprintf("chain %s has no member branches", c.Name)}
	}

	originalBranch, err := wt.CurrentBranch(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve current branch: %w", err)
	}

	summary := &MergeSummary{}
	for idx, member := range c.Members {
		parent := c.Parent(idx)

		if opts.IgnoreRoot && idx == 0 {
			summary.Skipped = append(summary.Skipped, member)
			continue
		}

		if !opts.Simple && !opts.NoFastPath && e.repo.IsAncestor(ctx, parent, member) {
			summary.FastForwards = append(summary.FastForwards, member)
			continue
		}

		if !opts.Simple {
			squashed, err := e.squash.Detect(ctx, member, parent)
			if err != nil {
				return summary, fmt.Errorf("detect squash-merge of %s: %w", member, err)
			}
			if squashed.IsSquashed() {
				switch opts.SquashedMerge {
				case SquashedMergeSkip:
					summary.Skipped = append(summary.Skipped, member)
					continue
				case SquashedMergeRebase:
					// fall through: merge normally anyway.
				default: // SquashedMergeReset
					if err := e.resetSquashed(ctx, wt, c.Name, member, parent); err != nil {
						return summary, err
					}
					summary.Merged = append(summary.Merged, member)
					continue
				}
			}
		}

		if err := wt.Checkout(ctx, member); err != nil {
			return summary, fmt.Errorf("checkout %s: %w", member, err)
		}

		req := git.MergeRequest{
			Upstream:        parent,
			NoFF:            true,
			Squash:          opts.Squash,
			Strategy:        opts.Strategy,
			StrategyOptions: opts.StrategyOptions,
		}
		switch {
		case opts.Squash:
			// --squash never creates a merge commit; NoFF is moot.
		case opts.FFOnly:
			// --ff-only cannot coexist with --no-ff; let Git decide
			// entirely and surface a failure if it can't fast-forward.
			req.NoFF = false
		case opts.NoFF:
			req.NoFF = true
		case opts.FF:
			req.NoFF = false
		}

		err := wt.Merge(ctx, req)
		switch {
		case err == nil:
			if opts.Squash {
				if err := wt.MergeContinue(ctx); err != nil {
					return summary, fmt.Errorf("commit squashed merge of %s into %s: %w", parent, member, err)
				}
			}
			summary.Merged = append(summary.Merged, member)
		case errors.Is(err, git.ErrMergeUpToDate):
			summary.Skipped = append(summary.Skipped, member)
		default:
			var interruptErr *git.MergeInterruptError
			if errors.As(err, &interruptErr) {
				return summary, &ErrConflict{Branch: member, Err: err}
			}
			return summary, fmt.Errorf("merge %s into %s: %w", parent, member, err)
		}
	}

	if !opts.Stay {
		if err := wt.Checkout(ctx, originalBranch); err != nil {
			return summary, fmt.Errorf("checkout %s: %w", originalBranch, err)
		}
	}

	return summary, nil
}

func (e *MergeEngine) resetSquashed(ctx context.Context, wt *git.Worktree, chainName, member, parent string) error {
	tip, err := e.repo.PeelToCommit(ctx, member)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", member, err)
	}
	backupRef := "refs/heads/" + ops.BackupBranch(chainName, member)
	if err := e.repo.SetRef(ctx, git.SetRefRequest{Ref: backupRef, Hash: tip}); err != nil {
		return fmt.Errorf("create backup branch for %s: %w", member, err)
	}

	parentTip, err := e.repo.PeelToCommit(ctx, parent)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", parent, err)
	}
	if err := wt.Checkout(ctx, member); err != nil {
		return fmt.Errorf("checkout %s: %w", member, err)
	}
	if err := wt.Reset(ctx, parentTip.String(), git.ResetOptions{Mode: git.ResetHard}); err != nil {
		return fmt.Errorf("reset %s: %w", member, err)
	}
	return nil
}
