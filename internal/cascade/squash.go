package cascade

import (
	"context"
	"fmt"

	"go.chain.dev/chain/internal/git"
)

// SquashStatus is the tri-state outcome of squash-merge detection.
type SquashStatus int

const (
	// NotDetected means the branch's commits have not been absorbed
	// into its parent as a single squashed commit.
	NotDetected SquashStatus = iota

	// Detected means the branch appears to have been squash-merged.
	Detected

	// Inconclusive means the detector could not determine an answer
	// (e.g. the merge-base itself could not be computed). Callers
	// treat this the same as NotDetected.
	Inconclusive
)

// IsSquashed reports whether status should be treated as a detected
// squash-merge, collapsing Inconclusive into false per §4.3.
func (s SquashStatus) IsSquashed() bool { return s == Detected }

// SquashDetector decides whether a chain member's commits have
// already been absorbed into its parent as a squashed commit.
type SquashDetector struct {
	repo *git.Repository
}

// NewSquashDetector builds a detector backed by repo.
func NewSquashDetector(repo *git.Repository) *SquashDetector {
	return &SquashDetector{repo: repo}
}

// Detect implements the heuristic of §4.3: a tip-tree equality fast
// path, then a virtual cherry-pick-identity check against the
// branch's accumulated diff since its merge-base with parent.
func (d *SquashDetector) Detect(ctx context.Context, child, parent string) (SquashStatus, error) {
	childTree, err := d.repo.PeelToTree(ctx, child)
	if err != nil {
		return Inconclusive, nil
	}
	parentTree, err := d.repo.PeelToTree(ctx, parent)
	if err != nil {
		return Inconclusive, nil
	}
	if childTree == parentTree {
		return Detected, nil
	}

	mergeBase, err := d.repo.MergeBase(ctx, child, parent)
	if err != nil {
		return Inconclusive, nil
	}

	dangling, err := d.repo.CommitTree(ctx, git.CommitTreeRequest{
		Tree:    childTree,
		Parents: []git.Hash{mergeBase},
		Message: fmt.Sprintf("chain: checking squash-merge status of %s", child),
	})
	if err != nil {
		return Inconclusive, nil
	}

	statuses, err := d.repo.Cherry(ctx, parent, dangling.String())
	if err != nil {
		return Inconclusive, nil
	}

	if len(statuses) == 0 {
		return Detected, nil
	}
	for _, st := range statuses {
		if !st.Equivalent {
			return NotDetected, nil
		}
	}
	return Detected, nil
}
