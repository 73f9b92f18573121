package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrNotExist is returned when a Git object or ref does not exist.
var ErrNotExist = errors.New("does not exist")

// Hash is a Git object ID, in full or abbreviated form.
type Hash string

// ZeroHash is the all-zeroes hash, used to represent the absence of a commit.
const ZeroHash Hash = "0000000000000000000000000000000000000000"

func (h Hash) String() string { return string(h) }

// LogValue reports how the hash should be logged.
func (h Hash) LogValue() slog.Value { return slog.StringValue(h.Short()) }

// Short reports the abbreviated form of the hash.
func (h Hash) Short() string {
	if len(h) < 7 {
		return string(h)
	}
	return string(h[:7])
}

// IsZero reports whether h is the zero hash, recognizing abbreviated forms.
func (h Hash) IsZero() bool {
	if h == "" {
		return false
	}
	for _, b := range h {
		if b != '0' {
			return false
		}
	}
	return true
}

// PeelToCommit resolves ref to the commit it refers to.
// Returns ErrNotExist if ref does not resolve.
func (r *Repository) PeelToCommit(ctx context.Context, ref string) (Hash, error) {
	return r.revParse(ctx, ref+"^{commit}")
}

// PeelToTree resolves treeish to the tree object it refers to.
// Returns ErrNotExist if treeish does not resolve.
func (r *Repository) PeelToTree(ctx context.Context, treeish string) (Hash, error) {
	return r.revParse(ctx, treeish+"^{tree}")
}

// ForkPoint reports the commit at which branch diverged from ancestor,
// using the reflog of ancestor to find the most plausible point.
//
// This can fail when the reflog has been pruned or the branch
// predates the reflog's retention window; callers should fall back
// to MergeBase in that case, per the fork-point resolution algorithm.
func (r *Repository) ForkPoint(ctx context.Context, ancestor, branch string) (Hash, error) {
	s, err := r.gitCmd(ctx, "merge-base", "--fork-point", ancestor, branch).OutputString(r.exec)
	if err != nil {
		return "", fmt.Errorf("merge-base --fork-point: %w", err)
	}
	if s == "" {
		return "", fmt.Errorf("merge-base --fork-point: no fork point found")
	}
	return Hash(s), nil
}

// MergeBase reports the best common ancestor of a and b.
func (r *Repository) MergeBase(ctx context.Context, a, b string) (Hash, error) {
	s, err := r.gitCmd(ctx, "merge-base", a, b).OutputString(r.exec)
	if err != nil {
		return "", fmt.Errorf("merge-base: %w", err)
	}
	return Hash(s), nil
}

// IsAncestor reports whether a is an ancestor of (or equal to) b.
func (r *Repository) IsAncestor(ctx context.Context, a, b string) bool {
	return r.gitCmd(ctx, "merge-base", "--is-ancestor", a, b).Run(r.exec) == nil
}

func (r *Repository) revParse(ctx context.Context, ref string) (Hash, error) {
	out, err := r.gitCmd(ctx,
		"rev-parse", "--verify", "--quiet", "--end-of-options", ref,
	).OutputString(r.exec)
	if err != nil {
		return "", ErrNotExist
	}
	return Hash(out), nil
}
