package git

import (
	"bytes"
	"context"
	"fmt"
	"strings"
)

// CherryStatus reports whether a commit's patch is already present in
// an upstream branch, as determined by 'git cherry'.
type CherryStatus struct {
	// Commit is the commit being reported on.
	Commit Hash

	// Equivalent reports whether an equivalent change already exists
	// upstream (a '-' entry in 'git cherry' output).
	Equivalent bool
}

// Cherry reports, for each commit reachable from head but not from
// upstream, whether an equivalent patch already exists in upstream.
//
// This is the primitive behind squash-merge detection: a branch whose
// synthetic single commit is equivalent to something already in its
// parent has had its changes squash-merged upstream.
func (r *Repository) Cherry(ctx context.Context, upstream, head string) ([]CherryStatus, error) {
	out, err := r.gitCmd(ctx, "cherry", upstream, head).Output(r.exec)
	if err != nil {
		return nil, fmt.Errorf("git cherry: %w", err)
	}

	var statuses []CherryStatus
	for _, line := range bytes.Split(out, []byte{'\n'}) {
		line := strings.TrimSpace(string(line))
		if line == "" {
			continue
		}

		equivalent := strings.HasPrefix(line, "-")
		hash := strings.TrimSpace(strings.TrimLeft(line, "+-"))
		statuses = append(statuses, CherryStatus{
			Commit:     Hash(hash),
			Equivalent: equivalent,
		})
	}

	return statuses, nil
}
