package cascade_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.chain.dev/chain/internal/cascade"
	"go.chain.dev/chain/internal/git/gittest"
)

func TestForkPointResolverFastForward(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	repo := gittest.New(t)
	gittest.Commit(t, repo, "f1", "f1 commit")

	resolver := cascade.NewForkPointResolver(repo)
	res, err := resolver.Resolve(ctx, "main", "f1")
	require.NoError(t, err)
	assert.True(t, res.NoRebaseNeeded, "main has not diverged from f1, so no rebase is needed")
}

func TestForkPointResolverDivergedBranches(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	repo := gittest.New(t)
	gittest.Commit(t, repo, "f1", "f1 commit")
	gittest.Commit(t, repo, "main", "main commit 2")

	resolver := cascade.NewForkPointResolver(repo)
	res, err := resolver.Resolve(ctx, "f1", "main")
	require.NoError(t, err)
	assert.False(t, res.NoRebaseNeeded)
	assert.NotEmpty(t, res.UpstreamOid)
}

// Unrelated histories (orphan branches with no common ancestor) must
// surface as ErrResolveForkPoint rather than panicking or silently
// picking an arbitrary base, per
// _examples/original_source/tests/fork_point_failure.rs.
func TestForkPointResolverUnrelatedHistories(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	repo := gittest.New(t)
	gittest.Orphan(t, repo, "orphan")

	resolver := cascade.NewForkPointResolver(repo)
	_, err := resolver.Resolve(ctx, "orphan", "main")
	require.Error(t, err)

	var resolveErr *cascade.ErrResolveForkPoint
	require.ErrorAs(t, err, &resolveErr)
	assert.Equal(t, "orphan", resolveErr.Child)
	assert.Equal(t, "main", resolveErr.Parent)
}
