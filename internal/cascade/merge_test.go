package cascade_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.chain.dev/chain/internal/cascade"
	"go.chain.dev/chain/internal/git/gittest"
)

func TestMergeCascadeMergesEachMemberInOrder(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	repo, store := setupChain(t)
	gittest.Commit(t, repo, "f1", "f1 commit 1")
	gittest.Commit(t, repo, "f2", "f2 commit 1")
	require.NoError(t, store.Setup(ctx, "feature", "main", []string{"f1", "f2"}))

	// Advance main so both members have real merge work to do.
	gittest.Commit(t, repo, "main", "main commit 2")

	engine := cascade.NewMergeEngine(repo, store, nil)
	summary, err := engine.Run(ctx, cascade.MergeOptions{})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"f1", "f2"}, summary.Merged)
	assert.True(t, repo.IsAncestor(ctx, "main", "f1"))
	assert.True(t, repo.IsAncestor(ctx, "f1", "f2"))
}

func TestMergeCascadeIgnoreRootSkipsFirstMember(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	repo, store := setupChain(t)
	gittest.Commit(t, repo, "f1", "f1 commit 1")
	require.NoError(t, store.Setup(ctx, "feature", "main", []string{"f1"}))
	gittest.Commit(t, repo, "main", "main commit 2")

	engine := cascade.NewMergeEngine(repo, store, nil)
	summary, err := engine.Run(ctx, cascade.MergeOptions{IgnoreRoot: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"f1"}, summary.Skipped)
	assert.Empty(t, summary.Merged)
	assert.False(t, repo.IsAncestor(ctx, "main", "f1"))
}

func TestMergeCascadeRefusesDirtyWorktree(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	repo, store := setupChain(t)
	gittest.Commit(t, repo, "f1", "f1 commit")
	require.NoError(t, store.Setup(ctx, "feature", "main", []string{"f1"}))

	gittest.WriteFile(t, repo, "dirty.txt", "uncommitted\n")

	engine := cascade.NewMergeEngine(repo, store, nil)
	_, err := engine.Run(ctx, cascade.MergeOptions{})

	var preconditionErr *cascade.ErrPrecondition
	require.ErrorAs(t, err, &preconditionErr)
	assert.Contains(t, preconditionErr.Reason, "f1")
}
