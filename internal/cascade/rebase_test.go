package cascade_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.chain.dev/chain/internal/cascade"
	"go.chain.dev/chain/internal/chain"
	"go.chain.dev/chain/internal/git"
	"go.chain.dev/chain/internal/git/gittest"
)

func setupChain(t *testing.T) (*git.Repository, *chain.Store) {
	t.Helper()
	repo := gittest.New(t)
	store := chain.NewStore(repo, nil)
	return repo, store
}

func TestRebaseCascadeIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	repo, store := setupChain(t)
	gittest.Commit(t, repo, "f1", "f1 commit 1")
	gittest.Commit(t, repo, "f2", "f2 commit 1")
	require.NoError(t, store.Setup(ctx, "feature", "main", []string{"f1", "f2"}))

	// Advance main so the cascade has real work to do.
	gittest.Commit(t, repo, "main", "main commit 2")

	engine := cascade.NewRebaseEngine(repo, store, nil, nil)
	require.NoError(t, engine.Run(ctx, cascade.RebaseOptions{}))

	assert.True(t, repo.IsAncestor(ctx, "main", "f1"))
	assert.True(t, repo.IsAncestor(ctx, "f1", "f2"))

	f1Tip, err := repo.PeelToCommit(ctx, "f1")
	require.NoError(t, err)
	f2Tip, err := repo.PeelToCommit(ctx, "f2")
	require.NoError(t, err)

	// Re-running against unchanged parents is a no-op. f1 and f2 each
	// carry a commit their parent lacks, so neither is an ancestor of
	// its parent; the fork-point is the parent's tip, so the rebase
	// that runs has nothing to replay and leaves both tips in place.
	require.NoError(t, engine.Run(ctx, cascade.RebaseOptions{}))

	f1TipAfter, err := repo.PeelToCommit(ctx, "f1")
	require.NoError(t, err)
	f2TipAfter, err := repo.PeelToCommit(ctx, "f2")
	require.NoError(t, err)

	assert.Equal(t, f1Tip, f1TipAfter)
	assert.Equal(t, f2Tip, f2TipAfter)
}

func TestRebaseAbortRestoresOriginalOids(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	repo, store := setupChain(t)
	gittest.CommitFile(t, repo, "f1", "shared.txt", "from f1\n", "f1 edits shared.txt")
	require.NoError(t, store.Setup(ctx, "feature", "main", []string{"f1"}))

	originalTip, err := repo.PeelToCommit(ctx, "f1")
	require.NoError(t, err)

	// Advance main with a conflicting edit to the same file.
	gittest.CommitFile(t, repo, "main", "shared.txt", "from main\n", "main edits shared.txt")

	engine := cascade.NewRebaseEngine(repo, store, nil, nil)
	err = engine.Run(ctx, cascade.RebaseOptions{})

	var conflictErr *cascade.ErrConflict
	require.ErrorAs(t, err, &conflictErr)
	assert.Equal(t, "f1", conflictErr.Branch)

	require.NoError(t, engine.Abort(ctx))

	restoredTip, err := repo.PeelToCommit(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, originalTip, restoredTip, "abort must restore f1 to its pre-cascade tip")

	_, err = engine.Status(ctx)
	assert.ErrorIs(t, err, cascade.ErrNoRebaseState)
}

func TestRebaseRefusesDirtyWorktree(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	repo, store := setupChain(t)
	gittest.Commit(t, repo, "f1", "f1 commit")
	require.NoError(t, store.Setup(ctx, "feature", "main", []string{"f1"}))

	gittest.WriteFile(t, repo, "dirty.txt", "uncommitted\n")

	engine := cascade.NewRebaseEngine(repo, store, nil, nil)
	err := engine.Run(ctx, cascade.RebaseOptions{})

	var preconditionErr *cascade.ErrPrecondition
	require.ErrorAs(t, err, &preconditionErr)
	assert.Contains(t, preconditionErr.Reason, "f1", "the dirty branch's name should be named in the error")
}
