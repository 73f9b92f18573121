package ops_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.chain.dev/chain/internal/chain"
	"go.chain.dev/chain/internal/git"
	"go.chain.dev/chain/internal/git/gittest"
	"go.chain.dev/chain/internal/ops"
)

func TestBackupCreatesOneBranchPerMember(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	repo := gittest.New(t)
	store := chain.NewStore(repo, nil)
	gittest.Commit(t, repo, "f1", "f1 commit")
	gittest.Commit(t, repo, "f2", "f2 commit")
	require.NoError(t, store.Setup(ctx, "feature", "main", []string{"f1", "f2"}))

	c, err := store.Get(ctx, "feature")
	require.NoError(t, err)

	require.NoError(t, ops.Backup(ctx, repo, c))

	for _, member := range c.Members {
		backup := ops.BackupBranch(c.Name, member)
		assert.True(t, repo.BranchExists(ctx, backup), "expected backup branch %s", backup)

		tip, err := repo.PeelToCommit(ctx, member)
		require.NoError(t, err)
		backupTip, err := repo.PeelToCommit(ctx, backup)
		require.NoError(t, err)
		assert.Equal(t, tip, backupTip)
	}

	require.NoError(t, ops.CleanupBackups(ctx, repo, c))
	for _, member := range c.Members {
		assert.False(t, repo.BranchExists(ctx, ops.BackupBranch(c.Name, member)))
	}
}

func TestBackupRefusesDirtyWorktree(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	repo := gittest.New(t)
	store := chain.NewStore(repo, nil)
	gittest.Commit(t, repo, "f1", "f1 commit")
	require.NoError(t, store.Setup(ctx, "feature", "main", []string{"f1"}))

	gittest.WriteFile(t, repo, "dirty.txt", "uncommitted\n")

	c, err := store.Get(ctx, "feature")
	require.NoError(t, err)

	err = ops.Backup(ctx, repo, c)
	var dirtyErr *ops.ErrDirtyWorktree
	require.ErrorAs(t, err, &dirtyErr)
	assert.Equal(t, "f1", dirtyErr.Branch)
}

func TestPruneReportsMergedMembers(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	repo := gittest.New(t)
	store := chain.NewStore(repo, nil)
	gittest.Commit(t, repo, "f1", "f1 commit")
	gittest.Commit(t, repo, "f2", "f2 commit")
	require.NoError(t, store.Setup(ctx, "feature", "main", []string{"f1", "f2"}))

	c, err := store.Get(ctx, "feature")
	require.NoError(t, err)

	assert.Empty(t, ops.Prune(ctx, repo, c))

	// Fast-forwarding main to f1's tip makes f1 an ancestor of root,
	// so it should be reported as merged.
	wt := repo.Worktree()
	require.NoError(t, wt.Checkout(ctx, "main"))
	require.NoError(t, wt.Merge(ctx, git.MergeRequest{Upstream: "f1"}))

	assert.Equal(t, []string{"f1"}, ops.Prune(ctx, repo, c))
}

func TestMoveNeighbors(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	repo := gittest.New(t)
	store := chain.NewStore(repo, nil)
	gittest.Commit(t, repo, "f1", "f1 commit")
	gittest.Commit(t, repo, "f2", "f2 commit")
	gittest.Commit(t, repo, "f3", "f3 commit")
	require.NoError(t, store.Setup(ctx, "feature", "main", []string{"f1", "f2", "f3"}))

	c, err := store.Get(ctx, "feature")
	require.NoError(t, err)

	wt := repo.Worktree()
	require.NoError(t, wt.Checkout(ctx, "f2"))

	require.NoError(t, ops.Move(ctx, wt, c, ops.Next))
	current, err := wt.CurrentBranch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "f3", current)

	require.NoError(t, ops.Move(ctx, wt, c, ops.Prev))
	require.NoError(t, ops.Move(ctx, wt, c, ops.Prev))
	current, err = wt.CurrentBranch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "f1", current)

	// Prev from the first member goes to the chain's root.
	require.NoError(t, ops.Move(ctx, wt, c, ops.Prev))
	current, err = wt.CurrentBranch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "main", current)

	require.NoError(t, ops.Move(ctx, wt, c, ops.Last))
	current, err = wt.CurrentBranch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "f3", current)
}
