package cascade_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.chain.dev/chain/internal/cascade"
	"go.chain.dev/chain/internal/git"
	"go.chain.dev/chain/internal/git/gittest"
)

func TestSquashDetectorNotDetectedOnPlainDivergence(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	repo := gittest.New(t)
	gittest.CommitFile(t, repo, "f1", "a.txt", "a\n", "f1 commit")

	detector := cascade.NewSquashDetector(repo)
	status, err := detector.Detect(ctx, "f1", "main")
	require.NoError(t, err)
	assert.False(t, status.IsSquashed())
}

func TestSquashDetectorDetectsIdenticalTrees(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	repo := gittest.New(t)
	gittest.CommitFile(t, repo, "f1", "a.txt", "a\n", "f1 commit")

	// Simulate a squash-merge: main picks up the same tree contents
	// as f1 in a single commit.
	wt := repo.Worktree()
	require.NoError(t, wt.Checkout(ctx, "main"))
	require.NoError(t, wt.Merge(ctx, git.MergeRequest{Upstream: "f1", Squash: true}))
	require.NoError(t, wt.MergeContinue(ctx))

	detector := cascade.NewSquashDetector(repo)
	status, err := detector.Detect(ctx, "f1", "main")
	require.NoError(t, err)
	assert.True(t, status.IsSquashed())
}
