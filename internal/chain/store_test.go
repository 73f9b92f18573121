package chain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.chain.dev/chain/internal/chain"
	"go.chain.dev/chain/internal/git"
	"go.chain.dev/chain/internal/git/gittest"
)

func newStore(t *testing.T) (*chain.Store, *git.Repository) {
	t.Helper()
	repo := gittest.New(t)
	return chain.NewStore(repo, nil), repo
}

func TestSetupGetRemoveRoundTrip(t *testing.T) {
	t.Parallel()

	store, repo := newStore(t)
	ctx := t.Context()

	gittest.Commit(t, repo, "f1", "f1 commit")
	gittest.Commit(t, repo, "f2", "f2 commit")
	gittest.Commit(t, repo, "f3", "f3 commit")

	require.NoError(t, store.Setup(ctx, "feature", "main", []string{"f1", "f2", "f3"}))

	c, err := store.Get(ctx, "feature")
	require.NoError(t, err)
	assert.Equal(t, "main", c.Root)
	assert.Equal(t, []string{"f1", "f2", "f3"}, c.Members)

	// Removing a single member drops only its metadata.
	require.NoError(t, store.Remove(ctx, "f2"))
	c, err = store.Get(ctx, "feature")
	require.NoError(t, err)
	assert.Equal(t, []string{"f1", "f3"}, c.Members)

	// RemoveChain clears every remaining member plus the chain itself.
	require.NoError(t, store.RemoveChain(ctx, "feature"))
	_, err = store.Get(ctx, "feature")
	var notFound *chain.ErrNotFound
	assert.ErrorAs(t, err, &notFound)

	// The previously removed branches carry no leftover metadata.
	_, err = store.BranchMeta(ctx, "f1")
	assert.ErrorAs(t, err, &notFound)
	_, err = store.BranchMeta(ctx, "f3")
	assert.ErrorAs(t, err, &notFound)
}

func TestMoveBeforeAfterRoundTrip(t *testing.T) {
	t.Parallel()

	store, repo := newStore(t)
	ctx := t.Context()

	gittest.Commit(t, repo, "f1", "f1 commit")
	gittest.Commit(t, repo, "f2", "f2 commit")
	gittest.Commit(t, repo, "f3", "f3 commit")
	require.NoError(t, store.Setup(ctx, "feature", "main", []string{"f1", "f2", "f3"}))

	// Move f3 before f1: [f3, f1, f2].
	require.NoError(t, store.Move(ctx, "f3", chain.MoveTarget{Before: "f1"}))
	c, err := store.Get(ctx, "feature")
	require.NoError(t, err)
	assert.Equal(t, []string{"f3", "f1", "f2"}, c.Members)

	// Move f3 back after f2, restoring the original order.
	require.NoError(t, store.Move(ctx, "f3", chain.MoveTarget{After: "f2"}))
	c, err = store.Get(ctx, "feature")
	require.NoError(t, err)
	assert.Equal(t, []string{"f1", "f2", "f3"}, c.Members)
}

func TestMoveRootDoesNotReorder(t *testing.T) {
	t.Parallel()

	store, repo := newStore(t)
	ctx := t.Context()

	gittest.Commit(t, repo, "trunk2", "trunk2 commit")
	gittest.Commit(t, repo, "f1", "f1 commit")
	gittest.Commit(t, repo, "f2", "f2 commit")
	require.NoError(t, store.Setup(ctx, "feature", "main", []string{"f1", "f2"}))

	require.NoError(t, store.Move(ctx, "f1", chain.MoveTarget{Root: "trunk2"}))

	c, err := store.Get(ctx, "feature")
	require.NoError(t, err)
	assert.Equal(t, "trunk2", c.Root)
	assert.Equal(t, []string{"f1", "f2"}, c.Members, "changing the root must not alter chain-order")
}

func TestCheckInvariantsCatchesDoubleMembership(t *testing.T) {
	t.Parallel()

	good := []*chain.Chain{
		{Name: "a", Root: "main", Members: []string{"f1", "f2"}},
		{Name: "b", Root: "main", Members: []string{"f3"}},
	}
	assert.NoError(t, chain.CheckInvariants(good))

	bad := []*chain.Chain{
		{Name: "a", Root: "main", Members: []string{"f1"}},
		{Name: "b", Root: "main", Members: []string{"f1"}},
	}
	var invariantErr *chain.ErrInvariant
	assert.ErrorAs(t, chain.CheckInvariants(bad), &invariantErr)
}
