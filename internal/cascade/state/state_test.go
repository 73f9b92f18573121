package state_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.chain.dev/chain/internal/cascade/state"
)

func TestSaveLoadDeleteRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	assert.False(t, state.Exists(dir))

	_, err := state.Load(dir)
	assert.ErrorIs(t, err, state.ErrNoState)

	st := &state.State{
		ChainName:      "feature",
		OriginalBranch: "f1",
		Branches: []state.BranchEntry{
			{Name: "f1", Parent: "main", OriginalOid: "aaaa", ParentOriginalOid: "bbbb", MergeBaseOid: "bbbb", Status: state.Pending},
			{Name: "f2", Parent: "f1", OriginalOid: "cccc", ParentOriginalOid: "aaaa", MergeBaseOid: "aaaa", Status: state.Pending},
		},
	}
	require.NoError(t, state.Save(dir, st))
	assert.True(t, state.Exists(dir))

	loaded, err := state.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, st.ChainName, loaded.ChainName)
	assert.Equal(t, st.OriginalBranch, loaded.OriginalBranch)
	assert.Equal(t, st.Branches, loaded.Branches)
	assert.NotEmpty(t, loaded.CreatedAt, "Save stamps CreatedAt when absent")

	// A second save overwrites the file rather than appending to it:
	// reloading sees the updated status.
	loaded.Branches[0].Status = state.Completed
	require.NoError(t, state.Save(dir, loaded))

	reloaded, err := state.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, state.Completed, reloaded.Entry("f1").Status)

	require.NoError(t, state.Delete(dir))
	assert.False(t, state.Exists(dir))

	// Deleting an already-absent state file is not an error.
	require.NoError(t, state.Delete(dir))
}

func TestOriginalOidOf(t *testing.T) {
	t.Parallel()

	st := &state.State{
		Branches: []state.BranchEntry{
			{Name: "f1", OriginalOid: "aaaa"},
		},
	}

	oid, ok := st.OriginalOidOf("f1")
	assert.True(t, ok)
	assert.Equal(t, "aaaa", oid)

	_, ok = st.OriginalOidOf("missing")
	assert.False(t, ok)
}
